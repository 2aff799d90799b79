package core

import (
	"context"
	"slices"
	"sync"
	"time"
)

// History persists scored transactions.
type History interface {
	// Save stores tx. ID and CreatedAt must be set.
	Save(ctx context.Context, tx Transaction) error
	// List returns one page of the owner's transactions, newest first,
	// plus the owner's total count.
	List(ctx context.Context, owner string, offset, limit int) ([]Transaction, int, error)
	// All returns every transaction of the owner, newest first.
	All(ctx context.Context, owner string) ([]Transaction, error)
	// Get returns one transaction or ErrTransactionNotFound.
	Get(ctx context.Context, owner, id string) (Transaction, error)
}

// MemoryHistory is a process-local History.
type MemoryHistory struct {
	mu  sync.RWMutex
	txs []Transaction
}

// NewMemoryHistory returns an empty in-memory history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (h *MemoryHistory) Save(_ context.Context, tx Transaction) error {
	tx.AlertReasons = slices.Clone(tx.AlertReasons)
	h.mu.Lock()
	h.txs = append(h.txs, tx)
	h.mu.Unlock()
	return nil
}

func (h *MemoryHistory) List(ctx context.Context, owner string, offset, limit int) ([]Transaction, int, error) {
	all, err := h.All(ctx, owner)
	if err != nil {
		return nil, 0, err
	}
	offset, limit = listWindow(offset, limit)
	total := len(all)
	if offset >= total {
		return []Transaction{}, total, nil
	}
	end := offset + min(limit, total-offset)
	return all[offset:end], total, nil
}

// listWindow clamps a negative offset or limit to zero.
func listWindow(offset, limit int) (int, int) {
	return max(offset, 0), max(limit, 0)
}

func (h *MemoryHistory) All(_ context.Context, owner string) ([]Transaction, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Transaction, 0)
	for _, tx := range h.txs {
		if tx.Owner == owner {
			tx.AlertReasons = slices.Clone(tx.AlertReasons)
			out = append(out, tx)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (h *MemoryHistory) Get(_ context.Context, owner, id string) (Transaction, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, tx := range h.txs {
		if tx.Owner == owner && tx.ID == id {
			tx.AlertReasons = slices.Clone(tx.AlertReasons)
			return tx, nil
		}
	}
	return Transaction{}, ErrTransactionNotFound
}

// sortNewestFirst orders by CreatedAt descending; ties keep insertion order
// reversed so the last saved comes first.
func sortNewestFirst(txs []Transaction) {
	slices.Reverse(txs)
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// startOfDay returns midnight of t's day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
