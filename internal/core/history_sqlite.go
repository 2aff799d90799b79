package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const sqliteHistorySchema = `
CREATE TABLE IF NOT EXISTS fg_transactions (
	id                TEXT PRIMARY KEY,
	owner             TEXT NOT NULL,
	transaction_id    TEXT NOT NULL,
	user_id           INTEGER NOT NULL DEFAULT 0,
	amount            REAL NOT NULL,
	currency          TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL DEFAULT '',
	fraud_probability REAL NOT NULL,
	risk_score        REAL NOT NULL,
	alert_triggered   INTEGER NOT NULL DEFAULT 0,
	alert_reasons     TEXT NOT NULL DEFAULT '[]',
	prediction        INTEGER NOT NULL DEFAULT 0,
	created_at        INTEGER NOT NULL,
	seq               INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS fg_transactions_owner_created
	ON fg_transactions (owner, created_at DESC)`

// SQLiteHistory stores transactions in a SQLite database, typically the
// one opened by storage.OpenSQLite.
type SQLiteHistory struct {
	db *sql.DB
}

var _ History = (*SQLiteHistory)(nil)

// NewSQLiteHistory ensures the schema exists and returns a history on db.
func NewSQLiteHistory(ctx context.Context, db *sql.DB) (*SQLiteHistory, error) {
	if _, err := db.ExecContext(ctx, sqliteHistorySchema); err != nil {
		return nil, fmt.Errorf("init fg_transactions schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

func (h *SQLiteHistory) Save(ctx context.Context, tx Transaction) error {
	reasons := tx.AlertReasons
	if reasons == nil {
		reasons = []string{}
	}
	rawReasons, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("encode alert reasons: %w", err)
	}

	_, err = h.db.ExecContext(ctx,
		`INSERT INTO fg_transactions (id, owner, transaction_id, user_id, amount, currency, location,
			fraud_probability, risk_score, alert_triggered, alert_reasons, prediction, created_at, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM fg_transactions))`,
		tx.ID, tx.Owner, tx.TransactionID, tx.UserID, tx.Amount, tx.Currency, tx.Location,
		tx.FraudProbability, tx.RiskScore, tx.AlertTriggered, string(rawReasons), tx.Prediction,
		tx.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: save transaction: %w", ErrHistoryUnavailable, err)
	}
	return nil
}

const sqliteSelect = `SELECT id, owner, transaction_id, user_id, amount, currency, location,
	fraud_probability, risk_score, alert_triggered, alert_reasons, prediction, created_at
	FROM fg_transactions`

func (h *SQLiteHistory) List(ctx context.Context, owner string, offset, limit int) ([]Transaction, int, error) {
	offset, limit = listWindow(offset, limit)

	var total int
	if err := h.db.QueryRowContext(ctx,
		`SELECT count(*) FROM fg_transactions WHERE owner = ?`, owner,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count transactions: %w", ErrHistoryUnavailable, err)
	}

	txs, err := h.query(ctx,
		sqliteSelect+` WHERE owner = ? ORDER BY created_at DESC, seq DESC LIMIT ? OFFSET ?`,
		owner, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (h *SQLiteHistory) All(ctx context.Context, owner string) ([]Transaction, error) {
	return h.query(ctx, sqliteSelect+` WHERE owner = ? ORDER BY created_at DESC, seq DESC`, owner)
}

func (h *SQLiteHistory) Get(ctx context.Context, owner, id string) (Transaction, error) {
	row := h.db.QueryRowContext(ctx, sqliteSelect+` WHERE owner = ? AND id = ?`, owner, id)
	tx, err := scanSQLiteTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: get transaction: %w", ErrHistoryUnavailable, err)
	}
	return tx, nil
}

func (h *SQLiteHistory) query(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query transactions: %w", ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	txs := make([]Transaction, 0)
	for rows.Next() {
		tx, err := scanSQLiteTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan transaction: %w", ErrHistoryUnavailable, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %w", ErrHistoryUnavailable, err)
	}
	return txs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTransaction(r rowScanner) (Transaction, error) {
	var (
		tx         Transaction
		rawReasons string
		createdAt  int64
	)
	err := r.Scan(&tx.ID, &tx.Owner, &tx.TransactionID, &tx.UserID, &tx.Amount, &tx.Currency, &tx.Location,
		&tx.FraudProbability, &tx.RiskScore, &tx.AlertTriggered, &rawReasons, &tx.Prediction, &createdAt)
	if err != nil {
		return Transaction{}, err
	}
	if err := json.Unmarshal([]byte(rawReasons), &tx.AlertReasons); err != nil {
		return Transaction{}, fmt.Errorf("decode alert reasons: %w", err)
	}
	tx.CreatedAt = time.Unix(0, createdAt).UTC()
	return tx, nil
}
