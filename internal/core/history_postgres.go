package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const postgresHistorySchema = `
CREATE TABLE IF NOT EXISTS fg_transactions (
	id                UUID PRIMARY KEY,
	owner             TEXT NOT NULL,
	transaction_id    TEXT NOT NULL,
	user_id           INTEGER NOT NULL DEFAULT 0,
	amount            DOUBLE PRECISION NOT NULL,
	currency          TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL DEFAULT '',
	fraud_probability DOUBLE PRECISION NOT NULL,
	risk_score        DOUBLE PRECISION NOT NULL,
	alert_triggered   BOOLEAN NOT NULL DEFAULT FALSE,
	alert_reasons     TEXT[] NOT NULL DEFAULT '{}',
	prediction        INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS fg_transactions_owner_created
	ON fg_transactions (owner, created_at DESC)`

const transactionColumns = `id, owner, transaction_id, user_id, amount, currency, location,
	fraud_probability, risk_score, alert_triggered, alert_reasons, prediction, created_at`

// transactionSelect matches Transaction's db tags; id is read as text.
const transactionSelect = `id::text AS id, owner, transaction_id, user_id, amount, currency, location,
	fraud_probability, risk_score, alert_triggered, alert_reasons, prediction, created_at`

// PostgresHistory stores transactions in the fg_transactions table.
type PostgresHistory struct {
	db DBTX
}

var _ History = (*PostgresHistory)(nil)

// NewPostgresHistory ensures the schema exists and returns a history on db.
func NewPostgresHistory(ctx context.Context, db DBTX) (*PostgresHistory, error) {
	if _, err := db.Exec(ctx, postgresHistorySchema); err != nil {
		return nil, fmt.Errorf("init fg_transactions schema: %w", err)
	}
	return &PostgresHistory{db: db}, nil
}

func (h *PostgresHistory) Save(ctx context.Context, tx Transaction) error {
	reasons := tx.AlertReasons
	if reasons == nil {
		reasons = []string{}
	}
	_, err := h.db.Exec(ctx,
		`INSERT INTO fg_transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		tx.ID, tx.Owner, tx.TransactionID, tx.UserID, tx.Amount, tx.Currency, tx.Location,
		tx.FraudProbability, tx.RiskScore, tx.AlertTriggered, reasons, tx.Prediction, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: save transaction: %w", ErrHistoryUnavailable, err)
	}
	return nil
}

func (h *PostgresHistory) List(ctx context.Context, owner string, offset, limit int) ([]Transaction, int, error) {
	offset, limit = listWindow(offset, limit)

	var total int
	if err := h.db.QueryRow(ctx,
		`SELECT count(*) FROM fg_transactions WHERE owner = $1`, owner,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count transactions: %w", ErrHistoryUnavailable, err)
	}

	txs, err := h.query(ctx,
		`SELECT `+transactionSelect+` FROM fg_transactions
		 WHERE owner = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		owner, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (h *PostgresHistory) All(ctx context.Context, owner string) ([]Transaction, error) {
	return h.query(ctx,
		`SELECT `+transactionSelect+` FROM fg_transactions
		 WHERE owner = $1 ORDER BY created_at DESC`,
		owner,
	)
}

func (h *PostgresHistory) Get(ctx context.Context, owner, id string) (Transaction, error) {
	rows, err := h.db.Query(ctx,
		`SELECT `+transactionSelect+` FROM fg_transactions WHERE owner = $1 AND id::text = $2`,
		owner, id,
	)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: get transaction: %w", ErrHistoryUnavailable, err)
	}
	tx, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Transaction])
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: get transaction: %w", ErrHistoryUnavailable, err)
	}
	return tx, nil
}

func (h *PostgresHistory) query(ctx context.Context, sql string, args ...any) ([]Transaction, error) {
	rows, err := h.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query transactions: %w", ErrHistoryUnavailable, err)
	}
	txs, err := pgx.CollectRows(rows, pgx.RowToStructByName[Transaction])
	if err != nil {
		return nil, fmt.Errorf("%w: scan transactions: %w", ErrHistoryUnavailable, err)
	}
	return txs, nil
}
