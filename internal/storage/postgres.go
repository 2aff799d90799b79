package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS fg_kv (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresBackend persists entries in the fg_kv table of a shared pool.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

var _ Backend = (*PostgresBackend)(nil)

// NewPostgresBackend ensures the fg_kv table exists and returns a backend
// on pool. The pool is owned by the caller.
func NewPostgresBackend(ctx context.Context, pool *pgxpool.Pool) (*PostgresBackend, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("init fg_kv schema: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO fg_kv (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("postgres put: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Fetch(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := b.pool.QueryRow(ctx, `SELECT value::text FROM fg_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres fetch: %w", err)
	}
	return []byte(value), true, nil
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM fg_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}

func (b *PostgresBackend) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT key FROM fg_kv WHERE left(key, length($1)) = $1 ORDER BY key`,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres keys: %w", err)
	}
	return keys, nil
}
