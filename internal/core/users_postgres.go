package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const postgresUsersSchema = `
CREATE TABLE IF NOT EXISTS fg_users (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	bank_id       TEXT NOT NULL,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	CONSTRAINT fg_users_email_key UNIQUE (email),
	CONSTRAINT fg_users_bank_id_key UNIQUE (bank_id)
)`

const userSelect = `SELECT id::text AS id, name, email, bank_id, password_hash, created_at FROM fg_users`

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresUsers stores accounts in the fg_users table.
type PostgresUsers struct {
	db DBTX
}

var _ Users = (*PostgresUsers)(nil)

// NewPostgresUsers ensures the schema exists and returns a user store on db.
func NewPostgresUsers(ctx context.Context, db DBTX) (*PostgresUsers, error) {
	if _, err := db.Exec(ctx, postgresUsersSchema); err != nil {
		return nil, fmt.Errorf("init fg_users schema: %w", err)
	}
	return &PostgresUsers{db: db}, nil
}

func (p *PostgresUsers) Create(ctx context.Context, u User) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO fg_users (id, name, email, bank_id, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.BankID, u.PasswordHash, u.CreatedAt,
	)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case "fg_users_email_key":
			return ErrEmailTaken
		case "fg_users_bank_id_key":
			return ErrBankIDTaken
		}
	}
	return fmt.Errorf("%w: create user: %w", ErrUsersUnavailable, err)
}

func (p *PostgresUsers) ByEmail(ctx context.Context, email string) (User, error) {
	return p.one(ctx, userSelect+` WHERE email = $1`, email)
}

func (p *PostgresUsers) ByID(ctx context.Context, id string) (User, error) {
	return p.one(ctx, userSelect+` WHERE id::text = $1`, id)
}

func (p *PostgresUsers) one(ctx context.Context, sql string, arg string) (User, error) {
	rows, err := p.db.Query(ctx, sql, arg)
	if err != nil {
		return User{}, fmt.Errorf("%w: get user: %w", ErrUsersUnavailable, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[User])
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("%w: get user: %w", ErrUsersUnavailable, err)
	}
	return u, nil
}
