package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const sqliteUsersSchema = `
CREATE TABLE IF NOT EXISTS fg_users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	bank_id       TEXT NOT NULL UNIQUE,
	password_hash BLOB NOT NULL,
	created_at    INTEGER NOT NULL
)`

const sqliteUserSelect = `SELECT id, name, email, bank_id, password_hash, created_at FROM fg_users`

// SQLiteUsers stores accounts in the fg_users table.
type SQLiteUsers struct {
	db *sql.DB
}

var _ Users = (*SQLiteUsers)(nil)

// NewSQLiteUsers ensures the schema exists and returns a user store on db.
func NewSQLiteUsers(ctx context.Context, db *sql.DB) (*SQLiteUsers, error) {
	if _, err := db.ExecContext(ctx, sqliteUsersSchema); err != nil {
		return nil, fmt.Errorf("init fg_users schema: %w", err)
	}
	return &SQLiteUsers{db: db}, nil
}

func (s *SQLiteUsers) Create(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fg_users (id, name, email, bank_id, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.BankID, u.PasswordHash, u.CreatedAt.UnixNano(),
	)
	if err == nil {
		return nil
	}
	// modernc reports "UNIQUE constraint failed: fg_users.<column>".
	msg := err.Error()
	switch {
	case strings.Contains(msg, "fg_users.email"):
		return ErrEmailTaken
	case strings.Contains(msg, "fg_users.bank_id"):
		return ErrBankIDTaken
	}
	return fmt.Errorf("%w: create user: %w", ErrUsersUnavailable, err)
}

func (s *SQLiteUsers) ByEmail(ctx context.Context, email string) (User, error) {
	return s.one(ctx, sqliteUserSelect+` WHERE email = ?`, email)
}

func (s *SQLiteUsers) ByID(ctx context.Context, id string) (User, error) {
	return s.one(ctx, sqliteUserSelect+` WHERE id = ?`, id)
}

func (s *SQLiteUsers) one(ctx context.Context, query string, arg string) (User, error) {
	var (
		u         User
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.BankID, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("%w: get user: %w", ErrUsersUnavailable, err)
	}
	u.CreatedAt = time.Unix(0, createdAt).UTC()
	return u, nil
}
