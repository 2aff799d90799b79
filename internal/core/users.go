package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrUsersUnavailable wraps failures of the user store.
	ErrUsersUnavailable = errors.New("users unavailable")
	// ErrUserNotFound is returned by Users lookups for unknown users.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when an account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBankIDTaken is returned when an account already uses the bank ID.
	ErrBankIDTaken = errors.New("bank id already registered")
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotSignedIn is returned for pages that need an account.
	ErrNotSignedIn = errors.New("not signed in")
)

// User is a registered account. Email is stored lowercased.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	BankID       string    `json:"bank_id" db:"bank_id"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Users persists accounts. Email and bank ID are unique.
type Users interface {
	// Create stores u, or returns ErrEmailTaken / ErrBankIDTaken.
	Create(ctx context.Context, u User) error
	// ByEmail returns the account with email or ErrUserNotFound.
	ByEmail(ctx context.Context, email string) (User, error)
	// ByID returns the account with id or ErrUserNotFound.
	ByID(ctx context.Context, id string) (User, error)
}

// MemoryUsers is a process-local Users.
type MemoryUsers struct {
	mu    sync.RWMutex
	users []User
}

var _ Users = (*MemoryUsers)(nil)

// NewMemoryUsers returns an empty in-memory user store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{}
}

func (m *MemoryUsers) Create(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
		if existing.BankID == u.BankID {
			return ErrBankIDTaken
		}
	}
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	m.users = append(m.users, u)
	return nil
}

func (m *MemoryUsers) ByEmail(_ context.Context, email string) (User, error) {
	return m.find(func(u User) bool { return u.Email == email })
}

func (m *MemoryUsers) ByID(_ context.Context, id string) (User, error) {
	return m.find(func(u User) bool { return u.ID == id })
}

func (m *MemoryUsers) find(match func(User) bool) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if match(u) {
			u.PasswordHash = append([]byte(nil), u.PasswordHash...)
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}
