package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JonMunkholm/fraudguard/internal/storage"
	"github.com/JonMunkholm/fraudguard/internal/validate"
)

func newTestAccounts(t *testing.T) (*Accounts, *MemoryUsers, *time.Time) {
	t.Helper()
	now := day
	users := NewMemoryUsers()
	logins := storage.New(storage.NewMemoryBackend(), "fgauth_", nil)
	a := NewAccounts(users, logins, AccountsConfig{LoginTTL: time.Hour, BcryptCost: bcrypt.MinCost}, nil).
		WithClock(func() time.Time { return now })
	return a, users, &now
}

func signupForm(email, bankID string) validate.SignupForm {
	return validate.SignupForm{
		Name:            "  Hamkor Bank ",
		Email:           email,
		BankID:          bankID,
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestAccounts_SignUpNormalizesAndHashes(t *testing.T) {
	a, users, _ := newTestAccounts(t)
	ctx := context.Background()

	u, err := a.SignUp(ctx, signupForm("  Ops@Bank.UZ ", " B001 "))
	require.NoError(t, err)
	assert.Equal(t, "Hamkor Bank", u.Name)
	assert.Equal(t, "ops@bank.uz", u.Email)
	assert.Equal(t, "B001", u.BankID)
	assert.Equal(t, day, u.CreatedAt)
	assert.NotContains(t, string(u.PasswordHash), "secret1")
	assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("secret1")))

	stored, err := users.ByEmail(ctx, "ops@bank.uz")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
}

func TestAccounts_SignUpRejects(t *testing.T) {
	a, _, _ := newTestAccounts(t)
	ctx := context.Background()
	_, err := a.SignUp(ctx, signupForm("ops@bank.uz", "B001"))
	require.NoError(t, err)

	short := signupForm("new@bank.uz", "B009")
	short.Password, short.ConfirmPassword = "12345", "12345"
	mismatch := signupForm("new@bank.uz", "B009")
	mismatch.ConfirmPassword = "secret2"
	blank := signupForm("new@bank.uz", "  ")

	tests := map[string]struct {
		form  validate.SignupForm
		err   error
		field string
	}{
		"duplicate email":       {signupForm("OPS@bank.uz", "B002"), ErrEmailTaken, ""},
		"duplicate bank id":     {signupForm("risk@bank.uz", "B001"), ErrBankIDTaken, ""},
		"short password":        {short, nil, "password"},
		"passwords differ":      {mismatch, nil, "confirm_password"},
		"blank bank id":         {blank, nil, "bank_id"},
		"malformed email":       {signupForm("not-an-email", "B010"), nil, "email"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.SignUp(ctx, tt.form)
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			var verrs validate.Errors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Contains(t, verrs.Map(), tt.field)
		})
	}
}

func TestAccounts_Authenticate(t *testing.T) {
	a, _, _ := newTestAccounts(t)
	ctx := context.Background()
	created, err := a.SignUp(ctx, signupForm("ops@bank.uz", "B001"))
	require.NoError(t, err)

	u, err := a.Authenticate(ctx, " OPS@bank.uz", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = a.Authenticate(ctx, "ops@bank.uz", "secret2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Authenticate(ctx, "nobody@bank.uz", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccounts_LoginCurrentLogout(t *testing.T) {
	a, _, now := newTestAccounts(t)
	ctx := context.Background()
	u, err := a.SignUp(ctx, signupForm("ops@bank.uz", "B001"))
	require.NoError(t, err)

	_, ok, err := a.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Login(ctx, "sess-1", u))
	got, ok, err := a.Current(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, u.ID, got.ID)

	_, ok, _ = a.Current(ctx, "sess-2")
	assert.False(t, ok, "other sessions stay signed out")

	require.NoError(t, a.Logout(ctx, "sess-1"))
	_, ok, _ = a.Current(ctx, "sess-1")
	assert.False(t, ok)

	require.NoError(t, a.Login(ctx, "sess-1", u))
	*now = now.Add(time.Hour)
	_, ok, err = a.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok, "login expires after its TTL")

	assert.ErrorIs(t, a.Login(ctx, "", u), storage.ErrInvalidKey)
	assert.NoError(t, a.Logout(ctx, ""))
}

func TestAccounts_CurrentDropsMissingUser(t *testing.T) {
	a, _, _ := newTestAccounts(t)
	ctx := context.Background()

	require.NoError(t, a.Login(ctx, "sess-1", User{ID: "gone"}))
	_, ok, err := a.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)

	var l login
	found, err := a.logins.Get(ctx, "sess-1", &l)
	require.NoError(t, err)
	assert.False(t, found, "binding removed")
}

func TestAccounts_EnsureDemoUserIsIdempotent(t *testing.T) {
	a, _, _ := newTestAccounts(t)
	ctx := context.Background()

	first, err := a.EnsureDemoUser(ctx)
	require.NoError(t, err)
	second, err := a.EnsureDemoUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	u, err := a.Authenticate(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, DemoBankID, u.BankID)
}
