package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/JonMunkholm/fraudguard/internal/storage"
	"github.com/JonMunkholm/fraudguard/internal/validate"
)

const (
	DefaultLoginTTL = 7 * 24 * time.Hour

	// Demo account created by EnsureDemoUser.
	DemoName     = "Demo Bank"
	DemoEmail    = "demo@fraudguard.com"
	DemoBankID   = "DEMO001"
	DemoPassword = "demo123"
)

// AccountsConfig tunes password hashing and login lifetime.
type AccountsConfig struct {
	LoginTTL   time.Duration
	BcryptCost int
}

// login binds a browser session to an account.
type login struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Accounts registers users, checks passwords and tracks which session is
// signed in as whom. Session bindings live in a storage.Store so they
// survive restarts on the persistent backends.
type Accounts struct {
	users     Users
	logins    *storage.Store
	validator *validate.Validator
	cfg       AccountsConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewAccounts returns an account service on users, keeping session
// bindings in logins.
func NewAccounts(users Users, logins *storage.Store, cfg AccountsConfig, logger *slog.Logger) *Accounts {
	if cfg.LoginTTL <= 0 {
		cfg.LoginTTL = DefaultLoginTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Accounts{
		users:     users,
		logins:    logins,
		validator: validate.New(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (a *Accounts) WithClock(now func() time.Time) *Accounts {
	if now != nil {
		a.now = now
	}
	return a
}

// NormalizeSignup trims the form fields and lowercases the email.
// Passwords are left untouched.
func NormalizeSignup(f validate.SignupForm) validate.SignupForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = NormalizeEmail(f.Email)
	f.BankID = strings.TrimSpace(f.BankID)
	return f
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp validates f and creates the account. It returns validate.Errors
// for bad fields and ErrEmailTaken or ErrBankIDTaken for duplicates.
func (a *Accounts) SignUp(ctx context.Context, f validate.SignupForm) (User, error) {
	f = NormalizeSignup(f)
	if err := a.validator.Struct(f); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), a.cfg.BcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         f.Name,
		Email:        f.Email,
		BankID:       f.BankID,
		PasswordHash: hash,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.users.Create(ctx, u); err != nil {
		return User{}, err
	}

	a.logger.Info("user signed up", "user_id", u.ID, "bank_id", u.BankID)
	return u, nil
}

// Authenticate returns the account for email when password matches, or
// ErrInvalidCredentials.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := a.users.ByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Login signs session in as u until the login TTL passes.
func (a *Accounts) Login(ctx context.Context, session string, u User) error {
	if session == "" {
		return storage.ErrInvalidKey
	}
	return a.logins.Set(ctx, session, login{UserID: u.ID, ExpiresAt: a.now().Add(a.cfg.LoginTTL)})
}

// Logout signs session out. Unknown sessions are not an error.
func (a *Accounts) Logout(ctx context.Context, session string) error {
	if session == "" {
		return nil
	}
	return a.logins.Remove(ctx, session)
}

// Current returns the account session is signed in as. Expired logins
// and logins of deleted accounts are dropped and report false.
func (a *Accounts) Current(ctx context.Context, session string) (User, bool, error) {
	if session == "" {
		return User{}, false, nil
	}

	var l login
	found, err := a.logins.Get(ctx, session, &l)
	if err != nil || !found {
		return User{}, false, err
	}
	if !a.now().Before(l.ExpiresAt) {
		return User{}, false, a.logins.Remove(ctx, session)
	}

	u, err := a.users.ByID(ctx, l.UserID)
	if errors.Is(err, ErrUserNotFound) {
		a.logger.Warn("login for missing user dropped", "user_id", l.UserID)
		return User{}, false, a.logins.Remove(ctx, session)
	}
	if err != nil {
		return User{}, false, err
	}
	return u, true, nil
}

// EnsureDemoUser creates the demo account unless its email is taken.
func (a *Accounts) EnsureDemoUser(ctx context.Context) (User, error) {
	u, err := a.SignUp(ctx, validate.SignupForm{
		Name:            DemoName,
		Email:           DemoEmail,
		BankID:          DemoBankID,
		Password:        DemoPassword,
		ConfirmPassword: DemoPassword,
	})
	if errors.Is(err, ErrEmailTaken) {
		return a.users.ByEmail(ctx, DemoEmail)
	}
	return u, err
}
