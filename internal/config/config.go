// Package config provides centralized configuration management for FraudGuard.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	FraudAPI FraudAPIConfig
	Health   HealthConfig
	Session  SessionConfig
	Auth     AuthConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 5000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"5000"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StorageConfig selects where preferences and history live.
type StorageConfig struct {
	// Backend is memory, sqlite or postgres (default: memory)
	Backend string `env:"STORAGE_BACKEND" default:"memory"`

	// Prefix namespaces every stored key (default: fg_)
	Prefix string `env:"STORAGE_PREFIX" default:"fg_"`

	// SQLitePath is the database file for the sqlite backend
	SQLitePath string `env:"SQLITE_PATH" default:"data/fraudguard.db"`
}

// DatabaseConfig holds PostgreSQL settings for the postgres backend.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// FraudAPIConfig points at the external scoring service.
type FraudAPIConfig struct {
	URL        string        `env:"FRAUD_API_URL" default:"http://localhost:8000"`
	Timeout    time.Duration `env:"FRAUD_API_TIMEOUT" default:"10s"`
	HealthPath string        `env:"FRAUD_API_HEALTH_PATH" default:"/"`
	DetectPath string        `env:"FRAUD_API_DETECT_PATH" default:"/detect"`

	// MaxConcurrent bounds in-flight predictions (default: 8)
	MaxConcurrent int           `env:"FRAUD_API_MAX_CONCURRENT" default:"8"`
	MaxWait       time.Duration `env:"FRAUD_API_MAX_WAIT" default:"5s"`
}

// HealthConfig controls background polling of the scoring API.
type HealthConfig struct {
	Timeout  time.Duration `env:"HEALTH_TIMEOUT" default:"5s"`
	Interval time.Duration `env:"HEALTH_INTERVAL" default:"30s"`
}

// SessionConfig controls the browser session cookie and its banners.
type SessionConfig struct {
	CookieName string `env:"SESSION_COOKIE" default:"fg_session"`
	Secure     bool   `env:"SESSION_COOKIE_SECURE" default:"false"`

	// IdleTimeout drops a session's pending banners after inactivity (default: 30m)
	IdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"30m"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"1m"`
}

// AuthConfig controls user accounts.
type AuthConfig struct {
	// RequireLogin sends anonymous visitors to /login (default: true)
	RequireLogin bool `env:"AUTH_REQUIRE_LOGIN" default:"true"`

	// SessionTTL is how long a login lasts (default: 168h)
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" default:"168h"`

	// BcryptCost is the password hashing cost, 4-31 (default: 10)
	BcryptCost int `env:"AUTH_BCRYPT_COST" default:"10"`

	// SeedDemo creates demo@fraudguard.com on startup (default: false)
	SeedDemo bool `env:"AUTH_SEED_DEMO" default:"false"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards the JSON API with X-API-Key (default: false)
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
