package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Lookup resolves an environment variable. os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup, applies defaults for unset
// values and validates the result.
func LoadFrom(lookup Lookup) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MapLookup adapts a map for LoadFrom.
func MapLookup(env map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct recursively populates struct fields from the environment.
func loadStruct(v reflect.Value, lookup Lookup) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal, lookup); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := get(lookup, envName)
		if value == "" {
			if alt := field.Tag.Get("envAlt"); alt != "" {
				value = get(lookup, alt)
			}
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

func get(lookup Lookup, key string) string {
	v, _ := lookup(key)
	return strings.TrimSpace(v)
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		var result []string
		for p := range strings.SplitSeq(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT and SERVER_WRITE_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Storage
	backends := []string{BackendMemory, BackendSQLite, BackendPostgres}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if !slices.Contains(backends, c.Storage.Backend) {
		errs = append(errs, fmt.Sprintf("STORAGE_BACKEND (%q) must be one of: %s", c.Storage.Backend, strings.Join(backends, ", ")))
	}
	if c.Storage.Prefix == "" {
		errs = append(errs, "STORAGE_PREFIX must not be empty")
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.SQLitePath == "" {
		errs = append(errs, "SQLITE_PATH is required for the sqlite backend")
	}
	if c.Storage.Backend == BackendPostgres {
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres backend")
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 || c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MIN_CONNS (%d) must be between 0 and DB_MAX_CONNS (%d)",
				c.Database.MinConns, c.Database.MaxConns))
		}
	}

	// Scoring API
	if u, err := url.Parse(c.FraudAPI.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("FRAUD_API_URL (%q) must be an absolute http(s) URL", c.FraudAPI.URL))
	}
	if c.FraudAPI.Timeout <= 0 {
		errs = append(errs, "FRAUD_API_TIMEOUT must be positive")
	}
	if c.FraudAPI.MaxConcurrent <= 0 {
		errs = append(errs, "FRAUD_API_MAX_CONCURRENT must be positive")
	}
	if c.Health.Timeout <= 0 || c.Health.Interval <= 0 {
		errs = append(errs, "HEALTH_TIMEOUT and HEALTH_INTERVAL must be positive")
	}

	// Session
	if c.Session.CookieName == "" {
		errs = append(errs, "SESSION_COOKIE must not be empty")
	}
	if c.Session.IdleTimeout <= 0 || c.Session.SweepInterval <= 0 {
		errs = append(errs, "SESSION_IDLE_TIMEOUT and SESSION_SWEEP_INTERVAL must be positive")
	}

	// Auth
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, "AUTH_SESSION_TTL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Sprintf("AUTH_BCRYPT_COST (%d) must be 4-31", c.Auth.BcryptCost))
	}

	// Rate limit
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Security
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Storage: {Backend: %q, Prefix: %q}, ", c.Storage.Backend, c.Storage.Prefix)
	if c.Database.URL != "" {
		b.WriteString("Database: {URL: [MASKED]}, ")
	}
	fmt.Fprintf(&b, "FraudAPI: {URL: %q, Timeout: %s}, ", c.FraudAPI.URL, c.FraudAPI.Timeout)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: %d}, ", c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
