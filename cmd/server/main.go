package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fraudguard/internal/apiclient"
	"github.com/JonMunkholm/fraudguard/internal/config"
	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/logging"
	"github.com/JonMunkholm/fraudguard/internal/notify"
	"github.com/JonMunkholm/fraudguard/internal/perf"
	"github.com/JonMunkholm/fraudguard/internal/storage"
	"github.com/JonMunkholm/fraudguard/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage_backend", cfg.Storage.Backend,
		"fraud_api", cfg.FraudAPI.URL,
		"predict_max_concurrent", cfg.FraudAPI.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_login", cfg.Auth.RequireLogin,
	)

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer st.close()

	tracker := perf.New(logger, nil)
	client := apiclient.New(cfg.FraudAPI.URL,
		apiclient.WithTimeout(cfg.FraudAPI.Timeout),
		apiclient.WithHealthPath(cfg.FraudAPI.HealthPath),
		apiclient.WithDetectPath(cfg.FraudAPI.DetectPath),
		apiclient.WithTracker(tracker),
		apiclient.WithLogger(logger),
	)

	limiter := core.NewPredictLimiter(cfg.FraudAPI.MaxConcurrent, cfg.FraudAPI.MaxWait)
	service := core.NewService(st.history, client, logger).WithLimiter(limiter)
	health := core.NewHealthMonitor(client, core.HealthConfig{
		Interval: cfg.Health.Interval,
		Timeout:  cfg.Health.Timeout,
	}, logger)
	hub := notify.NewHub(nil, cfg.Session.IdleTimeout, logger)

	store := storage.New(st.backend, cfg.Storage.Prefix, logger)
	accounts := core.NewAccounts(st.users, store.Scope("auth"), core.AccountsConfig{
		LoginTTL:   cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, logger)
	if cfg.Auth.SeedDemo {
		if u, err := accounts.EnsureDemoUser(ctx); err != nil {
			logger.Warn("demo account not created", "error", err)
		} else {
			logger.Info("demo account ready", "email", u.Email)
		}
	}

	server := web.NewServer(cfg, web.Deps{
		Service:  service,
		Health:   health,
		Store:    store,
		Hub:      hub,
		Accounts: accounts,
		Tracker:  tracker,
		Logger:   logger,
	})

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	go health.Run(jobCtx)
	go hub.Run(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}

		// Wait for in-flight scoring requests (with timeout)
		if st := limiter.Status(); st.Active > 0 {
			logger.Info("waiting for predictions to complete", "active", st.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				logger.Warn("predictions did not complete in time", "error", err)
			}
		}
	}()

	if err := server.Start(jobCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	logger.Info("server stopped")
}

// stores are the persistence pieces of one storage backend.
type stores struct {
	backend storage.Backend
	history core.History
	users   core.Users
	close   func()
}

// openStores opens the preference backend, the prediction history and
// the account store for the configured storage backend.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		backend, err := storage.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return stores{}, err
		}
		history, err := core.NewSQLiteHistory(ctx, backend.DB())
		if err != nil {
			_ = backend.Close()
			return stores{}, err
		}
		users, err := core.NewSQLiteUsers(ctx, backend.DB())
		if err != nil {
			_ = backend.Close()
			return stores{}, err
		}
		logger.Info("opened sqlite database", "path", cfg.Storage.SQLitePath)
		return stores{backend, history, users, func() { _ = backend.Close() }}, nil

	case config.BackendPostgres:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return stores{}, err
		}
		backend, err := storage.NewPostgresBackend(ctx, pool)
		if err != nil {
			pool.Close()
			return stores{}, err
		}
		history, err := core.NewPostgresHistory(ctx, pool)
		if err != nil {
			pool.Close()
			return stores{}, err
		}
		users, err := core.NewPostgresUsers(ctx, pool)
		if err != nil {
			pool.Close()
			return stores{}, err
		}

		// Log which database we connected to
		if u, err := url.Parse(cfg.Database.URL); err == nil {
			logger.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			logger.Info("connected to database")
		}
		return stores{backend, history, users, pool.Close}, nil

	default:
		logger.Warn("using in-memory storage; history and accounts are lost on restart")
		return stores{storage.NewMemoryBackend(), core.NewMemoryHistory(), core.NewMemoryUsers(), func() {}}, nil
	}
}

// openPool connects to PostgreSQL with the configured pool limits.
func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
