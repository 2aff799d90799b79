package core

// health.go polls the scoring API in the background.
//
// Pages that need the API ask for its health on every render; the monitor
// answers from its last result so rendering never waits on the network.
// It runs immediately on start, then every interval, and stops when the
// context is cancelled.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrHealthUnknown is returned before the first check completes.
var ErrHealthUnknown = errors.New("api health not yet checked")

// HealthChecker probes a dependency.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthStatus is the last known state of the scoring API.
type HealthStatus struct {
	Healthy   bool      `json:"healthy"`
	Checked   bool      `json:"checked"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthConfig holds configuration for the health monitor.
// Zero values use the defaults.
type HealthConfig struct {
	Interval time.Duration // How often to poll (default: 30s)
	Timeout  time.Duration // Per-check timeout (default: 5s)
}

func (c HealthConfig) withDefaults() HealthConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

// HealthMonitor caches the scoring API's health.
type HealthMonitor struct {
	checker HealthChecker
	cfg     HealthConfig
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.RWMutex
	lastErr error
	status  HealthStatus
}

// NewHealthMonitor creates a monitor around checker.
func NewHealthMonitor(checker HealthChecker, cfg HealthConfig, logger *slog.Logger) *HealthMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthMonitor{
		checker: checker,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		logger:  logger,
		lastErr: ErrHealthUnknown,
	}
}

// Refresh runs one check and caches the result.
func (m *HealthMonitor) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	err := m.checker.CheckHealth(ctx)

	m.mu.Lock()
	was := m.status
	m.lastErr = err
	m.status = HealthStatus{Healthy: err == nil, Checked: true, CheckedAt: m.now()}
	if err != nil {
		m.status.Error = err.Error()
	}
	m.mu.Unlock()

	switch {
	case err != nil && (was.Healthy || !was.Checked):
		m.logger.Warn("scoring API unhealthy", "error", err)
	case err == nil && !was.Healthy:
		m.logger.Info("scoring API healthy")
	}
	return err
}

// Run refreshes immediately, then every interval until ctx is cancelled.
func (m *HealthMonitor) Run(ctx context.Context) {
	m.logger.Info("health monitor started",
		"interval", m.cfg.Interval,
		"timeout", m.cfg.Timeout,
	)

	_ = m.Refresh(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("health monitor stopped")
			return
		case <-ticker.C:
			_ = m.Refresh(ctx)
		}
	}
}

// Status returns the cached status.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// CheckHealth returns the cached result without touching the network.
// Before the first check it returns ErrHealthUnknown.
func (m *HealthMonitor) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}
