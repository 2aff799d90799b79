package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyChecker struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (c *flakyChecker) CheckHealth(ctx context.Context) error {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	if c.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestHealthMonitor_UnknownBeforeFirstCheck(t *testing.T) {
	m := NewHealthMonitor(&flakyChecker{}, HealthConfig{}, nil)

	assert.ErrorIs(t, m.CheckHealth(context.Background()), ErrHealthUnknown)
	assert.False(t, m.Status().Checked)
}

func TestHealthMonitor_RefreshCachesResult(t *testing.T) {
	checker := &flakyChecker{}
	m := NewHealthMonitor(checker, HealthConfig{Timeout: time.Second}, nil)
	ctx := context.Background()

	require.NoError(t, m.Refresh(ctx))
	assert.NoError(t, m.CheckHealth(ctx))
	assert.True(t, m.Status().Healthy)

	checker.fail.Store(true)
	assert.NoError(t, m.CheckHealth(ctx), "cached result until the next refresh")

	require.Error(t, m.Refresh(ctx))
	assert.Error(t, m.CheckHealth(ctx))
	st := m.Status()
	assert.False(t, st.Healthy)
	assert.True(t, st.Checked)
	assert.Equal(t, "connection refused", st.Error)
	assert.Equal(t, int32(2), checker.calls.Load())
}

func TestHealthMonitor_CancelledContext(t *testing.T) {
	m := NewHealthMonitor(&flakyChecker{}, HealthConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.CheckHealth(ctx), context.Canceled)
}

func TestHealthMonitor_RunChecksImmediatelyAndStops(t *testing.T) {
	checker := &flakyChecker{}
	m := NewHealthMonitor(checker, HealthConfig{Interval: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.Status().Checked }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Status().Healthy)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.Equal(t, int32(1), checker.calls.Load())
}
