package core

// predict_limiter.go bounds concurrent calls to the scoring API.
//
// Each prediction holds a slot for the duration of its API call. When all
// slots are busy, new predictions wait up to maxWait before failing with
// ErrTooManyPredictions. On shutdown, WaitForDrain blocks until in-flight
// predictions finish.

import (
	"context"
	"errors"
	"time"
)

// ErrTooManyPredictions is returned when no slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyPredictions = errors.New("rate limit: too many concurrent predictions, please try again later")

const (
	DefaultMaxConcurrentPredictions = 8
	DefaultPredictWait              = 5 * time.Second
)

// PredictLimiter is a counting semaphore for scoring API calls.
type PredictLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
}

// NewPredictLimiter allows at most maxConcurrent predictions at once.
// Zero values use the defaults.
func NewPredictLimiter(maxConcurrent int, maxWait time.Duration) *PredictLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentPredictions
	}
	if maxWait <= 0 {
		maxWait = DefaultPredictWait
	}
	return &PredictLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. The caller must Release it.
func (l *PredictLimiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyPredictions
	}
}

// Release frees a slot taken by Acquire.
func (l *PredictLimiter) Release() {
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *PredictLimiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// WaitForDrain blocks until no prediction is in flight or ctx is done.
func (l *PredictLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for len(l.slots) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a snapshot of limiter usage.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns current usage for the health endpoint.
func (l *PredictLimiter) Status() LimiterStatus {
	active := len(l.slots)
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
	}
}
