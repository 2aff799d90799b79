package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JonMunkholm/fraudguard/internal/logging"
)

// RateLimiter is a per-client token bucket. Each client may burst up to
// the per-minute limit and refills at the same rate.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client per minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		idle:     3 * time.Minute,
		now:      time.Now,
	}
}

// Allow reports whether a request from client may proceed and consumes a
// token if so.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[client]
	now := rl.now()
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[client] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Sweep forgets clients idle for longer than the idle window and returns
// how many were removed.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	removed := 0
	for client, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, client)
			removed++
		}
	}
	return removed
}

// Run sweeps idle clients every minute until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Middleware rejects requests over the limit with 429. Clients are keyed
// by r.RemoteAddr, so TrustedRealIP must run first.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := r.RemoteAddr
		if addr, ok := ClientAddr(r.RemoteAddr); ok {
			client = addr.String()
		}
		if !rl.Allow(client) {
			logging.FromContext(r.Context()).Warn("rate limit exceeded", "client", client)
			w.Header().Set("Retry-After", strconv.Itoa(60))
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded", "RATE001")
			return
		}
		next.ServeHTTP(w, r)
	})
}
