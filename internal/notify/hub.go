package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/fraudguard/internal/clock"
)

// Hub keeps one Center per browser session. Sessions untouched for longer
// than the idle timeout are dropped by Sweep.
type Hub struct {
	mu      sync.Mutex
	sched   clock.Scheduler
	idle    time.Duration
	centers map[string]*session
	logger  *slog.Logger
}

type session struct {
	center   *Center
	lastSeen time.Time
}

// NewHub creates a hub. idle <= 0 disables sweeping.
func NewHub(sched clock.Scheduler, idle time.Duration, logger *slog.Logger) *Hub {
	if sched == nil {
		sched = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sched:   sched,
		idle:    idle,
		centers: make(map[string]*session),
		logger:  logger,
	}
}

// For returns the center for a session, creating it on first use.
func (h *Hub) For(sessionID string) *Center {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.sched.Now()
	s, ok := h.centers[sessionID]
	if !ok {
		s = &session{center: NewCenter(h.sched).WithLogger(h.logger)}
		h.centers[sessionID] = s
	}
	s.lastSeen = now
	return s.center
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.centers)
}

// Sweep drops sessions idle since before now-idle and returns how many
// were removed.
func (h *Hub) Sweep(now time.Time) int {
	if h.idle <= 0 {
		return 0
	}

	h.mu.Lock()
	var stale []*Center
	for id, s := range h.centers {
		if now.Sub(s.lastSeen) > h.idle {
			stale = append(stale, s.center)
			delete(h.centers, id)
		}
	}
	h.mu.Unlock()

	for _, c := range stale {
		c.Clear()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is cancelled.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if h.idle <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.logger.Info("notification sweeper started", "interval", interval, "idle_timeout", h.idle)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("notification sweeper stopped")
			return
		case <-ticker.C:
			if n := h.Sweep(h.sched.Now()); n > 0 {
				h.logger.Debug("swept idle notification sessions", "count", n)
			}
		}
	}
}
