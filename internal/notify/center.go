// Package notify manages dismissible banners.
//
// A Center holds the banners of one audience (a page or a browser session),
// newest first. Every banner has its own ID and, when it has a duration,
// its own removal timer, so overlapping banners never dismiss each other.
// Sinks mirror the banner list somewhere visible, such as a headless DOM.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fraudguard/internal/clock"
)

// Banner is one notification.
type Banner struct {
	ID        string        `json:"id"`
	Title     string        `json:"title,omitempty"`
	Message   string        `json:"message"`
	Severity  Severity      `json:"severity"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Persistent reports whether the banner stays until dismissed.
func (b Banner) Persistent() bool { return b.Duration <= 0 }

// Sink mirrors banners into a view.
type Sink interface {
	Mount(b Banner) error
	Unmount(id string)
}

type entry struct {
	banner Banner
	timer  clock.Timer
}

// Center is a mutex-protected, newest-first list of banners.
type Center struct {
	mu      sync.Mutex
	sched   clock.Scheduler
	sinks   []Sink
	entries []*entry
	logger  *slog.Logger
}

// NewCenter creates a center. A nil scheduler uses the real clock.
func NewCenter(sched clock.Scheduler, sinks ...Sink) *Center {
	if sched == nil {
		sched = clock.Real{}
	}
	return &Center{
		sched:  sched,
		sinks:  sinks,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for sink failures.
func (c *Center) WithLogger(l *slog.Logger) *Center {
	if l != nil {
		c.logger = l
	}
	return c
}

// Attach adds a sink and mounts the current banners on it, oldest first so
// the sink ends up in the same order as the center.
func (c *Center) Attach(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sinks = append(c.sinks, s)
	for i := len(c.entries) - 1; i >= 0; i-- {
		c.mount(s, c.entries[i].banner)
	}
}

// Show adds a banner at the top. duration > 0 schedules its removal;
// duration <= 0 keeps it until dismissed.
func (c *Center) Show(message string, sev Severity, duration time.Duration) Banner {
	return c.ShowBanner(Banner{Message: message, Severity: sev, Duration: duration})
}

// ShowBanner is Show for a prepared banner. ID and CreatedAt are filled
// in when empty.
func (c *Center) ShowBanner(b Banner) Banner {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = c.sched.Now()
	}
	b.Severity = b.Severity.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{banner: b}
	c.entries = append([]*entry{e}, c.entries...)
	for _, s := range c.sinks {
		c.mount(s, b)
	}
	if !b.Persistent() {
		id := b.ID
		e.timer = c.sched.AfterFunc(b.Duration, func() { c.Dismiss(id) })
	}
	return b
}

// Success shows a success banner for SuccessDuration.
func (c *Center) Success(message string) Banner {
	return c.Show(message, Success, SuccessDuration)
}

// Error shows an error banner for ErrorDuration.
func (c *Center) Error(message string) Banner {
	return c.Show(message, Error, ErrorDuration)
}

// Warning shows a warning banner for WarningDuration.
func (c *Center) Warning(message string) Banner {
	return c.Show(message, Warning, WarningDuration)
}

// Info shows an info banner for InfoDuration.
func (c *Center) Info(message string) Banner {
	return c.Show(message, Info, InfoDuration)
}

// Dismiss removes the banner with the given ID and stops its timer. It
// reports whether the banner was present.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.banner.ID != id {
			continue
		}
		if e.timer != nil {
			e.timer.Stop()
		}
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		for _, s := range c.sinks {
			s.Unmount(id)
		}
		return true
	}
	return false
}

// List returns the banners, newest first.
func (c *Center) List() []Banner {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Banner, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.banner
	}
	return out
}

// Len returns the number of banners.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear dismisses every banner.
func (c *Center) Clear() {
	c.Drain()
}

// Drain dismisses every banner and returns them, newest first. Pages use
// it to render one-time flash messages.
func (c *Center) Drain() []Banner {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Banner, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.banner
		if e.timer != nil {
			e.timer.Stop()
		}
		for _, s := range c.sinks {
			s.Unmount(e.banner.ID)
		}
	}
	c.entries = nil
	return out
}

func (c *Center) mount(s Sink, b Banner) {
	if err := s.Mount(b); err != nil {
		c.logger.Warn("banner mount failed", "banner_id", b.ID, "error", err)
	}
}
