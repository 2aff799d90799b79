// Package perf times labelled operations. Each Tracker owns its own marks,
// so independent components can time the same label without clashing.
package perf

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// DefaultLabel is used when Start or End is called with an empty label.
const DefaultLabel = "default"

// historySize bounds the completed durations kept per label.
const historySize = 100

// Tracker records start marks and completed durations per label.
// It is safe for concurrent use.
type Tracker struct {
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	marks   map[string]time.Time
	history map[string][]float64
}

// Summary aggregates the completed durations of one label, in milliseconds.
type Summary struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	MaxMs  float64 `json:"max_ms"`
}

// New returns a Tracker that logs completions to logger (slog.Default
// when nil) and reads time from now (time.Now when nil).
func New(logger *slog.Logger, now func() time.Time) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		now:     now,
		logger:  logger,
		marks:   make(map[string]time.Time),
		history: make(map[string][]float64),
	}
}

// Start sets (or resets) the mark for label.
func (t *Tracker) Start(label string) {
	if label == "" {
		label = DefaultLabel
	}
	t.mu.Lock()
	t.marks[label] = t.now()
	t.mu.Unlock()
}

// End consumes the mark for label and returns the elapsed time. Without
// a matching Start it returns (0, false) and records nothing.
func (t *Tracker) End(label string) (time.Duration, bool) {
	if label == "" {
		label = DefaultLabel
	}

	t.mu.Lock()
	start, ok := t.marks[label]
	if !ok {
		t.mu.Unlock()
		return 0, false
	}
	delete(t.marks, label)
	d := t.now().Sub(start)
	t.record(label, d)
	t.mu.Unlock()

	t.logger.Debug("operation completed",
		"label", label,
		"duration_ms", float64(d)/float64(time.Millisecond),
	)
	return d, true
}

// Record adds a completed duration for label without using a mark.
// Concurrent callers timing the same label use it instead of Start/End.
func (t *Tracker) Record(label string, d time.Duration) {
	if label == "" {
		label = DefaultLabel
	}
	t.mu.Lock()
	t.record(label, d)
	t.mu.Unlock()
}

// Since records the time elapsed from start under label.
func (t *Tracker) Since(label string, start time.Time) time.Duration {
	d := t.now().Sub(start)
	t.Record(label, d)
	return d
}

// Now returns the tracker's current time.
func (t *Tracker) Now() time.Time { return t.now() }

// record appends d to the label's history. t.mu must be held.
func (t *Tracker) record(label string, d time.Duration) {
	h := append(t.history[label], float64(d)/float64(time.Millisecond))
	if len(h) > historySize {
		h = h[len(h)-historySize:]
	}
	t.history[label] = h
}

// Pending reports whether label has an open mark.
func (t *Tracker) Pending(label string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.marks[label]
	return ok
}

// Summary returns aggregate timings for label, or false when nothing
// has completed under it yet.
func (t *Tracker) Summary(label string) (Summary, bool) {
	t.mu.Lock()
	data := append(stats.Float64Data(nil), t.history[label]...)
	t.mu.Unlock()

	if len(data) == 0 {
		return Summary{}, false
	}

	// Errors only occur on empty input, which is excluded above.
	mean, _ := stats.Mean(data)
	p50, _ := stats.Median(data)
	p95, _ := stats.Percentile(data, 95)
	maxV, _ := stats.Max(data)

	return Summary{
		Label:  label,
		Count:  len(data),
		MeanMs: mean,
		P50Ms:  p50,
		P95Ms:  p95,
		MaxMs:  maxV,
	}, true
}

// Summaries returns a Summary for every label with completed durations,
// sorted by label.
func (t *Tracker) Summaries() []Summary {
	t.mu.Lock()
	labels := make([]string, 0, len(t.history))
	for label, data := range t.history {
		if len(data) > 0 {
			labels = append(labels, label)
		}
	}
	t.mu.Unlock()

	slices.Sort(labels)
	out := make([]Summary, 0, len(labels))
	for _, label := range labels {
		if s, ok := t.Summary(label); ok {
			out = append(out, s)
		}
	}
	return out
}

// Time records how long fn takes under label and returns fn's error. The
// start is held locally, so overlapping calls with one label each record
// their own duration and leave Start/End marks untouched.
func (t *Tracker) Time(label string, fn func() error) error {
	start := t.now()
	defer t.Since(label, start)
	return fn()
}
