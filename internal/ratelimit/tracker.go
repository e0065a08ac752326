// Package ratelimit tracks model-provider usage against rolling
// minute/hour/day budgets.
package ratelimit

import (
	"sync"
	"time"
)

// WindowKind identifies one of the three rolling windows.
type WindowKind string

const (
	WindowMinute WindowKind = "minute"
	WindowHour   WindowKind = "hour"
	WindowDay    WindowKind = "day"
)

var windowDurations = map[WindowKind]time.Duration{
	WindowMinute: time.Minute,
	WindowHour:   time.Hour,
	WindowDay:    24 * time.Hour,
}

// Limits configures per-window request and token caps. A zero limit
// disables that particular cap.
type Limits struct {
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
	TokensPerMinute   int
	TokensPerHour     int
	TokensPerDay      int
}

type window struct {
	kind         WindowKind
	requestLimit int
	tokenLimit   int
	requests     int
	tokens       int
	start        time.Time
}

// roll resets the counters if wall-clock time has crossed the window
// boundary since the window started.
func (w *window) roll(now time.Time) {
	if now.Sub(w.start) >= windowDurations[w.kind] {
		w.requests = 0
		w.tokens = 0
		w.start = now
	}
}

// WindowUsage is the externally visible state of one window.
type WindowUsage struct {
	Kind            WindowKind `json:"kind"`
	Requests        int        `json:"requests"`
	RequestLimit    int        `json:"request_limit"`
	RequestPercent  float64    `json:"request_percent"`
	Tokens          int        `json:"tokens"`
	TokenLimit      int        `json:"token_limit"`
	TokenPercent    float64    `json:"token_percent"`
	WindowStart     time.Time  `json:"window_start"`
}

// Usage is a point-in-time snapshot of all windows.
type Usage struct {
	Enabled bool          `json:"enabled"`
	Windows []WindowUsage `json:"windows"`
}

// Tracker maintains rolling request/token counters. All methods are
// thread-safe; windows are the only state shared between concurrent
// extraction handlers, so each mutation holds the one mutex.
type Tracker struct {
	mu      sync.Mutex
	enabled bool
	windows [3]*window
	now     func() time.Time
}

// New creates a tracker with the given limits. When enabled is false,
// Reserve always allows and Record is a no-op.
func New(limits Limits, enabled bool) *Tracker {
	return newWithClock(limits, enabled, time.Now)
}

func newWithClock(limits Limits, enabled bool, now func() time.Time) *Tracker {
	start := now()
	return &Tracker{
		enabled: enabled,
		now:     now,
		windows: [3]*window{
			{kind: WindowMinute, requestLimit: limits.RequestsPerMinute, tokenLimit: limits.TokensPerMinute, start: start},
			{kind: WindowHour, requestLimit: limits.RequestsPerHour, tokenLimit: limits.TokensPerHour, start: start},
			{kind: WindowDay, requestLimit: limits.RequestsPerDay, tokenLimit: limits.TokensPerDay, start: start},
		},
	}
}

// Reserve reports whether one more request with the estimated token cost
// fits every window's budget. A false return is a soft signal: the
// caller decides whether to defer or proceed, and nothing is counted
// until Record.
func (t *Tracker) Reserve(estimatedTokens int) bool {
	if !t.enabled {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	allowed := true
	for _, w := range t.windows {
		w.roll(now)
		if w.requestLimit > 0 && w.requests+1 > w.requestLimit {
			allowed = false
		}
		if w.tokenLimit > 0 && w.tokens+estimatedTokens > w.tokenLimit {
			allowed = false
		}
	}
	return allowed
}

// Record adds actual usage from a completed model call to all windows.
func (t *Tracker) Record(requests, tokens int) {
	if !t.enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for _, w := range t.windows {
		w.roll(now)
		w.requests += requests
		w.tokens += tokens
	}
}

// Snapshot returns current counts, limits and usage percentages.
// Percentages are clamped to 100 for display; threshold decisions use
// the raw counts via Reserve.
func (t *Tracker) Snapshot() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	usage := Usage{Enabled: t.enabled, Windows: make([]WindowUsage, 0, len(t.windows))}
	for _, w := range t.windows {
		w.roll(now)
		usage.Windows = append(usage.Windows, WindowUsage{
			Kind:           w.kind,
			Requests:       w.requests,
			RequestLimit:   w.requestLimit,
			RequestPercent: percent(w.requests, w.requestLimit),
			Tokens:         w.tokens,
			TokenLimit:     w.tokenLimit,
			TokenPercent:   percent(w.tokens, w.tokenLimit),
			WindowStart:    w.start,
		})
	}
	return usage
}

func percent(count, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	p := float64(count) / float64(limit) * 100
	if p > 100 {
		p = 100
	}
	return p
}
