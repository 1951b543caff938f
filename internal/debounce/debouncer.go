// Package debounce suppresses duplicate detections of the same substance
// within a cooldown window, so one spoken sentence re-transcribed as several
// overlapping results registers downstream exactly once.
package debounce

import (
	"strings"
	"sync"
	"time"
)

// Debouncer is a fixed-window, fire-once-per-key gate. The window is measured
// from the first occurrence of a key: suppressed repeats inside the window do
// not extend it, and the key becomes eligible again as soon as the window
// elapses. (A sliding timer that resets on every repeat could suppress a
// legitimate repeat order indefinitely during a long conversation.)
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	firedAt map[string]time.Time
	now     func() time.Time
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Debouncer) { d.now = now }
}

// New creates a Debouncer with the given cooldown window.
func New(window time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		window:  window,
		firedAt: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ShouldFire reports whether the downstream action for key may run now.
// Keys are case-insensitive. Returns true exactly once per key per window.
func (d *Debouncer) ShouldFire(key string) bool {
	key = strings.ToLower(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.sweep(now)

	if first, ok := d.firedAt[key]; ok && now.Sub(first) < d.window {
		return false
	}

	d.firedAt[key] = now
	return true
}

// Forget drops all keys with the given prefix, freeing state for a session
// that has ended.
func (d *Debouncer) Forget(prefix string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k := range d.firedAt {
		if strings.HasPrefix(k, strings.ToLower(prefix)) {
			delete(d.firedAt, k)
		}
	}
}

// sweep removes expired entries; called with the lock held.
func (d *Debouncer) sweep(now time.Time) {
	for k, first := range d.firedAt {
		if now.Sub(first) >= d.window {
			delete(d.firedAt, k)
		}
	}
}
