// Package cooldown tracks which (channel, word) pairs were joked about recently.
//
// Expiry is checked lazily on lookup; a single background sweep (Run) drops
// expired entries so the map does not grow with every word ever seen.
package cooldown

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultWindow is how long a (channel, word) pair stays suppressed after firing.
const DefaultWindow = 30 * time.Second

// DefaultSweepInterval is how often Run removes expired entries.
const DefaultSweepInterval = 10 * time.Second

// Key identifies a cooldown entry.
type Key struct {
	Channel string
	Word    string
}

// Tracker is a concurrency-safe set of cooldown entries with fixed-window expiry.
type Tracker struct {
	mu      sync.Mutex
	entries map[Key]time.Time // expiry instant
	window  time.Duration
	clock   clockwork.Clock
}

// New creates a tracker. A non-positive window falls back to DefaultWindow and a nil clock to the real clock.
func New(window time.Duration, clock clockwork.Clock) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{
		entries: make(map[Key]time.Time),
		window:  window,
		clock:   clock,
	}
}

// Window returns the cooldown duration.
func (t *Tracker) Window() time.Duration { return t.window }

// TryFire records a firing for (channel, word) and returns true when no unexpired
// entry exists. Otherwise it returns false and leaves the entry untouched.
func (t *Tracker) TryFire(channel, word string) bool {
	key := Key{Channel: channel, Word: word}
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if expiry, ok := t.entries[key]; ok && now.Before(expiry) {
		return false
	}
	t.entries[key] = now.Add(t.window)
	return true
}

// Active returns the number of unexpired entries.
func (t *Tracker) Active() int {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, expiry := range t.entries {
		if now.Before(expiry) {
			n++
		}
	}
	return n
}

// Sweep deletes expired entries and returns how many were removed.
func (t *Tracker) Sweep() int {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, expiry := range t.entries {
		if !now.Before(expiry) {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}

// size reports raw map size including expired entries not yet swept.
func (t *Tracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Run sweeps every interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := t.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := t.Sweep(); n > 0 {
				slog.Debug("cooldown sweep", slog.Int("removed", n), slog.String("component", "cooldown"))
			}
		}
	}
}
