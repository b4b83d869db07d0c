// Package tracker polls playback position and detects natural completion.
package tracker

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// PositionReader is the read-only view of a player the tracker needs.
type PositionReader interface {
	CurrentTime() float64
}

// Callbacks receive the session id the tracking loop was started with.
// They run on the tracker goroutine.
type Callbacks struct {
	OnProgress func(sessionID uint64, t float64)
	OnFinished func(sessionID uint64)
	OnPeriodic func(sessionID uint64)
}

// Config holds tracker configuration.
type Config struct {
	Interval      time.Duration // Position poll cadence
	PeriodicEvery int           // Raise OnPeriodic every N ticks
	FinishEpsilon time.Duration // Distance from the end that counts as finished
}

// DefaultConfig returns 100ms polling, a periodic tick every 2s and a 50ms finish window.
func DefaultConfig() Config {
	return Config{
		Interval:      100 * time.Millisecond,
		PeriodicEvery: 20,
		FinishEpsilon: 50 * time.Millisecond,
	}
}

// Tracker runs at most one polling loop at a time.
type Tracker struct {
	mu     sync.Mutex
	config Config
	cancel context.CancelFunc
	gen    uint64 // Identifies the current loop
}

// New creates a tracker.
func New(config Config) *Tracker {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.PeriodicEvery <= 0 {
		config.PeriodicEvery = DefaultConfig().PeriodicEvery
	}
	return &Tracker{config: config}
}

// Start replaces any running loop with one polling reader against duration (seconds).
func (t *Tracker) Start(reader PositionReader, duration float64, sessionID uint64, cb Callbacks) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.gen++

	go t.run(ctx, t.gen, reader, duration, sessionID, cb)
}

// Stop cancels the running loop, if any. It does not wait for the loop to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// IsActive reports whether a loop is running.
func (t *Tracker) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Tracker) run(ctx context.Context, gen uint64, reader PositionReader, duration float64, sessionID uint64, cb Callbacks) {
	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	epsilon := t.config.FinishEpsilon.Seconds()
	ticks := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pos := reader.CurrentTime()
		if ctx.Err() != nil {
			return
		}

		if cb.OnProgress != nil {
			cb.OnProgress(sessionID, pos)
		}

		ticks++
		if ticks%t.config.PeriodicEvery == 0 && cb.OnPeriodic != nil {
			cb.OnPeriodic(sessionID)
		}

		if pos >= duration-epsilon {
			if t.finish(ctx, gen) && cb.OnFinished != nil {
				zlog.Debug().Msgf("tracker: finished: session=%d position=%.3f duration=%.3f", sessionID, pos, duration)
				cb.OnFinished(sessionID)
			}
			return
		}
	}
}

// finish ends loop gen. It returns false when the loop was already stopped
// or replaced, in which case the completion must not be reported.
func (t *Tracker) finish(ctx context.Context, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}
	if t.gen == gen && t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return true
}
