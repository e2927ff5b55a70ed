package world

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// Ticker drives named periodic callbacks from a single goroutine.
// Callbacks run sequentially in name order on every tick.
//
// Invariant: each callback is invoked at most once per interval.
type Ticker struct {
	interval time.Duration
	mu       sync.Mutex
	ticks    map[string]func()
}

// NewTicker returns a ticker that fires every interval.
//
// Precondition: interval must be > 0.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		panic("world.NewTicker: interval must be > 0")
	}
	return &Ticker{
		interval: interval,
		ticks:    make(map[string]func()),
	}
}

// Interval returns the tick period.
func (t *Ticker) Interval() time.Duration { return t.interval }

// Register installs fn under name, replacing any existing callback.
func (t *Ticker) Register(name string, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks[name] = fn
}

// Unregister removes the callback registered under name.
func (t *Ticker) Unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ticks, name)
}

// Tick invokes every registered callback once.
func (t *Ticker) Tick() {
	t.mu.Lock()
	names := slices.Sorted(maps.Keys(t.ticks))
	callbacks := make([]func(), 0, len(names))
	for _, name := range names {
		callbacks = append(callbacks, t.ticks[name])
	}
	t.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

// Start begins the tick loop in a new goroutine. It runs until ctx is
// cancelled.
//
// Postcondition: registered callbacks are invoked once per interval.
func (t *Ticker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Tick()
			}
		}
	}()
}
