package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is an interface for accessing screening time. The pipeline
// depends on this abstraction rather than a concrete controller, so
// tests can pin the epoch of a run.
type Clock interface {
	// Now returns the current screening epoch.
	Now() time.Time
}

// WallClock follows the system clock.
type WallClock struct{}

// Now implements Clock.
func (WallClock) Now() time.Time { return time.Now().UTC() }

// FixedClock reports a constant epoch, for deterministic runs.
type FixedClock struct {
	Epoch time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time { return c.Epoch }

// Controller drives periodic re-screening in watch mode. Every tick
// it advances the screening epoch and notifies registered listeners.
// It implements Clock for use by the pipeline.
type Controller struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration

	currentTime time.Time

	listeners []func(time.Time)
}

// NewController constructs a controller ticking from start.
func NewController(start time.Time, tick time.Duration) *Controller {
	return &Controller{
		StartTime:   start,
		Tick:        tick,
		currentTime: start,
	}
}

// Now returns the current screening epoch. Implements Clock.
func (c *Controller) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentTime
}

// AddListener registers a callback invoked on every tick. Listeners
// must be registered before Run starts.
func (c *Controller) AddListener(fn func(time.Time)) {
	c.listeners = append(c.listeners, fn)
}

// Run advances the epoch every Tick of wall time until ctx is
// cancelled, invoking listeners on the controller's goroutine. The
// returned channel is closed when the controller finishes.
func (c *Controller) Run(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		c.mu.Lock()
		epoch := c.StartTime
		c.currentTime = epoch
		c.mu.Unlock()

		ticker := time.NewTicker(c.Tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			epoch = epoch.Add(c.Tick)

			c.mu.Lock()
			c.currentTime = epoch
			c.mu.Unlock()

			for _, fn := range c.listeners {
				fn(epoch)
			}
		}
	}()
	return done
}
