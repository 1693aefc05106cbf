package engine

import (
	"sync"
	"time"
)

// Clock is the engine's only time source.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the process clock. time.Now carries a monotonic reading,
// so differences between two readings are not affected by wall-clock jumps.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to. Hosts use it for replays, tests use it
// to drive timeouts deterministically.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Negative values are ignored.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
