package testutil

import (
	"sync"
	"time"
)

// DefaultFrame is the frame time harness runs use when a step does not
// override it. A whole number of milliseconds keeps elapsed times exact.
const DefaultFrame = 20 * time.Millisecond

// DeterministicClock hands out fixed frame deltas for tests.
//
// Unlike a wall clock, two runs of the same scenario see identical dt
// values and identical elapsed totals. It can be reset for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu      sync.Mutex
	frame   time.Duration
	ticks   int64
	elapsed time.Duration
}

// NewDeterministicClock creates a clock that advances by frame per tick.
// A non-positive frame means DefaultFrame.
func NewDeterministicClock(frame time.Duration) *DeterministicClock {
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &DeterministicClock{frame: frame}
}

// Next advances one frame and returns its dt.
func (c *DeterministicClock) Next() time.Duration {
	return c.Advance(c.Frame())
}

// Advance moves the clock by dt as a single tick and returns dt.
func (c *DeterministicClock) Advance(dt time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	c.elapsed += dt
	return dt
}

// Frame returns the default per-tick dt.
func (c *DeterministicClock) Frame() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Ticks returns how many ticks have been handed out.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Elapsed returns the summed dt of every tick so far.
func (c *DeterministicClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Reset returns the clock to zero ticks. The frame is kept.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
	c.elapsed = 0
}
