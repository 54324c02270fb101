package ledger

import (
	"sync"
	"time"
)

// Clock supplies the ledger's notion of "now" in unix seconds.
type Clock interface {
	Now() int64
}

// MonotonicClock reads wall time but never goes backwards: a reading below
// the previous one is replaced by the previous one.
type MonotonicClock struct {
	mu   sync.Mutex
	last int64
	wall func() time.Time
}

// NewMonotonicClock returns a clock over time.Now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{wall: time.Now}
}

// Now returns the current unix time in seconds.
func (c *MonotonicClock) Now() int64 {
	now := c.wall().Unix()
	c.mu.Lock()
	defer c.mu.Unlock()
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}

// ManualClock is a Clock moved only by its owner. Tests use it.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock returns a clock reading start.
func NewManualClock(start int64) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current reading.
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t, backwards included.
func (c *ManualClock) Set(t int64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d, truncated to whole seconds.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += int64(d / time.Second)
	c.mu.Unlock()
}
