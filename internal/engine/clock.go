package engine

import "sync/atomic"

// Clock is the engine's monotonic logical clock. Safe for concurrent use,
// though the single-writer application model means one goroutine calls
// Next() in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and advances the clock. Each call
// returns a unique, strictly increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the latest sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
