package store

import "sync/atomic"

// Sequencer hands out journal sequence numbers.
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock for call ordering.
//
// Every journal row is stamped with a strictly increasing seq from the
// clock, so ordering never depends on wall time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues after start.
// Used to resume numbering from the last journal row.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
