package testutil

import "sync"

// DeterministicClock is a store.Sequencer for tests that can be rewound, so
// repeated runs stamp journal rows with identical seq values.
type DeterministicClock struct {
	mu   sync.Mutex
	base int64
	seq  int64
}

// NewDeterministicClock returns a clock whose first Next is 1.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(0)
}

// NewDeterministicClockAt returns a clock whose first Next is base+1, the
// way store.NewClockAt resumes after an existing journal.
func NewDeterministicClockAt(base int64) *DeterministicClock {
	return &DeterministicClock{base: base, seq: base}
}

func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current is the last value handed out, or the base before any Next.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds to the base.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = c.base
}
