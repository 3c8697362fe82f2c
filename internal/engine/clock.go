package engine

import "sync/atomic"

// Clock hands out the monotonic sequence numbers that order passes.
//
// Passes may overlap (a visibility change fires while a page-show pass is
// still waiting on the remote read). The seq taken at the start of a pass
// lets consumers recognise a result that completes after a newer one.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
