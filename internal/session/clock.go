package session

import "sync/atomic"

// Clock issues the revision numbers stamped on snapshots.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// Containers call Next under their own lock, so revisions observed by one
// subscriber are strictly increasing.
type Clock struct {
	seq atomic.Int64
}

// Next returns the next revision and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the latest issued revision without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
