package session

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by intents on a session that has been closed.
var ErrClosed = errors.New("session closed")

// Snapshot is one published state together with its revision.
type Snapshot[S any] struct {
	Revision int64
	State    S
}

// Container holds the current state of one session and broadcasts every
// change to its subscribers.
//
// INVARIANTS:
//   - Updates are serialized; no two update functions run concurrently
//   - Each applied update gets a revision greater than all earlier ones
//   - Every subscriber sees updates in revision order with none skipped
//   - After Close no update is applied
type Container[S any] struct {
	mu     sync.Mutex
	clock  Clock
	cur    Snapshot[S]
	subs   map[*Subscription[S]]struct{}
	closed bool
}

// NewContainer creates a container holding initial at revision 0.
func NewContainer[S any](initial S) *Container[S] {
	return &Container[S]{
		cur:  Snapshot[S]{State: initial},
		subs: make(map[*Subscription[S]]struct{}),
	}
}

// Snapshot returns the current state.
func (c *Container[S]) Snapshot() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur.State
}

// Current returns the current state with its revision.
func (c *Container[S]) Current() Snapshot[S] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Subscribe returns a subscription whose first delivery is the current
// snapshot. On a closed container the subscription is already drained.
func (c *Container[S]) Subscribe() *Subscription[S] {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &Subscription[S]{q: newQueue[Snapshot[S]](), c: c}
	sub.q.Enqueue(c.cur)
	if c.closed {
		sub.q.Close()
		return sub
	}
	c.subs[sub] = struct{}{}
	return sub
}

// Closed reports whether Close has been called.
func (c *Container[S]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close ends every subscription after its pending deliveries.
func (c *Container[S]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for sub := range c.subs {
		sub.q.Close()
	}
	clear(c.subs)
}

// update applies fn to the current state. fn returns the new state and
// whether to publish it; returning false leaves the container untouched.
// update reports whether a new snapshot was published.
func (c *Container[S]) update(fn func(S) (S, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	next, ok := fn(c.cur.State)
	if !ok {
		return false
	}

	c.cur = Snapshot[S]{Revision: c.clock.Next(), State: next}
	for sub := range c.subs {
		sub.q.Enqueue(c.cur)
	}
	return true
}

// Subscription delivers snapshots from one Container.
type Subscription[S any] struct {
	q *queue[Snapshot[S]]
	c *Container[S]
}

// Next blocks until the next snapshot is available.
// Returns ErrClosed once the container is closed (or the subscription
// cancelled) and all pending snapshots have been delivered.
func (s *Subscription[S]) Next(ctx context.Context) (Snapshot[S], error) {
	snap, ok, err := s.q.Dequeue(ctx)
	if err != nil {
		return snap, err
	}
	if !ok {
		return snap, ErrClosed
	}
	return snap, nil
}

// Pending returns the number of undelivered snapshots.
func (s *Subscription[S]) Pending() int {
	return s.q.Len()
}

// Cancel stops delivery to this subscription.
func (s *Subscription[S]) Cancel() {
	s.c.mu.Lock()
	delete(s.c.subs, s)
	s.c.mu.Unlock()
	s.q.Close()
}
