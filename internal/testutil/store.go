package testutil

import (
	"context"
	"sync"

	"github.com/roach88/checkin/internal/checkin"
	"github.com/roach88/checkin/internal/participant"
)

// GatedStore wraps a store so tests can control the timing of existence
// checks and inject failures.
//
// Hold(id) makes later ExistsByID(id) calls block until Release(id). Each
// blocked call announces itself on Entered so a test can wait until the
// call is parked before changing state.
//
// Thread-safety: all methods are safe for concurrent use.
type GatedStore struct {
	inner checkin.Store

	mu      sync.Mutex
	gates   map[int]chan struct{}
	calls   int
	failErr error
	entered chan int
}

// NewGatedStore wraps inner with no gates held.
func NewGatedStore(inner checkin.Store) *GatedStore {
	return &GatedStore{
		inner:   inner,
		gates:   make(map[int]chan struct{}),
		entered: make(chan int, 64),
	}
}

// Hold gates ExistsByID for id.
func (g *GatedStore) Hold(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.gates[id]; !ok {
		g.gates[id] = make(chan struct{})
	}
}

// Release lets every held and future ExistsByID(id) call proceed.
func (g *GatedStore) Release(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gate, ok := g.gates[id]; ok {
		close(gate)
		delete(g.gates, id)
	}
}

// Entered receives the id of each ExistsByID call that starts waiting on a gate.
func (g *GatedStore) Entered() <-chan int {
	return g.entered
}

// FailWith makes every subsequent call return err. Pass nil to stop failing.
func (g *GatedStore) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failErr = err
}

// Calls returns the number of store calls made through the wrapper.
func (g *GatedStore) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *GatedStore) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.failErr
}

// Upsert implements checkin.Store.
func (g *GatedStore) Upsert(ctx context.Context, p participant.Participant) error {
	if err := g.begin(); err != nil {
		return err
	}
	return g.inner.Upsert(ctx, p)
}

// GetByID implements checkin.Store.
func (g *GatedStore) GetByID(ctx context.Context, id int) (participant.Participant, bool, error) {
	if err := g.begin(); err != nil {
		return participant.Participant{}, false, err
	}
	return g.inner.GetByID(ctx, id)
}

// ExistsByID implements checkin.Store, blocking while id is held.
func (g *GatedStore) ExistsByID(ctx context.Context, id int) (bool, error) {
	if err := g.begin(); err != nil {
		return false, err
	}

	g.mu.Lock()
	gate, held := g.gates[id]
	g.mu.Unlock()

	if held {
		select {
		case g.entered <- id:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return g.inner.ExistsByID(ctx, id)
}

// Watch implements checkin.Store.
func (g *GatedStore) Watch(ctx context.Context, id int) (<-chan participant.Participant, error) {
	if err := g.begin(); err != nil {
		return nil, err
	}
	return g.inner.Watch(ctx, id)
}
