package store

import (
	"context"
	"sync"

	"github.com/roach88/checkin/internal/participant"
)

// Memory is a process-local participant table with the same contract as
// Store. The zero value is not usable; call NewMemory.
type Memory struct {
	mu      sync.RWMutex
	records map[int]participant.Participant
	watch   *hub
}

// NewMemory creates an empty table.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[int]participant.Participant),
		watch:   newHub(),
	}
}

// Upsert inserts p or replaces the record sharing p.UserID.
func (m *Memory) Upsert(ctx context.Context, p participant.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.records[p.UserID] = p.Clone()
	m.mu.Unlock()

	// Published outside m.mu: hub.subscribe takes the hub lock before m.mu.
	m.watch.publish(p)
	return nil
}

// GetByID returns a copy of the record stored under id.
func (m *Memory) GetByID(ctx context.Context, id int) (participant.Participant, bool, error) {
	if err := ctx.Err(); err != nil {
		return participant.Participant{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.records[id]
	if !ok {
		return participant.Participant{}, false, nil
	}
	return p.Clone(), true, nil
}

// ExistsByID reports whether a record is stored under id.
func (m *Memory) ExistsByID(ctx context.Context, id int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[id]
	return ok, nil
}

// Counts returns the number of records per registration tier.
func (m *Memory) Counts(ctx context.Context) (map[participant.RegistrationType]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[participant.RegistrationType]int)
	for _, p := range m.records {
		counts[p.RegistrationType]++
	}
	return counts, nil
}

// Watch streams the record stored under id until ctx is done or Close.
func (m *Memory) Watch(ctx context.Context, id int) (<-chan participant.Participant, error) {
	return m.watch.subscribe(ctx, id, func() (participant.Participant, bool, error) {
		return m.GetByID(ctx, id)
	})
}

// Close ends all watches. The records stay readable.
func (m *Memory) Close() error {
	m.watch.close()
	return nil
}
