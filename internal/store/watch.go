package store

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/checkin/internal/participant"
)

// ErrClosed is returned when watching a store that has been closed.
var ErrClosed = errors.New("store closed")

// hub fans record upserts out to watchers of the same UserID.
//
// Each watcher channel has a buffer of one and keeps only the newest
// version: a slow reader skips intermediate versions but never sees an
// older version after a newer one.
type hub struct {
	mu       sync.Mutex
	watchers map[int]map[*watcher]struct{}
	closed   bool
	done     chan struct{}
}

type watcher struct {
	ch chan participant.Participant
}

func newHub() *hub {
	return &hub{
		watchers: make(map[int]map[*watcher]struct{}),
		done:     make(chan struct{}),
	}
}

// subscribe registers a watcher for id and offers the current record.
//
// load runs under the hub lock so an upsert that commits concurrently is
// either observed by load or published after the initial offer.
// The returned channel is closed when ctx is done or the hub is closed.
func (h *hub) subscribe(ctx context.Context, id int, load func() (participant.Participant, bool, error)) (<-chan participant.Participant, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}

	w := &watcher{ch: make(chan participant.Participant, 1)}
	if h.watchers[id] == nil {
		h.watchers[id] = make(map[*watcher]struct{})
	}
	h.watchers[id][w] = struct{}{}

	current, found, err := load()
	if err != nil {
		h.removeLocked(id, w)
		h.mu.Unlock()
		return nil, err
	}
	if found {
		w.offer(current)
	}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
		}
		h.mu.Lock()
		h.removeLocked(id, w)
		h.mu.Unlock()
	}()

	return w.ch, nil
}

// publish offers p to every watcher of p.UserID.
func (h *hub) publish(p participant.Participant) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for w := range h.watchers[p.UserID] {
		w.offer(p.Clone())
	}
}

// close ends every watch. Safe to call more than once.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for id, set := range h.watchers {
		for w := range set {
			close(w.ch)
		}
		delete(h.watchers, id)
	}
}

// removeLocked drops w and closes its channel. Caller holds h.mu.
func (h *hub) removeLocked(id int, w *watcher) {
	set, ok := h.watchers[id]
	if !ok {
		return
	}
	if _, ok := set[w]; !ok {
		return
	}
	delete(set, w)
	if len(set) == 0 {
		delete(h.watchers, id)
	}
	close(w.ch)
}

// offer replaces any unread version with p. Caller holds the hub lock.
func (w *watcher) offer(p participant.Participant) {
	for {
		select {
		case w.ch <- p:
			return
		default:
		}
		select {
		case <-w.ch:
		default:
		}
	}
}
