package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/checkin/internal/participant"
)

// Verifier is the part of the check-in service a Verification uses.
type Verifier interface {
	Verify(ctx context.Context, raw string) (participant.Participant, error)
	Watch(ctx context.Context, id int) (<-chan participant.Participant, error)
}

// VerificationPhase is the lifecycle position of a verification screen.
type VerificationPhase string

const (
	PhaseIdle      VerificationPhase = "idle"
	PhaseSearching VerificationPhase = "searching"
	PhaseFound     VerificationPhase = "found"
	PhaseNotFound  VerificationPhase = "not_found"
	PhaseError     VerificationPhase = "error"
)

// VerificationState is the snapshot a verification display renders.
// Participant points at a copy private to this snapshot.
type VerificationState struct {
	Phase        VerificationPhase           `json:"phase"`
	SearchUserID string                      `json:"search_user_id"`
	Participant  *participant.Participant    `json:"participant,omitempty"`
	IsLoading    bool                        `json:"is_loading"`
	ErrorMessage string                      `json:"error_message,omitempty"`
	Category     participant.DisplayCategory `json:"category"`
}

// NewVerificationState returns the state before any search.
func NewVerificationState() VerificationState {
	return VerificationState{Phase: PhaseIdle, Category: participant.CategoryDefault}
}

// Verification is the state machine behind one verification screen.
type Verification struct {
	id     string
	svc    Verifier
	state  *Container[VerificationState]
	logger *slog.Logger
	live   bool

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	gen      uint64             // bumped by every Verify; older results are dropped
	unfollow context.CancelFunc // stops the live watch of the last found record
	wg       sync.WaitGroup
}

// NewVerification opens a verification session.
func NewVerification(svc Verifier, opts ...Option) *Verification {
	cfg := newConfig(opts)
	ctx, cancel := context.WithCancel(context.Background())
	v := &Verification{
		id:     cfg.ids.Generate(),
		svc:    svc,
		state:  NewContainer(NewVerificationState()),
		live:   cfg.liveUpdates,
		ctx:    ctx,
		cancel: cancel,
	}
	v.logger = cfg.logger.With("session", v.id, "screen", "verification")
	return v
}

// ID returns the session identifier.
func (v *Verification) ID() string { return v.id }

// Snapshot returns the current state.
func (v *Verification) Snapshot() VerificationState { return v.state.Snapshot() }

// Subscribe returns a subscription to state changes.
func (v *Verification) Subscribe() *Subscription[VerificationState] { return v.state.Subscribe() }

// UpdateSearchID sets the query text. It has no other effect.
func (v *Verification) UpdateSearchID(text string) error {
	applied := v.state.update(func(s VerificationState) (VerificationState, bool) {
		s.SearchUserID = text
		return s, true
	})
	if !applied {
		return ErrClosed
	}
	return nil
}

// Verify looks up the participant named by the current query.
//
// Blank or non-numeric input moves straight to PhaseError without calling
// the service. Otherwise the machine passes through PhaseSearching and
// lands in PhaseFound, PhaseNotFound or PhaseError. A Verify that is
// overtaken by a later Verify does not apply its result.
func (v *Verification) Verify(ctx context.Context) (VerificationState, error) {
	query := v.state.Snapshot().SearchUserID

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.stopFollowingLocked()
	v.mu.Unlock()

	if _, err := participant.ParseUserID(query); err != nil {
		msg := "User ID must be a valid number"
		if strings.TrimSpace(query) == "" {
			msg = "Please enter a User ID"
		}
		if !v.apply(gen, func(s VerificationState) VerificationState {
			return VerificationState{
				Phase:        PhaseError,
				SearchUserID: s.SearchUserID,
				ErrorMessage: msg,
				Category:     participant.CategoryDefault,
			}
		}) {
			return v.state.Snapshot(), v.closedErr()
		}
		return v.state.Snapshot(), nil
	}

	if !v.apply(gen, func(s VerificationState) VerificationState {
		return VerificationState{
			Phase:        PhaseSearching,
			SearchUserID: s.SearchUserID,
			IsLoading:    true,
			Category:     participant.CategoryDefault,
		}
	}) {
		return v.state.Snapshot(), v.closedErr()
	}

	p, err := v.svc.Verify(ctx, query)

	applied := v.apply(gen, func(s VerificationState) VerificationState {
		next := VerificationState{SearchUserID: s.SearchUserID}
		switch {
		case err == nil:
			found := p.Clone()
			next.Phase = PhaseFound
			next.Participant = &found
			next.Category = participant.CategoryFor(&found)
		case participant.HasCode(err, participant.CodeNotFound):
			next.Phase = PhaseNotFound
			next.ErrorMessage = participant.UserMessage(err)
			next.Category = participant.CategoryNotFound
		default:
			next.Phase = PhaseError
			next.ErrorMessage = participant.UserMessage(err)
			next.Category = participant.CategoryNotFound
		}
		return next
	})
	if !applied {
		return v.state.Snapshot(), v.closedErr()
	}

	if err != nil {
		v.logger.Info("verification failed", "query", query, "code", string(participant.CodeOf(err)))
	} else {
		v.logger.Info("participant verified", "user_id", p.UserID, "category", string(participant.CategoryFor(&p)))
		if v.live {
			v.follow(gen, p.UserID)
		}
	}
	return v.state.Snapshot(), nil
}

// ClearError dismisses the error message.
func (v *Verification) ClearError() {
	v.state.update(func(s VerificationState) (VerificationState, bool) {
		if s.ErrorMessage == "" {
			return s, false
		}
		s.ErrorMessage = ""
		return s, true
	})
}

// Wait blocks until the live watch goroutine, if any, has stopped.
// It only returns after Close or after a later Verify replaced the watch.
func (v *Verification) Wait() {
	v.wg.Wait()
}

// Close tears the session down. Safe to call more than once.
func (v *Verification) Close() {
	v.mu.Lock()
	v.stopFollowingLocked()
	v.mu.Unlock()
	v.cancel()
	v.state.Close()
}

// apply publishes fn's state if gen is still the latest search.
func (v *Verification) apply(gen uint64, fn func(VerificationState) VerificationState) bool {
	return v.applyIf(gen, func(s VerificationState) (VerificationState, bool) {
		return fn(s), true
	})
}

// applyIf is apply for updates that may decide not to publish.
func (v *Verification) applyIf(gen uint64, fn func(VerificationState) (VerificationState, bool)) bool {
	return v.state.update(func(s VerificationState) (VerificationState, bool) {
		v.mu.Lock()
		current := v.gen == gen
		v.mu.Unlock()
		if !current {
			return s, false
		}
		return fn(s)
	})
}

// closedErr distinguishes a closed session from a superseded search.
func (v *Verification) closedErr() error {
	if v.state.Closed() {
		return ErrClosed
	}
	return nil
}

// follow watches id and applies newer versions while the found record is
// still the one on screen.
func (v *Verification) follow(gen uint64, id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen != gen || v.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(v.ctx)
	ch, err := v.svc.Watch(ctx, id)
	if err != nil {
		cancel()
		v.logger.Warn("live updates unavailable", "user_id", id, "error", err)
		return
	}
	v.unfollow = cancel

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		for p := range ch {
			v.applyIf(gen, func(s VerificationState) (VerificationState, bool) {
				if s.Phase != PhaseFound || s.Participant == nil || s.Participant.Equal(p) {
					return s, false
				}
				if shown, err := participant.ParseUserID(s.SearchUserID); err != nil || shown != id {
					return s, false
				}
				updated := p.Clone()
				s.Participant = &updated
				s.Category = participant.CategoryFor(&updated)
				return s, true
			})
		}
	}()
}

func (v *Verification) stopFollowingLocked() {
	if v.unfollow != nil {
		v.unfollow()
		v.unfollow = nil
	}
}
