package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/roach88/checkin/internal/participant"
)

// ErrSubmitting is returned for intents that arrive while a submit is in flight.
var ErrSubmitting = errors.New("registration is being submitted")

// SuccessMessage is shown after a participant is stored.
const SuccessMessage = "Participant registered successfully!"

// Registrar is the part of the check-in service a Registration uses.
type Registrar interface {
	CheckDuplicate(ctx context.Context, raw string) (bool, error)
	Register(ctx context.Context, d participant.Draft) (participant.Participant, error)
}

// PhotoCapturer takes a photo and returns where it was saved.
// ok is false when the user declined.
type PhotoCapturer interface {
	CapturePhoto(ctx context.Context) (path string, ok bool, err error)
}

// RegistrationPhase is the lifecycle position of a registration form.
type RegistrationPhase string

const (
	PhaseEditing    RegistrationPhase = "editing"
	PhaseSubmitting RegistrationPhase = "submitting"
	PhaseSucceeded  RegistrationPhase = "succeeded"
	PhaseFailed     RegistrationPhase = "failed"
)

// RegistrationState is the snapshot a registration display renders.
type RegistrationState struct {
	Phase              RegistrationPhase `json:"phase"`
	Draft              participant.Draft `json:"draft"`
	IsLoading          bool              `json:"is_loading"`
	ErrorMessage       string            `json:"error_message,omitempty"`
	DuplicateIDWarning string            `json:"duplicate_id_warning,omitempty"`
	SuccessMessage     string            `json:"success_message,omitempty"`
}

// NewRegistrationState returns the state of a fresh form.
func NewRegistrationState() RegistrationState {
	return RegistrationState{Phase: PhaseEditing, Draft: participant.NewDraft()}
}

// Registration is the state machine behind one registration form.
type Registration struct {
	id     string
	svc    Registrar
	state  *Container[RegistrationState]
	logger *slog.Logger

	ctx    context.Context // session lifetime; cancelled by Close
	cancel context.CancelFunc

	mu     sync.Mutex
	checks map[string]uint64 // UserID value -> epoch of the check in flight
	epoch  atomic.Uint64     // bumped by each successful submit
	wg     sync.WaitGroup

	submitErr error // guarded by mu
}

// NewRegistration opens a registration session.
func NewRegistration(svc Registrar, opts ...Option) *Registration {
	cfg := newConfig(opts)
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registration{
		id:     cfg.ids.Generate(),
		svc:    svc,
		state:  NewContainer(NewRegistrationState()),
		ctx:    ctx,
		cancel: cancel,
		checks: make(map[string]uint64),
	}
	r.logger = cfg.logger.With("session", r.id, "screen", "registration")
	return r
}

// ID returns the session identifier.
func (r *Registration) ID() string { return r.id }

// Snapshot returns the current state.
func (r *Registration) Snapshot() RegistrationState { return r.state.Snapshot() }

// Subscribe returns a subscription to state changes.
func (r *Registration) Subscribe() *Subscription[RegistrationState] { return r.state.Subscribe() }

// EditField sets one draft field from its text form.
//
// Editing FieldUserID clears the duplicate warning and, for non-blank
// input, starts a background duplicate check. An unparseable registration
// type is rejected with an InvalidFormat error and the draft is unchanged.
// An empty photo path clears the photo.
func (r *Registration) EditField(field participant.Field, value string) error {
	var regType participant.RegistrationType
	if field == participant.FieldRegistrationType {
		rt, err := participant.ParseRegistrationType(value)
		if err != nil {
			return err
		}
		regType = rt
	}

	var editErr error
	applied := r.state.update(func(s RegistrationState) (RegistrationState, bool) {
		if s.Phase == PhaseSubmitting {
			editErr = ErrSubmitting
			return s, false
		}
		switch field {
		case participant.FieldUserID:
			s.Draft.UserID = value
			s.DuplicateIDWarning = ""
		case participant.FieldFullName:
			s.Draft.FullName = value
		case participant.FieldTitle:
			s.Draft.Title = participant.Title(value)
		case participant.FieldRegistrationType:
			s.Draft.RegistrationType = regType
		case participant.FieldPhotoPath:
			s.Draft.PhotoPath = photoPath(value)
		default:
			editErr = fmt.Errorf("unknown field %q", field)
			return s, false
		}
		s.Phase = PhaseEditing
		return s, true
	})
	if editErr != nil {
		return editErr
	}
	if !applied {
		return ErrClosed
	}

	if field == participant.FieldUserID && strings.TrimSpace(value) != "" {
		r.startCheck(value)
	}
	return nil
}

// CapturePhoto asks c for a photo and stores the returned path in the
// draft. A declined capture leaves the draft unchanged.
func (r *Registration) CapturePhoto(ctx context.Context, c PhotoCapturer) error {
	path, ok, err := c.CapturePhoto(ctx)
	if err != nil {
		return fmt.Errorf("capture photo: %w", err)
	}
	if !ok {
		r.logger.Debug("photo capture declined")
		return nil
	}
	return r.EditField(participant.FieldPhotoPath, path)
}

// Submit registers the current draft.
//
// On success the draft resets to defaults and SuccessMessage is set. On
// failure the draft is kept and ErrorMessage explains why. The returned
// error is non-nil only when the submit could not start (ErrSubmitting,
// ErrClosed) or the session closed before the result was applied.
func (r *Registration) Submit(ctx context.Context) (RegistrationState, error) {
	var (
		draft participant.Draft
		busy  bool
	)
	started := r.state.update(func(s RegistrationState) (RegistrationState, bool) {
		if s.Phase == PhaseSubmitting {
			busy = true
			return s, false
		}
		draft = s.Draft
		s.Phase = PhaseSubmitting
		s.IsLoading = true
		s.ErrorMessage = ""
		s.SuccessMessage = ""
		return s, true
	})
	if busy {
		return r.state.Snapshot(), ErrSubmitting
	}
	if !started {
		return r.state.Snapshot(), ErrClosed
	}

	p, err := r.svc.Register(ctx, draft)
	r.mu.Lock()
	r.submitErr = err
	r.mu.Unlock()
	if err != nil {
		r.logger.Info("registration failed",
			"user_id", draft.UserID,
			"code", string(participant.CodeOf(err)),
		)
	} else {
		r.logger.Info("registration succeeded", "user_id", p.UserID)
		// Checks issued before the record existed are stale.
		r.epoch.Add(1)
	}

	applied := r.state.update(func(s RegistrationState) (RegistrationState, bool) {
		if err != nil {
			s.Phase = PhaseFailed
			s.IsLoading = false
			s.ErrorMessage = participant.UserMessage(err)
			return s, true
		}
		next := NewRegistrationState()
		next.Phase = PhaseSucceeded
		next.SuccessMessage = SuccessMessage
		return next, true
	})
	if !applied {
		return r.state.Snapshot(), ErrClosed
	}
	return r.state.Snapshot(), nil
}

// SubmitErr returns the service error behind the last submit, or nil if it
// succeeded. The snapshot only carries the message; callers that need the
// error code read it here.
func (r *Registration) SubmitErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submitErr
}

// ClearError dismisses the error message.
func (r *Registration) ClearError() {
	r.state.update(func(s RegistrationState) (RegistrationState, bool) {
		if s.ErrorMessage == "" {
			return s, false
		}
		s.ErrorMessage = ""
		return s, true
	})
}

// ClearSuccess dismisses the success message.
func (r *Registration) ClearSuccess() {
	r.state.update(func(s RegistrationState) (RegistrationState, bool) {
		if s.SuccessMessage == "" {
			return s, false
		}
		s.SuccessMessage = ""
		return s, true
	})
}

// Wait blocks until every duplicate check started so far has finished and
// its result has been merged or dropped.
func (r *Registration) Wait() {
	r.wg.Wait()
}

// Close tears the session down. In-flight checks are cancelled and their
// results discarded. Safe to call more than once.
func (r *Registration) Close() {
	r.cancel()
	r.state.Close()
}

// startCheck issues a duplicate check for value unless one is already in
// flight for the same value since the last successful submit.
func (r *Registration) startCheck(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx.Err() != nil {
		return
	}
	epoch := r.epoch.Load()
	if e, inFlight := r.checks[value]; inFlight && e == epoch {
		return
	}
	r.checks[value] = epoch

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			if e, ok := r.checks[value]; ok && e == epoch {
				delete(r.checks, value)
			}
			r.mu.Unlock()
		}()

		dup, err := r.svc.CheckDuplicate(r.ctx, value)
		if err != nil {
			r.logger.Debug("duplicate check failed", "user_id", value, "error", err)
			return
		}
		r.mergeCheck(value, epoch, dup)
	}()
}

// mergeCheck applies a duplicate check result if no submit has succeeded
// since it was issued and the draft still holds the value it was issued for.
func (r *Registration) mergeCheck(value string, epoch uint64, dup bool) {
	applied := r.state.update(func(s RegistrationState) (RegistrationState, bool) {
		if r.epoch.Load() != epoch || s.Draft.UserID != value {
			return s, false
		}
		warning := ""
		if dup {
			warning = fmt.Sprintf("Warning: User ID %s already exists. Please use a different ID.", strings.TrimSpace(value))
		}
		if s.DuplicateIDWarning == warning {
			return s, false
		}
		s.DuplicateIDWarning = warning
		return s, true
	})
	if !applied {
		r.logger.Debug("duplicate check result not applied", "user_id", value, "duplicate", dup)
	}
}

func photoPath(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
