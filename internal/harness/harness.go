package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/roach88/checkin/internal/checkin"
	"github.com/roach88/checkin/internal/participant"
	"github.com/roach88/checkin/internal/session"
	"github.com/roach88/checkin/internal/store"
	"github.com/roach88/checkin/internal/testutil"
)

// Harness is the scenario execution engine.
// It owns one registration and one verification session over a shared
// service and store.
type Harness struct {
	store        *store.Store
	registration *session.Registration
	verification *session.Verification
	logger       *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Fixed session IDs keep the trace reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Write the seed participants
// 3. Execute steps, checking each expect clause
// 4. Return result with pass/fail, trace, and errors
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := seed(ctx, st, scenario.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	ids := testutil.NewFixedIDGenerator(scenario.SessionID)
	svc := checkin.New(st, checkin.WithLogger(logger))

	h := &Harness{
		store:        st,
		registration: session.NewRegistration(svc, session.WithIDGenerator(ids), session.WithLogger(logger)),
		verification: session.NewVerification(svc, session.WithIDGenerator(ids), session.WithLogger(logger)),
		logger:       logger,
	}
	defer h.registration.Close()
	defer h.verification.Close()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return result, nil
}

// seed writes participants directly to the store, bypassing the duplicate
// check so scenarios can set up any starting state.
func seed(ctx context.Context, st *store.Store, rows []SeedParticipant) error {
	for i, row := range rows {
		draft := participant.Draft{
			UserID:    strconv.Itoa(row.UserID),
			FullName:  row.FullName,
			Title:     participant.Title(row.Title),
			PhotoPath: row.PhotoPath,
		}
		if row.RegistrationType != "" {
			rt, err := participant.ParseRegistrationType(row.RegistrationType)
			if err != nil {
				return fmt.Errorf("seed[%d]: %w", i, err)
			}
			draft.RegistrationType = rt
		}
		p, err := draft.Validate()
		if err != nil {
			return fmt.Errorf("seed[%d]: %w", i, err)
		}
		if err := st.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed[%d]: %w", i, err)
		}
	}
	return nil
}

// executeStep applies one intent, waits for background checks to settle,
// records the screen state and checks the expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	event := TraceEvent{Action: step.Action, Value: step.Value}
	var intentErr error

	switch step.Action {
	case ActionEdit:
		event.Screen = ScreenRegistration
		field, err := participant.ParseField(step.Field)
		if err != nil {
			return err
		}
		intentErr = h.registration.EditField(field, step.Value)
	case ActionPhoto:
		event.Screen = ScreenRegistration
		intentErr = h.registration.CapturePhoto(ctx, scriptedCamera{path: step.Value, decline: step.Decline})
	case ActionSubmit:
		event.Screen = ScreenRegistration
		_, intentErr = h.registration.Submit(ctx)
	case ActionClearSuccess:
		event.Screen = ScreenRegistration
		h.registration.ClearSuccess()
	case ActionSearch:
		event.Screen = ScreenVerification
		intentErr = h.verification.UpdateSearchID(step.Value)
	case ActionVerify:
		event.Screen = ScreenVerification
		_, intentErr = h.verification.Verify(ctx)
	case ActionClearError:
		event.Screen = step.Screen
		if event.Screen == "" {
			event.Screen = ScreenRegistration
		}
		if event.Screen == ScreenVerification {
			h.verification.ClearError()
		} else {
			h.registration.ClearError()
		}
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}

	h.registration.Wait()

	if intentErr != nil {
		event.Error = participant.UserMessage(intentErr)
	}
	obs := h.observe(event.Screen)
	event.State = obs.state
	result.AddTrace(event)

	h.logger.Info("step completed", "step", i, "action", step.Action, "screen", event.Screen)

	label := fmt.Sprintf("step %d (%s)", i, step.Action)
	if intentErr != nil && (step.Expect == nil || step.Expect.Rejected == nil) {
		result.AddError(fmt.Sprintf("%s: unexpected error: %s", label, event.Error))
	}
	if step.Expect != nil {
		for _, msg := range checkExpect(step.Expect, obs, event.Error) {
			result.AddError(label + ": " + msg)
		}
	}
	return nil
}

// observation flattens a screen's state into the fields Expect compares.
type observation struct {
	state    any
	phase    string
	err      string
	warning  string
	success  string
	category string
	userID   string
}

func (h *Harness) observe(screen string) observation {
	if screen == ScreenVerification {
		s := h.verification.Snapshot()
		obs := observation{
			state:    s,
			phase:    string(s.Phase),
			err:      s.ErrorMessage,
			category: string(s.Category),
		}
		if s.Participant != nil {
			obs.userID = strconv.Itoa(s.Participant.UserID)
		}
		return obs
	}
	s := h.registration.Snapshot()
	return observation{
		state:   s,
		phase:   string(s.Phase),
		err:     s.ErrorMessage,
		warning: s.DuplicateIDWarning,
		success: s.SuccessMessage,
		userID:  s.Draft.UserID,
	}
}

func checkExpect(e *Expect, obs observation, rejected string) []string {
	var errs []string
	compare := func(name string, want *string, got string) {
		if want != nil && *want != got {
			errs = append(errs, fmt.Sprintf("%s: expected %q, got %q", name, *want, got))
		}
	}
	compare("phase", e.Phase, obs.phase)
	compare("error", e.Error, obs.err)
	compare("warning", e.Warning, obs.warning)
	compare("success", e.Success, obs.success)
	compare("category", e.Category, obs.category)
	compare("user_id", e.UserID, obs.userID)
	compare("rejected", e.Rejected, rejected)
	return errs
}

// scriptedCamera is a PhotoCapturer that returns a fixed outcome.
type scriptedCamera struct {
	path    string
	decline bool
}

func (c scriptedCamera) CapturePhoto(context.Context) (string, bool, error) {
	if c.decline {
		return "", false, nil
	}
	return c.path, true, nil
}
