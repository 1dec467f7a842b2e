package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/checkin/internal/participant"
)

func (f *fixture) verification(t *testing.T, opts ...Option) *Verification {
	t.Helper()
	v := NewVerification(f.svc, opts...)
	t.Cleanup(v.Close)
	return v
}

func search(t *testing.T, v *Verification, query string) VerificationState {
	t.Helper()
	require.NoError(t, v.UpdateSearchID(query))
	s, err := v.Verify(t.Context())
	require.NoError(t, err)
	return s
}

func TestVerification_InitialState(t *testing.T) {
	v := newFixture(t).verification(t)
	s := v.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, participant.CategoryDefault, s.Category)
	assert.Nil(t, s.Participant)
	assert.False(t, s.IsLoading)
}

func TestVerification_UpdateSearchIDOnlySetsQuery(t *testing.T) {
	f := newFixture(t)
	v := f.verification(t)

	require.NoError(t, v.UpdateSearchID("12"))
	s := v.Snapshot()
	assert.Equal(t, "12", s.SearchUserID)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, 0, f.gated.Calls())
}

func TestVerification_LocalValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"blank", "", "Please enter a User ID"},
		{"whitespace", "   ", "Please enter a User ID"},
		{"letters", "abc", "User ID must be a valid number"},
		{"decimal", "1.5", "User ID must be a valid number"},
		{"overflow", "99999999999", "User ID must be a valid number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v := f.verification(t)

			s := search(t, v, tt.query)
			assert.Equal(t, PhaseError, s.Phase)
			assert.Equal(t, tt.want, s.ErrorMessage)
			assert.Equal(t, participant.CategoryDefault, s.Category)
			assert.Nil(t, s.Participant)
			assert.Equal(t, 0, f.gated.Calls(), "invalid input must not reach the store")
		})
	}
}

func TestVerification_Found(t *testing.T) {
	tests := []struct {
		rt   participant.RegistrationType
		want participant.DisplayCategory
	}{
		{participant.RegistrationFull, participant.CategoryFull},
		{participant.RegistrationStudent, participant.CategoryStudent},
		{participant.RegistrationNone, participant.CategoryNone},
	}

	for _, tt := range tests {
		t.Run(tt.rt.String(), func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, 7, "Grace Hopper", tt.rt)
			v := f.verification(t)

			s := search(t, v, " 7 ")
			assert.Equal(t, PhaseFound, s.Phase)
			require.NotNil(t, s.Participant)
			assert.Equal(t, "Grace Hopper", s.Participant.FullName)
			assert.Equal(t, tt.want, s.Category)
			assert.Empty(t, s.ErrorMessage)
			assert.False(t, s.IsLoading)
		})
	}
}

func TestVerification_NotFound(t *testing.T) {
	v := newFixture(t).verification(t)

	s := search(t, v, "42")
	assert.Equal(t, PhaseNotFound, s.Phase)
	assert.Equal(t, "User ID 42 not found", s.ErrorMessage)
	assert.Equal(t, participant.CategoryNotFound, s.Category)
	assert.Nil(t, s.Participant)
}

func TestVerification_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.gated.FailWith(errors.New("database is locked"))
	v := f.verification(t)

	s := search(t, v, "1")
	assert.Equal(t, PhaseError, s.Phase)
	assert.Equal(t, "Error: database is locked", s.ErrorMessage)
	assert.Equal(t, participant.CategoryNotFound, s.Category)
}

func TestVerification_NewSearchReplacesOldResult(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, "First", participant.RegistrationStudent)
	v := f.verification(t)

	s := search(t, v, "1")
	require.Equal(t, PhaseFound, s.Phase)

	s = search(t, v, "2")
	assert.Equal(t, PhaseNotFound, s.Phase)
	assert.Nil(t, s.Participant)
	assert.Equal(t, participant.CategoryNotFound, s.Category)

	v.ClearError()
	assert.Empty(t, v.Snapshot().ErrorMessage)
	assert.Equal(t, PhaseNotFound, v.Snapshot().Phase)
}

func TestVerification_SubscriberSeesSearching(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 3, "Linus", participant.RegistrationFull)
	v := f.verification(t)
	require.NoError(t, v.UpdateSearchID("3"))

	sub := v.Subscribe()
	_, err := v.Verify(t.Context())
	require.NoError(t, err)

	var phases []VerificationPhase
	for sub.Pending() > 0 {
		snap, err := sub.Next(t.Context())
		require.NoError(t, err)
		phases = append(phases, snap.State.Phase)
	}
	assert.Equal(t, []VerificationPhase{PhaseIdle, PhaseSearching, PhaseFound}, phases)
}

// blockingVerifier parks every Verify call until release is closed.
type blockingVerifier struct {
	entered chan string
	release chan struct{}
	result  participant.Participant
}

func (b *blockingVerifier) Verify(ctx context.Context, raw string) (participant.Participant, error) {
	b.entered <- raw
	select {
	case <-b.release:
	case <-ctx.Done():
		return participant.Participant{}, ctx.Err()
	}
	if raw == "1" {
		return b.result, nil
	}
	id, _ := participant.ParseUserID(raw)
	return participant.Participant{}, participant.NewNotFound(id)
}

func (b *blockingVerifier) Watch(context.Context, int) (<-chan participant.Participant, error) {
	return nil, errors.New("not supported")
}

func TestVerification_SupersededSearchDropped(t *testing.T) {
	bv := &blockingVerifier{
		entered: make(chan string, 2),
		release: make(chan struct{}),
		result:  participant.Participant{UserID: 1, FullName: "Old", Title: participant.TitleProf, RegistrationType: participant.RegistrationFull},
	}
	v := NewVerification(bv)
	defer v.Close()

	require.NoError(t, v.UpdateSearchID("1"))
	first := make(chan error, 1)
	go func() {
		_, err := v.Verify(context.Background())
		first <- err
	}()
	<-bv.entered

	require.NoError(t, v.UpdateSearchID("2"))
	second := make(chan VerificationState, 1)
	go func() {
		s, _ := v.Verify(context.Background())
		second <- s
	}()
	<-bv.entered

	close(bv.release)
	require.NoError(t, <-first)
	s := <-second

	assert.Equal(t, PhaseNotFound, s.Phase)
	assert.Equal(t, PhaseNotFound, v.Snapshot().Phase, "the older search must not overwrite the newer one")
	assert.Nil(t, v.Snapshot().Participant)
}

func TestVerification_LiveUpdates(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 5, "Barbara Liskov", participant.RegistrationFull)
	v := f.verification(t, WithLiveUpdates())

	s := search(t, v, "5")
	require.Equal(t, participant.CategoryFull, s.Category)

	require.NoError(t, f.mem.Upsert(t.Context(), participant.Participant{
		UserID:           5,
		FullName:         "Barbara Liskov",
		Title:            participant.TitleDr,
		RegistrationType: participant.RegistrationStudent,
	}))

	require.Eventually(t, func() bool {
		return v.Snapshot().Category == participant.CategoryStudent
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, participant.TitleDr, v.Snapshot().Participant.Title)

	v.Close()
	v.Wait()
}

func TestVerification_LiveUpdatesStopAfterQueryChanges(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 5, "Barbara Liskov", participant.RegistrationFull)
	v := f.verification(t, WithLiveUpdates())

	search(t, v, "5")
	require.NoError(t, v.UpdateSearchID("6"))

	require.NoError(t, f.mem.Upsert(t.Context(), participant.Participant{
		UserID:           5,
		FullName:         "Barbara Liskov",
		Title:            participant.TitleProf,
		RegistrationType: participant.RegistrationNone,
	}))

	// The update is delivered but not applied because the query no longer
	// names the record on screen.
	assert.Never(t, func() bool {
		return v.Snapshot().Category == participant.CategoryNone
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestVerification_WithoutLiveUpdatesNoWatch(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 5, "Barbara Liskov", participant.RegistrationFull)
	v := f.verification(t)

	search(t, v, "5")
	// A single GetByID; no Watch call.
	assert.Equal(t, 1, f.gated.Calls())
}

func TestVerification_Close(t *testing.T) {
	f := newFixture(t)
	v := f.verification(t)
	require.NoError(t, v.UpdateSearchID("1"))

	v.Close()
	v.Close()

	assert.ErrorIs(t, v.UpdateSearchID("2"), ErrClosed)
	_, err := v.Verify(t.Context())
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, v.state.Closed())
}
