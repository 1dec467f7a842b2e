package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/checkin/internal/participant"
)

// table is the contract both engines satisfy.
type table interface {
	Upsert(ctx context.Context, p participant.Participant) error
	GetByID(ctx context.Context, id int) (participant.Participant, bool, error)
	ExistsByID(ctx context.Context, id int) (bool, error)
	Counts(ctx context.Context) (map[participant.RegistrationType]int, error)
	Watch(ctx context.Context, id int) (<-chan participant.Participant, error)
	Close() error
}

func engines(t *testing.T) map[string]func(t *testing.T) table {
	return map[string]func(t *testing.T) table{
		"sqlite": func(t *testing.T) table { return createTestStore(t) },
		"memory": func(t *testing.T) table {
			m := NewMemory()
			t.Cleanup(func() { m.Close() })
			return m
		},
	}
}

func contextWithCancel(t *testing.T) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx, cancel
}

func TestContract(t *testing.T) {
	for name, open := range engines(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("get absent is not an error", func(t *testing.T) {
				s := open(t)
				_, found, err := s.GetByID(t.Context(), 42)
				require.NoError(t, err)
				assert.False(t, found)

				exists, err := s.ExistsByID(t.Context(), 42)
				require.NoError(t, err)
				assert.False(t, exists)
			})

			t.Run("upsert then get round trips", func(t *testing.T) {
				s := open(t)
				ctx := t.Context()
				p := createTestParticipant(1, "Ada Lovelace", participant.RegistrationFull)
				p.PhotoPath = strPtr("/photos/1.jpg")

				require.NoError(t, s.Upsert(ctx, p))

				got, found, err := s.GetByID(ctx, 1)
				require.NoError(t, err)
				require.True(t, found)
				assert.True(t, p.Equal(got), "got %+v", got)

				exists, err := s.ExistsByID(ctx, 1)
				require.NoError(t, err)
				assert.True(t, exists)
			})

			t.Run("upsert replaces", func(t *testing.T) {
				s := open(t)
				ctx := t.Context()
				require.NoError(t, s.Upsert(ctx, createTestParticipant(1, "First", participant.RegistrationFull)))
				require.NoError(t, s.Upsert(ctx, createTestParticipant(1, "Second", participant.RegistrationNone)))

				got, _, err := s.GetByID(ctx, 1)
				require.NoError(t, err)
				assert.Equal(t, "Second", got.FullName)
				assert.Equal(t, participant.RegistrationNone, got.RegistrationType)

				counts, err := s.Counts(ctx)
				require.NoError(t, err)
				assert.Equal(t, map[participant.RegistrationType]int{participant.RegistrationNone: 1}, counts)
			})

			t.Run("upsert is idempotent", func(t *testing.T) {
				s := open(t)
				ctx := t.Context()
				p := createTestParticipant(5, "Twice", participant.RegistrationStudent)

				require.NoError(t, s.Upsert(ctx, p))
				once, _, err := s.GetByID(ctx, 5)
				require.NoError(t, err)
				countsOnce, err := s.Counts(ctx)
				require.NoError(t, err)

				require.NoError(t, s.Upsert(ctx, p))
				twice, _, err := s.GetByID(ctx, 5)
				require.NoError(t, err)
				countsTwice, err := s.Counts(ctx)
				require.NoError(t, err)

				assert.Equal(t, once, twice)
				assert.Equal(t, countsOnce, countsTwice)
			})

			t.Run("returned records are copies", func(t *testing.T) {
				s := open(t)
				ctx := t.Context()
				p := createTestParticipant(2, "Copy", participant.RegistrationFull)
				p.PhotoPath = strPtr("/a.jpg")
				require.NoError(t, s.Upsert(ctx, p))

				*p.PhotoPath = "/mutated.jpg"
				got, _, err := s.GetByID(ctx, 2)
				require.NoError(t, err)
				*got.PhotoPath = "/mutated-again.jpg"

				again, _, err := s.GetByID(ctx, 2)
				require.NoError(t, err)
				assert.Equal(t, "/a.jpg", *again.PhotoPath)
			})

			t.Run("counts per tier", func(t *testing.T) {
				s := open(t)
				ctx := t.Context()
				require.NoError(t, s.Upsert(ctx, createTestParticipant(1, "A", participant.RegistrationFull)))
				require.NoError(t, s.Upsert(ctx, createTestParticipant(2, "B", participant.RegistrationFull)))
				require.NoError(t, s.Upsert(ctx, createTestParticipant(3, "C", participant.RegistrationStudent)))

				counts, err := s.Counts(ctx)
				require.NoError(t, err)
				assert.Equal(t, map[participant.RegistrationType]int{
					participant.RegistrationFull:    2,
					participant.RegistrationStudent: 1,
				}, counts)
			})

			t.Run("watch emits current then updates", func(t *testing.T) {
				s := open(t)
				ctx := t.Context()
				require.NoError(t, s.Upsert(ctx, createTestParticipant(7, "v1", participant.RegistrationFull)))

				ch, err := s.Watch(ctx, 7)
				require.NoError(t, err)
				assert.Equal(t, "v1", recv(t, ch).FullName)

				require.NoError(t, s.Upsert(ctx, createTestParticipant(7, "v2", participant.RegistrationFull)))
				assert.Equal(t, "v2", recv(t, ch).FullName)

				require.NoError(t, s.Upsert(ctx, createTestParticipant(8, "other", participant.RegistrationFull)))
				select {
				case p := <-ch:
					t.Fatalf("unexpected update for another id: %+v", p)
				case <-time.After(20 * time.Millisecond):
				}
			})

			t.Run("watch of absent id waits for first write", func(t *testing.T) {
				s := open(t)
				ctx := t.Context()
				ch, err := s.Watch(ctx, 11)
				require.NoError(t, err)

				require.NoError(t, s.Upsert(ctx, createTestParticipant(11, "late", participant.RegistrationNone)))
				assert.Equal(t, "late", recv(t, ch).FullName)
			})

			t.Run("watch keeps newest version for slow readers", func(t *testing.T) {
				s := open(t)
				ctx := t.Context()
				ch, err := s.Watch(ctx, 12)
				require.NoError(t, err)

				for _, name := range []string{"a", "b", "c"} {
					require.NoError(t, s.Upsert(ctx, createTestParticipant(12, name, participant.RegistrationFull)))
				}
				assert.Equal(t, "c", recv(t, ch).FullName)
			})

			t.Run("watch ends on cancel", func(t *testing.T) {
				s := open(t)
				ctx, cancel := context.WithCancel(t.Context())
				ch, err := s.Watch(ctx, 1)
				require.NoError(t, err)
				cancel()
				waitClosed(t, ch)
			})

			t.Run("watch ends on close", func(t *testing.T) {
				s := open(t)
				ch, err := s.Watch(t.Context(), 1)
				require.NoError(t, err)
				require.NoError(t, s.Close())
				waitClosed(t, ch)

				_, err = s.Watch(t.Context(), 1)
				assert.ErrorIs(t, err, ErrClosed)
			})
		})
	}
}

func recv(t *testing.T, ch <-chan participant.Participant) participant.Participant {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return p
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for watch update")
		return participant.Participant{}
	}
}

func waitClosed(t *testing.T, ch <-chan participant.Participant) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel not closed")
		}
	}
}
