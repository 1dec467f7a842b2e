// Package checkin implements participant registration and verification on
// top of a record store.
//
// Register is the only mutating operation. CheckDuplicate and Verify are
// read-only. All failures are returned as *participant.Error so callers can
// branch on the code and show the message.
package checkin

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/checkin/internal/metrics"
	"github.com/roach88/checkin/internal/participant"
)

// Store is the record table the service needs.
type Store interface {
	Upsert(ctx context.Context, p participant.Participant) error
	GetByID(ctx context.Context, id int) (participant.Participant, bool, error)
	ExistsByID(ctx context.Context, id int) (bool, error)
	Watch(ctx context.Context, id int) (<-chan participant.Participant, error)
}

// Service mediates between session intents and the store.
//
// Thread-safety: all methods are safe for concurrent use. Register holds a
// write lock across its duplicate check and upsert, so two sessions in one
// process cannot both register the same UserID.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	writeMu sync.Mutex
	checks  singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics sets the metrics sink. Defaults to counters on a private
// registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a Service backed by store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	return s
}

// CheckDuplicate reports whether raw names an already registered UserID.
//
// Input that does not parse returns false with a nil error: the caller
// cannot check yet, which is distinct from a checked miss only in that no
// store access happened. Concurrent checks for the same ID share one store
// call. The shared call is detached from any one caller's ctx: a caller
// whose ctx ends gets ctx.Err() and the others still get the result.
func (s *Service) CheckDuplicate(ctx context.Context, raw string) (bool, error) {
	id, err := participant.ParseUserID(raw)
	if err != nil {
		s.metrics.ObserveDuplicateCheck("skipped")
		return false, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.checks.DoChan(strconv.Itoa(id), func() (any, error) {
		return s.store.ExistsByID(shared, id)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	if res.Err != nil {
		s.metrics.ObserveDuplicateCheck("error")
		return false, participant.NewStoreFailure("check duplicate", res.Err)
	}

	exists := res.Val.(bool)
	if exists {
		s.metrics.ObserveDuplicateCheck("duplicate")
	} else {
		s.metrics.ObserveDuplicateCheck("clear")
	}
	return exists, nil
}

// Register validates draft and stores the record it describes.
//
// Validation order: UserID present, UserID numeric, FullName present,
// title and tier in range, UserID not yet registered. No store access
// happens before the duplicate check.
func (s *Service) Register(ctx context.Context, draft participant.Draft) (participant.Participant, error) {
	p, err := draft.Validate()
	if err != nil {
		s.observeRegistration(err)
		return participant.Participant{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	exists, err := s.store.ExistsByID(ctx, p.UserID)
	if err != nil {
		err = participant.NewStoreFailure("check duplicate", err)
		s.observeRegistration(err)
		return participant.Participant{}, err
	}
	if exists {
		err := participant.NewDuplicateID(p.UserID)
		s.observeRegistration(err)
		s.logger.Info("registration rejected", "user_id", p.UserID, "reason", "duplicate")
		return participant.Participant{}, err
	}

	if err := s.store.Upsert(ctx, p); err != nil {
		err = participant.NewStoreFailure("save participant", err)
		s.observeRegistration(err)
		s.logger.Error("registration failed", "user_id", p.UserID, "error", err)
		return participant.Participant{}, err
	}

	// Checks still sharing a call issued before the insert would see the
	// ID as free.
	s.checks.Forget(strconv.Itoa(p.UserID))

	s.observeRegistration(nil)
	s.logger.Info("participant registered",
		"user_id", p.UserID,
		"title", p.Title,
		"registration_type", p.RegistrationType.String(),
	)
	return p.Clone(), nil
}

// Verify looks up the participant named by raw.
func (s *Service) Verify(ctx context.Context, raw string) (participant.Participant, error) {
	id, err := participant.ParseUserID(raw)
	if err != nil {
		if participant.HasCode(err, participant.CodeMissingField) {
			err = participant.NewMissingField(participant.FieldUserID, "Please enter a User ID")
		}
		s.metrics.ObserveVerification(string(participant.CategoryDefault))
		return participant.Participant{}, err
	}

	p, found, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.metrics.ObserveVerification(string(participant.CategoryNotFound))
		s.logger.Error("verification lookup failed", "user_id", id, "error", err)
		return participant.Participant{}, participant.NewStoreFailure("look up participant", err)
	}
	if !found {
		s.metrics.ObserveVerification(string(participant.CategoryNotFound))
		s.logger.Debug("participant not found", "user_id", id)
		return participant.Participant{}, participant.NewNotFound(id)
	}

	s.metrics.ObserveVerification(string(participant.CategoryFor(&p)))
	s.logger.Debug("participant verified", "user_id", id, "registration_type", p.RegistrationType.String())
	return p, nil
}

// Watch streams the stored versions of the record under id.
func (s *Service) Watch(ctx context.Context, id int) (<-chan participant.Participant, error) {
	ch, err := s.store.Watch(ctx, id)
	if err != nil {
		return nil, participant.NewStoreFailure("watch participant", err)
	}
	return ch, nil
}

func (s *Service) observeRegistration(err error) {
	if err == nil {
		s.metrics.ObserveRegistration(metrics.OutcomeOK)
		return
	}
	code := participant.CodeOf(err)
	if code == "" {
		code = participant.CodeStoreFailure
	}
	s.metrics.ObserveRegistration(strings.ToLower(string(code)))
}
