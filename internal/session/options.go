package session

import (
	"io"
	"log/slog"
)

type config struct {
	ids         IDGenerator
	logger      *slog.Logger
	liveUpdates bool
}

// Option configures a Registration or Verification.
type Option func(*config)

// WithIDGenerator sets the session ID source. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *config) {
		c.ids = g
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithLiveUpdates makes a Verification follow the found record and apply
// newer stored versions. Registration ignores it.
func WithLiveUpdates() Option {
	return func(c *config) {
		c.liveUpdates = true
	}
}

func newConfig(opts []Option) config {
	c := config{
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
