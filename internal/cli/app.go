package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/checkin/internal/checkin"
	"github.com/roach88/checkin/internal/config"
	"github.com/roach88/checkin/internal/metrics"
	"github.com/roach88/checkin/internal/participant"
	"github.com/roach88/checkin/internal/store"
)

// backend is a record store the CLI can open, count and close.
type backend interface {
	checkin.Store
	Counts(ctx context.Context) (map[participant.RegistrationType]int, error)
	Close() error
}

// newLogger builds the process logger. --verbose forces debug level.
func (o *RootOptions) newLogger(w io.Writer) *slog.Logger {
	level, err := o.cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if o.Verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if o.cfg.LogFormat == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openBackend opens the configured store.
func (o *RootOptions) openBackend(logger *slog.Logger) (backend, error) {
	switch o.Store {
	case config.StoreMemory:
		logger.Debug("using in-memory store")
		return store.NewMemory(), nil
	case config.StoreSQLite:
		logger.Debug("opening database", "path", o.Database)
		st, err := store.Open(o.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		return st, nil
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid store %q", o.Store))
	}
}

// newService wires a service to st with the command's logger and counters.
func (o *RootOptions) newService(st checkin.Store, logger *slog.Logger) *checkin.Service {
	reg := o.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return checkin.New(st,
		checkin.WithLogger(logger),
		checkin.WithMetrics(metrics.New(reg)),
	)
}

func closeBackend(st backend, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing store", "error", err)
	}
}

func (o *RootOptions) newFormatter(stdout, stderr io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    stdout,
		ErrWriter: stderr, // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
