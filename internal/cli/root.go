package cli

import (
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/checkin/internal/config"
	"github.com/roach88/checkin/internal/metrics"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	Store    string // "sqlite" | "memory"
	Metrics  bool   // print counters to stderr after the command

	cfg      config.Config
	registry *prometheus.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidStores defines the allowed store engines.
var ValidStores = []string{config.StoreSQLite, config.StoreMemory}

// NewRootCommand creates the root command for the checkin CLI.
// Environment variables (CHECKIN_*) supply flag defaults.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Default()
	}
	opts.cfg = cfg

	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Conference participant check-in",
		Long:  "Register conference participants and verify them at the door.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", cfgErr)
			}
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !slices.Contains(ValidStores, opts.Store) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid store %q: must be one of %v", opts.Store, ValidStores))
			}
			opts.registry = prometheus.NewRegistry()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Metrics || opts.registry == nil {
				return nil
			}
			return metrics.WriteText(cmd.ErrOrStderr(), opts.registry)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", cfg.DBPath, "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", cfg.Store, "record store engine (sqlite|memory)")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print operation counters to stderr")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Add subcommands
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// commandArgs wraps a positional-argument validator so that violations
// exit with ExitCommandError.
func commandArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}
