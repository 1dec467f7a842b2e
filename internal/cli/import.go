package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/checkin/internal/participant"
	"github.com/roach88/checkin/internal/roster"
)

// ImportEntry is the outcome for one roster entry.
type ImportEntry struct {
	Index  int    `json:"index"`
	UserID string `json:"user_id"`
	OK     bool   `json:"ok"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ImportSummary is the JSON payload of the import command.
type ImportSummary struct {
	Entries  []ImportEntry `json:"entries"`
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Total    int           `json:"total"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <roster.yaml>",
		Short: "Bulk register participants from a roster",
		Long: `Register every participant listed in a YAML roster.

Entries are registered in order with the same rules as the register
command. A rejected entry is reported and the import continues.

Exit codes:
  0 - Every entry was imported
  1 - One or more entries were rejected
  2 - Command error (roster unreadable or invalid, store unavailable)

Example:
  checkin import roster.yaml`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.newLogger(cmd.ErrOrStderr())

	drafts, err := roster.Load(path)
	if err != nil {
		code := ErrCodeRoster
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		if ferr := formatter.Error(code, err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "failed to load roster", err)
	}
	formatter.VerboseLog("loaded %d roster entries from %s", len(drafts), path)

	st, err := opts.openBackend(logger)
	if err != nil {
		return err
	}
	defer closeBackend(st, logger)

	report, err := opts.newService(st, logger).Import(cmd.Context(), drafts)
	if err != nil {
		return WrapExitError(ExitCommandError, "import interrupted", err)
	}

	summary := ImportSummary{
		Entries:  make([]ImportEntry, 0, len(report.Results)),
		Imported: report.Imported,
		Failed:   report.Failed,
		Total:    len(drafts),
	}
	storeFailed := false
	for _, r := range report.Results {
		entry := ImportEntry{Index: r.Index, UserID: r.UserID, OK: r.Err == nil}
		if r.Err != nil {
			entry.Code = errorCode(r.Err)
			entry.Error = participant.UserMessage(r.Err)
			storeFailed = storeFailed || participant.HasCode(r.Err, participant.CodeStoreFailure)
		}
		summary.Entries = append(summary.Entries, entry)
	}

	if err := formatter.Success(summary, formatImportText(summary)); err != nil {
		return err
	}
	switch {
	case storeFailed:
		return NewExitError(ExitCommandError, "store failure during import")
	case summary.Failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d roster entries rejected", summary.Failed))
	}
	return nil
}

func formatImportText(s ImportSummary) string {
	var b strings.Builder
	for _, e := range s.Entries {
		if !e.OK {
			fmt.Fprintf(&b, "✗ entry %d (User ID %s): %s\n", e.Index, e.UserID, e.Error)
		}
	}
	fmt.Fprintf(&b, "Import Summary: %d imported, %d failed, %d total", s.Imported, s.Failed, s.Total)
	return b.String()
}
