package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/checkin/internal/participant"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Concurrency int
}

// VerifyResult is the outcome of one lookup.
type VerifyResult struct {
	Query       string                      `json:"query"`
	Found       bool                        `json:"found"`
	Category    participant.DisplayCategory `json:"category"`
	Participant *participant.Participant    `json:"participant,omitempty"`
	Error       string                      `json:"error,omitempty"`
}

// VerifySummary is the JSON payload of the verify command.
type VerifySummary struct {
	Results []VerifyResult `json:"results"`
	Found   int            `json:"found"`
	Missing int            `json:"missing"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <user-id>...",
		Short: "Look up participants by User ID",
		Long: `Look up one or more participants and show their registration category.

Lookups run concurrently; results are printed in argument order.

Exit codes:
  0 - Every participant was found
  1 - One or more IDs were invalid or not registered
  2 - Command error (store unavailable, etc.)

Examples:
  checkin verify 1001
  checkin verify 1001 1002 1003 --format json`,
		Args:          commandArgs(cobra.MinimumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", rootOpts.cfg.VerifyConcurrency, "maximum parallel lookups")

	return cmd
}

func runVerify(opts *VerifyOptions, queries []string, cmd *cobra.Command) error {
	if opts.Concurrency < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("concurrency must be at least 1, got %d", opts.Concurrency))
	}

	formatter := opts.newFormatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.newLogger(cmd.ErrOrStderr())

	st, err := opts.openBackend(logger)
	if err != nil {
		return err
	}
	defer closeBackend(st, logger)
	svc := opts.newService(st, logger)

	results := make([]VerifyResult, len(queries))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.Concurrency)
	for i, query := range queries {
		g.Go(func() error {
			p, err := svc.Verify(ctx, query)
			results[i] = newVerifyResult(query, p, err)
			if participant.HasCode(err, participant.CodeStoreFailure) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ferr := formatter.Error(errorCode(err), participant.UserMessage(err), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "verification failed", err)
	}

	summary := VerifySummary{Results: results}
	for _, r := range results {
		if r.Found {
			summary.Found++
		} else {
			summary.Missing++
		}
	}

	if err := formatter.Success(summary, formatVerifyText(summary)); err != nil {
		return err
	}
	if summary.Missing > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d participant(s) not verified", summary.Missing))
	}
	return nil
}

func newVerifyResult(query string, p participant.Participant, err error) VerifyResult {
	if err != nil {
		category := participant.CategoryNotFound
		if participant.HasCode(err, participant.CodeMissingField) || participant.HasCode(err, participant.CodeInvalidFormat) {
			category = participant.CategoryDefault
		}
		return VerifyResult{Query: query, Category: category, Error: participant.UserMessage(err)}
	}
	found := p.Clone()
	return VerifyResult{
		Query:       query,
		Found:       true,
		Category:    participant.CategoryFor(&found),
		Participant: &found,
	}
}

func formatVerifyText(s VerifySummary) string {
	var b strings.Builder
	for _, r := range s.Results {
		if r.Found {
			fmt.Fprintf(&b, "✓ %d  %s %s  [%s]\n", r.Participant.UserID, r.Participant.Title, r.Participant.FullName, r.Category)
			continue
		}
		fmt.Fprintf(&b, "✗ %s  %s\n", r.Query, r.Error)
	}
	fmt.Fprintf(&b, "\nVerified: %d found, %d missing", s.Found, s.Missing)
	return b.String()
}
