package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/checkin/internal/participant"
)

// StatsResult is the JSON payload of the stats command.
type StatsResult struct {
	Full    int `json:"full"`
	Student int `json:"student"`
	None    int `json:"none"`
	Total   int `json:"total"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count registered participants by registration type",
		Example: `  checkin stats
  checkin stats --format json`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.newLogger(cmd.ErrOrStderr())

	st, err := opts.openBackend(logger)
	if err != nil {
		return err
	}
	defer closeBackend(st, logger)

	counts, err := st.Counts(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count participants", err)
	}

	res := StatsResult{
		Full:    counts[participant.RegistrationFull],
		Student: counts[participant.RegistrationStudent],
		None:    counts[participant.RegistrationNone],
	}
	res.Total = res.Full + res.Student + res.None

	var b strings.Builder
	fmt.Fprintf(&b, "full:    %d\n", res.Full)
	fmt.Fprintf(&b, "student: %d\n", res.Student)
	fmt.Fprintf(&b, "none:    %d\n", res.None)
	fmt.Fprintf(&b, "total:   %d", res.Total)
	return formatter.Success(res, b.String())
}
