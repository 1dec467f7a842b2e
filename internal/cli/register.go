package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/checkin/internal/participant"
	"github.com/roach88/checkin/internal/session"
)

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	UserID   string
	FullName string
	Title    string
	Type     string
	Photo    string
}

// RegisterResult is the JSON payload of a successful registration.
type RegisterResult struct {
	UserID  int    `json:"user_id"`
	Message string `json:"message"`
}

type fieldEdit struct {
	field participant.Field
	value string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a participant",
		Long: `Register a participant through the registration form.

The form rules apply: the User ID must be a number not already taken and
the full name must not be blank. Title defaults to Prof. and registration
type to full.

Exit codes:
  0 - Participant registered
  1 - Registration rejected (validation or duplicate ID)
  2 - Command error (store unavailable, etc.)

Examples:
  checkin register --id 1001 --name "Ada Lovelace"
  checkin register --id 1002 --name "Alan Turing" --title Dr. --type student
  checkin register --id 1003 --name "Grace Hopper" --photo /photos/1003.jpg`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "id", "", "participant User ID (required)")
	cmd.Flags().StringVar(&opts.FullName, "name", "", "participant full name (required)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title: Prof., Dr. or Student")
	cmd.Flags().StringVar(&opts.Type, "type", "", "registration type: full, student, none or 1..3")
	cmd.Flags().StringVar(&opts.Photo, "photo", "", "path of the participant's photo")

	return cmd
}

func runRegister(opts *RegisterOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.newLogger(cmd.ErrOrStderr())

	st, err := opts.openBackend(logger)
	if err != nil {
		return err
	}
	defer closeBackend(st, logger)

	reg := session.NewRegistration(opts.newService(st, logger), session.WithLogger(logger))
	defer reg.Close()

	edits := []fieldEdit{
		{participant.FieldUserID, opts.UserID},
		{participant.FieldFullName, opts.FullName},
	}
	for _, e := range []fieldEdit{
		{participant.FieldTitle, opts.Title},
		{participant.FieldRegistrationType, opts.Type},
		{participant.FieldPhotoPath, opts.Photo},
	} {
		if e.value != "" {
			edits = append(edits, e)
		}
	}

	for _, e := range edits {
		if err := reg.EditField(e.field, e.value); err != nil {
			if err := formatter.Error(errorCode(err), participant.UserMessage(err), nil); err != nil {
				return err
			}
			return WrapExitError(ExitFailure, "registration rejected", err)
		}
	}
	reg.Wait()
	if w := reg.Snapshot().DuplicateIDWarning; w != "" {
		formatter.VerboseLog("%s", w)
	}

	state, err := reg.Submit(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "submit failed", err)
	}

	if state.Phase == session.PhaseFailed {
		cause := reg.SubmitErr()
		if err := formatter.Error(errorCode(cause), state.ErrorMessage, state.Draft); err != nil {
			return err
		}
		return WrapExitError(exitCodeFor(cause), state.ErrorMessage, cause)
	}

	id, _ := participant.ParseUserID(opts.UserID) // accepted by Submit
	return formatter.Success(
		RegisterResult{UserID: id, Message: state.SuccessMessage},
		fmt.Sprintf("%s (User ID %d)", state.SuccessMessage, id),
	)
}
