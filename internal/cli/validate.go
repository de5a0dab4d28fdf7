package cli

import (
	"github.com/spf13/cobra"

	"github.com/looptx/looptx/internal/script"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidateResult is the validate command's success payload.
type ValidateResult struct {
	Statements int    `json:"statements"`
	Message    string `json:"message"`
}

func (r ValidateResult) String() string { return r.Message }

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <script.ltx>",
		Short: "Parse and validate a transform script",
		Long: `Parse a transform script and check every statement's attributes
against the per-operation constraint table, without touching any payload.

Example:
  looptx validate script.ltx`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, scriptPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	stmts, _, err := loadScript(scriptPath)
	if err != nil {
		return err
	}

	validator, err := script.NewValidator()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile attribute schema", err)
	}
	for _, st := range stmts {
		if _, _, verr := validator.Validate(st); verr != nil {
			_ = formatter.Error("INVALID_ATTRIBUTE", verr.Error(), map[string]any{
				"line": st.Line, "op": st.Op,
			})
			return NewExitError(ExitFailure, "validation failed")
		}
		formatter.VerboseLog("line %d: %s ok", st.Line, st.Op)
	}

	return formatter.Success(ValidateResult{
		Statements: len(stmts),
		Message:    "script is valid",
	})
}
