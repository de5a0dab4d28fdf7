package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/looptx/looptx/internal/engine"
	"github.com/looptx/looptx/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Run      string
}

// ReplayResult is the replay command's success payload.
type ReplayResult struct {
	SourceRunID string `json:"source_run_id"`
	NewRunID    string `json:"new_run_id"`
	Statements  int    `json:"statements"`
	Identical   bool   `json:"identical"`
	Message     string `json:"message"`
}

func (r ReplayResult) String() string { return r.Message }

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <payload.lir>",
		Short: "Re-apply a recorded script to a fresh payload",
		Long: `Re-apply a recorded run's script against a fresh payload, record the
result as a new run, and compare the new trace with the recorded one.

Rewrites are not safe to retry, so the payload must be the original,
untransformed input of the recorded run.

Examples:
  looptx replay --db trace.db payload.lir
  looptx replay --db trace.db --run 01890a5d-ac96-774b-bcce-b302099a8057 payload.lir`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Run, "run", "latest", "run ID to replay")

	return cmd
}

func runReplay(opts *ReplayOptions, payloadPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	mod, err := loadPayload(payloadPath)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer st.Close()

	ctx := context.Background()
	source, err := resolveRun(ctx, st, opts.Run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve run", err)
	}
	recorded, err := st.ReadEvents(ctx, source.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read recorded events", err)
	}

	newID, replayed, err := st.Replay(ctx, source.ID, mod)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	identical := tracesMatch(recorded, replayed)
	result := ReplayResult{
		SourceRunID: source.ID,
		NewRunID:    newID,
		Statements:  len(replayed),
		Identical:   identical,
	}
	if identical {
		result.Message = "replay reproduced the recorded trace"
		return formatter.Success(result)
	}
	result.Message = "replay diverged from the recorded trace"
	_ = formatter.Error("NON_DETERMINISTIC_REPLAY", result.Message, result)
	return NewExitError(ExitFailure, result.Message)
}

// tracesMatch compares traces by the fields replay must reproduce: seq,
// statement, status and outcome all have to line up.
func tracesMatch(recorded, replayed []engine.Event) bool {
	if len(recorded) != len(replayed) {
		return false
	}
	for i := range recorded {
		a, b := recorded[i], replayed[i]
		if a.Seq != b.Seq || a.Line != b.Line || a.Op != b.Op ||
			a.Status != b.Status || a.Code != b.Code ||
			a.NumOutputs != b.NumOutputs || len(a.Elements) != len(b.Elements) {
			return false
		}
		for j := range a.Elements {
			if a.Elements[j] != b.Elements[j] {
				return false
			}
		}
	}
	return true
}
