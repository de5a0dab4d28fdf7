package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/looptx/looptx/internal/engine"
	"github.com/looptx/looptx/internal/store"
	"github.com/looptx/looptx/internal/transform"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunResult is the run command's success payload.
type RunResult struct {
	RunID      string `json:"run_id,omitempty"`
	Statements int    `json:"statements"`
	IR         string `json:"ir"`
}

func (r RunResult) String() string { return r.IR }

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <payload.lir> <script.ltx>",
		Short: "Apply a transform script to a payload",
		Long: `Apply a transform script to a payload and print the resulting IR.

Statements run sequentially; the run halts at the first failed statement.
Mutations committed before the failure stand, which is why a failed run's
payload output is not printed: restart from the original payload instead.

With --db, the run's trace (one event per statement) is recorded.

Examples:
  looptx run payload.lir script.ltx
  looptx run payload.lir script.ltx --db trace.db --verbose`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (optional)")

	return cmd
}

func runScript(opts *RunOptions, payloadPath, scriptPath string, cmd *cobra.Command) error {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

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
	stmts, scriptSrc, err := loadScript(scriptPath)
	if err != nil {
		return err
	}
	slog.Debug("script parsed", "statements", len(stmts))

	eng, err := engine.New(mod)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize engine", err)
	}

	ctx := context.Background()
	var st *store.Store
	var runID string
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer st.Close()
		runID, err = st.BeginRun(ctx, payloadPath, scriptSrc)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to begin trace run", err)
		}
	}

	events, runErr := eng.Run(stmts)
	for _, ev := range events {
		slog.Debug("statement", "seq", ev.Seq, "op", ev.Op, "status", ev.Status)
		if st != nil {
			if werr := st.WriteEvent(ctx, runID, ev); werr != nil {
				return WrapExitError(ExitCommandError, "failed to record trace event", werr)
			}
		}
	}
	if st != nil {
		status := store.RunOK
		if runErr != nil {
			status = store.RunFailed
		}
		if ferr := st.FinishRun(ctx, runID, status); ferr != nil {
			return WrapExitError(ExitCommandError, "failed to finish trace run", ferr)
		}
	}

	if runErr != nil {
		code := "SCRIPT_FAILED"
		var terr *transform.Error
		if errors.As(runErr, &terr) {
			code = string(terr.Code)
		}
		last := events[len(events)-1]
		_ = formatter.Error(code, runErr.Error(), map[string]any{
			"seq": last.Seq, "line": last.Line, "op": last.Op,
		})
		return NewExitError(ExitFailure, "script failed")
	}

	return formatter.Success(RunResult{
		RunID:      runID,
		Statements: len(events),
		IR:         mod.Print(),
	})
}
