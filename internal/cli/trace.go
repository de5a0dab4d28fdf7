package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/looptx/looptx/internal/engine"
	"github.com/looptx/looptx/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Run      string // optional - show one run's events instead of the run list
}

// TraceRunList is the trace command's payload when listing runs.
type TraceRunList struct {
	Runs []store.Run `json:"runs"`
}

func (l TraceRunList) String() string {
	if len(l.Runs) == 0 {
		return "no runs recorded"
	}
	var b strings.Builder
	for _, r := range l.Runs {
		fmt.Fprintf(&b, "%s  %-7s  %s  %s\n", r.ID, r.Status, r.CreatedAt, r.PayloadPath)
	}
	return strings.TrimRight(b.String(), "\n")
}

// TraceEventList is the trace command's payload for a single run.
type TraceEventList struct {
	Run    store.Run      `json:"run"`
	Events []engine.Event `json:"events"`
}

func (l TraceEventList) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s)\n", l.Run.ID, l.Run.Status)
	for _, ev := range l.Events {
		fmt.Fprintf(&b, "  seq %d  line %d  %-14s %-8s", ev.Seq, ev.Line, stmtText(ev), ev.Status)
		if ev.Status == engine.StatusFailed {
			fmt.Fprintf(&b, " %s: %s", ev.Code, ev.Diagnostic)
		} else {
			fmt.Fprintf(&b, " outputs=%d", ev.NumOutputs)
		}
		b.WriteString("\n")
		for _, el := range ev.Elements {
			if el.Code != "" {
				fmt.Fprintf(&b, "    element %d: %s: %s\n", el.Index, el.Code, el.Message)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func stmtText(ev engine.Event) string {
	parts := []string{ev.Op}
	if ev.InputHandle != "" {
		parts = append(parts, ev.InputHandle)
	}
	if ev.ResultHandle != "" {
		parts = append(parts, "->", ev.ResultHandle)
	}
	return strings.Join(parts, " ")
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded transform traces",
		Long: `List recorded runs, or show the per-statement events of one run.

Examples:
  looptx trace --db trace.db
  looptx trace --db trace.db --run 01890a5d-ac96-774b-bcce-b302099a8057
  looptx trace --db trace.db --run latest --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run ID to show ('latest' for the newest run)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer st.Close()

	ctx := context.Background()
	if opts.Run == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return formatter.Success(TraceRunList{Runs: runs})
	}

	run, err := resolveRun(ctx, st, opts.Run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve run", err)
	}
	events, err := st.ReadEvents(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	return formatter.Success(TraceEventList{Run: run, Events: events})
}

func resolveRun(ctx context.Context, st *store.Store, sel string) (store.Run, error) {
	if sel == "latest" {
		return st.LatestRun(ctx)
	}
	return st.GetRun(ctx, sel)
}
