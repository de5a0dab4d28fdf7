package harness

import (
	"fmt"

	"github.com/looptx/looptx/internal/engine"
	"github.com/looptx/looptx/internal/ir"
	"github.com/looptx/looptx/internal/script"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Events is the per-statement trace, the failed statement included.
	Events []engine.Event

	// RunErr is the script failure, nil for a clean run.
	RunErr error

	// IR is the printed payload after the run.
	IR string
}

// Run applies a scenario's script to its payload. The returned error covers
// setup problems (unparsable payload or script); script failures are
// reported through Result.RunErr so expectations can assert on them.
func Run(s *Scenario) (*Result, error) {
	mod, err := ir.Parse(s.Payload)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: payload: %w", s.Name, err)
	}
	stmts, err := script.Parse(s.Script)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: script: %w", s.Name, err)
	}
	eng, err := engine.New(mod)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	events, runErr := eng.Run(stmts)
	return &Result{Events: events, RunErr: runErr, IR: mod.Print()}, nil
}
