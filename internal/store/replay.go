package store

import (
	"context"
	"fmt"

	"github.com/looptx/looptx/internal/engine"
	"github.com/looptx/looptx/internal/ir"
	"github.com/looptx/looptx/internal/script"
)

// Replay re-applies a recorded run's script against a fresh payload and
// records the result as a new run. The caller supplies the payload module;
// it must be the original, untransformed payload, since rewrites are not
// safe to re-apply on top of their own output.
//
// Returns the new run's ID and events. A script failure during replay is
// reported in the events and the run status, not as an error; the error
// return covers store and parse problems only.
func (s *Store) Replay(ctx context.Context, runID string, mod *ir.Module) (string, []engine.Event, error) {
	rec, err := s.GetRun(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	stmts, err := script.Parse(rec.Script)
	if err != nil {
		return "", nil, fmt.Errorf("replay run %s: %w", runID, err)
	}
	eng, err := engine.New(mod)
	if err != nil {
		return "", nil, err
	}

	newID, err := s.BeginRun(ctx, rec.PayloadPath, rec.Script)
	if err != nil {
		return "", nil, err
	}
	events, runErr := eng.Run(stmts)
	for _, ev := range events {
		if err := s.WriteEvent(ctx, newID, ev); err != nil {
			return newID, events, err
		}
	}
	status := RunOK
	if runErr != nil {
		status = RunFailed
	}
	if err := s.FinishRun(ctx, newID, status); err != nil {
		return newID, events, err
	}
	return newID, events, nil
}
