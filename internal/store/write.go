package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/looptx/looptx/internal/engine"
)

// Run status values.
const (
	RunRunning = "running"
	RunOK      = "ok"
	RunFailed  = "failed"
)

// BeginRun inserts a run record and returns its ID. IDs are UUIDv7 so they
// sort by creation time.
func (s *Store) BeginRun(ctx context.Context, payloadPath, scriptSrc string) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, payload_path, script, status)
		VALUES (?, ?, ?, ?)
	`, id, payloadPath, scriptSrc, RunRunning)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// FinishRun records the run's final status.
func (s *Store) FinishRun(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: no run %q", id)
	}
	return nil
}

// WriteEvent appends one statement event to a run's trace. Duplicate
// (run, seq) writes are rejected by the primary key; events are never
// rewritten.
func (s *Store) WriteEvent(ctx context.Context, runID string, ev engine.Event) error {
	elements, err := json.Marshal(ev.Elements)
	if err != nil {
		return fmt.Errorf("write event: marshal elements: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events
		(run_id, seq, line, op, input_handle, result_handle, attrs,
		 status, code, diagnostic, elements, num_outputs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		ev.Seq,
		ev.Line,
		ev.Op,
		ev.InputHandle,
		ev.ResultHandle,
		ev.AttrsJSON,
		ev.Status,
		ev.Code,
		ev.Diagnostic,
		string(elements),
		ev.NumOutputs,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
