package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/looptx/looptx/internal/engine"
)

// Run is one recorded script application.
type Run struct {
	ID          string
	CreatedAt   string
	PayloadPath string
	Script      string
	Status      string
}

// ErrNoRuns is returned by LatestRun on an empty store.
var ErrNoRuns = errors.New("trace store has no runs")

// ListRuns returns all runs, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, payload_path, script, status
		FROM runs ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.PayloadPath, &r.Script, &r.Status); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, payload_path, script, status
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.CreatedAt, &r.PayloadPath, &r.Script, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("no run %q", id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recently created run. UUIDv7 IDs order by
// creation time, so MAX(id) is the newest.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	// MAX(id) always yields one row; it is NULL on an empty table.
	var id sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM runs`).Scan(&id); err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	if !id.Valid {
		return Run{}, ErrNoRuns
	}
	return s.GetRun(ctx, id.String)
}

// ReadEvents returns a run's trace in seq order.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]engine.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, line, op, input_handle, result_handle, attrs,
		       status, code, diagnostic, elements, num_outputs
		FROM events WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		var ev engine.Event
		var elements string
		if err := rows.Scan(&ev.Seq, &ev.Line, &ev.Op, &ev.InputHandle, &ev.ResultHandle,
			&ev.AttrsJSON, &ev.Status, &ev.Code, &ev.Diagnostic, &elements, &ev.NumOutputs); err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		if err := json.Unmarshal([]byte(elements), &ev.Elements); err != nil {
			return nil, fmt.Errorf("read events: decode elements: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}
