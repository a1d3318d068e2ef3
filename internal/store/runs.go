package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/pollscript/internal/canon"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// RunIDGenerator produces run IDs.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator produces time-ordered UUIDv7 run IDs.
type UUIDv7Generator struct{}

// Generate implements RunIDGenerator. It falls back to a random UUID if
// the v7 clock source fails.
func (UUIDv7Generator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Run is one recorded scenario execution.
type Run struct {
	ID       string   `json:"id"`
	Scenario string   `json:"scenario"`
	Kind     string   `json:"kind"`
	Pass     bool     `json:"pass"`
	Errors   []string `json:"errors"`
	Events   int      `json:"events"`
}

// Event is one entry of a run's trace.
type Event struct {
	Seq     int64  `json:"seq"`
	Op      string `json:"op"`
	Item    string `json:"item,omitempty"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// WriteRun stores a run and its trace in one transaction and returns the
// run ID. If run.ID is empty a new ID is generated.
func (s *Store) WriteRun(ctx context.Context, run Run, events []Event) (string, error) {
	if run.ID == "" {
		run.ID = s.runID.Generate()
	}
	if run.Errors == nil {
		run.Errors = []string{}
	}

	errorsJSON, err := canon.Marshal(run.Errors)
	if err != nil {
		return "", fmt.Errorf("write run: marshal errors: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, kind, pass, errors)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Scenario, run.Kind, run.Pass, string(errorsJSON))
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (run_id, seq, op, item, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, run.ID, ev.Seq, ev.Op, ev.Item, ev.Outcome, ev.Error); err != nil {
			return "", fmt.Errorf("write run: event seq %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: commit: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns every run in insertion order, optionally filtered by
// scenario name. Errors are included; events are only counted.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	query := `
		SELECT r.id, r.scenario, r.kind, r.pass, r.errors,
		       (SELECT COUNT(*) FROM events e WHERE e.run_id = r.id)
		FROM runs r`
	var args []any
	if scenario != "" {
		query += ` WHERE r.scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY r.ord ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a run and its trace ordered by seq.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, []Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.scenario, r.kind, r.pass, r.errors,
		       (SELECT COUNT(*) FROM events e WHERE e.run_id = r.id)
		FROM runs r
		WHERE r.id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, op, item, outcome, error
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Seq, &ev.Op, &ev.Item, &ev.Outcome, &ev.Error); err != nil {
			return Run{}, nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("iterate events: %w", err)
	}
	return run, events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		errorsJSON string
	)
	if err := row.Scan(&run.ID, &run.Scenario, &run.Kind, &run.Pass, &errorsJSON, &run.Events); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil {
		return Run{}, fmt.Errorf("unmarshal errors for run %s: %w", run.ID, err)
	}
	return run, nil
}
