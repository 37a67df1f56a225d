package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/formrules/internal/engine"
)

// ErrRunExists is returned when a run ID is already recorded. Stored runs are
// never overwritten.
var ErrRunExists = errors.New("run already recorded")

// Run is one stored scenario run.
type Run struct {
	ID       string   `json:"id"`
	Form     string   `json:"form"`
	Scenario string   `json:"scenario"`
	SpecHash string   `json:"spec_hash"`
	Pass     bool     `json:"pass"`
	Errors   []string `json:"errors"`
}

// WriteRun inserts a run record. Writing a run ID that is already stored
// returns an error wrapping ErrRunExists and leaves the first record intact.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	return writeRun(ctx, s.db, run)
}

// WriteEvents appends trace events to a stored run.
// Events already stored under the same (run_id, seq) are silently ignored.
// The run must exist (foreign key constraint).
func (s *Store) WriteEvents(ctx context.Context, runID string, events []engine.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin: %w", err)
	}
	defer tx.Rollback()

	if err := writeEvents(ctx, tx, runID, events); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	return nil
}

// WriteTrace stores a run and its events in one transaction.
func (s *Store) WriteTrace(ctx context.Context, run Run, events []engine.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write trace: begin: %w", err)
	}
	defer tx.Rollback()

	if err := writeRun(ctx, tx, run); err != nil {
		return err
	}
	if err := writeEvents(ctx, tx, run.ID, events); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write trace: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeRun(ctx context.Context, db execer, run Run) error {
	errsJSON, err := marshalErrors(run.Errors)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, form, scenario, spec_hash, pass, errors)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Form,
		run.Scenario,
		run.SpecHash,
		run.Pass,
		errsJSON,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("write run %s: %w", run.ID, ErrRunExists)
	}
	return nil
}

func writeEvents(ctx context.Context, db execer, runID string, events []engine.Event) error {
	for _, ev := range events {
		_, err := db.ExecContext(ctx, `
			INSERT INTO events (run_id, seq, kind, field, rule, message)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, seq) DO NOTHING
		`,
			runID,
			ev.Seq,
			string(ev.Kind),
			ev.Field,
			ev.Rule,
			ev.Message,
		)
		if err != nil {
			return fmt.Errorf("write event seq=%d: %w", ev.Seq, err)
		}
	}
	return nil
}
