package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/formrules/internal/engine"
)

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, form, scenario, spec_hash, pass, errors
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns every run in insertion order.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, form, scenario, spec_hash, pass, errors
		FROM runs
		ORDER BY rowid ASC
	`)
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

// ReadEvents returns a run's trace ordered by seq. A non-empty field limits
// the result to that field's events.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEvents(ctx context.Context, runID, field string) ([]engine.Event, error) {
	return s.QueryEvents(ctx, EventQuery{RunID: runID, Field: field})
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun reads one runs row. sql.ErrNoRows is returned unwrapped.
func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		errsJSON string
	)
	if err := row.Scan(&run.ID, &run.Form, &run.Scenario, &run.SpecHash, &run.Pass, &errsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	errs, err := unmarshalErrors(errsJSON)
	if err != nil {
		return Run{}, err
	}
	run.Errors = errs
	return run, nil
}
