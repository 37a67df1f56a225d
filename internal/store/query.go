package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/formrules/internal/engine"
)

// EventQuery selects events of one run. Empty filters match every event.
type EventQuery struct {
	RunID string
	Field string
	Kind  engine.EventKind
	Rule  string

	// AfterSeq skips events with seq <= AfterSeq.
	AfterSeq int64

	// Limit caps the result. Zero means no limit.
	Limit int
}

// compile builds the parameterized SELECT for q.
// Values are never interpolated. Every query is ordered by seq.
func (q EventQuery) compile() (string, []any, error) {
	if q.RunID == "" {
		return "", nil, fmt.Errorf("event query needs a run id")
	}
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("event query limit must not be negative, got %d", q.Limit)
	}

	where := []string{"run_id = ?"}
	params := []any{q.RunID}
	eq := func(column, value string) {
		if value != "" {
			where = append(where, column+" = ?")
			params = append(params, value)
		}
	}
	eq("field", q.Field)
	eq("kind", string(q.Kind))
	eq("rule", q.Rule)
	if q.AfterSeq > 0 {
		where = append(where, "seq > ?")
		params = append(params, q.AfterSeq)
	}

	sql := "SELECT seq, kind, field, rule, message FROM events WHERE " +
		strings.Join(where, " AND ") +
		" ORDER BY seq ASC"
	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}
	return sql, params, nil
}

// QueryEvents returns the events matching q in seq order.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryEvents(ctx context.Context, q EventQuery) ([]engine.Event, error) {
	query, params, err := q.compile()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []engine.Event{}
	for rows.Next() {
		var (
			ev   engine.Event
			kind string
		)
		if err := rows.Scan(&ev.Seq, &kind, &ev.Field, &ev.Rule, &ev.Message); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = engine.EventKind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
