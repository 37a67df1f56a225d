package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formrules/internal/engine"
)

func TestEventQuery_Compile(t *testing.T) {
	tests := []struct {
		name       string
		query      EventQuery
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "run only",
			query:      EventQuery{RunID: "r"},
			wantSQL:    "SELECT seq, kind, field, rule, message FROM events WHERE run_id = ? ORDER BY seq ASC",
			wantParams: []any{"r"},
		},
		{
			name:       "all filters",
			query:      EventQuery{RunID: "r", Field: "email", Kind: engine.EventRuleRun, Rule: "email.email", AfterSeq: 2, Limit: 10},
			wantSQL:    "SELECT seq, kind, field, rule, message FROM events WHERE run_id = ? AND field = ? AND kind = ? AND rule = ? AND seq > ? ORDER BY seq ASC LIMIT ?",
			wantParams: []any{"r", "email", "rule_run", "email.email", int64(2), 10},
		},
		{
			name:       "hostile value stays a parameter",
			query:      EventQuery{RunID: "r", Field: "x' OR '1'='1"},
			wantSQL:    "SELECT seq, kind, field, rule, message FROM events WHERE run_id = ? AND field = ? ORDER BY seq ASC",
			wantParams: []any{"r", "x' OR '1'='1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := tt.query.compile()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestEventQuery_CompileErrors(t *testing.T) {
	_, _, err := EventQuery{}.compile()
	assert.ErrorContains(t, err, "needs a run id")

	_, _, err = EventQuery{RunID: "r", Limit: -1}.compile()
	assert.ErrorContains(t, err, "must not be negative")
}

func TestQueryEvents_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteTrace(ctx, createTestRun("run-1"), createTestTrace()))

	byKind, err := s.QueryEvents(ctx, EventQuery{RunID: "run-1", Kind: engine.EventRuleRun})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, "required", byKind[0].Message)

	byRule, err := s.QueryEvents(ctx, EventQuery{RunID: "run-1", Rule: "email.required"})
	require.NoError(t, err)
	assert.Len(t, byRule, 2)

	page, err := s.QueryEvents(ctx, EventQuery{RunID: "run-1", AfterSeq: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].Seq)
	assert.Equal(t, int64(4), page[1].Seq)

	none, err := s.QueryEvents(ctx, EventQuery{RunID: "run-1", Field: "x' OR '1'='1"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
