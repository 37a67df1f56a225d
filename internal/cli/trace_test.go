package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formrules/internal/engine"
	"github.com/roach88/formrules/internal/store"
)

// seededDB records the login_fill and login_wrong runs and returns the path.
func seededDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, dbPath, "scenarios/login_fill.yaml")
	_, err := execute(t, NewRunCommand, "text",
		mustTestdata(t, "specs"), mustTestdata(t, "failing/login_wrong.yaml"), "--db", dbPath)
	require.Equal(t, ExitFailure, GetExitCode(err))
	return dbPath
}

func TestTraceTimeline(t *testing.T) {
	dbPath := seededDB(t)

	out, err := execute(t, NewTraceCommand, "text", "--db", dbPath, "--run", "cli-login")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for Run: cli-login")
	assert.Contains(t, out, "Form: login  Scenario: login_fill  Status: Passed")
	assert.Contains(t, out, `[1] rule_added username rule=username.required`)
	assert.Contains(t, out, `[2] rule_run username rule=username.required message="Username is required"`)
	assert.Contains(t, out, "[4] deferred_run username")
	assert.Contains(t, out, "Total Events: 6")
	assert.Contains(t, out, "rule_run:")
	assert.NotContains(t, out, "=== Failures ===")
}

func TestTraceShowsFailures(t *testing.T) {
	dbPath := seededDB(t)

	out, err := execute(t, NewTraceCommand, "text", "--db", dbPath, "--run", "cli-failing")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: Failed")
	assert.Contains(t, out, "=== Failures ===")
	assert.Contains(t, out, "Username is taken")
}

func TestTraceJSON(t *testing.T) {
	dbPath := seededDB(t)

	out, err := execute(t, NewTraceCommand, "json", "--db", dbPath, "--run", "cli-login")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cli-login", resp.Data.Run.ID)
	require.Len(t, resp.Data.Timeline, 6)
	for i, ev := range resp.Data.Timeline {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, 6, resp.Data.Stats.TotalEvents)
	assert.Equal(t, 1, resp.Data.Stats.Fields)
	assert.Equal(t, 2, resp.Data.Stats.ByKind[engine.EventRuleRun])
}

func TestTraceFieldFilter(t *testing.T) {
	dbPath := seededDB(t)

	out, err := execute(t, NewTraceCommand, "text", "--db", dbPath, "--run", "cli-login", "--field", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "Field: go")
	assert.Contains(t, out, "(no events)")
	assert.Contains(t, out, "Total Events: 0")
}

func TestTraceKindAndRuleFilters(t *testing.T) {
	dbPath := seededDB(t)

	out, err := execute(t, NewTraceCommand, "json", "--db", dbPath, "--run", "cli-login", "--kind", "rule_run")
	require.NoError(t, err)
	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 2)
	assert.Equal(t, int64(2), resp.Data.Timeline[0].Seq)
	assert.Equal(t, int64(5), resp.Data.Timeline[1].Seq)

	out, err = execute(t, NewTraceCommand, "text", "--db", dbPath, "--run", "cli-login", "--rule", "username.required")
	require.NoError(t, err)
	assert.Contains(t, out, "Rule: username.required")
	assert.Contains(t, out, "Total Events: 3")

	_, err = execute(t, NewTraceCommand, "text", "--db", dbPath, "--run", "cli-login", "--kind", "bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown event kind "bogus"`)
}

func TestTraceListsRuns(t *testing.T) {
	dbPath := seededDB(t)

	out, err := execute(t, NewTraceCommand, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ cli-login  login/login_fill")
	assert.Contains(t, out, "✗ cli-failing  login/login_wrong")

	out, err = execute(t, NewTraceCommand, "json", "--db", dbPath)
	require.NoError(t, err)
	var resp struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "cli-login", resp.Data[0].ID)
}

func TestTraceEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, NewTraceCommand, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestTraceErrors(t *testing.T) {
	dbPath := seededDB(t)

	_, err := execute(t, NewTraceCommand, "text", "--db", dbPath, "--run", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: no-such-run")

	_, err = execute(t, NewTraceCommand, "text", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		ev   engine.Event
		want string
	}{
		{engine.Event{Seq: 3, Kind: engine.EventMarkedDirty, Field: "email"}, "[3] marked_dirty email"},
		{engine.Event{Seq: 4, Kind: engine.EventRuleRun, Field: "email", Rule: "email.email"}, "[4] rule_run email rule=email.email"},
		{
			engine.Event{Seq: 5, Kind: engine.EventRuleRun, Field: "email", Rule: "email.email", Message: "Enter a valid email"},
			`[5] rule_run email rule=email.email message="Enter a valid email"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatEvent(tt.ev))
		})
	}
}
