package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/formrules/internal/engine"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestRun(id string) Run {
	return Run{
		ID:       id,
		Form:     "signup",
		Scenario: "signup_flow",
		SpecHash: "test-hash",
		Pass:     true,
		Errors:   []string{},
	}
}

func createTestTrace() []engine.Event {
	return []engine.Event{
		{Seq: 1, Kind: engine.EventRuleAdded, Field: "email", Rule: "email.required"},
		{Seq: 2, Kind: engine.EventRuleRun, Field: "email", Rule: "email.required", Message: "required"},
		{Seq: 3, Kind: engine.EventMarkedDirty, Field: "name"},
		{Seq: 4, Kind: engine.EventDeferredRun, Field: "name"},
		{Seq: 5, Kind: engine.EventEvaluated, Field: "name"},
	}
}
