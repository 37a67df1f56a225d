package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/formrules/internal/engine"
	"github.com/roach88/formrules/internal/ir"
)

// GoldenDir is where golden traces live, relative to the test's package.
const GoldenDir = "testdata/golden"

// TraceSnapshot captures the trace of one scenario run.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	RunID        string         `json:"run_id"`
	Trace        []engine.Event `json:"trace"`
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which only
// handles primitives, slices and maps.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":   ev.Seq,
			"kind":  string(ev.Kind),
			"field": ev.Field,
		}
		if ev.Rule != "" {
			m["rule"] = ev.Rule
		}
		if ev.Message != "" {
			m["message"] = ev.Message
		}
		traceList[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"run_id":        s.RunID,
		"trace":         traceList,
	}
}

// SnapshotJSON renders the canonical golden form of a result's trace.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		ScenarioName: scenarioName,
		RunID:        result.RunID,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}

// GoldenMismatchError reports a trace that differs from its golden file.
type GoldenMismatchError struct {
	Path     string
	Expected []byte
	Actual   []byte
}

func (e *GoldenMismatchError) Error() string {
	return fmt.Sprintf("trace differs from %s\n  expected: %s\n  actual:   %s", e.Path, e.Expected, e.Actual)
}

// CompareGolden compares a result's trace against dir/{name}.golden outside
// of a test. With update set it rewrites the file instead.
func CompareGolden(dir, scenarioName string, result *Result, update bool) error {
	traceJSON, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, scenarioName+".golden")
	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create golden dir: %w", err)
		}
		return os.WriteFile(path, traceJSON, 0o644)
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, traceJSON) {
		return &GoldenMismatchError{Path: path, Expected: want, Actual: traceJSON}
	}
	return nil
}
