package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/formrules/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Trace    []engine.Event // Full trace for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", ev.Seq, ev.Kind, ev.Field)
			if ev.Rule != "" {
				fmt.Fprintf(&buf, " rule=%s", ev.Rule)
			}
			if ev.Message != "" {
				fmt.Fprintf(&buf, " message=%q", ev.Message)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// assertTraceContains checks that some event matches.
func assertTraceContains(trace []engine.Event, a Assertion) error {
	for _, ev := range trace {
		if a.EventMatch.Matches(ev) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: a.EventMatch.String(),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks the number of matching events.
func assertTraceCount(trace []engine.Event, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if a.EventMatch.Matches(ev) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d x %s", a.Count, a.EventMatch),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the events appear in order. Other events may
// appear between them.
func assertTraceOrder(trace []engine.Event, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Events) && a.Events[next].Matches(ev) {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}

	want := make([]string, len(a.Events))
	for i, m := range a.Events {
		want[i] = m.String()
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: "events in order: " + strings.Join(want, ", "),
		Actual:   fmt.Sprintf("matched %d of %d, missing %s", next, len(a.Events), a.Events[next]),
		Trace:    trace,
	}
}

// assertFinalState compares a control's final state.
func assertFinalState(state map[string]FieldState, a Assertion) error {
	got, ok := state[a.Field]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("control %q", a.Field),
			Actual:   "no such control",
		}
	}
	if diffs := compareField(a.Field, *a.Expect, got); len(diffs) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("state of %q", a.Field),
			Actual:   strings.Join(diffs, "; "),
		}
	}
	return nil
}

// EvaluateAssertions checks every assertion against result and returns one
// message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result.State, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}
