package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligible(t *testing.T) {
	tests := []struct {
		typ  string
		want bool
	}{
		{"text", true},
		{"email", true},
		{"textarea", true},
		{"select-one", true},
		{"checkbox", true},
		{"submit", false},
		{"reset", false},
		{"button", false},
		{"image", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			f := &testField{name: "f", typ: tt.typ}
			_, ok := Eligible(f)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, ok := Eligible(testButton{})
	assert.False(t, ok, "non-field element is never eligible")
}

func TestRegister_RunsImmediatelyWithoutCustomError(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("email")

	var calls int
	r := countingRule("nonempty", "required", &calls, func(v string) bool { return v == "" })
	e.Field(f).AddRule(r)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "required", f.custom)
	assert.Same(t, r, e.Offender(f))
	assert.Equal(t, []*Rule{r}, e.Rules(f))
}

func TestRegister_SkipsRunWhileCustomErrorShown(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("name")

	var c1, c2 int
	r1 := countingRule("r1", "first", &c1, always)
	r2 := countingRule("r2", "second", &c2, always)

	e.Field(f).AddRule(r1)
	e.Field(f).AddRule(r2)

	assert.Equal(t, 1, c1)
	assert.Equal(t, 0, c2, "second rule is not run while an error is shown")
	assert.Equal(t, "first", f.custom)
	assert.Len(t, e.Rules(f), 2)
}

func TestRegister_IneligibleFieldIsIgnored(t *testing.T) {
	e, _, rec := newTestEngine()

	for _, typ := range []string{"submit", "reset", "button", "image", ""} {
		f := &testField{name: "btn", typ: typ}
		var calls int
		e.Field(f).AddRule(countingRule("r", "bad", &calls, always))

		assert.Equal(t, 0, calls, typ)
		assert.False(t, e.Tracked(f), typ)
		assert.Empty(t, f.custom, typ)
	}
	assert.Empty(t, rec.Events())
}

func TestRegister_NilRuleIsIgnored(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	e.Field(f).AddRule(nil)
	assert.False(t, e.Tracked(f))
}

func TestRegister_SameRuleTwice(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	var calls int
	r := countingRule("r", "", &calls, never)
	e.Field(f).AddRule(r)
	e.Field(f).AddRule(r)

	assert.Equal(t, []*Rule{r, r}, e.Rules(f))
}

func TestRunAll_FirstFailingRuleWins(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	var c1, c2, c3 int
	r1 := countingRule("r1", "one", &c1, func(v string) bool { return v == "" })
	r2 := countingRule("r2", "two", &c2, func(v string) bool { return v == "x" })
	r3 := countingRule("r3", "three", &c3, always)

	fc := e.Field(f)
	fc.AddRule(r1)
	fc.AddRule(r2)
	fc.AddRule(r3)
	require.Same(t, r1, e.Offender(f))

	f.value = "x"
	c1, c2, c3 = 0, 0, 0
	fc.RequestRevalidation()

	assert.Equal(t, "two", f.custom)
	assert.Same(t, r2, e.Offender(f))
	assert.Equal(t, 1, c1)
	assert.Equal(t, 1, c2)
	assert.Equal(t, 0, c3, "scan stops at the first failure")
}

func TestRunAll_OffenderStickiness(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	var c1, c2, c3 int
	r1 := countingRule("r1", "one", &c1, never)
	r2 := countingRule("r2", "two", &c2, always)
	r3 := countingRule("r3", "three", &c3, always)

	fc := e.Field(f)
	fc.AddRule(r1)
	fc.AddRule(r2)
	fc.AddRule(r3)
	require.Same(t, r2, e.Offender(f))

	c1, c2, c3 = 0, 0, 0
	fc.RequestRevalidation()

	assert.Equal(t, 0, c1)
	assert.Equal(t, 1, c2, "only the offender is re-checked")
	assert.Equal(t, 0, c3)
	assert.Equal(t, "two", f.custom)
}

func TestRunAll_StickinessBeatsEarlierRule(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	failFirst := false
	r1 := NewRule("r1", func(string) string {
		if failFirst {
			return "one"
		}
		return ""
	})
	r2 := NewRule("r2", func(string) string { return "two" })

	fc := e.Field(f)
	fc.AddRule(r1)
	fc.AddRule(r2)
	require.Same(t, r2, e.Offender(f))

	// r1 starts failing, but r2 still reproduces and keeps the error.
	failFirst = true
	fc.RequestRevalidation()
	assert.Equal(t, "two", f.custom)
	assert.Same(t, r2, e.Offender(f))
}

func TestRunAll_ResolvedOffenderRescans(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	var c1, c2, c3 int
	r1 := countingRule("r1", "one", &c1, func(v string) bool { return v == "" })
	r2 := countingRule("r2", "two", &c2, func(v string) bool { return v == "abc" })
	r3 := countingRule("r3", "three", &c3, func(v string) bool { return len(v) < 5 })

	fc := e.Field(f)
	fc.AddRule(r1)
	fc.AddRule(r2)
	fc.AddRule(r3)
	require.Same(t, r1, e.Offender(f))

	f.value = "abcd"
	c1, c2, c3 = 0, 0, 0
	fc.RequestRevalidation()

	assert.Equal(t, 1, c1, "offender re-checked once and not again in the scan")
	assert.Equal(t, 1, c2)
	assert.Equal(t, 1, c3)
	assert.Equal(t, "three", f.custom)
	assert.Same(t, r3, e.Offender(f))

	f.value = "abcdef"
	fc.RequestRevalidation()
	assert.Empty(t, f.custom)
	assert.Nil(t, e.Offender(f))
}

func TestRunAll_ExternalCustomErrorLeftAlone(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")
	f.custom = "set by host"

	var calls int
	fc := e.Field(f)
	fc.AddRule(countingRule("r", "rule", &calls, always))
	fc.RequestRevalidation()

	assert.Equal(t, 0, calls)
	assert.Equal(t, "set by host", f.custom)
}

func TestRunAll_ExternalCustomErrorIsNotReported(t *testing.T) {
	e, _, rec := newTestEngine()
	f := newTestField("f")

	var calls int
	fc := e.Field(f)
	fc.AddRule(countingRule("r", "rule", &calls, never))
	f.custom = "set by host"
	rec.Reset()

	fc.RequestRevalidation()

	assert.Equal(t, "set by host", f.custom)
	require.Len(t, rec.Events(), 1)
	ev := rec.Events()[0]
	assert.Equal(t, EventEvaluated, ev.Kind)
	assert.Empty(t, ev.Rule)
	assert.Empty(t, ev.Message, "only errors the engine wrote are reported")
}

func TestRunAll_EvaluatedReportsWrittenError(t *testing.T) {
	e, _, rec := newTestEngine()
	f := newTestField("f")

	var calls int
	fc := e.Field(f)
	fc.AddRule(countingRule("r", "still wrong", &calls, always))
	rec.Reset()

	fc.RequestRevalidation()

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventRuleRun, events[0].Kind)
	assert.Equal(t, Event{Seq: events[1].Seq, Kind: EventEvaluated, Field: "f", Rule: "r", Message: "still wrong"}, events[1])
}

func TestRunAll_Idempotent(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")
	f.value = "fine"

	var requiredCalls, lengthCalls int
	fc := e.Field(f)
	fc.AddRule(countingRule("required", "Required", &requiredCalls, func(v string) bool { return v == "" }))
	fc.AddRule(countingRule("length", "Too long", &lengthCalls, func(v string) bool { return len(v) > 10 }))

	fc.RequestRevalidation()
	firstWrites := f.writes
	assert.Empty(t, f.custom)
	assert.Nil(t, e.Offender(f))

	fc.RequestRevalidation()
	secondWrites := f.writes - firstWrites
	assert.Empty(t, f.custom)
	assert.Nil(t, e.Offender(f))

	fc.RequestRevalidation()
	assert.Equal(t, secondWrites, f.writes-firstWrites-secondWrites, "each evaluation writes the same number of times")
	assert.Equal(t, 2, secondWrites, "both rules run when none fails")
	assert.False(t, e.IsDirty(f))
}

func TestScenario_RequiredThenLength(t *testing.T) {
	e, loop, _ := newTestEngine()
	f := newTestField("f")

	var requiredCalls, lengthCalls int
	requiredRule := countingRule("required", "Required", &requiredCalls, func(v string) bool { return v == "" })
	lengthRule := countingRule("length", "Too long", &lengthCalls, func(v string) bool { return len(v) > 10 })

	fc := e.Field(f)
	fc.AddRule(requiredRule)
	fc.AddRule(lengthRule)

	fc.RequestRevalidation()
	assert.Equal(t, "Required", f.custom)
	assert.Same(t, requiredRule, e.Offender(f))

	f.value = "short"
	fc.MarkDirty()
	assert.True(t, e.IsDirty(f))

	_, err := loop.Drain()
	require.NoError(t, err)
	assert.Empty(t, f.custom)
	assert.Nil(t, e.Offender(f))
	assert.False(t, e.IsDirty(f))
	assert.Equal(t, 1, lengthCalls, "length only runs once the offender passes")
}

func TestRunAll_UntrackedFieldIsNoop(t *testing.T) {
	e, _, rec := newTestEngine()
	f := newTestField("f")

	e.Field(f).RequestRevalidation()

	assert.Equal(t, 0, f.writes)
	assert.Empty(t, rec.Events())
}

func TestRunAll_AllRulesRemovedClearsDirty(t *testing.T) {
	e, loop, _ := newTestEngine()
	f := newTestField("f")

	r := NewRule("r", func(string) string { return "" })
	fc := e.Field(f)
	fc.AddRule(r)
	fc.RemoveRule(r)

	fc.MarkDirty()
	_, err := loop.Drain()
	require.NoError(t, err)
	assert.False(t, e.IsDirty(f))

	// A new rule still gets scheduled after the next write.
	r2 := NewRule("r2", func(v string) string {
		if v == "bad" {
			return "bad value"
		}
		return ""
	})
	fc.AddRule(r2)
	f.value = "bad"
	fc.MarkDirty()
	_, err = loop.Drain()
	require.NoError(t, err)
	assert.Equal(t, "bad value", f.custom)
}

func TestUnregister_OffenderClearsAndReevaluates(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	r1 := NewRule("r1", func(string) string { return "one" })
	r2 := NewRule("r2", func(string) string { return "two" })

	fc := e.Field(f)
	fc.AddRule(r1)
	fc.AddRule(r2)
	require.Equal(t, "one", f.custom)

	fc.RemoveRule(r1)

	assert.Equal(t, "two", f.custom)
	assert.Same(t, r2, e.Offender(f))
	assert.Equal(t, []*Rule{r2}, e.Rules(f))
}

func TestUnregister_LastOffenderLeavesFieldValid(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	r := NewRule("r", func(string) string { return "bad" })
	fc := e.Field(f)
	fc.AddRule(r)
	fc.RemoveRule(r)

	assert.Empty(t, f.custom)
	assert.Nil(t, e.Offender(f))
	assert.True(t, e.Tracked(f))
	assert.Empty(t, e.Rules(f))
}

func TestUnregister_UnknownRuleIsNoop(t *testing.T) {
	e, _, rec := newTestEngine()
	f := newTestField("f")

	r1 := NewRule("r1", func(string) string { return "" })
	r2 := NewRule("r2", func(string) string { return "" })
	stranger := NewRule("stranger", func(string) string { return "" })

	fc := e.Field(f)
	fc.AddRule(r1)
	fc.AddRule(r2)
	rec.Reset()

	fc.RemoveRule(stranger)

	assert.Equal(t, []*Rule{r1, r2}, e.Rules(f), "last rule must survive")
	assert.Empty(t, rec.Events())
}

func TestUnregister_NonOffenderDoesNotReevaluate(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	var c1 int
	r1 := countingRule("r1", "one", &c1, always)
	r2 := NewRule("r2", func(string) string { return "two" })

	fc := e.Field(f)
	fc.AddRule(r1)
	fc.AddRule(r2)
	c1 = 0

	fc.RemoveRule(r2)

	assert.Equal(t, 0, c1)
	assert.Equal(t, "one", f.custom)
	assert.Same(t, r1, e.Offender(f))
}

func TestUnregister_DuplicateRemovesFirstOccurrence(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	r := NewRule("dup", func(string) string { return "dup" })
	other := NewRule("other", func(string) string { return "" })

	fc := e.Field(f)
	fc.AddRule(r)
	fc.AddRule(other)
	fc.AddRule(r)

	fc.RemoveRule(r)

	assert.Equal(t, []*Rule{other, r}, e.Rules(f))
	assert.Equal(t, "dup", f.custom, "remaining copy reclaims the error")
	assert.Same(t, r, e.Offender(f))
}

func TestUnregister_UntrackedFieldIsNoop(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	e.Field(f).RemoveRule(NewRule("r", func(string) string { return "" }))
	assert.False(t, e.Tracked(f))
}

func TestMarkDirty_CoalescesBurst(t *testing.T) {
	e, loop, _ := newTestEngine()
	f := newTestField("f")

	var calls int
	fc := e.Field(f)
	fc.AddRule(countingRule("r", "short", &calls, func(v string) bool { return len(v) < 3 }))
	calls = 0

	for _, v := range []string{"a", "ab", "abc", "abcd"} {
		f.value = v
		fc.MarkDirty()
	}

	assert.True(t, e.IsDirty(f))
	assert.Equal(t, 1, loop.Pending(), "one deferred evaluation per field")

	ran, err := loop.Drain()
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, calls)
	assert.Empty(t, f.custom, "evaluated against the final value")
	assert.False(t, e.IsDirty(f))
}

func TestMarkDirty_CancelledBySynchronousRevalidation(t *testing.T) {
	e, loop, rec := newTestEngine()
	f := newTestField("f")

	var calls int
	fc := e.Field(f)
	fc.AddRule(countingRule("r", "bad", &calls, always))
	calls = 0

	fc.MarkDirty()
	fc.RequestRevalidation()
	assert.False(t, e.IsDirty(f))

	_, err := loop.Drain()
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "deferred task sees the flag cleared")
	kinds := rec.Kinds()
	assert.Equal(t, EventDeferredSkipped, kinds[len(kinds)-1])
}

func TestMarkDirty_UntrackedFieldIsNoop(t *testing.T) {
	e, loop, _ := newTestEngine()
	f := newTestField("f")

	e.Field(f).MarkDirty()

	assert.Equal(t, 0, loop.Pending())
	assert.False(t, e.IsDirty(f))
}

func TestMarkDirty_AfterForget(t *testing.T) {
	e, loop, rec := newTestEngine()
	f := newTestField("f")

	var calls int
	fc := e.Field(f)
	fc.AddRule(countingRule("r", "bad", &calls, always))
	calls = 0

	fc.MarkDirty()
	e.Forget(f)
	_, err := loop.Drain()
	require.NoError(t, err)

	assert.Equal(t, 0, calls)
	assert.False(t, e.Tracked(f))
	kinds := rec.Kinds()
	assert.Equal(t, EventDeferredSkipped, kinds[len(kinds)-1])
}

func TestMarkDirty_IndependentFields(t *testing.T) {
	e, loop, _ := newTestEngine()
	a := newTestField("a")
	b := newTestField("b")

	e.Field(a).AddRule(NewRule("ra", func(string) string { return "" }))
	e.Field(b).AddRule(NewRule("rb", func(string) string { return "" }))

	e.Field(a).MarkDirty()
	e.Field(b).MarkDirty()
	e.Field(a).MarkDirty()

	assert.Equal(t, 2, loop.Pending())
}

func TestContainer_RevalidatesEligibleMembersInOrder(t *testing.T) {
	e, _, rec := newTestEngine()
	a := newTestField("a")
	b := newTestField("b")
	untracked := newTestField("untracked")

	e.Field(a).AddRule(NewRule("ra", func(string) string { return "" }))
	e.Field(b).AddRule(NewRule("rb", func(string) string { return "" }))
	rec.Reset()

	c := &testContainer{members: []Element{b, testButton{}, untracked, a}}
	e.Container(c).RequestRevalidation()

	var evaluated []string
	for _, ev := range rec.Events() {
		if ev.Kind == EventEvaluated {
			evaluated = append(evaluated, ev.Field)
		}
	}
	assert.Equal(t, []string{"b", "a"}, evaluated)
	assert.Equal(t, 0, untracked.writes)
}

func TestContainer_NilIsNoop(t *testing.T) {
	e, _, _ := newTestEngine()
	assert.NotPanics(t, func() {
		e.Container(nil).RequestRevalidation()
	})
}

func TestFieldController_NonFieldIsNoop(t *testing.T) {
	e, loop, rec := newTestEngine()
	fc := e.Field(testButton{})

	assert.NotPanics(t, func() {
		fc.AddRule(NewRule("r", func(string) string { return "bad" }))
		fc.RemoveRule(NewRule("r", func(string) string { return "bad" }))
		fc.RequestRevalidation()
		fc.MarkDirty()
	})
	assert.Equal(t, 0, loop.Pending())
	assert.Empty(t, rec.Events())
}

func TestRulePanicPropagates(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newTestField("f")

	r := NewRule("boom", func(string) string { panic("boom") })
	assert.PanicsWithValue(t, "boom", func() {
		e.Field(f).AddRule(r)
	})
}

func TestNewRule_NilCheckPanics(t *testing.T) {
	assert.Panics(t, func() { NewRule("nil", nil) })
}

func TestEvents_Sequence(t *testing.T) {
	e, loop, rec := newTestEngine()
	f := newTestField("pw")

	r := NewRule("min3", func(v string) string {
		if len(v) < 3 {
			return "too short"
		}
		return ""
	})
	fc := e.Field(f)
	fc.AddRule(r)
	f.value = "abcd"
	fc.MarkDirty()
	_, err := loop.Drain()
	require.NoError(t, err)

	want := []Event{
		{Seq: 1, Kind: EventRuleAdded, Field: "pw", Rule: "min3"},
		{Seq: 2, Kind: EventRuleRun, Field: "pw", Rule: "min3", Message: "too short"},
		{Seq: 3, Kind: EventMarkedDirty, Field: "pw"},
		{Seq: 4, Kind: EventDeferredRun, Field: "pw"},
		{Seq: 5, Kind: EventRuleRun, Field: "pw", Rule: "min3"},
		{Seq: 6, Kind: EventEvaluated, Field: "pw"},
	}
	assert.Equal(t, want, rec.Events())
}

func TestWithClock_ContinuesSequence(t *testing.T) {
	e, _, rec := newTestEngine(WithClock(NewClockAt(41)))
	f := newTestField("f")

	e.Field(f).AddRule(NewRule("r", func(string) string { return "" }))

	events := rec.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, int64(42), events[0].Seq)
}

func TestNoObserver(t *testing.T) {
	clock := NewClock()
	e := New(NewLoop(), WithClock(clock))
	f := newTestField("f")

	e.Field(f).AddRule(NewRule("r", func(string) string { return "bad" }))

	assert.Equal(t, "bad", f.custom)
	assert.Equal(t, int64(0), clock.Current(), "no events are stamped without an observer")
}
