package engine

import "sync"

// EventKind names an observable engine action.
type EventKind string

const (
	EventRuleAdded       EventKind = "rule_added"
	EventRuleRemoved     EventKind = "rule_removed"
	EventRuleRun         EventKind = "rule_run"
	EventEvaluated       EventKind = "evaluated"
	EventMarkedDirty     EventKind = "marked_dirty"
	EventDeferredRun     EventKind = "deferred_run"
	EventDeferredSkipped EventKind = "deferred_skipped"
)

// Event is one entry of an engine trace.
//
// Rule is the rule's name for rule_added, rule_removed and rule_run, and the
// offender's name (if any) for evaluated. Message is the message the rule
// returned for rule_run. For evaluated it is the custom error the evaluation
// left on the field, or empty when the evaluation wrote none (a custom error
// set outside the engine is kept but not reported).
type Event struct {
	Seq     int64     `json:"seq"`
	Kind    EventKind `json:"kind"`
	Field   string    `json:"field"`
	Rule    string    `json:"rule,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Observer receives engine events synchronously, on the loop goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) {
	f(ev)
}

// Recorder is an Observer that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe appends ev.
func (r *Recorder) Observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events, in order.
func (r *Recorder) Kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
