package engine

import (
	"log/slog"
	"slices"
)

// Engine owns the side table of per-field validation state.
//
// CRITICAL: Engine is not safe for concurrent use. Every call, including the
// deferred tasks it schedules, must run on the goroutine that owns the
// Deferrer (see Loop).
type Engine struct {
	states   map[Field]*fieldState
	deferrer Deferrer
	clock    SeqSource
	observer Observer
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the observer that receives trace events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithClock sets the seq source used to stamp events.
func WithClock(c SeqSource) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine that schedules deferred evaluations on d.
// d must not be nil.
func New(d Deferrer, opts ...Option) *Engine {
	e := &Engine{
		states:   make(map[Field]*fieldState),
		deferrer: d,
		clock:    NewClock(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ensureState returns the state for f, creating it on first use.
func (e *Engine) ensureState(f Field) *fieldState {
	st, ok := e.states[f]
	if !ok {
		st = &fieldState{}
		e.states[f] = st
	}
	return st
}

// Rules returns a copy of f's rules in registration order.
func (e *Engine) Rules(f Field) []*Rule {
	st, ok := e.states[f]
	if !ok {
		return nil
	}
	return slices.Clone(st.rules)
}

// Offender returns the rule whose message is f's current custom error.
func (e *Engine) Offender(f Field) *Rule {
	st, ok := e.states[f]
	if !ok {
		return nil
	}
	return st.currentErrorRule()
}

// IsDirty reports whether f has a pending deferred evaluation.
func (e *Engine) IsDirty(f Field) bool {
	st, ok := e.states[f]
	return ok && st.dirty
}

// Tracked reports whether the engine holds state for f.
func (e *Engine) Tracked(f Field) bool {
	_, ok := e.states[f]
	return ok
}

// Forget drops the engine's state for f. A pending deferred evaluation for f
// becomes a no-op. The field's custom error is left as is.
func (e *Engine) Forget(f Field) {
	delete(e.states, f)
}

func (e *Engine) emit(kind EventKind, f Field, rule *Rule, message string) {
	if e.observer == nil {
		return
	}
	ev := Event{
		Seq:     e.clock.Next(),
		Kind:    kind,
		Field:   f.Name(),
		Message: message,
	}
	if rule != nil {
		ev.Rule = rule.Name()
	}
	e.observer.Observe(ev)
}
