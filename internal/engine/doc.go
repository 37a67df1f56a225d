// Package engine implements the custom validation rule engine.
//
// The engine augments a host's native constraint validation with ordered,
// per-field custom rules. It tracks which single rule currently owns a field's
// error, re-evaluates rules when values change, and coalesces bursts of value
// writes into one deferred evaluation per field.
//
// ARCHITECTURE:
//
// Side Table:
// The engine never owns a Field. Per-field state (rule list, current offender,
// dirty flag) lives in a map keyed by field identity and is created lazily on
// the first rule registration.
//
// Components:
//   - RuleStore (rulestore.go): register / unregister in declaration order
//   - ErrorTracker (tracker.go): which rule currently holds the error
//   - Evaluator (evaluator.go): runOne / runAll with the offender fast path
//   - DirtyScheduler (scheduler.go): markDirty + single-shot deferred runAll
//   - FieldController / ContainerController (controller.go): public facades
//
// Single-Threaded Execution:
// All engine state is mutated on one logical thread. Deferred work goes
// through a Deferrer; Loop is the production implementation and runs every
// deferred task after the current task finishes and before the next external
// task is dispatched (microtask ordering).
//
// Evaluation Order:
// Rules are tried in registration order. When several rules fail, the first
// registered one wins. A rule that still explains the field's error is
// re-checked alone instead of rescanning the whole list.
//
// Error Handling:
// The engine has no internal errors. Registration on an ineligible field and
// removal of an unknown rule are silent no-ops. A panicking rule propagates
// to the caller of the operation that ran it.
package engine
