// Package harness runs YAML scenarios against the validation engine.
//
// A scenario names CUE form specs and a form, then scripts host operations
// (value writes, option selection, change events, clicks, resets, validity
// checks) step by step. Each step runs as one loop task followed by a
// microtask drain, unless the step sets flush: false, in which case its
// deferred work stays pending for the next step. The engine's event trace is
// checked by assertions and compared against golden files.
//
// # Scenario Format
//
//	name: burst_coalesces
//	description: "Several writes in one task evaluate once"
//	specs:
//	  - ../specs/signup.cue
//	form: signup
//	run_id: run-burst
//	steps:
//	  - action: burst
//	    field: email
//	    values: ["a", "ab", "ann@example.com"]
//	    expect:
//	      fields:
//	        email: { error: "", dirty: false }
//	assertions:
//	  - type: trace_count
//	    kind: deferred_run
//	    field: email
//	    count: 1
//
// # Step Actions
//
//   - set_value: programmatic write of value to field
//   - burst: programmatic writes of values to field, in one task
//   - select_option: select the option with value (or index) on a select field
//   - add_rule / remove_rule: register a rule, or remove one by rule_id
//   - revalidate / revalidate_form: request revalidation of a field or the form
//   - change: optional user edit to value, then a change event
//   - click: click a button or submit/image control
//   - reset: reset the form; prevent: true cancels it
//   - check_validity / report_validity: on field, or on the form when field is empty
//   - flush: drain pending microtasks only
//
// # Assertion Types
//
//   - trace_contains: an event matching kind/field/rule/message exists
//   - trace_count: exactly count events match
//   - trace_order: the listed events occur in order, gaps allowed
//   - final_state: a field's state after the last step
//
// # Deterministic Testing
//
// Every run uses a fresh engine with testutil.DeterministicClock and a fixed
// run ID, so the same scenario always yields a byte-identical trace.
package harness
