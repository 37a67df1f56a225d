// Package store provides SQLite-backed storage for scenario run traces.
//
// The store is an append-only log with two tables:
//   - runs: one row per scenario run (form, scenario, spec hash, outcome)
//   - events: the engine trace of a run, one row per event
//
// Events are ordered by their logical seq, never by wall time, so a trace
// read back is identical to the one recorded. UNIQUE(run_id, seq) makes
// rewriting the same trace a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: Wait for locks, 5 seconds unless WithBusyTimeout says otherwise
//   - foreign_keys=ON: Events must reference a stored run
package store
