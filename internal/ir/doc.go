// Package ir provides the compiled representation of declarative form specs.
//
// This package contains type definitions and canonical serialization only.
// All other internal packages may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Field and rule order is declaration order and is never re-sorted
//   - NO float types anywhere - lengths and counts are ints
//   - All JSON tags use snake_case
//   - Canonical JSON (sorted keys, NFC strings) is the only encoding used for
//     hashing and golden traces
package ir
