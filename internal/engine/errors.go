package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxMicrotasks bounds how many deferred tasks one Drain may run.
//
// A rule or host hook that writes a value from inside a deferred evaluation
// schedules another evaluation; without a bound such a chain would never
// yield back to the loop.
const DefaultMaxMicrotasks = 10000

// MicrotaskLimitError is returned when a drain hits the microtask limit.
//
// The remaining microtasks stay queued; the next Drain continues with them.
type MicrotaskLimitError struct {
	Ran       int // microtasks run in this drain
	Limit     int // configured limit
	Remaining int // microtasks still queued
}

func (e *MicrotaskLimitError) Error() string {
	return fmt.Sprintf("microtask limit exceeded: ran %d of limit %d, %d still queued",
		e.Ran, e.Limit, e.Remaining)
}

// IsMicrotaskLimit reports whether err is (or wraps) a MicrotaskLimitError.
func IsMicrotaskLimit(err error) bool {
	var limitErr *MicrotaskLimitError
	return errors.As(err, &limitErr)
}
