package engine

import "sync/atomic"

// SeqSource hands out strictly increasing sequence numbers for trace events.
// Clock and testutil.DeterministicClock both satisfy it.
type SeqSource interface {
	Next() int64
}

// Clock is a monotonic logical clock.
//
// Every observed engine event is stamped with the next seq from the clock,
// so a trace is ordered by causality rather than wall time and replays of
// the same steps produce identical seq numbers.
//
// Clock is safe for concurrent use, though the engine only ever calls it
// from the loop goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next seq is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued seq without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
