// Package testutil provides shared test fixtures.
package testutil

import "time"

// FixedClock returns a clock function pinned to the given instant.
//
// Components that stamp wall time accept a now func for exactly this
// override, so tests get byte-stable timestamps and date ranges.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TickingClock returns a clock function that advances by step on every
// call, starting at the given instant. Useful when a test needs distinct
// but still deterministic timestamps, e.g. ordering attendance records.
func TickingClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(step)
		return t
	}
}
