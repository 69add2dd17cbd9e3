package engine

import "time"

// Clock supplies the reference date used to classify lot expiry. The
// allocator reads it once per call so a lot cannot be judged expired by
// one comparison and fresh by another within the same allocation.
type Clock interface {
	Today() time.Time
}

// SystemClock returns the current UTC calendar date.
type SystemClock struct{}

// Today returns the current date truncated to UTC midnight.
func (SystemClock) Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// FixedClock always reports the same date. Intended for tests and for
// replaying historical allocations.
type FixedClock struct {
	Date time.Time
}

// Today returns the pinned date truncated to UTC midnight.
func (c FixedClock) Today() time.Time {
	return time.Date(c.Date.Year(), c.Date.Month(), c.Date.Day(), 0, 0, 0, 0, time.UTC)
}
