package services

import "time"

// Clock supplies the authoritative server time for all gating decisions.
// Client-supplied timestamps are never consulted.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// fixedClock returns a constant time; used by tests
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}
