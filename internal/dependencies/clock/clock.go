package clock

import "time"

// Precision is the finest time resolution every storage backend round-trips.
// PostgreSQL timestamptz stops at microseconds.
const Precision = time.Microsecond

// Clock supplies the times stores stamp into audit fields
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time in UTC, truncated to Precision so a stamped
// value reads back unchanged from any backend
func (c *RealClock) Now() time.Time {
	return time.Now().UTC().Truncate(Precision)
}
