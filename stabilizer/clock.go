package stabilizer

import "time"

// Clock supplies the current time to the trend window and the planner cooldowns.
// Implementations must be monotonically non-decreasing.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. time.Now carries a monotonic reading, so
// durations computed between two SystemClock times are immune to wall-clock jumps.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a Clock that only moves when told to.
// Used by tests and by scenario replay.
type ManualClock struct {
	now time.Time
}

// NewManualClock creates a ManualClock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the current manual time.
func (m *ManualClock) Now() time.Time {
	return m.now
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (m *ManualClock) Advance(d time.Duration) {
	if d > 0 {
		m.now = m.now.Add(d)
	}
}

// Set moves the clock to t if t is not before the current time.
func (m *ManualClock) Set(t time.Time) {
	if t.After(m.now) {
		m.now = t
	}
}

var (
	_ Clock = SystemClock{}
	_ Clock = (*ManualClock)(nil)
)
