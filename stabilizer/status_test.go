package stabilizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatStatusLine(t *testing.T) {
	snap := PressureSnapshot{
		AllocatedBytes:  812 * BytesPerMB,
		ResidentBytes:   1024 * BytesPerMB,
		AvailableBytes:  4096 * BytesPerMB,
		PressurePercent: 25,
	}

	got := FormatStatusLine(snap, TrendSummary{Average: 24, Delta: -3, WindowSeconds: 10})

	assert.Equal(t,
		"Pressure: 25% | Avg(10s): 24% | Delta: -3% | Allocated: 812MB | Resident: 1024MB | Available: 4096MB",
		got)
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+0", FormatDelta(0))
	assert.Equal(t, "+7", FormatDelta(7))
	assert.Equal(t, "-12", FormatDelta(-12))
}

func TestSafeGate(t *testing.T) {
	g := NewSafeGate(false)
	assert.False(t, g.IsSafe())

	g.Set(true)
	assert.True(t, g.IsSafe())

	assert.False(t, g.Toggle())
	assert.False(t, g.IsSafe())
	assert.True(t, g.Toggle())

	var fn SafeMomentFunc = g.IsSafe
	assert.True(t, fn())
	assert.True(t, AlwaysSafe())
	assert.False(t, NeverSafe())
}

func TestManualClock_OnlyMovesForward(t *testing.T) {
	c := NewManualClock(testStart)

	c.Advance(-time.Second)
	assert.Equal(t, testStart, c.Now())

	c.Advance(time.Second)
	assert.Equal(t, testStart.Add(time.Second), c.Now())

	c.Set(testStart)
	assert.Equal(t, testStart.Add(time.Second), c.Now(), "Set never moves backwards")

	later := testStart.Add(time.Minute)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}
