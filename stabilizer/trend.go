package stabilizer

import (
	"math"
	"time"
)

const (
	// DefaultTrendWindowSeconds is the trend window used until Configure is called.
	DefaultTrendWindowSeconds = 10
	MinTrendWindowSeconds     = 3
	MaxTrendWindowSeconds     = 60
)

// TrendSummary is derived from the samples currently in the window.
type TrendSummary struct {
	Average       int // mean of windowed samples, 0 when empty
	Delta         int // newest minus oldest sample, 0 when empty
	WindowSeconds int
}

type sample struct {
	at      time.Time
	percent int
}

// PressureTrend is a time-bounded FIFO of pressure samples.
// It never holds samples older than the configured window.
type PressureTrend struct {
	clock         Clock
	samples       []sample
	windowSeconds int
}

// NewPressureTrend creates a trend reading time from clock.
// windowSeconds is clamped to [MinTrendWindowSeconds, MaxTrendWindowSeconds].
func NewPressureTrend(clock Clock, windowSeconds int) *PressureTrend {
	t := &PressureTrend{clock: clock}
	t.Configure(windowSeconds)
	return t
}

// Configure sets the window length and evicts samples that fall outside it.
func (t *PressureTrend) Configure(windowSeconds int) {
	t.windowSeconds = clampInt(windowSeconds, MinTrendWindowSeconds, MaxTrendWindowSeconds)
	t.trim()
}

// WindowSeconds returns the effective (clamped) window length.
func (t *PressureTrend) WindowSeconds() int {
	return t.windowSeconds
}

// Len returns the number of samples currently held.
func (t *PressureTrend) Len() int {
	return len(t.samples)
}

// Clear drops every sample.
func (t *PressureTrend) Clear() {
	t.samples = nil
}

// AddSample records percent (clamped to [0, 100]) at the current clock time.
// The driver calls this once per tick.
func (t *PressureTrend) AddSample(percent int) {
	t.samples = append(t.samples, sample{at: t.clock.Now(), percent: clampPercent(percent)})
	t.trim()
}

// Summary evicts stale samples and returns the average and delta of the rest.
func (t *PressureTrend) Summary() TrendSummary {
	t.trim()
	if len(t.samples) == 0 {
		return TrendSummary{WindowSeconds: t.windowSeconds}
	}

	sum := 0
	for _, s := range t.samples {
		sum += s.percent
	}
	oldest := t.samples[0]
	newest := t.samples[len(t.samples)-1]

	return TrendSummary{
		Average:       int(math.Round(float64(sum) / float64(len(t.samples)))),
		Delta:         newest.percent - oldest.percent,
		WindowSeconds: t.windowSeconds,
	}
}

// IsSustainedAbove reports whether every sample from the last sustainSeconds
// is at or above threshold. No sustain requirement (sustainSeconds <= 0) is
// trivially satisfied; an empty lookback is not.
func (t *PressureTrend) IsSustainedAbove(threshold, sustainSeconds int) bool {
	threshold = clampPercent(threshold)
	if sustainSeconds <= 0 {
		return true
	}

	cutoff := t.clock.Now().Add(-time.Duration(sustainSeconds) * time.Second)
	seen := false
	for _, s := range t.samples {
		if s.at.Before(cutoff) {
			continue
		}
		seen = true
		if s.percent < threshold {
			return false
		}
	}
	return seen
}

// trim evicts samples strictly older than now - window.
func (t *PressureTrend) trim() {
	if len(t.samples) == 0 {
		return
	}
	cutoff := t.clock.Now().Add(-time.Duration(t.windowSeconds) * time.Second)
	i := 0
	for i < len(t.samples) && t.samples[i].at.Before(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	// Copy down so the backing array does not grow without bound.
	n := copy(t.samples, t.samples[i:])
	t.samples = t.samples[:n]
}
