// Package testutil provides shared test infrastructure for the stabilizer.
// It consolidates fake host implementations used across stabilizer/ and its
// sub-package tests.
package testutil

const mb = 1024 * 1024

// FakeTelemetry is a settable Telemetry. Zero Available means "cannot report".
type FakeTelemetry struct {
	Allocated uint64
	Resident  uint64
	Available uint64
}

// NewPercentTelemetry returns telemetry whose pressure is exactly percent of a 100 MB budget.
func NewPercentTelemetry(percent int) *FakeTelemetry {
	t := &FakeTelemetry{Available: 100 * mb}
	t.SetPercent(percent)
	return t
}

// SetPercent sets Allocated to percent of Available and clears Resident.
func (f *FakeTelemetry) SetPercent(percent int) {
	if percent < 0 {
		percent = 0
	}
	f.Allocated = f.Available / 100 * uint64(percent)
	f.Resident = 0
}

func (f *FakeTelemetry) AllocatedBytes() uint64 { return f.Allocated }

func (f *FakeTelemetry) ResidentBytes() uint64 { return f.Resident }

func (f *FakeTelemetry) AvailableBytes() (uint64, bool) {
	return f.Available, f.Available > 0
}

// RecordingReclaimer counts calls and optionally applies an effect to the telemetry.
type RecordingReclaimer struct {
	Light    int
	Deep     int
	Trims    int
	Compacts int
	// OnReclaim, if set, runs after every light or deep call.
	OnReclaim func(deep bool)
	// TrimResult is returned by TrimResident.
	TrimResult bool
}

func (r *RecordingReclaimer) ReclaimLight() {
	r.Light++
	if r.OnReclaim != nil {
		r.OnReclaim(false)
	}
}

func (r *RecordingReclaimer) ReclaimDeep(compact bool) {
	r.Deep++
	if compact {
		r.Compacts++
	}
	if r.OnReclaim != nil {
		r.OnReclaim(true)
	}
}

func (r *RecordingReclaimer) TrimResident() bool {
	r.Trims++
	return r.TrimResult
}
