package stabilizer

import (
	"fmt"
	"math"
)

// BytesPerMB is the megabyte used throughout reporting and the fallback budget.
const BytesPerMB uint64 = 1024 * 1024

// MinFallbackAvailableMB is the floor applied to the configured fallback budget.
const MinFallbackAvailableMB = 256

// Telemetry is the host-supplied view of process memory.
// AvailableBytes returns ok=false (or zero) when the host cannot report a budget.
type Telemetry interface {
	AllocatedBytes() uint64
	ResidentBytes() uint64
	AvailableBytes() (bytes uint64, ok bool)
}

// PressureSnapshot is a point-in-time reading of process memory.
// PressurePercent is always in [0, 100].
type PressureSnapshot struct {
	AllocatedBytes  uint64 // managed heap currently allocated
	ResidentBytes   uint64 // resident set size
	AvailableBytes  uint64 // budget the percentage is measured against (> 0)
	PressurePercent int
}

// String renders the snapshot in megabytes.
func (s PressureSnapshot) String() string {
	return fmt.Sprintf("pressure=%d%% allocated=%dMB resident=%dMB available=%dMB",
		s.PressurePercent, BytesToMB(s.AllocatedBytes), BytesToMB(s.ResidentBytes), BytesToMB(s.AvailableBytes))
}

// PressureMeter captures PressureSnapshots from a Telemetry source.
type PressureMeter struct {
	telemetry  Telemetry
	fallbackMB int
}

// NewPressureMeter creates a meter reading from t. fallbackMB is substituted
// for the available budget when t cannot report one; it is floored at
// MinFallbackAvailableMB so the percentage never divides by zero.
func NewPressureMeter(t Telemetry, fallbackMB int) *PressureMeter {
	return &PressureMeter{telemetry: t, fallbackMB: fallbackMB}
}

// SetFallbackMB replaces the fallback budget used when telemetry has none.
func (m *PressureMeter) SetFallbackMB(mb int) {
	m.fallbackMB = mb
}

// FallbackBytes returns the effective fallback budget in bytes.
func (m *PressureMeter) FallbackBytes() uint64 {
	return uint64(max(MinFallbackAvailableMB, m.fallbackMB)) * BytesPerMB
}

// Capture reads the telemetry and derives the pressure percentage.
func (m *PressureMeter) Capture() PressureSnapshot {
	allocated := m.telemetry.AllocatedBytes()
	resident := m.telemetry.ResidentBytes()
	available, ok := m.telemetry.AvailableBytes()
	if !ok || available == 0 {
		available = m.FallbackBytes()
	}
	return PressureSnapshot{
		AllocatedBytes:  allocated,
		ResidentBytes:   resident,
		AvailableBytes:  available,
		PressurePercent: ComputePressurePercent(allocated, resident, available),
	}
}

// ComputePressurePercent returns round(max(allocated, resident) / available * 100),
// rounding half away from zero and clamping to [0, 100]. Zero available yields 0.
func ComputePressurePercent(allocated, resident, available uint64) int {
	if available == 0 {
		return 0
	}
	pct := float64(max(allocated, resident)) / float64(available) * 100.0
	return clampPercent(int(math.Round(min(pct, 100))))
}

// BytesToMB converts a byte count to whole megabytes, truncating.
func BytesToMB(b uint64) uint64 {
	return b / BytesPerMB
}

func clampPercent(v int) int {
	return clampInt(v, 0, 100)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
