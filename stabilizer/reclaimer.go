package stabilizer

import "time"

// Reclaimer performs the host-side reclamation actions. The controller only
// decides when and which tier; how memory is reclaimed is up to the host.
// Deep must be more thorough, and more disruptive, than light.
type Reclaimer interface {
	// ReclaimLight runs a low-latency collection pass.
	ReclaimLight()
	// ReclaimDeep runs a full collection. compact asks the host to also
	// release freed memory back to the operating system.
	ReclaimDeep(compact bool)
	// TrimResident asks the host to shrink the resident set. Returns false
	// when the platform does not support it or the attempt failed.
	TrimResident() bool
}

// CleanupReport describes one executed reclamation action.
type CleanupReport struct {
	Tier    Tier
	Reason  Reason
	Manual  bool
	Before  PressureSnapshot
	After   PressureSnapshot
	Trimmed bool
	Took    time.Duration
}
