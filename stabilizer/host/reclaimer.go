package host

import (
	"runtime"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/stabilizer/stabilizer"
)

// RuntimeReclaimer maps reclamation tiers onto the Go runtime.
//
// Light runs one collection cycle; the runtime marks concurrently, so other
// goroutines keep running. Deep runs two back-to-back cycles so objects freed
// by finalizers in the first are swept by the second, and with compact set it
// also returns freed spans to the operating system.
type RuntimeReclaimer struct{}

// NewRuntimeReclaimer creates a RuntimeReclaimer.
func NewRuntimeReclaimer() *RuntimeReclaimer {
	return &RuntimeReclaimer{}
}

// ReclaimLight runs a single garbage collection.
func (r *RuntimeReclaimer) ReclaimLight() {
	runtime.GC()
}

// ReclaimDeep runs a full collection, optionally scavenging to the OS.
func (r *RuntimeReclaimer) ReclaimDeep(compact bool) {
	runtime.GC()
	runtime.GC()
	if compact {
		debug.FreeOSMemory()
	}
	logrus.Debugf("[host] deep reclamation finished (compact=%v)", compact)
}

// TrimResident forces the runtime to return as much memory to the OS as it can.
func (r *RuntimeReclaimer) TrimResident() bool {
	debug.FreeOSMemory()
	return true
}

var _ stabilizer.Reclaimer = (*RuntimeReclaimer)(nil)
