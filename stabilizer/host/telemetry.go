// Package host implements the stabilizer Telemetry and Reclaimer contracts
// for the current Go process.
package host

import (
	"math"
	"os"
	"runtime/debug"
	"runtime/metrics"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/stabilizer/stabilizer"
)

const (
	heapObjectsMetric = "/memory/classes/heap/objects:bytes"
	totalMappedMetric = "/memory/classes/total:bytes"
)

// RuntimeTelemetry reads memory figures for the running Go process.
//
// Allocated is the live-and-unswept heap object size from runtime/metrics,
// which does not stop the world. Resident is the process RSS from gopsutil,
// falling back to the runtime's total mapped memory when the OS query fails.
// Available is the soft memory limit when one is set (GOMEMLIMIT or
// debug.SetMemoryLimit), otherwise total physical memory.
type RuntimeTelemetry struct {
	proc *process.Process
}

// NewRuntimeTelemetry creates telemetry for the current process. A failure to
// open the process handle is logged and leaves resident readings on the fallback.
func NewRuntimeTelemetry() *RuntimeTelemetry {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logrus.Warnf("[host] cannot open process handle, resident size will use runtime totals: %v", err)
		proc = nil
	}
	return &RuntimeTelemetry{proc: proc}
}

// AllocatedBytes returns heap bytes occupied by objects.
func (t *RuntimeTelemetry) AllocatedBytes() uint64 {
	return readRuntimeMetric(heapObjectsMetric)
}

// ResidentBytes returns the process resident set size.
func (t *RuntimeTelemetry) ResidentBytes() uint64 {
	if t.proc != nil {
		info, err := t.proc.MemoryInfo()
		if err == nil && info != nil && info.RSS > 0 {
			return info.RSS
		}
		logrus.Debugf("[host] RSS query failed, using runtime total: %v", err)
	}
	return readRuntimeMetric(totalMappedMetric)
}

// AvailableBytes returns the memory budget; ok is false when neither a soft
// limit nor the physical memory size can be determined.
func (t *RuntimeTelemetry) AvailableBytes() (uint64, bool) {
	// A negative argument reads the limit without changing it.
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
		return uint64(limit), true
	}
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil || vm.Total == 0 {
		logrus.Debugf("[host] physical memory query failed: %v", err)
		return 0, false
	}
	return vm.Total, true
}

func readRuntimeMetric(name string) uint64 {
	samples := []metrics.Sample{{Name: name}}
	metrics.Read(samples)
	if samples[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return samples[0].Value.Uint64()
}

var _ stabilizer.Telemetry = (*RuntimeTelemetry)(nil)
