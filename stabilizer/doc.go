// Package stabilizer provides an adaptive memory-pressure controller for a
// running process.
//
// # Reading Guide
//
// Start with these files to understand the control loop:
//   - meter.go: point-in-time PressureSnapshot from host telemetry
//   - trend.go: sliding window of pressure samples (average, delta, sustain)
//   - planner.go: CleanupPlanner, the decision policy and per-tier cooldowns
//   - controller.go: the once-per-tick driver that ties the three together
//
// # Architecture
//
// The stabilizer package defines interfaces and the control policy; host
// implementations live in sub-packages:
//   - stabilizer/host/: Go runtime telemetry and reclamation (runtime/debug, gopsutil)
//   - stabilizer/trace/: decision trace recording
//
// # Key Interfaces
//
//   - Telemetry: allocated, resident and available byte counts
//   - Reclaimer: light and deep reclamation actions
//   - Clock: time source for trend windows and cooldowns
//
// All controller state is owned by a single goroutine. Callers that share a
// Controller with a running loop must go through Controller.Do.
package stabilizer
