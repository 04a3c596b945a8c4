package stabilizer

import "sync/atomic"

// SafeMomentFunc reports whether a disruptive (deep) action may run now.
type SafeMomentFunc func() bool

// AlwaysSafe treats every tick as a safe moment.
func AlwaysSafe() bool { return true }

// NeverSafe treats no tick as a safe moment; deep actions then run only on emergency.
func NeverSafe() bool { return false }

// SafeGate is a flag set by the host's liveness/idle detector and read by the
// controller every tick. It is the only controller input shared across goroutines.
type SafeGate struct {
	safe atomic.Bool
}

// NewSafeGate creates a gate in the given initial state.
func NewSafeGate(safe bool) *SafeGate {
	g := &SafeGate{}
	g.safe.Store(safe)
	return g
}

// Set marks the current moment as safe or unsafe.
func (g *SafeGate) Set(safe bool) {
	g.safe.Store(safe)
}

// Toggle flips the gate and returns the new state.
func (g *SafeGate) Toggle() bool {
	for {
		old := g.safe.Load()
		if g.safe.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// IsSafe reports the current state. Its method value satisfies SafeMomentFunc.
func (g *SafeGate) IsSafe() bool {
	return g.safe.Load()
}
