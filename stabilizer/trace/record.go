// Package trace provides decision-trace recording for controller analysis.
// It does not import stabilizer/; records hold plain values only.
package trace

import "time"

// DecisionRecord captures one controller tick.
type DecisionRecord struct {
	At         time.Time
	Pressure   int // instantaneous percent
	Average    int // trend average percent
	Delta      int // trend newest - oldest
	SafeMoment bool
	Evaluated  bool   // false when the tick was skipped before the planner
	SkipReason string // why the planner was not consulted (empty when Evaluated)
	Tier       string // "none", "light", "deep"
	Reason     string
	DeepQueued bool // planner queue state after the decision
}

// CleanupRecord captures one attempt to run a reclamation action.
type CleanupRecord struct {
	At              time.Time
	Tier            string
	Reason          string
	Manual          bool
	Executed        bool // false when the cooldown refused the attempt
	AllocatedBefore uint64
	AllocatedAfter  uint64
	ResidentBefore  uint64
	ResidentAfter   uint64
	Took            time.Duration
}

// AllocatedFreed returns how many allocated bytes the action released, or 0.
func (r CleanupRecord) AllocatedFreed() uint64 {
	if r.AllocatedAfter >= r.AllocatedBefore {
		return 0
	}
	return r.AllocatedBefore - r.AllocatedAfter
}
