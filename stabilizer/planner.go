package stabilizer

import (
	"fmt"
	"time"
)

// Tier identifies a reclamation strength.
type Tier int

const (
	TierNone Tier = iota
	TierLight
	TierDeep
)

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierLight:
		return "light"
	case TierDeep:
		return "deep"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Reason tags why a decision or a manual action was taken.
type Reason string

const (
	ReasonEmergency      Reason = "emergency"
	ReasonQueued         Reason = "queued"
	ReasonHard           Reason = "hard"
	ReasonWaitingForDeep Reason = "waiting_for_deep"
	ReasonSoft           Reason = "soft"
	ReasonManualLight    Reason = "manual_light"
	ReasonManualDeep     Reason = "manual_deep"
)

// Decision is the outcome of CleanupPlanner.Evaluate.
type Decision struct {
	Tier   Tier
	Reason Reason // empty for TierNone
}

// IsNone reports whether the decision asks for no action.
func (d Decision) IsNone() bool {
	return d.Tier == TierNone
}

func (d Decision) String() string {
	if d.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s(%s)", d.Tier, d.Reason)
}

func none() Decision { return Decision{Tier: TierNone} }

func light(reason Reason) Decision { return Decision{Tier: TierLight, Reason: reason} }

func deep(reason Reason) Decision { return Decision{Tier: TierDeep, Reason: reason} }

// CleanupPlanner decides when to reclaim and which tier, and gates execution
// through per-tier cooldowns.
//
// The interaction of its rules forms an implicit cycle:
// idle -> (hard but unsafe) queued -> (safe) deep run -> idle, with queued
// falling back to idle directly when pressure drops through the hysteresis band.
type CleanupPlanner struct {
	clock       Clock
	lastLightAt time.Time // zero = never
	lastDeepAt  time.Time // zero = never
	deepQueued  bool
}

// NewCleanupPlanner creates a planner with no cooldown history.
func NewCleanupPlanner(clock Clock) *CleanupPlanner {
	return &CleanupPlanner{clock: clock}
}

// DeepQueued reports whether a deep action is waiting for a safe moment.
func (p *CleanupPlanner) DeepQueued() bool {
	return p.deepQueued
}

// LastAction returns when the tier last consumed its cooldown.
func (p *CleanupPlanner) LastAction(tier Tier) (time.Time, bool) {
	switch tier {
	case TierLight:
		return p.lastLightAt, !p.lastLightAt.IsZero()
	case TierDeep:
		return p.lastDeepAt, !p.lastDeepAt.IsZero()
	default:
		return time.Time{}, false
	}
}

// ResetForNewSession clears both cooldowns and the queued flag.
func (p *CleanupPlanner) ResetForNewSession() {
	p.lastLightAt = time.Time{}
	p.lastDeepAt = time.Time{}
	p.deepQueued = false
}

// ResetForNewDay clears the queued flag and keeps cooldown history.
func (p *CleanupPlanner) ResetForNewDay() {
	p.deepQueued = false
}

// Evaluate returns the action for this tick. Rule order matters:
//  1. effective pressure is the trend average or the instantaneous reading
//  2. at or below soft - hysteresis: clear the queue, do nothing
//  3. instantaneous reading at emergency: deep, regardless of safety
//  4. queued deep and a safe moment: run it
//  5. hard: deep when allowed now, otherwise queue (and maybe run light meanwhile)
//  6. soft: light, which is always safe to run
//
// Callers gate on PressureTrend.IsSustainedAbove(soft, sustain) before calling.
func (p *CleanupPlanner) Evaluate(snapshot PressureSnapshot, trend TrendSummary, policy Policy, isSafeMoment bool) Decision {
	soft := clampPercent(policy.SoftPercent)
	hard := clampPercent(policy.HardPercent)
	emergency := clampPercent(policy.EmergencyPercent)

	effective := snapshot.PressurePercent
	if policy.UseTrendAverage {
		effective = trend.Average
	}

	if effective <= max(0, soft-policy.HysteresisPercent) {
		p.deepQueued = false
		return none()
	}

	// Smoothing must never delay an emergency, so this reads the raw value.
	if snapshot.PressurePercent >= emergency {
		p.deepQueued = false
		return deep(ReasonEmergency)
	}

	if p.deepQueued && isSafeMoment {
		p.deepQueued = false
		return deep(ReasonQueued)
	}

	if effective >= hard {
		if !policy.DeepOnlyWhenSafe || isSafeMoment {
			p.deepQueued = false
			return deep(ReasonHard)
		}
		p.deepQueued = true
		if policy.PreferLightWhileWaiting && effective >= soft {
			return light(ReasonWaitingForDeep)
		}
		return none()
	}

	if effective >= soft {
		return light(ReasonSoft)
	}
	return none()
}

// TryConsumeCooldown records now as the tier's last action and returns true,
// unless the tier already ran within its cooldown, in which case it returns
// false and records nothing. A true result obliges the caller to run the action.
func (p *CleanupPlanner) TryConsumeCooldown(tier Tier, policy Policy) bool {
	now := p.clock.Now()
	var last *time.Time
	switch tier {
	case TierLight:
		last = &p.lastLightAt
	case TierDeep:
		last = &p.lastDeepAt
	default:
		return true
	}

	if !last.IsZero() && now.Sub(*last) < policy.Cooldown(tier) {
		return false
	}
	*last = now
	return true
}
