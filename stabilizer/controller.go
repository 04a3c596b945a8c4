package stabilizer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/stabilizer/stabilizer/trace"
)

var (
	// ErrNotRunning is returned by Do when Run has not been started.
	ErrNotRunning = errors.New("controller loop is not running")
	// ErrStopped is returned by Do once Run has returned.
	ErrStopped = errors.New("controller loop has stopped")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("controller loop is already running")
)

// SkipReason explains why a tick did not reach the planner.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipDisabled       SkipReason = "disabled"
	SkipAutoCleanupOff SkipReason = "auto_cleanup_off"
	SkipNotSustained   SkipReason = "not_sustained"
)

// TickResult is everything one tick observed and did.
type TickResult struct {
	Snapshot   PressureSnapshot
	Summary    TrendSummary
	SafeMoment bool
	Skipped    SkipReason
	Decision   Decision
	Report     *CleanupReport // nil unless an action ran
	// CooldownBlocked is set when the planner asked for an action but its
	// tier was still cooling down.
	CooldownBlocked bool
}

// Options wires a Controller to its host.
type Options struct {
	Config     Config
	Telemetry  Telemetry
	Reclaimer  Reclaimer
	SafeMoment SafeMomentFunc         // nil means NeverSafe
	Clock      Clock                  // nil means SystemClock
	Trace      *trace.ControllerTrace // nil disables tracing
}

// Controller is the once-per-tick driver: capture, trend, plan, reclaim.
// All of its state belongs to one goroutine. Drive it either by calling Tick
// directly or by running Run and posting work through Do.
type Controller struct {
	cfg       Config
	clock     Clock
	meter     *PressureMeter
	trend     *PressureTrend
	planner   *CleanupPlanner
	reclaimer Reclaimer
	safe      SafeMomentFunc
	trace     *trace.ControllerTrace

	day      time.Time // calendar day of the last tick, zero before the first
	commands chan func(*Controller)
	started  atomic.Bool
	stopped  chan struct{}
}

// NewController builds a Controller. Panics if Telemetry or Reclaimer is nil.
func NewController(opts Options) *Controller {
	if opts.Telemetry == nil {
		panic("stabilizer.NewController: nil Telemetry")
	}
	if opts.Reclaimer == nil {
		panic("stabilizer.NewController: nil Reclaimer")
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	safe := opts.SafeMoment
	if safe == nil {
		safe = NeverSafe
	}
	cfg := opts.Config.Sanitize()

	return &Controller{
		cfg:       cfg,
		clock:     clock,
		meter:     NewPressureMeter(opts.Telemetry, cfg.FallbackAvailableMB),
		trend:     NewPressureTrend(clock, cfg.TrendWindowSeconds),
		planner:   NewCleanupPlanner(clock),
		reclaimer: opts.Reclaimer,
		safe:      safe,
		trace:     opts.Trace,
		commands:  make(chan func(*Controller)),
		stopped:   make(chan struct{}),
	}
}

// Config returns the active (sanitized) configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// ApplyConfig swaps in a new configuration. The trend window is re-trimmed
// immediately; cooldown history and the deep queue are kept.
func (c *Controller) ApplyConfig(cfg Config) {
	c.cfg = cfg.Sanitize()
	c.trend.Configure(c.cfg.TrendWindowSeconds)
	c.meter.SetFallbackMB(c.cfg.FallbackAvailableMB)
}

// DeepQueued reports whether a deep action is waiting for a safe moment.
func (c *Controller) DeepQueued() bool {
	return c.planner.DeepQueued()
}

// ResetForNewSession clears cooldowns, the deep queue and the trend.
// Call it when the monitored workload is reloaded.
func (c *Controller) ResetForNewSession() {
	c.planner.ResetForNewSession()
	c.trend.Clear()
}

// ResetForNewDay clears the deep queue and the trend, keeping cooldowns.
func (c *Controller) ResetForNewDay() {
	c.planner.ResetForNewDay()
	c.trend.Clear()
}

// Tick runs one control step.
func (c *Controller) Tick() TickResult {
	if !c.cfg.Enabled {
		return TickResult{Skipped: SkipDisabled}
	}
	c.checkDayBoundary()

	snap := c.meter.Capture()
	c.trend.AddSample(snap.PressurePercent)
	res := TickResult{
		Snapshot: snap,
		Summary:  c.trend.Summary(),
	}

	if !c.cfg.AutoCleanup {
		res.Skipped = SkipAutoCleanupOff
		c.recordDecision(res)
		return res
	}

	res.SafeMoment = c.safe()
	policy := c.cfg.Policy

	// Single-tick spikes never reach the planner.
	if policy.SustainSeconds > 0 && !c.trend.IsSustainedAbove(policy.SoftPercent, policy.SustainSeconds) {
		res.Skipped = SkipNotSustained
		logrus.Tracef("[stabilizer] pressure %d%% not sustained above %d%% for %ds",
			snap.PressurePercent, policy.SoftPercent, policy.SustainSeconds)
		c.recordDecision(res)
		return res
	}

	res.Decision = c.planner.Evaluate(snap, res.Summary, policy, res.SafeMoment)
	if !res.Decision.IsNone() {
		if report, ok := c.execute(res.Decision.Tier, res.Decision.Reason, false, snap); ok {
			res.Report = &report
		} else {
			res.CooldownBlocked = true
		}
	}
	c.recordDecision(res)
	return res
}

// RunLight runs a light reclamation on demand, subject to the light cooldown.
// An empty reason defaults to ReasonManualLight.
func (c *Controller) RunLight(reason Reason) (CleanupReport, bool) {
	if reason == "" {
		reason = ReasonManualLight
	}
	return c.execute(TierLight, reason, true, c.meter.Capture())
}

// RunDeep runs a deep reclamation on demand, subject to the deep cooldown.
// An empty reason defaults to ReasonManualDeep.
func (c *Controller) RunDeep(reason Reason) (CleanupReport, bool) {
	if reason == "" {
		reason = ReasonManualDeep
	}
	return c.execute(TierDeep, reason, true, c.meter.Capture())
}

// execute consumes the tier's cooldown and, only if that succeeds, runs the
// action. Cooldown consumption and execution never happen one without the other.
func (c *Controller) execute(tier Tier, reason Reason, manual bool, before PressureSnapshot) (CleanupReport, bool) {
	if !c.planner.TryConsumeCooldown(tier, c.cfg.Policy) {
		logrus.Debugf("[stabilizer] %s cleanup (%s) skipped: cooldown active", tier, reason)
		c.trace.RecordCleanup(trace.CleanupRecord{
			At:              c.clock.Now(),
			Tier:            tier.String(),
			Reason:          string(reason),
			Manual:          manual,
			AllocatedBefore: before.AllocatedBytes,
			ResidentBefore:  before.ResidentBytes,
		})
		return CleanupReport{}, false
	}

	start := c.clock.Now()
	switch tier {
	case TierLight:
		c.reclaimer.ReclaimLight()
	case TierDeep:
		c.reclaimer.ReclaimDeep(c.cfg.CompactOnDeep)
	default:
		panic(fmt.Sprintf("stabilizer: cannot execute tier %s", tier))
	}
	trimmed := false
	if c.cfg.TrimResidentAfterCleanup {
		trimmed = c.reclaimer.TrimResident()
	}
	after := c.meter.Capture()

	report := CleanupReport{
		Tier:    tier,
		Reason:  reason,
		Manual:  manual,
		Before:  before,
		After:   after,
		Trimmed: trimmed,
		Took:    c.clock.Now().Sub(start),
	}
	logCleanup(report)
	c.trace.RecordCleanup(trace.CleanupRecord{
		At:              start,
		Tier:            tier.String(),
		Reason:          string(reason),
		Manual:          manual,
		Executed:        true,
		AllocatedBefore: before.AllocatedBytes,
		AllocatedAfter:  after.AllocatedBytes,
		ResidentBefore:  before.ResidentBytes,
		ResidentAfter:   after.ResidentBytes,
		Took:            report.Took,
	})
	return report, true
}

func logCleanup(r CleanupReport) {
	logrus.WithFields(logrus.Fields{
		"tier":    r.Tier.String(),
		"reason":  string(r.Reason),
		"manual":  r.Manual,
		"trimmed": r.Trimmed,
		"took":    r.Took,
	}).Infof("[stabilizer] %s cleanup: allocated %dMB -> %dMB, resident %dMB -> %dMB",
		r.Tier,
		BytesToMB(r.Before.AllocatedBytes), BytesToMB(r.After.AllocatedBytes),
		BytesToMB(r.Before.ResidentBytes), BytesToMB(r.After.ResidentBytes))
}

// checkDayBoundary applies ResetForNewDay when the clock crosses midnight
// (in the clock's location) between two ticks.
func (c *Controller) checkDayBoundary() {
	now := c.clock.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !c.day.IsZero() && !day.Equal(c.day) {
		logrus.Debugf("[stabilizer] new day %s: clearing deep queue and trend", day.Format("2006-01-02"))
		c.ResetForNewDay()
	}
	c.day = day
}

func (c *Controller) recordDecision(res TickResult) {
	if c.trace == nil {
		return
	}
	c.trace.RecordDecision(trace.DecisionRecord{
		At:         c.clock.Now(),
		Pressure:   res.Snapshot.PressurePercent,
		Average:    res.Summary.Average,
		Delta:      res.Summary.Delta,
		SafeMoment: res.SafeMoment,
		Evaluated:  res.Skipped == SkipNone,
		SkipReason: string(res.Skipped),
		Tier:       res.Decision.Tier.String(),
		Reason:     string(res.Decision.Reason),
		DeepQueued: c.planner.DeepQueued(),
	})
}

// Run ticks every Config.TickInterval until ctx is done, executing closures
// posted through Do between ticks. It may be called once per Controller.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.stopped)

	interval := c.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.Infof("[stabilizer] controller started: tick=%s soft=%d%% hard=%d%% emergency=%d%%",
		interval, c.cfg.Policy.SoftPercent, c.cfg.Policy.HardPercent, c.cfg.Policy.EmergencyPercent)

	for {
		select {
		case <-ctx.Done():
			logrus.Info("[stabilizer] controller stopped")
			return ctx.Err()
		case <-ticker.C:
			c.Tick()
		case fn := <-c.commands:
			fn(c)
			if next := c.cfg.TickInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// Do runs fn on the Run goroutine and waits for it to finish. Manual cleanups,
// status queries and resets from other goroutines must go through Do so they
// share cooldown state safely with the periodic loop.
func (c *Controller) Do(ctx context.Context, fn func(*Controller)) error {
	if !c.started.Load() {
		return ErrNotRunning
	}
	done := make(chan struct{})
	wrapped := func(ctrl *Controller) {
		defer close(done)
		fn(ctrl)
	}

	select {
	case c.commands <- wrapped:
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
