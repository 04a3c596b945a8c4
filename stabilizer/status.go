package stabilizer

import (
	"fmt"
	"time"
)

// Status is a read-only view of the controller for consoles and overlays.
type Status struct {
	Snapshot    PressureSnapshot
	Summary     TrendSummary
	DeepQueued  bool
	LastLight   time.Time // zero when light never ran this session
	LastDeep    time.Time // zero when deep never ran this session
	Enabled     bool
	AutoCleanup bool
}

// Status captures a fresh snapshot without adding it to the trend.
func (c *Controller) Status() Status {
	lastLight, _ := c.planner.LastAction(TierLight)
	lastDeep, _ := c.planner.LastAction(TierDeep)
	return Status{
		Snapshot:    c.meter.Capture(),
		Summary:     c.trend.Summary(),
		DeepQueued:  c.planner.DeepQueued(),
		LastLight:   lastLight,
		LastDeep:    lastDeep,
		Enabled:     c.cfg.Enabled,
		AutoCleanup: c.cfg.AutoCleanup,
	}
}

// Line renders the one-line status used by the console and the status command.
func (s Status) Line() string {
	return FormatStatusLine(s.Snapshot, s.Summary)
}

// FormatStatusLine renders a snapshot and trend summary on one line, e.g.
//
//	Pressure: 72% | Avg(10s): 70% | Delta: +4% | Allocated: 812MB | Resident: 1024MB | Available: 4096MB
func FormatStatusLine(snap PressureSnapshot, summary TrendSummary) string {
	return fmt.Sprintf("Pressure: %d%% | Avg(%ds): %d%% | Delta: %s%% | Allocated: %dMB | Resident: %dMB | Available: %dMB",
		snap.PressurePercent, summary.WindowSeconds, summary.Average, FormatDelta(summary.Delta),
		BytesToMB(snap.AllocatedBytes), BytesToMB(snap.ResidentBytes), BytesToMB(snap.AvailableBytes))
}

// FormatDelta renders a trend delta with an explicit sign.
func FormatDelta(delta int) string {
	if delta >= 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}
