package trace

// TraceSummary aggregates statistics from a ControllerTrace.
type TraceSummary struct {
	TotalTicks         int            `json:"total_ticks"`
	EvaluatedTicks     int            `json:"evaluated_ticks"`
	SkippedTicks       int            `json:"skipped_ticks"`
	MeanPressure       float64        `json:"mean_pressure_percent"`
	MaxPressure        int            `json:"max_pressure_percent"`
	LightRuns          int            `json:"light_runs"`
	DeepRuns           int            `json:"deep_runs"`
	CooldownRefusals   int            `json:"cooldown_refusals"`
	AllocatedFreed     uint64         `json:"allocated_freed_bytes"`
	ReasonDistribution map[string]int `json:"reason_distribution"` // reason → count of executed cleanups
}

// Summarize computes aggregate statistics from a ControllerTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(ct *ControllerTrace) *TraceSummary {
	summary := &TraceSummary{
		ReasonDistribution: make(map[string]int),
	}
	if ct == nil {
		return summary
	}

	summary.TotalTicks = len(ct.Decisions)
	if len(ct.Decisions) > 0 {
		total := 0
		for _, d := range ct.Decisions {
			if d.Evaluated {
				summary.EvaluatedTicks++
			} else {
				summary.SkippedTicks++
			}
			total += d.Pressure
			if d.Pressure > summary.MaxPressure {
				summary.MaxPressure = d.Pressure
			}
		}
		summary.MeanPressure = float64(total) / float64(len(ct.Decisions))
	}

	for _, c := range ct.Cleanups {
		if !c.Executed {
			summary.CooldownRefusals++
			continue
		}
		switch c.Tier {
		case "light":
			summary.LightRuns++
		case "deep":
			summary.DeepRuns++
		}
		summary.ReasonDistribution[c.Reason]++
		summary.AllocatedFreed += c.AllocatedFreed()
	}

	return summary
}
