package trace

import (
	"testing"
	"time"
)

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"", true},
		{"none", true},
		{"actions", true},
		{"decisions", true},
		{"verbose", false},
		{"Decisions", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.want {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestControllerTrace_LevelFiltersRecords(t *testing.T) {
	decision := DecisionRecord{At: time.Unix(0, 0), Pressure: 10, Tier: "none"}
	cleanup := CleanupRecord{At: time.Unix(0, 0), Tier: "light", Executed: true}

	tests := []struct {
		level         TraceLevel
		wantDecisions int
		wantCleanups  int
	}{
		{TraceLevelNone, 0, 0},
		{TraceLevelActions, 0, 1},
		{TraceLevelDecisions, 1, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			ct := NewControllerTrace(tt.level)
			ct.RecordDecision(decision)
			ct.RecordCleanup(cleanup)
			if len(ct.Decisions) != tt.wantDecisions {
				t.Errorf("expected %d decisions, got %d", tt.wantDecisions, len(ct.Decisions))
			}
			if len(ct.Cleanups) != tt.wantCleanups {
				t.Errorf("expected %d cleanups, got %d", tt.wantCleanups, len(ct.Cleanups))
			}
		})
	}
}

func TestControllerTrace_NilIsSafe(t *testing.T) {
	var ct *ControllerTrace
	ct.RecordDecision(DecisionRecord{})
	ct.RecordCleanup(CleanupRecord{})
	ct.Reset()
}

func TestControllerTrace_ResetKeepsLevel(t *testing.T) {
	ct := NewControllerTrace(TraceLevelDecisions)
	ct.RecordDecision(DecisionRecord{})
	ct.RecordCleanup(CleanupRecord{})
	ct.Reset()
	if len(ct.Decisions) != 0 || len(ct.Cleanups) != 0 {
		t.Error("expected empty trace after reset")
	}
	if ct.Level != TraceLevelDecisions {
		t.Errorf("expected level to survive reset, got %q", ct.Level)
	}
}
