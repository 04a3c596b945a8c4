package trace

// TraceLevel controls the verbosity of controller tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelActions captures cleanup attempts only.
	TraceLevelActions TraceLevel = "actions"
	// TraceLevelDecisions captures every tick's decision as well as cleanup attempts.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelActions:   true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// ControllerTrace collects records during a controller session.
// A nil *ControllerTrace is valid and records nothing.
type ControllerTrace struct {
	Level     TraceLevel
	Decisions []DecisionRecord
	Cleanups  []CleanupRecord
}

// NewControllerTrace creates a ControllerTrace ready for recording.
func NewControllerTrace(level TraceLevel) *ControllerTrace {
	return &ControllerTrace{
		Level:     level,
		Decisions: make([]DecisionRecord, 0),
		Cleanups:  make([]CleanupRecord, 0),
	}
}

// RecordDecision appends a tick decision record when the level asks for decisions.
func (ct *ControllerTrace) RecordDecision(record DecisionRecord) {
	if ct == nil || ct.Level != TraceLevelDecisions {
		return
	}
	ct.Decisions = append(ct.Decisions, record)
}

// RecordCleanup appends a cleanup attempt record unless tracing is off.
func (ct *ControllerTrace) RecordCleanup(record CleanupRecord) {
	if ct == nil || ct.Level == TraceLevelNone || ct.Level == "" {
		return
	}
	ct.Cleanups = append(ct.Cleanups, record)
}

// Reset drops all records, keeping the level.
func (ct *ControllerTrace) Reset() {
	if ct == nil {
		return
	}
	ct.Decisions = ct.Decisions[:0]
	ct.Cleanups = ct.Cleanups[:0]
}
