package stabilizer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/stabilizer/stabilizer/trace"
)

// ScenarioStep is one or more ticks at a fixed pressure.
type ScenarioStep struct {
	Pressure int  `yaml:"pressure"`
	Safe     bool `yaml:"safe"`
	Repeat   int  `yaml:"repeat"` // ticks to hold this step; 0 and 1 both mean once
}

// Scenario is a scripted pressure sequence for deterministic replay.
type Scenario struct {
	Name  string         `yaml:"name"`
	Steps []ScenarioStep `yaml:"steps"`
}

// Ticks returns the total tick count after expanding repeats.
func (s Scenario) Ticks() int {
	n := 0
	for _, st := range s.Steps {
		n += max(1, st.Repeat)
	}
	return n
}

// LoadScenario reads a scenario from a YAML file, or from a CSV file with a
// "pressure,safe" header when the extension is .csv.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		sc, err := parseScenarioCSV(data)
		if err != nil {
			return Scenario{}, err
		}
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return sc, nil
	}

	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, fmt.Errorf("parsing scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return Scenario{}, fmt.Errorf("scenario %s has no steps", path)
	}
	return sc, nil
}

func parseScenarioCSV(data []byte) (Scenario, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario csv header: %w", err)
	}
	if len(header) < 1 || strings.TrimSpace(header[0]) != "pressure" {
		return Scenario{}, fmt.Errorf("scenario csv header must start with \"pressure\", got %v", header)
	}

	var sc Scenario
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Scenario{}, fmt.Errorf("reading scenario csv at row %d: %w", row, err)
		}
		pressure, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return Scenario{}, fmt.Errorf("invalid pressure at row %d: %w", row, err)
		}
		step := ScenarioStep{Pressure: pressure}
		if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
			step.Safe, err = strconv.ParseBool(strings.TrimSpace(record[1]))
			if err != nil {
				return Scenario{}, fmt.Errorf("invalid safe flag at row %d: %w", row, err)
			}
		}
		sc.Steps = append(sc.Steps, step)
	}
	if len(sc.Steps) == 0 {
		return Scenario{}, errors.New("scenario csv has no rows")
	}
	return sc, nil
}

// scriptedTelemetry reports exactly the scripted pressure against a 100 MB budget.
type scriptedTelemetry struct {
	percent int
}

func (t *scriptedTelemetry) AllocatedBytes() uint64 {
	return uint64(clampPercent(t.percent)) * BytesPerMB
}

func (t *scriptedTelemetry) ResidentBytes() uint64 { return 0 }

func (t *scriptedTelemetry) AvailableBytes() (uint64, bool) {
	return 100 * BytesPerMB, true
}

// countingReclaimer only counts invocations; replayed pressure is scripted.
type countingReclaimer struct {
	light, deep, trims int
}

func (r *countingReclaimer) ReclaimLight() { r.light++ }

func (r *countingReclaimer) ReclaimDeep(_ bool) { r.deep++ }

func (r *countingReclaimer) TrimResident() bool {
	r.trims++
	return true
}

// ReplayStart is the manual-clock origin for scenario replay.
var ReplayStart = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// ReplayResult holds the per-tick outcome of a scenario replay.
type ReplayResult struct {
	Ticks []TickResult
	Trace *trace.ControllerTrace
	Light int // light actions executed
	Deep  int // deep actions executed
}

// ReplayScenario drives a fresh Controller through sc on a manual clock that
// advances one tick interval per tick. The trace records every decision.
func ReplayScenario(sc Scenario, cfg Config) ReplayResult {
	cfg.Enabled = true
	cfg.AutoCleanup = true

	clock := NewManualClock(ReplayStart)
	telemetry := &scriptedTelemetry{}
	reclaimer := &countingReclaimer{}
	gate := NewSafeGate(false)
	tr := trace.NewControllerTrace(trace.TraceLevelDecisions)

	ctrl := NewController(Options{
		Config:     cfg,
		Telemetry:  telemetry,
		Reclaimer:  reclaimer,
		SafeMoment: gate.IsSafe,
		Clock:      clock,
		Trace:      tr,
	})
	interval := ctrl.Config().TickInterval()

	result := ReplayResult{Trace: tr, Ticks: make([]TickResult, 0, sc.Ticks())}
	for _, step := range sc.Steps {
		for i := 0; i < max(1, step.Repeat); i++ {
			telemetry.percent = step.Pressure
			gate.Set(step.Safe)
			result.Ticks = append(result.Ticks, ctrl.Tick())
			clock.Advance(interval)
		}
	}
	result.Light = reclaimer.light
	result.Deep = reclaimer.deep
	return result
}
