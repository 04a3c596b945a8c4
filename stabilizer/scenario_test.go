package stabilizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decisions(res ReplayResult) []Decision {
	out := make([]Decision, len(res.Ticks))
	for i, tick := range res.Ticks {
		out[i] = tick.Decision
	}
	return out
}

func TestReplayScenario_EndToEnd(t *testing.T) {
	tests := []struct {
		name      string
		steps     []ScenarioStep
		want      []Decision
		wantLight int
		wantDeep  int
	}{
		{
			name:      "soft crossing runs light",
			steps:     []ScenarioStep{{Pressure: 50}, {Pressure: 65}},
			want:      []Decision{{}, {TierLight, ReasonSoft}},
			wantLight: 1,
		},
		{
			name:     "emergency bypasses safety",
			steps:    []ScenarioStep{{Pressure: 97}},
			want:     []Decision{{TierDeep, ReasonEmergency}},
			wantDeep: 1,
		},
		{
			name:      "queued deep runs when safe",
			steps:     []ScenarioStep{{Pressure: 85}, {Pressure: 85, Safe: true}},
			want:      []Decision{{TierLight, ReasonWaitingForDeep}, {TierDeep, ReasonQueued}},
			wantLight: 1,
			wantDeep:  1,
		},
		{
			name:      "hysteresis drops the queue",
			steps:     []ScenarioStep{{Pressure: 85}, {Pressure: 50, Safe: true}},
			want:      []Decision{{TierLight, ReasonWaitingForDeep}, {}},
			wantLight: 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := ReplayScenario(Scenario{Name: tc.name, Steps: tc.steps}, testConfig())

			assert.Equal(t, tc.want, decisions(res))
			assert.Equal(t, tc.wantLight, res.Light)
			assert.Equal(t, tc.wantDeep, res.Deep)
			assert.Len(t, res.Trace.Decisions, len(tc.steps))
		})
	}
}

func TestReplayScenario_DefaultsHoldDeepUntilSafe(t *testing.T) {
	// GIVEN stock settings and five unsafe seconds at 90%
	sc := Scenario{Steps: []ScenarioStep{{Pressure: 90, Repeat: 5}}}

	// WHEN replayed even with the master switches off
	cfg := DefaultConfig()
	cfg.Enabled = false
	cfg.AutoCleanup = false
	res := ReplayScenario(sc, cfg)

	// THEN one light runs, later lights are held by the cooldown, and deep waits
	require.Len(t, res.Ticks, 5)
	assert.Equal(t, 1, res.Light)
	assert.Equal(t, 0, res.Deep)
	for i, tick := range res.Ticks {
		assert.Equal(t, Decision{TierLight, ReasonWaitingForDeep}, tick.Decision, "tick %d", i)
		assert.Equal(t, i > 0, tick.CooldownBlocked, "tick %d", i)
	}
	assert.True(t, res.Trace.Decisions[4].DeepQueued)
}

func TestScenario_Ticks(t *testing.T) {
	sc := Scenario{Steps: []ScenarioStep{{Repeat: 0}, {Repeat: 1}, {Repeat: 4}}}
	assert.Equal(t, 6, sc.Ticks())
}

func TestLoadScenario_YAML(t *testing.T) {
	path := writeScenarioFile(t, "spike.yaml", `
name: spike
steps:
  - {pressure: 50, repeat: 3}
  - {pressure: 90, safe: true}
`)

	sc, err := LoadScenario(path)

	require.NoError(t, err)
	assert.Equal(t, "spike", sc.Name)
	assert.Equal(t, []ScenarioStep{{Pressure: 50, Repeat: 3}, {Pressure: 90, Safe: true}}, sc.Steps)
	assert.Equal(t, 4, sc.Ticks())
}

func TestLoadScenario_CSV(t *testing.T) {
	path := writeScenarioFile(t, "ramp.csv", "pressure,safe\n50,false\n90,true\n85,\n")

	sc, err := LoadScenario(path)

	require.NoError(t, err)
	assert.Equal(t, "ramp", sc.Name)
	assert.Equal(t, []ScenarioStep{{Pressure: 50}, {Pressure: 90, Safe: true}, {Pressure: 85}}, sc.Steps)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name, file, content, wantErr string
	}{
		{"csv without header", "a.csv", "50,true\n", "header"},
		{"csv bad pressure", "b.csv", "pressure,safe\nhigh,true\n", "invalid pressure at row 1"},
		{"csv bad safe flag", "c.csv", "pressure,safe\n50,maybe\n", "invalid safe flag at row 1"},
		{"csv header only", "d.csv", "pressure,safe\n", "no rows"},
		{"yaml without steps", "e.yaml", "name: empty\n", "no steps"},
		{"yaml unknown key", "f.yaml", "name: x\nstep: []\n", "parsing scenario"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenarioFile(t, tc.file, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading scenario")
}
