package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/stabilizer/stabilizer"
)

func TestLoadConfig_DefaultsWithoutFlag(t *testing.T) {
	old := configPath
	configPath = ""
	t.Cleanup(func() { configPath = old })

	assert.Equal(t, stabilizer.DefaultConfig(), loadConfig())
}

func TestLoadConfig_FromFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stabilizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trim_resident_after_cleanup: true\n"), 0o644))
	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })

	cfg := loadConfig()

	assert.True(t, cfg.TrimResidentAfterCleanup)
	assert.Equal(t, 70, cfg.Policy.SoftPercent)
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	want := []string{"run", "status", "clean", "fullclean", "simulate", "console", "watch", "config"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestFormatCleanResult(t *testing.T) {
	report := stabilizer.CleanupReport{
		Tier:   stabilizer.TierDeep,
		Reason: stabilizer.ReasonManualDeep,
		Before: stabilizer.PressureSnapshot{AllocatedBytes: 800 * testMB, ResidentBytes: 900 * testMB, PressurePercent: 88},
		After:  stabilizer.PressureSnapshot{AllocatedBytes: 300 * testMB, ResidentBytes: 850 * testMB, PressurePercent: 83},
		Took:   1500 * time.Microsecond,
	}

	assert.Equal(t,
		"deep cleanup (manual_deep) in 1.5ms: allocated 800MB -> 300MB, resident 900MB -> 850MB, pressure 88% -> 83%",
		formatCleanResult(stabilizer.TierDeep, report, true))
	assert.Equal(t, "light cleanup skipped: cooldown active",
		formatCleanResult(stabilizer.TierLight, stabilizer.CleanupReport{}, false))
}

func TestWriteStatus(t *testing.T) {
	st := stabilizer.Status{
		Snapshot:   stabilizer.PressureSnapshot{AllocatedBytes: 50 * testMB, AvailableBytes: 100 * testMB, PressurePercent: 50},
		Summary:    stabilizer.TrendSummary{Average: 48, Delta: 4, WindowSeconds: 10},
		DeepQueued: true,
		LastLight:  time.Date(2025, 3, 1, 9, 15, 30, 0, time.UTC),
	}
	var buf bytes.Buffer

	writeStatus(&buf, st)

	assert.Equal(t,
		"Pressure: 50% | Avg(10s): 48% | Delta: +4% | Allocated: 50MB | Resident: 0MB | Available: 100MB\n"+
			"Deep queued: true | Last light: 09:15:30 | Last deep: never\n",
		buf.String())
}

func TestDescribeConfig(t *testing.T) {
	out := describeConfig(stabilizer.DefaultConfig())

	assert.Contains(t, out, "thresholds: soft 70% / hard 85% / emergency 95% (hysteresis 5%, sustain 3s)")
	assert.Contains(t, out, "cooldowns: light 2m0s / deep 10m0s")
	assert.Contains(t, out, "tick: 1s")
}

func TestConfigInit_WritesLoadableDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	old := configOutPath
	configOutPath = path
	t.Cleanup(func() { configOutPath = old })

	configInitCmd.Run(configInitCmd, nil)

	cfg, err := stabilizer.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, stabilizer.DefaultConfig(), cfg)
}
