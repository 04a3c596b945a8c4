package stabilizer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stabilizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.AutoCleanup)
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, 10, cfg.TrendWindowSeconds)
	assert.Equal(t, 4096, cfg.FallbackAvailableMB)
	assert.True(t, cfg.CompactOnDeep)
	assert.False(t, cfg.TrimResidentAfterCleanup)

	p := cfg.Policy
	assert.Equal(t, 70, p.SoftPercent)
	assert.Equal(t, 85, p.HardPercent)
	assert.Equal(t, 95, p.EmergencyPercent)
	assert.Equal(t, 5, p.HysteresisPercent)
	assert.Equal(t, 3, p.SustainSeconds)
	assert.Equal(t, 2*time.Minute, p.LightCooldown())
	assert.Equal(t, 10*time.Minute, p.DeepCooldown())
	assert.Equal(t, cfg, cfg.Sanitize(), "defaults are already in range")
}

func TestPolicy_Cooldown(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, p.LightCooldown(), p.Cooldown(TierLight))
	assert.Equal(t, p.DeepCooldown(), p.Cooldown(TierDeep))
	assert.Equal(t, time.Duration(0), p.Cooldown(TierNone))
}

func TestConfig_Sanitize_Clamps(t *testing.T) {
	cfg := Config{
		TickIntervalSeconds: 0,
		TrendWindowSeconds:  1000,
		FallbackAvailableMB: 1,
		Policy: Policy{
			SoftPercent:          -5,
			HardPercent:          150,
			EmergencyPercent:     100,
			HysteresisPercent:    90,
			SustainSeconds:       -1,
			LightCooldownSeconds: 0,
			DeepCooldownSeconds:  1 << 20,
		},
	}

	got := cfg.Sanitize()

	assert.Equal(t, 1, got.TickIntervalSeconds)
	assert.Equal(t, MaxTrendWindowSeconds, got.TrendWindowSeconds)
	assert.Equal(t, MinFallbackAvailableMB, got.FallbackAvailableMB)
	assert.Equal(t, 0, got.Policy.SoftPercent)
	assert.Equal(t, 100, got.Policy.HardPercent)
	assert.Equal(t, 100, got.Policy.EmergencyPercent)
	assert.Equal(t, MaxHysteresisPercent, got.Policy.HysteresisPercent)
	assert.Equal(t, 0, got.Policy.SustainSeconds)
	assert.Equal(t, MinLightCooldownSeconds, got.Policy.LightCooldownSeconds)
	assert.Equal(t, MaxDeepCooldownSeconds, got.Policy.DeepCooldownSeconds)
}

func TestParseConfig_PartialKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
auto_cleanup: false
trend_window_seconds: 20
policy:
  soft_percent: 60
  deep_only_when_safe: false
`))
	require.NoError(t, err)

	want := DefaultConfig()
	want.AutoCleanup = false
	want.TrendWindowSeconds = 20
	want.Policy.SoftPercent = 60
	want.Policy.DeepOnlyWhenSafe = false
	assert.Equal(t, want, cfg)
}

func TestParseConfig_EmptyDocument(t *testing.T) {
	for _, doc := range []string{"", "# nothing here\n"} {
		cfg, err := ParseConfig([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	}
}

func TestParseConfig_OutOfRangeIsClamped(t *testing.T) {
	cfg, err := ParseConfig([]byte("policy:\n  hysteresis_percent: 40\n  light_cooldown_seconds: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, MaxHysteresisPercent, cfg.Policy.HysteresisPercent)
	assert.Equal(t, MinLightCooldownSeconds, cfg.Policy.LightCooldownSeconds)
}

func TestParseConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown top-level key", doc: "enabeld: true\n"},
		{name: "unknown policy key", doc: "policy:\n  soft: 60\n"},
		{name: "wrong scalar type", doc: "policy:\n  soft_percent: high\n"},
		{name: "fractional integer", doc: "trend_window_seconds: 2.5\n"},
		{name: "policy not a mapping", doc: "policy: 3\n"},
		{name: "document not a mapping", doc: "- 1\n- 2\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.doc))
			require.Error(t, err)
			var verr *ConfigValidationError
			assert.True(t, errors.As(err, &verr), "expected a schema error, got %v", err)
		})
	}
}

func TestParseConfig_MalformedYAML(t *testing.T) {
	_, err := ParseConfig([]byte("policy: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrimResidentAfterCleanup = true
	cfg.Policy.DeepCooldownSeconds = 900
	path := filepath.Join(t.TempDir(), "out.yaml")

	require.NoError(t, WriteConfig(path, cfg))
	got, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeTempConfig(t, "enabled: false\nfallback_available_memory_mb: 8192\n")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 8192, cfg.FallbackAvailableMB)
}
