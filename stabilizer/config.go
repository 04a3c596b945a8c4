package stabilizer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy holds the decision thresholds and cooldowns read by CleanupPlanner.
// Soft < hard < emergency by convention; the ordering is not enforced.
type Policy struct {
	SoftPercent             int  `yaml:"soft_percent"`
	HardPercent             int  `yaml:"hard_percent"`
	EmergencyPercent        int  `yaml:"emergency_percent"`
	HysteresisPercent       int  `yaml:"hysteresis_percent"`
	SustainSeconds          int  `yaml:"sustain_seconds"`
	UseTrendAverage         bool `yaml:"use_trend_average"`          // decide on the trend average instead of the instantaneous reading
	DeepOnlyWhenSafe        bool `yaml:"deep_only_when_safe"`        // defer hard-tier deep actions to safe moments
	PreferLightWhileWaiting bool `yaml:"prefer_light_while_waiting"` // run light actions while a deep action is queued
	LightCooldownSeconds    int  `yaml:"light_cooldown_seconds"`
	DeepCooldownSeconds     int  `yaml:"deep_cooldown_seconds"`
}

// LightCooldown returns the light-tier cooldown as a duration.
func (p Policy) LightCooldown() time.Duration {
	return time.Duration(p.LightCooldownSeconds) * time.Second
}

// DeepCooldown returns the deep-tier cooldown as a duration.
func (p Policy) DeepCooldown() time.Duration {
	return time.Duration(p.DeepCooldownSeconds) * time.Second
}

// Cooldown returns the cooldown for tier, or zero for TierNone.
func (p Policy) Cooldown(tier Tier) time.Duration {
	switch tier {
	case TierLight:
		return p.LightCooldown()
	case TierDeep:
		return p.DeepCooldown()
	default:
		return 0
	}
}

// Config is the full controller configuration, loadable from a YAML file.
type Config struct {
	Enabled                  bool   `yaml:"enabled"`
	AutoCleanup              bool   `yaml:"auto_cleanup"`
	TickIntervalSeconds      int    `yaml:"tick_interval_seconds"`
	TrendWindowSeconds       int    `yaml:"trend_window_seconds"`
	FallbackAvailableMB      int    `yaml:"fallback_available_memory_mb"`
	CompactOnDeep            bool   `yaml:"compact_on_deep"`
	TrimResidentAfterCleanup bool   `yaml:"trim_resident_after_cleanup"`
	Policy                   Policy `yaml:"policy"`
}

// TickInterval returns the driver period as a duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// DefaultPolicy returns the stock thresholds: soft 70, hard 85, emergency 95.
func DefaultPolicy() Policy {
	return Policy{
		SoftPercent:             70,
		HardPercent:             85,
		EmergencyPercent:        95,
		HysteresisPercent:       5,
		SustainSeconds:          3,
		UseTrendAverage:         true,
		DeepOnlyWhenSafe:        true,
		PreferLightWhileWaiting: true,
		LightCooldownSeconds:    120,
		DeepCooldownSeconds:     600,
	}
}

// DefaultConfig returns the stock configuration.
// Resident trimming is off by default because it can cause extra latency.
func DefaultConfig() Config {
	return Config{
		Enabled:                  true,
		AutoCleanup:              true,
		TickIntervalSeconds:      1,
		TrendWindowSeconds:       DefaultTrendWindowSeconds,
		FallbackAvailableMB:      4096,
		CompactOnDeep:            true,
		TrimResidentAfterCleanup: false,
		Policy:                   DefaultPolicy(),
	}
}

// Legal ranges applied by Sanitize.
const (
	MaxHysteresisPercent    = 25
	MaxSustainSeconds       = 30
	MinLightCooldownSeconds = 5
	MaxLightCooldownSeconds = 3600
	MinDeepCooldownSeconds  = 10
	MaxDeepCooldownSeconds  = 7200
	MaxFallbackAvailableMB  = 65536
	MaxTickIntervalSeconds  = 60
)

// Sanitize returns a copy of p with every scalar clamped to its legal range.
func (p Policy) Sanitize() Policy {
	p.SoftPercent = clampPercent(p.SoftPercent)
	p.HardPercent = clampPercent(p.HardPercent)
	p.EmergencyPercent = clampPercent(p.EmergencyPercent)
	p.HysteresisPercent = clampInt(p.HysteresisPercent, 0, MaxHysteresisPercent)
	p.SustainSeconds = clampInt(p.SustainSeconds, 0, MaxSustainSeconds)
	p.LightCooldownSeconds = clampInt(p.LightCooldownSeconds, MinLightCooldownSeconds, MaxLightCooldownSeconds)
	p.DeepCooldownSeconds = clampInt(p.DeepCooldownSeconds, MinDeepCooldownSeconds, MaxDeepCooldownSeconds)
	return p
}

// Sanitize returns a copy of c with every scalar clamped to its legal range.
// Out-of-range values are never reported as errors.
func (c Config) Sanitize() Config {
	c.TickIntervalSeconds = clampInt(c.TickIntervalSeconds, 1, MaxTickIntervalSeconds)
	c.TrendWindowSeconds = clampInt(c.TrendWindowSeconds, MinTrendWindowSeconds, MaxTrendWindowSeconds)
	c.FallbackAvailableMB = clampInt(c.FallbackAvailableMB, MinFallbackAvailableMB, MaxFallbackAvailableMB)
	c.Policy = c.Policy.Sanitize()
	return c
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
// Keys absent from the file keep their defaults. The document is checked
// against the config schema first, then decoded with strict field checking
// so typos fail loudly. The result is sanitized.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig without the file read.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if doc != nil {
		if err := ValidateConfigDocument(doc); err != nil {
			return Config{}, err
		}
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg.Sanitize(), nil
}

// WriteConfig saves cfg as YAML to path.
func WriteConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
