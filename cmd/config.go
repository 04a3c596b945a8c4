package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/stabilizer/stabilizer"
)

var configOutPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and check stabilizer config files",
}

// --- stabilizer config init ---

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := stabilizer.WriteConfig(configOutPath, stabilizer.DefaultConfig()); err != nil {
			logrus.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Wrote default config to %s\n", configOutPath)
	},
}

// --- stabilizer config check ---

var configCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a config file and print the effective (clamped) values",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := stabilizer.LoadConfig(args[0])
		if err != nil {
			logrus.Fatalf("Invalid config: %v", err)
		}
		fmt.Print(describeConfig(cfg))
	},
}

// describeConfig renders the effective settings, one per line.
func describeConfig(cfg stabilizer.Config) string {
	p := cfg.Policy
	return fmt.Sprintf(`enabled: %v
auto_cleanup: %v
tick: %s
trend window: %ds
fallback available: %dMB
thresholds: soft %d%% / hard %d%% / emergency %d%% (hysteresis %d%%, sustain %ds)
use trend average: %v
deep only when safe: %v (light while waiting: %v)
cooldowns: light %s / deep %s
compact on deep: %v, trim resident: %v
`,
		cfg.Enabled, cfg.AutoCleanup, cfg.TickInterval(), cfg.TrendWindowSeconds, cfg.FallbackAvailableMB,
		p.SoftPercent, p.HardPercent, p.EmergencyPercent, p.HysteresisPercent, p.SustainSeconds,
		p.UseTrendAverage, p.DeepOnlyWhenSafe, p.PreferLightWhileWaiting,
		p.LightCooldown(), p.DeepCooldown(), cfg.CompactOnDeep, cfg.TrimResidentAfterCleanup)
}

func init() {
	configInitCmd.Flags().StringVar(&configOutPath, "out", "stabilizer.yaml", "Path to write the config to")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)

	rootCmd.AddCommand(configCmd)
}
