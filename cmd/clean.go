package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/stabilizer/stabilizer"
)

// cleanCmd runs a light reclamation on demand
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Run a light reclamation now",
	Run: func(cmd *cobra.Command, args []string) {
		ctrl := newHostController(loadConfig(), nil, nil)
		report, ok := ctrl.RunLight(stabilizer.ReasonManualLight)
		fmt.Println(formatCleanResult(stabilizer.TierLight, report, ok))
	},
}

// fullcleanCmd runs a deep reclamation on demand
var fullcleanCmd = &cobra.Command{
	Use:   "fullclean",
	Short: "Run a deep reclamation now",
	Run: func(cmd *cobra.Command, args []string) {
		ctrl := newHostController(loadConfig(), nil, nil)
		report, ok := ctrl.RunDeep(stabilizer.ReasonManualDeep)
		if !ok {
			logrus.Warn("Deep cleanup refused by cooldown")
		}
		fmt.Println(formatCleanResult(stabilizer.TierDeep, report, ok))
	},
}

// formatCleanResult renders a manual cleanup outcome for the console, the TUI and the CLI.
func formatCleanResult(tier stabilizer.Tier, r stabilizer.CleanupReport, ok bool) string {
	if !ok {
		return fmt.Sprintf("%s cleanup skipped: cooldown active", tier)
	}
	return fmt.Sprintf("%s cleanup (%s) in %s: allocated %dMB -> %dMB, resident %dMB -> %dMB, pressure %d%% -> %d%%",
		r.Tier, r.Reason, r.Took.Round(time.Microsecond),
		stabilizer.BytesToMB(r.Before.AllocatedBytes), stabilizer.BytesToMB(r.After.AllocatedBytes),
		stabilizer.BytesToMB(r.Before.ResidentBytes), stabilizer.BytesToMB(r.After.ResidentBytes),
		r.Before.PressurePercent, r.After.PressurePercent)
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(fullcleanCmd)
}
