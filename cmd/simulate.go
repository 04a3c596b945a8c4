package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/stabilizer/stabilizer"
	"github.com/inference-sim/stabilizer/stabilizer/trace"
)

var (
	scenarioPath  string // Path to a YAML or CSV pressure scenario
	simulateQuiet bool   // Print only the summary
)

// simulateCmd replays a scripted pressure sequence through the controller
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a pressure scenario through the controller",
	Long: "Feeds a scripted list of pressure percents and safe-moment flags through a controller " +
		"on a manual clock (one tick per tick interval) and prints every decision and a trace summary. " +
		"No memory is reclaimed.",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := stabilizer.LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		cfg := loadConfig()
		logrus.Infof("Replaying scenario %q: %d ticks", sc.Name, sc.Ticks())

		res := stabilizer.ReplayScenario(sc, cfg)
		if !simulateQuiet {
			writeReplay(os.Stdout, res)
		}
		printTraceSummary(trace.Summarize(res.Trace))
	},
}

// writeReplay prints one line per replayed tick.
func writeReplay(w io.Writer, res stabilizer.ReplayResult) {
	for i, tick := range res.Ticks {
		outcome := ""
		switch {
		case tick.Skipped != stabilizer.SkipNone:
			outcome = "skipped: " + string(tick.Skipped)
		case tick.Report != nil:
			outcome = "ran"
		case tick.CooldownBlocked:
			outcome = "cooldown"
		}
		fmt.Fprintf(w, "t=%-4d pressure=%3d%% avg=%3d%% delta=%4s%% safe=%-5v decision=%-22s %s\n",
			i, tick.Snapshot.PressurePercent, tick.Summary.Average, stabilizer.FormatDelta(tick.Summary.Delta),
			tick.SafeMoment, tick.Decision, outcome)
	}
	fmt.Fprintf(w, "light runs: %d, deep runs: %d\n", res.Light, res.Deep)
}

func init() {
	simulateCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a scenario file (.yaml or .csv)")
	simulateCmd.Flags().BoolVar(&simulateQuiet, "quiet", false, "Print only the trace summary")
	_ = simulateCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(simulateCmd)
}
