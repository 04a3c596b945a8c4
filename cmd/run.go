package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/stabilizer/stabilizer"
	"github.com/inference-sim/stabilizer/stabilizer/trace"
)

var (
	runAlwaysSafe bool          // Treat every tick as a safe moment for deep actions
	runTraceLevel string        // Decision trace verbosity
	runDuration   time.Duration // Stop after this long; 0 runs until interrupted
)

// runCmd runs the controller loop against this process
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller loop against this process",
	Long: "Runs the once-per-tick controller until interrupted. SIGHUP reloads --config " +
		"without resetting cooldowns.",
	Run: func(cmd *cobra.Command, args []string) {
		if !trace.IsValidTraceLevel(runTraceLevel) {
			logrus.Fatalf("Invalid trace level: %s", runTraceLevel)
		}
		cfg := loadConfig()
		gate := stabilizer.NewSafeGate(runAlwaysSafe)
		tr := trace.NewControllerTrace(trace.TraceLevel(runTraceLevel))
		ctrl := newHostController(cfg, gate.IsSafe, tr)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if runDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runDuration)
			defer cancel()
		}
		go reloadOnHangup(ctx, ctrl)

		err := ctrl.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			logrus.Fatalf("Controller failed: %v", err)
		}

		if tr.Level != trace.TraceLevelNone && tr.Level != "" {
			printTraceSummary(trace.Summarize(tr))
		}
	},
}

// reloadOnHangup re-reads --config on every SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, ctrl *stabilizer.Controller) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if configPath == "" {
				logrus.Warn("[run] SIGHUP ignored: no --config to reload")
				continue
			}
			cfg, err := stabilizer.LoadConfig(configPath)
			if err != nil {
				logrus.Errorf("[run] config reload failed, keeping current config: %v", err)
				continue
			}
			if err := ctrl.Do(ctx, func(c *stabilizer.Controller) { c.ApplyConfig(cfg) }); err != nil {
				logrus.Warnf("[run] config reload not applied: %v", err)
				continue
			}
			logrus.Infof("[run] reloaded config from %s", configPath)
		}
	}
}

// printTraceSummary writes the summary as indented JSON to stdout.
func printTraceSummary(summary *trace.TraceSummary) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logrus.Errorf("Failed to encode trace summary: %v", err)
		return
	}
	fmt.Println("=== Trace Summary ===")
	fmt.Println(string(data))
}

func init() {
	runCmd.Flags().BoolVar(&runAlwaysSafe, "always-safe", false, "Treat every tick as a safe moment (deep actions never wait)")
	runCmd.Flags().StringVar(&runTraceLevel, "trace-level", "none", "Decision trace level (none, actions, decisions)")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "Stop after this duration (0 = until interrupted)")

	rootCmd.AddCommand(runCmd)
}
