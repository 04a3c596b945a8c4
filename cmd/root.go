package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/stabilizer/stabilizer"
	"github.com/inference-sim/stabilizer/stabilizer/host"
	"github.com/inference-sim/stabilizer/stabilizer/trace"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Path to a YAML config file; empty means built-in defaults
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "stabilizer",
	Short: "Adaptive memory-pressure controller for Go processes",
	Long: "Watches heap and resident memory against the available budget, smooths it over a trend window, " +
		"and runs light or deep reclamation when pressure stays high.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig returns the config from --config, or the defaults when the flag is empty.
func loadConfig() stabilizer.Config {
	if configPath == "" {
		return stabilizer.DefaultConfig()
	}
	cfg, err := stabilizer.LoadConfig(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config %s: %v", configPath, err)
	}
	logrus.Debugf("Loaded config from %s", configPath)
	return cfg
}

// newHostController wires a controller to this process's runtime.
func newHostController(cfg stabilizer.Config, safe stabilizer.SafeMomentFunc, tr *trace.ControllerTrace) *stabilizer.Controller {
	return stabilizer.NewController(stabilizer.Options{
		Config:     cfg,
		Telemetry:  host.NewRuntimeTelemetry(),
		Reclaimer:  host.NewRuntimeReclaimer(),
		SafeMoment: safe,
		Trace:      tr,
	})
}

// init sets up persistent flags shared by every subcommand
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to stabilizer YAML config (defaults when empty)")
}
