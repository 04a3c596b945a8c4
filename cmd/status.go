package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/inference-sim/stabilizer/stabilizer"
)

var statusSamples int // Trend samples to collect before reporting

// statusCmd prints the one-line pressure status for this process
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print current memory pressure and trend",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		// Sampling only; status never triggers a cleanup.
		cfg.AutoCleanup = false
		ctrl := newHostController(cfg, nil, nil)

		for i := 0; i < statusSamples; i++ {
			if i > 0 {
				time.Sleep(cfg.TickInterval())
			}
			ctrl.Tick()
		}
		writeStatus(os.Stdout, ctrl.Status())
	},
}

// writeStatus prints the status line followed by queue and last-action details.
func writeStatus(w io.Writer, st stabilizer.Status) {
	fmt.Fprintln(w, st.Line())
	fmt.Fprintf(w, "Deep queued: %v | Last light: %s | Last deep: %s\n",
		st.DeepQueued, formatLastAction(st.LastLight), formatLastAction(st.LastDeep))
}

func formatLastAction(at time.Time) string {
	if at.IsZero() {
		return "never"
	}
	return at.Format("15:04:05")
}

func init() {
	statusCmd.Flags().IntVar(&statusSamples, "samples", 0, "Collect this many trend samples, one per tick interval, before reporting")

	rootCmd.AddCommand(statusCmd)
}
