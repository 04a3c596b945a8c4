package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/stabilizer/stabilizer"
)

var consoleHistoryFile string

// consoleCmd runs the controller loop with an interactive prompt
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the controller with an interactive command prompt",
	Run: func(cmd *cobra.Command, args []string) {
		gate := stabilizer.NewSafeGate(false)
		ctrl := newHostController(loadConfig(), gate.IsSafe, nil)

		ctx, cancel := context.WithCancel(context.Background())
		loopDone := make(chan error, 1)
		go func() { loopDone <- ctrl.Run(ctx) }()

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "stabilizer> ",
			HistoryFile:     consoleHistoryFile,
			AutoComplete:    consoleCompleter,
			InterruptPrompt: "^C",
			EOFPrompt:       "quit",
		})
		if err != nil {
			cancel()
			logrus.Fatalf("Failed to create readline: %v", err)
		}
		defer rl.Close()

		c := &console{
			do:   func(fn func(*stabilizer.Controller)) error { return ctrl.Do(ctx, fn) },
			gate: gate,
			out:  rl.Stdout(),
		}
		fmt.Fprintln(c.out, "Type 'help' for commands.")
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					break
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				logrus.Errorf("Readline failed: %v", err)
				break
			}
			if c.execute(line) {
				break
			}
		}

		cancel()
		if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
			logrus.Errorf("Controller loop failed: %v", err)
		}
	},
}

var consoleCompleter = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("status"),
	readline.PcItem("clean"),
	readline.PcItem("fullclean"),
	readline.PcItem("safe",
		readline.PcItem("on"),
		readline.PcItem("off"),
		readline.PcItem("toggle"),
	),
	readline.PcItem("reset"),
	readline.PcItem("day"),
	readline.PcItem("reload"),
	readline.PcItem("quit"),
)

const consoleHelp = `Commands:
  status                pressure, trend and cooldown state
  clean                 light cleanup now (subject to cooldown)
  fullclean             deep cleanup now (subject to cooldown)
  safe [on|off|toggle]  show or change the safe-moment flag
  reset                 new session: clear cooldowns, queue and trend
  day                   new day: clear queue and trend
  reload                re-read --config
  quit                  stop the controller and exit`

// console executes prompt commands against a running controller.
type console struct {
	do   func(fn func(*stabilizer.Controller)) error
	gate *stabilizer.SafeGate
	out  io.Writer
}

// execute runs one command line and reports whether the console should exit.
func (c *console) execute(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "status":
		c.run(func(ctrl *stabilizer.Controller) { writeStatus(c.out, ctrl.Status()) })
	case "clean":
		c.run(func(ctrl *stabilizer.Controller) {
			report, ok := ctrl.RunLight(stabilizer.ReasonManualLight)
			fmt.Fprintln(c.out, formatCleanResult(stabilizer.TierLight, report, ok))
		})
	case "fullclean":
		c.run(func(ctrl *stabilizer.Controller) {
			report, ok := ctrl.RunDeep(stabilizer.ReasonManualDeep)
			fmt.Fprintln(c.out, formatCleanResult(stabilizer.TierDeep, report, ok))
		})
	case "safe":
		c.safe(fields[1:])
	case "reset":
		c.run(func(ctrl *stabilizer.Controller) { ctrl.ResetForNewSession() })
		fmt.Fprintln(c.out, "Session reset: cooldowns, queue and trend cleared.")
	case "day":
		c.run(func(ctrl *stabilizer.Controller) { ctrl.ResetForNewDay() })
		fmt.Fprintln(c.out, "Day reset: queue and trend cleared.")
	case "reload":
		c.reload()
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command %q. Type 'help' for commands.\n", fields[0])
	}
	return false
}

func (c *console) run(fn func(*stabilizer.Controller)) {
	if err := c.do(fn); err != nil {
		fmt.Fprintf(c.out, "Controller unavailable: %v\n", err)
	}
}

func (c *console) safe(args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "on":
			c.gate.Set(true)
		case "off":
			c.gate.Set(false)
		case "toggle":
			c.gate.Toggle()
		default:
			fmt.Fprintf(c.out, "Usage: safe [on|off|toggle]\n")
			return
		}
	}
	fmt.Fprintf(c.out, "Safe moment: %v\n", c.gate.IsSafe())
}

func (c *console) reload() {
	if configPath == "" {
		fmt.Fprintln(c.out, "No --config given; nothing to reload.")
		return
	}
	cfg, err := stabilizer.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(c.out, "Reload failed: %v\n", err)
		return
	}
	c.run(func(ctrl *stabilizer.Controller) { ctrl.ApplyConfig(cfg) })
	fmt.Fprintf(c.out, "Reloaded %s\n", configPath)
}

func init() {
	consoleCmd.Flags().StringVar(&consoleHistoryFile, "history", "", "Path to a readline history file (none when empty)")

	rootCmd.AddCommand(consoleCmd)
}
