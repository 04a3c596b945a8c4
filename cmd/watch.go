package cmd

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/stabilizer/stabilizer"
)

var watchAlwaysSafe bool

// watchCmd runs the controller behind a live terminal overlay
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the controller with a live pressure overlay",
	Run: func(cmd *cobra.Command, args []string) {
		gate := stabilizer.NewSafeGate(watchAlwaysSafe)
		ctrl := newHostController(loadConfig(), gate.IsSafe, nil)

		// Log lines would tear the alt screen; the events pane shows cleanups instead.
		logrus.SetLevel(logrus.ErrorLevel)
		if _, err := tea.NewProgram(newWatchModel(ctrl, gate), tea.WithAltScreen()).Run(); err != nil {
			logrus.Fatalf("Overlay failed: %v", err)
		}
	},
}

var (
	watchTitle  = lipgloss.NewStyle().Bold(true)
	watchHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	watchFooter = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	watchBox    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	watchDanger = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	watchWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	watchGood   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7AF"))
	watchFaint  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

const (
	watchHistoryLen = 60
	watchMaxEvents  = 200
)

type watchTickMsg struct{}

// watchModel drives the controller from the bubbletea update loop, so every
// controller call happens on one goroutine.
type watchModel struct {
	ctrl     *stabilizer.Controller
	gate     *stabilizer.SafeGate
	interval time.Duration

	last    stabilizer.TickResult
	ticks   int
	history []int
	events  []string
	eventVP viewport.Model
	width   int
}

func newWatchModel(ctrl *stabilizer.Controller, gate *stabilizer.SafeGate) watchModel {
	return watchModel{
		ctrl:     ctrl,
		gate:     gate,
		interval: ctrl.Config().TickInterval(),
		eventVP:  viewport.New(80, 8),
		width:    80,
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.nextTick()
}

func (m watchModel) nextTick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return watchTickMsg{} })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.eventVP.Width = max(20, msg.Width-4)
		m.eventVP.Height = max(3, msg.Height-12)
		return m, nil

	case watchTickMsg:
		m.last = m.ctrl.Tick()
		m.ticks++
		m.history = append(m.history, m.last.Snapshot.PressurePercent)
		if len(m.history) > watchHistoryLen {
			m.history = m.history[len(m.history)-watchHistoryLen:]
		}
		if m.last.Report != nil {
			m.addEvent(formatCleanResult(m.last.Report.Tier, *m.last.Report, true))
		}
		return m, m.nextTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "c":
			report, ok := m.ctrl.RunLight(stabilizer.ReasonManualLight)
			m.addEvent(formatCleanResult(stabilizer.TierLight, report, ok))
		case "f":
			report, ok := m.ctrl.RunDeep(stabilizer.ReasonManualDeep)
			m.addEvent(formatCleanResult(stabilizer.TierDeep, report, ok))
		case "s":
			m.addEvent(fmt.Sprintf("safe moment: %v", m.gate.Toggle()))
		case "r":
			m.ctrl.ResetForNewSession()
			m.history = nil
			m.addEvent("session reset")
		default:
			var cmd tea.Cmd
			m.eventVP, cmd = m.eventVP.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	return m, nil
}

func (m *watchModel) addEvent(text string) {
	m.events = append(m.events, time.Now().Format("15:04:05")+" "+text)
	if len(m.events) > watchMaxEvents {
		m.events = m.events[len(m.events)-watchMaxEvents:]
	}
	m.eventVP.SetContent(strings.Join(m.events, "\n"))
	m.eventVP.GotoBottom()
}

func (m watchModel) View() string {
	cfg := m.ctrl.Config()
	snap := m.last.Snapshot
	barWidth := max(10, m.width-30)

	var b strings.Builder
	b.WriteString(watchTitle.Render("stabilizer") + watchHeader.Render(fmt.Sprintf("  tick %d every %s", m.ticks, m.interval)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("pressure %s %3d%%\n",
		pressureStyle(snap.PressurePercent, cfg.Policy).Render(pressureBar(snap.PressurePercent, barWidth)),
		snap.PressurePercent))
	b.WriteString(fmt.Sprintf("history  %s\n", watchFaint.Render(sparkline(m.history, barWidth))))
	b.WriteString(stabilizer.FormatStatusLine(snap, m.last.Summary) + "\n")
	b.WriteString(fmt.Sprintf("decision %s  safe %v  deep queued %v%s\n",
		m.last.Decision, m.gate.IsSafe(), m.ctrl.DeepQueued(), skipNote(m.last)))
	b.WriteString(watchHeader.Render(fmt.Sprintf("soft %d%%  hard %d%%  emergency %d%%  cooldowns %s/%s",
		cfg.Policy.SoftPercent, cfg.Policy.HardPercent, cfg.Policy.EmergencyPercent,
		cfg.Policy.LightCooldown(), cfg.Policy.DeepCooldown())))
	b.WriteString("\n")
	b.WriteString(watchBox.Render(m.eventVP.View()))
	b.WriteString("\n")
	b.WriteString(watchFooter.Render("c clean • f fullclean • s toggle safe • r reset session • q quit"))
	return b.String()
}

func skipNote(res stabilizer.TickResult) string {
	switch {
	case res.Skipped != stabilizer.SkipNone:
		return watchFaint.Render("  (" + string(res.Skipped) + ")")
	case res.CooldownBlocked:
		return watchWarn.Render("  (cooldown)")
	default:
		return ""
	}
}

func pressureStyle(percent int, p stabilizer.Policy) lipgloss.Style {
	switch {
	case percent >= p.HardPercent:
		return watchDanger
	case percent >= p.SoftPercent:
		return watchWarn
	default:
		return watchGood
	}
}

// pressureBar renders percent as a filled bar of the given width.
func pressureBar(percent, width int) string {
	fill := int(math.Round(float64(min(max(percent, 0), 100)) / 100 * float64(width)))
	if percent > 0 && fill == 0 {
		fill = 1
	}
	return strings.Repeat("█", fill) + strings.Repeat("░", width-fill)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline renders the newest width samples, one block per sample.
func sparkline(vals []int, width int) string {
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}
	var b strings.Builder
	for _, v := range vals {
		level := int(math.Round(float64(min(max(v, 0), 100)) / 100 * float64(len(sparkBlocks)-1)))
		b.WriteRune(sparkBlocks[level])
	}
	return b.String()
}

func init() {
	watchCmd.Flags().BoolVar(&watchAlwaysSafe, "always-safe", false, "Start with the safe-moment flag set")

	rootCmd.AddCommand(watchCmd)
}
