package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/careflow/internal/probe"
	"github.com/matzehuels/careflow/pkg/monitor"
)

// =============================================================================
// watch command
// =============================================================================

func (c *CLI) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard of periodic probe rounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			s, err := c.newStack(cfg)
			if err != nil {
				return err
			}
			// Log lines would tear the alternate screen.
			c.SetLogLevel(LogFatal)

			ctx := cmd.Context()
			m := newWatchModel(ctx, s.prober(c, nil), s.monitor, cfg.API.BaseURL, cfg.Probe.Interval)
			prog := tea.NewProgram(m,
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := prog.Run(); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			return nil
		},
	}
}

// =============================================================================
// WatchModel
// =============================================================================

// roundMsg carries the results of one probe round.
type roundMsg struct {
	results []probe.Result
}

// tickMsg schedules the next round.
type tickMsg time.Time

// WatchModel is the bubbletea model behind the watch command.
type WatchModel struct {
	ctx      context.Context
	prober   *probe.Prober
	monitor  *monitor.Monitor
	baseURL  string
	interval time.Duration

	results []probe.Result
	dash    monitor.Dashboard
	rounds  int
	probing bool
	lastAt  time.Time
	width   int
}

func newWatchModel(ctx context.Context, p *probe.Prober, mon *monitor.Monitor, baseURL string, interval time.Duration) WatchModel {
	return WatchModel{
		ctx:      ctx,
		prober:   p,
		monitor:  mon,
		baseURL:  baseURL,
		interval: interval,
		dash:     mon.Dashboard(),
		probing:  true,
		width:    80,
	}
}

func (m WatchModel) runRound() tea.Cmd {
	return func() tea.Msg {
		return roundMsg{results: m.prober.RunOnce(m.ctx)}
	}
}

func (m WatchModel) scheduleRound() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m WatchModel) Init() tea.Cmd {
	return m.runRound()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.monitor.Reset()
			m.dash = m.monitor.Dashboard()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case roundMsg:
		m.results = msg.results
		m.dash = m.monitor.Dashboard()
		m.rounds++
		m.probing = false
		m.lastAt = time.Now()
		return m, m.scheduleRound()
	case tickMsg:
		m.probing = true
		return m, m.runRound()
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("careflow watch") + " " + StyleDim.Render(m.baseURL))
	b.WriteString("\n\n")

	printHealth(&b, m.dash.Health)
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d requests · %d failed · up %s",
		m.dash.API.TotalRequests, m.dash.API.ErrorCount, m.dash.Uptime.Round(time.Second))))
	b.WriteString("\n\n")

	switch {
	case m.rounds == 0:
		b.WriteString(StyleDim.Render("Probing..."))
		b.WriteString("\n")
	case len(m.results) == 0:
		printInfo(&b, "No endpoints configured")
	default:
		b.WriteString(resultsTable(m.results))
		b.WriteString("\n")
	}

	if slow := m.dash.API.SlowRequests; len(slow) > 0 {
		b.WriteString("\n" + StyleTitle.Render("Slow requests") + "\n")
		for _, r := range newest(slow, 5) {
			printDetail(&b, "%s  %s %s  %d  %s", r.Time.Format("15:04:05"), r.Method, truncate(r.URL, m.width/2), r.StatusCode, formatDuration(r.Duration))
		}
	}
	printRecentErrors(&b, m.dash.Errors, 5)

	b.WriteString("\n")
	status := fmt.Sprintf("round %d", m.rounds)
	if m.probing {
		status += " · probing"
	} else if !m.lastAt.IsZero() {
		status += " · last " + m.lastAt.Format("15:04:05")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(colorDim).Render(status + "  ·  r reset  q quit"))
	return b.String()
}
