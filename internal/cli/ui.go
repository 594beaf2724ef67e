package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/careflow/pkg/monitor"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Monitor Output
// =============================================================================

func statusStyle(s monitor.Status) lipgloss.Style {
	switch s {
	case monitor.StatusHealthy:
		return StyleSuccess
	case monitor.StatusDegraded:
		return StyleWarning
	default:
		return StyleError
	}
}

// healthLine renders a one-line health summary.
func healthLine(h monitor.Health) string {
	line := statusStyle(h.Status).Bold(true).Render(string(h.Status)) +
		StyleDim.Render(" · ") + StyleNumber.Render(fmt.Sprintf("%.1f%%", h.ErrorRate)) + StyleDim.Render(" errors") +
		StyleDim.Render(" · ") + StyleNumber.Render(formatDuration(h.AvgLatency)) + StyleDim.Render(" avg")
	if h.LastErrorMessage != "" {
		line += StyleDim.Render(" · last: ") + StyleValue.Render(h.LastErrorMessage)
	}
	return line
}

func printHealth(w io.Writer, h monitor.Health) {
	switch h.Status {
	case monitor.StatusHealthy:
		fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+healthLine(h))
	case monitor.StatusDegraded:
		fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+healthLine(h))
	default:
		fmt.Fprintln(w, styleIconError.Render(iconError)+" "+healthLine(h))
	}
}

func printAPIMetrics(w io.Writer, a monitor.APIMetrics) {
	printKeyValue(w, "Requests", fmt.Sprintf("%d", a.TotalRequests))
	printKeyValue(w, "Succeeded", fmt.Sprintf("%d", a.SuccessCount))
	printKeyValue(w, "Failed", fmt.Sprintf("%d", a.ErrorCount))
	printKeyValue(w, "Avg duration", formatDuration(a.AvgDuration))
	printKeyValue(w, "Slow requests", fmt.Sprintf("%d", len(a.SlowRequests)))
}

// printRecentErrors prints at most limit of the newest recorded errors.
func printRecentErrors(w io.Writer, e monitor.ErrorMetrics, limit int) {
	if len(e.Recent) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleTitle.Render("Recent errors"))
	for _, r := range newest(e.Recent, limit) {
		printDetail(w, "%s  %-20s %s", r.Time.Format("15:04:05"), r.Type, r.Message)
	}
}

// newest returns the last n entries, newest first.
func newest[T any](items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	out := make([]T, 0, n)
	for i := len(items) - 1; i >= len(items)-n; i-- {
		out = append(out, items[i])
	}
	return out
}

// =============================================================================
// Tables
// =============================================================================

// newTable returns a bordered table with the package's header styling.
// styleFn, when set, styles data cells.
func newTable(headers []string, rows [][]string, styleFn func(row, col int) lipgloss.Style) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			if styleFn != nil {
				return styleFn(row, col).Padding(0, 1)
			}
			return styleCell
		})
	return t.Render()
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < 10*time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

func formatTTL(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
