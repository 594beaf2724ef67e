package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/careflow/internal/probe"
	"github.com/matzehuels/careflow/pkg/monitor"
)

// errUnhealthy is returned by health when the monitor's verdict is error,
// so scripts can rely on the exit status.
var errUnhealthy = errors.New("care service is unhealthy")

func (c *CLI) healthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the configured endpoints once and report health",
		Long: `Probe every configured endpoint once, then print the results together
with the monitor's health verdict, API metrics and recent errors.

The command exits non-zero when the verdict is "error".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			s, err := c.newStack(cfg)
			if err != nil {
				return err
			}
			p := s.prober(c, nil)

			prog := newProgress(c.Logger)
			spin := newSpinner(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Probing %d endpoints...", len(p.Endpoints())))
			spin.Start()
			results := p.RunOnce(cmd.Context())
			spin.Stop()
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Probed %d endpoints", len(results)))

			out := cmd.OutOrStdout()
			renderHealthReport(out, cfg.API.BaseURL, results, s.monitor.Dashboard())

			if s.monitor.Health().Status == monitor.StatusError {
				return errUnhealthy
			}
			return nil
		},
	}
}

func renderHealthReport(w io.Writer, baseURL string, results []probe.Result, d monitor.Dashboard) {
	fmt.Fprintln(w, StyleTitle.Render("careflow")+" "+StyleDim.Render(baseURL))
	if len(results) > 0 {
		fmt.Fprintln(w, resultsTable(results))
	} else {
		printInfo(w, "No endpoints configured")
	}
	fmt.Fprintln(w)
	printHealth(w, d.Health)
	printAPIMetrics(w, d.API)
	printRecentErrors(w, d.Errors, 5)
}

// resultsTable renders one row per probed endpoint.
func resultsTable(results []probe.Result) string {
	rows := make([][]string, len(results))
	for i, r := range results {
		status := "-"
		if r.Status != 0 {
			status = fmt.Sprintf("%d", r.Status)
		}
		outcome := iconSuccess + " ok"
		if !r.OK() {
			outcome = iconError + " " + truncate(errorText(r), 48)
		}
		rows[i] = []string{r.Endpoint, status, formatDuration(r.Duration), outcome}
	}

	return newTable([]string{"Endpoint", "Status", "Duration", "Result"}, rows, func(row, col int) lipgloss.Style {
		if col != 3 {
			return lipgloss.NewStyle()
		}
		if results[row].OK() {
			return StyleSuccess
		}
		return StyleError
	})
}

func errorText(r probe.Result) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return fmt.Sprintf("status %d", r.Status)
}
