package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/lifeos/pkg/weekly"
)

func newWeeklyCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Review the last seven days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				analyzer := weekly.NewAnalyzer(a.store)
				analyzer.SetClock(a.now)
				analysis, err := analyzer.Weekly(ctx, a.userID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, analysis)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderWeekly(analysis))
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newMetricsCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show the live task dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app) error {
				analyzer := weekly.NewAnalyzer(a.store)
				analyzer.SetClock(a.now)
				m, err := analyzer.Metrics(ctx, a.userID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, m)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderMetrics(m))
				return nil
			})(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func renderWeekly(w weekly.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("Week of %s - %s",
		w.Period.Start.Format("Jan 2"), w.Period.End.Format("Jan 2"))))
	fmt.Fprintf(&b, "Execution     %.0f%% (%d of %d)\n", w.ExecutionRatio*100, w.TasksCompleted, w.TasksCreated)
	fmt.Fprintf(&b, "Busy work     %.0f%%\n", w.BusyWorkPercent*100)
	fmt.Fprintf(&b, "Revenue done  %.0f%%\n", w.RevenueCompletionPercent*100)
	fmt.Fprintf(&b, "Deep work     %dm\n", w.DeepWorkMinutes)
	if w.MostDelayedSubdomain != "" {
		fmt.Fprintf(&b, "Most delayed  %s\n", w.MostDelayedSubdomain)
	}
	if w.HighestROIMissed != nil {
		fmt.Fprintf(&b, "Biggest miss  %s (%s, delayed %d)\n",
			w.HighestROIMissed.Title, w.HighestROIMissed.Impact, w.HighestROIMissed.Delay)
	}
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(w.TopInsight))
	return b.String()
}

func renderMetrics(m weekly.Metrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Dashboard"))
	fmt.Fprintf(&b, "Tasks          %d (%d done)\n", m.TotalTasks, m.CompletedTasks)
	fmt.Fprintf(&b, "Execution      %d%%\n", m.ExecutionRatio)
	fmt.Fprintf(&b, "Revenue done   %d%%\n", m.RevenueCompletion)
	fmt.Fprintf(&b, "Vanity         %d%%\n", m.VanityPercent)
	overdue := fmt.Sprintf("Overdue        %d%%", m.OverduePercent)
	if m.OverduePercent > 0 {
		overdue = errorStyle.Render(overdue)
	}
	fmt.Fprintf(&b, "%s\n", overdue)
	fmt.Fprintf(&b, "Deep work      %dm", m.DeepWorkMinutes)
	return b.String()
}
