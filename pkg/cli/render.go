package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/roi"
)

const shortIDLen = 8

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// formatDue renders a due date relative to now.
func formatDue(due *time.Time, now time.Time) string {
	if due == nil {
		return "-"
	}
	d := due.Sub(now)
	if d < 0 {
		return humanize(-d) + " overdue"
	}
	if d < time.Minute {
		return "now"
	}
	return "in " + humanize(d)
}

func humanize(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}

func marker(t model.Task, now time.Time) string {
	switch {
	case t.Status == model.StatusCompleted:
		return "✓"
	case t.OverdueAt(now):
		return "!"
	case t.FocusToday:
		return "★"
	}
	return " "
}

func renderTasks(out io.Writer, list []model.Task, now time.Time, weights roi.Weights) error {
	if len(list) == 0 {
		fmt.Fprintln(out, subtleStyle.Render("No tasks."))
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tP\tROI\tDUE\tIMPACT\tTITLE")
	for _, t := range list {
		title := t.Title
		if t.Domain != "" {
			title += " @" + t.Domain
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\t%s\t%s\n",
			marker(t, now),
			shortID(t.ID),
			t.Priority,
			roi.CalculateROI(t, weights),
			formatDue(t.DueDate, now),
			t.ImpactType,
			title,
		)
	}
	return w.Flush()
}

func renderTask(out io.Writer, t model.Task, now time.Time, loc *time.Location, weights roi.Weights) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(t.Title))
	fmt.Fprintf(&b, "id        %s (v%d)\n", t.ID, t.Version)
	fmt.Fprintf(&b, "status    %s\n", t.Status)
	if t.Domain != "" {
		fmt.Fprintf(&b, "domain    %s", t.Domain)
		if t.Subdomain != "" {
			fmt.Fprintf(&b, " / %s", t.Subdomain)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "impact    %s, %s energy, priority %d\n", t.ImpactType, t.EnergyType, t.Priority)
	fmt.Fprintf(&b, "estimate  %dm, ROI %.2f\n", t.EstimatedTime, roi.CalculateROI(t, weights))
	if t.DueDate != nil {
		fmt.Fprintf(&b, "due       %s (%s)\n", t.DueDate.In(loc).Format("Mon Jan 2 15:04"), formatDue(t.DueDate, now))
	}
	if t.ReminderLevel > 0 || t.DelayCount > 0 {
		fmt.Fprintf(&b, "slipped   level %d, %d delays\n", t.ReminderLevel, t.DelayCount)
	}
	if t.FocusToday {
		b.WriteString("focus     today\n")
	}
	fmt.Fprint(out, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
	fmt.Fprintln(out)
}

// parseWhen accepts RFC 3339, "2006-01-02 15:04" or a bare date (09:00) in loc.
func parseWhen(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q (use 2006-01-02, \"2006-01-02 15:04\" or RFC 3339)", s)
}
