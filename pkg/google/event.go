package google

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/roi"
)

// TaskIDProperty is the private extended property linking an event to its task.
const TaskIDProperty = "lifeos_id"

// ErrNoDate is returned for tasks that cannot be placed on a calendar.
var ErrNoDate = errors.New("task has no due date")

const defaultDuration = time.Duration(model.DefaultEstimate) * time.Minute

// Summary prefixes, most significant first.
const (
	prefixDone    = "✓"
	prefixOverdue = "!"
	prefixFocus   = "‣"
)

// Summary is the event title for task at now.
func Summary(task model.Task, now time.Time) string {
	prefix := ""
	switch {
	case task.Status == model.StatusCompleted:
		prefix = prefixDone
	case task.OverdueAt(now):
		prefix = prefixOverdue
	case task.FocusToday:
		prefix = prefixFocus
	}
	if prefix == "" {
		return task.Title
	}
	return fmt.Sprintf("%s %s", prefix, task.Title)
}

// TaskToEvent builds the calendar event for a task. Pending tasks occupy
// the slot starting at their due date; completed tasks end at their last
// update.
func TaskToEvent(task model.Task, colorID string, weights roi.Weights, now time.Time) (*calendar.Event, error) {
	if task.DueDate == nil || task.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrNoDate, task.ID)
	}

	est := time.Duration(task.EstimatedTime) * time.Minute
	if est <= 0 {
		est = defaultDuration
	}

	var start, end time.Time
	if task.Status == model.StatusCompleted && !task.UpdatedAt.IsZero() {
		end = task.UpdatedAt
		start = end.Add(-est)
	} else {
		start = *task.DueDate
		end = start.Add(est)
	}

	return &calendar.Event{
		Summary:     Summary(task, now),
		Description: describe(task, weights),
		ColorId:     colorID,
		Start:       &calendar.EventDateTime{DateTime: start.UTC().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.UTC().Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: task.ID},
		},
	}, nil
}

func describe(task model.Task, weights roi.Weights) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status: %s\n", task.Status)
	if task.Domain != "" {
		if task.Subdomain != "" {
			fmt.Fprintf(&b, "Domain: %s / %s\n", task.Domain, task.Subdomain)
		} else {
			fmt.Fprintf(&b, "Domain: %s\n", task.Domain)
		}
	}
	fmt.Fprintf(&b, "Impact: %s, Energy: %s\n", task.ImpactType, task.EnergyType)
	fmt.Fprintf(&b, "Priority: %d, ROI: %.2f\n", task.Priority, roi.CalculateROI(task, weights))
	if task.MoneyImpact {
		b.WriteString("Money on the line\n")
	}

	b.WriteString("\nAccounting:\n")
	fmt.Fprintf(&b, "• estimated: %s\n", time.Duration(task.EstimatedTime)*time.Minute)
	if task.DelayCount > 0 {
		fmt.Fprintf(&b, "• delayed: %d times\n", task.DelayCount)
	}
	if task.ReminderLevel > 0 {
		fmt.Fprintf(&b, "• reminder level: %d\n", task.ReminderLevel)
	}

	fmt.Fprintf(&b, "\nID: %s\n", task.ID)
	return b.String()
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil when they already match.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	moved, err := timesDiffer(existing, target)
	if err != nil {
		return nil, err
	}
	if moved {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func timesDiffer(existing, target *calendar.Event) (bool, error) {
	if existing.Start == nil || existing.End == nil {
		return true, nil
	}
	pairs := [][2]string{
		{existing.Start.DateTime, target.Start.DateTime},
		{existing.End.DateTime, target.End.DateTime},
	}
	for _, p := range pairs {
		a, err := time.Parse(time.RFC3339, p[0])
		if err != nil {
			return false, fmt.Errorf("parse existing event time: %w", err)
		}
		b, err := time.Parse(time.RFC3339, p[1])
		if err != nil {
			return false, fmt.Errorf("parse target event time: %w", err)
		}
		if !a.Equal(b) {
			return true, nil
		}
	}
	return false, nil
}

// TaskIDFromEvent returns the task ID an event was created for.
func TaskIDFromEvent(event *calendar.Event) (string, bool) {
	if event == nil || event.ExtendedProperties == nil {
		return "", false
	}
	id, ok := event.ExtendedProperties.Private[TaskIDProperty]
	return id, ok && id != ""
}

var reminderMarkers = map[model.ReminderAction]string{
	model.ReminderSoft:      "🔔",
	model.ReminderStrong:    "⚠️",
	model.ReminderCritical:  "🚨",
	model.ReminderImmediate: "🔥",
}

// alertColor is tomato, used once a reminder turns critical.
const alertColor = "11"

// ReminderPatch marks an event with the escalation level of a reminder.
func ReminderPatch(r model.Reminder) *calendar.Event {
	patch := &calendar.Event{
		Summary: fmt.Sprintf("%s %s %s", reminderMarkers[r.Action], prefixOverdue, r.Title),
	}
	if r.Action == model.ReminderCritical || r.Action == model.ReminderImmediate {
		patch.ColorId = alertColor
	}
	return patch
}
