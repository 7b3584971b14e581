package focus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

const (
	DefaultSessionMinutes = 90
	sessionDomain         = "Productivity"
	sessionSubdomain      = "Focus"
)

// SessionOptions override the defaults of a focus session. Zero values fall
// back to the user's focus_duration and a generated title.
type SessionOptions struct {
	Title   string
	Domain  string
	Minutes int
}

type Session struct {
	Task    model.Task
	Minutes int
	Start   time.Time
	End     time.Time
}

// StartSession books a block of deep work as a flagged, top-priority task
// due when the block ends.
func (s *Selector) StartSession(ctx context.Context, userID string, opts SessionOptions) (Session, error) {
	minutes := opts.Minutes
	if minutes <= 0 {
		settings, err := s.repo.GetUserSettings(ctx, userID)
		if err != nil {
			return Session{}, fmt.Errorf("start session: %w", err)
		}
		minutes = settings.FocusDuration
	}
	if minutes <= 0 {
		minutes = DefaultSessionMinutes
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = fmt.Sprintf("Deep Focus Session (%d min)", minutes)
	}
	domain := strings.TrimSpace(opts.Domain)
	if domain == "" {
		domain = sessionDomain
	}

	start := s.now()
	end := start.Add(time.Duration(minutes) * time.Minute)
	task, err := s.repo.InsertTask(ctx, model.Task{
		UserID:        userID,
		Title:         title,
		Domain:        domain,
		Subdomain:     sessionSubdomain,
		Priority:      model.MaxPriority,
		ImpactType:    model.ImpactRevenue,
		EnergyType:    model.EnergyDeep,
		EstimatedTime: minutes,
		DueDate:       &end,
		Status:        model.StatusPending,
		FocusToday:    true,
		MoneyImpact:   true,
	})
	if err != nil {
		return Session{}, fmt.Errorf("start session: %w", err)
	}

	_ = s.audit.Log(ctx, userID, task.ID, model.AuditFocusStarted, nil, map[string]any{
		"focus_duration": minutes,
		"start":          start.UTC(),
		"end":            end.UTC(),
	})
	return Session{Task: task, Minutes: minutes, Start: start, End: end}, nil
}
