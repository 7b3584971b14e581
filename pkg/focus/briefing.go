package focus

import (
	"context"
	"fmt"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

const briefingSize = 3

var quotes = []string{
	`"Discipline is freedom." - Jocko`,
	`"Action cures fear."`,
	`"Focus on the step in front of you."`,
	`"Execute."`,
}

// Briefing is the morning summary: what to work on and what slipped.
type Briefing struct {
	Focus   []model.Task
	Overdue int
	Quote   string
}

// Brief collects up to three pending tasks that are either flagged for today
// or at top priority, plus the number of pending tasks due before today.
func (s *Selector) Brief(ctx context.Context, userID string) (Briefing, error) {
	var b Briefing
	now := s.now()

	pending, err := s.repo.FindTasks(ctx, model.TaskFilter{UserID: userID, Status: model.StatusPending})
	if err != nil {
		return b, fmt.Errorf("briefing: %w", err)
	}
	for _, task := range pending {
		if len(b.Focus) == briefingSize {
			break
		}
		if task.FocusToday || task.Priority == model.MaxPriority {
			b.Focus = append(b.Focus, task)
		}
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	overdue, err := s.repo.FindTasks(ctx, model.TaskFilter{
		UserID:    userID,
		Status:    model.StatusPending,
		DueBefore: &midnight,
	})
	if err != nil {
		return b, fmt.Errorf("briefing: %w", err)
	}
	b.Overdue = len(overdue)
	b.Quote = quotes[now.YearDay()%len(quotes)]
	return b, nil
}
