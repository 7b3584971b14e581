package focus

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/audit"
	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/roi"
)

// Repository is the subset of the task store used for focus selection.
type Repository interface {
	InsertTask(ctx context.Context, task model.Task) (model.Task, error)
	FindTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	ConditionalUpdateTask(ctx context.Context, id string, expectedVersion int, changes model.Changes) (*model.Task, error)
	ClearFocus(ctx context.Context, userID string) (int, error)
	GetUserSettings(ctx context.Context, userID string) (model.Settings, error)
}

// Result reports what a selection pass did. Conflicts counts candidates
// skipped because another writer changed them first; Failed counts those
// the repository refused.
type Result struct {
	Selected  []model.Task
	Cleared   int
	Conflicts int
	Failed    int
}

type Selector struct {
	repo  Repository
	audit *audit.Logger
	count int
	now   func() time.Time
}

// NewSelector builds a selector picking count tasks per day (roi.DefaultCount
// when count <= 0).
func NewSelector(repo Repository, auditor *audit.Logger, count int) *Selector {
	if count <= 0 {
		count = roi.DefaultCount
	}
	return &Selector{repo: repo, audit: auditor, count: count, now: time.Now}
}

func (s *Selector) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SelectToday clears the user's current focus flags, ranks pending tasks by
// ROI and flags the winners. A candidate that loses its optimistic lock is
// skipped and counted, never retried.
func (s *Selector) SelectToday(ctx context.Context, userID string) (Result, error) {
	var result Result

	settings, err := s.repo.GetUserSettings(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("select focus: %w", err)
	}
	weights := roi.Resolve(settings.ImpactWeights)

	result.Cleared, err = s.repo.ClearFocus(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("select focus: %w", err)
	}

	candidates, err := s.repo.FindTasks(ctx, model.TaskFilter{UserID: userID, Status: model.StatusPending})
	if err != nil {
		return result, fmt.Errorf("select focus: %w", err)
	}

	for _, task := range roi.SelectTopTasks(candidates, s.count, weights) {
		updated, err := s.repo.ConditionalUpdateTask(ctx, task.ID, task.Version, model.Changes{
			FocusToday: model.Ptr(true),
		})
		if err != nil {
			log.Printf("Warning: focus: flag %s: %v", task.ID, err)
			result.Failed++
			continue
		}
		if updated == nil {
			log.Printf("focus: task %s changed concurrently, skipping", task.ID)
			result.Conflicts++
			continue
		}

		result.Selected = append(result.Selected, *updated)
		_ = s.audit.Log(ctx, userID, updated.ID, model.AuditFocusStarted,
			map[string]any{"focus_today": false}, map[string]any{"focus_today": true})
	}

	return result, nil
}
