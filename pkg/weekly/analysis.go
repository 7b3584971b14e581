package weekly

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/roi"
)

// Window is the look-back period of the weekly analysis.
const Window = 7 * 24 * time.Hour

const uncategorized = "Uncategorized"

const (
	InsightNoTasks         = "No tasks found this week. Start creating tasks to see insights!"
	InsightLowExecution    = "⚠️ Execution ratio is critically low. Focus on completing existing tasks before adding new ones."
	InsightBusyWork        = "🔴 Over 40% of your tasks are vanity/busy work. Redirect energy to revenue tasks."
	InsightLowRevenue      = "💰 Revenue task completion is below 50%. Prioritize money-making activities."
	InsightStrongExecution = "🟢 Strong execution this week! Consider increasing task complexity."
	InsightSteady          = "📊 Steady progress. Keep focusing on high-ROI tasks."
)

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MissedTask is the most valuable task that slipped during the window.
type MissedTask struct {
	Title  string           `json:"title"`
	Impact model.ImpactType `json:"impact"`
	Delay  int              `json:"delay"`
}

// Analysis is the weekly execution report. Ratios are fractions in [0,1]
// rounded to four decimals.
type Analysis struct {
	Period                   Period      `json:"period"`
	ExecutionRatio           float64     `json:"executionRatio"`
	TasksCreated             int         `json:"tasksCreated"`
	TasksCompleted           int         `json:"tasksCompleted"`
	MostDelayedSubdomain     string      `json:"mostDelayedSubdomain,omitempty"`
	HighestROIMissed         *MissedTask `json:"highestROIMissed,omitempty"`
	BusyWorkPercent          float64     `json:"busyWorkPercent"`
	RevenueCompletionPercent float64     `json:"revenueCompletionPercent"`
	DeepWorkMinutes          int         `json:"deepWorkMinutes"`
	TopInsight               string      `json:"topInsight"`
}

// Analyze aggregates the non-deleted tasks created in the week ending at now.
// Tasks outside the window are ignored, so callers may pass a superset.
func Analyze(tasks []model.Task, now time.Time, weights roi.Weights) Analysis {
	start := now.Add(-Window)
	a := Analysis{Period: Period{Start: start, End: now}}

	var week []model.Task
	for _, t := range tasks {
		if t.IsDeleted || t.CreatedAt.Before(start) {
			continue
		}
		week = append(week, t)
	}
	if len(week) == 0 {
		a.TopInsight = InsightNoTasks
		return a
	}

	var vanity, revenue, revenueDone int
	delays := map[string]int{}
	var delayOrder []string
	var missed []model.Task

	for _, t := range week {
		done := t.Status == model.StatusCompleted
		if done {
			a.TasksCompleted++
			if t.EnergyType == model.EnergyDeep {
				a.DeepWorkMinutes += t.EstimatedTime
			}
		}
		switch t.ImpactType {
		case model.ImpactVanity:
			vanity++
		case model.ImpactRevenue:
			revenue++
			if done {
				revenueDone++
			}
		}
		if t.DelayCount > 0 {
			key := t.Subdomain
			if key == "" {
				key = uncategorized
			}
			if _, seen := delays[key]; !seen {
				delayOrder = append(delayOrder, key)
			}
			delays[key] += t.DelayCount
			if !done {
				missed = append(missed, t)
			}
		}
	}

	a.TasksCreated = len(week)
	execution := ratio(a.TasksCompleted, a.TasksCreated)
	busy := ratio(vanity, a.TasksCreated)
	revenueRate := ratio(revenueDone, revenue)

	best := 0
	for _, key := range delayOrder {
		if delays[key] > best {
			best = delays[key]
			a.MostDelayedSubdomain = key
		}
	}

	if len(missed) > 0 {
		sort.SliceStable(missed, func(i, j int) bool {
			return missedScore(missed[i], weights) > missedScore(missed[j], weights)
		})
		top := missed[0]
		a.HighestROIMissed = &MissedTask{Title: top.Title, Impact: top.ImpactType, Delay: top.DelayCount}
	}

	a.ExecutionRatio = round4(execution)
	a.BusyWorkPercent = round4(busy)
	a.RevenueCompletionPercent = round4(revenueRate)
	a.TopInsight = Insight(execution, busy, revenueRate)
	return a
}

// Insight picks the headline for the week. Rules are checked in order and
// the first match wins.
func Insight(execution, busy, revenue float64) string {
	switch {
	case execution < 0.3:
		return InsightLowExecution
	case busy > 0.4:
		return InsightBusyWork
	case revenue < 0.5:
		return InsightLowRevenue
	case execution > 0.7:
		return InsightStrongExecution
	default:
		return InsightSteady
	}
}

func missedScore(t model.Task, weights roi.Weights) float64 {
	return weights.Weight(t.ImpactType) * float64(t.Priority)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Repository is what the Analyzer reads from.
type Repository interface {
	FindTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	GetUserSettings(ctx context.Context, userID string) (model.Settings, error)
}

// Analyzer runs the weekly analysis and metrics against a repository.
type Analyzer struct {
	repo Repository
	now  func() time.Time
}

func NewAnalyzer(repo Repository) *Analyzer {
	return &Analyzer{repo: repo, now: time.Now}
}

func (a *Analyzer) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

// Weekly analyses userID's last seven days. An empty userID covers every user
// with the default weights.
func (a *Analyzer) Weekly(ctx context.Context, userID string) (Analysis, error) {
	now := a.now()
	start := now.Add(-Window)

	weights := roi.DefaultWeights
	if userID != "" {
		settings, err := a.repo.GetUserSettings(ctx, userID)
		if err != nil {
			return Analysis{}, fmt.Errorf("weekly analysis: %w", err)
		}
		weights = roi.Resolve(settings.ImpactWeights)
	}

	tasks, err := a.repo.FindTasks(ctx, model.TaskFilter{
		UserID:          userID,
		CreatedAfter:    &start,
		IncludeArchived: true,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("weekly analysis: %w", err)
	}
	return Analyze(tasks, now, weights), nil
}

// Metrics snapshots userID's live (non-deleted, non-archived) tasks.
func (a *Analyzer) Metrics(ctx context.Context, userID string) (Metrics, error) {
	tasks, err := a.repo.FindTasks(ctx, model.TaskFilter{UserID: userID})
	if err != nil {
		return Metrics{}, fmt.Errorf("metrics: %w", err)
	}
	return ComputeMetrics(tasks, a.now()), nil
}
