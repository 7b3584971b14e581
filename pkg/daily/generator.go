package daily

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/audit"
	"github.com/harrisonrobin/lifeos/pkg/model"
)

// ErrAlreadyGenerated is returned when the user's batch for today exists.
var ErrAlreadyGenerated = errors.New("daily tasks already generated today")

type Repository interface {
	InsertTask(ctx context.Context, task model.Task) (model.Task, error)
	ClaimDailyRun(ctx context.Context, userID, day string) (bool, error)
}

type Options struct {
	Batches  Batches
	Location *time.Location
	// AllowDuplicates skips the once-per-day guard.
	AllowDuplicates bool
}

type Generator struct {
	repo            Repository
	audit           *audit.Logger
	batches         Batches
	loc             *time.Location
	allowDuplicates bool
	now             func() time.Time
}

// NewGenerator uses the built-in batches and the local zone unless opts
// says otherwise.
func NewGenerator(repo Repository, auditor *audit.Logger, opts Options) *Generator {
	g := &Generator{
		repo:            repo,
		audit:           auditor,
		batches:         opts.Batches,
		loc:             opts.Location,
		allowDuplicates: opts.AllowDuplicates,
		now:             time.Now,
	}
	if len(g.batches.Weekday) == 0 || len(g.batches.Sunday) == 0 {
		g.batches = DefaultBatches()
	}
	if g.loc == nil {
		g.loc = time.Local
	}
	return g
}

func (g *Generator) SetClock(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

// Build materialises the batch for day without touching the repository.
func (g *Generator) Build(userID string, day time.Time) []model.Task {
	day = day.In(g.loc)
	templates := g.batches.For(day)
	tasks := make([]model.Task, 0, len(templates))
	for _, t := range templates {
		due := time.Date(day.Year(), day.Month(), day.Day(), t.DueHour, 0, 0, 0, g.loc)
		tasks = append(tasks, model.Task{
			UserID:        userID,
			Title:         t.Title,
			Domain:        t.Domain,
			Subdomain:     t.Subdomain,
			ImpactType:    t.ImpactType,
			EnergyType:    t.EnergyType,
			Priority:      t.Priority,
			EstimatedTime: t.EstimatedTime,
			DueDate:       &due,
			Status:        model.StatusPending,
			MoneyImpact:   t.ImpactType == model.ImpactRevenue,
		})
	}
	return tasks
}

// Generate inserts today's batch for userID. Unless duplicates are allowed,
// a second call on the same local day returns ErrAlreadyGenerated. On a
// failed insert the tasks stored so far are returned with the error.
func (g *Generator) Generate(ctx context.Context, userID string) ([]model.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("daily: user id is empty")
	}
	today := g.now().In(g.loc)

	if !g.allowDuplicates {
		claimed, err := g.repo.ClaimDailyRun(ctx, userID, today.Format("2006-01-02"))
		if err != nil {
			return nil, fmt.Errorf("daily: %w", err)
		}
		if !claimed {
			return nil, ErrAlreadyGenerated
		}
	}

	var created []model.Task
	for _, task := range g.Build(userID, today) {
		stored, err := g.repo.InsertTask(ctx, task)
		if err != nil {
			return created, fmt.Errorf("daily: insert %q: %w", task.Title, err)
		}
		created = append(created, stored)
		_ = g.audit.Log(ctx, userID, stored.ID, model.AuditCreated, nil, stored)
	}
	return created, nil
}

// GenerateAll runs Generate for every user. Users already served today are
// skipped quietly; other failures are logged and do not stop the loop.
func (g *Generator) GenerateAll(ctx context.Context, userIDs []string) map[string][]model.Task {
	out := make(map[string][]model.Task, len(userIDs))
	for _, id := range userIDs {
		tasks, err := g.Generate(ctx, id)
		if err != nil {
			if !errors.Is(err, ErrAlreadyGenerated) {
				log.Printf("Warning: daily: user %s: %v", id, err)
			}
			if len(tasks) == 0 {
				continue
			}
		}
		out[id] = tasks
	}
	return out
}
