package overdue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/audit"
	"github.com/harrisonrobin/lifeos/pkg/model"
)

const (
	// MicroTaskThreshold is the delay count from which every pass spawns a micro-task.
	MicroTaskThreshold = 2

	microTaskMinutes = 15
	microTaskDueIn   = 2 * time.Hour
)

// Repository is the subset of the task store the engine needs.
type Repository interface {
	FindTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	ConditionalUpdateTask(ctx context.Context, id string, expectedVersion int, changes model.Changes) (*model.Task, error)
	InsertTask(ctx context.Context, task model.Task) (model.Task, error)
}

// Report summarises one escalation pass. Results only holds tasks whose
// escalation was committed; lost optimistic locks are counted in Conflicts.
type Report struct {
	Results    []model.Reminder
	MicroTasks []model.Task
	Conflicts  int
	Failed     int
}

type Engine struct {
	repo     Repository
	audit    *audit.Logger
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time
}

// NewEngine wires an escalation engine. A nil notifier disables delivery;
// reminders are still logged.
func NewEngine(repo Repository, auditor *audit.Logger, notifier Notifier) *Engine {
	return &Engine{
		repo:     repo,
		audit:    auditor,
		notifier: notifier,
		logger:   log.Default(),
		now:      time.Now,
	}
}

func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// SetLogger redirects the per-reminder JSON records.
func (e *Engine) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Classify maps a task's priority and current level to a reminder action.
// Priority 5 is always immediate.
func Classify(priority, level int) model.ReminderAction {
	switch {
	case priority == model.MaxPriority:
		return model.ReminderImmediate
	case level <= 0:
		return model.ReminderSoft
	case level == 1:
		return model.ReminderStrong
	default:
		return model.ReminderCritical
	}
}

// Message renders the user-facing text for action.
func Message(action model.ReminderAction, title string) string {
	switch action {
	case model.ReminderImmediate:
		return fmt.Sprintf(`🚨 CRITICAL: "%s" is overdue and high priority!`, title)
	case model.ReminderSoft:
		return fmt.Sprintf(`📋 Reminder: "%s" is past due.`, title)
	case model.ReminderStrong:
		return fmt.Sprintf(`⚠️ Strong reminder: "%s" needs attention NOW.`, title)
	default:
		return fmt.Sprintf(`🔴 ESCALATION: "%s" has been overdue for too long!`, title)
	}
}

// MicroTask builds the remediation task spawned for a chronically delayed parent.
func MicroTask(parent model.Task, now time.Time) model.Task {
	priority := parent.Priority + 1
	if priority > model.MaxPriority {
		priority = model.MaxPriority
	}
	due := now.Add(microTaskDueIn)
	return model.Task{
		UserID:        parent.UserID,
		Title:         "[Micro] " + parent.Title + " — 15 min sprint",
		Domain:        parent.Domain,
		Subdomain:     parent.Subdomain,
		ImpactType:    parent.ImpactType,
		EnergyType:    model.EnergyShallow,
		Priority:      priority,
		EstimatedTime: microTaskMinutes,
		DueDate:       &due,
		Status:        model.StatusPending,
		MoneyImpact:   parent.MoneyImpact,
	}
}

// Run performs one escalation pass over every overdue live task. Each task is
// handled independently: a lost lock or a failed micro-task insert never
// stops the rest of the pass. Only the initial scan can fail the pass.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	var report Report
	now := e.now()

	overdue, err := e.repo.FindTasks(ctx, model.TaskFilter{
		Status:    model.StatusPending,
		DueBefore: &now,
	})
	if err != nil {
		return report, fmt.Errorf("escalation: find overdue: %w", err)
	}

	for _, task := range overdue {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if !task.OverdueAt(now) {
			continue
		}

		action := Classify(task.Priority, task.ReminderLevel)
		updated, err := e.repo.ConditionalUpdateTask(ctx, task.ID, task.Version, model.Changes{
			ReminderLevel: model.Ptr(task.ReminderLevel + 1),
			DelayCount:    model.Ptr(task.DelayCount + 1),
		})
		if err != nil {
			log.Printf("Warning: escalation: update task %s: %v", task.ID, err)
			report.Failed++
			continue
		}
		if updated == nil {
			report.Conflicts++
			continue
		}

		_ = e.audit.Log(ctx, task.UserID, task.ID, model.AuditEscalated,
			levels(task.ReminderLevel, task.DelayCount),
			levels(updated.ReminderLevel, updated.DelayCount))

		reminder := model.Reminder{
			TaskID:  updated.ID,
			UserID:  updated.UserID,
			Title:   updated.Title,
			Level:   updated.ReminderLevel,
			Action:  action,
			Message: Message(action, updated.Title),
		}
		report.Results = append(report.Results, reminder)
		e.record(reminder, *updated, now)

		if e.notifier != nil {
			if err := e.notifier.Notify(ctx, reminder); err != nil {
				log.Printf("Warning: escalation: notify task %s: %v", task.ID, err)
			}
		}

		if updated.DelayCount >= MicroTaskThreshold {
			micro, err := e.repo.InsertTask(ctx, MicroTask(*updated, now))
			if err != nil {
				log.Printf("Warning: escalation: micro-task for %s: %v", task.ID, err)
				continue
			}
			report.MicroTasks = append(report.MicroTasks, micro)
			_ = e.audit.Log(ctx, micro.UserID, micro.ID, model.AuditCreated, nil, micro)
		}
	}

	return report, nil
}

func levels(reminder, delay int) map[string]int {
	return map[string]int{"reminder_level": reminder, "delay_count": delay}
}

type reminderRecord struct {
	Type          string               `json:"type"`
	Action        model.ReminderAction `json:"action"`
	TaskID        string               `json:"task_id"`
	Title         string               `json:"title"`
	Priority      int                  `json:"priority"`
	ReminderLevel int                  `json:"reminder_level"`
	DelayCount    int                  `json:"delay_count"`
	Timestamp     time.Time            `json:"timestamp"`
}

// record prints one JSON line per reminder for downstream delivery channels.
func (e *Engine) record(r model.Reminder, task model.Task, now time.Time) {
	b, err := json.Marshal(reminderRecord{
		Type:          "reminder",
		Action:        r.Action,
		TaskID:        r.TaskID,
		Title:         r.Title,
		Priority:      task.Priority,
		ReminderLevel: task.ReminderLevel,
		DelayCount:    task.DelayCount,
		Timestamp:     now.UTC(),
	})
	if err != nil {
		log.Printf("Warning: escalation: encode reminder record: %v", err)
		return
	}
	e.logger.Print(string(b))
}
