package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/audit"
	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/parser"
	"github.com/harrisonrobin/lifeos/pkg/store"
)

// DefaultRetention is how long completed tasks stay visible before archival.
const DefaultRetention = 30 * 24 * time.Hour

type Repository interface {
	InsertTask(ctx context.Context, task model.Task) (model.Task, error)
	GetTask(ctx context.Context, id string) (model.Task, error)
	FindTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	ConditionalUpdateTask(ctx context.Context, id string, expectedVersion int, changes model.Changes) (*model.Task, error)
}

// Service is the task CRUD boundary. Every mutation is validated first,
// written under optimistic locking, and audited best-effort.
type Service struct {
	repo  Repository
	audit *audit.Logger
	now   func() time.Time
}

func NewService(repo Repository, auditor *audit.Logger) *Service {
	return &Service{repo: repo, audit: auditor, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Create(ctx context.Context, userID string, d Draft) (model.Task, error) {
	task, err := d.task(userID)
	if err != nil {
		return model.Task{}, err
	}
	created, err := s.repo.InsertTask(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	_ = s.audit.Log(ctx, userID, created.ID, model.AuditCreated, nil, created)
	return created, nil
}

// ParseDraft turns free text into a draft using the service clock. Callers
// may adjust the draft before passing it to Create.
func (s *Service) ParseDraft(text string) (Draft, parser.ParsedTask) {
	parsed := parser.ParseTaskInputAt(text, s.now())
	return Draft{
		Title:    parsed.Title,
		Domain:   parsed.Domain,
		Priority: parsed.Priority,
		DueDate:  parsed.DueDate,
	}, parsed
}

// CreateFromText parses free text into a draft and creates it. The parse
// result is returned so callers can show the extracted tags.
func (s *Service) CreateFromText(ctx context.Context, userID, text string) (model.Task, parser.ParsedTask, error) {
	d, parsed := s.ParseDraft(text)
	task, err := s.Create(ctx, userID, d)
	return task, parsed, err
}

// Get returns a live or archived task owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (model.Task, error) {
	if id == "" {
		return model.Task{}, invalid("id", "is required")
	}
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("get task: %w", err)
	}
	if task.IsDeleted || task.UserID != userID {
		return model.Task{}, ErrNotFound
	}
	return task, nil
}

// Lookup resolves ref as a full task id or, failing that, as a unique id
// prefix among userID's tasks.
func (s *Service) Lookup(ctx context.Context, userID, ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	task, err := s.Get(ctx, userID, ref)
	if !errors.Is(err, ErrNotFound) {
		return task, err
	}

	all, err := s.List(ctx, userID, model.TaskFilter{IncludeArchived: true})
	if err != nil {
		return model.Task{}, err
	}
	var match *model.Task
	for i := range all {
		if !strings.HasPrefix(all[i].ID, ref) {
			continue
		}
		if match != nil {
			return model.Task{}, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
		}
		match = &all[i]
	}
	if match == nil {
		return model.Task{}, ErrNotFound
	}
	return *match, nil
}

// List returns userID's tasks. Deleted tasks are never listed.
func (s *Service) List(ctx context.Context, userID string, filter model.TaskFilter) ([]model.Task, error) {
	filter.UserID = userID
	filter.IncludeDeleted = false
	tasks, err := s.repo.FindTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Update applies p if the task is still at version. A stale version yields
// ErrConflict; nothing is retried.
func (s *Service) Update(ctx context.Context, userID, id string, version int, p Patch) (model.Task, error) {
	if err := p.Validate(); err != nil {
		return model.Task{}, err
	}
	return s.apply(ctx, userID, id, version, p.changes(), model.AuditUpdated)
}

// SetStatus moves a task between pending and completed.
func (s *Service) SetStatus(ctx context.Context, userID, id string, version int, status model.Status) (model.Task, error) {
	if !status.Valid() {
		return model.Task{}, invalid("status", "unknown value %q", status)
	}
	return s.apply(ctx, userID, id, version, model.Changes{Status: &status}, model.AuditStatusChanged)
}

// Delete tombstones a task. The row is kept.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	_, err = s.write(ctx, current, model.Changes{IsDeleted: model.Ptr(true)}, model.AuditDeleted)
	return err
}

func (s *Service) apply(ctx context.Context, userID, id string, version int, changes model.Changes, action model.AuditAction) (model.Task, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Task{}, err
	}
	if current.Version != version {
		return model.Task{}, ErrConflict
	}
	return s.write(ctx, current, changes, action)
}

func (s *Service) write(ctx context.Context, current model.Task, changes model.Changes, action model.AuditAction) (model.Task, error) {
	updated, err := s.repo.ConditionalUpdateTask(ctx, current.ID, current.Version, changes)
	if err != nil {
		return model.Task{}, fmt.Errorf("%s task: %w", action, err)
	}
	if updated == nil {
		return model.Task{}, ErrConflict
	}
	_ = s.audit.Log(ctx, current.UserID, current.ID, action, current, *updated)
	return *updated, nil
}

// ArchiveReport counts the outcome of an archive sweep.
type ArchiveReport struct {
	Archived  []string
	Conflicts int
	Failed    int
}

// Archive stamps archived_at on completed tasks untouched for longer than
// retention (DefaultRetention when <= 0), across all users.
func (s *Service) Archive(ctx context.Context, retention time.Duration) (ArchiveReport, error) {
	var report ArchiveReport
	if retention <= 0 {
		retention = DefaultRetention
	}
	now := s.now()
	cutoff := now.Add(-retention)

	stale, err := s.repo.FindTasks(ctx, model.TaskFilter{
		Status:        model.StatusCompleted,
		UpdatedBefore: &cutoff,
	})
	if err != nil {
		return report, fmt.Errorf("archive: %w", err)
	}

	for _, task := range stale {
		updated, err := s.repo.ConditionalUpdateTask(ctx, task.ID, task.Version, model.Changes{ArchivedAt: &now})
		if err != nil {
			log.Printf("Warning: archive task %s: %v", task.ID, err)
			report.Failed++
			continue
		}
		if updated == nil {
			report.Conflicts++
			continue
		}
		report.Archived = append(report.Archived, task.ID)
		_ = s.audit.Log(ctx, task.UserID, task.ID, model.AuditArchived,
			map[string]any{"archived_at": nil}, map[string]any{"archived_at": now.UTC()})
	}
	return report, nil
}
