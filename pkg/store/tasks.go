package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harrisonrobin/lifeos/pkg/model"
)

const taskColumns = `id, user_id, title, domain, subdomain, impact_type, energy_type, priority,
	estimated_time, due_date, status, money_impact, recurrence_type, recurrence_rule,
	focus_today, reminder_level, delay_count, is_deleted, archived_at, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var task model.Task
	var domain, subdomain, recurrenceType, recurrenceRule sql.NullString
	var dueDate, archivedAt sql.NullString
	var impact, energy, status string
	var moneyImpact, focusToday, isDeleted int
	var createdAt, updatedAt string

	err := row.Scan(&task.ID, &task.UserID, &task.Title, &domain, &subdomain, &impact, &energy,
		&task.Priority, &task.EstimatedTime, &dueDate, &status, &moneyImpact, &recurrenceType,
		&recurrenceRule, &focusToday, &task.ReminderLevel, &task.DelayCount, &isDeleted,
		&archivedAt, &task.Version, &createdAt, &updatedAt)
	if err != nil {
		return model.Task{}, err
	}

	task.Domain = domain.String
	task.Subdomain = subdomain.String
	task.ImpactType = model.ImpactType(impact)
	task.EnergyType = model.EnergyType(energy)
	task.Status = model.Status(status)
	task.MoneyImpact = moneyImpact != 0
	task.FocusToday = focusToday != 0
	task.IsDeleted = isDeleted != 0
	task.RecurrenceType = model.RecurrenceType(recurrenceType.String)
	if recurrenceRule.Valid {
		task.RecurrenceRule = json.RawMessage(recurrenceRule.String)
	}

	if dueDate.Valid {
		t, err := parseTime(dueDate.String)
		if err != nil {
			return model.Task{}, fmt.Errorf("parse due_date: %w", err)
		}
		task.DueDate = &t
	}
	if archivedAt.Valid {
		t, err := parseTime(archivedAt.String)
		if err != nil {
			return model.Task{}, fmt.Errorf("parse archived_at: %w", err)
		}
		task.ArchivedAt = &t
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Task{}, fmt.Errorf("parse created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Task{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return task, nil
}

// InsertTask stores a new task. The id, version and timestamps are assigned
// here; whatever the caller put in those fields is ignored.
func (s *Store) InsertTask(ctx context.Context, task model.Task) (model.Task, error) {
	if s == nil || s.db == nil {
		return model.Task{}, fmt.Errorf("insert task: store is nil")
	}
	if strings.TrimSpace(task.Title) == "" {
		return model.Task{}, fmt.Errorf("insert task: title is empty")
	}
	if task.UserID == "" {
		return model.Task{}, fmt.Errorf("insert task: user id is empty")
	}

	now := s.now()
	task.ID = uuid.NewString()
	task.Version = 1
	task.CreatedAt = now.UTC().Truncate(0)
	task.UpdatedAt = task.CreatedAt

	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.UserID, task.Title, nullString(task.Domain), nullString(task.Subdomain),
		string(task.ImpactType), string(task.EnergyType), task.Priority, task.EstimatedTime,
		nullTime(task.DueDate), string(task.Status), boolInt(task.MoneyImpact),
		nullString(string(task.RecurrenceType)), nullBytes(task.RecurrenceRule),
		boolInt(task.FocusToday), task.ReminderLevel, task.DelayCount, boolInt(task.IsDeleted),
		nullTime(task.ArchivedAt), task.Version, formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, task.ID)
}

// GetTask returns the task with id, including tombstoned and archived ones.
func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	if s == nil || s.db == nil {
		return model.Task{}, fmt.Errorf("get task: store is nil")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, fmt.Errorf("get task %s: %w", id, ErrNotFound)
		}
		return model.Task{}, fmt.Errorf("get task: scan: %w", err)
	}
	return task, nil
}

// FindTasks returns tasks matching filter ordered by priority desc, then
// created_at desc.
func (s *Store) FindTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("find tasks: store is nil")
	}

	var where []string
	var args []any
	add := func(clause string, arg ...any) {
		where = append(where, clause)
		args = append(args, arg...)
	}

	if filter.UserID != "" {
		add("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		add("status = ?", string(filter.Status))
	}
	if filter.ImpactType != "" {
		add("impact_type = ?", string(filter.ImpactType))
	}
	if filter.EnergyType != "" {
		add("energy_type = ?", string(filter.EnergyType))
	}
	if filter.FocusToday != nil {
		add("focus_today = ?", boolInt(*filter.FocusToday))
	}
	if !filter.IncludeDeleted {
		add("is_deleted = 0")
	}
	if !filter.IncludeArchived {
		add("archived_at IS NULL")
	}
	if filter.DueBefore != nil {
		add("due_date IS NOT NULL AND due_date < ?", formatTime(*filter.DueBefore))
	}
	if filter.CreatedAfter != nil {
		add("created_at >= ?", formatTime(*filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		add("created_at < ?", formatTime(*filter.CreatedBefore))
	}
	if filter.UpdatedBefore != nil {
		add("updated_at < ?", formatTime(*filter.UpdatedBefore))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY priority DESC, created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find tasks: query: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("find tasks: scan: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find tasks: rows: %w", err)
	}
	return tasks, nil
}

// ConditionalUpdateTask applies changes only if the stored version still
// equals expectedVersion, bumping version by one. It returns (nil, nil) when
// the version no longer matches or the id does not exist.
func (s *Store) ConditionalUpdateTask(ctx context.Context, id string, expectedVersion int, changes model.Changes) (*model.Task, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("conditional update: store is nil")
	}

	sets := []string{"version = version + 1", "updated_at = ?"}
	args := []any{formatTime(s.now())}
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if changes.Title != nil {
		set("title", *changes.Title)
	}
	if changes.Domain != nil {
		set("domain", nullString(*changes.Domain))
	}
	if changes.Subdomain != nil {
		set("subdomain", nullString(*changes.Subdomain))
	}
	if changes.ImpactType != nil {
		set("impact_type", string(*changes.ImpactType))
	}
	if changes.EnergyType != nil {
		set("energy_type", string(*changes.EnergyType))
	}
	if changes.Priority != nil {
		set("priority", *changes.Priority)
	}
	if changes.EstimatedTime != nil {
		set("estimated_time", *changes.EstimatedTime)
	}
	if changes.ClearDueDate {
		set("due_date", nil)
	} else if changes.DueDate != nil {
		set("due_date", formatTime(*changes.DueDate))
	}
	if changes.Status != nil {
		set("status", string(*changes.Status))
	}
	if changes.MoneyImpact != nil {
		set("money_impact", boolInt(*changes.MoneyImpact))
	}
	if changes.RecurrenceType != nil {
		set("recurrence_type", nullString(string(*changes.RecurrenceType)))
	}
	if changes.RecurrenceRule != nil {
		set("recurrence_rule", nullBytes(changes.RecurrenceRule))
	}
	if changes.FocusToday != nil {
		set("focus_today", boolInt(*changes.FocusToday))
	}
	if changes.ReminderLevel != nil {
		set("reminder_level", *changes.ReminderLevel)
	}
	if changes.DelayCount != nil {
		set("delay_count", *changes.DelayCount)
	}
	if changes.IsDeleted != nil {
		set("is_deleted", boolInt(*changes.IsDeleted))
	}
	if changes.ArchivedAt != nil {
		set("archived_at", formatTime(*changes.ArchivedAt))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("conditional update: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	args = append(args, id, expectedVersion)
	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND version = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("conditional update: update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("conditional update: rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("conditional update: reload: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("conditional update: commit: %w", err)
	}
	return &task, nil
}

// ClearFocus drops the focus flag from every focused task of userID in one
// statement, bumping each row's version. It returns the number of rows cleared.
func (s *Store) ClearFocus(ctx context.Context, userID string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("clear focus: store is nil")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET focus_today = 0, version = version + 1, updated_at = ?
		 WHERE user_id = ? AND focus_today = 1`,
		formatTime(s.now()), userID)
	if err != nil {
		return 0, fmt.Errorf("clear focus: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear focus: rows affected: %w", err)
	}
	return int(n), nil
}

// ListUserIDs returns every user that owns at least one task.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("list users: store is nil")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM tasks ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list users: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: rows: %w", err)
	}
	return ids, nil
}
