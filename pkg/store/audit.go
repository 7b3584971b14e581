package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

// InsertAuditLog appends an audit entry. Entries are never updated or deleted.
func (s *Store) InsertAuditLog(ctx context.Context, entry model.AuditLogEntry) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("insert audit log: store is nil")
	}
	if entry.UserID == "" {
		return fmt.Errorf("insert audit log: user id is empty")
	}
	if !entry.Action.Valid() {
		return fmt.Errorf("insert audit log: invalid action %q", entry.Action)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_logs (task_id, user_id, action, previous_state, new_state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nullString(entry.TaskID), entry.UserID, string(entry.Action),
		nullBytes(entry.PreviousState), nullBytes(entry.NewState), formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("insert audit log: insert: %w", err)
	}
	return nil
}

// ListAuditLogs returns up to limit entries, newest first. An empty taskID
// lists entries for every task.
func (s *Store) ListAuditLogs(ctx context.Context, taskID string, limit int) ([]model.AuditLogEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("list audit logs: store is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, task_id, user_id, action, previous_state, new_state, created_at FROM task_logs`
	var args []any
	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: query: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditLogEntry, 0)
	for rows.Next() {
		var entry model.AuditLogEntry
		var taskIDValue, previous, next sql.NullString
		var action, createdAt string

		if err := rows.Scan(&entry.ID, &taskIDValue, &entry.UserID, &action, &previous, &next, &createdAt); err != nil {
			return nil, fmt.Errorf("list audit logs: scan: %w", err)
		}
		entry.TaskID = taskIDValue.String
		entry.Action = model.AuditAction(action)
		if previous.Valid {
			entry.PreviousState = json.RawMessage(previous.String)
		}
		if next.Valid {
			entry.NewState = json.RawMessage(next.String)
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("list audit logs: parse created_at: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit logs: rows: %w", err)
	}
	return entries, nil
}

// GetUserSettings returns the stored settings for userID, or zero settings
// when none have been saved.
func (s *Store) GetUserSettings(ctx context.Context, userID string) (model.Settings, error) {
	if s == nil || s.db == nil {
		return model.Settings{}, fmt.Errorf("get settings: store is nil")
	}

	settings := model.Settings{UserID: userID}
	var weights sql.NullString
	var focusDuration sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT impact_weights, focus_duration FROM user_settings WHERE user_id = ?`, userID).
		Scan(&weights, &focusDuration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return settings, nil
		}
		return model.Settings{}, fmt.Errorf("get settings: scan: %w", err)
	}

	if weights.Valid && weights.String != "" {
		if err := json.Unmarshal([]byte(weights.String), &settings.ImpactWeights); err != nil {
			return model.Settings{}, fmt.Errorf("get settings: decode impact_weights: %w", err)
		}
	}
	if focusDuration.Valid {
		settings.FocusDuration = int(focusDuration.Int64)
	}
	return settings, nil
}

// SaveUserSettings upserts settings for settings.UserID.
func (s *Store) SaveUserSettings(ctx context.Context, settings model.Settings) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("save settings: store is nil")
	}
	if settings.UserID == "" {
		return fmt.Errorf("save settings: user id is empty")
	}

	var weights any
	if len(settings.ImpactWeights) > 0 {
		b, err := json.Marshal(settings.ImpactWeights)
		if err != nil {
			return fmt.Errorf("save settings: encode impact_weights: %w", err)
		}
		weights = string(b)
	}
	var focusDuration any
	if settings.FocusDuration > 0 {
		focusDuration = settings.FocusDuration
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, impact_weights, focus_duration, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   impact_weights = excluded.impact_weights,
		   focus_duration = excluded.focus_duration,
		   updated_at = excluded.updated_at`,
		settings.UserID, weights, focusDuration, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("save settings: upsert: %w", err)
	}
	return nil
}

// ClaimDailyRun records that daily tasks were generated for userID on day
// (YYYY-MM-DD). It reports false when the day was already claimed.
func (s *Store) ClaimDailyRun(ctx context.Context, userID, day string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("claim daily run: store is nil")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_runs (user_id, day, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, day) DO NOTHING`,
		userID, day, formatTime(s.now()))
	if err != nil {
		return false, fmt.Errorf("claim daily run: insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim daily run: rows affected: %w", err)
	}
	return n == 1, nil
}

// ImportedTaskID returns the task created for an external item, or "" when
// the item was never imported.
func (s *Store) ImportedTaskID(ctx context.Context, userID, source, externalID string) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("imported task id: store is nil")
	}
	var taskID string
	err := s.db.QueryRowContext(ctx,
		`SELECT task_id FROM task_imports WHERE user_id = ? AND source = ? AND external_id = ?`,
		userID, source, externalID).Scan(&taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("imported task id: scan: %w", err)
	}
	return taskID, nil
}

// RecordImport remembers that externalID from source became taskID.
func (s *Store) RecordImport(ctx context.Context, userID, source, externalID, taskID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("record import: store is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_imports (user_id, source, external_id, task_id, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, source, external_id) DO UPDATE SET task_id = excluded.task_id`,
		userID, source, externalID, taskID, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("record import: insert: %w", err)
	}
	return nil
}
