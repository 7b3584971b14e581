package model

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditCreated       AuditAction = "created"
	AuditUpdated       AuditAction = "updated"
	AuditDeleted       AuditAction = "deleted"
	AuditEscalated     AuditAction = "escalated"
	AuditFocusStarted  AuditAction = "focus_started"
	AuditArchived      AuditAction = "archived"
	AuditStatusChanged AuditAction = "status_changed"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditCreated, AuditUpdated, AuditDeleted, AuditEscalated,
		AuditFocusStarted, AuditArchived, AuditStatusChanged:
		return true
	}
	return false
}

// AuditLogEntry is an append-only record of one task state transition.
// TaskID is empty for session-level events.
type AuditLogEntry struct {
	ID            int64           `json:"id"`
	TaskID        string          `json:"task_id,omitempty"`
	UserID        string          `json:"user_id"`
	Action        AuditAction     `json:"action"`
	PreviousState json.RawMessage `json:"previous_state,omitempty"`
	NewState      json.RawMessage `json:"new_state,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Settings are per-user preferences. ImpactWeights may be nil, in which case
// the ranker falls back to its defaults.
type Settings struct {
	UserID        string                 `json:"user_id"`
	ImpactWeights map[ImpactType]float64 `json:"impact_weights,omitempty"`
	FocusDuration int                    `json:"focus_duration,omitempty"` // minutes
}

type ReminderAction string

const (
	ReminderSoft      ReminderAction = "soft"
	ReminderStrong    ReminderAction = "strong"
	ReminderCritical  ReminderAction = "critical"
	ReminderImmediate ReminderAction = "immediate"
)

// Reminder describes one escalation step taken on an overdue task.
type Reminder struct {
	TaskID  string         `json:"task_id"`
	UserID  string         `json:"user_id"`
	Title   string         `json:"title"`
	Level   int            `json:"level"`
	Action  ReminderAction `json:"action"`
	Message string         `json:"message"`
}
