package model

import (
	"encoding/json"
	"time"
)

type ImpactType string

const (
	ImpactRevenue     ImpactType = "revenue"
	ImpactGrowth      ImpactType = "growth"
	ImpactMaintenance ImpactType = "maintenance"
	ImpactVanity      ImpactType = "vanity"
)

// Valid reports whether t is one of the four known impact types.
func (t ImpactType) Valid() bool {
	switch t {
	case ImpactRevenue, ImpactGrowth, ImpactMaintenance, ImpactVanity:
		return true
	}
	return false
}

type EnergyType string

const (
	EnergyDeep    EnergyType = "deep"
	EnergyShallow EnergyType = "shallow"
)

func (e EnergyType) Valid() bool {
	return e == EnergyDeep || e == EnergyShallow
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	// StatusOverdue is accepted for stored rows but never written by the
	// escalation engine; overdue is derived from due_date at scan time.
	StatusOverdue Status = "overdue"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

func (r RecurrenceType) Valid() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

const (
	MinPriority = 1
	MaxPriority = 5

	// DefaultEstimate is applied when a task is created without an estimate.
	DefaultEstimate = 30
)

// Task is the central entity shared by the parser, ranker and escalation engine.
type Task struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	Title      string     `json:"title"`
	Domain     string     `json:"domain,omitempty"`
	Subdomain  string     `json:"subdomain,omitempty"`
	ImpactType ImpactType `json:"impact_type"`
	EnergyType EnergyType `json:"energy_type"`

	Priority      int        `json:"priority"`
	EstimatedTime int        `json:"estimated_time"` // minutes
	DueDate       *time.Time `json:"due_date,omitempty"`
	Status        Status     `json:"status"`
	MoneyImpact   bool       `json:"money_impact"`

	RecurrenceType RecurrenceType  `json:"recurrence_type,omitempty"`
	RecurrenceRule json.RawMessage `json:"recurrence_rule,omitempty"`

	FocusToday    bool `json:"focus_today"`
	ReminderLevel int  `json:"reminder_level"`
	DelayCount    int  `json:"delay_count"`

	IsDeleted  bool       `json:"is_deleted"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Live reports whether the task can still be selected or escalated.
func (t Task) Live() bool {
	return t.Status == StatusPending && !t.IsDeleted && t.ArchivedAt == nil
}

// OverdueAt reports whether a live task is past its due date at now.
func (t Task) OverdueAt(now time.Time) bool {
	return t.Live() && t.DueDate != nil && t.DueDate.Before(now)
}

// Changes lists the fields a conditional update may write. Nil fields are
// left untouched. Version and updated_at are managed by the repository.
type Changes struct {
	Title          *string
	Domain         *string
	Subdomain      *string
	ImpactType     *ImpactType
	EnergyType     *EnergyType
	Priority       *int
	EstimatedTime  *int
	DueDate        *time.Time
	ClearDueDate   bool
	Status         *Status
	MoneyImpact    *bool
	RecurrenceType *RecurrenceType
	RecurrenceRule json.RawMessage
	FocusToday     *bool
	ReminderLevel  *int
	DelayCount     *int
	IsDeleted      *bool
	ArchivedAt     *time.Time
}

// Empty reports whether no field would be written.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Domain == nil && c.Subdomain == nil &&
		c.ImpactType == nil && c.EnergyType == nil && c.Priority == nil &&
		c.EstimatedTime == nil && c.DueDate == nil && !c.ClearDueDate &&
		c.Status == nil && c.MoneyImpact == nil && c.RecurrenceType == nil &&
		c.RecurrenceRule == nil && c.FocusToday == nil && c.ReminderLevel == nil &&
		c.DelayCount == nil && c.IsDeleted == nil && c.ArchivedAt == nil
}

// TaskFilter selects tasks for FindTasks. Zero values mean "any", except
// that deleted and archived tasks are excluded unless explicitly included.
type TaskFilter struct {
	UserID     string
	Status     Status
	ImpactType ImpactType
	EnergyType EnergyType
	FocusToday *bool

	IncludeDeleted  bool
	IncludeArchived bool

	DueBefore     *time.Time
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedBefore *time.Time

	Limit int
}

// Ptr returns a pointer to v. Handy for building Changes and filters.
func Ptr[T any](v T) *T {
	return &v
}
