package tasks

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

// Draft is the input for creating a task. Zero values take defaults:
// priority 3, maintenance impact, shallow energy, 30 minutes, and
// money_impact following the impact type.
type Draft struct {
	Title          string
	Domain         string
	Subdomain      string
	Priority       int
	ImpactType     model.ImpactType
	EnergyType     model.EnergyType
	EstimatedTime  int
	DueDate        *time.Time
	RecurrenceType model.RecurrenceType
	RecurrenceRule json.RawMessage
	MoneyImpact    *bool
}

const (
	DefaultPriority = 3
	DefaultImpact   = model.ImpactMaintenance
	DefaultEnergy   = model.EnergyShallow
)

func (d Draft) task(userID string) (model.Task, error) {
	t := model.Task{
		UserID:         userID,
		Title:          strings.TrimSpace(d.Title),
		Domain:         strings.TrimSpace(d.Domain),
		Subdomain:      strings.TrimSpace(d.Subdomain),
		Priority:       d.Priority,
		ImpactType:     d.ImpactType,
		EnergyType:     d.EnergyType,
		EstimatedTime:  d.EstimatedTime,
		DueDate:        d.DueDate,
		Status:         model.StatusPending,
		RecurrenceType: d.RecurrenceType,
		RecurrenceRule: d.RecurrenceRule,
	}
	if userID == "" {
		return t, invalid("user_id", "is required")
	}
	if t.Title == "" {
		return t, invalid("title", "is required")
	}
	if t.Priority == 0 {
		t.Priority = DefaultPriority
	}
	if t.ImpactType == "" {
		t.ImpactType = DefaultImpact
	}
	if t.EnergyType == "" {
		t.EnergyType = DefaultEnergy
	}
	if t.EstimatedTime == 0 {
		t.EstimatedTime = model.DefaultEstimate
	}
	if d.MoneyImpact != nil {
		t.MoneyImpact = *d.MoneyImpact
	} else {
		t.MoneyImpact = t.ImpactType == model.ImpactRevenue
	}

	if err := checkPriority(t.Priority); err != nil {
		return t, err
	}
	if !t.ImpactType.Valid() {
		return t, invalid("impact_type", "unknown value %q", t.ImpactType)
	}
	if !t.EnergyType.Valid() {
		return t, invalid("energy_type", "unknown value %q", t.EnergyType)
	}
	if t.EstimatedTime < 0 {
		return t, invalid("estimated_time", "must be positive")
	}
	if err := checkRecurrence(t.RecurrenceType, t.RecurrenceRule); err != nil {
		return t, err
	}
	return t, nil
}

// Patch enumerates the fields a caller may change on an existing task.
// Nil fields are left alone. ClearDueDate removes the due date and wins
// over DueDate.
type Patch struct {
	Title          *string
	Domain         *string
	Subdomain      *string
	Priority       *int
	ImpactType     *model.ImpactType
	EnergyType     *model.EnergyType
	EstimatedTime  *int
	DueDate        *time.Time
	ClearDueDate   bool
	Status         *model.Status
	RecurrenceType *model.RecurrenceType
	RecurrenceRule json.RawMessage
	MoneyImpact    *bool
	FocusToday     *bool
}

// Validate checks every set field. An empty patch is rejected.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if p.Priority != nil {
		if err := checkPriority(*p.Priority); err != nil {
			return err
		}
	}
	if p.ImpactType != nil && !p.ImpactType.Valid() {
		return invalid("impact_type", "unknown value %q", *p.ImpactType)
	}
	if p.EnergyType != nil && !p.EnergyType.Valid() {
		return invalid("energy_type", "unknown value %q", *p.EnergyType)
	}
	if p.EstimatedTime != nil && *p.EstimatedTime <= 0 {
		return invalid("estimated_time", "must be positive")
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", "unknown value %q", *p.Status)
	}
	if p.RecurrenceType != nil {
		if err := checkRecurrence(*p.RecurrenceType, p.RecurrenceRule); err != nil {
			return err
		}
	} else if p.RecurrenceRule != nil && !json.Valid(p.RecurrenceRule) {
		return invalid("recurrence_rule", "is not valid JSON")
	}
	if p.changes().Empty() {
		return invalid("patch", "no fields to update")
	}
	return nil
}

func (p Patch) changes() model.Changes {
	c := model.Changes{
		Domain:         p.Domain,
		Subdomain:      p.Subdomain,
		Priority:       p.Priority,
		ImpactType:     p.ImpactType,
		EnergyType:     p.EnergyType,
		EstimatedTime:  p.EstimatedTime,
		ClearDueDate:   p.ClearDueDate,
		Status:         p.Status,
		RecurrenceType: p.RecurrenceType,
		RecurrenceRule: p.RecurrenceRule,
		MoneyImpact:    p.MoneyImpact,
		FocusToday:     p.FocusToday,
	}
	if p.Title != nil {
		c.Title = model.Ptr(strings.TrimSpace(*p.Title))
	}
	if !p.ClearDueDate {
		c.DueDate = p.DueDate
	}
	return c
}

func checkPriority(p int) error {
	if p < model.MinPriority || p > model.MaxPriority {
		return invalid("priority", "%d is outside %d..%d", p, model.MinPriority, model.MaxPriority)
	}
	return nil
}

func checkRecurrence(t model.RecurrenceType, rule json.RawMessage) error {
	if t != "" && !t.Valid() {
		return invalid("recurrence_type", "unknown value %q", t)
	}
	if rule != nil && !json.Valid(rule) {
		return invalid("recurrence_rule", "is not valid JSON")
	}
	return nil
}
