package taskwarrior

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/tasks"
)

const (
	PENDING   = "pending"
	COMPLETED = "completed"
	WAITING   = "waiting"
	DELETED   = "deleted"
)

type CustomTime struct {
	time.Time
}

const taskwarriorTimeLayout = "20060102T150405Z" // YYYYMMDDTHHMMSSZ, always UTC

func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(taskwarriorTimeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse Taskwarrior time string '%s': %w", s, err)
	}
	ct.Time = t
	return nil
}

func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.Time.Format(taskwarriorTimeLayout) + `"`), nil
}

// Task is the subset of a Taskwarrior export record that maps onto a LifeOS task.
type Task struct {
	UUID        string      `json:"uuid"`
	Description string      `json:"description"`
	Due         *CustomTime `json:"due,omitempty"`
	Scheduled   *CustomTime `json:"scheduled,omitempty"`
	Status      string      `json:"status"`
	Project     string      `json:"project,omitempty"`
	Priority    string      `json:"priority,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	// est is a UDA holding an ISO 8601 duration such as PT1H30M.
	Est string `json:"est,omitempty"`
}

// Importable reports whether the task is still open in Taskwarrior.
func (t Task) Importable() bool {
	return t.Status == PENDING || t.Status == WAITING
}

var priorities = map[string]int{"H": 5, "M": 3, "L": 1}

// ToDraft maps the task onto a LifeOS draft. Projects split on the first
// dot into domain and subdomain. Tags naming an impact type or "deep" set
// those fields.
func (t Task) ToDraft() (tasks.Draft, error) {
	d := tasks.Draft{
		Title:    t.Description,
		Priority: priorities[strings.ToUpper(t.Priority)],
	}

	domain, sub, _ := strings.Cut(t.Project, ".")
	d.Domain, d.Subdomain = domain, sub

	switch {
	case t.Due != nil && !t.Due.IsZero():
		due := t.Due.Time
		d.DueDate = &due
	case t.Scheduled != nil && !t.Scheduled.IsZero():
		due := t.Scheduled.Time
		d.DueDate = &due
	}

	for _, tag := range t.Tags {
		tag = strings.ToLower(tag)
		if impact := model.ImpactType(tag); impact.Valid() {
			d.ImpactType = impact
		}
		if tag == string(model.EnergyDeep) {
			d.EnergyType = model.EnergyDeep
		}
	}

	est, err := ParseDuration(t.Est)
	if err != nil {
		return d, err
	}
	if est > 0 {
		d.EstimatedTime = int(math.Ceil(est.Minutes()))
	}
	return d, nil
}

var durationPart = regexp.MustCompile(`(\d+)([HMS])`)

// ParseDuration parses the ISO 8601 durations (PT1H30M) Taskwarrior exports.
// An empty string is zero.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	rest, ok := strings.CutPrefix(s, "PT")
	if !ok {
		return 0, fmt.Errorf("invalid ISO 8601 duration format: %s", s)
	}

	var total time.Duration
	for _, match := range durationPart.FindAllStringSubmatch(rest, -1) {
		value, _ := strconv.Atoi(match[1])
		switch match[2] {
		case "H":
			total += time.Duration(value) * time.Hour
		case "M":
			total += time.Duration(value) * time.Minute
		case "S":
			total += time.Duration(value) * time.Second
		}
	}

	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: %s", s)
	}
	return total, nil
}
