package daily

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

//go:embed batches.yaml
var defaultBatches []byte

// Template is one canned task in a daily batch.
type Template struct {
	Title         string           `yaml:"title"`
	Domain        string           `yaml:"domain"`
	Subdomain     string           `yaml:"subdomain"`
	Priority      int              `yaml:"priority"`
	ImpactType    model.ImpactType `yaml:"impact_type"`
	EnergyType    model.EnergyType `yaml:"energy_type"`
	EstimatedTime int              `yaml:"estimated_time"`
	DueHour       int              `yaml:"due_hour"`
}

// Batches holds the Sunday review batch and the batch used on every other day.
type Batches struct {
	Weekday []Template `yaml:"weekday"`
	Sunday  []Template `yaml:"sunday"`
}

// For returns the batch for day's weekday.
func (b Batches) For(day time.Time) []Template {
	if day.Weekday() == time.Sunday {
		return b.Sunday
	}
	return b.Weekday
}

func (b Batches) Validate() error {
	if len(b.Weekday) == 0 {
		return fmt.Errorf("daily: weekday batch is empty")
	}
	if len(b.Sunday) == 0 {
		return fmt.Errorf("daily: sunday batch is empty")
	}
	for _, group := range [][]Template{b.Weekday, b.Sunday} {
		for i, t := range group {
			if err := t.validate(); err != nil {
				return fmt.Errorf("daily: template %d (%q): %w", i, t.Title, err)
			}
		}
	}
	return nil
}

func (t Template) validate() error {
	switch {
	case strings.TrimSpace(t.Title) == "":
		return fmt.Errorf("title is empty")
	case t.Priority < model.MinPriority || t.Priority > model.MaxPriority:
		return fmt.Errorf("priority %d out of range", t.Priority)
	case !t.ImpactType.Valid():
		return fmt.Errorf("unknown impact type %q", t.ImpactType)
	case !t.EnergyType.Valid():
		return fmt.Errorf("unknown energy type %q", t.EnergyType)
	case t.EstimatedTime <= 0:
		return fmt.Errorf("estimated_time must be positive")
	case t.DueHour < 0 || t.DueHour > 23:
		return fmt.Errorf("due_hour %d out of range", t.DueHour)
	}
	return nil
}

// ParseBatches decodes and validates a batch definition.
func ParseBatches(data []byte) (Batches, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Batches{}, fmt.Errorf("daily: batch payload is empty")
	}
	var b Batches
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Batches{}, fmt.Errorf("daily: decode batches: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Batches{}, err
	}
	return b, nil
}

// DefaultBatches returns the built-in batches.
func DefaultBatches() Batches {
	b, err := ParseBatches(defaultBatches)
	if err != nil {
		panic(err)
	}
	return b
}

// LoadBatches reads batches from path, or returns the built-in ones when
// path is empty.
func LoadBatches(path string) (Batches, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultBatches(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Batches{}, fmt.Errorf("daily: read %s: %w", path, err)
	}
	b, err := ParseBatches(data)
	if err != nil {
		return Batches{}, fmt.Errorf("daily: %s: %w", path, err)
	}
	return b, nil
}
