package parser

import (
	"reflect"
	"testing"
	"time"
)

// Thursday afternoon.
var now = time.Date(2026, 10, 15, 14, 30, 0, 0, time.Local)

func TestParseTaskInputFullExample(t *testing.T) {
	got := ParseTaskInputAt("Call Ravi tomorrow high priority #sales @work", now)

	if got.Title != "Call Ravi" {
		t.Errorf("Expected title 'Call Ravi', got '%s'", got.Title)
	}
	if got.Priority != 5 {
		t.Errorf("Expected priority 5, got %d", got.Priority)
	}
	want := time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local)
	if got.DueDate == nil || !got.DueDate.Equal(want) {
		t.Errorf("Expected due date %v, got %v", want, got.DueDate)
	}
	if !reflect.DeepEqual(got.Tags, []string{"sales"}) {
		t.Errorf("Expected tags [sales], got %v", got.Tags)
	}
	if got.Domain != "work" {
		t.Errorf("Expected domain 'work', got '%s'", got.Domain)
	}
}

func TestParseTaskInputPlainText(t *testing.T) {
	got := ParseTaskInputAt("  Buy   milk ", now)
	if got.Title != "Buy milk" {
		t.Errorf("Expected title 'Buy milk', got '%s'", got.Title)
	}
	if got.Priority != 0 || got.DueDate != nil || got.Domain != "" {
		t.Errorf("Expected no extracted fields, got %+v", got)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Expected empty non-nil tags, got %#v", got.Tags)
	}
}

func TestParseTaskInputPriorityTiers(t *testing.T) {
	tests := []struct {
		input    string
		priority int
		title    string
	}{
		{"Fix prod URGENT", 5, "Fix prod"},
		{"Write report !high", 5, "Write report"},
		{"Important: call bank", 5, ": call bank"},
		{"Tidy desk medium priority", 3, "Tidy desk"},
		{"Tidy desk !medium", 3, "Tidy desk"},
		{"Water plants low priority", 1, "Water plants"},
		{"Water plants !low", 1, "Water plants"},
		{"urgent but also low priority", 5, "but also"},
		{"unimportant chores", 0, "unimportant chores"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseTaskInputAt(tt.input, now)
			if got.Priority != tt.priority {
				t.Errorf("priority: got %d, want %d", got.Priority, tt.priority)
			}
			if got.Title != tt.title {
				t.Errorf("title: got %q, want %q", got.Title, tt.title)
			}
		})
	}
}

func TestParseTaskInputDates(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"Ship it tomorrow", time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local)},
		{"Ship it TODAY", time.Date(2026, 10, 15, 18, 0, 0, 0, time.Local)},
		{"Ship it next week", time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local)},
		// tomorrow outranks today when both appear.
		{"today or tomorrow", time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local)},
		{"Review todays notes", time.Date(2026, 10, 15, 18, 0, 0, 0, time.Local)},
		{"Plan Tomorrowland trip", time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local)},
		{"Roadmap for nextweek", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseTaskInputAt(tt.input, now)
			if tt.want.IsZero() {
				if got.DueDate != nil {
					t.Fatalf("expected no due date, got %v", *got.DueDate)
				}
				return
			}
			if got.DueDate == nil {
				t.Fatalf("expected a due date")
			}
			if !got.DueDate.Equal(tt.want) {
				t.Errorf("got %v, want %v", *got.DueDate, tt.want)
			}
		})
	}
}

func TestParseTaskInputDateInsideWord(t *testing.T) {
	got := ParseTaskInputAt("Plan Tomorrowland trip", now)
	if got.Title != "Plan land trip" {
		t.Errorf("Expected title 'Plan land trip', got '%s'", got.Title)
	}
}

func TestNextMondayOnMonday(t *testing.T) {
	monday := time.Date(2026, 10, 19, 8, 0, 0, 0, time.Local)
	got := ParseTaskInputAt("plan next week", monday)
	want := time.Date(2026, 10, 26, 9, 0, 0, 0, time.Local)
	if got.DueDate == nil || !got.DueDate.Equal(want) {
		t.Errorf("got %v, want %v", got.DueDate, want)
	}
}

func TestParseTaskInputTagsAndDomain(t *testing.T) {
	got := ParseTaskInputAt("#a Draft #b_2 deck @Client @Other", now)
	if !reflect.DeepEqual(got.Tags, []string{"a", "b_2"}) {
		t.Errorf("Expected tags [a b_2], got %v", got.Tags)
	}
	if got.Domain != "Client" {
		t.Errorf("Expected first domain 'Client', got '%s'", got.Domain)
	}
	if got.Title != "Draft deck" {
		t.Errorf("Expected title 'Draft deck', got '%s'", got.Title)
	}
}

func TestParseTaskInputIdempotent(t *testing.T) {
	inputs := []string{
		"Call Ravi tomorrow high priority #sales @work",
		"Buy milk",
		"urgent urgent urgent",
		"next tomorrow week",
		"high #x priority",
		"to#tagday report",
		"@a @b @c notes",
		"today today !low !high",
		"Review todays notes",
		"Plan Tomorrowland trip",
		"totodayday",
		"",
		"   ",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first := ParseTaskInputAt(in, now)
			second := ParseTaskInputAt(first.Title, now)
			if second.Priority != 0 || second.DueDate != nil || len(second.Tags) != 0 || second.Domain != "" {
				t.Errorf("re-parse of %q extracted fields: %+v", first.Title, second)
			}
			if second.Title != first.Title {
				t.Errorf("re-parse changed title: %q -> %q", first.Title, second.Title)
			}
		})
	}
}
