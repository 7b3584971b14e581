package daily

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/audit"
	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/store"
)

var (
	thursday = time.Date(2026, 10, 15, 7, 30, 0, 0, time.UTC)
	sunday   = time.Date(2026, 10, 18, 7, 30, 0, 0, time.UTC)
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, closeDB, err := store.OpenStore(filepath.Join(t.TempDir(), "daily.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(closeDB)
	return st
}

func TestDefaultBatches(t *testing.T) {
	b := DefaultBatches()
	if len(b.Weekday) != 4 {
		t.Errorf("Expected 4 weekday templates, got %d", len(b.Weekday))
	}
	if len(b.Sunday) != 3 {
		t.Errorf("Expected 3 sunday templates, got %d", len(b.Sunday))
	}
	if len(b.For(sunday)) != 3 || len(b.For(thursday)) != 4 {
		t.Error("For picked the wrong batch")
	}
}

func TestBuildStampsDueHoursAndMoneyImpact(t *testing.T) {
	g := NewGenerator(nil, nil, Options{Location: time.UTC})
	tasks := g.Build("u1", thursday)

	wantHours := []int{12, 16, 19, 10}
	for i, task := range tasks {
		if task.DueDate == nil {
			t.Fatalf("%s: missing due date", task.Title)
		}
		due := *task.DueDate
		if due.Year() != 2026 || due.Month() != time.October || due.Day() != 15 || due.Hour() != wantHours[i] {
			t.Errorf("%s: unexpected due %v", task.Title, due)
		}
		if task.MoneyImpact != (task.ImpactType == model.ImpactRevenue) {
			t.Errorf("%s: money_impact does not follow impact type", task.Title)
		}
		if task.Status != model.StatusPending || task.UserID != "u1" {
			t.Errorf("%s: unexpected status/user %s/%s", task.Title, task.Status, task.UserID)
		}
	}
}

func TestBuildUsesConfiguredZone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	g := NewGenerator(nil, nil, Options{Location: loc})

	// 20:00 UTC on Saturday is already Sunday in IST.
	tasks := g.Build("u1", time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC))
	if len(tasks) != 3 {
		t.Fatalf("Expected the sunday batch, got %d tasks", len(tasks))
	}
	want := time.Date(2026, 10, 18, 12, 0, 0, 0, loc)
	if !tasks[0].DueDate.Equal(want) {
		t.Errorf("Expected %v, got %v", want, tasks[0].DueDate)
	}
}

func TestGenerateGuardsOncePerDay(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	g := NewGenerator(st, audit.New(st), Options{Location: time.UTC})
	g.SetClock(func() time.Time { return thursday })

	first, err := g.Generate(ctx, "u1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(first) != 4 {
		t.Fatalf("Expected 4 tasks, got %d", len(first))
	}
	for _, task := range first {
		if task.ID == "" || task.Version != 1 {
			t.Errorf("Expected stored task, got %+v", task)
		}
	}

	if _, err := g.Generate(ctx, "u1"); !errors.Is(err, ErrAlreadyGenerated) {
		t.Errorf("Expected ErrAlreadyGenerated, got %v", err)
	}

	// A different user and a different day are independent.
	if other, err := g.Generate(ctx, "u2"); err != nil || len(other) != 4 {
		t.Errorf("Expected u2 batch, got %d tasks, err %v", len(other), err)
	}
	g.SetClock(func() time.Time { return sunday })
	if next, err := g.Generate(ctx, "u1"); err != nil || len(next) != 3 {
		t.Errorf("Expected sunday batch, got %d tasks, err %v", len(next), err)
	}

	all, err := st.FindTasks(ctx, model.TaskFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("FindTasks failed: %v", err)
	}
	if len(all) != 7 {
		t.Errorf("Expected 7 stored tasks for u1, got %d", len(all))
	}

	logs, err := st.ListAuditLogs(ctx, "", 100)
	if err != nil {
		t.Fatalf("ListAuditLogs failed: %v", err)
	}
	if len(logs) != 11 {
		t.Errorf("Expected one created entry per task (11), got %d", len(logs))
	}
}

func TestGenerateAllowDuplicates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	g := NewGenerator(st, audit.New(st), Options{Location: time.UTC, AllowDuplicates: true})
	g.SetClock(func() time.Time { return thursday })
	for i := 0; i < 2; i++ {
		if _, err := g.Generate(ctx, "u1"); err != nil {
			t.Fatalf("run %d: Generate failed: %v", i, err)
		}
	}

	all, err := st.FindTasks(ctx, model.TaskFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("FindTasks failed: %v", err)
	}
	if len(all) != 8 {
		t.Errorf("Expected two full batches, got %d tasks", len(all))
	}
}

func TestGenerateAllSkipsServedUsers(t *testing.T) {
	st := openTestStore(t)
	g := NewGenerator(st, audit.New(st), Options{Location: time.UTC})
	g.SetClock(func() time.Time { return thursday })

	if _, err := g.Generate(context.Background(), "u1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := g.GenerateAll(context.Background(), []string{"u1", "u2"})
	if _, ok := out["u1"]; ok {
		t.Error("Expected u1 to be skipped")
	}
	if len(out["u2"]) != 4 {
		t.Errorf("Expected u2 batch, got %d", len(out["u2"]))
	}
}

func TestLoadBatches(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	data := []byte(`
weekday:
  - {title: Ship, priority: 4, impact_type: revenue, energy_type: deep, estimated_time: 60, due_hour: 11}
sunday:
  - {title: Rest, priority: 1, impact_type: maintenance, energy_type: shallow, estimated_time: 30, due_hour: 20}
`)
	if err := os.WriteFile(good, data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	b, err := LoadBatches(good)
	if err != nil {
		t.Fatalf("LoadBatches failed: %v", err)
	}
	if len(b.Weekday) != 1 || b.Weekday[0].Title != "Ship" || b.Sunday[0].DueHour != 20 {
		t.Errorf("Unexpected batches: %+v", b)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("weekday:\n  - {title: X, priority: 9, impact_type: revenue, energy_type: deep, estimated_time: 5}\nsunday: []\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadBatches(bad); err == nil {
		t.Error("Expected validation error")
	}

	if b, err := LoadBatches(""); err != nil || len(b.Weekday) != 4 {
		t.Errorf("Expected built-in batches for empty path, got %v", err)
	}
}
