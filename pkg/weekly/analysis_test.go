package weekly

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/roi"
	"github.com/harrisonrobin/lifeos/pkg/store"
)

var now = time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)

func task(title string, impact model.ImpactType, status model.Status) model.Task {
	return model.Task{
		Title:         title,
		ImpactType:    impact,
		EnergyType:    model.EnergyShallow,
		Priority:      3,
		EstimatedTime: 30,
		Status:        status,
		CreatedAt:     now.Add(-24 * time.Hour),
	}
}

func TestAnalyzeEmptyWeek(t *testing.T) {
	old := task("ancient", model.ImpactRevenue, model.StatusCompleted)
	old.CreatedAt = now.Add(-8 * 24 * time.Hour)

	a := Analyze([]model.Task{old}, now, roi.DefaultWeights)
	if a.TopInsight != InsightNoTasks {
		t.Errorf("Expected no-tasks insight, got %q", a.TopInsight)
	}
	if a.TasksCreated != 0 || a.HighestROIMissed != nil || a.MostDelayedSubdomain != "" {
		t.Errorf("Expected zero analysis, got %+v", a)
	}
	if !a.Period.End.Equal(now) || !a.Period.Start.Equal(now.Add(-Window)) {
		t.Errorf("Unexpected period %+v", a.Period)
	}
}

func TestAnalyzeLowExecutionWinsOverOtherRules(t *testing.T) {
	// 1 of 4 completed (25%), half vanity, no revenue completed: every
	// negative rule applies, the execution rule must win.
	tasks := []model.Task{
		task("a", model.ImpactVanity, model.StatusCompleted),
		task("b", model.ImpactVanity, model.StatusPending),
		task("c", model.ImpactRevenue, model.StatusPending),
		task("d", model.ImpactGrowth, model.StatusPending),
	}
	a := Analyze(tasks, now, roi.DefaultWeights)
	if a.ExecutionRatio != 0.25 {
		t.Errorf("Expected execution 0.25, got %v", a.ExecutionRatio)
	}
	if a.BusyWorkPercent != 0.5 || a.RevenueCompletionPercent != 0 {
		t.Errorf("Unexpected percentages busy=%v revenue=%v", a.BusyWorkPercent, a.RevenueCompletionPercent)
	}
	if a.TopInsight != InsightLowExecution {
		t.Errorf("Expected low execution insight, got %q", a.TopInsight)
	}
}

func TestInsightOrder(t *testing.T) {
	tests := []struct {
		name                     string
		execution, busy, revenue float64
		want                     string
	}{
		{"low execution", 0.29, 0.9, 0, InsightLowExecution},
		{"busy work", 0.5, 0.41, 0, InsightBusyWork},
		{"low revenue", 0.8, 0.1, 0.49, InsightLowRevenue},
		{"strong", 0.71, 0.1, 0.5, InsightStrongExecution},
		{"steady", 0.5, 0.4, 0.5, InsightSteady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Insight(tt.execution, tt.busy, tt.revenue); got != tt.want {
				t.Errorf("Insight(%v, %v, %v) = %q, want %q", tt.execution, tt.busy, tt.revenue, got, tt.want)
			}
		})
	}
}

func TestAnalyzeDelaysAndMissed(t *testing.T) {
	sales := task("follow up", model.ImpactRevenue, model.StatusPending)
	sales.Subdomain = "Sales"
	sales.DelayCount = 2
	sales.Priority = 4

	blog := task("blog", model.ImpactGrowth, model.StatusPending)
	blog.Subdomain = "Content"
	blog.DelayCount = 1
	blog.Priority = 5

	loose := task("tidy desk", model.ImpactVanity, model.StatusPending)
	loose.DelayCount = 4

	finished := task("late but done", model.ImpactRevenue, model.StatusCompleted)
	finished.Subdomain = "Sales"
	finished.DelayCount = 1
	finished.Priority = 5
	finished.EnergyType = model.EnergyDeep
	finished.EstimatedTime = 90

	deleted := task("gone", model.ImpactRevenue, model.StatusPending)
	deleted.IsDeleted = true
	deleted.DelayCount = 10

	a := Analyze([]model.Task{sales, blog, loose, finished, deleted}, now, roi.DefaultWeights)

	if a.TasksCreated != 4 || a.TasksCompleted != 1 {
		t.Errorf("Expected 4 created and 1 completed, got %d and %d", a.TasksCreated, a.TasksCompleted)
	}
	if a.MostDelayedSubdomain != uncategorized {
		t.Errorf("Expected %s to be most delayed, got %q", uncategorized, a.MostDelayedSubdomain)
	}
	// revenue 5*4=20 beats growth 3*5=15; completed tasks are not missed.
	if a.HighestROIMissed == nil || a.HighestROIMissed.Title != "follow up" || a.HighestROIMissed.Delay != 2 {
		t.Errorf("Unexpected highest ROI missed: %+v", a.HighestROIMissed)
	}
	if a.DeepWorkMinutes != 90 {
		t.Errorf("Expected 90 deep work minutes, got %d", a.DeepWorkMinutes)
	}
	if a.RevenueCompletionPercent != 0.5 {
		t.Errorf("Expected revenue completion 0.5, got %v", a.RevenueCompletionPercent)
	}
}

func TestAnalyzeRoundsRatios(t *testing.T) {
	tasks := []model.Task{
		task("a", model.ImpactRevenue, model.StatusCompleted),
		task("b", model.ImpactRevenue, model.StatusCompleted),
		task("c", model.ImpactRevenue, model.StatusPending),
	}
	a := Analyze(tasks, now, roi.DefaultWeights)
	if a.ExecutionRatio != 0.6667 {
		t.Errorf("Expected 0.6667, got %v", a.ExecutionRatio)
	}
	if a.TopInsight != InsightSteady {
		t.Errorf("Expected steady insight, got %q", a.TopInsight)
	}
}

func TestComputeMetrics(t *testing.T) {
	past := now.Add(-time.Hour)
	archived := now.Add(-time.Hour)

	deep := task("deep", model.ImpactRevenue, model.StatusCompleted)
	deep.EnergyType = model.EnergyDeep
	deep.EstimatedTime = 120
	late := task("late", model.ImpactRevenue, model.StatusPending)
	late.DueDate = &past
	vain := task("vain", model.ImpactVanity, model.StatusPending)
	shelved := task("shelved", model.ImpactRevenue, model.StatusCompleted)
	shelved.ArchivedAt = &archived

	m := ComputeMetrics([]model.Task{deep, late, vain, shelved}, now)
	want := Metrics{
		ExecutionRatio:    33,
		RevenueCompletion: 50,
		VanityPercent:     33,
		OverduePercent:    33,
		TotalTasks:        3,
		CompletedTasks:    1,
		DeepWorkMinutes:   120,
	}
	if m != want {
		t.Errorf("ComputeMetrics = %+v, want %+v", m, want)
	}

	if (ComputeMetrics(nil, now) != Metrics{}) {
		t.Error("Expected zero metrics for no tasks")
	}
}

func TestAnalyzerReadsStore(t *testing.T) {
	st, closeDB, err := store.OpenStore(filepath.Join(t.TempDir(), "weekly.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer closeDB()
	ctx := context.Background()

	st.SetClock(func() time.Time { return now.Add(-10 * 24 * time.Hour) })
	old := task("old", model.ImpactRevenue, model.StatusPending)
	old.UserID = "u1"
	if _, err := st.InsertTask(ctx, old); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	st.SetClock(func() time.Time { return now.Add(-time.Hour) })
	for _, tk := range []model.Task{
		task("done", model.ImpactRevenue, model.StatusCompleted),
		task("open", model.ImpactGrowth, model.StatusPending),
	} {
		tk.UserID = "u1"
		if _, err := st.InsertTask(ctx, tk); err != nil {
			t.Fatalf("InsertTask failed: %v", err)
		}
	}
	other := task("other user", model.ImpactVanity, model.StatusPending)
	other.UserID = "u2"
	if _, err := st.InsertTask(ctx, other); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	an := NewAnalyzer(st)
	an.SetClock(func() time.Time { return now })

	a, err := an.Weekly(ctx, "u1")
	if err != nil {
		t.Fatalf("Weekly failed: %v", err)
	}
	if a.TasksCreated != 2 || a.TasksCompleted != 1 || a.ExecutionRatio != 0.5 {
		t.Errorf("Unexpected analysis: %+v", a)
	}

	m, err := an.Metrics(ctx, "u1")
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if m.TotalTasks != 3 || m.CompletedTasks != 1 {
		t.Errorf("Unexpected metrics: %+v", m)
	}
}
