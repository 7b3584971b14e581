package focus

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/audit"
	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, closeDB, err := store.OpenStore(filepath.Join(t.TempDir(), "focus.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(closeDB)
	return st
}

func insert(t *testing.T, st *store.Store, title string, impact model.ImpactType, priority, minutes int, mutate func(*model.Task)) model.Task {
	t.Helper()
	task := model.Task{
		UserID:        "u1",
		Title:         title,
		ImpactType:    impact,
		EnergyType:    model.EnergyDeep,
		Priority:      priority,
		EstimatedTime: minutes,
		Status:        model.StatusPending,
	}
	if mutate != nil {
		mutate(&task)
	}
	created, err := st.InsertTask(context.Background(), task)
	if err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	return created
}

// racingRepo lets another writer bump a task just before the selector writes it.
type racingRepo struct {
	*store.Store
	raceID string
}

func (r *racingRepo) ConditionalUpdateTask(ctx context.Context, id string, version int, changes model.Changes) (*model.Task, error) {
	if id == r.raceID {
		if _, err := r.Store.ConditionalUpdateTask(ctx, id, version, model.Changes{Title: model.Ptr("edited elsewhere")}); err != nil {
			return nil, err
		}
	}
	return r.Store.ConditionalUpdateTask(ctx, id, version, changes)
}

func TestSelectTodayFlagsTopThree(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	stale := insert(t, st, "yesterday's focus", model.ImpactVanity, 1, 120, func(t *model.Task) { t.FocusToday = true })
	insert(t, st, "big deal", model.ImpactRevenue, 5, 30, nil)
	insert(t, st, "blog post", model.ImpactGrowth, 4, 60, nil)
	insert(t, st, "invoice", model.ImpactRevenue, 4, 15, nil)
	insert(t, st, "refactor", model.ImpactMaintenance, 2, 240, nil)
	insert(t, st, "deleted gem", model.ImpactRevenue, 5, 5, func(t *model.Task) { t.IsDeleted = true })
	insert(t, st, "done gem", model.ImpactRevenue, 5, 5, func(t *model.Task) { t.Status = model.StatusCompleted })

	res, err := NewSelector(st, audit.New(st), 3).SelectToday(ctx, "u1")
	if err != nil {
		t.Fatalf("SelectToday failed: %v", err)
	}
	if res.Cleared != 1 {
		t.Errorf("Expected 1 cleared flag, got %d", res.Cleared)
	}
	if res.Conflicts != 0 {
		t.Errorf("Expected no conflicts, got %d", res.Conflicts)
	}

	want := []string{"invoice", "big deal", "blog post"}
	if len(res.Selected) != len(want) {
		t.Fatalf("Expected %d selected, got %d", len(want), len(res.Selected))
	}
	for i, title := range want {
		if res.Selected[i].Title != title {
			t.Errorf("position %d: got %s, want %s", i, res.Selected[i].Title, title)
		}
		if !res.Selected[i].FocusToday {
			t.Errorf("%s: expected focus flag", title)
		}
	}

	old, err := st.GetTask(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if old.FocusToday {
		t.Error("Expected previous focus flag to be cleared")
	}

	logs, err := st.ListAuditLogs(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListAuditLogs failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("Expected 3 audit entries, got %d", len(logs))
	}
	for _, l := range logs {
		if l.Action != model.AuditFocusStarted {
			t.Errorf("Unexpected audit action %s", l.Action)
		}
	}
}

func TestSelectTodaySkipsConflicts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	contested := insert(t, st, "big deal", model.ImpactRevenue, 5, 30, nil)
	insert(t, st, "blog post", model.ImpactGrowth, 4, 60, nil)

	repo := &racingRepo{Store: st, raceID: contested.ID}
	res, err := NewSelector(repo, audit.New(st), 3).SelectToday(ctx, "u1")
	if err != nil {
		t.Fatalf("SelectToday failed: %v", err)
	}
	if res.Conflicts != 1 {
		t.Errorf("Expected 1 conflict, got %d", res.Conflicts)
	}
	if len(res.Selected) != 1 || res.Selected[0].Title != "blog post" {
		t.Errorf("Expected the uncontested task to be selected, got %v", res.Selected)
	}

	got, err := st.GetTask(ctx, contested.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.FocusToday {
		t.Error("Contested task must not be flagged")
	}
}

func TestSelectTodayUsesUserWeights(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	insert(t, st, "revenue", model.ImpactRevenue, 3, 30, nil)
	insert(t, st, "vanity", model.ImpactVanity, 3, 30, nil)
	if err := st.SaveUserSettings(ctx, model.Settings{
		UserID:        "u1",
		ImpactWeights: map[model.ImpactType]float64{model.ImpactVanity: 10, model.ImpactRevenue: 1},
	}); err != nil {
		t.Fatalf("SaveUserSettings failed: %v", err)
	}

	res, err := NewSelector(st, audit.New(st), 1).SelectToday(ctx, "u1")
	if err != nil {
		t.Fatalf("SelectToday failed: %v", err)
	}
	if len(res.Selected) != 1 || res.Selected[0].Title != "vanity" {
		t.Errorf("Expected user weights to favour vanity, got %v", res.Selected)
	}
}

func TestSelectTodayNoCandidates(t *testing.T) {
	st := openTestStore(t)
	res, err := NewSelector(st, audit.New(st), 0).SelectToday(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("SelectToday failed: %v", err)
	}
	if len(res.Selected) != 0 || res.Cleared != 0 || res.Conflicts != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
}

// brokenRepo fails writes to one task.
type brokenRepo struct {
	*store.Store
	brokenID string
}

func (r *brokenRepo) ConditionalUpdateTask(ctx context.Context, id string, version int, changes model.Changes) (*model.Task, error) {
	if id == r.brokenID {
		return nil, errors.New("disk full")
	}
	return r.Store.ConditionalUpdateTask(ctx, id, version, changes)
}

type failingAudit struct{}

func (failingAudit) InsertAuditLog(ctx context.Context, entry model.AuditLogEntry) error {
	return errors.New("audit table locked")
}

func TestSelectTodayContinuesPastFailures(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	broken := insert(t, st, "big deal", model.ImpactRevenue, 5, 30, nil)
	insert(t, st, "blog post", model.ImpactGrowth, 4, 60, nil)
	insert(t, st, "invoice", model.ImpactRevenue, 4, 15, nil)

	res, err := NewSelector(&brokenRepo{Store: st, brokenID: broken.ID}, audit.New(st), 3).SelectToday(ctx, "u1")
	if err != nil {
		t.Fatalf("SelectToday failed: %v", err)
	}
	if res.Failed != 1 || res.Conflicts != 0 {
		t.Errorf("Expected 1 failure and no conflicts, got %+v", res)
	}
	if len(res.Selected) != 2 {
		t.Fatalf("Expected the other 2 tasks flagged, got %d", len(res.Selected))
	}
	for _, task := range res.Selected {
		if task.ID == broken.ID {
			t.Error("Failed task must not be reported as selected")
		}
	}
}

func TestSelectTodaySurvivesAuditFailure(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	task := insert(t, st, "big deal", model.ImpactRevenue, 5, 30, nil)

	res, err := NewSelector(st, audit.New(failingAudit{}), 3).SelectToday(ctx, "u1")
	if err != nil {
		t.Fatalf("SelectToday failed: %v", err)
	}
	if len(res.Selected) != 1 {
		t.Fatalf("Expected 1 selected, got %d", len(res.Selected))
	}
	got, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if !got.FocusToday {
		t.Error("Focus flag must persist when the audit write fails")
	}
}

func TestStartSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	sel := NewSelector(st, audit.New(st), 3)
	sel.SetClock(func() time.Time { return now })

	session, err := sel.StartSession(ctx, "u1", SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if session.Minutes != DefaultSessionMinutes {
		t.Errorf("Expected %d minutes, got %d", DefaultSessionMinutes, session.Minutes)
	}
	task := session.Task
	if task.Title != "Deep Focus Session (90 min)" || task.Domain != "Productivity" || task.Subdomain != "Focus" {
		t.Errorf("Unexpected session task %+v", task)
	}
	if task.Priority != 5 || task.ImpactType != model.ImpactRevenue || task.EnergyType != model.EnergyDeep {
		t.Errorf("Unexpected session ranking fields %+v", task)
	}
	if !task.FocusToday || !task.MoneyImpact || task.EstimatedTime != 90 {
		t.Errorf("Unexpected session flags %+v", task)
	}
	wantEnd := now.Add(90 * time.Minute)
	if task.DueDate == nil || !task.DueDate.Equal(wantEnd) || !session.End.Equal(wantEnd) {
		t.Errorf("Expected due %v, got %v", wantEnd, task.DueDate)
	}

	logs, err := st.ListAuditLogs(ctx, task.ID, 10)
	if err != nil {
		t.Fatalf("ListAuditLogs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != model.AuditFocusStarted {
		t.Fatalf("Expected one focus_started entry, got %+v", logs)
	}
	var state struct {
		FocusDuration int       `json:"focus_duration"`
		Start         time.Time `json:"start"`
		End           time.Time `json:"end"`
	}
	if err := json.Unmarshal(logs[0].NewState, &state); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if state.FocusDuration != 90 || !state.Start.Equal(now) || !state.End.Equal(wantEnd) {
		t.Errorf("Unexpected audit snapshot %+v", state)
	}
}

func TestStartSessionUsesSettingsAndOverrides(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.SaveUserSettings(ctx, model.Settings{UserID: "u1", FocusDuration: 45}); err != nil {
		t.Fatalf("SaveUserSettings failed: %v", err)
	}
	sel := NewSelector(st, audit.New(st), 3)

	session, err := sel.StartSession(ctx, "u1", SessionOptions{})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if session.Minutes != 45 || session.Task.Title != "Deep Focus Session (45 min)" {
		t.Errorf("Expected the stored 45 minute duration, got %+v", session)
	}

	custom, err := sel.StartSession(ctx, "u1", SessionOptions{Title: "Write chapter", Domain: "book", Minutes: 25})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if custom.Minutes != 25 || custom.Task.Title != "Write chapter" || custom.Task.Domain != "book" {
		t.Errorf("Expected overrides to apply, got %+v", custom.Task)
	}
}

func TestBrief(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	yesterday := now.Add(-21 * time.Hour)
	earlierToday := now.Add(-time.Hour)

	insert(t, st, "flagged", model.ImpactGrowth, 2, 30, func(t *model.Task) { t.FocusToday = true })
	insert(t, st, "hot one", model.ImpactRevenue, 5, 30, func(t *model.Task) { t.DueDate = &yesterday })
	insert(t, st, "hot two", model.ImpactRevenue, 5, 30, nil)
	insert(t, st, "hot three", model.ImpactRevenue, 5, 30, nil)
	insert(t, st, "ordinary late", model.ImpactVanity, 1, 30, func(t *model.Task) { t.DueDate = &yesterday })
	insert(t, st, "due this morning", model.ImpactVanity, 1, 30, func(t *model.Task) { t.DueDate = &earlierToday })
	insert(t, st, "done and late", model.ImpactRevenue, 5, 30, func(t *model.Task) {
		t.DueDate = &yesterday
		t.Status = model.StatusCompleted
	})

	sel := NewSelector(st, audit.New(st), 3)
	sel.SetClock(func() time.Time { return now })
	b, err := sel.Brief(ctx, "u1")
	if err != nil {
		t.Fatalf("Brief failed: %v", err)
	}
	if len(b.Focus) != 3 {
		t.Fatalf("Expected 3 focus tasks, got %d", len(b.Focus))
	}
	for _, task := range b.Focus {
		if !task.FocusToday && task.Priority != 5 {
			t.Errorf("Unexpected briefing task %q", task.Title)
		}
		if task.Status != model.StatusPending {
			t.Errorf("Completed task %q in briefing", task.Title)
		}
	}
	if b.Overdue != 2 {
		t.Errorf("Expected 2 overdue tasks, got %d", b.Overdue)
	}
	if b.Quote == "" {
		t.Error("Expected a quote")
	}
}

func TestBriefEmpty(t *testing.T) {
	st := openTestStore(t)
	b, err := NewSelector(st, audit.New(st), 3).Brief(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Brief failed: %v", err)
	}
	if len(b.Focus) != 0 || b.Overdue != 0 {
		t.Errorf("Expected an empty briefing, got %+v", b)
	}
}
