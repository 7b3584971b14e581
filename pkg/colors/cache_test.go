package colors

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

func newCache(t *testing.T) (*ColorCache, *time.Time) {
	t.Helper()
	cache, err := NewColorCache(filepath.Join(t.TempDir(), cacheFile))
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	clock := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	cache.SetClock(func() time.Time { return clock })
	return cache, &clock
}

func TestColorForDomainlessTasks(t *testing.T) {
	cache, _ := newCache(t)

	tests := []struct {
		impact model.ImpactType
		want   string
	}{
		{model.ImpactRevenue, "10"},
		{model.ImpactGrowth, "9"},
		{model.ImpactMaintenance, "8"},
		{model.ImpactVanity, "4"},
		{"", "8"},
	}
	for _, tt := range tests {
		if got := cache.ColorFor(model.Task{ImpactType: tt.impact}); got != tt.want {
			t.Errorf("impact %q: got %s, want %s", tt.impact, got, tt.want)
		}
	}
	if len(cache.Domains) != 0 {
		t.Errorf("Domainless tasks must not claim a slot, got %d", len(cache.Domains))
	}
}

func TestColorIsStablePerDomain(t *testing.T) {
	cache, _ := newCache(t)

	first := cache.ColorFor(model.Task{Domain: "Work"})
	second := cache.ColorFor(model.Task{Domain: " work "})
	if first != "1" || second != first {
		t.Errorf("Expected domain to keep color 1, got %s then %s", first, second)
	}
	if got := cache.ColorFor(model.Task{Domain: "health"}); got != "2" {
		t.Errorf("Expected next free color 2, got %s", got)
	}
}

func TestLeastRecentlyUsedDomainIsRecycled(t *testing.T) {
	cache, clock := newCache(t)

	for i := 0; i < maxColorID; i++ {
		*clock = clock.Add(time.Minute)
		cache.GetColorID(fmt.Sprintf("d%02d", i))
	}
	// d00 is refreshed, so d01 becomes the oldest.
	*clock = clock.Add(time.Minute)
	cache.GetColorID("d00")

	*clock = clock.Add(time.Minute)
	got := cache.GetColorID("fresh")
	if got != "2" {
		t.Errorf("Expected recycled color 2, got %s", got)
	}
	if _, ok := cache.Domains["d01"]; ok {
		t.Error("Expected d01 to be evicted")
	}
	if len(cache.Domains) != maxColorID {
		t.Errorf("Expected %d domains, got %d", maxColorID, len(cache.Domains))
	}
}

func TestSaveAndReload(t *testing.T) {
	cache, _ := newCache(t)
	cache.GetColorID("finance")
	if err := cache.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := NewColorCache(cache.Path)
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	if state := reloaded.Domains["finance"]; state == nil || state.ColorID != "1" {
		t.Errorf("Expected finance on color 1, got %+v", state)
	}
}
