package colors

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

// Google Calendar event colors run from 1 to 11.
const (
	minColorID = 1
	maxColorID = 11

	cacheFile = "domain_colors.json"
)

// Tasks without a domain are colored by what they earn.
var impactColors = map[model.ImpactType]string{
	model.ImpactRevenue:     "10", // basil
	model.ImpactGrowth:      "9",  // blueberry
	model.ImpactMaintenance: "8",  // graphite
	model.ImpactVanity:      "4",  // flamingo
}

type DomainState struct {
	ColorID  string    `json:"color_id"`
	LastUsed time.Time `json:"last_used"`
}

// ColorCache hands out calendar colors per task domain. Once all eleven
// colors are taken, the least recently used domain gives its color up.
type ColorCache struct {
	Path    string
	Domains map[string]*DomainState `json:"domains"`
	dirty   bool
	now     func() time.Time
}

func DefaultPath(dir string) string {
	return filepath.Join(dir, cacheFile)
}

func NewColorCache(path string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:    path,
		Domains: make(map[string]*DomainState),
		now:     time.Now,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cache.Load(); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func (c *ColorCache) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&c.Domains)
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Printf("Error creating color cache directory: %v", err)
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		log.Printf("Error creating color cache file: %v", err)
		return err
	}
	defer f.Close()
	err = json.NewEncoder(f).Encode(c.Domains)
	if err == nil {
		c.dirty = false
	}
	return err
}

// ColorFor picks the event color for a task.
func (c *ColorCache) ColorFor(task model.Task) string {
	domain := strings.ToLower(strings.TrimSpace(task.Domain))
	if domain == "" {
		if id, ok := impactColors[task.ImpactType]; ok {
			return id
		}
		return impactColors[model.ImpactMaintenance]
	}
	return c.GetColorID(domain)
}

// GetColorID returns the color for domain, assigning one if needed.
func (c *ColorCache) GetColorID(domain string) string {
	state, exists := c.Domains[domain]
	if exists {
		// Touching LastUsed marks the cache dirty; the caller decides when to Save.
		state.LastUsed = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assignColor(domain)
}

func (c *ColorCache) assignColor(domain string) string {
	used := make(map[string]bool)
	for _, s := range c.Domains {
		used[s.ColorID] = true
	}

	for i := minColorID; i <= maxColorID; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			c.Domains[domain] = &DomainState{ColorID: id, LastUsed: c.now()}
			c.dirty = true
			return id
		}
	}

	// Full: recycle the least recently used color.
	var oldest string
	var oldestTime time.Time
	for d, s := range c.Domains {
		if oldest == "" || s.LastUsed.Before(oldestTime) || (s.LastUsed.Equal(oldestTime) && d < oldest) {
			oldest = d
			oldestTime = s.LastUsed
		}
	}

	recycled := c.Domains[oldest].ColorID
	delete(c.Domains, oldest)
	c.Domains[domain] = &DomainState{ColorID: recycled, LastUsed: c.now()}
	c.dirty = true
	return recycled
}
