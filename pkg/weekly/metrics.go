package weekly

import (
	"math"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

// Metrics is the dashboard snapshot. Percentages are whole numbers.
type Metrics struct {
	ExecutionRatio    int `json:"executionRatio"`
	RevenueCompletion int `json:"revenueCompletion"`
	VanityPercent     int `json:"vanityPercent"`
	OverduePercent    int `json:"overduePercent"`
	TotalTasks        int `json:"totalTasks"`
	CompletedTasks    int `json:"completedTasks"`
	DeepWorkMinutes   int `json:"deepWorkMinutes"`
}

// ComputeMetrics ignores deleted and archived tasks.
func ComputeMetrics(tasks []model.Task, now time.Time) Metrics {
	var m Metrics
	var revenue, revenueDone, vanity, overdue int

	for _, t := range tasks {
		if t.IsDeleted || t.ArchivedAt != nil {
			continue
		}
		m.TotalTasks++
		done := t.Status == model.StatusCompleted
		if done {
			m.CompletedTasks++
			if t.EnergyType == model.EnergyDeep {
				m.DeepWorkMinutes += t.EstimatedTime
			}
		}
		switch t.ImpactType {
		case model.ImpactRevenue:
			revenue++
			if done {
				revenueDone++
			}
		case model.ImpactVanity:
			vanity++
		}
		if t.OverdueAt(now) {
			overdue++
		}
	}

	m.ExecutionRatio = percent(m.CompletedTasks, m.TotalTasks)
	m.RevenueCompletion = percent(revenueDone, revenue)
	m.VanityPercent = percent(vanity, m.TotalTasks)
	m.OverduePercent = percent(overdue, m.TotalTasks)
	return m
}

func percent(n, d int) int {
	return int(math.Round(ratio(n, d) * 100))
}
