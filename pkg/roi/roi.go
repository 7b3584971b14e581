package roi

import (
	"sort"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

// DefaultCount is how many tasks are picked for a day when no count is given.
const DefaultCount = 3

// Weights maps an impact type to its ranking weight.
type Weights map[model.ImpactType]float64

// DefaultWeights is the single canonical weight table.
var DefaultWeights = Weights{
	model.ImpactRevenue:     5,
	model.ImpactGrowth:      3,
	model.ImpactMaintenance: 2,
	model.ImpactVanity:      1,
}

// Resolve returns the user's weights, or DefaultWeights when none are set.
func Resolve(user map[model.ImpactType]float64) Weights {
	if len(user) == 0 {
		return DefaultWeights
	}
	return Weights(user)
}

// Weight is total over impact types: a known type without a positive entry,
// and any unknown type, weighs 1.
func (w Weights) Weight(t model.ImpactType) float64 {
	switch t {
	case model.ImpactRevenue, model.ImpactGrowth, model.ImpactMaintenance, model.ImpactVanity:
		if v, ok := w[t]; ok && v > 0 {
			return v
		}
		return 1
	default:
		return 1
	}
}

// CalculateROI scores a task as weight × priority / estimated minutes. The
// denominator is floored at 1.
func CalculateROI(task model.Task, weights Weights) float64 {
	minutes := task.EstimatedTime
	if minutes < 1 {
		minutes = 1
	}
	return weights.Weight(task.ImpactType) * float64(task.Priority) / float64(minutes)
}

// SelectTopTasks returns up to count live tasks ordered by descending ROI.
// Ties keep their input order. A count <= 0 means DefaultCount.
func SelectTopTasks(tasks []model.Task, count int, weights Weights) []model.Task {
	if count <= 0 {
		count = DefaultCount
	}

	type scored struct {
		task  model.Task
		score float64
	}
	candidates := make([]scored, 0, len(tasks))
	for _, t := range tasks {
		if !t.Live() {
			continue
		}
		candidates = append(candidates, scored{task: t, score: CalculateROI(t, weights)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	selected := make([]model.Task, 0, len(candidates))
	for _, c := range candidates {
		selected = append(selected, c.task)
	}
	return selected
}
