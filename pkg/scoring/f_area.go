package scoring

import "github.com/solarrank/solarrank/pkg/building"

// AreaMetric is roof area, min-max normalized across the population.
type AreaMetric struct{}

func (AreaMetric) Key() string  { return KeyArea }
func (AreaMetric) Name() string { return "Normalized roof area" }

func (AreaMetric) Value(b *building.Building, stats PopulationStats) float64 {
	return Normalize(b.RoofArea, stats.MinArea, stats.MaxArea)
}
