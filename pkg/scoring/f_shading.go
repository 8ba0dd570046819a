package scoring

import "github.com/solarrank/solarrank/pkg/building"

// ShadingMetric rewards unshaded roofs: 1 - S.
type ShadingMetric struct{}

func (ShadingMetric) Key() string  { return KeyShading }
func (ShadingMetric) Name() string { return "Shade-free fraction" }

func (ShadingMetric) Value(b *building.Building, _ PopulationStats) float64 {
	return clampUnit(1 - b.ShadingFactor)
}
