package scoring

import "github.com/solarrank/solarrank/pkg/building"

// OrientationMetric rates how close the roof faces south. It needs no
// population bounds.
type OrientationMetric struct{}

func (OrientationMetric) Key() string  { return KeyOrientation }
func (OrientationMetric) Name() string { return "Orientation" }

func (OrientationMetric) Value(b *building.Building, _ PopulationStats) float64 {
	return OrientationFactor(b.OrientationDeg)
}
