package scoring

import "github.com/solarrank/solarrank/pkg/building"

// EnergyMetric is annual yield, min-max normalized across the population.
type EnergyMetric struct{}

func (EnergyMetric) Key() string  { return KeyEnergy }
func (EnergyMetric) Name() string { return "Normalized energy yield" }

func (EnergyMetric) Value(b *building.Building, stats PopulationStats) float64 {
	return Normalize(b.EnergyKWh, stats.MinEnergy, stats.MaxEnergy)
}
