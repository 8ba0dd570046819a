package scoring

import (
	"math"

	"github.com/solarrank/solarrank/pkg/building"
)

// PopulationStats are the population-wide bounds needed to normalize energy
// and area. They can only be computed once every building has finished
// pass 1.
type PopulationStats struct {
	Count     int     `json:"count"`
	MinEnergy float64 `json:"min_energy_kwh"`
	MaxEnergy float64 `json:"max_energy_kwh"`
	MinArea   float64 `json:"min_roof_area"`
	MaxArea   float64 `json:"max_roof_area"`
}

// Aggregate folds pass-1 values into population bounds.
func Aggregate(buildings []*building.Building) PopulationStats {
	stats := PopulationStats{
		MinEnergy: math.Inf(1), MaxEnergy: math.Inf(-1),
		MinArea: math.Inf(1), MaxArea: math.Inf(-1),
	}
	for _, b := range buildings {
		stats = stats.add(b.EnergyKWh, b.RoofArea)
	}
	if stats.Count == 0 {
		return PopulationStats{}
	}
	return stats
}

func (s PopulationStats) add(energy, area float64) PopulationStats {
	s.Count++
	s.MinEnergy = math.Min(s.MinEnergy, energy)
	s.MaxEnergy = math.Max(s.MaxEnergy, energy)
	s.MinArea = math.Min(s.MinArea, area)
	s.MaxArea = math.Max(s.MaxArea, area)
	return s
}

// Normalize maps v from [lo, hi] onto [0,1]. A degenerate range (every value
// equal, including a population of one) maps to 1.
func Normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	n := (v - lo) / (hi - lo)
	switch {
	case n < 0:
		return 0
	case n > 1:
		return 1
	}
	return n
}

// OrientationFactor scores an azimuth: 1 facing south (180°), 0 facing
// north, symmetric around south.
func OrientationFactor(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return 1 - math.Abs(deg-180)/180
}
