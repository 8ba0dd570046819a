// Package scoring implements the solarrank suitability scorer.
// It normalizes per-building factors across the population and combines them
// into an explainable 0-100 score and category.
package scoring

import "github.com/solarrank/solarrank/pkg/building"

// Factor keys, also used as keys of Building.Factors.
const (
	KeyEnergy      = "energy"
	KeyOrientation = "orientation"
	KeyShading     = "shading"
	KeyArea        = "area"
)

// FactorResult explains one factor's share of a building's score.
type FactorResult struct {
	Key          string  `json:"key"`          // machine key: "energy"
	Name         string  `json:"name"`         // human name: "Normalized energy yield"
	Value        float64 `json:"value"`        // factor value in [0,1]
	Weight       float64 `json:"weight"`       // weight from the active set
	Contribution float64 `json:"contribution"` // points out of 100
}

// Classify maps a score to its category. Bands are closed below, so a score
// on a boundary belongs to the higher band.
func Classify(score float64) building.Category {
	switch {
	case score >= 80:
		return building.CategoryExcellent
	case score >= 60:
		return building.CategoryGood
	case score >= 40:
		return building.CategoryModerate
	case score >= 20:
		return building.CategoryPoor
	default:
		return building.CategoryUnsuitable
	}
}

// CategoryRange returns the [lo, hi) score band of c. Excellent includes 100.
func CategoryRange(c building.Category) (lo, hi float64) {
	switch c {
	case building.CategoryExcellent:
		return 80, 100
	case building.CategoryGood:
		return 60, 80
	case building.CategoryModerate:
		return 40, 60
	case building.CategoryPoor:
		return 20, 40
	default:
		return 0, 20
	}
}
