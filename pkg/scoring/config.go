package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidWeights is returned when a weight set is negative or does not sum
// to 1. It is fatal: a run never starts with a bad set.
var ErrInvalidWeights = eris.New("invalid weight set")

// WeightTolerance is how far from 1 a weight sum may drift.
const WeightTolerance = 1e-6

// Weights holds the factor weights.
type Weights struct {
	Energy      float64 `json:"energy" yaml:"energy" mapstructure:"energy"`
	Orientation float64 `json:"orientation" yaml:"orientation" mapstructure:"orientation"`
	Shading     float64 `json:"shading" yaml:"shading" mapstructure:"shading"`
	Area        float64 `json:"area" yaml:"area" mapstructure:"area"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Energy + w.Orientation + w.Shading + w.Area
}

// IsZero reports whether no weight is set.
func (w Weights) IsZero() bool {
	return w == Weights{}
}

// Of returns the weight for a factor key; 0 for unknown keys.
func (w Weights) Of(key string) float64 {
	switch key {
	case KeyEnergy:
		return w.Energy
	case KeyOrientation:
		return w.Orientation
	case KeyShading:
		return w.Shading
	case KeyArea:
		return w.Area
	}
	return 0
}

// Validate checks every weight is non-negative and the set sums to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Energy, w.Orientation, w.Shading, w.Area} {
		if v < 0 || math.IsNaN(v) {
			return eris.Wrapf(ErrInvalidWeights, "negative weight %g", v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > WeightTolerance {
		return eris.Wrapf(ErrInvalidWeights, "weights sum to %.6f, want 1", sum)
	}
	return nil
}

// DefaultWeightSet is the name of the set used when none is configured.
const DefaultWeightSet = "default"

var weightSets = map[string]Weights{
	DefaultWeightSet: {Energy: 0.4, Orientation: 0.2, Shading: 0.2, Area: 0.2},
	"energy-first":   {Energy: 0.55, Orientation: 0.15, Shading: 0.15, Area: 0.15},
	"balanced":       {Energy: 0.25, Orientation: 0.25, Shading: 0.25, Area: 0.25},
	"low-shade":      {Energy: 0.3, Orientation: 0.2, Shading: 0.35, Area: 0.15},
}

// DefaultWeights returns the default set.
func DefaultWeights() Weights {
	return weightSets[DefaultWeightSet]
}

// LookupWeightSet returns a named weight set.
func LookupWeightSet(name string) (Weights, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultWeightSet
	}
	w, ok := weightSets[key]
	if !ok {
		return Weights{}, eris.Wrapf(ErrInvalidWeights, "unknown weight set %q (known: %s)",
			name, strings.Join(WeightSetNames(), ", "))
	}
	return w, nil
}

// WeightSetNames lists the named sets in alphabetical order.
func WeightSetNames() []string {
	names := make([]string, 0, len(weightSets))
	for n := range weightSets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
