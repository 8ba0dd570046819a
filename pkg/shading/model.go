// Package shading estimates the fraction of a roof's annual yield lost to
// shadows cast by taller neighbours.
package shading

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/spatial"
)

// Defaults reflect a nominal 45° sun, where shadow length equals height
// difference.
const (
	DefaultSearchRadius = 100.0
	DefaultShadowLength = 50.0
	DefaultHeightScale  = 50.0
)

// Model holds the shading parameters. The zero value is not usable; start
// from Default.
type Model struct {
	SearchRadius float64   // neighbour query radius, metres
	ShadowLength float64   // distance at which a shadow no longer reaches
	HeightScale  float64   // height difference that yields full intensity
	Curve        SizeCurve // neighbour size weighting
}

// Default returns the model with its documented defaults.
func Default() Model {
	return Model{
		SearchRadius: DefaultSearchRadius,
		ShadowLength: DefaultShadowLength,
		HeightScale:  DefaultHeightScale,
		Curve:        DefaultCurve,
	}
}

// WithSunElevation derives ShadowLength from a sun elevation angle. An angle
// outside (0°, 90°) leaves the model unchanged.
func (m Model) WithSunElevation(deg float64) Model {
	if l := ShadowLength(m.HeightScale, deg); l > 0 {
		m.ShadowLength = l
	}
	return m
}

// Validate checks that every parameter is usable.
func (m Model) Validate() error {
	switch {
	case !(m.SearchRadius > 0):
		return eris.Errorf("search radius must be positive, got %g", m.SearchRadius)
	case !(m.ShadowLength > 0):
		return eris.Errorf("shadow length must be positive, got %g", m.ShadowLength)
	case !(m.HeightScale > 0):
		return eris.Errorf("height scale must be positive, got %g", m.HeightScale)
	case m.Curve == nil:
		return eris.New("size curve is required")
	}
	return nil
}

// ShadowLength returns the length of the shadow cast by an object of the
// given height with the sun at elevation degrees; 0 outside (0°, 90°).
func ShadowLength(height, elevationDeg float64) float64 {
	if elevationDeg <= 0 || elevationDeg >= 90 {
		return 0
	}
	return height / math.Tan(elevationDeg*math.Pi/180)
}

// Contribution is one neighbour's share of a building's shade.
type Contribution struct {
	NeighborID string  `json:"neighbor_id"`
	Distance   float64 `json:"distance"`
	HeightDiff float64 `json:"height_diff"`
	SizeWeight float64 `json:"size_weight"`
	Intensity  float64 `json:"intensity"`
}

// Result is the shading factor with the evidence that produced it.
type Result struct {
	Factor        float64        `json:"factor"` // [0,1]
	Contributions []Contribution `json:"contributions,omitempty"`
	// HeightClamped counts buildings (target included) whose absent or
	// negative height was read as 0.
	HeightClamped int `json:"height_clamped,omitempty"`
}

// Factor computes the shading factor of target. population must be the slice
// the index was built from: neighbour entries are resolved through their Ref.
//
// Heights that are absent or negative are read as 0 and counted in
// HeightClamped; they never produce an error.
func (m Model) Factor(target *building.Building, population []*building.Building, idx *spatial.Index) Result {
	var res Result
	if target.HeightClamped() {
		res.HeightClamped++
	}
	h := target.EffectiveHeight()

	for _, nb := range idx.WithinRadius(target.Centroid, m.SearchRadius) {
		if nb.ID == target.ID {
			continue
		}
		n := population[nb.Ref]
		if n.HeightClamped() {
			res.HeightClamped++
		}

		diff := n.EffectiveHeight() - h
		if diff <= 0 || nb.Distance >= m.ShadowLength {
			continue
		}

		weight := m.Curve.Weight(sizeRatio(n.RoofArea, target.RoofArea))
		intensity := (diff / m.HeightScale) * math.Max(0, 1-nb.Distance/m.ShadowLength) * weight
		if intensity <= 0 {
			continue
		}
		res.Contributions = append(res.Contributions, Contribution{
			NeighborID: n.ID,
			Distance:   nb.Distance,
			HeightDiff: diff,
			SizeWeight: weight,
			Intensity:  intensity,
		})
	}

	sort.Slice(res.Contributions, func(i, j int) bool {
		a, b := res.Contributions[i], res.Contributions[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return a.NeighborID < b.NeighborID
	})
	res.Factor = RMS(res.Contributions)
	return res
}

// RMS aggregates contributions by root mean square, clamped to [0,1].
// No contributions means no shade.
func RMS(cs []Contribution) float64 {
	if len(cs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cs {
		sum += c.Intensity * c.Intensity
	}
	return clamp01(math.Sqrt(sum / float64(len(cs))))
}

// sizeRatio is the neighbour's area relative to the target's. A target with
// no area saturates the ratio.
func sizeRatio(neighbor, reference float64) float64 {
	if reference <= 0 {
		return 1
	}
	return neighbor / reference
}
