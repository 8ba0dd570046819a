package shading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/spatial"
)

type site struct {
	id     string
	x, y   float64
	height *float64
	area   float64
}

func population(sites ...site) ([]*building.Building, *spatial.Index) {
	pop := make([]*building.Building, len(sites))
	entries := make([]spatial.Entry, len(sites))
	for i, s := range sites {
		pop[i] = &building.Building{
			ID:       s.id,
			Height:   s.height,
			Centroid: building.Point{X: s.x, Y: s.y},
			RoofArea: s.area,
		}
		entries[i] = spatial.Entry{ID: s.id, Ref: i, Point: pop[i].Centroid}
	}
	return pop, spatial.Build(entries)
}

func TestFactor_NoNeighbours(t *testing.T) {
	pop, idx := population(site{id: "a", height: building.Float(10), area: 100})
	res := Default().Factor(pop[0], pop, idx)
	assert.Equal(t, 0.0, res.Factor)
	assert.Empty(t, res.Contributions)
}

func TestFactor_SingleNeighbour(t *testing.T) {
	pop, idx := population(
		site{id: "target", height: building.Float(10), area: 100},
		site{id: "tower", x: 20, height: building.Float(30), area: 100},
	)
	res := Default().Factor(pop[0], pop, idx)

	// (20/50) * (1 - 20/50) * 1
	require.Len(t, res.Contributions, 1)
	assert.InDelta(t, 0.24, res.Contributions[0].Intensity, 1e-12)
	assert.InDelta(t, 0.24, res.Factor, 1e-12)
}

func TestFactor_RMSInvariantForIdenticalContributions(t *testing.T) {
	for _, k := range []int{1, 2, 4} {
		sites := []site{{id: "target", height: building.Float(10), area: 100}}
		offsets := [][2]float64{{20, 0}, {-20, 0}, {0, 20}, {0, -20}}
		for i := 0; i < k; i++ {
			sites = append(sites, site{
				id: string(rune('a' + i)), x: offsets[i][0], y: offsets[i][1],
				height: building.Float(30), area: 100,
			})
		}
		pop, idx := population(sites...)
		res := Default().Factor(pop[0], pop, idx)
		assert.Len(t, res.Contributions, k)
		assert.InDelta(t, 0.24, res.Factor, 1e-12, "k=%d", k)
	}
}

func TestFactor_RMSOfMixedContributions(t *testing.T) {
	pop, idx := population(
		site{id: "target", height: building.Float(0), area: 100},
		site{id: "near", x: 10, height: building.Float(50), area: 100}, // 1 * 0.8 = 0.8
		site{id: "far", x: -40, height: building.Float(25), area: 100}, // 0.5 * 0.2 = 0.1
	)
	res := Default().Factor(pop[0], pop, idx)
	want := math.Sqrt((0.8*0.8 + 0.1*0.1) / 2)
	assert.InDelta(t, want, res.Factor, 1e-12)
	assert.Equal(t, "near", res.Contributions[0].NeighborID, "contributions are ordered by distance")
}

func TestFactor_IgnoresShorterAndDistantNeighbours(t *testing.T) {
	pop, idx := population(
		site{id: "target", height: building.Float(20), area: 100},
		site{id: "shorter", x: 5, height: building.Float(10), area: 100},
		site{id: "same", x: -5, height: building.Float(20), area: 100},
		site{id: "beyond-shadow", x: 50, height: building.Float(90), area: 100},
		site{id: "beyond-radius", x: 150, height: building.Float(90), area: 100},
	)
	res := Default().Factor(pop[0], pop, idx)
	assert.Equal(t, 0.0, res.Factor)
	assert.Empty(t, res.Contributions)
}

func TestFactor_ClampedToOne(t *testing.T) {
	pop, idx := population(
		site{id: "target", height: building.Float(0), area: 100},
		site{id: "cliff", x: 1, height: building.Float(500), area: 1000},
	)
	res := Default().Factor(pop[0], pop, idx)
	assert.Equal(t, 1.0, res.Factor)
}

func TestFactor_HeightTolerance(t *testing.T) {
	pop, idx := population(
		site{id: "target", height: building.Float(-5), area: 100},
		site{id: "unknown", x: 10, area: 100},
		site{id: "tall", x: -10, height: building.Float(25), area: 100},
	)
	res := Default().Factor(pop[0], pop, idx)

	// target reads as 0, "unknown" reads as 0 and casts nothing
	assert.Equal(t, 2, res.HeightClamped)
	require.Len(t, res.Contributions, 1)
	assert.Equal(t, "tall", res.Contributions[0].NeighborID)
	assert.InDelta(t, 25.0, res.Contributions[0].HeightDiff, 1e-12)
	assert.GreaterOrEqual(t, res.Factor, 0.0)
}

func TestFactor_SizeWeight(t *testing.T) {
	pop, idx := population(
		site{id: "target", height: building.Float(10), area: 100},
		site{id: "kiosk", x: 20, height: building.Float(30), area: 20},
	)
	res := Default().Factor(pop[0], pop, idx)
	require.Len(t, res.Contributions, 1)
	// 0.5 + 0.5*0.2
	assert.InDelta(t, 0.6, res.Contributions[0].SizeWeight, 1e-12)
	assert.InDelta(t, 0.24*0.6, res.Factor, 1e-12)
}

func TestFactor_FactorAlwaysInUnitInterval(t *testing.T) {
	var sites []site
	for i := 0; i < 60; i++ {
		h := float64((i * 37) % 80)
		sites = append(sites, site{
			id: string(rune('A' + i)), x: float64((i * 13) % 90), y: float64((i * 29) % 90),
			height: building.Float(h), area: float64(20 + (i*17)%200),
		})
	}
	pop, idx := population(sites...)
	m := Default()
	for _, b := range pop {
		f := m.Factor(b, pop, idx).Factor
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
}

func TestShadowLength(t *testing.T) {
	assert.InDelta(t, 50.0, ShadowLength(50, 45), 1e-9)
	assert.InDelta(t, 50*math.Sqrt(3), ShadowLength(50, 30), 1e-9)
	assert.Equal(t, 0.0, ShadowLength(50, 0))
	assert.Equal(t, 0.0, ShadowLength(50, 90))

	m := Default().WithSunElevation(30)
	assert.InDelta(t, 50*math.Sqrt(3), m.ShadowLength, 1e-9)
	assert.Equal(t, DefaultShadowLength, Default().WithSunElevation(-1).ShadowLength)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	m := Default()
	m.SearchRadius = 0
	assert.Error(t, m.Validate())

	m = Default()
	m.Curve = nil
	assert.Error(t, m.Validate())
}

func TestCurves(t *testing.T) {
	lin := LinearCurve{Floor: 0.5}
	assert.Equal(t, 0.5, lin.Weight(0))
	assert.Equal(t, 0.75, lin.Weight(0.5))
	assert.Equal(t, 1.0, lin.Weight(3))

	exp := ExponentialCurve{Rate: 3}
	assert.Equal(t, 0.0, exp.Weight(0))
	assert.InDelta(t, 1-math.Exp(-3), exp.Weight(1), 1e-12)
	assert.Less(t, exp.Weight(0.5), exp.Weight(1))

	c, err := ParseCurve("", DefaultCurveParam)
	require.NoError(t, err)
	assert.Equal(t, DefaultCurve, c)

	// a zero floor is the plain ratio curve, not the default
	c, err = ParseCurve("linear", 0)
	require.NoError(t, err)
	assert.Equal(t, LinearCurve{Floor: 0}, c)
	assert.Equal(t, 0.25, c.Weight(0.25))

	c, err = ParseCurve("exp", -1)
	require.NoError(t, err)
	assert.Equal(t, ExponentialCurve{Rate: 3}, c)

	c, err = ParseCurve("Exponential", 2)
	require.NoError(t, err)
	assert.Equal(t, ExponentialCurve{Rate: 2}, c)

	_, err = ParseCurve("linear", 1.5)
	assert.Error(t, err)
	_, err = ParseCurve("exponential", 0)
	assert.Error(t, err)
	_, err = ParseCurve("sigmoid", 0)
	assert.Error(t, err)
}
