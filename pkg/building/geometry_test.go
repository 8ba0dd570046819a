package building

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, side float64) []Point {
	return []Point{{x, y}, {x + side, y}, {x + side, y + side}, {x, y + side}}
}

func TestNormalizeRing(t *testing.T) {
	tests := []struct {
		name    string
		in      []Point
		wantLen int
		wantErr bool
	}{
		{"open square", square(0, 0, 10), 4, false},
		{"closed square", append(square(0, 0, 10), Point{0, 0}), 4, false},
		{"duplicate vertices", []Point{{0, 0}, {0, 0}, {10, 0}, {10, 10}, {10, 10}, {0, 10}, {0, 0}}, 4, false},
		{"two vertices", []Point{{0, 0}, {1, 1}, {0, 0}}, 0, true},
		{"collinear", []Point{{0, 0}, {5, 0}, {10, 0}}, 0, true},
		{"bowtie", []Point{{0, 0}, {10, 10}, {10, 0}, {0, 10}}, 0, true},
		{"nan vertex", []Point{{0, 0}, {math.NaN(), 0}, {10, 10}}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring, err := NormalizeRing(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, eris.Is(err, ErrMalformedGeometry), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, ring, tt.wantLen)
		})
	}
}

func TestRingArea(t *testing.T) {
	area, err := RingArea(square(5, 5, 10))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, area, 1e-9)

	// clockwise winding gives the same area
	cw := []Point{{0, 0}, {0, 4}, {3, 0}}
	area, err = RingArea(cw)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, area, 1e-9)
}

func TestDerive(t *testing.T) {
	b := &Building{ID: "a", Footprint: append(square(0, 0, 10), Point{0, 0})}
	require.NoError(t, Derive(b))

	assert.InDelta(t, 5.0, b.Centroid.X, 1e-9)
	assert.InDelta(t, 5.0, b.Centroid.Y, 1e-9)
	assert.InDelta(t, 100.0, b.RoofArea, 1e-9)
	assert.Len(t, b.Footprint, 4, "footprint should be normalized")
	assert.GreaterOrEqual(t, b.OrientationDeg, 0.0)
	assert.Less(t, b.OrientationDeg, 360.0)
	assert.Equal(t, 2.0, b.RoofSlopeDeg, "unknown roof type reads as flat")

	pitched := &Building{ID: "p", Footprint: square(0, 0, 10), RoofType: "pitched"}
	require.NoError(t, Derive(pitched))
	assert.Equal(t, 25.0, pitched.RoofSlopeDeg)
}

func TestDerive_Malformed(t *testing.T) {
	b := &Building{ID: "bad", Footprint: []Point{{0, 0}, {1, 1}}}
	err := Derive(b)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMalformedGeometry))
	assert.Zero(t, b.RoofArea, "failed derivation must not attach attributes")
}

func TestOrientation(t *testing.T) {
	tests := []struct {
		name string
		ring []Point
		want float64
	}{
		// the longest edge runs from the first vertex
		{"east", []Point{{0, 0}, {20, 0}, {20, 1}, {0, 1}}, 90},
		{"south", []Point{{0, 20}, {0, 0}, {1, 0}, {1, 20}}, 180},
		{"west", []Point{{20, 1}, {0, 1}, {0, 0}, {20, 0}}, 270},
		{"north", []Point{{1, 0}, {1, 20}, {0, 20}, {0, 0}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Orientation(tt.ring), 1e-9)
		})
	}
}

func TestRoofSlope(t *testing.T) {
	assert.Equal(t, 2.0, RoofSlope("flat"))
	assert.Equal(t, 25.0, RoofSlope("Pitched"))
	assert.Equal(t, 30.0, RoofSlope("gabled"))
	assert.Equal(t, 2.0, RoofSlope("mansard"))
}

func TestSnapshotComputeStats(t *testing.T) {
	snap := &Snapshot{
		Buildings: []*Building{
			{ID: "a", Footprint: square(0, 0, 10), Height: Float(12)},
			{ID: "b", Footprint: square(20, 0, 5)},
			{ID: "c", Footprint: []Point{{0, 0}, {1, 1}}},
		},
		Stats: SnapshotStats{RejectedCount: 2},
	}
	snap.ComputeStats()

	assert.Equal(t, 3, snap.Stats.BuildingCount)
	assert.Equal(t, 1, snap.Stats.WithHeight)
	assert.InDelta(t, 125.0, snap.Stats.TotalFootprint, 1e-9)
	assert.Equal(t, 2, snap.Stats.RejectedCount)
}

func TestEffectiveHeight(t *testing.T) {
	tests := []struct {
		name        string
		height      *float64
		want        float64
		wantClamped bool
	}{
		{"absent", nil, 0, true},
		{"negative", Float(-3), 0, true},
		{"zero", Float(0), 0, false},
		{"positive", Float(15.5), 15.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Building{Height: tt.height}
			assert.Equal(t, tt.want, b.EffectiveHeight())
			assert.Equal(t, tt.wantClamped, b.HeightClamped())
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("excellent")
	assert.True(t, ok)
	assert.Equal(t, CategoryExcellent, c)

	_, ok = ParseCategory("great")
	assert.False(t, ok)
}
