// Package building defines the core data model for solarrank.
// These types are the shared vocabulary across the spatial index, the
// shading and energy models, the scorer and the ranked catalog.
package building

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrDuplicateID is reported when a snapshot carries the same building ID twice.
var ErrDuplicateID = eris.New("duplicate building id")

// Point is a planar coordinate in a projected CRS (metres).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Category is the suitability band a score falls into.
type Category string

const (
	CategoryExcellent  Category = "Excellent"
	CategoryGood       Category = "Good"
	CategoryModerate   Category = "Moderate"
	CategoryPoor       Category = "Poor"
	CategoryUnsuitable Category = "Unsuitable"
)

// Categories lists every category from best to worst.
var Categories = []Category{
	CategoryExcellent,
	CategoryGood,
	CategoryModerate,
	CategoryPoor,
	CategoryUnsuitable,
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Building is a single rooftop. Input fields are populated by ingestion; the
// pipeline attaches the derived fields in dependency order:
// centroid → shading → energy → score → category → rank.
type Building struct {
	ID         string   `json:"id"`
	Footprint  []Point  `json:"footprint"`
	Height     *float64 `json:"height,omitempty"` // nil when unknown
	Irradiance float64  `json:"irradiance"`       // kWh/m²/year
	RoofType   string   `json:"roof_type,omitempty"`

	Centroid       Point              `json:"centroid"`
	RoofArea       float64            `json:"roof_area"`       // m²
	OrientationDeg float64            `json:"orientation_deg"` // [0,360), 180 = south
	RoofSlopeDeg   float64            `json:"roof_slope_deg"`
	ShadingFactor  float64            `json:"shading_factor"`  // [0,1]
	EnergyKWh      float64            `json:"energy_kwh"`      // kWh/year
	AnnualSavings  float64            `json:"annual_savings"`
	PaybackYears   *float64           `json:"payback_years,omitempty"` // nil when undefined
	ROIPercent     *float64           `json:"roi_percent,omitempty"`   // first year; nil when undefined
	Factors        map[string]float64 `json:"factors,omitempty"`       // normalized factor values
	Score          float64            `json:"score"`                   // [0,100]
	Category       Category           `json:"category"`
	Rank           int                `json:"rank"` // dense, 1 = best
}

// EffectiveHeight returns the height used for shading. Absent and negative
// heights are read as 0: bad height data is tolerated at the boundary rather
// than failing the building.
func (b *Building) EffectiveHeight() float64 {
	if b.Height == nil || *b.Height < 0 {
		return 0
	}
	return *b.Height
}

// HeightClamped reports whether EffectiveHeight had to substitute 0.
func (b *Building) HeightClamped() bool {
	return b.Height == nil || *b.Height < 0
}

// Snapshot is the immutable population scored by one run.
type Snapshot struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	CRS       string        `json:"crs,omitempty"` // e.g. EPSG:28992
	Buildings []*Building   `json:"buildings"`
	Stats     SnapshotStats `json:"stats"`
	CreatedAt time.Time     `json:"created_at"`
}

// SnapshotStats holds summary statistics for a snapshot.
type SnapshotStats struct {
	BuildingCount  int     `json:"building_count"`
	WithHeight     int     `json:"with_height"`
	TotalFootprint float64 `json:"total_footprint_m2"`
	RejectedCount  int     `json:"rejected_count"`
}

// ComputeStats refreshes Stats from the current building list.
func (s *Snapshot) ComputeStats() {
	stats := SnapshotStats{
		BuildingCount: len(s.Buildings),
		RejectedCount: s.Stats.RejectedCount,
	}
	for _, b := range s.Buildings {
		if b.Height != nil {
			stats.WithHeight++
		}
		if area, err := RingArea(b.Footprint); err == nil {
			stats.TotalFootprint += area
		}
	}
	s.Stats = stats
}

// Rejection records why a building was excluded from a run.
type Rejection struct {
	ID     string `json:"id"`
	Stage  string `json:"stage"` // import, geometry, energy, ...
	Reason string `json:"reason"`
}

// Rejection stages.
const (
	StageImport   = "import"
	StageIdentity = "identity"
	StageGeometry = "geometry"
	StageEnergy   = "energy"
)

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 { return &v }

