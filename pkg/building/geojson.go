package building

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ImportOptions controls how source attributes map onto Building fields.
type ImportOptions struct {
	// IDProperty names the attribute holding the building ID. When empty the
	// GeoJSON feature id is used, then the default ID properties.
	IDProperty string
	// HeightProperties are tried in order; the first present value wins.
	HeightProperties []string
	// IrradianceProperties are tried in order; the first present value wins.
	IrradianceProperties []string
	// RoofTypeProperties are tried in order; the first present value wins.
	RoofTypeProperties []string
	// DefaultIrradiance is used when no irradiance attribute is present.
	DefaultIrradiance float64
}

// DefaultImportOptions matches the attribute names of the Dutch BAG/3DBAG
// exports and PVGIS irradiance joins.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		HeightProperties:     []string{"height", "building_height_m", "h_dak_max"},
		IrradianceProperties: []string{"irradiance", "solar_irradiance", "E_y"},
		RoofTypeProperties:   []string{"roof_type", "dak_type"},
	}
}

var defaultIDProperties = []string{"id", "building_id", "identificatie"}

type rawFeature struct {
	ID         json.RawMessage `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// ReadGeoJSON reads building footprints from a GeoJSON FeatureCollection.
// Polygon and MultiPolygon geometries are accepted; a MultiPolygon
// contributes its largest polygon. Features that cannot be decoded come back
// as rejections. Only an unreadable document is an error.
func ReadGeoJSON(r io.Reader, opts ImportOptions) ([]*Building, []Rejection, error) {
	var fc rawCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, nil, eris.Wrap(err, "decoding GeoJSON")
	}
	if fc.Type != "FeatureCollection" {
		return nil, nil, eris.Errorf("expected FeatureCollection, got %q", fc.Type)
	}

	var (
		buildings  []*Building
		rejections []Rejection
	)
	for i, f := range fc.Features {
		id := featureID(f, opts, i)

		ring, err := decodeFootprint(f.Geometry)
		if err != nil {
			rejections = append(rejections, Rejection{ID: id, Stage: StageImport, Reason: err.Error()})
			continue
		}

		buildings = append(buildings, &Building{
			ID:         id,
			Footprint:  ring,
			Height:     lookupFloat(f.Properties, opts.HeightProperties),
			Irradiance: irradianceOr(lookupFloat(f.Properties, opts.IrradianceProperties), opts.DefaultIrradiance),
			RoofType:   lookupString(f.Properties, opts.RoofTypeProperties),
		})
	}
	return buildings, rejections, nil
}

func featureID(f rawFeature, opts ImportOptions, index int) string {
	if opts.IDProperty != "" {
		if v, ok := f.Properties[opts.IDProperty]; ok && v != nil {
			return stringify(v)
		}
		return fallbackID(index)
	}
	if raw := bytes.TrimSpace(f.ID); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return stringify(v)
		}
	}
	for _, key := range defaultIDProperties {
		if v, ok := f.Properties[key]; ok && v != nil {
			return stringify(v)
		}
	}
	return fallbackID(index)
}

func fallbackID(index int) string {
	return fmt.Sprintf("feature-%d", index)
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func decodeFootprint(raw json.RawMessage) ([]Point, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, eris.New("feature has no geometry")
	}

	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, eris.Wrap(err, "decoding geometry")
	}

	switch t := g.(type) {
	case *geom.Polygon:
		return exteriorRing(t)
	case *geom.MultiPolygon:
		var (
			best     *geom.Polygon
			bestArea = -1.0
		)
		for i := 0; i < t.NumPolygons(); i++ {
			p := t.Polygon(i)
			if a := p.Area(); a > bestArea {
				best, bestArea = p, a
			}
		}
		if best == nil {
			return nil, eris.New("empty MultiPolygon")
		}
		return exteriorRing(best)
	default:
		return nil, eris.Errorf("unsupported geometry type %T", g)
	}
}

func exteriorRing(p *geom.Polygon) ([]Point, error) {
	if p.NumLinearRings() == 0 {
		return nil, eris.New("polygon has no rings")
	}
	coords := p.LinearRing(0).Coords()
	ring := make([]Point, 0, len(coords))
	for _, c := range coords {
		ring = append(ring, Point{X: c.X(), Y: c.Y()})
	}
	return ring, nil
}

func lookupFloat(props map[string]any, keys []string) *float64 {
	for _, key := range keys {
		v, ok := props[key]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case float64:
			return Float(x)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return Float(f)
			}
		}
	}
	return nil
}

func lookupString(props map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := props[key]; ok && v != nil {
			if s := strings.TrimSpace(stringify(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func irradianceOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Feature converts a building to a GeoJSON feature whose properties carry
// the derived attributes.
func Feature(b *Building) (*geojson.Feature, error) {
	if len(b.Footprint) < 3 {
		return nil, eris.Wrapf(ErrMalformedGeometry, "building %s", b.ID)
	}
	poly, err := Polygon(b.Footprint)
	if err != nil {
		return nil, err
	}

	props := map[string]any{
		"rank":            b.Rank,
		"score":           b.Score,
		"category":        string(b.Category),
		"roof_area":       b.RoofArea,
		"orientation_deg": b.OrientationDeg,
		"shading_factor":  b.ShadingFactor,
		"energy_kwh":      b.EnergyKWh,
		"irradiance":      b.Irradiance,
		"annual_savings":  b.AnnualSavings,
		"roof_slope_deg":  b.RoofSlopeDeg,
	}
	if b.RoofType != "" {
		props["roof_type"] = b.RoofType
	}
	if b.Height != nil {
		props["height"] = *b.Height
	}
	if b.PaybackYears != nil {
		props["payback_years"] = *b.PaybackYears
	}
	if b.ROIPercent != nil {
		props["roi_percent"] = *b.ROIPercent
	}

	return &geojson.Feature{
		ID:         b.ID,
		Geometry:   poly,
		Properties: props,
	}, nil
}

// FeatureCollection converts buildings to a GeoJSON FeatureCollection,
// preserving their order.
func FeatureCollection(buildings []*Building) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(buildings))}
	for _, b := range buildings {
		f, err := Feature(b)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, f)
	}
	return fc, nil
}
