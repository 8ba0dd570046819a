package building

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReadShapefile reads building footprints from an ESRI shapefile. Attribute
// mapping follows ImportOptions; multi-part polygons contribute their largest
// part. Records without polygon geometry come back as rejections.
func ReadShapefile(path string, opts ImportOptions) ([]*Building, []Rejection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "opening shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idIdx := -1
	if opts.IDProperty != "" {
		idIdx = fieldIndex(reader, opts.IDProperty)
		if idIdx < 0 {
			return nil, nil, eris.Errorf("shapefile has no field %q", opts.IDProperty)
		}
	} else {
		for _, name := range defaultIDProperties {
			if idIdx = fieldIndex(reader, name); idIdx >= 0 {
				break
			}
		}
	}
	heightIdx := fieldIndices(reader, opts.HeightProperties)
	irrIdx := fieldIndices(reader, opts.IrradianceProperties)
	roofIdx := fieldIndices(reader, opts.RoofTypeProperties)

	var (
		buildings  []*Building
		rejections []Rejection
	)
	for reader.Next() {
		n, shape := reader.Shape()

		id := fallbackID(n)
		if idIdx >= 0 {
			if v := strings.TrimSpace(reader.Attribute(idIdx)); v != "" {
				id = v
			}
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			rejections = append(rejections, Rejection{ID: id, Stage: StageImport, Reason: "record is not a polygon"})
			continue
		}
		ring := largestPart(poly)
		if len(ring) == 0 {
			rejections = append(rejections, Rejection{ID: id, Stage: StageImport, Reason: "polygon has no parts"})
			continue
		}

		buildings = append(buildings, &Building{
			ID:         id,
			Footprint:  ring,
			Height:     attributeFloat(reader, heightIdx),
			Irradiance: irradianceOr(attributeFloat(reader, irrIdx), opts.DefaultIrradiance),
			RoofType:   attributeString(reader, roofIdx),
		})
	}

	zap.L().Debug("shapefile read",
		zap.String("path", path),
		zap.Int("buildings", len(buildings)),
		zap.Int("rejected", len(rejections)),
	)
	return buildings, rejections, nil
}

// fieldIndex returns the index of a named DBF field, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

func fieldIndices(reader *shp.Reader, names []string) []int {
	var out []int
	for _, name := range names {
		if i := fieldIndex(reader, name); i >= 0 {
			out = append(out, i)
		}
	}
	return out
}

func attributeFloat(reader *shp.Reader, indices []int) *float64 {
	for _, i := range indices {
		v := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return Float(f)
		}
	}
	return nil
}

func attributeString(reader *shp.Reader, indices []int) string {
	for _, i := range indices {
		if v := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00")); v != "" {
			return v
		}
	}
	return ""
}

// largestPart returns the part of a multi-part polygon with the largest area.
func largestPart(p *shp.Polygon) []Point {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var (
		best     []Point
		bestArea = -1.0
	)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		part := make([]Point, 0, end-start)
		for j := start; j < end; j++ {
			part = append(part, Point{X: p.Points[j].X, Y: p.Points[j].Y})
		}
		area, err := RingArea(part)
		if err != nil {
			continue
		}
		if area > bestArea {
			best, bestArea = part, area
		}
	}
	if best == nil {
		// every part is degenerate; keep the first so Derive reports why
		start, end := p.Parts[0], int32(len(p.Points))
		if p.NumParts > 1 {
			end = p.Parts[1]
		}
		for j := start; j < end; j++ {
			best = append(best, Point{X: p.Points[j].X, Y: p.Points[j].Y})
		}
	}
	return best
}
