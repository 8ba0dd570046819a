package building

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// ErrMalformedGeometry marks a footprint that cannot be scored: too few
// distinct vertices, zero area, or a self-intersecting ring.
var ErrMalformedGeometry = eris.New("malformed footprint geometry")

// intersectEps is the tolerance, in metres, below which crossing edges are
// treated as touching rather than intersecting.
const intersectEps = 1e-9

// NormalizeRing returns the footprint as an open ring: the repeated closing
// vertex and consecutive duplicate vertices are dropped.
func NormalizeRing(pts []Point) ([]Point, error) {
	ring := make([]Point, 0, len(pts))
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, eris.Wrap(ErrMalformedGeometry, "non-finite vertex")
		}
		if len(ring) > 0 && ring[len(ring)-1] == p {
			continue
		}
		ring = append(ring, p)
	}
	for len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}

	if len(ring) < 3 {
		return nil, eris.Wrapf(ErrMalformedGeometry, "%d distinct vertices, need at least 3", len(ring))
	}
	if selfIntersects(ring) {
		return nil, eris.Wrap(ErrMalformedGeometry, "ring is self-intersecting")
	}
	poly, err := Polygon(ring)
	if err != nil {
		return nil, err
	}
	if poly.Area() <= intersectEps {
		return nil, eris.Wrap(ErrMalformedGeometry, "footprint has zero area")
	}
	return ring, nil
}

// Polygon converts a normalized ring to a closed go-geom polygon.
func Polygon(ring []Point) (*geom.Polygon, error) {
	coords := make([]geom.Coord, 0, len(ring)+1)
	for _, p := range ring {
		coords = append(coords, geom.Coord{p.X, p.Y})
	}
	coords = append(coords, geom.Coord{ring[0].X, ring[0].Y})

	poly, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{coords})
	if err != nil {
		return nil, eris.Wrap(ErrMalformedGeometry, err.Error())
	}
	return poly, nil
}

// RingArea returns the planar area of a footprint in square metres.
func RingArea(pts []Point) (float64, error) {
	ring, err := NormalizeRing(pts)
	if err != nil {
		return 0, err
	}
	poly, err := Polygon(ring)
	if err != nil {
		return 0, err
	}
	return poly.Area(), nil
}

// Orientation returns the azimuth of the footprint's longest edge in degrees,
// normalised to [0,360): 0 = north, 90 = east, 180 = south, 270 = west.
func Orientation(ring []Point) float64 {
	var (
		longest float64
		dx, dy  float64
	)
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		l := math.Hypot(b.X-a.X, b.Y-a.Y)
		if l > longest {
			longest = l
			dx, dy = b.X-a.X, b.Y-a.Y
		}
	}
	if longest == 0 {
		return 0
	}
	deg := math.Atan2(dx, dy) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Derive attaches the geometric attributes (centroid, roof area,
// orientation) and replaces Footprint with its normalized ring.
func Derive(b *Building) error {
	ring, err := NormalizeRing(b.Footprint)
	if err != nil {
		return err
	}
	poly, err := Polygon(ring)
	if err != nil {
		return err
	}

	c, err := xy.Centroid(poly)
	if err != nil {
		return eris.Wrap(ErrMalformedGeometry, err.Error())
	}

	b.Footprint = ring
	b.Centroid = Point{X: c[0], Y: c[1]}
	b.RoofArea = poly.Area()
	b.OrientationDeg = Orientation(ring)
	b.RoofSlopeDeg = RoofSlope(b.RoofType)
	return nil
}

// RoofSlope returns the default slope in degrees for a roof type.
// Unknown types are treated as flat.
func RoofSlope(kind string) float64 {
	switch strings.ToLower(kind) {
	case "pitched":
		return 25.0
	case "gabled":
		return 30.0
	default:
		return 2.0 // flat, drainage slope
	}
}

// selfIntersects reports whether any two non-adjacent edges of the open ring
// cross or touch.
func selfIntersects(ring []Point) bool {
	n := len(ring)
	if n < 4 {
		return collinear(ring)
	}
	for i := 0; i < n; i++ {
		a1, a2 := ring[i], ring[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// skip adjacent edges, including the wrap-around pair
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := ring[j], ring[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

func collinear(ring []Point) bool {
	return len(ring) == 3 && math.Abs(cross(ring[0], ring[1], ring[2])) <= intersectEps
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > intersectEps && d2 < -intersectEps) || (d1 < -intersectEps && d2 > intersectEps)) &&
		((d3 > intersectEps && d4 < -intersectEps) || (d3 < -intersectEps && d4 > intersectEps)) {
		return true
	}

	switch {
	case math.Abs(d1) <= intersectEps && onSegment(q1, q2, p1):
		return true
	case math.Abs(d2) <= intersectEps && onSegment(q1, q2, p2):
		return true
	case math.Abs(d3) <= intersectEps && onSegment(p1, p2, q1):
		return true
	case math.Abs(d4) <= intersectEps && onSegment(p1, p2, q2):
		return true
	}
	return false
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X)-intersectEps <= p.X && p.X <= math.Max(a.X, b.X)+intersectEps &&
		math.Min(a.Y, b.Y)-intersectEps <= p.Y && p.Y <= math.Max(a.Y, b.Y)+intersectEps
}
