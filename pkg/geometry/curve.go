package geometry

import (
	"errors"
	"math"
	"sort"

	"github.com/jbeda/geom"
)

// Location is the result of classifying a point against a closed curve.
type Location int

const (
	Outside Location = iota
	OnBoundary
	Inside
)

func (l Location) String() string {
	switch l {
	case Inside:
		return "inside"
	case OnBoundary:
		return "on_boundary"
	case Outside:
		return "outside"
	default:
		return "unknown"
	}
}

// ErrTooFewVertices is returned when a closed curve is built from fewer than 3 vertices.
var ErrTooFewVertices = errors.New("closed curve needs at least 3 vertices")

// ClosedCurve is a dense closed polyline. The last vertex connects back to the first.
type ClosedCurve struct {
	vertices []Point
	bounds   geom.Rect
	length   float64
}

// NewClosedCurve copies vertices into a closed curve.
func NewClosedCurve(vertices []Point) (*ClosedCurve, error) {
	if len(vertices) < 3 {
		return nil, ErrTooFewVertices
	}
	v := make([]Point, len(vertices))
	copy(v, vertices)

	bounds := geom.Rect{Min: geom.Coord{X: v[0].X, Y: v[0].Y}, Max: geom.Coord{X: v[0].X, Y: v[0].Y}}
	var length float64
	for i, p := range v {
		bounds.ExpandToContainCoord(geom.Coord{X: p.X, Y: p.Y})
		length += Distance(p, v[(i+1)%len(v)])
	}
	return &ClosedCurve{vertices: v, bounds: bounds, length: length}, nil
}

// Vertices returns a copy of the curve's vertices.
func (c *ClosedCurve) Vertices() []Point {
	out := make([]Point, len(c.vertices))
	copy(out, c.vertices)
	return out
}

// Len returns the number of vertices.
func (c *ClosedCurve) Len() int { return len(c.vertices) }

// Length returns the closed perimeter length.
func (c *ClosedCurve) Length() float64 { return c.length }

// Bounds returns the axis-aligned bounding box of the curve.
func (c *ClosedCurve) Bounds() geom.Rect { return c.bounds }

// Area returns the enclosed area (shoelace formula, orientation independent).
func (c *ClosedCurve) Area() float64 {
	var sum float64
	n := len(c.vertices)
	for i := 0; i < n; i++ {
		p, q := c.vertices[i], c.vertices[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}

// NearestPoint returns the point on the curve closest to p and its distance.
func (c *ClosedCurve) NearestPoint(p Point) (Point, float64) {
	best := c.vertices[0]
	bestDist := math.Inf(1)
	n := len(c.vertices)
	for i := 0; i < n; i++ {
		q := ClosestPointOnSegment(p, c.vertices[i], c.vertices[(i+1)%n])
		if d := Distance(p, q); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, bestDist
}

// DistanceTo returns the distance from p to the curve.
func (c *ClosedCurve) DistanceTo(p Point) float64 {
	_, d := c.NearestPoint(p)
	return d
}

// Locate classifies p as Inside, OnBoundary or Outside. Points within eps of the
// curve are OnBoundary.
func (c *ClosedCurve) Locate(p Point, eps float64) Location {
	if c.outsideBounds(p, eps) {
		return Outside
	}
	if c.DistanceTo(p) <= eps {
		return OnBoundary
	}
	if c.contains(p) {
		return Inside
	}
	return Outside
}

func (c *ClosedCurve) outsideBounds(p Point, eps float64) bool {
	return p.X < c.bounds.Min.X-eps || p.X > c.bounds.Max.X+eps ||
		p.Y < c.bounds.Min.Y-eps || p.Y > c.bounds.Max.Y+eps
}

// contains is the crossing-number test with no tolerance band.
func (c *ClosedCurve) contains(p Point) bool {
	inside := false
	n := len(c.vertices)
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := c.vertices[i], c.vertices[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) &&
			p.X < (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// PathTrace summarises how an open polyline moves relative to the curve.
type PathTrace struct {
	// Crossings counts changes between interior and exterior along the path.
	Crossings int
	// EntersInterior is true when some part of the path lies strictly inside.
	EntersInterior bool
}

// CrossingCount returns the number of times path crosses the curve. Touching
// the curve without changing side counts as zero.
func (c *ClosedCurve) CrossingCount(path []Point) int {
	return c.Trace(path).Crossings
}

// Trace splits every path segment at its intersections with the curve and
// classifies each piece by its midpoint. Pieces lying on the curve are ignored.
func (c *ClosedCurve) Trace(path []Point) PathTrace {
	var trace PathTrace
	if len(path) < 2 {
		return trace
	}
	onCurve := 1e-9 * math.Max(1, c.length)
	n := len(c.vertices)

	var sides []bool
	for k := 1; k < len(path); k++ {
		a, b := path[k-1], path[k]
		ts := []float64{0, 1}
		for i := 0; i < n; i++ {
			if t, ok := segmentIntersection(a, b, c.vertices[i], c.vertices[(i+1)%n]); ok {
				ts = append(ts, t)
			}
		}
		sort.Float64s(ts)
		for i := 1; i < len(ts); i++ {
			if ts[i]-ts[i-1] < 1e-12 {
				continue
			}
			mid := Lerp(a, b, (ts[i-1]+ts[i])/2)
			if c.DistanceTo(mid) <= onCurve {
				continue
			}
			inside := c.contains(mid)
			if inside {
				trace.EntersInterior = true
			}
			if len(sides) > 0 && sides[len(sides)-1] != inside {
				trace.Crossings++
			}
			sides = append(sides, inside)
		}
	}
	return trace
}
