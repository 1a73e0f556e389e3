package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a 2D coordinate in image pixel space.
type Point = r2.Vec

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(b, a))
}

// Lerp interpolates between a and b.
func Lerp(a, b Point, t float64) Point {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// PolylineLength returns the sum of the segment lengths of an open polyline.
func PolylineLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	lengths := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		lengths = append(lengths, Distance(points[i-1], points[i]))
	}
	return floats.Sum(lengths)
}

// ClosestPointOnSegment projects p onto the segment a-b.
func ClosestPointOnSegment(p, a, b Point) Point {
	ab := r2.Sub(b, a)
	denom := r2.Norm2(ab)
	if denom == 0 {
		return a
	}
	t := r2.Dot(r2.Sub(p, a), ab) / denom
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	return r2.Add(a, r2.Scale(t, ab))
}

// DistanceToSegment returns the distance from p to the segment a-b.
func DistanceToSegment(p, a, b Point) float64 {
	return Distance(p, ClosestPointOnSegment(p, a, b))
}

// DistinctCount counts points that differ from their predecessor by more than tol.
func DistinctCount(points []Point, tol float64) int {
	if len(points) == 0 {
		return 0
	}
	count := 1
	last := points[0]
	for _, p := range points[1:] {
		if Distance(last, p) > tol {
			count++
			last = p
		}
	}
	return count
}

// segmentIntersection returns the parameter t along a-b at which it meets c-d.
// Parallel and collinear segments report no intersection.
func segmentIntersection(a, b, c, d Point) (float64, bool) {
	r := r2.Sub(b, a)
	s := r2.Sub(d, c)
	denom := r2.Cross(r, s)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	ac := r2.Sub(c, a)
	t := r2.Cross(ac, s) / denom
	u := r2.Cross(ac, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}
