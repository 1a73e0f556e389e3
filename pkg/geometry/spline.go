package geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// centripetal parameterisation avoids cusps and self-intersections within a segment.
const catmullRomAlpha = 0.5

// OrderByAngle returns the points sorted by polar angle around their centroid.
func OrderByAngle(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	if len(out) < 3 {
		return out
	}
	xs := make([]float64, len(out))
	ys := make([]float64, len(out))
	for i, p := range out {
		xs[i], ys[i] = p.X, p.Y
	}
	cx, cy := stat.Mean(xs, nil), stat.Mean(ys, nil)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Atan2(out[i].Y-cy, out[i].X-cx) < math.Atan2(out[j].Y-cy, out[j].X-cx)
	})
	return out
}

// Dedup drops points closer than minDist to the previously kept point. The
// sequence is treated as closed, so a last point that repeats the first is dropped too.
func Dedup(points []Point, minDist float64) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if len(out) == 0 || Distance(out[len(out)-1], p) >= minDist {
			out = append(out, p)
		}
	}
	for len(out) > 1 && Distance(out[0], out[len(out)-1]) < minDist {
		out = out[:len(out)-1]
	}
	return out
}

// PeriodicSpline samples a closed centripetal Catmull-Rom spline through the
// control points. Each span depends only on its four neighbouring control points,
// so moving one point reshapes at most four spans. samples is the approximate
// total number of output vertices.
func PeriodicSpline(control []Point, samples int) ([]Point, error) {
	n := len(control)
	if n < 3 {
		return nil, ErrTooFewVertices
	}
	perSpan := int(math.Ceil(float64(samples) / float64(n)))
	if perSpan < 4 {
		perSpan = 4
	}
	out := make([]Point, 0, n*perSpan)
	for i := 0; i < n; i++ {
		p0 := control[(i-1+n)%n]
		p1 := control[i]
		p2 := control[(i+1)%n]
		p3 := control[(i+2)%n]
		out = append(out, catmullRomSpan(p0, p1, p2, p3, perSpan)...)
	}
	return out, nil
}

// catmullRomSpan samples the span p1->p2, excluding p2, using the Barry-Goldman
// pyramid formulation.
func catmullRomSpan(p0, p1, p2, p3 Point, steps int) []Point {
	knot := func(t float64, a, b Point) float64 {
		d := Distance(a, b)
		if d < 1e-9 {
			d = 1e-9
		}
		return t + math.Pow(d, catmullRomAlpha)
	}
	t0 := 0.0
	t1 := knot(t0, p0, p1)
	t2 := knot(t1, p1, p2)
	t3 := knot(t2, p2, p3)

	blend := func(a, b Point, ta, tb, t float64) Point {
		return r2.Add(r2.Scale((tb-t)/(tb-ta), a), r2.Scale((t-ta)/(tb-ta), b))
	}

	pts := make([]Point, 0, steps)
	for s := 0; s < steps; s++ {
		t := t1 + (t2-t1)*float64(s)/float64(steps)
		a1 := blend(p0, p1, t0, t1, t)
		a2 := blend(p1, p2, t1, t2, t)
		a3 := blend(p2, p3, t2, t3, t)
		b1 := blend(a1, a2, t0, t2, t)
		b2 := blend(a2, a3, t1, t3, t)
		pts = append(pts, blend(b1, b2, t1, t2, t))
	}
	return pts
}
