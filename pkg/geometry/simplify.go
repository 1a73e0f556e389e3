package geometry

// Simplify reduces an open polyline with the Douglas-Peucker algorithm. Every
// dropped point lies within epsilon of the kept polyline. Endpoints are always kept.
func Simplify(points []Point, epsilon float64) []Point {
	n := len(points)
	if n <= 2 {
		out := make([]Point, n)
		copy(out, points)
		return out
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	type span struct{ start, end int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		maxDist, idx := -1.0, -1
		for i := s.start + 1; i < s.end; i++ {
			if d := DistanceToSegment(points[i], points[s.start], points[s.end]); d > maxDist {
				maxDist, idx = d, i
			}
		}
		if idx != -1 && maxDist > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.start, idx}, span{idx, s.end})
		}
	}

	out := make([]Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, points[i])
		}
	}
	return out
}

// SmoothOnce applies one 3-point moving average to the interior samples.
func SmoothOnce(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	if len(points) < 3 {
		return out
	}
	for i := 1; i < len(points)-1; i++ {
		out[i] = Point{
			X: (points[i-1].X + points[i].X + points[i+1].X) / 3,
			Y: (points[i-1].Y + points[i].Y + points[i+1].Y) / 3,
		}
	}
	return out
}
