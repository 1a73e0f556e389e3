package analyzer

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

// The standard specimen: a circle of radius 100 centred at (200, 200), so CSD is
// close to 200px and the boundary band is about 2px.
var (
	specimenCenter = models.Point{X: 200, Y: 200}
	specimenRadius = 100.0
)

func circlePoints(n int, center models.Point, r float64) []models.Point {
	pts := make([]models.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = models.Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)}
	}
	return pts
}

func lockedLoop(t *testing.T) *perimeterLoop {
	t.Helper()
	loop := &perimeterLoop{opts: DefaultOptions()}
	for _, p := range circlePoints(8, specimenCenter, specimenRadius) {
		require.NoError(t, loop.AddPoint(p))
	}
	require.NoError(t, loop.Lock())
	return loop
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newLockedState(t *testing.T, options ...Option) *AnalysisState {
	t.Helper()
	options = append([]Option{WithIDGenerator(sequentialIDs())}, options...)
	s, err := NewAnalysisState(DefaultOptions(), options...)
	require.NoError(t, err)
	for _, p := range circlePoints(8, specimenCenter, specimenRadius) {
		require.NoError(t, s.AddPerimeterPoint(p))
	}
	require.NoError(t, s.LockPerimeter())
	return s
}

// line samples a straight stroke from a to b every step pixels
func line(a, b models.Point, step float64) []models.Point {
	d := math.Hypot(b.X-a.X, b.Y-a.Y)
	n := int(math.Ceil(d / step))
	if n < 1 {
		n = 1
	}
	pts := make([]models.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		pts = append(pts, models.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
	}
	return pts
}

func pt(x, y float64) models.Point { return models.Point{X: x, Y: y} }
