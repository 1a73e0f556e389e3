package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

func TestPathSimplifier_RequiresLockedLoop(t *testing.T) {
	loop := NewPerimeterLoop(DefaultOptions())
	_, err := NewPathSimplifier(DefaultOptions()).Simplify(line(pt(0, 0), pt(10, 0), 1), loop)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState), "got %v", err)
}

func TestPathSimplifier_Degenerate(t *testing.T) {
	loop := lockedLoop(t)
	simplifier := NewPathSimplifier(DefaultOptions())

	testCases := []struct {
		name   string
		stroke []models.Point
		kind   apperrors.ErrorType
	}{
		{"empty", nil, apperrors.ErrorTypeDegenerateStroke},
		{"single sample", []models.Point{pt(200, 200)}, apperrors.ErrorTypeDegenerateStroke},
		{"repeated sample", []models.Point{pt(200, 200), pt(200, 200), pt(200, 200)}, apperrors.ErrorTypeDegenerateStroke},
		{"too short", []models.Point{pt(200, 200), pt(200.4, 200)}, apperrors.ErrorTypeDegenerateStroke},
		{"snapped ends too close", []models.Point{pt(300.5, 200), pt(301, 200.5)}, apperrors.ErrorTypeDegenerateStroke},
		{"not finite", []models.Point{pt(200, 200), pt(math.Inf(1), 0)}, apperrors.ErrorTypeValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := simplifier.Simplify(tc.stroke, loop)
			assert.True(t, apperrors.IsType(err, tc.kind), "got %v", err)
		})
	}
}

func TestPathSimplifier_ReducesStraightStroke(t *testing.T) {
	loop := lockedLoop(t)
	stroke := line(pt(150, 200), pt(250, 200), 0.5)

	candidate, err := NewPathSimplifier(DefaultOptions()).Simplify(stroke, loop)
	require.NoError(t, err)
	assert.Len(t, candidate.Points, 2)
	assert.Equal(t, stroke[0], candidate.Points[0])
	assert.Equal(t, stroke[len(stroke)-1], candidate.Points[1])
	assert.InDelta(t, 100.0, candidate.Length(), 1e-9)
	assert.False(t, candidate.StartSnapped)
	assert.False(t, candidate.EndSnapped)
}

func TestPathSimplifier_KeepsShape(t *testing.T) {
	loop := lockedLoop(t)
	stroke := append(line(pt(150, 180), pt(200, 230), 1), line(pt(200, 230), pt(250, 180), 1)[1:]...)

	candidate, err := NewPathSimplifier(DefaultOptions()).Simplify(stroke, loop)
	require.NoError(t, err)
	require.Len(t, candidate.Points, 3)
	// smoothing rounds the corner, so the apex moves by less than a pixel
	assert.InDelta(t, 200.0, candidate.Points[1].X, 1)
	assert.InDelta(t, 230.0, candidate.Points[1].Y, 1)
}

func TestPathSimplifier_SnapsEndpoints(t *testing.T) {
	loop := lockedLoop(t)
	stroke := line(pt(301, 200), pt(220, 200), 1)

	candidate, err := NewPathSimplifier(DefaultOptions()).Simplify(stroke, loop)
	require.NoError(t, err)
	assert.True(t, candidate.StartSnapped)
	assert.False(t, candidate.EndSnapped)
	assert.InDelta(t, 0, loop.Curve().DistanceTo(candidate.Points[0]), 1e-9)
	assert.Equal(t, pt(220, 200), candidate.Points[len(candidate.Points)-1])
	assert.Equal(t, stroke, candidate.Raw)
	assert.Equal(t, DefaultOptions().SimplifyEpsilon, candidate.Epsilon)
	assert.Equal(t, loop.Tolerance(), candidate.Tolerance)

	// outside the band nothing moves
	far := line(pt(310, 200), pt(220, 200), 1)
	candidate, err = NewPathSimplifier(DefaultOptions()).Simplify(far, loop)
	require.NoError(t, err)
	assert.False(t, candidate.StartSnapped)
	assert.Equal(t, pt(310, 200), candidate.Points[0])
}

func TestPathSimplifier_DoesNotModifyStroke(t *testing.T) {
	loop := lockedLoop(t)
	stroke := line(pt(301, 200), pt(220, 200), 1)
	original := append([]models.Point(nil), stroke...)

	_, err := NewPathSimplifier(DefaultOptions()).Simplify(stroke, loop)
	require.NoError(t, err)
	assert.Equal(t, original, stroke)
}
