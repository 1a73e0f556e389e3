package analyzer

import (
	"fmt"

	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
	"github.com/anime-shed/rgd-inspector-go/pkg/geometry"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

// distinct points closer than this are the same point
const coincidentDistance = 1e-6

type pathSimplifier struct {
	opts AnalysisOptions
}

// NewPathSimplifier creates a simplifier using the stroke options
func NewPathSimplifier(opts AnalysisOptions) PathSimplifier {
	return &pathSimplifier{opts: opts}
}

// Simplify smooths and reduces the stroke, then snaps endpoints within the
// loop's tolerance onto the perimeter curve
func (s *pathSimplifier) Simplify(stroke []models.Point, loop PerimeterLoop) (CrackCandidate, error) {
	if loop.State() != models.PerimeterLocked {
		return CrackCandidate{}, apperrors.NewInvalidStateError("perimeter must be locked before tracing cracks", nil)
	}
	for i, p := range stroke {
		if !finitePoint(p) {
			return CrackCandidate{}, apperrors.NewValidationError(fmt.Sprintf("stroke sample %d is not finite", i), nil)
		}
	}
	if geometry.DistinctCount(stroke, coincidentDistance) < 2 {
		return CrackCandidate{}, apperrors.NewDegenerateStrokeError(
			fmt.Sprintf("stroke has %d samples but fewer than 2 distinct points", len(stroke)), nil)
	}

	raw := append([]models.Point(nil), stroke...)
	pts := stroke
	if s.opts.SmoothStrokes {
		pts = geometry.SmoothOnce(pts)
	}
	pts = geometry.Simplify(pts, s.opts.SimplifyEpsilon)

	curve, tol := loop.Curve(), loop.Tolerance()
	candidate := CrackCandidate{Points: pts, Raw: raw, Epsilon: s.opts.SimplifyEpsilon, Tolerance: tol}
	first, last := 0, len(pts)-1
	if q, d := curve.NearestPoint(pts[first]); d <= tol {
		pts[first] = q
		candidate.StartSnapped = true
	}
	if q, d := curve.NearestPoint(pts[last]); d <= tol {
		pts[last] = q
		candidate.EndSnapped = true
	}

	if geometry.DistinctCount(pts, coincidentDistance) < 2 {
		return CrackCandidate{}, apperrors.NewDegenerateStrokeError("stroke collapsed to a single point", nil)
	}
	if length := candidate.Length(); length < s.opts.MinCrackLength {
		return CrackCandidate{}, apperrors.NewDegenerateStrokeError("stroke is too short", nil).
			WithDetails("length=%.3fpx min=%.3fpx", length, s.opts.MinCrackLength)
	}
	return candidate, nil
}
