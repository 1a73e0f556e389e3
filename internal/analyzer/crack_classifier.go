package analyzer

import (
	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
	"github.com/anime-shed/rgd-inspector-go/pkg/geometry"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

type crackClassifier struct{}

// NewCrackClassifier creates a classifier. It holds no state.
func NewCrackClassifier() CrackClassifier {
	return crackClassifier{}
}

// Classify types a candidate by where its endpoints lie and validates the type
// against the number of boundary crossings. The returned crack has no ID and
// no percentage; the caller assigns both.
func (crackClassifier) Classify(candidate CrackCandidate, loop PerimeterLoop) (models.Crack, error) {
	if loop.State() != models.PerimeterLocked {
		return models.Crack{}, apperrors.NewInvalidStateError("perimeter must be locked before classifying cracks", nil)
	}
	if len(candidate.Points) < 2 {
		return models.Crack{}, apperrors.NewDegenerateStrokeError("candidate has fewer than 2 points", nil)
	}

	curve, tol := loop.Curve(), loop.Tolerance()
	start := candidate.Points[0]
	end := candidate.Points[len(candidate.Points)-1]
	startIn := curve.Locate(start, tol) != geometry.Outside
	endIn := curve.Locate(end, tol) != geometry.Outside
	trace := curve.Trace(candidate.Points)

	if !trace.EntersInterior {
		return models.Crack{}, apperrors.NewInvalidCrackGeometryError("crack does not enter the cross-section", nil).
			WithDetails("crossings=%d", trace.Crossings)
	}

	var crackType models.CrackType
	switch {
	case startIn && endIn:
		if trace.Crossings%2 != 0 {
			return models.Crack{}, apperrors.NewInvalidCrackGeometryError("internal crack exits the cross-section", nil).
				WithDetails("crossings=%d", trace.Crossings)
		}
		crackType = models.CrackInternal
	case startIn != endIn:
		if trace.Crossings%2 != 1 {
			return models.Crack{}, apperrors.NewInvalidCrackGeometryError("external crack must cross the perimeter an odd number of times", nil).
				WithDetails("crossings=%d", trace.Crossings)
		}
		crackType = models.CrackExternal
	default:
		if trace.Crossings < 2 {
			return models.Crack{}, apperrors.NewInvalidCrackGeometryError("crack does not pass through the cross-section", nil).
				WithDetails("crossings=%d", trace.Crossings)
		}
		crackType = models.CrackSplit
	}

	points := append([]models.Point(nil), candidate.Points...)
	return models.Crack{
		Type:          crackType,
		Points:        points,
		Start:         start,
		End:           end,
		Length:        geometry.PolylineLength(points),
		RawPoints:     append([]models.Point(nil), candidate.Raw...),
		StartSnapped:  candidate.StartSnapped,
		EndSnapped:    candidate.EndSnapped,
		EpsilonUsed:   candidate.Epsilon,
		SnapTolerance: candidate.Tolerance,
	}, nil
}
