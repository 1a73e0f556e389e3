package analyzer

import (
	"fmt"
	"math"

	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
	"github.com/anime-shed/rgd-inspector-go/pkg/geometry"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

// perimeterLoop implements PerimeterLoop. Points are kept in insertion order;
// the control sequence handed to the spline is derived from them on demand and
// frozen at lock.
type perimeterLoop struct {
	opts   AnalysisOptions
	points []models.Point

	locked    bool
	control   []models.Point
	curve     *geometry.ClosedCurve
	csd       float64
	tolerance float64
}

// NewPerimeterLoop creates an empty perimeter loop
func NewPerimeterLoop(opts AnalysisOptions) PerimeterLoop {
	return &perimeterLoop{opts: opts}
}

func (l *perimeterLoop) AddPoint(p models.Point) error {
	if l.locked {
		return apperrors.NewInvalidStateError("perimeter is locked", nil)
	}
	if !finitePoint(p) {
		return apperrors.NewValidationError(fmt.Sprintf("perimeter point is not finite: %v", p), nil)
	}
	l.points = append(l.points, p)
	return nil
}

func (l *perimeterLoop) RemovePoint(index int) (models.Point, error) {
	if l.locked {
		return models.Point{}, apperrors.NewInvalidStateError("perimeter is locked", nil)
	}
	if index < 0 || index >= len(l.points) {
		return models.Point{}, apperrors.NewNotFoundError(fmt.Sprintf("no perimeter point at index %d", index), nil)
	}
	removed := l.points[index]
	l.points = append(l.points[:index:index], l.points[index+1:]...)
	return removed, nil
}

// RemoveNearestPoint removes the point closest to p within radius. A
// non-positive radius falls back to the configured delete radius.
func (l *perimeterLoop) RemoveNearestPoint(p models.Point, radius float64) (int, error) {
	if l.locked {
		return -1, apperrors.NewInvalidStateError("perimeter is locked", nil)
	}
	if radius <= 0 {
		radius = l.opts.DeleteRadius
	}
	best, bestDist := -1, math.Inf(1)
	for i, q := range l.points {
		if d := geometry.Distance(p, q); d <= radius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return -1, apperrors.NewNotFoundError(fmt.Sprintf("no perimeter point within %.1fpx", radius), nil)
	}
	l.points = append(l.points[:best:best], l.points[best+1:]...)
	return best, nil
}

// PreviewCurve rebuilds the curve from the current points. Nothing is cached.
func (l *perimeterLoop) PreviewCurve() (*geometry.ClosedCurve, error) {
	if l.locked {
		return l.curve, nil
	}
	control := l.controlPoints()
	if len(control) < l.opts.MinPerimeterPoints {
		return nil, apperrors.NewInsufficientPointsError(
			fmt.Sprintf("preview needs %d distinct points, have %d", l.opts.MinPerimeterPoints, len(control)), nil)
	}
	return l.buildCurve(control)
}

func (l *perimeterLoop) Lock() error {
	if l.locked {
		return apperrors.NewInvalidStateError("perimeter is already locked", nil)
	}
	control := l.controlPoints()
	if len(control) < l.opts.MinPerimeterPoints {
		return apperrors.NewInsufficientPointsError(
			fmt.Sprintf("lock needs %d distinct points, have %d", l.opts.MinPerimeterPoints, len(control)), nil)
	}
	curve, err := l.buildCurve(control)
	if err != nil {
		return err
	}
	if math.Abs(curve.Area()) < 1 {
		return apperrors.NewInsufficientPointsError("perimeter points enclose no area", nil)
	}

	l.control = control
	l.curve = curve
	l.csd = curve.Length() / math.Pi
	l.tolerance = l.opts.Tolerance(l.csd)
	l.locked = true
	return nil
}

func (l *perimeterLoop) Reset() {
	l.points = nil
	l.unlock()
}

// unlock drops the frozen curve but keeps the points
func (l *perimeterLoop) unlock() {
	l.control = nil
	l.curve = nil
	l.csd = 0
	l.tolerance = 0
	l.locked = false
}

func (l *perimeterLoop) State() models.PerimeterState {
	switch {
	case l.locked:
		return models.PerimeterLocked
	case len(l.points) == 0:
		return models.PerimeterEmpty
	case len(l.points) < l.opts.MinPerimeterPoints:
		return models.PerimeterCollecting
	default:
		return models.PerimeterPreviewing
	}
}

func (l *perimeterLoop) Points() []models.Point {
	return append([]models.Point(nil), l.points...)
}

func (l *perimeterLoop) ControlPoints() []models.Point {
	if l.locked {
		return append([]models.Point(nil), l.control...)
	}
	return l.controlPoints()
}

func (l *perimeterLoop) Curve() *geometry.ClosedCurve { return l.curve }
func (l *perimeterLoop) CSD() float64                 { return l.csd }
func (l *perimeterLoop) Tolerance() float64           { return l.tolerance }

func (l *perimeterLoop) Snapshot() models.PerimeterSnapshot {
	snap := models.PerimeterSnapshot{ControlPoints: l.ControlPoints()}
	if l.locked {
		snap.Curve = l.curve.Vertices()
		snap.CSD = l.csd
		snap.Tolerance = l.tolerance
	}
	return snap
}

// restore locks the loop onto a previously frozen perimeter without
// rebuilding the curve
func (l *perimeterLoop) restore(snap models.PerimeterSnapshot) error {
	if l.locked {
		return apperrors.NewInvalidStateError("perimeter is already locked", nil)
	}
	if math.IsNaN(snap.CSD) || math.IsInf(snap.CSD, 0) || snap.CSD <= 0 {
		return apperrors.NewValidationError(fmt.Sprintf("record has an invalid CSD: %v", snap.CSD), nil)
	}
	if math.IsNaN(snap.Tolerance) || snap.Tolerance <= 0 {
		return apperrors.NewValidationError(fmt.Sprintf("record has an invalid tolerance: %v", snap.Tolerance), nil)
	}
	curve, err := geometry.NewClosedCurve(snap.Curve)
	if err != nil {
		return apperrors.NewValidationError("record perimeter curve is invalid", err)
	}

	l.control = append([]models.Point(nil), snap.ControlPoints...)
	l.points = append([]models.Point(nil), snap.ControlPoints...)
	l.curve = curve
	l.csd = snap.CSD
	l.tolerance = snap.Tolerance
	l.locked = true
	return nil
}

func (l *perimeterLoop) controlPoints() []models.Point {
	pts := l.points
	if l.opts.OrderByAngle {
		pts = geometry.OrderByAngle(pts)
	}
	return geometry.Dedup(pts, l.opts.DedupDistance)
}

func (l *perimeterLoop) buildCurve(control []models.Point) (*geometry.ClosedCurve, error) {
	samples, err := geometry.PeriodicSpline(control, l.opts.CurveSamples)
	if err != nil {
		return nil, apperrors.NewInsufficientPointsError("cannot interpolate perimeter", err)
	}
	curve, err := geometry.NewClosedCurve(samples)
	if err != nil {
		return nil, apperrors.NewInsufficientPointsError("cannot build perimeter curve", err)
	}
	return curve, nil
}

func finitePoint(p models.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
