package analyzer

import (
	"github.com/anime-shed/rgd-inspector-go/pkg/geometry"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

// PerimeterLoop holds the control points of the cross-section outline and the
// closed curve derived from them
type PerimeterLoop interface {
	AddPoint(p models.Point) error
	RemovePoint(index int) (models.Point, error)
	RemoveNearestPoint(p models.Point, radius float64) (int, error)
	PreviewCurve() (*geometry.ClosedCurve, error)
	Lock() error
	Reset()

	State() models.PerimeterState
	Points() []models.Point
	ControlPoints() []models.Point

	// Valid only once locked
	Curve() *geometry.ClosedCurve
	CSD() float64
	Tolerance() float64
	Snapshot() models.PerimeterSnapshot
}

// PathSimplifier reduces a raw stroke to a crack candidate
type PathSimplifier interface {
	Simplify(stroke []models.Point, loop PerimeterLoop) (CrackCandidate, error)
}

// CrackClassifier assigns a crack type to a candidate against a locked loop
type CrackClassifier interface {
	Classify(candidate CrackCandidate, loop PerimeterLoop) (models.Crack, error)
}

// MetricsCalculator derives crack percentages and aggregate metrics
type MetricsCalculator interface {
	PercentCSD(length, csd float64) float64
	Aggregate(cracks []models.Crack) models.AnalysisMetrics
}
