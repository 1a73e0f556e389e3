package analyzer

import (
	"fmt"
	"math"

	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
)

// AnalysisOptions provides the tolerances used by one analysis. Distances are
// in image pixels.
type AnalysisOptions struct {
	// Perimeter
	MinPerimeterPoints int     `yaml:"min_perimeter_points"`
	CurveSamples       int     `yaml:"curve_samples"`
	DedupDistance      float64 `yaml:"dedup_distance"`
	OrderByAngle       bool    `yaml:"order_by_angle"`

	// Boundary band, a fraction of CSD with an absolute floor
	BoundaryToleranceFraction float64 `yaml:"boundary_tolerance_fraction"`
	MinBoundaryTolerance      float64 `yaml:"min_boundary_tolerance"`

	// Strokes
	SimplifyEpsilon float64 `yaml:"simplify_epsilon"`
	SmoothStrokes   bool    `yaml:"smooth_strokes"`
	MinCrackLength  float64 `yaml:"min_crack_length"`

	// Editing
	DeleteRadius float64 `yaml:"delete_radius"`
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		MinPerimeterPoints:        5,
		CurveSamples:              1000,
		DedupDistance:             1.0,
		OrderByAngle:              true,
		BoundaryToleranceFraction: 0.01,
		MinBoundaryTolerance:      0.5,
		SimplifyEpsilon:           1.0,
		SmoothStrokes:             true,
		MinCrackLength:            1.0,
		DeleteRadius:              10.0,
	}
}

// Validate rejects options no analysis can run with
func (opts AnalysisOptions) Validate() error {
	if opts.MinPerimeterPoints < 3 {
		return apperrors.NewValidationError(fmt.Sprintf("min_perimeter_points must be at least 3, got %d", opts.MinPerimeterPoints), nil)
	}
	if opts.CurveSamples < opts.MinPerimeterPoints {
		return apperrors.NewValidationError(fmt.Sprintf("curve_samples must be at least min_perimeter_points, got %d", opts.CurveSamples), nil)
	}
	checks := []struct {
		name  string
		value float64
		zero  bool
	}{
		{"dedup_distance", opts.DedupDistance, true},
		{"boundary_tolerance_fraction", opts.BoundaryToleranceFraction, true},
		{"min_boundary_tolerance", opts.MinBoundaryTolerance, false},
		{"simplify_epsilon", opts.SimplifyEpsilon, true},
		{"min_crack_length", opts.MinCrackLength, true},
		{"delete_radius", opts.DeleteRadius, false},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value < 0 || (!c.zero && c.value == 0) {
			return apperrors.NewValidationError(fmt.Sprintf("%s is out of range: %v", c.name, c.value), nil)
		}
	}
	return nil
}

// Tolerance returns the boundary band for a perimeter with the given CSD
func (opts AnalysisOptions) Tolerance(csd float64) float64 {
	return math.Max(opts.BoundaryToleranceFraction*csd, opts.MinBoundaryTolerance)
}

// WithCurveSamples returns options with a different curve resolution
func (opts AnalysisOptions) WithCurveSamples(samples int) AnalysisOptions {
	opts.CurveSamples = samples
	return opts
}

// WithBoundaryTolerance sets the boundary band as a fraction of CSD and its floor
func (opts AnalysisOptions) WithBoundaryTolerance(fraction, floor float64) AnalysisOptions {
	opts.BoundaryToleranceFraction = fraction
	opts.MinBoundaryTolerance = floor
	return opts
}

// WithSimplifyEpsilon sets the Douglas-Peucker error bound
func (opts AnalysisOptions) WithSimplifyEpsilon(epsilon float64) AnalysisOptions {
	opts.SimplifyEpsilon = epsilon
	return opts
}

// WithoutSmoothing disables the moving-average pass over strokes
func (opts AnalysisOptions) WithoutSmoothing() AnalysisOptions {
	opts.SmoothStrokes = false
	return opts
}

// WithoutAngleOrdering keeps perimeter points in insertion order
func (opts AnalysisOptions) WithoutAngleOrdering() AnalysisOptions {
	opts.OrderByAngle = false
	return opts
}
