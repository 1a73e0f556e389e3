package analyzer

import (
	"github.com/anime-shed/rgd-inspector-go/pkg/geometry"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

// CrackCandidate is a simplified stroke that has not been classified yet
type CrackCandidate struct {
	Points []models.Point
	// Stroke samples as traced
	Raw []models.Point
	// Endpoints moved onto the perimeter curve
	StartSnapped, EndSnapped bool
	Epsilon, Tolerance       float64
}

// Length returns the polyline length of the candidate
func (c CrackCandidate) Length() float64 {
	return geometry.PolylineLength(c.Points)
}
