package validation

import (
	"fmt"
	"math"

	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

// Issue severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// TraceLimits bounds the size of a recorded trace accepted for replay
type TraceLimits struct {
	MaxPerimeterPoints int
	MaxStrokes         int
	MaxStrokePoints    int

	// Largest absolute coordinate, in image pixels
	MaxCoordinate float64
}

// DefaultTraceLimits returns the default trace limits
func DefaultTraceLimits() TraceLimits {
	return TraceLimits{
		MaxPerimeterPoints: 2000,
		MaxStrokes:         500,
		MaxStrokePoints:    20000,
		MaxCoordinate:      100000, // larger than any specimen photograph
	}
}

// TraceValidator checks trace documents before they are replayed
type TraceValidator struct {
	limits TraceLimits
}

// NewTraceValidator creates a trace validator with default limits
func NewTraceValidator() *TraceValidator {
	return &TraceValidator{
		limits: DefaultTraceLimits(),
	}
}

// NewTraceValidatorWithLimits creates a trace validator with custom limits
func NewTraceValidatorWithLimits(limits TraceLimits) *TraceValidator {
	return &TraceValidator{
		limits: limits,
	}
}

// TraceIssue represents a trace validation issue
type TraceIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	Stroke      int     `json:"stroke"` // -1 for the perimeter or the whole document
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

func (i TraceIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Type, i.Message)
}

// ValidateDocument reports everything wrong with a trace document. Error
// issues make the document unusable; a warning marks a stroke that replay
// will reject.
func (tv *TraceValidator) ValidateDocument(doc models.TraceDocument) []TraceIssue {
	var issues []TraceIssue

	// 1. Perimeter size and coordinates
	if len(doc.Perimeter) > tv.limits.MaxPerimeterPoints {
		issues = append(issues, TraceIssue{
			Type:        "too_many_perimeter_points",
			Message:     "perimeter has more control points than allowed",
			Severity:    SeverityError,
			Stroke:      -1,
			ActualValue: float64(len(doc.Perimeter)),
			Threshold:   float64(tv.limits.MaxPerimeterPoints),
		})
	}
	if issue, ok := tv.checkPoints(doc.Perimeter, -1, SeverityError); !ok {
		issues = append(issues, issue)
	}

	// 2. Stroke count
	if len(doc.Strokes) > tv.limits.MaxStrokes {
		issues = append(issues, TraceIssue{
			Type:        "too_many_strokes",
			Message:     "document has more strokes than allowed",
			Severity:    SeverityError,
			Stroke:      -1,
			ActualValue: float64(len(doc.Strokes)),
			Threshold:   float64(tv.limits.MaxStrokes),
		})
	}

	// 3. Individual strokes
	for i, stroke := range doc.Strokes {
		switch {
		case len(stroke) > tv.limits.MaxStrokePoints:
			issues = append(issues, TraceIssue{
				Type:        "stroke_too_long",
				Message:     fmt.Sprintf("stroke %d has more samples than allowed", i),
				Severity:    SeverityError,
				Stroke:      i,
				ActualValue: float64(len(stroke)),
				Threshold:   float64(tv.limits.MaxStrokePoints),
			})
		case len(stroke) < 2:
			issues = append(issues, TraceIssue{
				Type:        "short_stroke",
				Message:     fmt.Sprintf("stroke %d has fewer than two samples", i),
				Severity:    SeverityWarning,
				Stroke:      i,
				ActualValue: float64(len(stroke)),
				Threshold:   2,
			})
		default:
			if issue, ok := tv.checkPoints(stroke, i, SeverityWarning); !ok {
				issues = append(issues, issue)
			}
		}
	}

	return issues
}

// checkPoints reports the first non-finite or out-of-range point
func (tv *TraceValidator) checkPoints(pts []models.Point, stroke int, severity string) (TraceIssue, bool) {
	where := "perimeter"
	if stroke >= 0 {
		where = fmt.Sprintf("stroke %d", stroke)
	}
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return TraceIssue{
				Type:     "non_finite_coordinate",
				Message:  where + " contains a non-finite coordinate",
				Severity: severity,
				Stroke:   stroke,
			}, false
		}
		if m := math.Max(math.Abs(p.X), math.Abs(p.Y)); m > tv.limits.MaxCoordinate {
			return TraceIssue{
				Type:        "coordinate_out_of_range",
				Message:     where + " contains a coordinate outside the image range",
				Severity:    severity,
				Stroke:      stroke,
				ActualValue: m,
				Threshold:   tv.limits.MaxCoordinate,
			}, false
		}
	}
	return TraceIssue{}, true
}

// HasErrors reports whether any issue has error severity
func HasErrors(issues []TraceIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// FilterBySeverity returns the issues with the given severity
func FilterBySeverity(issues []TraceIssue, severity string) []TraceIssue {
	var out []TraceIssue
	for _, issue := range issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}
