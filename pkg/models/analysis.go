package models

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a 2D coordinate in image pixel space.
type Point = r2.Vec

// CrackType classifies a crack by how many endpoints lie outside the perimeter.
type CrackType int

const (
	// CrackInternal has both endpoints inside (or on) the perimeter
	CrackInternal CrackType = iota + 1
	// CrackExternal has exactly one endpoint outside the perimeter
	CrackExternal
	// CrackSplit has both endpoints outside and passes through the cross-section
	CrackSplit
)

// CrackTypes lists every crack type in display order.
var CrackTypes = []CrackType{CrackInternal, CrackExternal, CrackSplit}

func (t CrackType) String() string {
	switch t {
	case CrackInternal:
		return "Internal"
	case CrackExternal:
		return "External"
	case CrackSplit:
		return "Split"
	default:
		return fmt.Sprintf("CrackType(%d)", int(t))
	}
}

// MarshalText encodes the crack type by name.
func (t CrackType) MarshalText() ([]byte, error) {
	switch t {
	case CrackInternal, CrackExternal, CrackSplit:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("unknown crack type %d", int(t))
	}
}

// UnmarshalText decodes a crack type name.
func (t *CrackType) UnmarshalText(text []byte) error {
	parsed, err := ParseCrackType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseCrackType parses "Internal", "External" or "Split".
func ParseCrackType(s string) (CrackType, error) {
	for _, t := range CrackTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown crack type %q", s)
}

// Crack is a classified, measured crack polyline.
type Crack struct {
	ID         string    `json:"id"`
	Type       CrackType `json:"type"`
	Points     []Point   `json:"points"`
	Start      Point     `json:"start"`
	End        Point     `json:"end"`
	Length     float64   `json:"length_px"`
	PercentCSD float64   `json:"percent_csd"`

	// How the traced stroke became Points
	RawPoints     []Point `json:"raw_points,omitempty"`
	StartSnapped  bool    `json:"start_snapped"`
	EndSnapped    bool    `json:"end_snapped"`
	EpsilonUsed   float64 `json:"epsilon_used"`
	SnapTolerance float64 `json:"snap_tolerance_px"`
}

// Clone returns a deep copy of the crack.
func (c Crack) Clone() Crack {
	c.Points = append([]Point(nil), c.Points...)
	if c.RawPoints != nil {
		c.RawPoints = append([]Point(nil), c.RawPoints...)
	}
	return c
}

// AnalysisMetrics is the aggregate view of a crack set.
type AnalysisMetrics struct {
	CrackCount    int     `json:"crack_count"`
	InternalCount int     `json:"internal_count"`
	ExternalCount int     `json:"external_count"`
	SplitCount    int     `json:"split_count"`
	HasSplit      bool    `json:"has_split"`
	TotalPercent  float64 `json:"total_percent_csd"`
	MaxPercent    float64 `json:"max_percent_csd"`
	MaxInternal   float64 `json:"max_internal_percent_csd"`
	MaxExternal   float64 `json:"max_external_percent_csd"`

	// Internal cracks with percent CSD > 50
	InternalsAbove50 int `json:"internals_above_50"`
	// Internal cracks with percent CSD > 80
	InternalsAbove80 int `json:"internals_above_80"`
	// Internal cracks with 50 <= percent CSD < 80
	InternalsInBand   int      `json:"internals_in_band"`
	InternalsInBandID []string `json:"internals_in_band_ids,omitempty"`

	CountBelow25 int `json:"count_below_25"`
	CountBelow50 int `json:"count_below_50"`
}

// Outcome is the pass/fail verdict of a rating.
type Outcome string

const (
	OutcomePass Outcome = "PASS"
	OutcomeFail Outcome = "FAIL"
)

// Criterion is one rule condition that decided a rating.
type Criterion struct {
	Step        int     `json:"step"`
	Rule        string  `json:"rule"`
	Description string  `json:"description"`
	Actual      float64 `json:"actual"`
	Limit       float64 `json:"limit"`
}

func (c Criterion) String() string {
	return fmt.Sprintf("step %d %s: %s (actual %.3f, limit %.3f)", c.Step, c.Rule, c.Description, c.Actual, c.Limit)
}

// RatingResult is the ISO 23936-2 Annex B damage rating.
type RatingResult struct {
	Rating   int         `json:"rating"`
	Pass     bool        `json:"pass"`
	Outcome  Outcome     `json:"outcome"`
	Criteria []Criterion `json:"criteria"`
}

// BreakdownRow is one line of the rating breakdown table used by reports.
type BreakdownRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PerimeterState is the lifecycle state of a perimeter loop.
type PerimeterState string

const (
	PerimeterEmpty      PerimeterState = "empty"
	PerimeterCollecting PerimeterState = "collecting"
	PerimeterPreviewing PerimeterState = "previewing"
	PerimeterLocked     PerimeterState = "locked"
)

// PerimeterSnapshot is the serializable form of a locked perimeter.
type PerimeterSnapshot struct {
	ControlPoints []Point `json:"control_points"`
	Curve         []Point `json:"curve"`
	CSD           float64 `json:"csd_px"`
	Tolerance     float64 `json:"tolerance_px"`
}

// Phase is the lifecycle phase of an analysis.
type Phase string

const (
	PhaseAwaitingPerimeter Phase = "awaiting_perimeter"
	PhaseDefiningPerimeter Phase = "defining_perimeter"
	PhasePerimeterLocked   Phase = "perimeter_locked"
	PhaseTracingCracks     Phase = "tracing_cracks"
	PhaseFinalized         Phase = "finalized"
)

// RecordMetadata is opaque data attached to a record by the caller.
type RecordMetadata struct {
	ImageRef string            `json:"image_ref,omitempty"`
	Snapshot []byte            `json:"snapshot,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// AnalysisRecord is the immutable result of a finalized analysis.
type AnalysisRecord struct {
	ID          string            `json:"id"`
	FinalizedAt time.Time         `json:"finalized_at"`
	Perimeter   PerimeterSnapshot `json:"perimeter"`
	Cracks      []Crack           `json:"cracks"`
	Metrics     AnalysisMetrics   `json:"metrics"`
	Rating      RatingResult      `json:"rating"`
	Breakdown   []BreakdownRow    `json:"breakdown"`
	Metadata    RecordMetadata    `json:"metadata"`
}

// AnalysisView is what the rendering and live display layers read after a mutation.
type AnalysisView struct {
	Phase          Phase           `json:"phase"`
	PerimeterState PerimeterState  `json:"perimeter_state"`
	ControlPoints  []Point         `json:"control_points"`
	Curve          []Point         `json:"curve,omitempty"`
	CSD            float64         `json:"csd_px,omitempty"`
	Cracks         []Crack         `json:"cracks"`
	Metrics        AnalysisMetrics `json:"metrics"`
	Rating         RatingResult    `json:"rating"`
}
