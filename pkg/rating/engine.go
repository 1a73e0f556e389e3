package rating

import (
	"fmt"
	"math"

	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

// Rule identifiers recorded in the audit trail
const (
	RuleSplitPresent      = "split_present"
	RuleTotalAbove        = "total_above_limit"
	RuleInternalAbove     = "internal_above_limit"
	RuleInternalsAbove50  = "internals_above_50_count"
	RuleExternalAbove     = "external_above_limit"
	RuleInternalBandCount = "internal_band_count"
	RuleNoCracks          = "no_cracks"
	RuleTotalWithin       = "total_within_limit"
	RuleAllCracksBelow    = "all_cracks_below_limit"
	RuleExternalBelow     = "external_below_limit"
	RuleBandWithin        = "internal_band_within_limit"
)

// Thresholds defines the ISO 23936-2 Annex B limits, all in percent of CSD
type Thresholds struct {
	// Rating 4 triggers
	FailTotal             float64
	FailInternal          float64
	FailInternalCountOver float64 // internal cracks strictly above this count towards FailInternalCount
	FailInternalCount     int
	FailExternal          float64
	MaxInternalsInBand    int

	// Rating 1
	Rating1Total    float64
	Rating1Crack    float64
	Rating1External float64

	// Rating 2
	Rating2Total    float64
	Rating2Crack    float64
	Rating2External float64
}

// DefaultThresholds returns the limits published in ISO 23936-2 Annex B
func DefaultThresholds() Thresholds {
	return Thresholds{
		FailTotal:             300,
		FailInternal:          80,
		FailInternalCountOver: 50,
		FailInternalCount:     3,
		FailExternal:          50,
		MaxInternalsInBand:    2,
		Rating1Total:          100,
		Rating1Crack:          25,
		Rating1External:       10,
		Rating2Total:          200,
		Rating2Crack:          50,
		Rating2External:       25,
	}
}

// Engine evaluates the rating rules. It holds no mutable state, so one engine
// can be shared freely.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine with the default ISO thresholds
func NewEngine() *Engine {
	return &Engine{thresholds: DefaultThresholds()}
}

// NewEngineWithThresholds creates an engine with custom thresholds
func NewEngineWithThresholds(thresholds Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Thresholds returns the limits the engine applies
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate applies the rules in precedence order; the first matching step decides.
// Identical metrics always produce an identical result.
func (e *Engine) Evaluate(m models.AnalysisMetrics) (models.RatingResult, error) {
	if err := checkMetrics(m); err != nil {
		return models.RatingResult{}, err
	}
	th := e.thresholds
	maxCrack := math.Max(m.MaxPercent, math.Max(m.MaxInternal, m.MaxExternal))

	// 1. Split present
	if m.HasSplit || m.SplitCount > 0 {
		return fail(5, models.Criterion{
			Step: 1, Rule: RuleSplitPresent,
			Description: "split crack present",
			Actual:      float64(m.SplitCount),
		}), nil
	}

	// 2. Rating 4 triggers, all recorded
	var fired []models.Criterion
	if m.TotalPercent > th.FailTotal {
		fired = append(fired, models.Criterion{
			Step: 2, Rule: RuleTotalAbove,
			Description: fmt.Sprintf("total crack length > %g%% CSD", th.FailTotal),
			Actual:      m.TotalPercent, Limit: th.FailTotal,
		})
	}
	if m.MaxInternal > th.FailInternal {
		fired = append(fired, models.Criterion{
			Step: 2, Rule: RuleInternalAbove,
			Description: fmt.Sprintf("internal crack > %g%% CSD", th.FailInternal),
			Actual:      m.MaxInternal, Limit: th.FailInternal,
		})
	}
	if m.InternalsAbove50 >= th.FailInternalCount {
		fired = append(fired, models.Criterion{
			Step: 2, Rule: RuleInternalsAbove50,
			Description: fmt.Sprintf("%d or more internal cracks > %g%% CSD", th.FailInternalCount, th.FailInternalCountOver),
			Actual:      float64(m.InternalsAbove50), Limit: float64(th.FailInternalCount),
		})
	}
	if m.MaxExternal > th.FailExternal {
		fired = append(fired, models.Criterion{
			Step: 2, Rule: RuleExternalAbove,
			Description: fmt.Sprintf("external crack > %g%% CSD", th.FailExternal),
			Actual:      m.MaxExternal, Limit: th.FailExternal,
		})
	}
	if m.InternalsInBand > th.MaxInternalsInBand {
		fired = append(fired, models.Criterion{
			Step: 2, Rule: RuleInternalBandCount,
			Description: fmt.Sprintf("more than %d internal cracks in %g-%g%% CSD", th.MaxInternalsInBand, th.FailInternalCountOver, th.FailInternal),
			Actual:      float64(m.InternalsInBand), Limit: float64(th.MaxInternalsInBand),
		})
	}
	if len(fired) > 0 {
		return fail(4, fired...), nil
	}

	// 3. No cracks
	if m.CrackCount == 0 {
		return pass(0, models.Criterion{
			Step: 3, Rule: RuleNoCracks,
			Description: "no cracks traced",
		}), nil
	}

	// 4. Rating 1
	if m.TotalPercent <= th.Rating1Total && maxCrack < th.Rating1Crack && m.MaxExternal < th.Rating1External {
		return pass(1, passCriteria(4, m, maxCrack, th.Rating1Total, th.Rating1Crack, th.Rating1External)...), nil
	}

	// 5. Rating 2
	if m.TotalPercent <= th.Rating2Total && maxCrack < th.Rating2Crack && m.MaxExternal < th.Rating2External {
		return pass(2, passCriteria(5, m, maxCrack, th.Rating2Total, th.Rating2Crack, th.Rating2External)...), nil
	}

	// 6. Rating 3, with the post-condition that step 2 really excluded every fail
	if m.TotalPercent > th.FailTotal || m.InternalsInBand > th.MaxInternalsInBand ||
		m.MaxExternal > th.FailExternal || m.MaxInternal > th.FailInternal ||
		m.InternalsAbove50 >= th.FailInternalCount {
		return models.RatingResult{}, apperrors.NewRatingInvariantError(
			"metrics reached rating 3 while violating a rating 4 limit", nil).
			WithDetails("total=%.3f band=%d max_external=%.3f max_internal=%.3f internals_above_50=%d",
				m.TotalPercent, m.InternalsInBand, m.MaxExternal, m.MaxInternal, m.InternalsAbove50)
	}
	return pass(3,
		models.Criterion{
			Step: 6, Rule: RuleTotalWithin,
			Description: fmt.Sprintf("total crack length <= %g%% CSD", th.FailTotal),
			Actual:      m.TotalPercent, Limit: th.FailTotal,
		},
		models.Criterion{
			Step: 6, Rule: RuleBandWithin,
			Description: fmt.Sprintf("%d or fewer internal cracks in %g-%g%% CSD", th.MaxInternalsInBand, th.FailInternalCountOver, th.FailInternal),
			Actual:      float64(m.InternalsInBand), Limit: float64(th.MaxInternalsInBand),
		},
		models.Criterion{
			Step: 6, Rule: RuleExternalBelow,
			Description: fmt.Sprintf("external cracks <= %g%% CSD", th.FailExternal),
			Actual:      m.MaxExternal, Limit: th.FailExternal,
		},
	), nil
}

func passCriteria(step int, m models.AnalysisMetrics, maxCrack, total, crack, external float64) []models.Criterion {
	return []models.Criterion{
		{
			Step: step, Rule: RuleTotalWithin,
			Description: fmt.Sprintf("total crack length <= %g%% CSD", total),
			Actual:      m.TotalPercent, Limit: total,
		},
		{
			Step: step, Rule: RuleAllCracksBelow,
			Description: fmt.Sprintf("every crack < %g%% CSD", crack),
			Actual:      maxCrack, Limit: crack,
		},
		{
			Step: step, Rule: RuleExternalBelow,
			Description: fmt.Sprintf("external cracks < %g%% CSD", external),
			Actual:      m.MaxExternal, Limit: external,
		},
	}
}

func pass(rating int, criteria ...models.Criterion) models.RatingResult {
	return models.RatingResult{Rating: rating, Pass: true, Outcome: models.OutcomePass, Criteria: criteria}
}

func fail(rating int, criteria ...models.Criterion) models.RatingResult {
	return models.RatingResult{Rating: rating, Pass: false, Outcome: models.OutcomeFail, Criteria: criteria}
}

// sumTolerance absorbs rounding when percentages summed in a different order
// are compared
const sumTolerance = 1e-9

// checkMetrics rejects values no crack set can produce
func checkMetrics(m models.AnalysisMetrics) error {
	percents := []struct {
		name  string
		value float64
	}{
		{"total_percent_csd", m.TotalPercent},
		{"max_percent_csd", m.MaxPercent},
		{"max_internal_percent_csd", m.MaxInternal},
		{"max_external_percent_csd", m.MaxExternal},
	}
	for _, p := range percents {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value < 0 {
			return apperrors.NewRatingInvariantError("metrics contain an invalid percentage", nil).
				WithDetails("%s=%v", p.name, p.value)
		}
	}
	if m.CrackCount < 0 || m.InternalCount < 0 || m.ExternalCount < 0 || m.SplitCount < 0 ||
		m.InternalsAbove50 < 0 || m.InternalsAbove80 < 0 || m.InternalsInBand < 0 ||
		m.CountBelow25 < 0 || m.CountBelow50 < 0 {
		return apperrors.NewRatingInvariantError("metrics contain a negative count", nil)
	}

	eps := sumTolerance * math.Max(1, m.TotalPercent)
	crackMax := math.Max(m.MaxInternal, m.MaxExternal)
	checks := []struct {
		bad    bool
		detail string
	}{
		{m.CrackCount == 0 && (m.TotalPercent != 0 || m.MaxPercent != 0 || crackMax != 0 ||
			m.InternalCount != 0 || m.ExternalCount != 0 || m.SplitCount != 0 ||
			m.InternalsAbove50 != 0 || m.InternalsInBand != 0 || m.CountBelow25 != 0 || m.CountBelow50 != 0),
			"values present without cracks"},
		{m.InternalCount+m.ExternalCount+m.SplitCount != m.CrackCount,
			fmt.Sprintf("type counts %d+%d+%d do not add up to %d", m.InternalCount, m.ExternalCount, m.SplitCount, m.CrackCount)},
		{m.HasSplit != (m.SplitCount > 0), "split flag disagrees with split count"},
		{m.InternalCount == 0 && m.MaxInternal != 0, "internal maximum without internal cracks"},
		{m.ExternalCount == 0 && m.MaxExternal != 0, "external maximum without external cracks"},
		{crackMax > m.MaxPercent+eps, "type maximum above overall maximum"},
		{m.SplitCount == 0 && m.MaxPercent > crackMax+eps, "overall maximum matches no internal or external crack"},
		{m.MaxPercent > m.TotalPercent+eps, "overall maximum above total"},
		{m.TotalPercent > m.MaxPercent*float64(m.CrackCount)+eps, "total above maximum times crack count"},
		{m.InternalsAbove80 > m.InternalsAbove50 || m.InternalsAbove50 > m.InternalCount,
			"internal counts above the internal crack count"},
		{m.InternalsInBand+m.InternalsAbove80 > m.InternalCount, "internal band count above the internal crack count"},
		{m.CountBelow25 > m.CountBelow50 || m.CountBelow50 > m.CrackCount, "below-limit counts above the crack count"},
	}
	for _, c := range checks {
		if c.bad {
			return apperrors.NewRatingInvariantError("metrics are internally inconsistent", nil).
				WithDetails("%s", c.detail)
		}
	}
	return nil
}
