package analyzer

import (
	"gonum.org/v1/gonum/floats"

	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

// Band limits in percent of CSD
const (
	bandLow      = 50.0
	bandHigh     = 80.0
	rating1Crack = 25.0
	rating2Crack = 50.0
)

// metricsCalculator implements MetricsCalculator. Every call recomputes from
// the full crack set.
type metricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return metricsCalculator{}
}

// PercentCSD expresses a length as a percentage of the cross-sectional diameter
func (metricsCalculator) PercentCSD(length, csd float64) float64 {
	if csd <= 0 {
		return 0
	}
	return length / csd * 100
}

// Aggregate computes the rating inputs for a crack set
func (metricsCalculator) Aggregate(cracks []models.Crack) models.AnalysisMetrics {
	m := models.AnalysisMetrics{CrackCount: len(cracks)}
	if len(cracks) == 0 {
		return m
	}

	all := make([]float64, 0, len(cracks))
	var internals, externals []float64
	for _, c := range cracks {
		p := c.PercentCSD
		all = append(all, p)
		if p < rating1Crack {
			m.CountBelow25++
		}
		if p < rating2Crack {
			m.CountBelow50++
		}

		switch c.Type {
		case models.CrackInternal:
			internals = append(internals, p)
			if p > bandLow {
				m.InternalsAbove50++
			}
			if p > bandHigh {
				m.InternalsAbove80++
			}
			if p >= bandLow && p < bandHigh {
				m.InternalsInBand++
				m.InternalsInBandID = append(m.InternalsInBandID, c.ID)
			}
		case models.CrackExternal:
			externals = append(externals, p)
		case models.CrackSplit:
			m.SplitCount++
		}
	}

	m.InternalCount = len(internals)
	m.ExternalCount = len(externals)
	m.HasSplit = m.SplitCount > 0
	m.TotalPercent = floats.Sum(all)
	m.MaxPercent = floats.Max(all)
	if len(internals) > 0 {
		m.MaxInternal = floats.Max(internals)
	}
	if len(externals) > 0 {
		m.MaxExternal = floats.Max(externals)
	}
	return m
}
