package analyzer

import (
	"testing"

	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

func TestMetricsCalculator_PercentCSD(t *testing.T) {
	calc := NewMetricsCalculator()

	testCases := []struct {
		name   string
		length float64
		csd    float64
		want   float64
	}{
		{"Quarter", 50, 200, 25},
		{"Longer than CSD", 300, 200, 150},
		{"Zero length", 0, 200, 0},
		{"No CSD", 10, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := calc.PercentCSD(tc.length, tc.csd); got != tc.want {
				t.Errorf("Expected %f, got %f", tc.want, got)
			}
		})
	}
}

func TestMetricsCalculator_AggregateEmpty(t *testing.T) {
	m := NewMetricsCalculator().Aggregate(nil)
	if m.CrackCount != 0 || m.TotalPercent != 0 || m.HasSplit {
		t.Errorf("Expected zero metrics, got %+v", m)
	}
}

func TestMetricsCalculator_Aggregate(t *testing.T) {
	cracks := []models.Crack{
		{ID: "a", Type: models.CrackInternal, PercentCSD: 50},
		{ID: "b", Type: models.CrackInternal, PercentCSD: 79.999},
		{ID: "c", Type: models.CrackInternal, PercentCSD: 80},
		{ID: "d", Type: models.CrackInternal, PercentCSD: 12},
		{ID: "e", Type: models.CrackExternal, PercentCSD: 9},
		{ID: "f", Type: models.CrackExternal, PercentCSD: 30},
	}

	m := NewMetricsCalculator().Aggregate(cracks)

	if m.CrackCount != 6 || m.InternalCount != 4 || m.ExternalCount != 2 || m.SplitCount != 0 {
		t.Errorf("Unexpected counts: %+v", m)
	}
	if diff := m.TotalPercent - 260.999; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected total 260.999, got %f", m.TotalPercent)
	}
	if m.MaxPercent != 80 || m.MaxInternal != 80 || m.MaxExternal != 30 {
		t.Errorf("Unexpected maxima: max=%f internal=%f external=%f", m.MaxPercent, m.MaxInternal, m.MaxExternal)
	}
	// 50 is in the band but not above 50; 80 is neither in the band nor above 80
	if m.InternalsAbove50 != 2 {
		t.Errorf("Expected 2 internals above 50, got %d", m.InternalsAbove50)
	}
	if m.InternalsAbove80 != 0 {
		t.Errorf("Expected no internals above 80, got %d", m.InternalsAbove80)
	}
	if m.InternalsInBand != 2 {
		t.Errorf("Expected 2 internals in band, got %d", m.InternalsInBand)
	}
	if len(m.InternalsInBandID) != 2 || m.InternalsInBandID[0] != "a" || m.InternalsInBandID[1] != "b" {
		t.Errorf("Expected band ids [a b], got %v", m.InternalsInBandID)
	}
	if m.CountBelow25 != 2 || m.CountBelow50 != 3 {
		t.Errorf("Expected 2 below 25 and 3 below 50, got %d and %d", m.CountBelow25, m.CountBelow50)
	}
}

func TestMetricsCalculator_Split(t *testing.T) {
	m := NewMetricsCalculator().Aggregate([]models.Crack{
		{Type: models.CrackSplit, PercentCSD: 120},
		{Type: models.CrackInternal, PercentCSD: 10},
	})
	if !m.HasSplit || m.SplitCount != 1 {
		t.Errorf("Expected one split, got %+v", m)
	}
	if m.MaxPercent != 120 || m.MaxInternal != 10 {
		t.Errorf("Expected split to count in max but not in max internal, got %+v", m)
	}
}

func TestMetricsCalculator_RecomputesFromScratch(t *testing.T) {
	calc := NewMetricsCalculator()
	cracks := []models.Crack{
		{Type: models.CrackInternal, PercentCSD: 0.1},
		{Type: models.CrackInternal, PercentCSD: 0.2},
	}
	first := calc.Aggregate(cracks)
	for i := 0; i < 100; i++ {
		calc.Aggregate(append(cracks, models.Crack{Type: models.CrackExternal, PercentCSD: 0.3}))
	}
	if again := calc.Aggregate(cracks); again.TotalPercent != first.TotalPercent {
		t.Errorf("Expected identical totals, got %v and %v", first.TotalPercent, again.TotalPercent)
	}
}
