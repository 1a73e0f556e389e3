package rating

import (
	"fmt"
	"strconv"

	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

// BreakdownTable returns the rows of the ISO 23936-2 rating table in report order
func (e *Engine) BreakdownTable(m models.AnalysisMetrics) []models.BreakdownRow {
	th := e.thresholds
	return []models.BreakdownRow{
		{Label: "Total crack length (% of CSD)", Value: fmt.Sprintf("%.2f%%", m.TotalPercent)},
		{Label: fmt.Sprintf("# cracks that are <%g%% CSD", th.Rating1Crack), Value: strconv.Itoa(m.CountBelow25)},
		{Label: fmt.Sprintf("All ext. cracks <%g%% CSD", th.Rating1External), Value: yesNo(m.MaxExternal < th.Rating1External)},
		{Label: fmt.Sprintf("# cracks that are <%g%% CSD", th.Rating2Crack), Value: strconv.Itoa(m.CountBelow50)},
		{Label: fmt.Sprintf("All ext. cracks <%g%% CSD", th.Rating2External), Value: yesNo(m.MaxExternal < th.Rating2External)},
		{Label: fmt.Sprintf("# int. cracks %g-%g%% CSD", th.FailInternalCountOver, th.FailInternal), Value: strconv.Itoa(m.InternalsInBand)},
		{Label: fmt.Sprintf("All ext. cracks <%g%% CSD", th.FailExternal), Value: yesNo(m.MaxExternal < th.FailExternal)},
		{Label: fmt.Sprintf("One or more int. crack >%g%% CSD", th.FailInternal), Value: yesNo(m.MaxInternal > th.FailInternal)},
		{Label: fmt.Sprintf("%d or more int. cracks >%g%% CSD", th.FailInternalCount, th.FailInternalCountOver), Value: yesNo(m.InternalsAbove50 >= th.FailInternalCount)},
		{Label: "Any splits present", Value: yesNo(m.HasSplit || m.SplitCount > 0)},
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
