package capsule

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/dynamic-routing/drift.report/internal/analysis"
)

// renderChart writes the per-unit activity drift bar chart as a standalone
// HTML document. Units arrive sorted by drift, so the chart reads left to
// right from most stable to most drifting.
func renderChart(report *analysis.Report, w io.Writer) error {
	p := report.Params

	locations := make([]string, 0, len(report.Units))
	data := make([]opts.BarData, 0, len(report.Units))
	minDrift, maxDrift := 0.0, 0.0
	for i, u := range report.Units {
		locations = append(locations, fmt.Sprintf("%s (%s)", u.Location, u.ID))
		data = append(data, opts.BarData{Value: u.Drift})
		if i == 0 || u.Drift < minDrift {
			minDrift = u.Drift
		}
		if i == 0 || u.Drift > maxDrift {
			maxDrift = u.Drift
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("Activity drift: %s", p.SessionID),
			Theme:     "dark",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Activity drift: %s", p.SessionID),
			Subtitle: fmt.Sprintf("area=%s n_units=%d sampled=%d", p.Area, p.NUnits, len(report.Units)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "location", NameLocation: "middle", NameGap: 35}),
		charts.WithYAxisOpts(opts.YAxis{Name: "activity drift", NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minDrift),
			Max:        float32(maxDrift),
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)

	bar.SetXAxis(locations).AddSeries("activity_drift", data)

	return bar.Render(w)
}
