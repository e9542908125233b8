package capsule

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/dynamic-routing/drift.report/internal/analysis"
)

// renderHistogram writes a static PNG of the sampled drift distribution.
// Requires at least one unit.
func renderHistogram(report *analysis.Report, w io.Writer) error {
	if len(report.Units) == 0 {
		return fmt.Errorf("cannot plot histogram of empty selection")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Drift distribution: %s / %s", report.Params.SessionID, report.Params.Area)
	p.X.Label.Text = "activity drift"
	p.Y.Label.Text = "units"

	vals := make(plotter.Values, len(report.Units))
	for i, u := range report.Units {
		vals[i] = u.Drift
	}

	bins := 16
	if len(vals) < bins {
		bins = len(vals)
	}

	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(h)

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render histogram: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write histogram: %w", err)
	}
	return nil
}
