// Package capsule ties one parameter set to one result bundle. A Capsule
// owns no cross-invocation state: two instances given the same parameters
// and datacube write identical artifacts, and instances never communicate.
package capsule

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dynamic-routing/drift.report/internal/analysis"
	"github.com/dynamic-routing/drift.report/internal/datacube"
	"github.com/dynamic-routing/drift.report/internal/fsutil"
	"github.com/dynamic-routing/drift.report/internal/monitoring"
	"github.com/dynamic-routing/drift.report/internal/params"
	"github.com/dynamic-routing/drift.report/internal/pipeline"
)

// OutputsSubdir holds the per-invocation artifacts under the results dir.
const OutputsSubdir = "outputs"

// LogsSubdir holds per-instance log files under the results dir.
const LogsSubdir = "logs"

// Capsule processes one parameter set against one datacube.
type Capsule struct {
	Cube       *datacube.DB
	FS         fsutil.FileSystem
	ResultsDir string

	// WritePNG also renders the static drift histogram.
	WritePNG bool
}

// Outcome lists the artifacts one invocation produced.
type Outcome struct {
	Report      *analysis.Report
	ChartPath   string
	SummaryPath string
	PlotPath    string
}

// Process runs the analysis for p and writes the result bundle. The
// artifact stem encodes the full parameter set, so sweep combos sharing a
// session still get distinct bundles; the pipeline job prefix is appended
// on top for runs writing to a shared results volume.
func (c *Capsule) Process(ctx context.Context, p params.Parameters) (*Outcome, error) {
	monitoring.Logf("Processing session=%s area=%s n_units=%d test=%v", p.SessionID, p.Area, p.NUnits, p.Test)

	report, err := analysis.Run(ctx, c.Cube, p)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(c.ResultsDir, OutputsSubdir)
	if err := c.FS.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create outputs dir: %w", err)
	}

	stem := artifactStem(p)

	outcome := &Outcome{Report: report}

	outcome.ChartPath = filepath.Join(outDir, stem+".html")
	if err := c.writeArtifact(outcome.ChartPath, func(w io.Writer) error {
		return renderChart(report, w)
	}); err != nil {
		return nil, err
	}

	outcome.SummaryPath = filepath.Join(outDir, stem+"_summary.json")
	summary, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	summary = append(summary, '\n')
	if err := c.FS.WriteFile(outcome.SummaryPath, summary, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}

	if c.WritePNG && len(report.Units) > 0 {
		outcome.PlotPath = filepath.Join(outDir, stem+"_drift.png")
		if err := c.writeArtifact(outcome.PlotPath, func(w io.Writer) error {
			return renderHistogram(report, w)
		}); err != nil {
			return nil, err
		}
	}

	monitoring.Logf("Wrote results to %s", outcome.ChartPath)
	return outcome, nil
}

// artifactStem names one invocation's artifacts after its parameter set.
// Session alone is not enough: a sweep runs several combos per session
// against one results dir.
func artifactStem(p params.Parameters) string {
	stem := fmt.Sprintf("%s_%s_n%d", p.SessionID, p.Area, p.NUnits)
	if prefix := pipeline.JobPrefix(); prefix != "" {
		stem = stem + "_" + prefix
	}
	return stem
}

// writeArtifact streams one artifact through render into path.
func (c *Capsule) writeArtifact(path string, render func(w io.Writer) error) error {
	f, err := c.FS.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// EnsureNonEmptyResultsDirs makes sure each dir exists and is non-empty by
// touching a uniquely named placeholder file where needed. A pipeline run can
// crash if an expected results folder is missing or empty; outside a
// pipeline this is a no-op.
func EnsureNonEmptyResultsDirs(fsys fsutil.FileSystem, dirs ...string) error {
	if !pipeline.IsPipeline() {
		return nil
	}

	for _, d := range dirs {
		if err := fsys.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create results dir %s: %w", d, err)
		}
		entries, err := fsys.ReadDir(d)
		if err != nil {
			return fmt.Errorf("failed to list results dir %s: %w", d, err)
		}
		if len(entries) > 0 {
			continue
		}

		path := filepath.Join(d, uuid.New().String())
		monitoring.Logf("Creating %s to ensure results folder is not empty", path)
		if err := fsys.WriteFile(path, nil, 0644); err != nil {
			return fmt.Errorf("failed to create placeholder %s: %w", path, err)
		}
	}
	return nil
}
