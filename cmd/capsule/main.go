// Command capsule runs one unit of analysis work: it resolves a single
// parameter set (parameters file, flags, or environment), selects the
// session it names from the attached datacube, and writes one result bundle.
// A pipeline launches one instance per parameter file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/dynamic-routing/drift.report/internal/capsule"
	"github.com/dynamic-routing/drift.report/internal/datacube"
	"github.com/dynamic-routing/drift.report/internal/fsutil"
	"github.com/dynamic-routing/drift.report/internal/monitoring"
	"github.com/dynamic-routing/drift.report/internal/params"
	"github.com/dynamic-routing/drift.report/internal/pipeline"
	"github.com/dynamic-routing/drift.report/internal/version"
)

var (
	paramsFile = flag.String("params-file", "", "Path to a parameters JSON file (discovered under -params-dir when empty)")
	paramsDir  = flag.String("params-dir", params.DefaultParamsDir, "Directory the pipeline mounts the parameters file into")
	dataDir    = flag.String("data-dir", "", "Data root holding the datacube (default: first of /data, /tmp/data)")
	resultsDir = flag.String("results-dir", "/results", "Directory to write the result bundle into")
	sessionID  = flag.String("session", "", "Session ID (overrides file and environment)")
	area       = flag.String("area", "", "Brain area label (overrides file and environment)")
	nUnits     = flag.Int("n-units", 0, "Number of units to sample (overrides file and environment)")
	testMode   = flag.Bool("test", false, "Run in test mode with a capped sample")
	writePNG   = flag.Bool("png", false, "Also write a static drift histogram PNG")
)

func main() {
	// A .env next to the binary can stand in for the platform's injected
	// environment during local runs. Missing file is fine.
	_ = godotenv.Load()

	flag.Parse()

	if err := run(); err != nil {
		log.Fatalf("capsule failed: %v", err)
	}
}

func run() error {
	t0 := time.Now()
	fsys := fsutil.OSFileSystem{}

	log.Printf("capsule %s (%s)", version.Version, version.GitSHA)

	if pipeline.IsPipeline() {
		closeFn, err := monitoring.SetupFileLogging(
			filepath.Join(*resultsDir, capsule.LogsSubdir), pipeline.JobID(), t0.Unix())
		if err != nil {
			return err
		}
		defer closeFn()
	}

	p, err := params.Resolve(fsys, *paramsFile, *paramsDir, os.LookupEnv, flagOverrides())
	if err != nil {
		return fmt.Errorf("failed to resolve parameters: %w", err)
	}

	var candidates []string
	if *dataDir != "" {
		candidates = []string{*dataDir}
	}
	cube, err := datacube.Discover(fsys, candidates...)
	if err != nil {
		return err
	}
	defer cube.Close()

	c := &capsule.Capsule{
		Cube:       cube,
		FS:         fsys,
		ResultsDir: *resultsDir,
		WritePNG:   *writePNG,
	}

	outcome, err := c.Process(context.Background(), p)
	if err != nil {
		return err
	}

	if err := capsule.EnsureNonEmptyResultsDirs(fsys,
		*resultsDir,
		filepath.Join(*resultsDir, capsule.OutputsSubdir),
	); err != nil {
		return err
	}

	log.Printf("Wrote %s (%d units), elapsed %.2fs",
		outcome.ChartPath, outcome.Report.Summary.Count, time.Since(t0).Seconds())
	return nil
}

// flagOverrides turns the flags the user actually set into parameter
// overrides. Unset flags leave the file and environment values alone.
func flagOverrides() params.Overrides {
	var o params.Overrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "session":
			o.SessionID = sessionID
		case "area":
			o.Area = area
		case "n-units":
			o.NUnits = nUnits
		case "test":
			o.Test = testMode
		}
	})
	return o
}
