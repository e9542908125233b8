// Command fan-out is a local stand-in for a pipeline: it globs a directory
// of parameter files and runs one capsule invocation per file through a
// bounded worker pool. Invocations share nothing but the read-only datacube;
// one failure never touches its siblings.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dynamic-routing/drift.report/internal/capsule"
	"github.com/dynamic-routing/drift.report/internal/datacube"
	"github.com/dynamic-routing/drift.report/internal/fsutil"
	"github.com/dynamic-routing/drift.report/internal/params"
)

func main() {
	paramsDir := flag.String("params-dir", "params", "Directory of parameter files to fan out")
	dataDir := flag.String("data-dir", "", "Data root holding the datacube (default: first of /data, /tmp/data)")
	resultsDir := flag.String("results-dir", "results", "Directory to write result bundles into")
	parallel := flag.Int("parallel", 4, "Maximum concurrent invocations")
	writePNG := flag.Bool("png", false, "Also write static drift histogram PNGs")
	flag.Parse()

	fsys := fsutil.OSFileSystem{}

	matches, err := fsys.Glob(*paramsDir, params.FilePattern)
	if err != nil {
		log.Fatalf("failed to scan %s: %v", *paramsDir, err)
	}
	if len(matches) == 0 {
		log.Fatalf("no parameter files under %s", *paramsDir)
	}

	var candidates []string
	if *dataDir != "" {
		candidates = []string{*dataDir}
	}
	cube, err := datacube.Discover(fsys, candidates...)
	if err != nil {
		log.Fatalf("failed to open datacube: %v", err)
	}
	defer cube.Close()

	log.Printf("Running %d invocations (parallelism %d)", len(matches), *parallel)

	var mu sync.Mutex
	failures := make(map[string]error)

	var g errgroup.Group
	g.SetLimit(*parallel)

	for _, path := range matches {
		g.Go(func() error {
			// Each invocation gets its own capsule value; failures are
			// recorded, not propagated, so siblings keep running.
			c := &capsule.Capsule{
				Cube:       cube,
				FS:         fsys,
				ResultsDir: *resultsDir,
				WritePNG:   *writePNG,
			}

			p, err := params.Load(fsys, path)
			if err == nil {
				_, err = c.Process(context.Background(), p)
			}
			if err != nil {
				mu.Lock()
				failures[path] = err
				mu.Unlock()
				log.Printf("FAIL %s: %v", path, err)
			}
			return nil
		})
	}

	_ = g.Wait()

	if len(failures) > 0 {
		log.Printf("%d/%d invocations failed", len(failures), len(matches))
		os.Exit(1)
	}
	log.Printf("All %d invocations succeeded", len(matches))
}
