// Command sweep materialises a parameter sweep as one JSON file per
// combination. The files are the only coupling between this writer and the
// capsule instances a pipeline fans them out to.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/dynamic-routing/drift.report/internal/fsutil"
	"github.com/dynamic-routing/drift.report/internal/sweep"
)

func main() {
	nUnitsList := flag.String("n-units-list", "", "Comma-separated n_units values (e.g. 0,5,10)")
	areaList := flag.String("areas", "", "Comma-separated area labels (e.g. VISp,AUDp)")
	sessionList := flag.String("sessions", "", "Comma-separated session IDs")
	outDir := flag.String("out", "params", "Directory to write parameter files into")
	force := flag.Bool("force", false, "Overwrite existing parameter files")
	flag.Parse()

	nUnits, err := sweep.ParseIntList(*nUnitsList)
	if err != nil {
		log.Fatalf("invalid -n-units-list: %v", err)
	}

	g := sweep.Grid{
		NUnits:     nUnits,
		Areas:      sweep.ParseStringList(*areaList),
		SessionIDs: sweep.ParseStringList(*sessionList),
	}

	if err := g.Validate(); err != nil {
		log.Fatalf("invalid sweep grid: %v", err)
	}

	log.Printf("Parameter combinations: %d (n_units: %d, areas: %d, sessions: %d)",
		g.Size(), len(g.NUnits), len(g.Areas), len(g.SessionIDs))

	paths, err := g.Write(fsutil.OSFileSystem{}, *outDir, *force)
	if err != nil {
		log.Fatalf("sweep write failed after %d files: %v", len(paths), err)
	}

	for _, p := range paths {
		fmt.Println(p)
	}
	log.Printf("Wrote %d parameter files to %s", len(paths), *outDir)
}
