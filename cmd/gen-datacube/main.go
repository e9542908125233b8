// Command gen-datacube builds a small synthetic datacube for local runs and
// capsule test mode.
package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"

	"github.com/dynamic-routing/drift.report/internal/datacube"
	"github.com/dynamic-routing/drift.report/internal/sweep"
)

func main() {
	out := flag.String("o", "/tmp/data", "Data root to create the datacube under")
	name := flag.String("name", "datacube_v0.1.0", "Datacube directory name")
	sessionList := flag.String("sessions", "620263_2022-07-26,626791_2022-08-15", "Comma-separated session IDs")
	areaList := flag.String("areas", "VISp,AUDp", "Comma-separated area labels")
	unitsPer := flag.Int("units-per-group", 50, "Units per (session, area) pair")
	seed := flag.Int64("seed", 1, "Generation seed")
	flag.Parse()

	dir := filepath.Join(*out, *name)
	db, err := datacube.Create(dir)
	if err != nil {
		log.Fatalf("failed to create datacube: %v", err)
	}
	defer db.Close()

	units := datacube.Synthesize(
		sweep.ParseStringList(*sessionList),
		sweep.ParseStringList(*areaList),
		*unitsPer,
		*seed,
	)
	if err := db.InsertUnits(context.Background(), units); err != nil {
		log.Fatalf("failed to insert units: %v", err)
	}

	log.Printf("Created %s with %d units", dir, len(units))
}
