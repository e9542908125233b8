// Package analysis implements the per-session unit drift analysis. Given one
// parameter set it selects the session's units in one brain area, samples
// n_units of them, ranks them by activity drift, and summarises the drift
// distribution. The whole computation is a pure function of the parameter
// set and the datacube contents.
package analysis

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/dynamic-routing/drift.report/internal/datacube"
	"github.com/dynamic-routing/drift.report/internal/params"
)

// testModeMaxUnits caps the sample in test mode so a capsule edit can be
// validated in seconds.
const testModeMaxUnits = 3

// Summary describes the drift distribution of the sampled units.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Report is the result of one analysis run.
type Report struct {
	Params   params.Parameters `json:"parameters"`
	TestMode bool              `json:"test_mode,omitempty"`
	Units    []datacube.Unit   `json:"units"`
	Summary  Summary           `json:"summary"`
}

// seed derives the sampling seed from the parameter set. Identical parameter
// sets always sample identically.
func seed(p params.Parameters) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", p.SessionID, p.Area, p.NUnits)
	return int64(h.Sum64())
}

// sample picks n units without replacement using a seeded source. The input
// order is stable (datacube queries order by unit ID), so the choice is
// reproducible.
func sample(units []datacube.Unit, n int, seed int64) []datacube.Unit {
	rng := rand.New(rand.NewSource(seed))
	picked := make([]datacube.Unit, 0, n)
	for _, idx := range rng.Perm(len(units))[:n] {
		picked = append(picked, units[idx])
	}
	return picked
}

// Run executes the analysis for one parameter set.
func Run(ctx context.Context, db *datacube.DB, p params.Parameters) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	units, err := db.UnitsForSession(ctx, p.SessionID, p.Area)
	if err != nil {
		return nil, err
	}

	n := p.NUnits
	if p.Test && n > testModeMaxUnits {
		n = testModeMaxUnits
	}
	if n > len(units) {
		return nil, fmt.Errorf("session %s has %d units in %s, need %d", p.SessionID, len(units), p.Area, n)
	}

	selected := sample(units, n, seed(p))

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Drift != selected[j].Drift {
			return selected[i].Drift < selected[j].Drift
		}
		return selected[i].ID < selected[j].ID
	})

	return &Report{
		Params:   p,
		TestMode: p.Test,
		Units:    selected,
		Summary:  summarise(selected),
	}, nil
}

// summarise computes drift statistics over units already sorted by drift.
func summarise(units []datacube.Unit) Summary {
	if len(units) == 0 {
		return Summary{}
	}

	drifts := make([]float64, len(units))
	for i, u := range units {
		drifts[i] = u.Drift
	}

	return Summary{
		Count:  len(units),
		Mean:   stat.Mean(drifts, nil),
		StdDev: stdDev(drifts),
		Min:    drifts[0],
		Max:    drifts[len(drifts)-1],
		Median: stat.Quantile(0.5, stat.Empirical, drifts, nil),
	}
}

// stdDev is zero for a single sample rather than NaN.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}
