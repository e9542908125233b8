// Package sweep materialises parameter sweeps. A Grid is the Cartesian
// product of candidate values across the sweep dimensions; expanding it
// yields one parameter set per combination, and writing it produces one
// immutable JSON file per combination for a pipeline to fan out.
package sweep

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dynamic-routing/drift.report/internal/areas"
	"github.com/dynamic-routing/drift.report/internal/fsutil"
	"github.com/dynamic-routing/drift.report/internal/params"
)

// Grid holds the candidate values for each sweep dimension.
type Grid struct {
	NUnits     []int
	Areas      []string
	SessionIDs []string
}

// Size returns the number of combinations the grid expands to.
func (g Grid) Size() int {
	return len(g.NUnits) * len(g.Areas) * len(g.SessionIDs)
}

// Validate checks that every dimension is non-empty and free of duplicates,
// and that every candidate value would survive parameter validation.
func (g Grid) Validate() error {
	if len(g.NUnits) == 0 {
		return fmt.Errorf("n_units list is empty")
	}
	if len(g.Areas) == 0 {
		return fmt.Errorf("areas list is empty")
	}
	if len(g.SessionIDs) == 0 {
		return fmt.Errorf("session_ids list is empty")
	}

	seenN := make(map[int]bool)
	for _, n := range g.NUnits {
		if n < 0 {
			return fmt.Errorf("n_units values must be >= 0, got %d", n)
		}
		if seenN[n] {
			return fmt.Errorf("duplicate n_units value %d", n)
		}
		seenN[n] = true
	}

	seenA := make(map[string]bool)
	for _, a := range g.Areas {
		if !areas.IsValid(a) {
			return fmt.Errorf("unknown area %q (valid areas: %s)", a, areas.ValidAreasString())
		}
		if seenA[a] {
			return fmt.Errorf("duplicate area %q", a)
		}
		seenA[a] = true
	}

	seenS := make(map[string]bool)
	for _, s := range g.SessionIDs {
		if s == "" {
			return fmt.Errorf("session_ids contains an empty value")
		}
		if seenS[s] {
			return fmt.Errorf("duplicate session_id %q", s)
		}
		seenS[s] = true
	}

	return nil
}

// Expand returns the full cross-product in deterministic order: sessions
// outermost, then areas, then n_units. Each combination appears exactly once.
func (g Grid) Expand() []params.Parameters {
	combos := make([]params.Parameters, 0, g.Size())
	for _, session := range g.SessionIDs {
		for _, area := range g.Areas {
			for _, n := range g.NUnits {
				p := params.Default()
				p.SessionID = session
				p.Area = area
				p.NUnits = n
				combos = append(combos, p)
			}
		}
	}
	return combos
}

// Write expands the grid and serialises each combination to its own file
// under dir, named by ordinal and session. It returns the written paths in
// expansion order. Existing files abort the sweep unless force is set; a
// half-written sweep must not silently mix generations.
func (g Grid) Write(fsys fsutil.FileSystem, dir string, force bool) ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep grid: %w", err)
	}

	combos := g.Expand()
	paths := make([]string, 0, len(combos))

	for i, p := range combos {
		path := filepath.Join(dir, params.Filename(i, p.SessionID))
		if err := p.Write(fsys, path, force); err != nil {
			return paths, fmt.Errorf("combo %d/%d: %w", i+1, len(combos), err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// ParseIntList parses a comma-separated list of ints
func ParseIntList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseStringList parses a comma-separated list of strings, dropping empties
func ParseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
