package datacube

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// layers are the synthetic recording locations used for generated fixtures.
var layers = []string{"L1", "L2/3", "L4", "L5", "L6a", "L6b"}

// Create builds a new datacube directory at dir, creating the consolidated
// units database and applying the schema. The returned handle is writable.
func Create(dir string) (*DB, error) {
	dbPath := filepath.Join(dir, UnitsDBFile)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create datacube dir: %w", err)
	}

	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InsertUnits writes units in one transaction.
func (db *DB) InsertUnits(ctx context.Context, units []Unit) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO units (unit_id, session_id, structure, location, activity_drift, firing_rate)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range units {
		if _, err := stmt.ExecContext(ctx, u.ID, u.SessionID, u.Structure, u.Location, u.Drift, u.FiringRate); err != nil {
			return fmt.Errorf("failed to insert unit %s: %w", u.ID, err)
		}
	}

	return tx.Commit()
}

// Synthesize generates unitsPerGroup synthetic units for every
// (session, area) pair. The same seed always yields the same units, so
// fixtures are reproducible across machines.
func Synthesize(sessionIDs, areaLabels []string, unitsPerGroup int, seed int64) []Unit {
	rng := rand.New(rand.NewSource(seed))

	var units []Unit
	for _, session := range sessionIDs {
		for _, area := range areaLabels {
			for i := 0; i < unitsPerGroup; i++ {
				units = append(units, Unit{
					ID:         fmt.Sprintf("%s_%s_%04d", session, area, i),
					SessionID:  session,
					Structure:  area,
					Location:   layers[rng.Intn(len(layers))],
					Drift:      rng.Float64()*2 - 1,
					FiringRate: rng.Float64() * 40,
				})
			}
		}
	}
	return units
}
