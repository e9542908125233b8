// Package datacube provides read access to the consolidated session asset:
// a SQLite database of recorded units shared read-only by every capsule
// instance. Which rows an instance touches is selected entirely by the
// parameter set, so concurrent instances never contend.
package datacube

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dynamic-routing/drift.report/internal/fsutil"
)

// UnitsDBFile is the consolidated units database inside a datacube directory.
const UnitsDBFile = "consolidated/units.db"

// DatacubeDirPrefix identifies a datacube directory inside the data root.
const DatacubeDirPrefix = "datacube_"

// DefaultDataRoots are the candidate mount points checked in order.
var DefaultDataRoots = []string{"/data", "/tmp/data"}

// ErrSessionNotFound is returned when the datacube has no rows at all for a
// requested session.
var ErrSessionNotFound = errors.New("session not found in datacube")

// Unit is one recorded unit (a putative neuron) in the datacube.
type Unit struct {
	ID         string  `json:"unit_id"`
	SessionID  string  `json:"session_id"`
	Structure  string  `json:"structure"`
	Location   string  `json:"location"`
	Drift      float64 `json:"activity_drift"`
	FiringRate float64 `json:"firing_rate"`
}

// DB is a handle on one datacube.
type DB struct {
	*sql.DB
}

// Open opens the units database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open datacube %s: %w", path, err)
	}
	return &DB{db}, nil
}

// OpenDir opens the units database inside a datacube directory.
func OpenDir(dir string) (*DB, error) {
	return Open(filepath.Join(dir, UnitsDBFile))
}

// FindDataRoot returns the first existing candidate data root. With no
// explicit candidates it checks DefaultDataRoots.
func FindDataRoot(fsys fsutil.FileSystem, candidates ...string) (string, error) {
	if len(candidates) == 0 {
		candidates = DefaultDataRoots
	}
	for _, c := range candidates {
		if fsys.Exists(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("data dir not present at any of %v", candidates)
}

// FindDatacubeDir locates the datacube directory under root. Directories
// named with DatacubeDirPrefix win, newest name first, so an instance with
// multiple assets attached uses the latest. If none match but root itself
// holds consolidated data, root is the datacube.
func FindDatacubeDir(fsys fsutil.FileSystem, root string) (string, error) {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("failed to list data root %s: %w", root, err)
	}

	// ReadDir sorts ascending; walk backwards for the latest datacube name.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.IsDir() && strings.HasPrefix(e.Name(), DatacubeDirPrefix) {
			return filepath.Join(root, e.Name()), nil
		}
	}

	for _, e := range entries {
		for _, pattern := range []string{"session_table", "nwb", "consolidated"} {
			if strings.Contains(e.Name(), pattern) {
				return root, nil
			}
		}
	}

	return "", fmt.Errorf("cannot determine datacube dir under %s (%d entries)", root, len(entries))
}

// Discover chains FindDataRoot and FindDatacubeDir and opens the result.
func Discover(fsys fsutil.FileSystem, candidates ...string) (*DB, error) {
	root, err := FindDataRoot(fsys, candidates...)
	if err != nil {
		return nil, err
	}
	dir, err := FindDatacubeDir(fsys, root)
	if err != nil {
		return nil, err
	}
	return OpenDir(dir)
}

// UnitsForSession returns the units recorded in one session within one
// brain area, ordered by unit ID so callers see a stable sequence. A session
// absent from the datacube entirely is ErrSessionNotFound; a session with no
// units in the area is an empty slice.
func (db *DB) UnitsForSession(ctx context.Context, sessionID, area string) ([]Unit, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT unit_id, session_id, structure, location, activity_drift, firing_rate
		FROM units
		WHERE session_id = ? AND structure = ?
		ORDER BY unit_id
	`, sessionID, area)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.SessionID, &u.Structure, &u.Location, &u.Drift, &u.FiringRate); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate units: %w", err)
	}

	if len(units) == 0 {
		exists, err := db.sessionExists(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
	}

	return units, nil
}

func (db *DB) sessionExists(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM units WHERE session_id = ? LIMIT 1`, sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session %s: %w", sessionID, err)
	}
	return true, nil
}

// Sessions returns the distinct session IDs present in the datacube, sorted.
func (db *DB) Sessions(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT session_id FROM units ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
