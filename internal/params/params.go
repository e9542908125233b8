// Package params defines the capsule's parameter set and its layered
// resolution: explicit overrides win over a parameters file, which wins over
// the environment. A parameters file is written once per sweep combination
// and is never mutated after that.
package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dynamic-routing/drift.report/internal/areas"
	"github.com/dynamic-routing/drift.report/internal/fsutil"
)

// FilePattern matches parameter files materialised by the sweep writer. The
// pipeline mounts exactly one of these per capsule instance.
const FilePattern = "*_input_parameters*.json"

// DefaultParamsDir is where the pipeline mounts the instance's parameter file.
const DefaultParamsDir = "/data/parameters"

// DefaultLogLevel is used when no source sets logging_level.
const DefaultLogLevel = "INFO"

// EnvPrefix namespaces the environment variables the resolver reads.
const EnvPrefix = "CAPSULE_"

// Parameters is one analysis parameter combination. Exactly one Parameters
// value drives exactly one capsule invocation.
type Parameters struct {
	SessionID string `json:"session_id"`
	Area      string `json:"area"`
	NUnits    int    `json:"n_units"`
	LogLevel  string `json:"logging_level,omitempty"`
	Test      bool   `json:"test,omitempty"`
}

// Default returns the baseline parameter set before any source is applied.
func Default() Parameters {
	return Parameters{LogLevel: DefaultLogLevel}
}

// Validate checks that the parameter set names a runnable analysis.
func (p Parameters) Validate() error {
	if p.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if p.NUnits < 0 {
		return fmt.Errorf("n_units must be >= 0, got %d", p.NUnits)
	}
	if !areas.IsValid(p.Area) {
		return fmt.Errorf("unknown area %q (valid areas: %s)", p.Area, areas.ValidAreasString())
	}
	return nil
}

// Filename returns the canonical parameter filename for one sweep combination.
func Filename(ordinal int, sessionID string) string {
	return fmt.Sprintf("%03d_%s_input_parameters.json", ordinal, sessionID)
}

// fileParameters mirrors Parameters with pointer fields so partial files are
// safe: fields omitted from the JSON leave the base value untouched.
type fileParameters struct {
	SessionID *string `json:"session_id,omitempty"`
	Area      *string `json:"area,omitempty"`
	NUnits    *int    `json:"n_units,omitempty"`
	LogLevel  *string `json:"logging_level,omitempty"`
	Test      *bool   `json:"test,omitempty"`
}

func (f fileParameters) apply(p *Parameters) {
	if f.SessionID != nil {
		p.SessionID = *f.SessionID
	}
	if f.Area != nil {
		p.Area = *f.Area
	}
	if f.NUnits != nil {
		p.NUnits = *f.NUnits
	}
	if f.LogLevel != nil {
		p.LogLevel = *f.LogLevel
	}
	if f.Test != nil {
		p.Test = *f.Test
	}
}

// Overrides carries explicitly supplied values, typically from command-line
// flags the user actually set. Nil fields leave the base untouched.
type Overrides struct {
	SessionID *string
	Area      *string
	NUnits    *int
	LogLevel  *string
	Test      *bool
}

// Apply copies the non-nil override fields onto p.
func (o Overrides) Apply(p *Parameters) {
	fileParameters{
		SessionID: o.SessionID,
		Area:      o.Area,
		NUnits:    o.NUnits,
		LogLevel:  o.LogLevel,
		Test:      o.Test,
	}.apply(p)
}

// FindFile locates the parameter file the pipeline mounted under dir.
// If no file matches, it returns "" and no error; standalone runs supply
// parameters through flags instead.
func FindFile(fsys fsutil.FileSystem, dir string) (string, error) {
	if !fsys.Exists(dir) {
		return "", nil
	}
	matches, err := fsys.Glob(dir, FilePattern)
	if err != nil {
		return "", fmt.Errorf("failed to scan params dir %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	// First match in sorted order; one file per instance is the convention,
	// so seeing more than one is tolerated but only the first is used.
	return matches[0], nil
}

// loadFile reads and decodes one parameters file.
func loadFile(fsys fsutil.FileSystem, path string) (fileParameters, error) {
	var fp fileParameters

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return fp, fmt.Errorf("parameters file must have .json extension, got %q", ext)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return fp, fmt.Errorf("failed to read parameters file: %w", err)
	}

	if err := json.Unmarshal(data, &fp); err != nil {
		return fp, fmt.Errorf("failed to parse parameters file %s: %w", cleanPath, err)
	}

	return fp, nil
}

// Load reads a single parameters file into a full parameter set and
// validates it.
func Load(fsys fsutil.FileSystem, path string) (Parameters, error) {
	p := Default()

	fp, err := loadFile(fsys, path)
	if err != nil {
		return p, err
	}
	fp.apply(&p)

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid parameters in %s: %w", path, err)
	}
	return p, nil
}

// fromEnv reads CAPSULE_* variables through lookup.
func fromEnv(lookup func(string) (string, bool)) (fileParameters, error) {
	var fp fileParameters

	if v, ok := lookup(EnvPrefix + "SESSION_ID"); ok {
		fp.SessionID = &v
	}
	if v, ok := lookup(EnvPrefix + "AREA"); ok {
		fp.Area = &v
	}
	if v, ok := lookup(EnvPrefix + "N_UNITS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fp, fmt.Errorf("invalid %sN_UNITS %q: %w", EnvPrefix, v, err)
		}
		fp.NUnits = &n
	}
	if v, ok := lookup(EnvPrefix + "LOGGING_LEVEL"); ok {
		fp.LogLevel = &v
	}
	if v, ok := lookup(EnvPrefix + "TEST"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fp, fmt.Errorf("invalid %sTEST %q: %w", EnvPrefix, v, err)
		}
		fp.Test = &b
	}

	return fp, nil
}

// Resolve builds the effective parameter set. Sources are applied lowest
// priority first: environment, then the parameters file (explicit path, or
// discovered under paramsDir), then the explicit overrides. The result is
// validated.
func Resolve(fsys fsutil.FileSystem, paramsFile, paramsDir string, lookup func(string) (string, bool), overrides Overrides) (Parameters, error) {
	p := Default()

	if lookup == nil {
		lookup = os.LookupEnv
	}
	envParams, err := fromEnv(lookup)
	if err != nil {
		return p, err
	}
	envParams.apply(&p)

	path := paramsFile
	if path == "" {
		path, err = FindFile(fsys, paramsDir)
		if err != nil {
			return p, err
		}
	}
	if path != "" {
		fp, err := loadFile(fsys, path)
		if err != nil {
			return p, err
		}
		fp.apply(&p)
	}

	overrides.Apply(&p)

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Write serialises the parameter set to path. Parameter files are immutable
// once written: an existing file is an error unless force is set.
func (p Parameters) Write(fsys fsutil.FileSystem, path string, force bool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !force && fsys.Exists(path) {
		return fmt.Errorf("parameters file %s already exists", path)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}
	data = append(data, '\n')

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create params dir: %w", err)
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write parameters file: %w", err)
	}
	return nil
}
