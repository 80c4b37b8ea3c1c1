// Package source reads iterated-racing run archives from disk: one
// JSON file per run, each holding the run's ordered iterations with
// their configurations and elite sets. Parameter values are resolved
// against the catalog once at ingestion, so downstream code only ever
// sees typed values.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Imperialdramon/irace-stn/internal/params"
)

// Sentinel errors for run archive problems. Everything is reported
// before any network computation starts.
var (
	// ErrNoRuns indicates the archive directory holds no run files.
	ErrNoRuns = errors.New("source: no run archives found")

	// ErrBadRun indicates a run file that is missing required fields.
	ErrBadRun = errors.New("source: malformed run archive")
)

// Config is one candidate configuration inside an iteration.
type Config struct {
	ID       int
	ParentID *int // nil for initial configurations
	Values   params.Assignment
	Quality  []float64
}

// Iteration is one racing iteration: its configurations (ascending id
// order) and the ids of the configurations that survived it.
type Iteration struct {
	Configs []Config
	Elites  map[int]bool
}

// Run is one complete tuning run.
type Run struct {
	ID         string
	Iterations []Iteration
}

// raw JSON shapes; ids are pointers so a missing field is
// distinguishable from a zero id.
type rawRun struct {
	ID         string         `json:"id"`
	Iterations []rawIteration `json:"iterations"`
}

type rawIteration struct {
	Elites         []int       `json:"elites"`
	Configurations []rawConfig `json:"configurations"`
}

type rawConfig struct {
	ID      *int           `json:"id"`
	Parent  *int           `json:"parent"`
	Values  map[string]any `json:"values"`
	Quality []float64      `json:"quality"`
}

// LoadDir reads every *.json run archive under dir, in lexicographic
// filename order. The order is the run order everywhere downstream.
func LoadDir(dir string, cat *params.Catalog) ([]*Run, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scanning run directory %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: directory %s", ErrNoRuns, dir)
	}
	sort.Strings(matches)

	runs := make([]*Run, 0, len(matches))
	for _, path := range matches {
		run, err := LoadFile(path, cat)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// LoadFile reads a single run archive. The run id defaults to the
// file's base name without extension.
func LoadFile(path string, cat *params.Catalog) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run archive: %w", err)
	}

	var raw rawRun
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadRun, path, err)
	}

	id := raw.ID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	run, err := resolveRun(id, &raw, cat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return run, nil
}

func resolveRun(id string, raw *rawRun, cat *params.Catalog) (*Run, error) {
	if len(raw.Iterations) == 0 {
		return nil, fmt.Errorf("%w: run %q has no iterations", ErrBadRun, id)
	}

	run := &Run{ID: id, Iterations: make([]Iteration, len(raw.Iterations))}
	for i, rawIter := range raw.Iterations {
		iter := Iteration{Elites: make(map[int]bool, len(rawIter.Elites))}
		for _, elite := range rawIter.Elites {
			iter.Elites[elite] = true
		}

		if len(rawIter.Configurations) == 0 {
			return nil, fmt.Errorf("%w: run %q iteration %d has no configurations", ErrBadRun, id, i+1)
		}
		for _, rawCfg := range rawIter.Configurations {
			cfg, err := resolveConfig(id, i+1, rawCfg, cat)
			if err != nil {
				return nil, err
			}
			iter.Configs = append(iter.Configs, cfg)
		}
		sort.Slice(iter.Configs, func(a, b int) bool { return iter.Configs[a].ID < iter.Configs[b].ID })

		run.Iterations[i] = iter
	}
	return run, nil
}

func resolveConfig(runID string, iteration int, raw rawConfig, cat *params.Catalog) (Config, error) {
	if raw.ID == nil {
		return Config{}, fmt.Errorf("%w: run %q iteration %d: configuration without id", ErrBadRun, runID, iteration)
	}
	if len(raw.Quality) == 0 {
		return Config{}, fmt.Errorf("%w: run %q configuration %d: no quality measurements", ErrBadRun, runID, *raw.ID)
	}

	values := make(params.Assignment, len(raw.Values))
	for name, rawValue := range raw.Values {
		spec, ok := cat.Lookup(name)
		if !ok {
			return Config{}, fmt.Errorf("%w: run %q configuration %d: unknown parameter %q",
				ErrBadRun, runID, *raw.ID, name)
		}
		if rawValue == nil {
			continue // inactive conditional parameter
		}

		value, err := resolveValue(spec, rawValue)
		if err != nil {
			return Config{}, fmt.Errorf("%w: run %q configuration %d: %v", ErrBadRun, runID, *raw.ID, err)
		}
		values[name] = value
	}

	return Config{
		ID:       *raw.ID,
		ParentID: raw.Parent,
		Values:   values,
		Quality:  raw.Quality,
	}, nil
}

// resolveValue types a raw JSON value against its parameter's domain.
func resolveValue(spec *params.Spec, raw any) (params.Value, error) {
	switch spec.Kind {
	case params.Categorical, params.Ordinal:
		label, ok := raw.(string)
		if !ok {
			return params.Value{}, fmt.Errorf("parameter %q wants a label, got %v", spec.Name, raw)
		}
		return params.Label(label), nil
	case params.Integer, params.Real:
		number, ok := raw.(float64)
		if !ok {
			return params.Value{}, fmt.Errorf("parameter %q wants a number, got %v", spec.Name, raw)
		}
		return params.Number(number), nil
	}
	return params.Value{}, fmt.Errorf("parameter %q has unsupported kind", spec.Name)
}
