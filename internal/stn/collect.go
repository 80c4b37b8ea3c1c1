package stn

import (
	"fmt"

	"github.com/Imperialdramon/irace-stn/internal/params"
	"github.com/Imperialdramon/irace-stn/internal/source"
)

// ConfigRecord is what Pass 2 needs to remember about one
// configuration: where it landed, its own statuses and its parent.
type ConfigRecord struct {
	Code     string
	Elite    EliteStatus
	Type     NodeType
	ParentID *int
}

// RunTrace is one run's Pass-1 product: per iteration, the records of
// every configuration raced in it, keyed by configuration id.
type RunTrace struct {
	RunID      string
	Iterations []map[int]*ConfigRecord
}

// Collect walks one run's iterations in order, classifies every
// configuration, resolves its location code and pools its quality
// samples into the aggregator. The returned trace feeds Pass 2.
//
// A configuration's type is START in the first iteration, END in the
// last, STANDARD in between. In a single-iteration run the first
// clause wins, so every configuration is START.
func Collect(run *source.Run, cat *params.Catalog, agg *Aggregator) (*RunTrace, error) {
	total := len(run.Iterations)
	trace := &RunTrace{
		RunID:      run.ID,
		Iterations: make([]map[int]*ConfigRecord, total),
	}

	for i, iter := range run.Iterations {
		iteration := i + 1

		var typ NodeType
		switch {
		case iteration == 1:
			typ = Start
		case iteration == total:
			typ = End
		default:
			typ = Standard
		}

		records := make(map[int]*ConfigRecord, len(iter.Configs))
		for _, cfg := range iter.Configs {
			code, err := Encode(cfg.Values, cat)
			if err != nil {
				return nil, fmt.Errorf("run %q iteration %d configuration %d: %w",
					run.ID, iteration, cfg.ID, err)
			}

			elite := Regular
			if iter.Elites[cfg.ID] {
				elite = Elite
			}

			records[cfg.ID] = &ConfigRecord{
				Code:     code,
				Elite:    elite,
				Type:     typ,
				ParentID: cfg.ParentID,
			}
			agg.Merge(code, cfg.Quality, elite, typ)
		}
		trace.Iterations[i] = records
	}

	return trace, nil
}
