package stn

import (
	"sort"
)

// Endpoint is one end of a network edge: a location at a particular
// iteration, decorated with its aggregated statuses and, for the
// original-mode columns, the underlying configuration's own statuses.
type Endpoint struct {
	Code      string
	Fitness   float64
	Elite     EliteStatus
	Type      NodeType
	Iteration int

	// The configuration's own statuses, before aggregation.
	ConfigElite EliteStatus
	ConfigType  NodeType
}

// Edge is one directed step of the consolidated network. Terminal
// output: built once, never mutated.
type Edge struct {
	Run      string
	From, To Endpoint
}

// BuildEdges replays one run's trace against the frozen location table
// and emits its edges, iterations in order and configurations in
// ascending id order, so output is reproducible byte for byte.
//
// First iteration: REGULAR configurations become self-loops (a dead
// branch); ELITE ones emit nothing here, their continuation appears
// when a later configuration names them as parent. Later iterations:
// a found parent yields a parent→child edge; a missing parent yields a
// self-loop for ELITE configurations (persistence across iterations)
// and nothing for REGULAR ones, matching the upstream tool.
func BuildEdges(trace *RunTrace, agg *Aggregator) []Edge {
	if !agg.Frozen() {
		panic("stn: BuildEdges before aggregator freeze")
	}

	var edges []Edge
	for i, records := range trace.Iterations {
		iteration := i + 1

		ids := make([]int, 0, len(records))
		for id := range records {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		for _, id := range ids {
			rec := records[id]

			if iteration == 1 {
				if rec.Elite == Regular {
					edges = append(edges, Edge{
						Run:  trace.RunID,
						From: endpoint(rec, agg, 1),
						To:   endpoint(rec, agg, 1),
					})
				}
				continue
			}

			parent := lookupParent(trace.Iterations[i-1], rec.ParentID)
			switch {
			case parent != nil:
				edges = append(edges, Edge{
					Run:  trace.RunID,
					From: endpoint(parent, agg, iteration-1),
					To:   endpoint(rec, agg, iteration),
				})
			case rec.Elite == Elite:
				// No intermediate record: the elite simply persisted.
				edges = append(edges, Edge{
					Run:  trace.RunID,
					From: endpoint(rec, agg, iteration-1),
					To:   endpoint(rec, agg, iteration),
				})
			}
			// REGULAR with an unknown parent leaves no edge.
		}
	}
	return edges
}

func lookupParent(previous map[int]*ConfigRecord, parentID *int) *ConfigRecord {
	if parentID == nil {
		return nil
	}
	return previous[*parentID]
}

// endpoint decorates a configuration record with the frozen location
// metadata. In original mode the per-configuration statuses stand in
// for the aggregated ones.
func endpoint(rec *ConfigRecord, agg *Aggregator, iteration int) Endpoint {
	loc := agg.Record(rec.Code)

	elite := loc.Elite
	if agg.OriginalElite() {
		elite = rec.Elite
	}
	typ := loc.Type
	if agg.OriginalType() {
		typ = rec.Type
	}

	return Endpoint{
		Code:        rec.Code,
		Fitness:     loc.Quality(),
		Elite:       elite,
		Type:        typ,
		Iteration:   iteration,
		ConfigElite: rec.Elite,
		ConfigType:  rec.Type,
	}
}
