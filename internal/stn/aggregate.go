package stn

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LocationRecord accumulates everything known about one location
// across all runs: the pooled quality samples and the aggregated elite
// and type statuses. Quality is only available once the owning
// Aggregator is frozen.
type LocationRecord struct {
	Code    string
	Samples []float64
	Elite   EliteStatus
	Type    NodeType

	quality float64
}

// Quality is the location's representative quality, computed at
// freeze time. Records are only reachable through a frozen Aggregator,
// so the value is always final by the time callers can see it.
func (r *LocationRecord) Quality() float64 { return r.quality }

// Aggregator is the shared location table built during Pass 1. Merges
// are synchronized, so runs may be ingested concurrently; Freeze is
// the barrier after which the table is read-only and Pass 2 may query
// representative qualities.
type Aggregator struct {
	order         TypeOrder
	originalElite bool
	originalType  bool

	mu     sync.RWMutex
	locs   map[string]*LocationRecord
	frozen bool
}

// NewAggregator builds an empty table. The order resolves competing
// type statuses; the original flags disable elite and type
// aggregation respectively, so edges later report each configuration's
// own status unmodified.
func NewAggregator(order TypeOrder, originalElite, originalType bool) *Aggregator {
	return &Aggregator{
		order:         order,
		originalElite: originalElite,
		originalType:  originalType,
		locs:          make(map[string]*LocationRecord),
	}
}

// OriginalElite reports whether elite aggregation is disabled.
func (a *Aggregator) OriginalElite() bool { return a.originalElite }

// OriginalType reports whether type aggregation is disabled.
func (a *Aggregator) OriginalType() bool { return a.originalType }

// Merge folds one configuration's samples and statuses into the
// location's record. Samples are pooled without deduplication: many
// configurations may map to one location and each contributes its own
// measurements. Elite status only ever upgrades to ELITE; type status
// is replaced only by a strictly higher-ranked type.
func (a *Aggregator) Merge(code string, samples []float64, elite EliteStatus, typ NodeType) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen {
		panic("stn: Merge called on frozen aggregator")
	}

	rec, ok := a.locs[code]
	if !ok {
		rec = &LocationRecord{Code: code, Elite: elite, Type: typ}
		rec.Samples = append(rec.Samples, samples...)
		a.locs[code] = rec
		return
	}

	rec.Samples = append(rec.Samples, samples...)
	if !a.originalElite && elite == Elite {
		rec.Elite = Elite
	}
	if !a.originalType && a.order.Rank(typ) > a.order.Rank(rec.Type) {
		rec.Type = typ
	}
}

// Freeze computes every location's representative quality under the
// criterion and marks the table read-only. Must be called exactly
// once, after all runs have been merged.
func (a *Aggregator) Freeze(criterion Criterion) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen {
		panic("stn: Freeze called twice")
	}
	for _, rec := range a.locs {
		rec.quality = selectQuality(criterion, rec)
	}
	a.frozen = true
}

// Frozen reports whether Freeze has run.
func (a *Aggregator) Frozen() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frozen
}

// Record returns the frozen record for a location code. Looking up a
// code that was never merged, or reading before Freeze, is a bug in
// the caller and panics.
func (a *Aggregator) Record(code string) *LocationRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.frozen {
		panic("stn: Record read before Freeze")
	}
	rec, ok := a.locs[code]
	if !ok {
		panic(fmt.Sprintf("stn: location %q was never merged", code))
	}
	return rec
}

// Locations returns every record sorted by code. Only valid once frozen.
func (a *Aggregator) Locations() []*LocationRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.frozen {
		panic("stn: Locations read before Freeze")
	}
	out := make([]*LocationRecord, 0, len(a.locs))
	for _, rec := range a.locs {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// selectQuality reduces a location's sample pool to its representative
// value. Median interpolates linearly between the middle samples; mode
// is the most frequent sample, ties broken by the smallest value.
func selectQuality(criterion Criterion, rec *LocationRecord) float64 {
	if len(rec.Samples) == 0 {
		panic(fmt.Sprintf("stn: location %q has an empty sample pool", rec.Code))
	}

	switch criterion {
	case MinQuality:
		return floats.Min(rec.Samples)
	case MaxQuality:
		return floats.Max(rec.Samples)
	case MeanQuality:
		return stat.Mean(rec.Samples, nil)
	case MedianQuality:
		// Middle sample, or the average of the two middle samples for
		// an even pool. Matches R's median().
		sorted := sortedCopy(rec.Samples)
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2]
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2
	case ModeQuality:
		return modeOf(sortedCopy(rec.Samples))
	}
	panic(fmt.Sprintf("stn: unknown criterion %d", int(criterion)))
}

// modeOf returns the most frequent value of a sorted, non-empty pool
// by scanning its runs. Equal runs keep the earlier one, so ties
// resolve to the smallest value.
func modeOf(sorted []float64) float64 {
	mode := sorted[0]
	bestRun, run := 0, 0
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			run++
		} else {
			run = 1
		}
		if run > bestRun {
			bestRun = run
			mode = v
		}
	}
	return mode
}

func sortedCopy(samples []float64) []float64 {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	return sorted
}
