package stn

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Imperialdramon/irace-stn/internal/params"
	"github.com/Imperialdramon/irace-stn/internal/source"
)

// Options configure one network build.
type Options struct {
	Criterion     Criterion
	Significance  int // decimal digits for fitness discretization and output
	TypeOrder     TypeOrder
	OriginalElite bool
	OriginalType  bool
}

// DefaultOptions mirror the upstream tool's defaults: minimum quality,
// two decimal digits, STANDARD<START<END.
func DefaultOptions() Options {
	return Options{
		Criterion:    MinQuality,
		Significance: 2,
		TypeOrder:    DefaultTypeOrder,
	}
}

// Result is the consolidated network for one invocation.
type Result struct {
	Edges     []Edge            // run order, then iteration, then config id
	Locations []*LocationRecord // sorted by code
	Options   Options
}

// Build runs the full two-pass computation over every run. Pass 1
// collects trajectories and pools quality samples per location; the
// aggregator is then frozen and Pass 2 emits each run's edges against
// the final table. Runs are independent in Pass 2, which fans out one
// goroutine per run; the freeze between the passes is the barrier that
// makes every edge's fitness depend on every run.
//
// Any error aborts the whole build. There is no meaningful partial
// network: a location's representative quality is only correct once
// the last sample has been pooled.
func Build(ctx context.Context, runs []*source.Run, cat *params.Catalog, opts Options) (*Result, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("stn: no runs to consolidate")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := NewAggregator(opts.TypeOrder, opts.OriginalElite, opts.OriginalType)
	traces := make([]*RunTrace, len(runs))

	// Runs are ingested in run order. Merge order is observable (sample
	// pools feed a floating-point mean, and original mode keeps each
	// location's first-seen statuses), so run order is the one canonical
	// order that keeps repeated invocations byte-identical.
	for i, run := range runs {
		trace, err := Collect(run, cat, agg)
		if err != nil {
			return nil, err
		}
		traces[i] = trace
	}

	agg.Freeze(opts.Criterion)

	perRun := make([][]Edge, len(traces))
	g, gctx := errgroup.WithContext(ctx)
	for i, trace := range traces {
		i, trace := i, trace
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perRun[i] = BuildEdges(trace, agg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var edges []Edge
	for _, runEdges := range perRun {
		edges = append(edges, runEdges...)
	}

	return &Result{
		Edges:     edges,
		Locations: agg.Locations(),
		Options:   opts,
	}, nil
}
