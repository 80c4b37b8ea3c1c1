package stn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imperialdramon/irace-stn/internal/params"
	"github.com/Imperialdramon/irace-stn/internal/source"
)

func intPtr(v int) *int { return &v }

// twoIterationRun reproduces the canonical small scenario: one integer
// parameter over [0,10] with step 5 at significance 0. Iteration 1
// races A(id 1, value 2, elite) and B(id 2, value 8, regular);
// iteration 2 races C(id 3, parent A, value 3, elite). Values 2 and 3
// share subrange 0 (code "00"), value 8 lands in subrange 5 ("05").
func twoIterationRun(id string) *source.Run {
	return &source.Run{
		ID: id,
		Iterations: []source.Iteration{
			{
				Elites: map[int]bool{1: true},
				Configs: []source.Config{
					{ID: 1, Values: params.Assignment{"n": params.Number(2)}, Quality: []float64{12.0}},
					{ID: 2, Values: params.Assignment{"n": params.Number(8)}, Quality: []float64{30.0}},
				},
			},
			{
				Elites: map[int]bool{3: true},
				Configs: []source.Config{
					{ID: 3, ParentID: intPtr(1), Values: params.Assignment{"n": params.Number(3)}, Quality: []float64{10.0}},
				},
			},
		},
	}
}

func integerCatalog(t *testing.T) *params.Catalog {
	return testCatalog(t, "n\tFALSE\ti\t(0,10)\t(5,0)\n")
}

func TestBuildEndToEnd(t *testing.T) {
	cat := integerCatalog(t)
	res, err := Build(context.Background(), []*source.Run{twoIterationRun("run-01")}, cat, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Edges, 2)

	// B is regular in the first iteration: a dead branch self-loop.
	deadBranch := res.Edges[0]
	assert.Equal(t, "run-01", deadBranch.Run)
	assert.Equal(t, "05", deadBranch.From.Code)
	assert.Equal(t, "05", deadBranch.To.Code)
	assert.Equal(t, 1, deadBranch.From.Iteration)
	assert.Equal(t, 1, deadBranch.To.Iteration)

	// A's continuation appears as the parent edge into C.
	step := res.Edges[1]
	assert.Equal(t, "00", step.From.Code)
	assert.Equal(t, "00", step.To.Code)
	assert.Equal(t, 1, step.From.Iteration)
	assert.Equal(t, 2, step.To.Iteration)
	assert.Equal(t, Elite, step.From.Elite)
	assert.Equal(t, Elite, step.To.Elite)

	// Location "00" pools A's and C's samples, "05" only B's.
	require.Len(t, res.Locations, 2)
	assert.Equal(t, "00", res.Locations[0].Code)
	assert.Equal(t, []float64{12.0, 10.0}, res.Locations[0].Samples)
	assert.Equal(t, "05", res.Locations[1].Code)
	assert.Equal(t, []float64{30.0}, res.Locations[1].Samples)

	// Default criterion min: "00" takes C's 10.0.
	assert.Equal(t, 10.0, step.From.Fitness)
	assert.Equal(t, 10.0, step.To.Fitness)
	assert.Equal(t, 30.0, deadBranch.From.Fitness)
}

func TestMissingParentEliteSelfLoops(t *testing.T) {
	cat := integerCatalog(t)
	run := &source.Run{
		ID: "run-02",
		Iterations: []source.Iteration{
			{
				Elites:  map[int]bool{1: true},
				Configs: []source.Config{{ID: 1, Values: params.Assignment{"n": params.Number(2)}, Quality: []float64{5}}},
			},
			{
				Elites: map[int]bool{4: true},
				Configs: []source.Config{
					// Elite with a parent that was never raced: persists via self-loop.
					{ID: 4, ParentID: intPtr(99), Values: params.Assignment{"n": params.Number(7)}, Quality: []float64{4}},
					// Regular with a missing parent: silently dropped.
					{ID: 5, ParentID: intPtr(99), Values: params.Assignment{"n": params.Number(9)}, Quality: []float64{6}},
					// Regular with no parent at all: also dropped.
					{ID: 6, Values: params.Assignment{"n": params.Number(1)}, Quality: []float64{7}},
				},
			},
		},
	}

	res, err := Build(context.Background(), []*source.Run{run}, cat, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Edges, 1)
	loop := res.Edges[0]
	assert.Equal(t, "05", loop.From.Code)
	assert.Equal(t, "05", loop.To.Code)
	assert.Equal(t, 1, loop.From.Iteration)
	assert.Equal(t, 2, loop.To.Iteration)
}

func TestFirstIterationEliteEmitsNothing(t *testing.T) {
	cat := integerCatalog(t)
	run := &source.Run{
		ID: "run-03",
		Iterations: []source.Iteration{{
			Elites:  map[int]bool{1: true},
			Configs: []source.Config{{ID: 1, Values: params.Assignment{"n": params.Number(2)}, Quality: []float64{5}}},
		}},
	}

	res, err := Build(context.Background(), []*source.Run{run}, cat, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Edges)

	// Single-iteration runs classify as START: the first-iteration
	// clause wins over the last-iteration one.
	require.Len(t, res.Locations, 1)
	assert.Equal(t, Start, res.Locations[0].Type)
}

func TestTypeOrderAffectsOnlyTypeColumns(t *testing.T) {
	cat := integerCatalog(t)

	build := func(order TypeOrder) *Result {
		opts := DefaultOptions()
		opts.TypeOrder = order
		res, err := Build(context.Background(), []*source.Run{twoIterationRun("run-01")}, cat, opts)
		require.NoError(t, err)
		return res
	}

	base := build(DefaultTypeOrder)
	inverted, err := ParseTypeOrder("end<start<standard")
	require.NoError(t, err)
	other := build(inverted)

	require.Len(t, other.Edges, len(base.Edges))
	for i := range base.Edges {
		assert.Equal(t, base.Edges[i].From.Code, other.Edges[i].From.Code)
		assert.Equal(t, base.Edges[i].To.Code, other.Edges[i].To.Code)
		assert.Equal(t, base.Edges[i].From.Fitness, other.Edges[i].From.Fitness)
		assert.Equal(t, base.Edges[i].From.Elite, other.Edges[i].From.Elite)
		assert.Equal(t, base.Edges[i].From.Iteration, other.Edges[i].From.Iteration)
	}

	// "00" hosts a START parent and an END child: the order decides.
	assert.Equal(t, End, base.Edges[1].To.Type)
	assert.Equal(t, Start, other.Edges[1].To.Type)
}

func TestOriginalModeReportsPerConfigurationStatus(t *testing.T) {
	cat := integerCatalog(t)
	opts := DefaultOptions()
	opts.OriginalElite = true
	opts.OriginalType = true

	res, err := Build(context.Background(), []*source.Run{twoIterationRun("run-01")}, cat, opts)
	require.NoError(t, err)
	require.Len(t, res.Edges, 2)

	step := res.Edges[1]
	// A was elite, START; C was elite, END. No aggregation across them.
	assert.Equal(t, Elite, step.From.Elite)
	assert.Equal(t, Start, step.From.Type)
	assert.Equal(t, End, step.To.Type)
}

func TestBuildIsDeterministicAcrossRepeats(t *testing.T) {
	cat := integerCatalog(t)
	runs := []*source.Run{twoIterationRun("run-01"), twoIterationRun("run-02"), twoIterationRun("run-03")}

	first, err := Build(context.Background(), runs, cat, DefaultOptions())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Build(context.Background(), runs, cat, DefaultOptions())
		require.NoError(t, err)
		require.Equal(t, first.Edges, again.Edges)
	}
}

func TestBuildEdgesRequiresFrozenAggregator(t *testing.T) {
	agg := NewAggregator(DefaultTypeOrder, false, false)
	trace := &RunTrace{RunID: "r", Iterations: []map[int]*ConfigRecord{{}}}
	require.Panics(t, func() { BuildEdges(trace, agg) })
}

func TestBuildHonoursCancelledContext(t *testing.T) {
	cat := integerCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, []*source.Run{twoIterationRun("run-01")}, cat, DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildRejectsEmptyRunSet(t *testing.T) {
	cat := integerCatalog(t)
	_, err := Build(context.Background(), nil, cat, DefaultOptions())
	require.Error(t, err)
}
