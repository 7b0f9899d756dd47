package admm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixpickle/dist-admm/linmodel"
)

func newTestSolver(numIterations int) *Solver {
	return &Solver{
		NumIterations: numIterations,
		StepSize:      1,
		Rho:           1,
		Gradient:      linmodel.SquaredError{},
		Updater:       linmodel.GradStep{},
	}
}

func TestLossHistoryLength(t *testing.T) {
	parts := []Partition{
		{{Label: 1, Features: []float64{1}}},
		{{Label: 2, Features: []float64{1}}},
	}
	for _, iters := range []int{1, 2, 3, 6} {
		solver := newTestSolver(iters)
		_, err := solver.Optimize(context.Background(), parts, []float64{0})
		require.NoError(t, err)
		assert.Len(t, solver.LossHistory(), iters-1, "iterations=%d", iters)
	}
}

func TestSingleIterationReturnsInitialWeights(t *testing.T) {
	// With a single round the consensus loop never runs: the
	// bootstrap pass is computed and then discarded.
	solver := newTestSolver(1)
	init := []float64{0.5, -0.25}
	parts := []Partition{{{Label: 3, Features: []float64{1, 1}}}}
	weights, err := solver.Optimize(context.Background(), parts, init)
	require.NoError(t, err)
	assert.Equal(t, init, weights)
	assert.Empty(t, solver.LossHistory())
}

// TestWorkedTrajectory follows the two-partition scalar
// scenario by hand.
//
// Bootstrap from zero gives local weights 1 and 2 with loss
// 0.5 each. Round 1: global (1+2+0)/3 = 1, objective 1.0,
// penalties {0, 1}, local weights 1 and -2 with losses 0 and
// 0.5, regularization weights 2. Round 2: global
// (1-2+2)/3 = 1/3, objective 0.5.
func TestWorkedTrajectory(t *testing.T) {
	parts := []Partition{
		{{Label: 1, Features: []float64{1}}},
		{{Label: 1, Features: []float64{2}}},
	}
	solver := newTestSolver(3)
	weights, err := solver.Optimize(context.Background(), parts, []float64{0})
	require.NoError(t, err)

	require.Len(t, weights, 1)
	assert.InDelta(t, 1.0/3, weights[0], 1e-12)

	history := solver.LossHistory()
	require.Len(t, history, 2)
	assert.InDelta(t, 1.0, history[0], 1e-12)
	assert.InDelta(t, 0.5, history[1], 1e-12)
}

func TestConvergenceSinglePartition(t *testing.T) {
	// One record with its minimizer at weight 2: the
	// consensus weights should close half the remaining gap
	// every round.
	parts := []Partition{{{Label: 2, Features: []float64{1}}}}
	solver := newTestSolver(30)
	weights, err := solver.Optimize(context.Background(), parts, []float64{0})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, weights[0], 1e-6)
}

func TestDeterminism(t *testing.T) {
	parts := syntheticParts(4, 25, 3)
	run := func() ([]float64, []float64) {
		solver := &Solver{
			NumIterations: 6,
			RegParam:      0.1,
			StepSize:      0.5,
			Rho:           1,
			Gradient:      linmodel.SquaredError{},
			Updater:       linmodel.SquaredL2{},
		}
		weights, err := solver.Optimize(context.Background(), parts, []float64{0, 0, 0})
		require.NoError(t, err)
		return weights, solver.LossHistory()
	}
	w1, h1 := run()
	w2, h2 := run()
	assert.Equal(t, w1, w2, "weights must be bit-identical across runs")
	assert.Equal(t, h1, h2, "loss history must be bit-identical across runs")
}

func TestDualUpdateIsolation(t *testing.T) {
	prev := map[int][]float64{
		0: {1},
		1: {-2},
	}
	states := []PartitionState{
		{Index: 0, Weights: []float64{3}, Count: 1},
		{Index: 1, Weights: []float64{5}, Count: 1},
	}
	next := dualUpdate(prev, states, []float64{2}, 0.5)

	assert.InDelta(t, 1.5, next[0][0], 1e-12)
	assert.InDelta(t, -0.5, next[1][0], 1e-12)
	assert.Equal(t, []float64{1}, prev[0], "previous round state must not change")
	assert.Equal(t, []float64{-2}, prev[1])
}

func TestRegSolveClosedForm(t *testing.T) {
	res := regSolve([]float64{2, -1}, []float64{0.5, 0.25}, 2, 3)
	assert.InDelta(t, 0.7, res[0], 1e-12)
	assert.InDelta(t, -0.45, res[1], 1e-12)
}

func TestAggregateVirtualPartition(t *testing.T) {
	states := []PartitionState{
		{Index: 0, Weights: []float64{1}, Loss: 0.25},
		{Index: 1, Weights: []float64{2}, Loss: 0.5},
	}
	global, totalLoss := aggregate(states, []float64{3})
	assert.InDelta(t, 2.0, global[0], 1e-12)
	assert.InDelta(t, 0.75, totalLoss, 1e-12)
}

func TestValidation(t *testing.T) {
	goodParts := []Partition{{{Label: 1, Features: []float64{1}}}}
	tests := []struct {
		name   string
		mutate func(s *Solver)
		parts  []Partition
		init   []float64
	}{
		{"ZeroIterations", func(s *Solver) { s.NumIterations = 0 }, goodParts, []float64{0}},
		{"NegativeRegParam", func(s *Solver) { s.RegParam = -1 }, goodParts, []float64{0}},
		{"ZeroStepSize", func(s *Solver) { s.StepSize = 0 }, goodParts, []float64{0}},
		{"ZeroRho", func(s *Solver) { s.Rho = 0 }, goodParts, []float64{0}},
		{"NilGradient", func(s *Solver) { s.Gradient = nil }, goodParts, []float64{0}},
		{"NilUpdater", func(s *Solver) { s.Updater = nil }, goodParts, []float64{0}},
		{"NoPartitions", func(s *Solver) {}, nil, []float64{0}},
		{"EmptyPartition", func(s *Solver) {}, []Partition{goodParts[0], {}}, []float64{0}},
		{"DimensionMismatch", func(s *Solver) {}, goodParts, []float64{0, 0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			solver := newTestSolver(2)
			test.mutate(solver)
			_, err := solver.Optimize(context.Background(), test.parts, test.init)
			assert.Error(t, err)
			assert.Empty(t, solver.LossHistory())
		})
	}
}

// poisonGradient produces a NaN loss for one specific label.
type poisonGradient struct {
	bad float64
}

func (p poisonGradient) Compute(features []float64, label float64, weights []float64) ([]float64, float64) {
	if label == p.bad {
		return make([]float64, len(weights)), math.NaN()
	}
	return linmodel.SquaredError{}.Compute(features, label, weights)
}

func TestNumericFailureIsFatal(t *testing.T) {
	parts := []Partition{
		{{Label: 1, Features: []float64{1}}},
		{{Label: 13, Features: []float64{1}}},
	}
	solver := newTestSolver(3)
	solver.Gradient = poisonGradient{bad: 13}
	_, err := solver.Optimize(context.Background(), parts, []float64{0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker 1")
	assert.Empty(t, solver.LossHistory())
}

// consensusPoisonGradient is finite at zero weights, so the
// bootstrap round succeeds, and NaN everywhere else, so the
// first consensus pass fails.
type consensusPoisonGradient struct{}

func (consensusPoisonGradient) Compute(features []float64, label float64, weights []float64) ([]float64, float64) {
	for _, w := range weights {
		if w != 0 {
			return make([]float64, len(weights)), math.NaN()
		}
	}
	return linmodel.SquaredError{}.Compute(features, label, weights)
}

func TestFailedRoundCommitsNothing(t *testing.T) {
	parts := []Partition{
		{{Label: 1, Features: []float64{1}}},
		{{Label: 1, Features: []float64{2}}},
	}
	solver := newTestSolver(3)
	solver.Gradient = consensusPoisonGradient{}
	_, err := solver.Optimize(context.Background(), parts, []float64{0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "round 1")

	// The failed round's objective must not leak out: only
	// fully committed rounds are observable.
	assert.Empty(t, solver.LossHistory())
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	solver := newTestSolver(5)
	_, err := solver.Optimize(ctx, []Partition{{{Label: 1, Features: []float64{1}}}}, []float64{0})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplit(t *testing.T) {
	records := make([]Record, 10)
	for i := range records {
		records[i] = Record{Label: float64(i), Features: []float64{1}}
	}
	parts := Split(records, 3)
	require.Len(t, parts, 3)
	var total int
	var next float64
	for _, part := range parts {
		total += len(part)
		for _, record := range part {
			assert.Equal(t, next, record.Label, "split must preserve order")
			next++
		}
	}
	assert.Equal(t, 10, total)
}

// syntheticParts builds a deterministic linear dataset with a
// fixed congruential generator, so tests never depend on
// global random state.
func syntheticParts(numParts, numRecords, dim int) []Partition {
	seed := uint64(1337)
	next := func() float64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return float64(seed>>11) / float64(1<<53)
	}
	records := make([]Record, numRecords)
	for i := range records {
		features := make([]float64, dim)
		var label float64
		for j := range features {
			features[j] = next()*2 - 1
			label += float64(j+1) * features[j]
		}
		records[i] = Record{Label: label, Features: features}
	}
	return Split(records, numParts)
}
