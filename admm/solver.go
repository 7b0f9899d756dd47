package admm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/unixpickle/dist-admm/cluster"
	"github.com/unixpickle/dist-admm/linalg"
	"github.com/unixpickle/dist-admm/linmodel"
)

// A Solver trains a regularized linear model over partitioned
// data with consensus ADMM.
//
// Fill in the exported fields and call Optimize. The zero
// value is not usable. A Solver must not be shared between
// concurrent Optimize calls.
type Solver struct {
	// NumIterations is the total number of rounds, counting
	// the unregularized bootstrap round. Must be at least 1.
	//
	// With NumIterations of 1 the consensus loop never runs
	// and Optimize returns the initial weights unchanged; the
	// bootstrap pass is still computed and then discarded.
	NumIterations int

	// RegParam is the regularization parameter. Must not be
	// negative.
	RegParam float64

	// StepSize is the base step size of the local passes.
	// Must be positive.
	StepSize float64

	// Rho is the consensus augmentation parameter. Must be
	// positive.
	Rho float64

	// Schedule overrides the default step-size schedule. When
	// nil, linmodel.DefaultSchedule(RegParam) is used.
	Schedule linmodel.Schedule

	// Gradient evaluates the data loss per record.
	Gradient linmodel.Gradient

	// Updater applies local gradient steps and reports the
	// regularizer value. The closed-form regularization solve
	// is exact only for quadratic regularizers such as
	// linmodel.SquaredL2.
	Updater linmodel.Updater

	// Logger, when non-nil, receives one debug line per
	// consensus round.
	Logger *slog.Logger

	lossHistory []float64
}

// roundInputs is the read-only value broadcast to every
// partition at the start of a consensus round's local pass.
type roundInputs struct {
	global    []float64
	penalties map[int][]float64
}

// Optimize runs the bootstrap round followed by
// NumIterations-1 consensus rounds and returns the final
// consensus weights.
//
// Configuration and dataset shape are validated before any
// round executes. Canceling ctx mid-round discards that
// round's partial partition outputs: the loss history keeps
// only fully committed rounds.
func (s *Solver) Optimize(ctx context.Context, parts []Partition, initWeights []float64) ([]float64, error) {
	if err := s.validate(parts, initWeights); err != nil {
		return nil, err
	}

	sched := s.Schedule
	if sched == nil {
		sched = linmodel.DefaultSchedule(s.RegParam)
	}
	logger := s.Logger
	if logger != nil {
		logger = logger.With("run", uuid.NewString(), "partitions", len(parts))
	}

	c, err := cluster.New(len(parts))
	if err != nil {
		return nil, err
	}

	dim := len(initWeights)
	s.lossHistory = make([]float64, 0, s.NumIterations-1)

	// Bootstrap round: every partition solves from zero with
	// no consensus terms.
	states, err := cluster.Map(ctx, c, func(ctx context.Context, p int) (PartitionState, error) {
		weights, loss, err := solveLocal(ctx, parts[p], linalg.Zeros(dim), s.Gradient, s.Updater, s.StepSize, sched, nil)
		if err != nil {
			return PartitionState{}, err
		}
		return PartitionState{Index: p, Weights: weights, Loss: loss, Count: len(parts[p])}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap round: %w", err)
	}

	state := newGlobalState(initWeights, len(parts))
	for round := 1; round < s.NumIterations; round++ {
		global, totalLoss := aggregate(states, state.regWeights)

		// Pure regularization-value query: zero gradient,
		// zero step size, weights discarded.
		_, regVal := s.Updater.Compute(global, linalg.Zeros(dim), 0, sched, 1, s.RegParam)
		objective := totalLoss + s.RegParam*regVal

		penalties := dualUpdate(state.penalties, states, global, s.Rho)
		regPenalty := regDualUpdate(state.regPenalty, state.regWeights, global, s.Rho)

		bcast := cluster.NewBroadcast(roundInputs{global: global, penalties: penalties})
		states, err = cluster.Map(ctx, c, func(ctx context.Context, p int) (PartitionState, error) {
			in := bcast.Read()
			term := &consensusTerm{penalty: in.penalties[p], global: in.global, rho: s.Rho}
			weights, loss, err := solveLocal(ctx, parts[p], in.global, s.Gradient, s.Updater, s.StepSize, sched, term)
			if err != nil {
				return PartitionState{}, err
			}
			return PartitionState{Index: p, Weights: weights, Loss: loss, Count: len(parts[p])}, nil
		})
		bcast.Release()
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}

		// Commit point: the round's state and its history
		// entry become visible together.
		state = &globalState{
			weights:    global,
			regWeights: regSolve(global, regPenalty, s.Rho, s.RegParam),
			regPenalty: regPenalty,
			penalties:  penalties,
		}
		s.lossHistory = append(s.lossHistory, objective)
		if logger != nil {
			logger.Debug("consensus round committed", "round", round, "objective", objective)
		}
	}

	return linalg.Clone(state.weights), nil
}

// LossHistory returns the objective recorded at each
// committed consensus round of the last Optimize call, in
// round order. The recorded value sums the previous round's
// partition losses with the current round's regularization
// value.
//
// The returned slice is the caller's to keep.
func (s *Solver) LossHistory() []float64 {
	return linalg.Clone(s.lossHistory)
}

func (s *Solver) validate(parts []Partition, initWeights []float64) error {
	switch {
	case s.NumIterations < 1:
		return fmt.Errorf("admm: NumIterations must be at least 1, got %d", s.NumIterations)
	case s.RegParam < 0:
		return fmt.Errorf("admm: RegParam must not be negative, got %f", s.RegParam)
	case s.StepSize <= 0:
		return fmt.Errorf("admm: StepSize must be positive, got %f", s.StepSize)
	case s.Rho <= 0:
		// A positive Rho also keeps the closed-form
		// denominator Rho+RegParam positive.
		return fmt.Errorf("admm: Rho must be positive, got %f", s.Rho)
	case s.Gradient == nil:
		return fmt.Errorf("admm: Gradient is required")
	case s.Updater == nil:
		return fmt.Errorf("admm: Updater is required")
	case len(parts) == 0:
		return fmt.Errorf("admm: need at least one partition")
	}
	for p, part := range parts {
		if len(part) == 0 {
			return fmt.Errorf("admm: partition %d has no records", p)
		}
		for i, record := range part {
			if len(record.Features) != len(initWeights) {
				return fmt.Errorf("admm: partition %d record %d: feature dimension %d does not match weight dimension %d",
					p, i, len(record.Features), len(initWeights))
			}
		}
	}
	return nil
}
