package admm

import (
	"context"
	"fmt"
	"math"

	"github.com/unixpickle/dist-admm/linalg"
	"github.com/unixpickle/dist-admm/linmodel"
)

// A consensusTerm carries the broadcast inputs that augment
// one partition's gradient during a consensus round.
type consensusTerm struct {
	// penalty is the partition's dual variable.
	penalty []float64

	// global is the broadcast consensus vector, fixed for the
	// whole pass.
	global []float64

	// rho is the consensus augmentation parameter.
	rho float64
}

// solveLocal replays one partition's records in slice order,
// taking one gradient step per record, and returns the final
// weights and the total data loss.
//
// The iteration counter feeding the step-size schedule starts
// at 1 and advances once per record, and the weights evolve
// as the pass goes, so the result genuinely depends on record
// order. The pass is unregularized: the Updater always runs
// with a zero regularization parameter.
//
// When term is non-nil, each record's gradient is augmented
// with the consensus terms
//
//	grad + penalty/n + (rho/n)*(w - global)
//
// where n is the partition's record count, w the evolving
// local weights, and global the fixed broadcast vector.
//
// A NaN or Inf from the Gradient or Updater aborts the pass.
func solveLocal(ctx context.Context, records Partition, start []float64, gradient linmodel.Gradient,
	updater linmodel.Updater, stepSize float64, sched linmodel.Schedule, term *consensusTerm) ([]float64, float64, error) {
	weights := linalg.Clone(start)
	count := float64(len(records))

	var totalLoss float64
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		grad, loss := gradient.Compute(record.Features, record.Label, weights)
		if err := linalg.CheckFinite(grad); err != nil {
			return nil, 0, fmt.Errorf("gradient at record %d: %w", i, err)
		}
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return nil, 0, fmt.Errorf("loss at record %d: %v", i, loss)
		}

		if term != nil {
			linalg.Axpy(grad, 1/count, term.penalty)
			linalg.Axpy(grad, term.rho/count, weights)
			linalg.Axpy(grad, -term.rho/count, term.global)
		}

		weights, _ = updater.Compute(weights, grad, stepSize, sched, i+1, 0)
		if err := linalg.CheckFinite(weights); err != nil {
			return nil, 0, fmt.Errorf("weights after record %d: %w", i, err)
		}
		totalLoss += loss
	}
	return weights, totalLoss, nil
}
