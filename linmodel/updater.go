package linmodel

import (
	"math"

	"github.com/unixpickle/dist-admm/linalg"
)

// An Updater applies one gradient step to a weight vector and
// reports the value of its regularizer.
type Updater interface {
	// Compute returns the weights after one step against grad
	// and the unweighted regularizer value R at the returned
	// weights. The effective step is stepSize * sched(iter),
	// where iter is a 1-based iteration index.
	//
	// A zero gradient with a zero step size must act as a
	// pure regularization-value query: the weights come back
	// unchanged and only regVal is meaningful. The caller
	// scales regVal by its regularization parameter.
	Compute(weights, grad []float64, stepSize float64, sched Schedule, iter int, regParam float64) (newWeights []float64, regVal float64)
}

// GradStep is a plain gradient-descent updater with no
// regularization: w' = w - stepSize*sched(iter)*grad, R = 0.
type GradStep struct{}

// Compute takes one unregularized gradient step.
func (GradStep) Compute(weights, grad []float64, stepSize float64, sched Schedule, iter int, regParam float64) ([]float64, float64) {
	res := linalg.Clone(weights)
	linalg.Axpy(res, -stepSize*sched(iter), grad)
	return res, 0
}

// SquaredL2 is the ridge updater, with R(w) = 1/2 ||w||^2.
// Its regularizer is quadratic, which makes it the updater
// family compatible with the solver's closed-form
// regularization subproblem.
type SquaredL2 struct{}

// Compute shrinks the weights toward zero and then takes a
// gradient step. With a zero step the weights pass through
// unchanged and only the regularizer value is reported.
func (SquaredL2) Compute(weights, grad []float64, stepSize float64, sched Schedule, iter int, regParam float64) ([]float64, float64) {
	step := stepSize * sched(iter)
	res := linalg.Clone(weights)
	linalg.Scale(res, 1-step*regParam)
	linalg.Axpy(res, -step, grad)
	return res, 0.5 * linalg.Dot(res, res)
}

// L1 is the lasso updater: a gradient step followed by
// soft-thresholding, with R(w) = ||w||_1.
//
// Its regularizer is not quadratic, so it can serve local
// passes but not the solver's closed-form regularization
// subproblem.
type L1 struct{}

// Compute takes a gradient step and soft-thresholds each
// component by step*regParam.
func (L1) Compute(weights, grad []float64, stepSize float64, sched Schedule, iter int, regParam float64) ([]float64, float64) {
	step := stepSize * sched(iter)
	shrink := step * regParam
	res := linalg.Clone(weights)
	linalg.Axpy(res, -step, grad)
	var l1Norm float64
	for i, x := range res {
		res[i] = math.Copysign(math.Max(0, math.Abs(x)-shrink), x)
		l1Norm += math.Abs(res[i])
	}
	return res, l1Norm
}
