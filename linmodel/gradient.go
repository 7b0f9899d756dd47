// Package linmodel provides the pluggable pieces of a linear
// model: per-example loss gradients, weight updaters, and
// step-size schedules.
package linmodel

import (
	"math"

	"github.com/unixpickle/dist-admm/linalg"
)

// A Gradient evaluates a loss function and its gradient at a
// single labeled example.
//
// Implementations must be pure and stateless: the trainer
// calls Compute once per record per pass, possibly from many
// Goroutines at once.
type Gradient interface {
	// Compute returns the gradient of the loss with respect
	// to weights at one example, and the loss itself.
	//
	// The returned gradient is freshly allocated; the inputs
	// are never modified.
	Compute(features []float64, label float64, weights []float64) (grad []float64, loss float64)
}

// SquaredError is the least-squares loss for linear
// regression: 1/2 (w·x - y)^2.
type SquaredError struct{}

// Compute returns (w·x - y) x and the squared-error loss.
func (SquaredError) Compute(features []float64, label float64, weights []float64) ([]float64, float64) {
	diff := linalg.Dot(features, weights) - label
	grad := linalg.Zeros(len(weights))
	linalg.Axpy(grad, diff, features)
	return grad, 0.5 * diff * diff
}

// Logistic is the log-loss for binary classification with
// labels in {0, 1}.
type Logistic struct{}

// Compute returns the log-loss gradient (1/(1+e^-w·x) - y) x
// and the log-loss.
func (Logistic) Compute(features []float64, label float64, weights []float64) ([]float64, float64) {
	margin := -linalg.Dot(features, weights)
	mult := 1/(1+math.Exp(margin)) - label
	grad := linalg.Zeros(len(weights))
	linalg.Axpy(grad, mult, features)

	// log(1+e^margin), branched on the sign of the margin so
	// that a large margin never overflows the exponential.
	var loss float64
	if margin > 0 {
		loss = margin + math.Log1p(math.Exp(-margin))
	} else {
		loss = math.Log1p(math.Exp(margin))
	}
	if label > 0.5 {
		return grad, loss
	}
	return grad, loss - margin
}
