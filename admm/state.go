package admm

import "github.com/unixpickle/dist-admm/linalg"

// A PartitionState is the message a partition's local solve
// produces once per round for the driver.
type PartitionState struct {
	// Index identifies the partition.
	Index int

	// Weights is the local solution of this round's pass.
	Weights []float64

	// Loss is the total data loss accumulated over the pass.
	Loss float64

	// Count is the number of records in the partition. It is
	// fixed after the bootstrap round.
	Count int
}

// globalState is the driver's view of one committed round.
//
// A fresh globalState is built at every round boundary and
// swapped in wholesale, never mutated field by field, so no
// reader can observe a partially updated round.
type globalState struct {
	// weights is the consensus weight vector.
	weights []float64

	// regWeights is the regularization variable, which joins
	// the consensus average as an extra virtual partition.
	regWeights []float64

	// regPenalty is the dual variable of the regularization
	// variable.
	regPenalty []float64

	// penalties maps each partition index to its dual
	// variable. Each entry is written only from its own
	// partition's state.
	penalties map[int][]float64
}

// newGlobalState creates the round-zero state: consensus
// weights equal to the initial weights, zero regularization
// variable, and zero dual variables throughout.
func newGlobalState(initWeights []float64, numPartitions int) *globalState {
	dim := len(initWeights)
	penalties := make(map[int][]float64, numPartitions)
	for p := 0; p < numPartitions; p++ {
		penalties[p] = linalg.Zeros(dim)
	}
	return &globalState{
		weights:    linalg.Clone(initWeights),
		regWeights: linalg.Zeros(dim),
		regPenalty: linalg.Zeros(dim),
		penalties:  penalties,
	}
}

// aggregate folds the partitions' local solutions and the
// regularization variable into a new consensus vector, and
// sums the partitions' losses.
//
// The fold runs in partition order, so the result is
// bit-reproducible for a fixed partitioning.
func aggregate(states []PartitionState, regWeights []float64) (global []float64, totalLoss float64) {
	vecs := make([][]float64, 0, len(states)+1)
	for _, state := range states {
		vecs = append(vecs, state.Weights)
		totalLoss += state.Loss
	}
	vecs = append(vecs, regWeights)
	global = linalg.Sum(vecs)
	linalg.Scale(global, 1/float64(len(states)+1))
	return global, totalLoss
}

// dualUpdate computes the next penalties map. Each
// partition's entry moves by rho times that partition's own
// disagreement with the consensus vector; no entry sees
// another partition's data.
func dualUpdate(prev map[int][]float64, states []PartitionState, global []float64, rho float64) map[int][]float64 {
	next := make(map[int][]float64, len(prev))
	for _, state := range states {
		pen := linalg.Clone(prev[state.Index])
		linalg.Axpy(pen, rho, state.Weights)
		linalg.Axpy(pen, -rho, global)
		next[state.Index] = pen
	}
	return next
}

// regDualUpdate computes the next dual variable of the
// regularization variable.
func regDualUpdate(prev, regWeights, global []float64, rho float64) []float64 {
	next := linalg.Clone(prev)
	linalg.Axpy(next, rho, regWeights)
	linalg.Axpy(next, -rho, global)
	return next
}

// regSolve minimizes the quadratic regularization subproblem
// in closed form:
//
//	regWeights = (rho*global - regPenalty) / (rho + regParam)
//
// The closed form is exact for quadratic regularizers such as
// squared-L2 and is the only place regularization enters the
// weights; local passes always run unregularized.
func regSolve(global, regPenalty []float64, rho, regParam float64) []float64 {
	res := linalg.Zeros(len(global))
	linalg.Axpy(res, rho, global)
	linalg.Axpy(res, -1, regPenalty)
	linalg.Scale(res, 1/(rho+regParam))
	return res
}
