// Package admm trains a regularized linear model over
// partitioned data using consensus ADMM.
//
// The data is split into disjoint partitions, each solved
// locally by sequential gradient steps, while a shared global
// weight vector is driven toward agreement across partitions
// through per-partition dual variables and an explicit
// regularization subproblem.
package admm

// A Record is a single labeled training example.
//
// Records are immutable: neither the trainer nor any strategy
// it calls modifies a record's features.
type Record struct {
	Label    float64
	Features []float64
}

// A Partition is a fixed, ordered sequence of records.
//
// The slice order is the replay order of the local solver, so
// runs are reproducible as long as the caller neither reorders
// records nor reassigns them between partitions for the
// duration of a run.
type Partition []Record

// Split divides records into n contiguous partitions of
// near-equal size, preserving record order.
func Split(records []Record, n int) []Partition {
	parts := make([]Partition, n)
	for i := range parts {
		start := i * len(records) / n
		end := (i + 1) * len(records) / n
		parts[i] = Partition(records[start:end])
	}
	return parts
}
