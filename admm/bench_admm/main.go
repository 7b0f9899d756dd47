// Command bench_admm trains a ridge regression on a synthetic
// linear dataset and prints the objective trajectory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/unixpickle/dist-admm/admm"
	"github.com/unixpickle/dist-admm/linmodel"
	"github.com/unixpickle/essentials"
)

func main() {
	var (
		numParts   = flag.Int("partitions", 8, "number of data partitions")
		numRecords = flag.Int("records", 10000, "total number of records")
		dim        = flag.Int("dim", 20, "feature dimension")
		iters      = flag.Int("iters", 20, "total rounds, counting the bootstrap round")
		rho        = flag.Float64("rho", 1.0, "consensus augmentation parameter")
		lambda     = flag.Float64("lambda", 0.1, "regularization parameter")
		stepSize   = flag.Float64("step", 0.1, "base step size")
		noise      = flag.Float64("noise", 0.01, "label noise stddev")
		seed       = flag.Int64("seed", 0, "dataset seed")
		verbose    = flag.Bool("v", false, "log every consensus round")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	trueWeights := make([]float64, *dim)
	for i := range trueWeights {
		trueWeights[i] = rng.NormFloat64()
	}
	records := make([]admm.Record, *numRecords)
	for i := range records {
		features := make([]float64, *dim)
		label := rng.NormFloat64() * *noise
		for j := range features {
			features[j] = rng.NormFloat64()
			label += trueWeights[j] * features[j]
		}
		records[i] = admm.Record{Label: label, Features: features}
	}

	solver := &admm.Solver{
		NumIterations: *iters,
		RegParam:      *lambda,
		StepSize:      *stepSize,
		Rho:           *rho,
		Gradient:      linmodel.SquaredError{},
		Updater:       linmodel.SquaredL2{},
	}
	if *verbose {
		solver.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	start := time.Now()
	weights, err := solver.Optimize(context.Background(), admm.Split(records, *numParts), make([]float64, *dim))
	if err != nil {
		essentials.Die(err)
	}
	elapsed := time.Since(start)

	fmt.Println("| Round | Objective |")
	fmt.Println("|:--|:--|")
	for i, loss := range solver.LossHistory() {
		fmt.Printf("| %d | %f |\n", i+1, loss)
	}

	var sqDist float64
	for i, w := range weights {
		diff := w - trueWeights[i]
		sqDist += diff * diff
	}
	fmt.Printf("\ntrained %d records in %s (weight error %f)\n", *numRecords, elapsed, sqDist)
}
