// Package cluster provides the data-parallel substrate the
// trainer runs on: a fixed group of workers, one per data
// partition, with a parallel map whose gather order is fixed
// and a publish-once broadcast value for round inputs.
package cluster

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// A Cluster is a fixed-size group of workers identified by
// index. The worker count is fixed at creation and matches
// the number of data partitions for the whole run.
type Cluster struct {
	numWorkers int
}

// New creates a Cluster with the given number of workers.
func New(numWorkers int) (*Cluster, error) {
	if numWorkers <= 0 {
		return nil, fmt.Errorf("cluster: need at least one worker, got %d", numWorkers)
	}
	return &Cluster{numWorkers: numWorkers}, nil
}

// Size gets the number of workers.
func (c *Cluster) Size() int {
	return c.numWorkers
}

// Map runs f concurrently on every worker and gathers the
// results indexed by worker.
//
// The gather order is fixed so that any fold the caller
// performs over the results is deterministic regardless of
// which worker finished first. If any worker fails, the
// context passed to the others is canceled and all partial
// results are discarded.
func Map[T any](ctx context.Context, c *Cluster, f func(ctx context.Context, worker int) (T, error)) ([]T, error) {
	results := make([]T, c.numWorkers)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.numWorkers; i++ {
		i := i
		g.Go(func() error {
			res, err := f(ctx, i)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
