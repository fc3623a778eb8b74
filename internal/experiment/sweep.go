package experiment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Runner executes a single parameter file. *Experiment satisfies it.
type Runner interface {
	Run(ctx context.Context, paramFile string) (*Result, error)
}

// Sweep runs every job through runner with at most workers jobs in flight.
// Results come back in job order. The first failure cancels the jobs that
// have not started yet and is returned.
func Sweep(ctx context.Context, runner Runner, jobs []Job, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := runner.Run(ctx, job.ParamFile)
			if err != nil {
				return fmt.Errorf("scale %d: %w", job.Scale, err)
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
