// Package dispatcher manages worker fan-out over the crawl frontier.
package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Runner is one unit of crawl work; *worker.Worker satisfies it.
type Runner interface {
	Run(ctx context.Context) error
}

// Dispatcher fans frontier work out to a pool of workers.
type Dispatcher struct {
	workers []Runner
}

// New creates a Dispatcher.
func New(workers ...Runner) *Dispatcher {
	return &Dispatcher{workers: workers}
}

// Run starts all workers and blocks until every one has returned. It returns
// nil when the frontier drained and the first worker error otherwise; a
// failing worker cancels the rest.
func (d *Dispatcher) Run(ctx context.Context) error {
	if len(d.workers) == 0 {
		return errors.New("dispatcher: no workers configured")
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range d.workers {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}
