// Package workerpool provides bounded parallel fan-out over owned,
// shared-nothing slices of work. Each worker claims items by atomic counter
// and writes results into its caller-owned output slot, so the result order
// always matches the input order regardless of scheduling.
package workerpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/adam-bouafia/logpress/internal/errs"
)

// DefaultWorkers returns the worker count used when the caller passes 0.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// Map applies fn to every element of in using up to workers goroutines and
// returns the results in input order. Cancellation is cooperative: workers
// check ctx between items, and a cancelled run returns ErrCancelled with no
// partial results.
func Map[T, R any](ctx context.Context, in []T, workers int, fn func(T) R) ([]R, error) {
	if len(in) == 0 {
		if ctx.Err() != nil {
			return nil, errs.ErrCancelled
		}

		return nil, nil
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > len(in) {
		workers = len(in)
	}

	out := make([]R, len(in))
	var next atomic.Int64
	var cancelled atomic.Bool

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(in) {
					return
				}
				if ctx.Err() != nil {
					cancelled.Store(true)

					return
				}
				out[i] = fn(in[i])
			}
		}()
	}
	wg.Wait()

	if cancelled.Load() || ctx.Err() != nil {
		return nil, errs.ErrCancelled
	}

	return out, nil
}
