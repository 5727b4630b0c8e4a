package sim

import (
	"context"
	"runtime"
	"sync"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// Job is one independent run of an ensemble. Build must return a fresh
// simulator since controllers and metrics carry per-run state.
type Job struct {
	Build  func() (*Simulator, error)
	X0     dynamo.State
	Config Config
	Times  []float64
}

type Ensemble struct {
	jobs    []Job
	workers int
}

// NewEnsemble runs jobs with at most workers goroutines; workers <= 0 uses
// GOMAXPROCS.
func NewEnsemble(jobs []Job, workers int) *Ensemble {
	return &Ensemble{jobs: jobs, workers: workers}
}

// Run returns results in job order. Failed jobs leave a nil slot and their
// error in the matching slot of the error slice.
func (e *Ensemble) Run(ctx context.Context) ([]*dynamo.Result, []error) {
	results := make([]*dynamo.Result, len(e.jobs))
	errs := make([]error, len(e.jobs))

	ParallelFor(len(e.jobs), e.workers, func(start, end int) {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			job := e.jobs[i]
			s, err := job.Build()
			if err != nil {
				errs[i] = err
				continue
			}
			res, err := s.Run(ctx, job.X0, job.Config, job.Times)
			if err != nil {
				errs[i] = err
				continue
			}
			results[i] = res
		}
	})

	return results, errs
}

// ParallelFor executes fn over [0, n) split into contiguous chunks, one per
// worker.
func ParallelFor(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
