package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/san-kum/pidsim/internal/lti"
	"github.com/san-kum/pidsim/internal/metrics"
	"github.com/san-kum/pidsim/internal/sim"
)

var ErrNoCandidate = errors.New("experiment: no stable gain candidate")

// GridSearch enumerates every combination of the candidate gains.
type GridSearch struct {
	Kp, Ki, Kd []float64
	// Metric to minimise; defaults to itae.
	Metric  string
	Workers int
}

type Candidate struct {
	Gains Gains   `json:"gains"`
	Score float64 `json:"score"`
	Err   string  `json:"error,omitempty"`
}

type TuneResult struct {
	Best       Candidate   `json:"best"`
	Metric     string      `json:"metric"`
	Candidates []Candidate `json:"candidates"`
	Rejected   int         `json:"rejected"`
}

// Span returns n evenly spaced candidates over [lo, hi].
func Span(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func (g GridSearch) grid() []Gains {
	var out []Gains
	for _, kp := range g.Kp {
		for _, ki := range g.Ki {
			for _, kd := range g.Kd {
				out = append(out, Gains{Kp: kp, Ki: ki, Kd: kd})
			}
		}
	}
	return out
}

// Tune scores every candidate on base (only the gains change) and returns
// the one with the lowest metric. Candidates whose closed loop is unstable
// are rejected without simulating. Candidates are sorted best first.
// Sampled-method grids run as one simulator ensemble.
func (r *Runner) Tune(ctx context.Context, base Config, g GridSearch) (*TuneResult, error) {
	metric := g.Metric
	if metric == "" {
		metric = metrics.ITAE
	}
	grid := g.grid()
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: empty gain grid", ErrInvalidConfig)
	}
	base.Observer = nil

	var cands []Candidate
	if base.Method == MethodSampled {
		var err error
		if cands, err = r.scoreEnsemble(ctx, base, grid, metric, g.Workers); err != nil {
			return nil, err
		}
	} else {
		cands = make([]Candidate, len(grid))
		sim.ParallelFor(len(grid), g.Workers, func(start, end int) {
			for i := start; i < end; i++ {
				cands[i] = r.score(ctx, base, grid[i], metric)
			}
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &TuneResult{Metric: metric}
	for _, c := range cands {
		if c.Err != "" {
			res.Rejected++
			continue
		}
		res.Candidates = append(res.Candidates, c)
	}
	if len(res.Candidates) == 0 {
		return res, ErrNoCandidate
	}
	sort.SliceStable(res.Candidates, func(i, j int) bool {
		return res.Candidates[i].Score < res.Candidates[j].Score
	})
	res.Best = res.Candidates[0]
	r.log.Infof("tuned %d candidates (%d rejected): best %s %s=%.4f", len(grid), res.Rejected, res.Best.Gains, metric, res.Best.Score)
	return res, nil
}

func (r *Runner) score(ctx context.Context, base Config, gains Gains, metric string) Candidate {
	c := Candidate{Gains: gains, Score: math.Inf(1)}
	cfg := base
	cfg.Gains = gains

	if !lti.ClosedLoop(gains.Kp, gains.Ki, gains.Kd, cfg.plant()).Stable() {
		c.Err = "unstable closed loop"
		return c
	}
	res, err := r.Run(ctx, cfg)
	if err != nil {
		c.Err = err.Error()
		return c
	}
	r.pick(&c, res, metric)
	return c
}

// scoreEnsemble shares one reference across the candidates and simulates
// each stable one as a sim.Job.
func (r *Runner) scoreEnsemble(ctx context.Context, base Config, grid []Gains, metric string, workers int) ([]Candidate, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	times, ref, err := r.Reference(base)
	if err != nil {
		return nil, err
	}

	cands := make([]Candidate, len(grid))
	var (
		jobs  []sim.Job
		slots []int
		cfgs  []Config
		loops []*lti.TransferFunction
	)
	for i, gains := range grid {
		cands[i] = Candidate{Gains: gains, Score: math.Inf(1)}
		if err := gains.Validate(); err != nil {
			cands[i].Err = err.Error()
			continue
		}
		cfg := base
		cfg.Gains = gains
		closed := lti.ClosedLoop(gains.Kp, gains.Ki, gains.Kd, cfg.plant())
		if !closed.Stable() {
			cands[i].Err = "unstable closed loop"
			continue
		}
		jobs = append(jobs, sim.Job{
			Build:  func() (*sim.Simulator, error) { return r.registry.newSampledSim(cfg) },
			Config: sim.Config{Reference: ref},
			Times:  times,
		})
		slots = append(slots, i)
		cfgs = append(cfgs, cfg)
		loops = append(loops, closed)
	}

	start := time.Now()
	raws, errs := sim.NewEnsemble(jobs, workers).Run(ctx)
	for j, i := range slots {
		if errs[j] != nil {
			cands[i].Err = errs[j].Error()
			continue
		}
		res, err := r.finish(cfgs[j], loops[j], raws[j], start)
		if err != nil {
			cands[i].Err = err.Error()
			continue
		}
		r.pick(&cands[i], res, metric)
	}
	r.log.Debugf("ensemble of %d sampled runs finished in %s", len(jobs), time.Since(start))
	return cands, nil
}

func (r *Runner) pick(c *Candidate, res *Result, metric string) {
	v, ok := res.Metrics[metric]
	if !ok {
		c.Err = fmt.Sprintf("metric %q not produced", metric)
		return
	}
	c.Score = v
	r.log.Tracef("candidate %s %s=%.6f", c.Gains, metric, v)
}
