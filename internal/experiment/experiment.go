package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/pion/logging"
	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/logs"
	"github.com/san-kum/pidsim/internal/lti"
	"github.com/san-kum/pidsim/internal/metrics"
	"github.com/san-kum/pidsim/internal/reference"
)

type Pole struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

// Result is one closed-loop response with its scores. Times, Reference and
// Output are aligned; Control is present for the sampled method only.
type Result struct {
	Input     string             `json:"input"`
	Method    string             `json:"method"`
	Gains     Gains              `json:"gains"`
	Caption   string             `json:"caption"`
	Transfer  string             `json:"transfer"`
	Poles     []Pole             `json:"poles"`
	Stable    bool               `json:"stable"`
	Times     []float64          `json:"times"`
	Reference []float64          `json:"reference"`
	Output    []float64          `json:"output"`
	Control   []float64          `json:"control,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
	// Controller holds the PID gains and limits of a sampled run.
	Controller map[string]float64 `json:"controller,omitempty"`
	Elapsed    time.Duration      `json:"elapsed_ns"`
}

type Runner struct {
	registry *Registry
	log      logging.LeveledLogger
}

// NewRunner builds a runner logging through f; nil falls back to the
// environment-configured default factory.
func NewRunner(f logging.LoggerFactory) *Runner {
	f = logs.OrDefault(f)
	reg := NewRegistry()
	reg.factory = f
	return &Runner{
		registry: reg,
		log:      f.NewLogger(logs.ScopeExperiment),
	}
}

func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run is shorthand for NewRunner(nil).Run.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	return NewRunner(nil).Run(ctx, cfg)
}

// Reference samples the configured input on a fresh time grid.
func (r *Runner) Reference(cfg Config) (times, ref []float64, err error) {
	build, err := r.registry.GetInput(cfg.Input)
	if err != nil {
		return nil, nil, err
	}
	times = reference.Linspace(0, cfg.Duration, cfg.Samples)
	return times, build(cfg, times), nil
}

func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	solve, err := r.registry.GetSolver(cfg.Method)
	if err != nil {
		return nil, err
	}
	times, ref, err := r.Reference(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	closed := lti.ClosedLoop(cfg.Gains.Kp, cfg.Gains.Ki, cfg.Gains.Kd, cfg.plant())
	r.log.Debugf("input=%s method=%s %s closed loop %s", cfg.Input, cfg.Method, cfg.Gains, closed)

	raw, err := solve(ctx, cfg, closed, times, ref)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", cfg.Input, err)
	}

	res, err := r.finish(cfg, closed, raw, start)
	if err != nil {
		return nil, err
	}
	if !res.Stable {
		r.log.Warnf("closed loop with %s is unstable", cfg.Gains)
	}
	r.log.Infof("%s %s: itae=%.4f rmse=%.4f in %s", cfg.Input, cfg.Gains, res.Metrics[metrics.ITAE], res.Metrics[metrics.RMSE], res.Elapsed)

	return res, nil
}

// finish scores a raw solver result and attaches the loop description.
func (r *Runner) finish(cfg Config, closed *lti.TransferFunction, raw *dynamo.Result, start time.Time) (*Result, error) {
	summary, err := metrics.Summarize(raw.Times, raw.Reference, raw.Output)
	if err != nil {
		return nil, err
	}
	for k, v := range raw.Metrics {
		summary[k] = v
	}

	res := &Result{
		Input:     cfg.Input.String(),
		Method:    string(cfg.Method),
		Gains:     cfg.Gains,
		Caption:   cfg.Caption(),
		Transfer:  closed.String(),
		Stable:    closed.Stable(),
		Times:     raw.Times,
		Reference: raw.Reference,
		Output:    raw.Output,
		Metrics:   summary,
		Elapsed:   time.Since(start),
	}
	if cfg.Method == MethodSampled {
		res.Control = raw.Control
		res.Controller = raw.Controller
	}
	for _, p := range closed.Poles() {
		res.Poles = append(res.Poles, Pole{Re: real(p), Im: imag(p)})
	}
	return res, nil
}
