package experiment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pion/logging"
	"github.com/san-kum/pidsim/internal/control"
	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/integrators"
	"github.com/san-kum/pidsim/internal/logs"
	"github.com/san-kum/pidsim/internal/lti"
	"github.com/san-kum/pidsim/internal/metrics"
	"github.com/san-kum/pidsim/internal/reference"
	"github.com/san-kum/pidsim/internal/sim"
)

// InputBuilder samples a reference signal on the grid.
type InputBuilder func(cfg Config, times []float64) []float64

// Solver produces the closed-loop output for ref on times. closed is the
// unity-feedback transfer function built from cfg.
type Solver func(ctx context.Context, cfg Config, closed *lti.TransferFunction, times, ref []float64) (*dynamo.Result, error)

type Registry struct {
	inputs  map[InputType]InputBuilder
	methods map[Method]Solver
	plants  map[string]func() *lti.TransferFunction
	// factory hands loggers to the simulators the sampled method builds.
	factory logging.LoggerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		inputs:  make(map[InputType]InputBuilder),
		methods: make(map[Method]Solver),
		plants:  make(map[string]func() *lti.TransferFunction),
		factory: logs.Discard(),
	}

	r.inputs[Step] = func(cfg Config, times []float64) []float64 {
		return reference.BuildWith(cfg.profile(), times, cfg.Boundary)
	}
	r.inputs[Ramp] = func(cfg Config, times []float64) []float64 {
		return reference.Ramp(times, cfg.RampSlope)
	}
	r.inputs[Sinusoidal] = func(cfg Config, times []float64) []float64 {
		return reference.Sine(times, cfg.SineAmplitude, cfg.SineOmega)
	}

	r.methods[MethodLTI] = solveLTI
	r.methods[MethodSampled] = r.solveSampled

	r.plants["motor"] = lti.DefaultPlant
	r.plants["lag"] = func() *lti.TransferFunction { return lti.MustNew([]float64{1}, []float64{1, 1}) }
	r.plants["mass"] = func() *lti.TransferFunction { return lti.MustNew([]float64{1}, []float64{1, 0, 0}) }
	r.plants["resonant"] = func() *lti.TransferFunction { return lti.MustNew([]float64{1}, []float64{1, 0.4, 1}) }

	return r
}

func (r *Registry) GetInput(in InputType) (InputBuilder, error) {
	fn, ok := r.inputs[in]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInput, in)
	}
	return fn, nil
}

func (r *Registry) GetSolver(m Method) (Solver, error) {
	fn, ok := r.methods[m]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, m)
	}
	return fn, nil
}

// GetPlant returns a fresh copy of a named plant.
func (r *Registry) GetPlant(name string) (*lti.TransferFunction, error) {
	fn, ok := r.plants[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown plant: %s (available: %s)", name, strings.Join(r.ListPlants(), ", "))
	}
	return fn(), nil
}

func (r *Registry) ListPlants() []string {
	names := make([]string, 0, len(r.plants))
	for name := range r.plants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListInputs() []string {
	return []string{Step.String(), Ramp.String(), Sinusoidal.String()}
}

func (r *Registry) ListMethods() []string {
	return []string{string(MethodLTI), string(MethodSampled)}
}

func solveLTI(ctx context.Context, cfg Config, closed *lti.TransferFunction, times, ref []float64) (*dynamo.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ss, err := closed.StateSpace()
	if err != nil {
		return nil, fmt.Errorf("closed loop %s: %w", closed, err)
	}
	y, err := lti.ForcedResponse(ss, times, ref)
	if err != nil {
		return nil, err
	}
	if !dynamo.State(y).IsValid() {
		return nil, fmt.Errorf("%w: response overflowed", dynamo.ErrUnstable)
	}
	return &dynamo.Result{
		Times:      times,
		Reference:  ref,
		Output:     y,
		Metrics:    map[string]float64{},
		StepsTaken: len(times) - 1,
	}, nil
}

func (r *Registry) solveSampled(ctx context.Context, cfg Config, _ *lti.TransferFunction, times, ref []float64) (*dynamo.Result, error) {
	s, err := r.newSampledSim(cfg)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, nil, sim.Config{Reference: ref}, times)
}

// newSampledSim wires a fresh PID, integrator and metric set for cfg.
func (r *Registry) newSampledSim(cfg Config) (*sim.Simulator, error) {
	plant, err := cfg.plant().StateSpace()
	if err != nil {
		return nil, fmt.Errorf("plant %s: %w", cfg.plant(), err)
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	pid := control.NewPID(cfg.Gains.Kp, cfg.Gains.Ki, cfg.Gains.Kd)
	pid.IntegralLimit = cfg.IntegralLimit
	pid.OutputLimit = cfg.OutputLimit

	s := sim.New(plant, integ, pid, r.factory)
	s.AddMetric(metrics.NewControlEffort())
	s.AddMetric(metrics.NewPeakControl())
	if cfg.OutputLimit > 0 {
		s.AddMetric(metrics.NewSaturation(cfg.OutputLimit))
	}
	if cfg.Observer != nil {
		s.AddObserver(cfg.Observer)
	}
	return s, nil
}
