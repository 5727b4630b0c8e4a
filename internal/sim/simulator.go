package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/pion/logging"
	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/logs"
)

// substepCounter is implemented by integrators that split a sample interval
// into internal steps.
type substepCounter interface {
	Substeps() (accepted, rejected int)
}

// Simulator runs a controller against a plant on a sampled time grid. The
// controller output is held constant across each sample interval while the
// integrator advances the plant.
type Simulator struct {
	plant      dynamo.Measured
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	log        logging.LeveledLogger
}

// New assembles a simulator logging through f; nil falls back to the
// environment-configured default factory.
func New(plant dynamo.Measured, integrator dynamo.Integrator, controller dynamo.Controller, f logging.LoggerFactory) *Simulator {
	return &Simulator{
		plant:      plant,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		log:        logs.OrDefault(f).NewLogger(logs.ScopeSim),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run simulates from x0 (zero state when nil) over times. On a mid-run
// failure the partial result is returned alongside the error.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config, times []float64) (*dynamo.Result, error) {
	accepted, rejected := s.substeps()
	res, err := s.run(ctx, x0, cfg, times)

	var simErr *dynamo.SimulationError
	if errors.As(err, &simErr) {
		s.log.Warnf("run stopped: %v", simErr)
	}
	if res != nil {
		a, r := s.substeps()
		s.log.Tracef("%d samples, %d integrator steps (%d sub-steps accepted, %d rejected)",
			len(res.Times), res.StepsTaken, a-accepted, r-rejected)
	}
	return res, err
}

func (s *Simulator) substeps() (accepted, rejected int) {
	if c, ok := s.integrator.(substepCounter); ok {
		return c.Substeps()
	}
	return 0, 0
}

func (s *Simulator) run(ctx context.Context, x0 dynamo.State, cfg Config, times []float64) (*dynamo.Result, error) {
	if err := validateGrid(times); err != nil {
		return nil, err
	}
	if len(cfg.Reference) != len(times) {
		return nil, fmt.Errorf("%w: %d reference samples for %d times", dynamo.ErrDimensionMismatch, len(cfg.Reference), len(times))
	}

	n := s.plant.StateDim()
	x := make(dynamo.State, n)
	if x0 != nil {
		if len(x0) != n {
			return nil, fmt.Errorf("%w: initial state has %d elements, plant has %d", dynamo.ErrDimensionMismatch, len(x0), n)
		}
		copy(x, x0)
	}

	result := &dynamo.Result{
		Times:     make([]float64, 0, len(times)),
		Reference: make([]float64, 0, len(times)),
		Output:    make([]float64, 0, len(times)),
		Control:   make([]float64, 0, len(times)),
		Metrics:   make(map[string]float64),
	}
	if c, ok := s.controller.(dynamo.Configurable); ok {
		result.Controller = c.GetParams()
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	bound := cfg.divergence()
	held := 0.0

	for i, t := range times {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		y := s.plant.Output(x, held)
		r := cfg.Reference[i]
		u := s.controller.Compute(r, y, t)
		if len(u) > 0 {
			held = u[0]
		}

		sample := dynamo.Sample{Step: i, Time: t, Reference: r, Output: y, Control: u, State: x}
		for _, m := range s.metrics {
			m.Observe(sample)
		}
		for _, obs := range s.observers {
			obs.OnStep(sample)
		}

		result.Times = append(result.Times, t)
		result.Reference = append(result.Reference, r)
		result.Output = append(result.Output, y)
		result.Control = append(result.Control, held)

		if i == len(times)-1 {
			break
		}

		next := s.integrator.Step(s.plant, x, u, t, times[i+1]-t)
		if !next.IsValid() {
			return result, &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState}
		}
		if next.Norm() > bound {
			return result, &dynamo.SimulationError{Step: i, Time: t, State: next, Wrapped: dynamo.ErrUnstable}
		}
		x = next
		result.StepsTaken++
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func validateGrid(times []float64) error {
	if len(times) == 0 {
		return dynamo.ErrInvalidGrid
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: times[%d] = %v", dynamo.ErrInvalidGrid, i, t)
		}
		if i > 0 && t <= times[i-1] {
			return fmt.Errorf("%w: times[%d] = %v after %v", dynamo.ErrInvalidGrid, i, t, times[i-1])
		}
	}
	return nil
}
