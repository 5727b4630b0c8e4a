package experiment

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/pidsim/internal/control"
	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/reference"
	"github.com/san-kum/pidsim/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario is a YAML batch of runs sharing defaults:
//
//	name: gain comparison
//	defaults: {input: step, duration: 30}
//	runs:
//	  - {name: baseline, kp: 5, ki: 2, kd: 0.5}
//	  - {name: aggressive, kp: 20, ki: 8, kd: 2, input: ramp}
//	  - {name: clamped, method: sampled, params: {OutputLimit: 10}}
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Defaults    ScenarioRun   `yaml:"defaults"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun fields left unset inherit from the scenario defaults, then
// from DefaultConfig.
type ScenarioRun struct {
	Name       string            `yaml:"name"`
	Kp         *float64          `yaml:"kp"`
	Ki         *float64          `yaml:"ki"`
	Kd         *float64          `yaml:"kd"`
	Input      string            `yaml:"input"`
	Method     string            `yaml:"method"`
	Integrator string            `yaml:"integrator"`
	Plant      string            `yaml:"plant"`
	Duration   float64           `yaml:"duration"`
	Samples    int               `yaml:"samples"`
	Boundary   string            `yaml:"boundary"`
	Profile    []reference.Point `yaml:"profile"`
	// Params sets PID parameters by name (Kp, Ki, Kd, IntegralLimit,
	// OutputLimit) after the fields above.
	Params map[string]float64 `yaml:"params"`
	Save   bool               `yaml:"save"`
}

type BatchResult struct {
	Name   string
	Save   bool
	Config Config
	Result *Result
	Err    error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Runs) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no runs", ErrInvalidConfig, sc.Name)
	}
	return &sc, nil
}

// Configs resolves every run against the defaults.
func (s *Scenario) Configs(reg *Registry) ([]Config, error) {
	base, err := s.Defaults.apply(DefaultConfig(), reg)
	if err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	out := make([]Config, len(s.Runs))
	for i, run := range s.Runs {
		cfg, err := run.apply(base, reg)
		if err != nil {
			return nil, fmt.Errorf("run %d (%s): %w", i+1, run.Name, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("run %d (%s): %w", i+1, run.Name, err)
		}
		out[i] = cfg
	}
	return out, nil
}

func (r ScenarioRun) apply(cfg Config, reg *Registry) (Config, error) {
	if r.Kp != nil {
		cfg.Gains.Kp = *r.Kp
	}
	if r.Ki != nil {
		cfg.Gains.Ki = *r.Ki
	}
	if r.Kd != nil {
		cfg.Gains.Kd = *r.Kd
	}
	if r.Input != "" {
		in, err := ParseInput(r.Input)
		if err != nil {
			return cfg, err
		}
		cfg.Input = in
	}
	if r.Method != "" {
		m, err := ParseMethod(r.Method)
		if err != nil {
			return cfg, err
		}
		cfg.Method = m
	}
	if r.Integrator != "" {
		cfg.Integrator = r.Integrator
	}
	if r.Plant != "" {
		p, err := reg.GetPlant(r.Plant)
		if err != nil {
			return cfg, err
		}
		cfg.Plant = p
	}
	if r.Duration > 0 {
		cfg.Duration = r.Duration
	}
	if r.Samples > 0 {
		cfg.Samples = r.Samples
	}
	if r.Boundary != "" {
		b, err := reference.ParseBoundary(r.Boundary)
		if err != nil {
			return cfg, err
		}
		cfg.Boundary = b
	}
	if len(r.Profile) > 0 {
		p, err := reference.NewProfile(r.Profile...)
		if err != nil {
			return cfg, err
		}
		cfg.Profile = p
	}
	if len(r.Params) > 0 {
		return applyParams(cfg, r.Params)
	}
	return cfg, nil
}

// applyParams routes named parameters through the PID so unknown names and
// non-finite values are rejected the same way a live controller would.
func applyParams(cfg Config, params map[string]float64) (Config, error) {
	pid := control.NewPID(cfg.Gains.Kp, cfg.Gains.Ki, cfg.Gains.Kd)
	pid.IntegralLimit = cfg.IntegralLimit
	pid.OutputLimit = cfg.OutputLimit
	if err := setParams(pid, params); err != nil {
		return cfg, err
	}

	p := pid.GetParams()
	cfg.Gains = Gains{Kp: p["Kp"], Ki: p["Ki"], Kd: p["Kd"]}
	cfg.IntegralLimit = p["IntegralLimit"]
	cfg.OutputLimit = p["OutputLimit"]
	return cfg, nil
}

func setParams(c dynamo.Configurable, params map[string]float64) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.SetParam(name, params[name]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Batch runs every scenario entry concurrently. A failing run is reported in
// its BatchResult and does not stop the others.
func (r *Runner) Batch(ctx context.Context, sc *Scenario, workers int) ([]BatchResult, error) {
	cfgs, err := sc.Configs(r.registry)
	if err != nil {
		return nil, err
	}

	out := make([]BatchResult, len(cfgs))
	sim.ParallelFor(len(cfgs), workers, func(start, end int) {
		for i := start; i < end; i++ {
			run := sc.Runs[i]
			name := run.Name
			if name == "" {
				name = fmt.Sprintf("run-%d", i+1)
			}
			res, err := r.Run(ctx, cfgs[i])
			out[i] = BatchResult{Name: name, Save: run.Save, Config: cfgs[i], Result: res, Err: err}
			if err != nil {
				r.log.Warnf("batch %q run %s failed: %v", sc.Name, name, err)
			}
		}
	})
	return out, ctx.Err()
}
