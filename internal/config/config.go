package config

import (
	"fmt"
	"os"

	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/reference"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPlant    = "motor"
	DefaultDataDir  = "data"
	DefaultLogLevel = "error"
)

// Config is the on-disk form of a run. Zero-valued fields fall back to
// DefaultConfig when loaded.
type Config struct {
	Input      string            `yaml:"input"`
	Method     string            `yaml:"method"`
	Integrator string            `yaml:"integrator"`
	Plant      string            `yaml:"plant"`
	Duration   float64           `yaml:"duration"`
	Samples    int               `yaml:"samples"`
	Boundary   string            `yaml:"boundary"`
	Gains      experiment.Gains  `yaml:"gains"`
	Ramp       RampConfig        `yaml:"ramp"`
	Sine       SineConfig        `yaml:"sine"`
	Limits     LimitConfig       `yaml:"limits"`
	Profile    []reference.Point `yaml:"profile,omitempty"`
	DataDir    string            `yaml:"data_dir"`
	LogLevel   string            `yaml:"log_level"`
}

type RampConfig struct {
	Slope float64 `yaml:"slope"`
}

type SineConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Omega     float64 `yaml:"omega"`
}

type LimitConfig struct {
	Integral float64 `yaml:"integral"`
	Output   float64 `yaml:"output"`
}

func DefaultConfig() *Config {
	return &Config{
		Input:      "step",
		Method:     string(experiment.MethodLTI),
		Integrator: experiment.DefaultIntegrator,
		Plant:      DefaultPlant,
		Duration:   experiment.DefaultDuration,
		Samples:    experiment.DefaultSamples,
		Boundary:   reference.Strict.String(),
		Gains:      experiment.DefaultGains(),
		Ramp:       RampConfig{Slope: experiment.DefaultRampSlope},
		Sine: SineConfig{
			Amplitude: experiment.DefaultSineAmplitude,
			Omega:     experiment.DefaultSineOmega,
		},
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	cp.Profile = append([]reference.Point(nil), c.Profile...)
	return &cp
}

// Experiment resolves names against reg and returns a validated run config.
func (c *Config) Experiment(reg *experiment.Registry) (experiment.Config, error) {
	out := experiment.DefaultConfig()

	in, err := experiment.ParseInput(c.Input)
	if err != nil {
		return out, err
	}
	method, err := experiment.ParseMethod(c.Method)
	if err != nil {
		return out, err
	}
	boundary, err := reference.ParseBoundary(c.Boundary)
	if err != nil {
		return out, err
	}
	plant, err := reg.GetPlant(c.Plant)
	if err != nil {
		return out, err
	}

	out.Gains = c.Gains
	out.Input = in
	out.Method = method
	out.Integrator = c.Integrator
	out.Plant = plant
	out.Duration = c.Duration
	out.Samples = c.Samples
	out.Boundary = boundary
	out.RampSlope = c.Ramp.Slope
	out.SineAmplitude = c.Sine.Amplitude
	out.SineOmega = c.Sine.Omega
	out.IntegralLimit = c.Limits.Integral
	out.OutputLimit = c.Limits.Output

	if len(c.Profile) > 0 {
		p, err := reference.NewProfile(c.Profile...)
		if err != nil {
			return out, err
		}
		out.Profile = p
	}

	return out, out.Validate()
}
