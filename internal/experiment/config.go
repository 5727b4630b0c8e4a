package experiment

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/lti"
	"github.com/san-kum/pidsim/internal/reference"
)

// Defaults reproduce the classic lab setup: 30 s horizon sampled 3000 times,
// plant 1/(s^2+s), gains 5/2/0.5.
const (
	DefaultKp            = 5.0
	DefaultKi            = 2.0
	DefaultKd            = 0.5
	DefaultDuration      = 30.0
	DefaultSamples       = 3000
	DefaultRampSlope     = 1.0
	DefaultSineAmplitude = 0.5
	DefaultSineOmega     = 0.8
	DefaultIntegrator    = "rk4"
)

var (
	ErrUnknownInput  = errors.New("experiment: unknown input type")
	ErrUnknownMethod = errors.New("experiment: unknown method")
	ErrInvalidGains  = errors.New("experiment: gains must be finite numbers")
	ErrInvalidConfig = errors.New("experiment: invalid config")
)

// InputType selects the reference signal driving the loop.
type InputType int

const (
	Step InputType = iota
	Ramp
	Sinusoidal
)

var inputNames = map[InputType]string{
	Step:       "step",
	Ramp:       "ramp",
	Sinusoidal: "sinusoidal",
}

func (in InputType) String() string {
	if name, ok := inputNames[in]; ok {
		return name
	}
	return fmt.Sprintf("input(%d)", int(in))
}

// Title is the display form used in chart captions.
func (in InputType) Title() string {
	s := in.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseInput is case-insensitive and also accepts "sine".
func ParseInput(s string) (InputType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "step":
		return Step, nil
	case "ramp":
		return Ramp, nil
	case "sinusoidal", "sine":
		return Sinusoidal, nil
	}
	return Step, fmt.Errorf("%w: %q (want step|ramp|sinusoidal)", ErrUnknownInput, s)
}

func (in InputType) MarshalText() ([]byte, error) {
	if _, ok := inputNames[in]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownInput, int(in))
	}
	return []byte(in.String()), nil
}

func (in *InputType) UnmarshalText(b []byte) error {
	v, err := ParseInput(string(b))
	if err != nil {
		return err
	}
	*in = v
	return nil
}

// Method selects how the closed loop is solved.
type Method string

const (
	// MethodLTI solves T(s) exactly on the grid with a first-order hold.
	MethodLTI Method = "lti"
	// MethodSampled runs a discrete PID against the integrated plant.
	MethodSampled Method = "sampled"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodLTI, MethodSampled:
		return m, nil
	case "":
		return MethodLTI, nil
	}
	return "", fmt.Errorf("%w: %q (want lti|sampled)", ErrUnknownMethod, s)
}

type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"`
	Ki float64 `yaml:"ki" json:"ki"`
	Kd float64 `yaml:"kd" json:"kd"`
}

func DefaultGains() Gains {
	return Gains{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd}
}

func (g Gains) Validate() error {
	for _, v := range []float64{g.Kp, g.Ki, g.Kd} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: Kp=%v Ki=%v Kd=%v", ErrInvalidGains, g.Kp, g.Ki, g.Kd)
		}
	}
	return nil
}

func (g Gains) String() string {
	return fmt.Sprintf("Kp=%g Ki=%g Kd=%g", g.Kp, g.Ki, g.Kd)
}

// Config describes one simulation. It is a plain value; Run never mutates it.
type Config struct {
	Gains      Gains
	Input      InputType
	Duration   float64
	Samples    int
	Method     Method
	Integrator string

	// Profile drives the step input; nil means reference.DefaultProfile.
	Profile  *reference.Profile
	Boundary reference.Boundary

	RampSlope     float64
	SineAmplitude float64
	SineOmega     float64

	// Plant defaults to 1/(s^2+s) when nil.
	Plant *lti.TransferFunction

	// Sampled-method actuator limits; zero disables them.
	IntegralLimit float64
	OutputLimit   float64

	// Observer sees every sample of a sampled-method run. Tune drops it
	// since its runs are concurrent.
	Observer dynamo.Observer
}

func DefaultConfig() Config {
	return Config{
		Gains:         DefaultGains(),
		Input:         Step,
		Duration:      DefaultDuration,
		Samples:       DefaultSamples,
		Method:        MethodLTI,
		Integrator:    DefaultIntegrator,
		Boundary:      reference.Strict,
		RampSlope:     DefaultRampSlope,
		SineAmplitude: DefaultSineAmplitude,
		SineOmega:     DefaultSineOmega,
	}
}

func (c Config) Validate() error {
	if err := c.Gains.Validate(); err != nil {
		return err
	}
	if _, ok := inputNames[c.Input]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownInput, int(c.Input))
	}
	if c.Method != MethodLTI && c.Method != MethodSampled {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, c.Method)
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidConfig, c.Duration)
	}
	if c.Samples < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidConfig, c.Samples)
	}
	if c.IntegralLimit < 0 || c.OutputLimit < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) plant() *lti.TransferFunction {
	if c.Plant != nil {
		return c.Plant
	}
	return lti.DefaultPlant()
}

func (c Config) profile() *reference.Profile {
	if c.Profile != nil {
		return c.Profile
	}
	return reference.DefaultProfile()
}

// captionNames keep the short lowercase labels of the lab plots.
var captionNames = map[InputType]string{
	Step:       "step",
	Ramp:       "ramp",
	Sinusoidal: "sin",
}

// Caption is the chart title, e.g. "PID Control Response to step  Kp=5 Ki=2 Kd=0.5".
func (c Config) Caption() string {
	name, ok := captionNames[c.Input]
	if !ok {
		name = c.Input.String()
	}
	return fmt.Sprintf("PID Control Response to %s  %s", name, c.Gains)
}
