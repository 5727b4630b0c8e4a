package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Norm is the Euclidean norm.
func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// AddScaled returns s + k*other; missing elements of other count as zero.
func (s State) AddScaled(other State, k float64) State {
	out := make(State, len(s))
	for i := range s {
		out[i] = s[i]
		if i < len(other) {
			out[i] += k * other[i]
		}
	}
	return out
}

func (s State) Sub(other State) State {
	return s.AddScaled(other, -1)
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Measured is a System with an output map y = h(x, u).
type Measured interface {
	System
	Output(x State, u float64) float64
}

type Integrator interface {
	Step(sys System, x State, u Control, t, dt float64) State
}

// Controller maps the reference r and measured output y at time t to the
// plant input.
type Controller interface {
	Compute(r, y, t float64) Control
}

// Sample is everything known about the loop at one grid point.
type Sample struct {
	Step      int
	Time      float64
	Reference float64
	Output    float64
	Control   Control
	State     State
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Observer sees every sample in order, after the metrics.
type Observer interface {
	OnStep(s Sample)
}

// Configurable controllers report their parameters and accept changes by
// name.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Result holds traces aligned index-for-index with Times.
type Result struct {
	Times      []float64          `json:"times"`
	Reference  []float64          `json:"reference"`
	Output     []float64          `json:"output"`
	Control    []float64          `json:"control,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
	StepsTaken int                `json:"steps"`
	// Controller holds the parameters of a Configurable controller.
	Controller map[string]float64 `json:"controller,omitempty"`
}
