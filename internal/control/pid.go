package control

import (
	"fmt"
	"math"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// PID acts on e = r - y. The integral uses the rectangle rule over the
// interval since the previous sample and the derivative is the backward
// difference of the error, zero on the first sample.
type PID struct {
	Kp float64
	Ki float64
	Kd float64

	// IntegralLimit clamps |integral| when positive.
	IntegralLimit float64
	// OutputLimit clamps |u| when positive.
	OutputLimit float64

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

func (p *PID) Compute(r, y, t float64) dynamo.Control {
	e := r - y

	if p.first {
		p.first = false
		p.prevErr = e
		p.prevT = t
		return dynamo.Control{p.limit(p.Kp*e + p.Ki*p.integral)}
	}

	dt := t - p.prevT
	derivative := 0.0
	if dt > 0 {
		p.integral += p.prevErr * dt
		if p.IntegralLimit > 0 {
			p.integral = clamp(p.integral, p.IntegralLimit)
		}
		derivative = (e - p.prevErr) / dt
	}
	p.prevErr = e
	p.prevT = t

	return dynamo.Control{p.limit(p.Kp*e + p.Ki*p.integral + p.Kd*derivative)}
}

func (p *PID) limit(u float64) float64 {
	if p.OutputLimit > 0 {
		return clamp(u, p.OutputLimit)
	}
	return u
}

func clamp(v, bound float64) float64 {
	return math.Max(-bound, math.Min(bound, v))
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}

// GetParams returns the gains and limits keyed as SetParam expects them.
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":            p.Kp,
		"Ki":            p.Ki,
		"Kd":            p.Kd,
		"IntegralLimit": p.IntegralLimit,
		"OutputLimit":   p.OutputLimit,
	}
}

// SetParam adjusts one gain or limit. Values must be finite.
func (p *PID) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("control: %s must be finite, got %v", name, value)
	}
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "IntegralLimit":
		p.IntegralLimit = value
	case "OutputLimit":
		p.OutputLimit = value
	default:
		return fmt.Errorf("control: unknown PID parameter %q", name)
	}
	return nil
}
