package control

import (
	"math"
	"testing"

	"github.com/san-kum/pidsim/internal/dynamo"
)

var _ dynamo.Controller = (*PID)(nil)
var _ dynamo.Configurable = (*PID)(nil)

func TestPIDProportionalOnFirstSample(t *testing.T) {
	p := NewPID(5, 2, 0.5)
	u := p.Compute(1, 0, 0)
	if u[0] != 5 {
		t.Errorf("first sample u = %v, want 5", u[0])
	}
}

func TestPIDIntegralAndDerivative(t *testing.T) {
	p := NewPID(0, 1, 0)
	p.Compute(1, 0, 0)
	u := p.Compute(1, 0, 0.5)
	if math.Abs(u[0]-0.5) > 1e-12 {
		t.Errorf("integral after 0.5s of unit error = %v, want 0.5", u[0])
	}

	d := NewPID(0, 0, 2)
	d.Compute(1, 0, 0)
	u = d.Compute(1, 0.5, 0.1)
	// error fell from 1 to 0.5 over 0.1s
	if math.Abs(u[0]+10) > 1e-9 {
		t.Errorf("derivative term = %v, want -10", u[0])
	}
}

func TestPIDLimits(t *testing.T) {
	p := NewPID(0, 1, 0)
	p.IntegralLimit = 0.25
	var u dynamo.Control
	for i := 0; i < 10; i++ {
		u = p.Compute(1, 0, float64(i))
	}
	if u[0] != 0.25 {
		t.Errorf("integral term = %v, want clamped 0.25", u[0])
	}

	q := NewPID(100, 0, 0)
	q.OutputLimit = 3
	if u := q.Compute(-1, 0, 0); u[0] != -3 {
		t.Errorf("u = %v, want -3", u[0])
	}
}

func TestPIDReset(t *testing.T) {
	p := NewPID(1, 1, 1)
	p.Compute(1, 0, 0)
	p.Compute(1, 0, 1)
	p.Reset()
	if u := p.Compute(2, 0, 5); u[0] != 2 {
		t.Errorf("after reset the first sample is proportional only, got %v", u[0])
	}
}

func TestPIDParams(t *testing.T) {
	p := NewPID(5, 2, 0.5)
	if err := p.SetParam("Kd", 1.5); err != nil {
		t.Fatal(err)
	}
	if got := p.GetParams()["Kd"]; got != 1.5 {
		t.Errorf("Kd = %v, want 1.5", got)
	}
	if err := p.SetParam("Target", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if err := p.SetParam("Kp", math.NaN()); err == nil {
		t.Error("expected error for NaN gain")
	}

	if err := p.SetParam("OutputLimit", 2); err != nil {
		t.Fatal(err)
	}
	if u := p.Compute(10, 0, 0); u[0] != 2 {
		t.Errorf("u = %v, want OutputLimit 2 applied", u[0])
	}
	if got := p.GetParams(); len(got) != 5 || got["OutputLimit"] != 2 {
		t.Errorf("GetParams = %v", got)
	}
}
