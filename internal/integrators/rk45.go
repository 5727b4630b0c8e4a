package integrators

import (
	"errors"
	"math"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// ErrStepUnderflow is returned when the adaptive controller cannot meet the
// tolerance without shrinking the step below minStep.
var ErrStepUnderflow = errors.New("integrators: rk45 step size underflow")

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// fifth-order weights minus embedded fourth-order weights
	dpE = [7]float64{
		35.0/384 - 5179.0/57600,
		0,
		500.0/1113 - 7571.0/16695,
		125.0/192 - 393.0/640,
		-2187.0/6784 + 92097.0/339200,
		11.0/84 - 187.0/2100,
		-1.0 / 40,
	}
)

// RK45 is the adaptive Dormand-Prince method. Step integrates across the
// whole requested interval, taking as many internal sub-steps as the
// tolerance demands, so it can stand in for a fixed-step integrator on a
// sampled loop.
type RK45 struct {
	Tol      float64
	safety   float64
	minScale float64
	maxScale float64
	minStep  float64

	accepted int
	rejected int
}

func NewRK45() *RK45 {
	return &RK45{
		Tol:      1e-8,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
		minStep:  1e-12,
	}
}

func (r *RK45) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	elapsed := 0.0
	h := dt
	cur := x
	for elapsed < dt {
		last := false
		if elapsed+h >= dt {
			h = dt - elapsed
			last = true
		}
		next, suggested, err := r.StepAdaptive(sys, cur, u, t+elapsed, h, r.Tol)
		if err != nil {
			return next
		}
		if suggested < h {
			// rejected, retry with the smaller step
			r.rejected++
			h = suggested
			continue
		}
		r.accepted++
		cur = next
		if last {
			break
		}
		elapsed += h
		h = suggested
	}
	return cur
}

// Substeps reports the internal steps Step has accepted and rejected so far.
func (r *RK45) Substeps() (accepted, rejected int) {
	return r.accepted, r.rejected
}

// StepAdaptive attempts one step of size dt. When the error estimate is
// within tol the returned suggestion is at least dt; a suggestion below dt
// signals that the step was rejected and x is returned unchanged.
func (r *RK45) StepAdaptive(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, error) {
	n := len(x)
	var k [7]dynamo.State
	trial := make(dynamo.State, n)

	for s := 0; s < 7; s++ {
		for i := 0; i < n; i++ {
			acc := 0.0
			for j := 0; j < s; j++ {
				acc += dpA[s][j] * k[j][i]
			}
			trial[i] = x[i] + dt*acc
		}
		k[s] = sys.Derive(trial, u, t+dpC[s]*dt)
	}
	// row 6 of the tableau is the fifth-order solution, so trial holds it
	xNew := trial.Clone()

	errMax := 0.0
	for i := 0; i < n; i++ {
		est := 0.0
		for s := 0; s < 7; s++ {
			est += dpE[s] * k[s][i]
		}
		scale := tol * (1 + math.Max(math.Abs(x[i]), math.Abs(xNew[i])))
		errMax = math.Max(errMax, math.Abs(dt*est)/scale)
	}

	ratio := errMax
	if ratio > 1 {
		shrink := math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25))
		if dt*shrink < r.minStep {
			return xNew, dt, ErrStepUnderflow
		}
		return x, dt * shrink, nil
	}
	grow := r.maxScale
	if ratio > 0 {
		grow = math.Min(r.maxScale, math.Max(1, r.safety*math.Pow(ratio, -0.2)))
	}
	return xNew, dt * grow, nil
}
