package integrators

import "github.com/san-kum/pidsim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta method. The stage buffers
// are reused between calls, so one RK4 must not be shared across goroutines.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	trial          dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) grow(n int) {
	if len(r.trial) == n {
		return
	}
	r.k1 = make(dynamo.State, n)
	r.k2 = make(dynamo.State, n)
	r.k3 = make(dynamo.State, n)
	r.k4 = make(dynamo.State, n)
	r.trial = make(dynamo.State, n)
}

// stage evaluates the derivative at x + h*k, storing it in dst.
func (r *RK4) stage(dst dynamo.State, sys dynamo.System, x, k dynamo.State, u dynamo.Control, t, h float64) {
	for i := range x {
		r.trial[i] = x[i]
		if k != nil {
			r.trial[i] += h * k[i]
		}
	}
	copy(dst, sys.Derive(r.trial, u, t))
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.grow(len(x))

	half := 0.5 * dt
	r.stage(r.k1, sys, x, nil, u, t, 0)
	r.stage(r.k2, sys, x, r.k1, u, t+half, half)
	r.stage(r.k3, sys, x, r.k2, u, t+half, half)
	r.stage(r.k4, sys, x, r.k3, u, t+dt, dt)

	next := make(dynamo.State, len(x))
	w := dt / 6.0
	for i := range x {
		next[i] = x[i] + w*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return next
}
