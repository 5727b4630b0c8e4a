package lti

import (
	"github.com/san-kum/pidsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// StateSpace is a SISO realization x' = A x + B u, y = C x + D u.
// A, B and C are nil for a static gain (order zero).
type StateSpace struct {
	A *mat.Dense
	B *mat.Dense
	C *mat.Dense
	D float64
	n int
}

// StateSpace returns the controllable canonical realization.
func (g *TransferFunction) StateSpace() (*StateSpace, error) {
	if !g.Proper() {
		return nil, ErrImproper
	}

	n := g.Order()
	lead := g.Den[0]
	a := make([]float64, n+1)
	for i, c := range g.Den {
		a[i] = c / lead
	}
	b := make([]float64, n+1)
	off := n + 1 - len(g.Num)
	for i, c := range g.Num {
		b[off+i] = c / lead
	}

	ss := &StateSpace{D: b[0], n: n}
	if n == 0 {
		return ss, nil
	}

	ss.A = mat.NewDense(n, n, nil)
	ss.B = mat.NewDense(n, 1, nil)
	ss.C = mat.NewDense(1, n, nil)
	for j := 0; j < n; j++ {
		ss.A.Set(0, j, -a[j+1])
		ss.C.Set(0, j, b[j+1]-a[j+1]*b[0])
	}
	for i := 1; i < n; i++ {
		ss.A.Set(i, i-1, 1)
	}
	ss.B.Set(0, 0, 1)

	return ss, nil
}

// StateDim is the number of states.
func (ss *StateSpace) StateDim() int { return ss.n }

// ControlDim is always one.
func (ss *StateSpace) ControlDim() int { return 1 }

// Derive evaluates A x + B u so the realization can be integrated directly.
func (ss *StateSpace) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, ss.n)
	in := 0.0
	if len(u) > 0 {
		in = u[0]
	}
	for i := 0; i < ss.n; i++ {
		acc := ss.B.At(i, 0) * in
		for j := 0; j < ss.n; j++ {
			acc += ss.A.At(i, j) * x[j]
		}
		dx[i] = acc
	}
	return dx
}

// Output evaluates C x + D u.
func (ss *StateSpace) Output(x dynamo.State, u float64) float64 {
	y := ss.D * u
	for j := 0; j < ss.n; j++ {
		y += ss.C.At(0, j) * x[j]
	}
	return y
}
