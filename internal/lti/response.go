package lti

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ForcedResponse simulates ss from a zero initial state driven by u sampled
// on times, treating u as piecewise linear between samples (first-order
// hold). The returned slice is aligned with times.
func ForcedResponse(ss *StateSpace, times, u []float64) ([]float64, error) {
	if len(times) != len(u) {
		return nil, ErrLengthMismatch
	}
	y := make([]float64, len(times))
	if len(times) == 0 {
		return y, nil
	}
	if ss.n == 0 {
		for i := range u {
			y[i] = ss.D * u[i]
		}
		return y, nil
	}

	y[0] = ss.D * u[0]
	if len(times) == 1 {
		return y, nil
	}

	dt, err := uniformStep(times)
	if err != nil {
		return nil, err
	}

	ad, bd0, bd1 := discretize(ss, dt)

	n := ss.n
	x := mat.NewVecDense(n, nil)
	next := mat.NewVecDense(n, nil)
	for k := 1; k < len(times); k++ {
		next.MulVec(ad, x)
		next.AddScaledVec(next, u[k-1], bd0)
		next.AddScaledVec(next, u[k], bd1)
		x.CopyVec(next)
		y[k] = mat.Dot(ss.C.RowView(0), x) + ss.D*u[k]
	}

	return y, nil
}

// discretize returns Ad, Bd0 and Bd1 from the exponential of the augmented
// matrix [[A dt, B dt, 0], [0, 0, 1], [0, 0, 0]].
func discretize(ss *StateSpace, dt float64) (*mat.Dense, *mat.VecDense, *mat.VecDense) {
	n := ss.n
	m := mat.NewDense(n+2, n+2, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, ss.A.At(i, j)*dt)
		}
		m.Set(i, n, ss.B.At(i, 0)*dt)
	}
	m.Set(n, n+1, 1)

	var e mat.Dense
	e.Exp(m)

	ad := mat.DenseCopyOf(e.Slice(0, n, 0, n))
	bd0 := mat.NewVecDense(n, nil)
	bd1 := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		b1 := e.At(i, n+1)
		bd1.SetVec(i, b1)
		bd0.SetVec(i, e.At(i, n)-b1)
	}
	return ad, bd0, bd1
}

func uniformStep(times []float64) (float64, error) {
	dt := times[1] - times[0]
	if !(dt > 0) {
		return 0, ErrNonUniformGrid
	}
	for i := 2; i < len(times); i++ {
		d := times[i] - times[i-1]
		if math.Abs(d-dt) > 1e-8+1e-5*math.Abs(dt) {
			return 0, ErrNonUniformGrid
		}
	}
	return dt, nil
}
