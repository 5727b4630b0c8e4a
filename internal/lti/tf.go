package lti

import (
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// TransferFunction is Num(s)/Den(s) with coefficients in descending powers.
type TransferFunction struct {
	Num []float64
	Den []float64
}

// New validates and normalizes the coefficient slices.
func New(num, den []float64) (*TransferFunction, error) {
	if len(den) == 0 || isZero(den) {
		return nil, ErrZeroDenominator
	}
	if len(num) == 0 {
		num = []float64{0}
	}
	return &TransferFunction{Num: trim(num), Den: trim(den)}, nil
}

// MustNew is New for constant coefficients.
func MustNew(num, den []float64) *TransferFunction {
	tf, err := New(num, den)
	if err != nil {
		panic(err)
	}
	return tf
}

// Gain is the static transfer function k.
func Gain(k float64) *TransferFunction {
	return &TransferFunction{Num: []float64{k}, Den: []float64{1}}
}

// DefaultPlant is the double integrator with damping, 1 / (s^2 + s).
func DefaultPlant() *TransferFunction {
	return MustNew([]float64{1}, []float64{1, 1, 0})
}

// PID is the ideal parallel controller (kd s^2 + kp s + ki) / s. Without
// integral action the pole at the origin cancels and kd s + kp is returned.
func PID(kp, ki, kd float64) *TransferFunction {
	if ki == 0 {
		return MustNew([]float64{kd, kp}, []float64{1})
	}
	return MustNew([]float64{kd, kp, ki}, []float64{1, 0})
}

// ClosedLoop returns the unity-feedback loop around PID(kp, ki, kd) and plant.
func ClosedLoop(kp, ki, kd float64, plant *TransferFunction) *TransferFunction {
	return UnityFeedback(PID(kp, ki, kd).Mul(plant))
}

// Mul is the series connection g*h. No pole-zero cancellation is attempted.
func (g *TransferFunction) Mul(h *TransferFunction) *TransferFunction {
	return &TransferFunction{
		Num: polyMul(g.Num, h.Num),
		Den: polyMul(g.Den, h.Den),
	}
}

// Add is the parallel connection g+h.
func (g *TransferFunction) Add(h *TransferFunction) *TransferFunction {
	return &TransferFunction{
		Num: polyAdd(polyMul(g.Num, h.Den), polyMul(h.Num, g.Den)),
		Den: polyMul(g.Den, h.Den),
	}
}

// Feedback closes g with h in the return path: g / (1 - sign*g*h).
// sign = -1 is negative feedback.
func Feedback(g, h *TransferFunction, sign float64) *TransferFunction {
	return &TransferFunction{
		Num: polyMul(g.Num, h.Den),
		Den: polyAdd(polyMul(g.Den, h.Den), polyScale(polyMul(g.Num, h.Num), -sign)),
	}
}

// UnityFeedback is Feedback(g, 1, -1).
func UnityFeedback(g *TransferFunction) *TransferFunction {
	return Feedback(g, Gain(1), -1)
}

// Order is the degree of the denominator.
func (g *TransferFunction) Order() int { return len(g.Den) - 1 }

// Proper reports whether deg(Num) <= deg(Den).
func (g *TransferFunction) Proper() bool { return len(g.Num) <= len(g.Den) }

// Eval evaluates the transfer function at a complex frequency.
func (g *TransferFunction) Eval(s complex128) complex128 {
	return polyEval(g.Num, s) / polyEval(g.Den, s)
}

// FrequencyResponse returns |G(jw)| and arg G(jw) in radians.
func (g *TransferFunction) FrequencyResponse(omega float64) (mag, phase float64) {
	v := g.Eval(complex(0, omega))
	return cmplx.Abs(v), cmplx.Phase(v)
}

// DCGain is G(0); +Inf when the denominator vanishes at s = 0.
func (g *TransferFunction) DCGain() float64 {
	d := g.Den[len(g.Den)-1]
	if d == 0 {
		return math.Inf(1)
	}
	return g.Num[len(g.Num)-1] / d
}

// Poles are the roots of the denominator.
func (g *TransferFunction) Poles() []complex128 { return roots(g.Den) }

// Zeros are the roots of the numerator.
func (g *TransferFunction) Zeros() []complex128 { return roots(g.Num) }

// roots returns the eigenvalues of the companion matrix of p, or nil when
// the factorization fails.
func roots(p []float64) []complex128 {
	n := len(p) - 1
	if n <= 0 {
		return nil
	}
	comp := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		comp.Set(0, j, -p[j+1]/p[0])
	}
	for i := 1; i < n; i++ {
		comp.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(comp, mat.EigenNone); !ok {
		return nil
	}
	return eig.Values(nil)
}

// Stable reports whether every pole lies strictly in the left half plane.
func (g *TransferFunction) Stable() bool {
	poles := g.Poles()
	if g.Order() > 0 && poles == nil {
		return false
	}
	for _, p := range poles {
		if real(p) >= 0 {
			return false
		}
	}
	return true
}

func (g *TransferFunction) String() string {
	return wrap(polyString(g.Num)) + " / " + wrap(polyString(g.Den))
}

func wrap(s string) string {
	if strings.Contains(s, " + ") || strings.Contains(s, " - ") {
		return "(" + s + ")"
	}
	return s
}
