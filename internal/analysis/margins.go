package analysis

import (
	"math"

	"github.com/san-kum/pidsim/internal/lti"
)

// Sweep is a logarithmic frequency grid in rad/s.
type Sweep struct {
	Min, Max float64
	Points   int
}

func DefaultSweep() Sweep {
	return Sweep{Min: 1e-3, Max: 1e3, Points: 2000}
}

func (s Sweep) omegas() []float64 {
	n := max(s.Points, 2)
	lo, hi := math.Log10(s.Min), math.Log10(s.Max)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Pow(10, lo+(hi-lo)*float64(i)/float64(n-1))
	}
	return out
}

type BodePoint struct {
	Omega     float64 `json:"omega"`
	Magnitude float64 `json:"magnitude_db"`
	Phase     float64 `json:"phase_deg"`
}

// Bode evaluates g along the sweep. The phase is continuous in omega.
func Bode(g *lti.TransferFunction, s Sweep) []BodePoint {
	ph := newPhase(g)
	ws := s.omegas()
	out := make([]BodePoint, len(ws))
	for i, w := range ws {
		mag, _ := g.FrequencyResponse(w)
		out[i] = BodePoint{Omega: w, Magnitude: 20 * math.Log10(mag), Phase: ph.at(w)}
	}
	return out
}

// Margins of an open loop. A margin that has no crossover inside the sweep
// is +Inf and its crossover frequency is zero.
type Margins struct {
	GainMargin     float64 `json:"gain_margin_db"`
	PhaseMargin    float64 `json:"phase_margin_deg"`
	GainCrossover  float64 `json:"gain_crossover"`
	PhaseCrossover float64 `json:"phase_crossover"`
}

func ComputeMargins(open *lti.TransferFunction, s Sweep) Margins {
	m := Margins{GainMargin: math.Inf(1), PhaseMargin: math.Inf(1)}
	ph := newPhase(open)
	pts := Bode(open, s)

	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]

		if m.GainCrossover == 0 && crosses(a.Magnitude, b.Magnitude, 0) {
			w := interpLog(a.Omega, b.Omega, a.Magnitude, b.Magnitude, 0)
			m.GainCrossover = w
			m.PhaseMargin = 180 + ph.at(w)
		}
		if m.PhaseCrossover == 0 && crosses(a.Phase, b.Phase, -180) {
			w := interpLog(a.Omega, b.Omega, a.Phase, b.Phase, -180)
			mag, _ := open.FrequencyResponse(w)
			m.PhaseCrossover = w
			m.GainMargin = -20 * math.Log10(mag)
		}
	}
	return m
}

func crosses(a, b, level float64) bool {
	return (a-level)*(b-level) <= 0 && a != b
}

// interpLog finds where y reaches level between two samples, linear in log w.
func interpLog(w0, w1, y0, y1, level float64) float64 {
	f := (level - y0) / (y1 - y0)
	return math.Pow(10, math.Log10(w0)+f*(math.Log10(w1)-math.Log10(w0)))
}

// phase sums the angle contributed by every zero and pole so the result
// never wraps.
type phase struct {
	offset float64
	zeros  []complex128
	poles  []complex128
}

func newPhase(g *lti.TransferFunction) phase {
	p := phase{zeros: g.Zeros(), poles: g.Poles()}
	if g.Num[0]*g.Den[0] < 0 {
		p.offset = -180
	}
	return p
}

func (p phase) at(w float64) float64 {
	sum := p.offset
	for _, z := range p.zeros {
		sum += angle(w, z)
	}
	for _, q := range p.poles {
		sum -= angle(w, q)
	}
	return sum
}

// angle is arg(jw - r) in degrees.
func angle(w float64, r complex128) float64 {
	return math.Atan2(w-imag(r), -real(r)) * 180 / math.Pi
}
