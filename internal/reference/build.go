package reference

import (
	"fmt"
	"strings"
)

// Boundary selects when a threshold counts as crossed.
type Boundary int

const (
	// Strict crosses a threshold k once k < t.
	Strict Boundary = iota
	// Inclusive crosses a threshold k once k <= t.
	Inclusive
)

func (b Boundary) crossed(k, t float64) bool {
	if b == Inclusive {
		return k <= t
	}
	return k < t
}

func (b Boundary) String() string {
	if b == Inclusive {
		return "inclusive"
	}
	return "strict"
}

// ParseBoundary accepts "strict" or "inclusive".
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "inclusive":
		return Inclusive, nil
	}
	return Strict, fmt.Errorf("reference: unknown boundary %q", s)
}

// Build samples the profile at every timestamp using the strict policy.
func Build(p *Profile, times []float64) []float64 {
	return BuildWith(p, times, Strict)
}

// BuildWith samples the profile at every timestamp. Each output element
// equals the value of the largest crossed threshold, or of the smallest
// threshold when none is crossed yet.
//
// The scan pointer only moves forward while times are non-decreasing; a
// timestamp that goes backwards (or is NaN) restarts it from the first point,
// so every element is evaluated independently of the ones before it.
//
// A nil or zero-value profile yields zeros; NewProfile never builds one.
func BuildWith(p *Profile, times []float64, b Boundary) []float64 {
	out := make([]float64, len(times))
	pts := p.sorted()
	if len(times) == 0 || len(pts) == 0 {
		return out
	}

	cur := 0
	prev := times[0]
	for i, t := range times {
		if !(t >= prev) {
			cur = 0
		}
		for cur+1 < len(pts) && b.crossed(pts[cur+1].At, t) {
			cur++
		}
		out[i] = pts[cur].Value
		prev = t
	}

	return out
}
