package lti

import (
	"math"
	"strconv"
	"strings"
)

// trim drops leading zero coefficients, keeping at least one.
func trim(p []float64) []float64 {
	i := 0
	for i < len(p)-1 && p[i] == 0 {
		i++
	}
	out := make([]float64, len(p)-i)
	copy(out, p[i:])
	return out
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return trim(out)
}

// polyAdd adds right-aligned polynomials.
func polyAdd(a, b []float64) []float64 {
	if len(a) < len(b) {
		a, b = b, a
	}
	out := make([]float64, len(a))
	copy(out, a)
	off := len(a) - len(b)
	for i, y := range b {
		out[off+i] += y
	}
	return trim(out)
}

func polyScale(p []float64, k float64) []float64 {
	out := make([]float64, len(p))
	for i, c := range p {
		out[i] = c * k
	}
	return trim(out)
}

func polyEval(p []float64, s complex128) complex128 {
	var acc complex128
	for _, c := range p {
		acc = acc*s + complex(c, 0)
	}
	return acc
}

func isZero(p []float64) bool {
	for _, c := range p {
		if c != 0 {
			return false
		}
	}
	return true
}

// polyString renders p the way a textbook would: "0.5 s^2 + 5 s + 2".
func polyString(p []float64) string {
	var b strings.Builder
	n := len(p) - 1
	for i, c := range p {
		if c == 0 {
			continue
		}
		pow := n - i
		mag := math.Abs(c)
		switch {
		case b.Len() == 0 && c < 0:
			b.WriteString("-")
		case b.Len() > 0 && c < 0:
			b.WriteString(" - ")
		case b.Len() > 0:
			b.WriteString(" + ")
		}
		if mag != 1 || pow == 0 {
			b.WriteString(strconv.FormatFloat(mag, 'g', -1, 64))
			if pow > 0 {
				b.WriteString(" ")
			}
		}
		switch {
		case pow == 1:
			b.WriteString("s")
		case pow > 1:
			b.WriteString("s^" + strconv.Itoa(pow))
		}
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}
