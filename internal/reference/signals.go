package reference

import "math"

// Linspace returns n evenly spaced samples over [start, stop], endpoint
// included.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// Ramp returns slope*t for every timestamp.
func Ramp(times []float64, slope float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = slope * t
	}
	return out
}

// Sine returns amplitude*sin(omega*t) for every timestamp.
func Sine(times []float64, amplitude, omega float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = amplitude * math.Sin(omega*t)
	}
	return out
}
