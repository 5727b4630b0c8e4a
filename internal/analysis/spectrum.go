package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSignal = errors.New("analysis: need at least four samples on a uniform grid")

// MagnitudeSpectrum returns |X_k| for k = 0..n/2 of the mean-removed signal.
// Square the bins for power.
func MagnitudeSpectrum(signal []float64) []float64 {
	if len(signal) == 0 {
		return nil
	}
	mean := stat.Mean(signal, nil)
	centered := make([]float64, len(signal))
	for i, v := range signal {
		centered[i] = v - mean
	}

	x := fft.FFTReal(centered)
	ps := make([]float64, len(x)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(x[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC bin.
// times must be uniformly spaced.
func DominantFrequency(times, signal []float64) (float64, error) {
	n := len(signal)
	if n < 4 || len(times) != n {
		return 0, ErrShortSignal
	}
	dt := times[1] - times[0]
	if !(dt > 0) {
		return 0, ErrShortSignal
	}

	ps := MagnitudeSpectrum(signal)
	best, peak := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > peak {
			best, peak = k, ps[k]
		}
	}
	if best == 0 {
		return 0, nil
	}
	return float64(best) / (float64(n) * dt), nil
}

// RingingFrequency is the dominant frequency of the tracking error ref - out
// in rad/s.
func RingingFrequency(times, ref, out []float64) (float64, error) {
	if len(ref) != len(out) {
		return 0, ErrShortSignal
	}
	e := make([]float64, len(ref))
	for i := range e {
		e[i] = ref[i] - out[i]
	}
	f, err := DominantFrequency(times, e)
	return 2 * math.Pi * f, err
}
