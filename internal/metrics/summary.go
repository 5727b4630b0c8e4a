package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Names of the values returned by Summarize.
const (
	IAE          = "iae"
	ISE          = "ise"
	ITAE         = "itae"
	RMSE         = "rmse"
	MaxError     = "max_error"
	FinalError   = "final_error"
	Overshoot    = "overshoot"
	SettlingTime = "settling_time"
)

// SettlingBand is the relative band used for SettlingTime.
const SettlingBand = 0.02

var ErrShortTrace = errors.New("metrics: need at least two aligned samples")

// Summary maps metric names to values.
type Summary map[string]float64

// Summarize scores how well out tracks ref over times. Integral criteria use
// the trapezoidal rule; Overshoot is in percent of the move from the initial
// output to the final reference level.
func Summarize(times, ref, out []float64) (Summary, error) {
	n := len(times)
	if n < 2 || len(ref) != n || len(out) != n {
		return nil, fmt.Errorf("%w: times=%d reference=%d output=%d", ErrShortTrace, n, len(ref), len(out))
	}

	e := make([]float64, n)
	copy(e, ref)
	floats.Sub(e, out)

	abs := make([]float64, n)
	sq := make([]float64, n)
	tAbs := make([]float64, n)
	for i, v := range e {
		abs[i] = math.Abs(v)
		sq[i] = v * v
		tAbs[i] = times[i] * abs[i]
	}

	s := Summary{
		IAE:        integrate.Trapezoidal(times, abs),
		ISE:        integrate.Trapezoidal(times, sq),
		ITAE:       integrate.Trapezoidal(times, tAbs),
		RMSE:       math.Sqrt(stat.Mean(sq, nil)),
		MaxError:   floats.Max(abs),
		FinalError: abs[n-1],
	}

	final := ref[n-1]
	span := final - out[0]
	s[Overshoot] = overshoot(out, final, span)
	if ts, ok := settlingTime(times, out, final, span); ok {
		s[SettlingTime] = ts
	}
	return s, nil
}

func overshoot(out []float64, final, span float64) float64 {
	if span == 0 {
		return 0
	}
	peak := 0.0
	for _, y := range out {
		peak = math.Max(peak, (y-final)*math.Copysign(1, span))
	}
	return 100 * peak / math.Abs(span)
}

// settlingTime is the first time after which the output stays within the
// band around the final reference. It reports false when the output is still
// outside the band at the last sample.
func settlingTime(times, out []float64, final, span float64) (float64, bool) {
	band := SettlingBand * math.Max(math.Abs(span), math.Abs(final))
	if band == 0 {
		band = SettlingBand
	}
	last := -1
	for i, y := range out {
		if math.Abs(y-final) > band {
			last = i
		}
	}
	switch {
	case last == -1:
		return times[0], true
	case last == len(out)-1:
		return 0, false
	default:
		return times[last+1], true
	}
}
