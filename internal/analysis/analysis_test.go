package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/pidsim/internal/lti"
	"github.com/san-kum/pidsim/internal/reference"
)

func TestBode_FirstOrderLag(t *testing.T) {
	pts := Bode(lti.MustNew([]float64{1}, []float64{1, 1}), Sweep{Min: 0.1, Max: 10, Points: 3})
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}

	mid := pts[1]
	if math.Abs(mid.Omega-1) > 1e-12 {
		t.Errorf("expected omega 1, got %v", mid.Omega)
	}
	if math.Abs(mid.Magnitude+3.0103) > 1e-3 {
		t.Errorf("expected -3.01 dB, got %v", mid.Magnitude)
	}
	if math.Abs(mid.Phase+45) > 1e-9 {
		t.Errorf("expected -45 deg, got %v", mid.Phase)
	}
}

func TestBode_PhaseIsContinuous(t *testing.T) {
	open := lti.PID(5, 2, 0.5).Mul(lti.DefaultPlant())
	pts := Bode(open, DefaultSweep())
	for i := 1; i < len(pts); i++ {
		if d := math.Abs(pts[i].Phase - pts[i-1].Phase); d > 5 {
			t.Fatalf("phase jumps %v deg at omega=%v", d, pts[i].Omega)
		}
	}
	if p := pts[0].Phase; math.Abs(p+180) > 5 {
		t.Errorf("double integrator loop should start near -180 deg, got %v", p)
	}
}

func TestComputeMargins_ThirdOrder(t *testing.T) {
	// 2 / (s+1)^3: phase crossover at sqrt(3) where |L| = 1/4.
	open := lti.MustNew([]float64{2}, []float64{1, 3, 3, 1})
	m := ComputeMargins(open, DefaultSweep())

	if math.Abs(m.PhaseCrossover-math.Sqrt(3)) > 1e-3 {
		t.Errorf("expected phase crossover sqrt(3), got %v", m.PhaseCrossover)
	}
	if math.Abs(m.GainMargin-20*math.Log10(4)) > 0.01 {
		t.Errorf("expected gain margin 12.04 dB, got %v", m.GainMargin)
	}

	wc := math.Sqrt(math.Pow(2, 2.0/3) - 1)
	if math.Abs(m.GainCrossover-wc) > 1e-3 {
		t.Errorf("expected gain crossover %v, got %v", wc, m.GainCrossover)
	}
	pm := 180 - 3*math.Atan(wc)*180/math.Pi
	if math.Abs(m.PhaseMargin-pm) > 0.1 {
		t.Errorf("expected phase margin %v, got %v", pm, m.PhaseMargin)
	}
}

func TestComputeMargins_NoCrossover(t *testing.T) {
	m := ComputeMargins(lti.MustNew([]float64{0.1}, []float64{1, 1}), DefaultSweep())
	if !math.IsInf(m.GainMargin, 1) || !math.IsInf(m.PhaseMargin, 1) {
		t.Errorf("expected infinite margins, got %+v", m)
	}
	if m.GainCrossover != 0 || m.PhaseCrossover != 0 {
		t.Errorf("expected no crossovers, got %+v", m)
	}
}

func TestComputeMargins_DefaultLoop(t *testing.T) {
	open := lti.PID(5, 2, 0.5).Mul(lti.DefaultPlant())
	m := ComputeMargins(open, DefaultSweep())
	if !(m.PhaseMargin > 0) {
		t.Errorf("stable loop should have positive phase margin, got %v", m.PhaseMargin)
	}
	if m.GainCrossover <= 0 {
		t.Errorf("expected a gain crossover, got %v", m.GainCrossover)
	}
}

func TestDominantFrequency(t *testing.T) {
	times := reference.Linspace(0, 9.99, 1000)
	signal := reference.Sine(times, 1, 2*math.Pi*0.5)
	for i := range signal {
		signal[i] += 3
	}

	f, err := DominantFrequency(times, signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(f-0.5) > 1e-9 {
		t.Errorf("expected 0.5 Hz, got %v", f)
	}

	if _, err := DominantFrequency(times[:2], signal[:2]); err != ErrShortSignal {
		t.Errorf("expected ErrShortSignal, got %v", err)
	}
}

func TestMagnitudeSpectrum_Constant(t *testing.T) {
	ps := MagnitudeSpectrum([]float64{2, 2, 2, 2, 2, 2, 2, 2})
	if len(ps) != 5 {
		t.Fatalf("expected 5 bins, got %d", len(ps))
	}
	for k, v := range ps {
		if v > 1e-12 {
			t.Errorf("bin %d: expected 0 for a constant signal, got %v", k, v)
		}
	}
	if MagnitudeSpectrum(nil) != nil {
		t.Error("expected nil spectrum for empty input")
	}
}

func TestMagnitudeSpectrum_Cosine(t *testing.T) {
	// a unit cosine in bin 2 of a 16-point transform has |X_2| = N/2
	const n = 16
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Cos(2 * math.Pi * 2 * float64(i) / n)
	}
	ps := MagnitudeSpectrum(signal)
	for k, v := range ps {
		want := 0.0
		if k == 2 {
			want = n / 2
		}
		if math.Abs(v-want) > 1e-9 {
			t.Errorf("bin %d = %v, want %v", k, v, want)
		}
	}
}

func TestRingingFrequency(t *testing.T) {
	times := reference.Linspace(0, 9.99, 1000)
	ref := make([]float64, len(times))
	out := reference.Sine(times, -0.2, 2*math.Pi)
	w, err := RingingFrequency(times, ref, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(w-2*math.Pi) > 1e-9 {
		t.Errorf("expected 2pi rad/s, got %v", w)
	}
}
