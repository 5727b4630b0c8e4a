package viz

import (
	"errors"
	"strings"
	"testing"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pidsim/internal/experiment"
)

func sampleResult() *experiment.Result {
	return &experiment.Result{
		Input:     "step",
		Gains:     experiment.DefaultGains(),
		Caption:   "PID Control Response to step  Kp=5 Ki=2 Kd=0.5",
		Transfer:  "(0.5s^2 + 5s + 2) / (s^3 + 1.5s^2 + 5s + 2)",
		Poles:     []experiment.Pole{{Re: -0.5, Im: 2}, {Re: -0.5, Im: -2}, {Re: -0.45}},
		Stable:    true,
		Times:     []float64{0, 1, 2, 3, 4},
		Reference: []float64{1, 1, 1, 1, 1},
		Output:    []float64{0, 0.6, 1.2, 1.05, 0.98},
		Metrics:   map[string]float64{"rmse": 0.51, "iae": 1.2},
	}
}

func TestChart(t *testing.T) {
	for _, color := range []bool{false, true} {
		opts := DefaultOptions()
		opts.Color = color
		opts.Width = 40
		opts.Height = 8

		out, err := Chart(sampleResult(), opts)
		if err != nil {
			t.Fatalf("color=%v: chart failed: %v", color, err)
		}
		for _, want := range []string{"PID Control Response to step", "reference", "output"} {
			if !strings.Contains(out, want) {
				t.Errorf("color=%v: chart missing %q:\n%s", color, want, out)
			}
		}
		if red := strings.Contains(out, asciigraph.Red.String()); red != color {
			t.Errorf("color=%v: red output series = %v", color, red)
		}
	}
}

func TestChart_Empty(t *testing.T) {
	if _, err := Chart(nil, DefaultOptions()); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("expected ErrEmptyResult, got %v", err)
	}

	res := sampleResult()
	res.Reference = res.Reference[:2]
	if _, err := Chart(res, DefaultOptions()); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("expected ErrEmptyResult for misaligned traces, got %v", err)
	}
}

func TestControlChart(t *testing.T) {
	res := sampleResult()
	if _, err := ControlChart(res, DefaultOptions()); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("expected ErrEmptyResult without control trace, got %v", err)
	}

	res.Control = []float64{5, 3, -1, 0.2, 0.1}
	out, err := ControlChart(res, Options{Height: 5, Width: 30, Precision: 1})
	if err != nil {
		t.Fatalf("control chart failed: %v", err)
	}
	if !strings.Contains(out, "control signal") {
		t.Errorf("missing caption:\n%s", out)
	}
}

func TestMetricsTable(t *testing.T) {
	s := NewStyles(GetTheme("minimal"))
	out := s.MetricsTable(sampleResult().Metrics)

	iae := strings.Index(out, "iae")
	rmse := strings.Index(out, "rmse")
	if iae < 0 || rmse < 0 {
		t.Fatalf("table missing metric names:\n%s", out)
	}
	if iae > rmse {
		t.Error("metrics should be sorted by name")
	}
	if !strings.Contains(out, "0.5100") {
		t.Errorf("expected formatted value 0.5100:\n%s", out)
	}

	if !strings.Contains(s.MetricsTable(nil), "no metrics") {
		t.Error("expected placeholder for empty metrics")
	}
}

func TestLoopSummary(t *testing.T) {
	s := NewStyles(ThemeCyberpunk)

	res := sampleResult()
	out := s.LoopSummary(res)
	if !strings.Contains(out, "stable") || strings.Contains(out, "unstable") {
		t.Errorf("expected stable status:\n%s", out)
	}
	if !strings.Contains(out, "-0.5+2j") || !strings.Contains(out, "-0.5-2j") {
		t.Errorf("expected conjugate poles:\n%s", out)
	}

	res.Stable = false
	if !strings.Contains(s.LoopSummary(res), "unstable") {
		t.Error("expected unstable status")
	}
}

func TestFormatPole(t *testing.T) {
	tests := []struct {
		p    experiment.Pole
		want string
	}{
		{experiment.Pole{Re: -1}, "-1"},
		{experiment.Pole{Re: -0.25, Im: 1.5}, "-0.25+1.5j"},
		{experiment.Pole{Re: 0, Im: -3}, "0-3j"},
	}
	for _, tt := range tests {
		if got := FormatPole(tt.p); got != tt.want {
			t.Errorf("FormatPole(%+v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestGetTheme(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" {
		t.Error("expected ocean theme")
	}
	if GetTheme("nope").Name != ThemeCyberpunk.Name {
		t.Error("unknown theme should fall back to cyberpunk")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}
