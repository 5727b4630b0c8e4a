package viz

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pidsim/internal/experiment"
)

var ErrEmptyResult = errors.New("viz: nothing to plot")

// Options control the size of terminal charts.
type Options struct {
	Height    int
	Width     int
	Precision uint
	// Color draws the output series in red; off keeps the chart plain text.
	Color bool
}

func DefaultOptions() Options {
	return Options{
		Height:    15,
		Width:     80,
		Precision: 2,
		Color:     true,
	}
}

func (o Options) graphOptions(caption string) []asciigraph.Option {
	return []asciigraph.Option{
		asciigraph.Height(o.Height),
		asciigraph.Width(o.Width),
		asciigraph.Precision(o.Precision),
		asciigraph.Caption(caption),
	}
}

// Chart plots the reference and the output of res on shared axes.
func Chart(res *experiment.Result, o Options) (string, error) {
	if res == nil || len(res.Output) == 0 || len(res.Reference) != len(res.Output) {
		return "", ErrEmptyResult
	}

	// asciigraph requires one colour per legend entry.
	output := asciigraph.Default
	if o.Color {
		output = asciigraph.Red
	}
	opts := o.graphOptions(res.Caption)
	opts = append(opts,
		asciigraph.SeriesColors(asciigraph.Default, output),
		asciigraph.SeriesLegends("reference", "output"),
	)

	return asciigraph.PlotMany([][]float64{res.Reference, res.Output}, opts...), nil
}

// ControlChart plots the controller output. Only sampled runs record it.
func ControlChart(res *experiment.Result, o Options) (string, error) {
	if res == nil || len(res.Control) == 0 {
		return "", ErrEmptyResult
	}

	opts := o.graphOptions(fmt.Sprintf("control signal  %s", res.Gains))
	if o.Color {
		opts = append(opts, asciigraph.SeriesColors(asciigraph.Blue))
	}
	return asciigraph.Plot(res.Control, opts...), nil
}
