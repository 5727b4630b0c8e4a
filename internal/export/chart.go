package export

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/pidsim/internal/experiment"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	ErrUnsupportedFormat = errors.New("export: unsupported chart format")
	ErrEmptyResult       = errors.New("export: result has no samples")
)

// Default chart size, matching a 10x6 inch figure.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
	pngDPI        = 150
)

var (
	referenceColor = color.RGBA{A: 255}
	outputColor    = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	controlColor   = color.RGBA{R: 40, G: 90, B: 200, A: 255}
)

// Chart draws the reference as a dashed black line and the output in red,
// with a grid and legend. The control signal is added when showControl is
// set and the result carries one.
func Chart(res *experiment.Result, showControl bool) (*plot.Plot, error) {
	if res == nil || len(res.Times) == 0 {
		return nil, ErrEmptyResult
	}

	p := plot.New()
	p.Title.Text = res.Caption
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Response"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	ref, err := series(res.Times, res.Reference)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	ref.Color = referenceColor
	ref.Width = vg.Points(1.5)
	ref.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	if res.Input == experiment.Step.String() {
		ref.StepStyle = plotter.PostStep
	}

	out, err := series(res.Times, res.Output)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	out.Color = outputColor
	out.Width = vg.Points(2)

	p.Add(ref, out)
	p.Legend.Add("Reference Input", ref)
	p.Legend.Add("System Output", out)

	if showControl && len(res.Control) == len(res.Times) {
		u, err := series(res.Times, res.Control)
		if err != nil {
			return nil, fmt.Errorf("control: %w", err)
		}
		u.Color = controlColor
		u.Width = vg.Points(1)
		p.Add(u)
		p.Legend.Add("Control Signal", u)
	}

	return p, nil
}

func series(xs, ys []float64) (*plotter.Line, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%d times for %d values", len(xs), len(ys))
	}
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return plotter.NewLine(pts)
}

// Format maps a file name to a chart format by extension.
func Format(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "png", "svg", "pdf", "jpg", "jpeg", "tif", "tiff", "eps":
		return ext, nil
	}
	return "", fmt.Errorf("%w: %q (want .png, .svg or .pdf)", ErrUnsupportedFormat, filepath.Ext(path))
}

// WriteChart renders the chart in format to w.
func WriteChart(w io.Writer, res *experiment.Result, format string, showControl bool) error {
	p, err := Chart(res, showControl)
	if err != nil {
		return err
	}

	if format == "png" {
		return writePNG(w, p)
	}

	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func writePNG(w io.Writer, p *plot.Plot) error {
	c := vgimg.NewWith(
		vgimg.UseWH(DefaultWidth, DefaultHeight),
		vgimg.UseDPI(pngDPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// SaveChart writes the chart to path, choosing the format by extension and
// creating parent directories as needed.
func SaveChart(path string, res *experiment.Result, showControl bool) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteChart(f, res, format, showControl); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
