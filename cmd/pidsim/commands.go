package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/pidsim/internal/analysis"
	"github.com/san-kum/pidsim/internal/config"
	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/export"
	"github.com/san-kum/pidsim/internal/logs"
	"github.com/san-kum/pidsim/internal/lti"
	"github.com/san-kum/pidsim/internal/metrics"
	"github.com/san-kum/pidsim/internal/reference"
	"github.com/san-kum/pidsim/internal/storage"
	"github.com/san-kum/pidsim/internal/viz"
	"github.com/spf13/cobra"
)

// resolveConfig layers the config file, the preset and finally every flag the
// user set explicitly.
func resolveConfig(cmd *cobra.Command) (experiment.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return experiment.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" && !config.ApplyPreset(cfg, preset) {
		return experiment.Config{}, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	flags := cmd.Flags()
	if flags.Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if flags.Changed("input") {
		cfg.Input = inputType
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("samples") {
		cfg.Samples = samples
	}
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("plant") {
		cfg.Plant = plant
	}
	if flags.Changed("inclusive") {
		cfg.Boundary = boundary().String()
	}
	if profileFile != "" {
		p, err := reference.LoadProfile(profileFile)
		if err != nil {
			return experiment.Config{}, err
		}
		cfg.Profile = p.Points()
	}

	if !flags.Changed("data") && cfg.DataDir != "" {
		dataDir = cfg.DataDir
	}
	if !flags.Changed("log-level") && cfg.LogLevel != logLevel {
		f, err := logs.NewFactory(cfg.LogLevel, os.Stderr)
		if err != nil {
			return experiment.Config{}, err
		}
		factory = f
		cliLog = f.NewLogger(logs.ScopeCLI)
	}

	return cfg.Experiment(experiment.NewRegistry())
}

func boundary() reference.Boundary {
	if inclusive {
		return reference.Inclusive
	}
	return reference.Strict
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cliLog.Debugf("run %s method=%s samples=%d duration=%.1fs", cfg.Gains, cfg.Method, cfg.Samples, cfg.Duration)

	out := cmd.OutOrStdout()
	var trace *traceTable
	if traceEvery > 0 {
		if cfg.Method != experiment.MethodSampled {
			cliLog.Warn("--trace only applies to the sampled method")
		}
		trace = newTraceTable(out, traceEvery)
		cfg.Observer = trace
	}

	res, err := experiment.NewRunner(factory).Run(cmd.Context(), cfg)
	if trace != nil {
		if ferr := trace.Flush(); ferr != nil && err == nil {
			err = ferr
		}
	}
	if err != nil {
		return err
	}

	if err := printResult(out, res, !noPlot); err != nil {
		return err
	}
	fmt.Fprintf(out, "elapsed: %s\n", res.Elapsed)

	if save {
		st := storage.New(dataDir, factory)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved run: %s\n", runID)
	}

	if outFile != "" {
		if err := writeOutput(outFile, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", outFile)
	}
	return nil
}

// traceTable prints every nth sample of a sampled run as an aligned table.
type traceTable struct {
	w     *tabwriter.Writer
	every int
	rows  int
}

func newTraceTable(w io.Writer, every int) *traceTable {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tTIME\tREFERENCE\tOUTPUT\tCONTROL")
	return &traceTable{w: tw, every: every}
}

func (t *traceTable) OnStep(s dynamo.Sample) {
	if s.Step%t.every != 0 {
		return
	}
	u := 0.0
	if len(s.Control) > 0 {
		u = s.Control[0]
	}
	fmt.Fprintf(t.w, "%d\t%.3f\t%.4f\t%.4f\t%.4f\n", s.Step, s.Time, s.Reference, s.Output, u)
	t.rows++
}

func (t *traceTable) Flush() error {
	return t.w.Flush()
}

func printResult(w io.Writer, res *experiment.Result, plot bool) error {
	if plot {
		opts := viz.DefaultOptions()
		chart, err := viz.Chart(res, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, chart)
		fmt.Fprintln(w)

		if showControl && len(res.Control) > 0 {
			opts.Height = 8
			cc, err := viz.ControlChart(res, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, cc)
			fmt.Fprintln(w)
		}
	} else {
		fmt.Fprintln(w, res.Caption)
	}

	styles := viz.NewStyles(viz.GetTheme(theme))
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, styles.MetricsTable(res.Metrics), "  ", styles.LoopSummary(res)))
	return nil
}

// writeOutput picks the writer from the file extension: JSON, CSV or a chart
// image in any format gonum/plot supports.
func writeOutput(path string, res *experiment.Result) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return export.SaveJSON(path, res)
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := export.WriteCSV(f, res.Times, res.Reference, res.Output, res.Control); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return export.SaveChart(path, res, showControl)
}

func printReference(cmd *cobra.Command, args []string) error {
	p := reference.DefaultProfile()
	if profileFile != "" {
		loaded, err := reference.LoadProfile(profileFile)
		if err != nil {
			return err
		}
		p = loaded
	}

	times := reference.Linspace(0, duration, refSamples)
	ref := reference.BuildWith(p, times, boundary())

	w := csv.NewWriter(cmd.OutOrStdout())
	if err := w.Write([]string{"time", "reference"}); err != nil {
		return err
	}
	for i := range times {
		row := []string{
			strconv.FormatFloat(times[i], 'f', 6, 64),
			strconv.FormatFloat(ref[i], 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func showTransfer(cmd *cobra.Command, args []string) error {
	g := experiment.Gains{Kp: kp, Ki: ki, Kd: kd}
	if err := g.Validate(); err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	p, err := reg.GetPlant(plant)
	if err != nil {
		return err
	}

	c := lti.PID(g.Kp, g.Ki, g.Kd)
	closed := lti.UnityFeedback(c.Mul(p))

	poles := closed.Poles()
	formatted := make([]string, len(poles))
	for i, pole := range poles {
		formatted[i] = viz.FormatPole(experiment.Pole{Re: real(pole), Im: imag(pole)})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "plant\t%s\t(%s)\n", p, plant)
	fmt.Fprintf(w, "controller\t%s\t%s\n", c, g)
	fmt.Fprintf(w, "open loop\t%s\n", c.Mul(p))
	fmt.Fprintf(w, "closed loop\t%s\n", closed)
	fmt.Fprintf(w, "poles\t%s\n", strings.Join(formatted, ", "))
	fmt.Fprintf(w, "dc gain\t%.6g\n", closed.DCGain())
	fmt.Fprintf(w, "stable\t%t\n", closed.Stable())

	m := analysis.ComputeMargins(c.Mul(p), analysis.DefaultSweep())
	fmt.Fprintf(w, "gain margin\t%s\t%s\n", margin(m.GainMargin, "dB"), crossover(m.PhaseCrossover))
	fmt.Fprintf(w, "phase margin\t%s\t%s\n", margin(m.PhaseMargin, "deg"), crossover(m.GainCrossover))
	return w.Flush()
}

func margin(v float64, unit string) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

func crossover(w float64) string {
	if w == 0 {
		return ""
	}
	return fmt.Sprintf("at %.4g rad/s", w)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
	}
	return w.Flush()
}

// parseSpan reads "lo:hi:n", or a single value.
func parseSpan(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	vals := make([]float64, 0, 3)
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", s, err)
		}
		vals = append(vals, v)
	}
	switch len(vals) {
	case 1:
		return vals, nil
	case 3:
		n := int(vals[2])
		if n < 1 || float64(n) != vals[2] {
			return nil, fmt.Errorf("invalid range %q: count must be a positive integer", s)
		}
		return experiment.Span(vals[0], vals[1], n), nil
	}
	return nil, fmt.Errorf("invalid range %q: want lo:hi:n", s)
}

func tuneGains(cmd *cobra.Command, args []string) error {
	base := experiment.DefaultConfig()
	in, err := experiment.ParseInput(inputType)
	if err != nil {
		return err
	}
	p, err := experiment.NewRegistry().GetPlant(plant)
	if err != nil {
		return err
	}
	base.Input = in
	base.Plant = p
	base.Duration = duration
	base.Samples = tuneSamples

	var grid experiment.GridSearch
	for _, span := range []struct {
		text string
		dst  *[]float64
	}{{kpSpan, &grid.Kp}, {kiSpan, &grid.Ki}, {kdSpan, &grid.Kd}} {
		vals, err := parseSpan(span.text)
		if err != nil {
			return err
		}
		*span.dst = vals
	}
	grid.Metric = metric
	grid.Workers = workers

	res, err := experiment.NewRunner(factory).Tune(cmd.Context(), base, grid)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d candidates, %d rejected, minimising %s\n\n", len(res.Candidates)+res.Rejected, res.Rejected, res.Metric)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tKP\tKI\tKD\t%s\n", strings.ToUpper(res.Metric))
	for i, c := range res.Candidates {
		if i == 10 {
			break
		}
		fmt.Fprintf(w, "%d\t%.4g\t%.4g\t%.4g\t%.6f\n", i+1, c.Gains.Kp, c.Gains.Ki, c.Gains.Kd, c.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nbest: %s\n", res.Best.Gains)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := experiment.LoadScenario(args[0])
	if err != nil {
		return err
	}

	results, err := experiment.NewRunner(factory).Batch(cmd.Context(), sc, workers)
	if err != nil {
		return err
	}

	st := storage.New(dataDir, factory)
	out := cmd.OutOrStdout()
	if sc.Name != "" {
		fmt.Fprintf(out, "scenario: %s\n", sc.Name)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINPUT\tGAINS\tITAE\tRMSE\tOVERSHOOT\tSTATUS")
	failed := 0
	for _, br := range results {
		if br.Err != nil {
			failed++
			fmt.Fprintf(w, "%s\t%s\t%s\t-\t-\t-\terror: %v\n", br.Name, br.Config.Input, br.Config.Gains, br.Err)
			continue
		}
		m := br.Result.Metrics
		status := "stable"
		if !br.Result.Stable {
			status = "unstable"
		}
		if br.Save {
			if err := st.Init(); err != nil {
				return err
			}
			runID, err := st.Save(br.Config, br.Result)
			if err != nil {
				return err
			}
			status += " saved " + runID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%.1f%%\t%s\n", br.Name, br.Result.Input, br.Result.Gains, m[metrics.ITAE], m[metrics.RMSE], m[metrics.Overshoot], status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}
