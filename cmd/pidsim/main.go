package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pion/logging"
	"github.com/san-kum/pidsim/internal/config"
	"github.com/san-kum/pidsim/internal/logs"
	"github.com/san-kum/pidsim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	theme    string

	kp          float64
	ki          float64
	kd          float64
	inputType   string
	duration    float64
	samples     int
	method      string
	integrator  string
	plant       string
	configFile  string
	preset      string
	profileFile string
	inclusive   bool
	save        bool
	outFile     string
	noPlot      bool
	showControl bool
	traceEvery  int

	refSamples  int
	tuneSamples int

	kpSpan  string
	kiSpan  string
	kdSpan  string
	metric  string
	workers int

	factory logging.LoggerFactory
	cliLog  logging.LeveledLogger
)

// main registers the pidsim commands and exits with status 1 when a command
// fails. With no subcommand the interactive gain form is started.
func main() {
	rootCmd := &cobra.Command{
		Use:          "pidsim",
		Short:        "PID closed-loop response visualizer",
		SilenceUsage: true,
		RunE:         runTUI,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			f, err := logs.NewFactory(logLevel, os.Stderr)
			if err != nil {
				return err
			}
			factory = f
			cliLog = f.NewLogger(logs.ScopeCLI)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "disable|error|warn|info|debug|trace")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "cyberpunk", "color theme for tables and the form")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate the closed loop and plot the response",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&kp, "kp", 5.0, "proportional gain")
	runCmd.Flags().Float64Var(&ki, "ki", 2.0, "integral gain")
	runCmd.Flags().Float64Var(&kd, "kd", 0.5, "derivative gain")
	runCmd.Flags().StringVar(&inputType, "input", "step", "step|ramp|sinusoidal")
	runCmd.Flags().Float64Var(&duration, "time", 30.0, "duration in seconds")
	runCmd.Flags().IntVar(&samples, "samples", 3000, "number of time samples")
	runCmd.Flags().StringVar(&method, "method", "lti", "lti|sampled")
	runCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator for the sampled method")
	runCmd.Flags().StringVar(&plant, "plant", config.DefaultPlant, "plant model")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&profileFile, "profile", "", "step profile file (yaml)")
	runCmd.Flags().BoolVar(&inclusive, "inclusive", false, "switch the step profile at t == threshold")
	runCmd.Flags().BoolVar(&save, "save", false, "store the run under --data")
	runCmd.Flags().StringVar(&outFile, "out", "", "write the response to .png, .svg, .pdf, .json or .csv")
	runCmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip the terminal chart")
	runCmd.Flags().BoolVar(&showControl, "control", false, "include the control signal (sampled method)")
	runCmd.Flags().IntVar(&traceEvery, "trace", 0, "print every Nth sample of a sampled run (0 = off)")

	referenceCmd := &cobra.Command{
		Use:   "reference",
		Short: "print the sampled step profile as CSV",
		Args:  cobra.NoArgs,
		RunE:  printReference,
	}
	referenceCmd.Flags().StringVar(&profileFile, "profile", "", "step profile file (yaml)")
	referenceCmd.Flags().Float64Var(&duration, "time", 30.0, "duration in seconds")
	referenceCmd.Flags().IntVar(&refSamples, "samples", 31, "number of time samples")
	referenceCmd.Flags().BoolVar(&inclusive, "inclusive", false, "switch at t == threshold")

	tfCmd := &cobra.Command{
		Use:   "tf",
		Short: "show plant, controller and closed-loop transfer functions",
		Args:  cobra.NoArgs,
		RunE:  showTransfer,
	}
	tfCmd.Flags().Float64Var(&kp, "kp", 5.0, "proportional gain")
	tfCmd.Flags().Float64Var(&ki, "ki", 2.0, "integral gain")
	tfCmd.Flags().Float64Var(&kd, "kd", 0.5, "derivative gain")
	tfCmd.Flags().StringVar(&plant, "plant", config.DefaultPlant, "plant model")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&outFile, "out", "", "also write the chart to an image file")
	plotCmd.Flags().BoolVar(&showControl, "control", false, "include the control signal")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum of the tracking error of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run traces to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search gains that minimise a tracking metric",
		Args:  cobra.NoArgs,
		RunE:  tuneGains,
	}
	tuneCmd.Flags().StringVar(&kpSpan, "kp-range", "1:20:5", "lo:hi:n candidates for Kp")
	tuneCmd.Flags().StringVar(&kiSpan, "ki-range", "0:5:5", "lo:hi:n candidates for Ki")
	tuneCmd.Flags().StringVar(&kdSpan, "kd-range", "0:3:4", "lo:hi:n candidates for Kd")
	tuneCmd.Flags().StringVar(&metric, "metric", "itae", "metric to minimise")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	tuneCmd.Flags().StringVar(&inputType, "input", "step", "step|ramp|sinusoidal")
	tuneCmd.Flags().Float64Var(&duration, "time", 30.0, "duration in seconds")
	tuneCmd.Flags().IntVar(&tuneSamples, "samples", 1000, "number of time samples")
	tuneCmd.Flags().StringVar(&plant, "plant", config.DefaultPlant, "plant model")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario]",
		Short: "run every entry of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive gain form",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}

	rootCmd.AddCommand(runCmd, referenceCmd, tfCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, presetsCmd, tuneCmd, batchCmd, tuiCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{Config: cfg, Theme: theme, Factory: factory})
}
