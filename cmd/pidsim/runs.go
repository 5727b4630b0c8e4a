package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pidsim/internal/analysis"
	"github.com/san-kum/pidsim/internal/export"
	"github.com/san-kum/pidsim/internal/metrics"
	"github.com/san-kum/pidsim/internal/storage"
	"github.com/spf13/cobra"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, factory)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINPUT\tTIME\tMETHOD\tGAINS\tITAE\tSTABLE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.4f\t%t\n",
			run.ID,
			run.Input,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			run.Gains,
			run.Metrics[metrics.ITAE],
			run.Stable,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, factory)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "plant: %s\n", meta.Plant)
	fmt.Fprintf(out, "samples: %d\n\n", len(res.Times))

	if err := printResult(out, res, true); err != nil {
		return err
	}

	if outFile != "" {
		if err := export.SaveChart(outFile, res, showControl); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", outFile)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, factory)
	res, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}

	e := make([]float64, len(res.Output))
	for i := range e {
		e[i] = res.Reference[i] - res.Output[i]
	}
	ps := analysis.MagnitudeSpectrum(e)
	if len(ps) < 2 {
		return fmt.Errorf("no data to analyze")
	}
	w, err := analysis.RingingFrequency(res.Times, res.Reference, res.Output)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", args[0])
	fmt.Fprintf(out, "ringing frequency: %.4f rad/s\n\n", w)

	bins := ps[1:min(len(ps), 101)]
	fmt.Fprintln(out, asciigraph.Plot(bins,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("tracking error magnitude spectrum"),
	))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, factory)
	res, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}
	if len(res.Times) == 0 {
		return fmt.Errorf("no data to export")
	}
	return export.WriteCSV(cmd.OutOrStdout(), res.Times, res.Reference, res.Output, res.Control)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, factory)
	res, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}
	return export.WriteJSON(cmd.OutOrStdout(), res)
}
