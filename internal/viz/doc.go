// Package viz renders closed-loop responses in the terminal.
//
// Charts are drawn with asciigraph: the reference and the system output share
// one plot, the control signal (when a run has one) gets its own. Metric
// tables and the loop summary are styled with lipgloss using one of the
// built-in themes:
//
//   - [Chart]: reference and output with legends and the run caption
//   - [ControlChart]: the controller output of a sampled run
//   - [MetricsTable]: sorted metric names and values
//   - [LoopSummary]: closed-loop transfer function, poles and stability
package viz
