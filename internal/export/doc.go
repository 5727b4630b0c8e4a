// Package export writes closed-loop responses to files: charts through
// gonum/plot (PNG, SVG, PDF by extension), JSON documents and CSV traces.
package export
