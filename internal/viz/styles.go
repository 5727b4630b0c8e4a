package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/pidsim/internal/experiment"
)

// Styles is the set of lipgloss styles derived from a Theme.
type Styles struct {
	Panel     lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Selected  lipgloss.Style
	KeyHint   lipgloss.Style
	Stable    lipgloss.Style
	Unstable  lipgloss.Style
	ErrorText lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),
		Label: lipgloss.NewStyle().
			Foreground(t.Muted),
		Value: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Accent),
		KeyHint: lipgloss.NewStyle().
			Foreground(t.Muted).
			Italic(true),
		Stable: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Success),
		Unstable: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Warning),
		ErrorText: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Error),
	}
}

// MetricsTable renders metric names in sorted order, one per row.
func (s Styles) MetricsTable(m map[string]float64) string {
	if len(m) == 0 {
		return s.Panel.Render(s.Label.Render("no metrics"))
	}

	names := make([]string, 0, len(m))
	width := 0
	for name := range m {
		names = append(names, name)
		width = max(width, len(name))
	}
	sort.Strings(names)

	rows := make([]string, len(names))
	for i, name := range names {
		rows[i] = s.Label.Render(fmt.Sprintf("%-*s", width, name)) + "  " + s.Value.Render(formatValue(m[name]))
	}
	return s.Panel.Render(s.Title.Render("metrics") + "\n" + strings.Join(rows, "\n"))
}

// LoopSummary shows the closed-loop transfer function, its poles and whether
// the loop is stable.
func (s Styles) LoopSummary(res *experiment.Result) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("closed loop") + "\n")
	b.WriteString(s.Label.Render("T(s)   ") + res.Transfer + "\n")

	poles := make([]string, len(res.Poles))
	for i, p := range res.Poles {
		poles[i] = FormatPole(p)
	}
	b.WriteString(s.Label.Render("poles  ") + strings.Join(poles, ", ") + "\n")

	if res.Stable {
		b.WriteString(s.Label.Render("status ") + s.Stable.Render("stable"))
	} else {
		b.WriteString(s.Label.Render("status ") + s.Unstable.Render("unstable"))
	}
	return s.Panel.Render(b.String())
}

// FormatPole prints a pole as "a", "a+bj" or "a-bj".
func FormatPole(p experiment.Pole) string {
	if p.Im == 0 {
		return fmt.Sprintf("%.4g", p.Re)
	}
	if p.Im < 0 {
		return fmt.Sprintf("%.4g-%.4gj", p.Re, -p.Im)
	}
	return fmt.Sprintf("%.4g+%.4gj", p.Re, p.Im)
}

func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%.4f", v)
}
