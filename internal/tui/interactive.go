package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pion/logging"
	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/logs"
	"github.com/san-kum/pidsim/internal/viz"
)

// InvalidGainsMessage is shown when a gain field does not parse as a number.
const InvalidGainsMessage = "Please enter valid numeric values for Kp, Ki, and Kd."

type focus int

const (
	focusKp focus = iota
	focusKi
	focusKd
	focusInput
	focusGenerate
	focusCount
)

var fieldLabels = [3]string{"Kp", "Ki", "Kd"}

var inputs = []experiment.InputType{experiment.Step, experiment.Ramp, experiment.Sinusoidal}

// Options configure the form. Config supplies everything the form does not
// edit (duration, samples, plant, method).
type Options struct {
	Config  experiment.Config
	Theme   string
	Factory logging.LoggerFactory
}

// Form is the bubbletea model of the gain entry form.
type Form struct {
	base   experiment.Config
	runner *experiment.Runner
	styles viz.Styles
	log    logging.LeveledLogger

	fields [3]string
	input  int
	focus  focus

	running bool
	result  *experiment.Result
	chart   string
	errMsg  string

	width  int
	height int
}

type resultMsg struct {
	res *experiment.Result
	err error
}

// NewForm builds the gain entry form with the configured gains prefilled.
func NewForm(opts Options) Form {
	f := logs.OrDefault(opts.Factory)
	g := opts.Config.Gains
	m := Form{
		base:   opts.Config,
		runner: experiment.NewRunner(f),
		styles: viz.NewStyles(viz.GetTheme(opts.Theme)),
		log:    f.NewLogger(logs.ScopeTUI),
		fields: [3]string{formatGain(g.Kp), formatGain(g.Ki), formatGain(g.Kd)},
		width:  100,
		height: 32,
	}
	for i, in := range inputs {
		if in == opts.Config.Input {
			m.input = i
		}
	}
	return m
}

// Run blocks until the user quits the form.
func Run(opts Options) error {
	_, err := tea.NewProgram(NewForm(opts), tea.WithAltScreen()).Run()
	return err
}

func formatGain(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func (m Form) Init() tea.Cmd { return nil }

func (m Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.result != nil {
			m.chart = m.renderChart(m.result)
		}
		return m, nil
	case resultMsg:
		m.running = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.result = msg.res
		m.chart = m.renderChart(msg.res)
		return m, nil
	}
	return m, nil
}

func (m Form) handleKey(msg tea.KeyMsg) (Form, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "esc" {
		return m, tea.Quit
	}

	// The error dialog is modal; any key dismisses it.
	if m.errMsg != "" {
		m.errMsg = ""
		return m, nil
	}

	switch key {
	case "tab", "down":
		m.focus = (m.focus + 1) % focusCount
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus + focusCount - 1) % focusCount
		return m, nil
	case "ctrl+g":
		return m.generate()
	}

	switch m.focus {
	case focusKp, focusKi, focusKd:
		m.editField(msg)
	case focusInput:
		switch key {
		case "left", "h":
			m.input = (m.input + len(inputs) - 1) % len(inputs)
		case "right", "l", " ":
			m.input = (m.input + 1) % len(inputs)
		case "enter":
			return m.generate()
		}
	case focusGenerate:
		if key == "enter" || key == " " {
			return m.generate()
		}
	}
	return m, nil
}

func (m *Form) editField(msg tea.KeyMsg) {
	f := &m.fields[m.focus]
	switch msg.Type {
	case tea.KeyBackspace:
		if len(*f) > 0 {
			*f = (*f)[:len(*f)-1]
		}
	case tea.KeyEnter:
		m.focus++
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if strings.ContainsRune("0123456789.-+eE", r) {
				*f += string(r)
			}
		}
	}
}

// gains parses the three fields; nothing in the form changes on failure.
func (m Form) gains() (experiment.Gains, error) {
	var vals [3]float64
	for i, s := range m.fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return experiment.Gains{}, fmt.Errorf("%s: %w", fieldLabels[i], err)
		}
		vals[i] = v
	}
	g := experiment.Gains{Kp: vals[0], Ki: vals[1], Kd: vals[2]}
	return g, g.Validate()
}

func (m Form) generate() (Form, tea.Cmd) {
	if m.running {
		return m, nil
	}
	g, err := m.gains()
	if err != nil {
		m.log.Debugf("rejected gains %q: %v", m.fields, err)
		m.errMsg = InvalidGainsMessage
		return m, nil
	}

	cfg := m.base
	cfg.Gains = g
	cfg.Input = inputs[m.input]
	m.running = true

	runner := m.runner
	return m, func() tea.Msg {
		res, err := runner.Run(context.Background(), cfg)
		return resultMsg{res: res, err: err}
	}
}

func (m Form) renderChart(res *experiment.Result) string {
	opts := viz.DefaultOptions()
	opts.Width = max(m.width-16, 30)
	opts.Height = max(m.height-18, 8)
	chart, err := viz.Chart(res, opts)
	if err != nil {
		return m.styles.ErrorText.Render(err.Error())
	}
	return chart
}

func (m Form) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString("\n  " + s.Title.Render("PID Controller Simulation") + "\n\n")

	for i, label := range fieldLabels {
		val := m.fields[i]
		if m.focus == focus(i) {
			b.WriteString("  " + s.Selected.Render("▸ "+label+" ") + s.Value.Render(val+"▋") + "\n")
		} else {
			b.WriteString("    " + s.Label.Render(label+" ") + val + "\n")
		}
	}

	names := make([]string, len(inputs))
	for i, in := range inputs {
		if i == m.input {
			names[i] = s.Selected.Render("(•) " + in.Title())
		} else {
			names[i] = s.Label.Render("( ) " + in.Title())
		}
	}
	prefix := "    "
	if m.focus == focusInput {
		prefix = "  " + s.Selected.Render("▸ ")
	}
	b.WriteString(prefix + strings.Join(names, "  ") + "\n")

	button := "[ Generate Plot ]"
	if m.focus == focusGenerate {
		b.WriteString("  " + s.Selected.Render("▸ "+button) + "\n")
	} else {
		b.WriteString("    " + s.Label.Render(button) + "\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n" + s.Panel.Render(s.ErrorText.Render("Error")+"\n"+m.errMsg) + "\n")
	}

	if m.running {
		b.WriteString("\n  " + s.Label.Render("simulating...") + "\n")
	} else if m.result != nil {
		b.WriteString("\n" + m.chart + "\n\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.MetricsTable(m.result.Metrics), "  ", s.LoopSummary(m.result)) + "\n")
	}

	b.WriteString("\n  " + s.KeyHint.Render("tab/↑↓ move  ←→ input  enter generate  esc quit") + "\n")
	return b.String()
}
