package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/logs"
)

func newTestForm() Form {
	cfg := experiment.DefaultConfig()
	cfg.Samples = 300
	return NewForm(Options{Config: cfg, Theme: "minimal", Factory: logs.Discard()})
}

func press(t *testing.T, m Form, keys ...tea.KeyMsg) (Form, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Form)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	tab       = tea.KeyMsg{Type: tea.KeyTab}
	enter     = tea.KeyMsg{Type: tea.KeyEnter}
	backspace = tea.KeyMsg{Type: tea.KeyBackspace}
	right     = tea.KeyMsg{Type: tea.KeyRight}
)

func TestNewForm_Defaults(t *testing.T) {
	m := newTestForm()
	want := [3]string{"5.0", "2.0", "0.5"}
	if m.fields != want {
		t.Errorf("expected fields %v, got %v", want, m.fields)
	}
	if inputs[m.input] != experiment.Step {
		t.Errorf("expected step input, got %v", inputs[m.input])
	}

	view := m.View()
	for _, s := range []string{"Kp", "Ki", "Kd", "Step", "Ramp", "Sinusoidal", "Generate Plot"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q", s)
		}
	}
}

func TestForm_EditField(t *testing.T) {
	m := newTestForm()
	m, _ = press(t, m, backspace, backspace, backspace, runes("12.5"), runes("x"))
	if m.fields[0] != "12.5" {
		t.Errorf("expected Kp field 12.5, got %q", m.fields[0])
	}

	m, _ = press(t, m, enter)
	if m.focus != focusKi {
		t.Errorf("enter should move focus to Ki, got %d", m.focus)
	}
}

func TestForm_SelectInput(t *testing.T) {
	m := newTestForm()
	m, _ = press(t, m, tab, tab, tab, right)
	if inputs[m.input] != experiment.Ramp {
		t.Errorf("expected ramp, got %v", inputs[m.input])
	}
	m, _ = press(t, m, right, right)
	if inputs[m.input] != experiment.Step {
		t.Errorf("selector should wrap to step, got %v", inputs[m.input])
	}
}

func TestForm_Generate(t *testing.T) {
	m := newTestForm()
	m, cmd := press(t, m, tab, tab, tab, tab, enter)
	if cmd == nil {
		t.Fatal("expected a simulation command")
	}
	if !m.running {
		t.Error("expected running state while simulating")
	}

	next, _ := m.Update(cmd())
	m = next.(Form)
	if m.running {
		t.Error("expected running to clear after the result")
	}
	if m.result == nil {
		t.Fatal("expected a result")
	}
	if m.result.Input != "step" || m.result.Gains != experiment.DefaultGains() {
		t.Errorf("unexpected result %s %v", m.result.Input, m.result.Gains)
	}
	if !strings.Contains(m.View(), "PID Control Response to step") {
		t.Error("expected chart caption in view")
	}
}

func TestForm_InvalidGains(t *testing.T) {
	m := newTestForm()
	m, _ = press(t, m, tab, backspace, backspace, backspace, runes("."))

	m, cmd := press(t, m, tab, tab, tab, enter)
	if cmd != nil {
		t.Error("invalid gains must not start a simulation")
	}
	if m.errMsg != InvalidGainsMessage {
		t.Errorf("expected %q, got %q", InvalidGainsMessage, m.errMsg)
	}
	if m.result != nil || m.running {
		t.Error("failed attempt left state behind")
	}
	if !strings.Contains(m.View(), InvalidGainsMessage) {
		t.Error("expected error dialog in view")
	}

	m, _ = press(t, m, runes("a"))
	if m.errMsg != "" {
		t.Error("any key should dismiss the error")
	}
	if m.focus != focusGenerate {
		t.Error("dismissing the error should not move focus")
	}
}

func TestForm_InvalidGainsKeepsPreviousResult(t *testing.T) {
	m := newTestForm()
	m, cmd := press(t, m, tab, tab, tab, tab, enter)
	next, _ := m.Update(cmd())
	m = next.(Form)
	prev := m.result

	m, _ = press(t, m, tab, backspace, backspace, backspace, backspace)
	m, cmd = press(t, m, tab, tab, tab, tab, enter)
	if cmd != nil || m.errMsg != InvalidGainsMessage {
		t.Fatalf("expected rejection, got cmd=%v err=%q", cmd != nil, m.errMsg)
	}
	if m.result != prev {
		t.Error("rejected input should not replace the previous result")
	}
}

func TestForm_WindowResize(t *testing.T) {
	m := newTestForm()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	m = next.(Form)
	if m.width != 60 || m.height != 30 {
		t.Errorf("expected 60x30, got %dx%d", m.width, m.height)
	}
}

func TestForm_Quit(t *testing.T) {
	m := newTestForm()
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestFormStaysAValue(t *testing.T) {
	var tm tea.Model = newTestForm()
	for _, msg := range []tea.Msg{tea.WindowSizeMsg{Width: 120, Height: 40}, runes("x"), tea.KeyMsg{Type: tea.KeyTab}} {
		tm, _ = tm.Update(msg)
		if _, ok := tm.(Form); !ok {
			t.Fatalf("Update(%T) returned %T, want Form", msg, tm)
		}
	}
	if f := tm.(Form); f.width != 120 || f.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", f.width, f.height)
	}
}
