package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/pybridge/bridge"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// scrollback is how many evaluated entries stay on screen.
const scrollback = 20

type entry struct {
	src    string
	output string
	failed bool
}

type modelState int

const (
	stateReady modelState = iota
	stateRunning
)

type interactiveModel struct {
	w       *worker
	input   textinput.Model
	entries []entry
	history []string
	histIdx int
	mode    bridge.Mode
	asJSON  bool
	state   modelState
}

type evalResultMsg struct {
	src string
	result
}

func newInteractiveModel(w *worker, mode bridge.Mode, asJSON bool) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = ">>> "
	ti.PromptStyle = promptStyle
	ti.Placeholder = "expression or statement"
	ti.Width = 72
	ti.Focus()

	return &interactiveModel{
		w:      w,
		input:  ti,
		mode:   mode,
		asJSON: asJSON,
		state:  stateReady,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) evalCmd(src string) tea.Cmd {
	mode, asJSON := m.mode, m.asJSON
	return func() tea.Msg {
		return evalResultMsg{src: src, result: m.w.eval(src, mode, asJSON)}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			return m, tea.Quit

		case "ctrl+l":
			m.entries = nil
			return m, nil

		case "up":
			if len(m.history) > 0 && m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil

		case "enter":
			if m.state == stateRunning {
				return m, nil
			}
			src := strings.TrimSpace(m.input.Value())
			if src == "" {
				return m, nil
			}
			if src == "exit()" || src == "quit()" {
				return m, tea.Quit
			}
			m.history = append(m.history, src)
			m.histIdx = len(m.history)
			m.input.SetValue("")
			m.state = stateRunning
			return m, m.evalCmd(src)
		}

	case evalResultMsg:
		e := entry{src: msg.src, output: msg.output}
		if msg.err != nil {
			e.output = traceback(msg.err)
			e.failed = true
		}
		m.entries = append(m.entries, e)
		if len(m.entries) > scrollback {
			m.entries = m.entries[len(m.entries)-scrollback:]
		}
		m.state = stateReady
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Python " + m.w.version))
	b.WriteString(" ")
	mode := "auto"
	if m.mode != modeAuto {
		mode = m.mode.String()
	}
	b.WriteString(modeStyle.Render(mode))
	b.WriteString("\n\n")

	for _, e := range m.entries {
		b.WriteString(promptStyle.Render(">>> "))
		b.WriteString(e.src)
		b.WriteString("\n")
		switch {
		case e.failed:
			b.WriteString(errorStyle.Render(e.output))
			b.WriteString("\n")
		case e.output != "":
			b.WriteString(resultStyle.Render(e.output))
			b.WriteString("\n")
		}
	}

	if m.state == stateRunning {
		b.WriteString(helpStyle.Render("running..."))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • ↑/↓ history • ctrl+l clear • ctrl+d quit"))

	return b.String()
}

func runInteractive(w *worker, mode bridge.Mode, asJSON bool) error {
	p := tea.NewProgram(newInteractiveModel(w, mode, asJSON), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
