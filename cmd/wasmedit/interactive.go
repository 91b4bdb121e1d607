package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasmedit/inspect"
	"github.com/wippyai/wasmedit/wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	offsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFunc modelState = iota
	stateShowBody
)

// headerHeight is the number of lines View prints above the viewport.
const headerHeight = 3

type browserModel struct {
	err      error
	module   *wasm.Module
	filename string
	funcs    []inspect.Func
	body     viewport.Model
	selected int
	width    int
	height   int
	state    modelState
}

type loadedMsg struct {
	err   error
	funcs []inspect.Func
}

func newBrowserModel(filename string, m *wasm.Module) *browserModel {
	return &browserModel{
		module:   m,
		filename: filename,
		body:     viewport.New(80, 20),
		state:    stateSelectFunc,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.load
}

func (m *browserModel) load() tea.Msg {
	s, err := inspect.Summarize(m.module)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{funcs: s.Funcs}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.body.Width = msg.Width
		m.body.Height = max(msg.Height-headerHeight-2, 1)
		return m, nil

	case loadedMsg:
		m.err = msg.err
		m.funcs = msg.funcs
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc":
			if m.state == stateShowBody {
				m.state = stateSelectFunc
				m.err = nil
			}
			return m, nil

		case "enter":
			if m.state == stateSelectFunc && len(m.funcs) > 0 {
				m.openSelected()
			}
			return m, nil
		}

		if m.state == stateSelectFunc {
			switch msg.String() {
			case "up", "k":
				if m.selected > 0 {
					m.selected--
				}
			case "down", "j":
				if m.selected < len(m.funcs)-1 {
					m.selected++
				}
			}
			return m, nil
		}
	}

	if m.state == stateShowBody {
		var cmd tea.Cmd
		m.body, cmd = m.body.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *browserModel) openSelected() {
	f := m.funcs[m.selected]
	m.state = stateShowBody
	if f.Imported {
		m.body.SetContent(helpStyle.Render("imported from " + f.Import + ", no body"))
		m.body.GotoTop()
		return
	}
	lines, err := inspect.Listing(m.module, f.Index)
	if err != nil {
		m.err = err
		return
	}
	m.body.SetContent(renderListing(lines))
	m.body.GotoTop()
}

func renderListing(lines []inspect.Line) string {
	var b strings.Builder
	for _, l := range lines {
		off := "      "
		if l.Start >= 0 {
			off = fmt.Sprintf("%06x", l.Start)
		}
		b.WriteString(offsetStyle.Render(off))
		b.WriteString("  ")
		b.WriteString(strings.Repeat("  ", l.Depth))
		name, rest, _ := strings.Cut(l.Text, " ")
		b.WriteString(funcStyle.Render(name))
		if rest != "" {
			b.WriteString(" " + rest)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *browserModel) View() string {
	if m.err != nil && m.state == stateSelectFunc {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.funcs == nil {
		return "Loading module..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("WASM Inspect"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function:\n\n")
		for i, f := range m.funcs {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + formatFunc(f)))
			} else {
				b.WriteString("  " + formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter show body • q quit"))

	case stateShowBody:
		f := m.funcs[m.selected]
		fmt.Fprintf(&b, "func[%d] %s\n", f.Index, typeStyle.Render(f.Type.String()))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(m.body.View())
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}
	return b.String()
}

func formatFunc(f inspect.Func) string {
	label := f.Label()
	if label != "" {
		label = " " + label
	}
	return fmt.Sprintf("func[%d] %s%s", f.Index, f.Type, label)
}

func runInteractive(gs *globalState, m *wasm.Module) error {
	name := gs.flags.in
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(gs.ctx), tea.WithOutput(gs.stdout)}
	if isStdio(name) {
		// stdin carried the module, read keys from the terminal instead.
		name = "stdin"
		opts = append(opts, tea.WithInputTTY())
	}
	p := tea.NewProgram(newBrowserModel(name, m), opts...)
	_, err := p.Run()
	return err
}
