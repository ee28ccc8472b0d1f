// Package browser provides a terminal UI for drilling through a BOM.
//
// The browser keeps a stack of screens. An assembly screen lists the
// children of one assembly; a part screen lists a part's attributes.
// Enter pushes a screen and esc pops it.
//
// The model is meant for the single-threaded bubbletea event loop.
package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/render"
	"github.com/leapstack-labs/leapbom/internal/table"
)

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Back  key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter: key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "open")),
		Back:  key.NewBinding(key.WithKeys("esc", "left", "h", "backspace"), key.WithHelp("esc", "back")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

type screen struct {
	node   bom.Node
	cursor int
}

func (s screen) isPart() bool {
	return !s.node.IsAssembly()
}

// Model is the bubbletea model of the browser.
type Model struct {
	stack    []screen
	keys     keyMap
	help     help.Model
	quitting bool
}

// New creates a browser showing the children of start.
func New(start bom.Assembly) Model {
	return Model{
		stack: []screen{{node: start.Node}},
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
}

// Run shows the browser on the terminal until the user quits.
func Run(start bom.Assembly) error {
	_, err := tea.NewProgram(New(start), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.move(-1)
		case key.Matches(msg, m.keys.Down):
			m.move(1)
		case key.Matches(msg, m.keys.Enter):
			m.open()
		case key.Matches(msg, m.keys.Back):
			if len(m.stack) > 1 {
				m.stack = m.stack[:len(m.stack)-1]
			}
		}
	}
	return m, nil
}

func (m *Model) top() *screen {
	return &m.stack[len(m.stack)-1]
}

func (m *Model) move(delta int) {
	s := m.top()
	if s.isPart() {
		return
	}
	n := len(s.node.Children())
	if n == 0 {
		return
	}
	s.cursor = (s.cursor + delta + n) % n
}

func (m *Model) open() {
	s := m.top()
	if s.isPart() {
		return
	}
	children := s.node.Children()
	if len(children) == 0 {
		return
	}
	child := children[s.cursor]
	m.stack = append(m.stack, screen{node: child.Target()})
}

// Breadcrumb returns the path of part numbers from the first screen to the
// current one, e.g. "Top > Sub".
func (m Model) Breadcrumb() string {
	pns := make([]string, len(m.stack))
	for i, s := range m.stack {
		pns[i] = s.node.PN()
	}
	return strings.Join(pns, " > ")
}

// Current returns the node shown on the current screen.
func (m Model) Current() bom.Node {
	return m.stack[len(m.stack)-1].node
}

// Cursor returns the selected row of the current screen.
func (m Model) Cursor() int {
	return m.stack[len(m.stack)-1].cursor
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Breadcrumb()))
	b.WriteString("\n\n")

	s := m.stack[len(m.stack)-1]
	if s.isPart() {
		b.WriteString(partView(s.node))
	} else {
		b.WriteString(assemblyView(s))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func assemblyView(s screen) string {
	children := s.node.Children()
	if len(children) == 0 {
		return dimStyle.Render("(empty assembly)") + "\n"
	}

	showQTY := false
	qtys := make([]string, len(children))
	pnWidth := 0
	for i, c := range children {
		if q, ok := render.PlacementQTY(c); ok {
			qtys[i] = fmt.Sprintf("x%d", q)
			if q > 1 {
				showQTY = true
			}
		}
		pnWidth = max(pnWidth, len(c.PN()))
	}

	var b strings.Builder
	for i, c := range children {
		prefix := "[P]"
		if c.IsAssembly() {
			prefix = "[A]"
		}
		line := fmt.Sprintf("%s %-*s  %s", prefix, pnWidth, c.PN(), c.Name())
		if showQTY {
			line = fmt.Sprintf("%s %-*s  %-6s %s", prefix, pnWidth, c.PN(), qtys[i], c.Name())
		}
		line = strings.TrimRight(line, " ")
		if i == s.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func partView(n bom.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", render.Label(n))
	attrs := n.Attrs()
	if len(attrs) == 0 {
		b.WriteString(dimStyle.Render("(not in parts list)") + "\n")
		return b.String()
	}
	width := 0
	for _, a := range attrs {
		width = max(width, len(a.Name))
	}
	for _, a := range attrs {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, a.Name, table.FormatValue(a.Value))
	}
	return b.String()
}
