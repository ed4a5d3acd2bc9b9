// Package ui provides the interactive terminal pickers.
// Rows are rendered as plain text; nothing a page supplies is ever evaluated.
package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user quits a picker without confirming.
var ErrCancelled = errors.New("selection cancelled")

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Row is one selectable line. Label is fixed; Title can be edited in place.
type Row struct {
	Label   string
	Title   string
	Checked bool
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	None    key.Binding
	Edit    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.All, k.None, k.Edit, k.Confirm, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, k.ShortHelp()}
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
	None:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "none")),
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "import")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "cancel")),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	checkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// picker is a multi-select list model. While editing, keys go to input
// until enter commits the title or esc drops the change.
type picker struct {
	title     string
	rows      []Row
	cursor    int
	editing   bool
	input     textinput.Model
	done      bool
	cancelled bool
	help      help.Model
}

func newPicker(title string, rows []Row) picker {
	r := make([]Row, len(rows))
	copy(r, rows)
	in := textinput.New()
	in.Prompt = "title: "
	return picker{title: title, rows: r, input: in, help: help.New()}
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		if m.editing {
			return m.updateEdit(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, keys.Confirm):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			if len(m.rows) > 0 {
				m.rows[m.cursor].Checked = !m.rows[m.cursor].Checked
			}
		case key.Matches(msg, keys.All):
			m.setAll(true)
		case key.Matches(msg, keys.None):
			m.setAll(false)
		case key.Matches(msg, keys.Edit):
			if len(m.rows) > 0 {
				m.editing = true
				m.input.SetValue(m.rows[m.cursor].Title)
				m.input.CursorEnd()
				cmd := m.input.Focus()
				return m, cmd
			}
		}
	}
	return m, nil
}

func (m picker) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if v := strings.TrimSpace(m.input.Value()); v != "" {
			m.rows[m.cursor].Title = v
		}
		m.stopEdit()
		return m, nil
	case tea.KeyEsc:
		m.stopEdit()
		return m, nil
	case tea.KeyCtrlC:
		m.cancelled = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *picker) stopEdit() {
	m.editing = false
	m.input.Blur()
	m.input.Reset()
}

func (m *picker) setAll(v bool) {
	for i := range m.rows {
		m.rows[i].Checked = v
	}
}

func (m picker) count() int {
	n := 0
	for _, r := range m.rows {
		if r.Checked {
			n++
		}
	}
	return n
}

func (m picker) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d/%d selected)", m.title, m.count(), len(m.rows))))
	b.WriteString("\n")

	for i, row := range m.rows {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		text := row.Label
		if row.Title != "" {
			text = fmt.Sprintf("%s  %s", row.Label, row.Title)
		}
		box := dimStyle.Render("[ ]")
		line := dimStyle.Render(text)
		if row.Checked {
			box = checkedStyle.Render("[x]")
			line = text
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, box, line)
		if m.editing && i == m.cursor {
			fmt.Fprintf(&b, "      %s\n", m.input.View())
		}
	}

	b.WriteString("\n")
	if m.editing {
		b.WriteString(dimStyle.Render("enter save • esc discard"))
		return b.String()
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

// MultiSelect shows rows with checkboxes and returns them, with the user's
// selection and title edits applied, once the user confirms. It draws on
// stderr so stdout stays clean for piping. The input slice is not modified.
func MultiSelect(title string, rows []Row) ([]Row, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no items to select from")
	}

	p := tea.NewProgram(newPicker(title, rows), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running picker: %w", err)
	}

	m := final.(picker)
	if m.cancelled {
		return nil, ErrCancelled
	}
	return m.rows, nil
}
