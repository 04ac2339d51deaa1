package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jobportal/internal/theme"
)

// CommandMsg is emitted when the user executes a command. It carries the
// command's canonical name when the input named a known command or alias.
type CommandMsg string

// Command is one palette entry.
type Command struct {
	Name    string
	Aliases []string
	Desc    string
}

func (c Command) names() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// Model is the command palette view.
type Model struct {
	input    textinput.Model
	commands []Command
	cursor   int
	browsing bool
	width    int
	height   int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// SetCommands replaces the commands offered for the current session.
func (m *Model) SetCommands(commands []Command) {
	m.commands = commands
	m.cursor = 0
}

// Matches returns the commands whose name or an alias starts with the
// typed text, in palette order.
func (m Model) Matches() []Command {
	typed := strings.ToLower(strings.TrimSpace(m.input.Value()))
	if typed == "" {
		return m.commands
	}
	var out []Command
	for _, c := range m.commands {
		for _, n := range c.names() {
			if strings.HasPrefix(n, typed) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Resolve maps typed text to a command's canonical name. Unknown text is
// returned as typed.
func (m Model) Resolve(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, c := range m.commands {
		for _, n := range c.names() {
			if n == text {
				return c.Name
			}
		}
	}
	return text
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		matches := m.Matches()
		switch msg.String() {
		case "enter":
			typed := strings.TrimSpace(m.input.Value())
			name := m.Resolve(typed)
			if !m.known(name) && (typed != "" || m.browsing) && m.cursor < len(matches) {
				name = matches[m.cursor].Name
			}
			m.input.Reset()
			m.cursor = 0
			m.browsing = false
			if name == "" {
				return m, nil
			}
			return m, func() tea.Msg { return CommandMsg(name) }
		case "tab":
			if m.cursor < len(matches) {
				m.input.SetValue(matches[m.cursor].Name)
				m.input.CursorEnd()
				m.cursor = 0
			}
			return m, nil
		case "down", "ctrl+n":
			m.browsing = true
			if m.cursor < len(matches)-1 {
				m.cursor++
			}
			return m, nil
		case "up", "ctrl+p":
			m.browsing = true
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.cursor = 0
	}
	return m, cmd
}

func (m Model) known(name string) bool {
	for _, c := range m.commands {
		if c.Name == name {
			return true
		}
	}
	return false
}

// View renders the command palette.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Command Palette")
	hint := theme.HelpStyle.Render("↑/↓ select · tab complete · enter run · esc close")

	parts := []string{title, m.input.View(), ""}
	matches := m.Matches()
	if len(matches) == 0 {
		parts = append(parts, theme.DimmedStyle.Render("No matching command"))
	}
	for i, c := range matches {
		line := Line(c)
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		}
		parts = append(parts, line)
	}
	parts = append(parts, "", hint)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// Line renders a command with its aliases and description.
func Line(c Command) string {
	name := ":" + c.Name
	if len(c.Aliases) > 0 {
		name += " (" + strings.Join(c.Aliases, ", ") + ")"
	}
	return lipgloss.NewStyle().Width(32).Render(name) + theme.DimmedStyle.Render(c.Desc)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
