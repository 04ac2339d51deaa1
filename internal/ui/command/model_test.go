package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionCommands = []Command{
	{Name: "jobs", Desc: "Recommended, applied and saved jobs"},
	{Name: "alerts", Desc: "Job alerts"},
	{Name: "refresh", Aliases: []string{"sync"}, Desc: "Reload"},
	{Name: "sign out", Aliases: []string{"logout"}, Desc: "Forget the saved token"},
	{Name: "quit", Aliases: []string{"q"}, Desc: "Exit"},
}

func newPalette() Model {
	m := New(80, 24)
	m.SetCommands(sessionCommands)
	return m
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func press(m Model, t tea.KeyType) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: t})
}

func run(t *testing.T, m Model) (Model, tea.Msg) {
	t.Helper()
	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestEnterRunsCanonicalName(t *testing.T) {
	tests := []struct {
		name  string
		typed string
		want  CommandMsg
	}{
		{"exact name", "alerts", "alerts"},
		{"alias", "logout", "sign out"},
		{"mixed case", "  SYNC ", "refresh"},
		{"prefix runs first match", "al", "alerts"},
		{"single letter alias", "q", "quit"},
		{"unknown passes through", "dance", "dance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, msg := run(t, typeText(newPalette(), tt.typed))
			assert.Equal(t, tt.want, msg)
			assert.Empty(t, m.input.Value())
		})
	}
}

func TestEnterOnEmptyInputDoesNothing(t *testing.T) {
	_, msg := run(t, newPalette())
	assert.Nil(t, msg)
}

func TestArrowKeysSelectAmongMatches(t *testing.T) {
	m := newPalette()
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyUp)

	_, msg := run(t, m)
	assert.Equal(t, CommandMsg("alerts"), msg)
}

func TestMatchesFilterByNameAndAlias(t *testing.T) {
	m := typeText(newPalette(), "s")
	var names []string
	for _, c := range m.Matches() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"refresh", "sign out"}, names)

	m = typeText(newPalette(), "zz")
	assert.Empty(t, m.Matches())
	assert.Contains(t, m.View(), "No matching command")
}

func TestTabCompletesSelectedMatch(t *testing.T) {
	m := typeText(newPalette(), "si")
	m, cmd := press(m, tea.KeyTab)
	assert.Nil(t, cmd)
	assert.Equal(t, "sign out", m.input.Value())
}

func TestViewListsDescriptions(t *testing.T) {
	view := newPalette().View()
	require.Contains(t, view, ":sign out (logout)")
	assert.Contains(t, view, "Forget the saved token")
}
