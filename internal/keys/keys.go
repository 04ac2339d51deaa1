package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Paging and tabs
	NextPage key.Binding
	PrevPage key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding

	// Item actions
	Save      key.Binding
	Remove    key.Binding
	Status    key.Binding
	Open      key.Binding
	MarkRead  key.Binding
	DeleteAll key.Binding
	Copy      key.Binding
	CopyAlt   key.Binding
	Watched   key.Binding

	// Recruiter actions
	New     key.Binding
	Export  key.Binding
	Winners key.Binding

	// Sign-in and password reset forms
	Forgot    key.Binding
	Resend    key.Binding
	FetchCode key.Binding

	// Views
	Dashboard     key.Binding
	Alerts        key.Binding
	Notifications key.Binding
	Mentor        key.Binding
	Videos        key.Binding
	SignIn        key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "right", "pgdown"),
			key.WithHelp("n/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "left", "pgup"),
			key.WithHelp("p/←", "prev page"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "remove"),
		),
		Status: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "check status"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open link"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read/seen"),
		),
		DeleteAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "delete all"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy link"),
		),
		CopyAlt: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy calendar link"),
		),
		Watched: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "mark watched"),
		),
		New: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "new hackathon"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export xlsx"),
		),
		Winners: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "declare winners"),
		),
		Forgot: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "forgot password"),
		),
		Resend: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "resend code"),
		),
		FetchCode: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "code from mail"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "jobs / hackathons"),
		),
		Alerts: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "job alerts"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "notifications"),
		),
		Mentor: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "mentor sessions"),
		),
		Videos: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "videos"),
		),
		SignIn: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sign in"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Command,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Command, k.Help, k.Refresh, k.SignIn},
		{k.Forgot, k.Resend, k.FetchCode},
		{k.NextPage, k.PrevPage, k.NextTab, k.PrevTab},
		{k.Save, k.Remove, k.Status, k.Open, k.MarkRead, k.DeleteAll},
		{k.Copy, k.CopyAlt, k.Watched, k.New, k.Export, k.Winners},
		{k.Dashboard, k.Alerts, k.Notifications, k.Mentor, k.Videos},
	}
}
