package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jobportal/internal/keys"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/paging"
	"github.com/nhle/jobportal/internal/theme"
	"github.com/nhle/jobportal/internal/ui"
)

// API is the slice of the portal client this view needs.
type API interface {
	Notifications(ctx context.Context, userID model.ID) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id model.ID) error
	DeleteNotification(ctx context.Context, id model.ID) error
	DeleteAllNotifications(ctx context.Context, userID model.ID) error
}

// LoadedMsg carries the fetched inbox.
type LoadedMsg struct {
	Items []model.Notification
	Err   error
}

// ReadMsg reports a mark-read result.
type ReadMsg struct {
	ID  model.ID
	Err error
}

// DeletedMsg reports a single delete result.
type DeletedMsg struct {
	ID  model.ID
	Err error
}

// ClearedMsg reports a delete-all result.
type ClearedMsg struct {
	Err error
}

// Model is the notification inbox.
type Model struct {
	api        API
	keys       *keys.KeyMap
	userID     model.ID
	loc        *time.Location
	items      []model.Notification
	cursor     int
	expanded   bool
	confirmAll bool
	loading    bool
	loaded     bool
	err        string
	spinner    spinner.Model
	width      int
	height     int
}

// New creates the notifications view for userID.
func New(api API, k *keys.KeyMap, userID model.ID, width, height int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		api:     api,
		keys:    k,
		userID:  userID,
		loc:     time.Local,
		spinner: s,
		width:   width,
		height:  height,
	}
}

// Init starts the initial fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.Load())
}

// Load fetches the inbox.
func (m Model) Load() tea.Cmd {
	api, uid := m.api, m.userID
	return func() tea.Msg {
		items, err := api.Notifications(context.Background(), uid)
		return LoadedMsg{Items: items, Err: err}
	}
}

// Unread returns the number of unread notifications currently loaded.
func (m Model) Unread() int {
	n := 0
	for _, it := range m.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// Update handles messages for the notifications view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not load notifications"
			return m, func() tea.Msg { return ui.ErrorMsg("notifications", msg.Err, m.err) }
		}
		m.loaded = true
		m.err = ""
		m.items = msg.Items
		m.cursor = ui.MoveCursor(m.cursor, 0, len(m.items))
		return m, nil

	case ReadMsg:
		if msg.Err != nil {
			return m, func() tea.Msg { return ui.ErrorMsg("mark read", msg.Err, "Could not mark as read") }
		}
		for i := range m.items {
			if m.items[i].ID == msg.ID {
				m.items[i].Read = true
			}
		}
		return m, ui.RefreshUnread

	case DeletedMsg:
		if msg.Err != nil {
			return m, func() tea.Msg { return ui.ErrorMsg("delete notification", msg.Err, "Could not delete notification") }
		}
		m.items = paging.Remove(m.items, msg.ID.String())
		m.cursor = ui.MoveCursor(m.cursor, 0, len(m.items))
		return m, tea.Batch(ui.RefreshUnread, ui.Notify("Notification deleted"))

	case ClearedMsg:
		if msg.Err != nil {
			return m, func() tea.Msg {
				return ui.ErrorMsg("delete all notifications", msg.Err, "Could not clear notifications")
			}
		}
		m.items = nil
		m.cursor = 0
		return m, tea.Batch(ui.RefreshUnread, ui.Notify("All notifications deleted"))

	case spinner.TickMsg:
		if !m.loading && m.loaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.DeleteAll) {
		m.confirmAll = false
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor = ui.MoveCursor(m.cursor, 1, len(m.items))
		m.expanded = false
	case key.Matches(msg, m.keys.Up):
		m.cursor = ui.MoveCursor(m.cursor, -1, len(m.items))
		m.expanded = false
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.Load())
	}

	n, ok := m.selected()
	if !ok && !key.Matches(msg, m.keys.DeleteAll) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Select):
		m.expanded = !m.expanded
		if m.expanded && !n.Read {
			return m, m.markRead(n.ID)
		}
	case key.Matches(msg, m.keys.MarkRead):
		if !n.Read {
			return m, m.markRead(n.ID)
		}
	case key.Matches(msg, m.keys.Remove):
		api, id := m.api, n.ID
		return m, func() tea.Msg {
			return DeletedMsg{ID: id, Err: api.DeleteNotification(context.Background(), id)}
		}
	case key.Matches(msg, m.keys.Open):
		return m, ui.OpenURL(n.Link)
	case key.Matches(msg, m.keys.DeleteAll):
		if len(m.items) == 0 {
			return m, nil
		}
		if !m.confirmAll {
			m.confirmAll = true
			return m, nil
		}
		m.confirmAll = false
		api, uid := m.api, m.userID
		return m, func() tea.Msg {
			return ClearedMsg{Err: api.DeleteAllNotifications(context.Background(), uid)}
		}
	}
	return m, nil
}

func (m Model) markRead(id model.ID) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		return ReadMsg{ID: id, Err: api.MarkNotificationRead(context.Background(), id)}
	}
}

func (m Model) selected() (model.Notification, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return model.Notification{}, false
	}
	return m.items[m.cursor], true
}

// View renders the inbox.
func (m Model) View() string {
	title := theme.TitleStyle.Render(fmt.Sprintf("Notifications (%d unread)", m.Unread()))

	if !m.loaded {
		if m.err != "" {
			return lipgloss.JoinVertical(lipgloss.Left, title, theme.ErrorStyle.Render(m.err))
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, m.spinner.View()+" Loading notifications...")
	}
	if len(m.items) == 0 {
		return ui.EmptyState(m.width, m.height, "You're all caught up.\nNo notifications.")
	}

	lines := make([]string, len(m.items))
	for i, n := range m.items {
		lines[i] = m.renderLine(n)
	}
	body := ui.RenderRows(lines, m.cursor)

	parts := []string{title, body}
	if n, ok := m.selected(); ok && m.expanded {
		parts = append(parts, "", theme.PanelStyle.Width(m.width-4).Render(m.renderDetail(n)))
	}
	if m.confirmAll {
		parts = append(parts, "", theme.ErrorStyle.Render("Press X again to delete all notifications."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderLine(n model.Notification) string {
	marker := "  "
	if !n.Read {
		marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("● ")
	}
	text := n.Subject
	if strings.TrimSpace(text) == "" {
		text = n.Message
	}
	when := ui.When(n.CreatedAt, m.loc)
	width := m.width - lipgloss.Width(when) - 8
	line := marker + ui.Truncate(strings.ReplaceAll(text, "\n", " "), width)
	if when != "" {
		line += "  " + theme.DimmedStyle.Render(when)
	}
	return line
}

func (m Model) renderDetail(n model.Notification) string {
	parts := []string{}
	if n.Subject != "" {
		parts = append(parts, lipgloss.NewStyle().Bold(true).Render(n.Subject))
	}
	parts = append(parts, n.Message)
	if n.Link != "" {
		parts = append(parts, "", theme.DimmedStyle.Render(n.Link+"  (o to open)"))
	}
	return strings.Join(parts, "\n")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
