package alerts

import (
	"context"
	"fmt"
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
	AlertCount(ctx context.Context, userID model.ID) (int, error)
	AlertPage(ctx context.Context, userID model.ID, page, size int) ([]model.JobAlert, error)
	MarkAlertSeen(ctx context.Context, alertID model.ID) error
}

// CountMsg carries the total alert count.
type CountMsg struct {
	Ticket uint64
	Count  int
	Err    error
}

// PageMsg carries one page of alerts.
type PageMsg struct {
	Ticket uint64
	Page   int
	Items  []model.JobAlert
	Count  int
	Cached bool
	Err    error
}

// SeenMsg reports a mark-seen result.
type SeenMsg struct {
	ID  model.ID
	Err error
}

// Model is the paginated job alert list.
type Model struct {
	api     API
	cache   ui.PageCache
	keys    *keys.KeyMap
	userID  model.ID
	loc     *time.Location
	list    paging.List[model.JobAlert]
	tracker *paging.Tracker
	applied uint64
	counted bool
	cursor  int
	loading bool
	err     string
	spinner spinner.Model
	width   int
	height  int
}

// New creates the alert list for userID.
func New(api API, cache ui.PageCache, k *keys.KeyMap, userID model.ID, pageSize, width, height int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		api:     api,
		cache:   cache,
		keys:    k,
		userID:  userID,
		loc:     time.Local,
		list:    paging.NewList[model.JobAlert](pageSize),
		tracker: &paging.Tracker{},
		loading: true,
		spinner: s,
		width:   width,
		height:  height,
	}
}

func (m Model) resource() string {
	return "alerts/" + m.userID.String()
}

// Init fetches the count and the first page.
func (m Model) Init() tea.Cmd {
	return m.reload()
}

// Reload re-fetches count and current page.
func (m *Model) Reload() tea.Cmd {
	return m.reload()
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	m.counted = false
	ticket := m.tracker.Begin()
	page := m.list.Pager.Page
	return tea.Batch(m.spinner.Tick, m.cachedPage(page, ticket), m.fetchCount(ticket), m.fetchPage(page, ticket))
}

func (m *Model) loadPage() tea.Cmd {
	m.loading = true
	ticket := m.tracker.Begin()
	page := m.list.Pager.Page
	return tea.Batch(m.spinner.Tick, m.fetchPage(page, ticket))
}

func (m Model) fetchCount(ticket uint64) tea.Cmd {
	api, uid := m.api, m.userID
	return func() tea.Msg {
		n, err := api.AlertCount(context.Background(), uid)
		return CountMsg{Ticket: ticket, Count: n, Err: err}
	}
}

func (m Model) fetchPage(page int, ticket uint64) tea.Cmd {
	api, uid, size := m.api, m.userID, m.list.Pager.Size
	return func() tea.Msg {
		items, err := api.AlertPage(context.Background(), uid, page-1, size)
		return PageMsg{Ticket: ticket, Page: page, Items: items, Err: err}
	}
}

func (m Model) cachedPage(page int, ticket uint64) tea.Cmd {
	if m.cache == nil {
		return nil
	}
	cache, res := m.cache, m.resource()
	return func() tea.Msg {
		items, count, ok := ui.ReadCached[model.JobAlert](cache, res, page)
		if !ok {
			return nil
		}
		return PageMsg{Ticket: ticket, Page: page, Items: items, Count: count, Cached: true}
	}
}

// Update handles messages for the alert list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case CountMsg:
		if !m.tracker.Current(msg.Ticket) {
			return m, nil
		}
		if msg.Err != nil {
			return m, func() tea.Msg { return ui.ErrorMsg("alert count", msg.Err, "Could not load alert count") }
		}
		m.counted = true
		if m.list.Pager.SetCount(msg.Count) {
			return m, m.loadPage()
		}
		return m, nil

	case PageMsg:
		if !m.tracker.Current(msg.Ticket) {
			return m, nil
		}
		if msg.Cached {
			if m.applied != msg.Ticket {
				m.list.SetPage(msg.Items)
				if !m.counted {
					m.list.Pager.Count = msg.Count
				}
				m.cursor = ui.MoveCursor(m.cursor, 0, len(m.list.Items))
			}
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not load job alerts"
			return m, func() tea.Msg { return ui.ErrorMsg("alert page", msg.Err, m.err) }
		}
		m.err = ""
		m.applied = msg.Ticket
		m.list.SetPage(msg.Items)
		m.cursor = ui.MoveCursor(m.cursor, 0, len(m.list.Items))
		cache, res, count, items, page := m.cache, m.resource(), m.list.Pager.Count, msg.Items, msg.Page
		return m, func() tea.Msg {
			ui.WriteCached(cache, res, page, count, items)
			return nil
		}

	case SeenMsg:
		if msg.Err != nil {
			return m, func() tea.Msg { return ui.ErrorMsg("mark alert seen", msg.Err, "Could not mark alert as seen") }
		}
		_, refetch := m.list.Splice(msg.ID.String())
		m.cursor = ui.MoveCursor(m.cursor, 0, len(m.list.Items))
		cache, res := m.cache, m.resource()
		cmds := []tea.Cmd{
			ui.RefreshUnread,
			func() tea.Msg {
				ui.Invalidate(cache, res)
				return nil
			},
		}
		if refetch {
			cmds = append(cmds, m.loadPage())
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !m.loading {
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
	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor = ui.MoveCursor(m.cursor, 1, len(m.list.Items))
	case key.Matches(msg, m.keys.Up):
		m.cursor = ui.MoveCursor(m.cursor, -1, len(m.list.Items))
	case key.Matches(msg, m.keys.NextPage):
		if m.list.Pager.Next() {
			m.cursor = 0
			return m, m.loadPage()
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.list.Pager.Prev() {
			m.cursor = 0
			return m, m.loadPage()
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()
	case key.Matches(msg, m.keys.MarkRead), key.Matches(msg, m.keys.Select):
		if m.cursor >= len(m.list.Items) {
			return m, nil
		}
		alert := m.list.Items[m.cursor]
		api := m.api
		return m, func() tea.Msg {
			return SeenMsg{ID: alert.ID, Err: api.MarkAlertSeen(context.Background(), alert.ID)}
		}
	}
	return m, nil
}

// Pager returns the current pager state.
func (m Model) Pager() paging.Pager { return m.list.Pager }

// View renders the alert list.
func (m Model) View() string {
	title := theme.TitleStyle.Render(fmt.Sprintf("Job Alerts (%d)", m.list.Pager.Count))

	var body string
	switch {
	case len(m.list.Items) == 0 && m.loading:
		body = m.spinner.View() + " Loading alerts..."
	case len(m.list.Items) == 0 && m.err != "":
		body = theme.ErrorStyle.Render(m.err)
	case len(m.list.Items) == 0:
		body = ui.EmptyState(m.width, m.height-4, "No job alerts.\nYou'll be notified when a recruiter updates an application.")
	default:
		lines := make([]string, len(m.list.Items))
		for i, a := range m.list.Items {
			lines[i] = m.renderLine(a)
		}
		body = ui.RenderRows(lines, m.cursor)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title, body, "",
		ui.RenderPager(m.list.Pager),
		theme.HelpStyle.Render("m/enter mark seen"),
	)
}

func (m Model) renderLine(a model.JobAlert) string {
	marker := "  "
	if !a.Seen {
		marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("● ")
	}
	line := marker + lipgloss.NewStyle().Bold(true).Render(a.JobTitle)
	if a.Company != "" {
		line += "  " + theme.DimmedStyle.Render(a.Company)
	}
	if a.Status != "" {
		line += "  " + theme.ApplicationStatusStyle(a.Status).Render(a.Status)
	}
	if when := ui.When(a.ChangedAt, m.loc); when != "" {
		line += "  " + theme.DimmedStyle.Render(when)
	}
	return line
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
