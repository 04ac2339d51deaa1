package myjobs

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
	JobCount(ctx context.Context, tab model.JobTab, userID model.ID) (int, error)
	JobPage(ctx context.Context, tab model.JobTab, userID model.ID, page, size int) ([]model.Job, error)
	SaveJob(ctx context.Context, userID, jobID model.ID) error
	RemoveSavedJob(ctx context.Context, userID, jobID model.ID) error
	JobStatus(ctx context.Context, userID, jobID model.ID) (*model.JobStatus, error)
}

// CountMsg carries a tab's total count.
type CountMsg struct {
	Tab    model.JobTab
	Ticket uint64
	Count  int
	Err    error
}

// PageMsg carries one page of jobs. Cached pages come from the local
// store and are replaced once the live page arrives.
type PageMsg struct {
	Tab    model.JobTab
	Ticket uint64
	Page   int
	Items  []model.Job
	Count  int
	Cached bool
	Err    error
}

// ActionMsg reports the outcome of save or remove.
type ActionMsg struct {
	Tab   model.JobTab
	JobID model.ID
	Saved bool
	Err   error
}

// StatusMsg carries the application status of an applied job.
type StatusMsg struct {
	JobID  model.ID
	Status *model.JobStatus
	Err    error
}

// Model is the applicant's job dashboard.
type Model struct {
	api      API
	cache    ui.PageCache
	keys     *keys.KeyMap
	userID   model.ID
	tabs     *paging.TabSet[model.JobTab]
	tracker  *paging.Tracker
	applied  uint64
	counted  bool
	items    []model.Job
	statuses map[model.ID]*model.JobStatus
	cursor   int
	expanded bool
	loading  bool
	err      string
	spinner  spinner.Model
	width    int
	height   int
}

// New creates the job dashboard for userID with pageSize jobs per page.
func New(api API, cache ui.PageCache, k *keys.KeyMap, userID model.ID, pageSize, width, height int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		api:      api,
		cache:    cache,
		keys:     k,
		userID:   userID,
		tabs:     paging.NewTabSet(pageSize, model.JobTabs...),
		tracker:  &paging.Tracker{},
		statuses: make(map[model.ID]*model.JobStatus),
		loading:  true,
		spinner:  s,
		width:    width,
		height:   height,
	}
}

// Init loads the first tab.
func (m Model) Init() tea.Cmd {
	return m.reload()
}

func resource(tab model.JobTab, uid model.ID) string {
	return fmt.Sprintf("jobs/%s/%s", tab, uid)
}

// Reload re-fetches both count and page of the active tab.
func (m *Model) Reload() tea.Cmd {
	return m.reload()
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	m.counted = false
	ticket := m.tracker.Begin()
	tab := m.tabs.Active()
	page := m.tabs.Pager().Page
	return tea.Batch(
		m.spinner.Tick,
		m.cachedPage(tab, page, ticket),
		m.fetchCount(tab, ticket),
		m.fetchPage(tab, page, ticket),
	)
}

func (m *Model) loadPage() tea.Cmd {
	m.loading = true
	ticket := m.tracker.Begin()
	tab := m.tabs.Active()
	page := m.tabs.Pager().Page
	return tea.Batch(m.spinner.Tick, m.cachedPage(tab, page, ticket), m.fetchPage(tab, page, ticket))
}

func (m Model) fetchCount(tab model.JobTab, ticket uint64) tea.Cmd {
	api, uid := m.api, m.userID
	return func() tea.Msg {
		n, err := api.JobCount(context.Background(), tab, uid)
		return CountMsg{Tab: tab, Ticket: ticket, Count: n, Err: err}
	}
}

func (m Model) fetchPage(tab model.JobTab, page int, ticket uint64) tea.Cmd {
	api, uid, size := m.api, m.userID, m.tabs.Pager().Size
	return func() tea.Msg {
		items, err := api.JobPage(context.Background(), tab, uid, page-1, size)
		return PageMsg{Tab: tab, Ticket: ticket, Page: page, Items: items, Err: err}
	}
}

func (m Model) cachedPage(tab model.JobTab, page int, ticket uint64) tea.Cmd {
	if m.cache == nil {
		return nil
	}
	cache, uid := m.cache, m.userID
	return func() tea.Msg {
		items, count, ok := ui.ReadCached[model.Job](cache, resource(tab, uid), page)
		if !ok {
			return nil
		}
		return PageMsg{Tab: tab, Ticket: ticket, Page: page, Items: items, Count: count, Cached: true}
	}
}

// Update handles messages for the job dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case CountMsg:
		if msg.Tab != m.tabs.Active() || !m.tracker.Current(msg.Ticket) {
			return m, nil
		}
		if msg.Err != nil {
			return m, func() tea.Msg { return ui.ErrorMsg("job count", msg.Err, "Could not load job count") }
		}
		m.counted = true
		if m.tabs.Pager().SetCount(msg.Count) {
			return m, m.loadPage()
		}
		return m, nil

	case PageMsg:
		return m.applyPage(msg)

	case ActionMsg:
		return m.applyAction(msg)

	case StatusMsg:
		if msg.Err != nil {
			return m, func() tea.Msg { return ui.ErrorMsg("job status", msg.Err, "Could not load application status") }
		}
		m.statuses[msg.JobID] = msg.Status
		m.expanded = true
		return m, nil

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

func (m Model) applyPage(msg PageMsg) (Model, tea.Cmd) {
	if msg.Tab != m.tabs.Active() || !m.tracker.Current(msg.Ticket) {
		return m, nil
	}
	if msg.Cached {
		if m.applied == msg.Ticket {
			return m, nil
		}
		m.items = msg.Items
		if !m.counted {
			m.tabs.Pager().Count = msg.Count
		}
		m.cursor = ui.MoveCursor(m.cursor, 0, len(m.items))
		return m, nil
	}

	m.loading = false
	if msg.Err != nil {
		m.err = "Could not load jobs"
		return m, func() tea.Msg { return ui.ErrorMsg("job page", msg.Err, m.err) }
	}
	m.err = ""
	m.applied = msg.Ticket
	m.items = msg.Items
	m.cursor = ui.MoveCursor(m.cursor, 0, len(m.items))

	cache, res, count := m.cache, resource(msg.Tab, m.userID), m.tabs.Pager().Count
	items, page := msg.Items, msg.Page
	return m, func() tea.Msg {
		ui.WriteCached(cache, res, page, count, items)
		return nil
	}
}

func (m Model) applyAction(msg ActionMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		fallback := "Could not remove job"
		if msg.Saved {
			fallback = "Could not save job"
		}
		return m, func() tea.Msg { return ui.ErrorMsg("job action", msg.Err, fallback) }
	}

	text := "Job removed from saved"
	if msg.Saved {
		text = "Job saved"
	}
	cmds := []tea.Cmd{ui.Notify("%s", text)}

	if msg.Tab == m.tabs.Active() {
		list := paging.List[model.Job]{Items: m.items, Pager: *m.tabs.Pager()}
		_, refetch := list.Splice(msg.JobID.String())
		m.items = list.Items
		*m.tabs.Pager() = list.Pager
		m.cursor = ui.MoveCursor(m.cursor, 0, len(m.items))
		if refetch {
			cmds = append(cmds, m.loadPage())
		}
	}

	cache, uid := m.cache, m.userID
	cmds = append(cmds, func() tea.Msg {
		ui.Invalidate(cache, resource(msg.Tab, uid))
		ui.Invalidate(cache, resource(model.JobTabSaved, uid))
		return nil
	})
	return m, tea.Batch(cmds...)
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor = ui.MoveCursor(m.cursor, 1, len(m.items))
		m.expanded = false
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.cursor = ui.MoveCursor(m.cursor, -1, len(m.items))
		m.expanded = false
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		m.tabs.NextTab()
		m.resetView()
		return m, m.reload()
	case key.Matches(msg, m.keys.PrevTab):
		m.tabs.PrevTab()
		m.resetView()
		return m, m.reload()
	case key.Matches(msg, m.keys.NextPage):
		if !m.tabs.Pager().Next() {
			return m, nil
		}
		m.cursor = 0
		return m, m.loadPage()
	case key.Matches(msg, m.keys.PrevPage):
		if !m.tabs.Pager().Prev() {
			return m, nil
		}
		m.cursor = 0
		return m, m.loadPage()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()
	}

	job, ok := m.selected()
	if !ok {
		return m, nil
	}
	tab := m.tabs.Active()
	api, uid := m.api, m.userID

	switch {
	case key.Matches(msg, m.keys.Select):
		m.expanded = !m.expanded
	case key.Matches(msg, m.keys.Open):
		return m, ui.OpenURL(job.Website)
	case key.Matches(msg, m.keys.Save):
		if tab == model.JobTabSaved || job.Saved {
			return m, ui.Notify("Already saved")
		}
		return m, func() tea.Msg {
			err := api.SaveJob(context.Background(), uid, job.ID)
			return ActionMsg{Tab: tab, JobID: job.ID, Saved: true, Err: err}
		}
	case key.Matches(msg, m.keys.Remove):
		if tab != model.JobTabSaved {
			return m, ui.Fail("Only saved jobs can be removed")
		}
		return m, func() tea.Msg {
			err := api.RemoveSavedJob(context.Background(), uid, job.ID)
			return ActionMsg{Tab: tab, JobID: job.ID, Err: err}
		}
	case key.Matches(msg, m.keys.Status):
		if tab != model.JobTabApplied {
			return m, ui.Fail("Status is available for applied jobs")
		}
		return m, func() tea.Msg {
			st, err := api.JobStatus(context.Background(), uid, job.ID)
			return StatusMsg{JobID: job.ID, Status: st, Err: err}
		}
	}
	return m, nil
}

func (m *Model) resetView() {
	m.items = nil
	m.cursor = 0
	m.expanded = false
}

func (m Model) selected() (model.Job, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return model.Job{}, false
	}
	return m.items[m.cursor], true
}

// ActiveTab returns the selected tab.
func (m Model) ActiveTab() model.JobTab { return m.tabs.Active() }

// Pager returns the active tab's pager state.
func (m Model) Pager() paging.Pager { return *m.tabs.Pager() }

// View renders the dashboard.
func (m Model) View() string {
	labels := make([]string, len(m.tabs.Tabs()))
	active := 0
	for i, t := range m.tabs.Tabs() {
		label := t.Label()
		if p := m.tabs.PagerFor(t); p.Count > 0 {
			label = fmt.Sprintf("%s (%d)", label, p.Count)
		}
		labels[i] = label
		if t == m.tabs.Active() {
			active = i
		}
	}
	tabs := ui.RenderTabs(labels, active)

	var body string
	switch {
	case len(m.items) == 0 && m.loading:
		body = m.spinner.View() + " Loading jobs..."
	case len(m.items) == 0 && m.err != "":
		body = theme.ErrorStyle.Render(m.err)
	case len(m.items) == 0:
		body = ui.EmptyState(m.width, m.height-6, emptyText(m.tabs.Active()))
	default:
		lines := make([]string, len(m.items))
		for i, j := range m.items {
			lines[i] = m.renderLine(j)
		}
		body = ui.RenderRows(lines, m.cursor)
	}

	parts := []string{tabs, "", body}
	if job, ok := m.selected(); ok && m.expanded {
		parts = append(parts, "", theme.PanelStyle.Width(m.width-4).Render(m.renderDetail(job)))
	}
	footer := ui.RenderPager(*m.tabs.Pager())
	if m.loading && len(m.items) > 0 {
		footer = m.spinner.View() + " " + footer
	}
	parts = append(parts, "", footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func emptyText(tab model.JobTab) string {
	switch tab {
	case model.JobTabApplied:
		return "You haven't applied to any jobs yet."
	case model.JobTabSaved:
		return "No saved jobs.\nPress s on a recommended job to save it."
	default:
		return "No recommendations right now.\nComplete your profile to get better matches."
	}
}

func (m Model) renderLine(j model.Job) string {
	meta := []string{j.Company}
	if j.Location != "" {
		meta = append(meta, j.Location)
	}
	if j.EmployeeType != "" {
		meta = append(meta, j.EmployeeType)
	}
	line := lipgloss.NewStyle().Bold(true).Render(ui.Truncate(j.Title, m.width/2)) +
		"  " + theme.DimmedStyle.Render(strings.Join(meta, " · "))
	if st, ok := m.statuses[j.ID]; ok && st != nil {
		line += "  " + theme.ApplicationStatusStyle(st.Status).Render(st.Status)
	}
	return line
}

func (m Model) renderDetail(j model.Job) string {
	rows := []string{
		lipgloss.NewStyle().Bold(true).Render(j.Title),
		theme.DimmedStyle.Render(j.Company + "  " + j.Location),
	}
	if s := ui.Salary(j.MinSalary, j.MaxSalary); s != "" {
		rows = append(rows, "Salary: "+s)
	}
	if e := ui.Experience(j.MinExperience, j.MaxExperience); e != "" {
		rows = append(rows, "Experience: "+e)
	}
	if len(j.Skills) > 0 {
		rows = append(rows, "Skills: "+strings.Join(j.Skills, ", "))
	}
	if when := ui.When(j.ApplicationDate, time.Local); when != "" {
		rows = append(rows, "Applied: "+when)
	}
	if j.Description != "" {
		rows = append(rows, "", j.Description)
	}
	if st, ok := m.statuses[j.ID]; ok && st != nil {
		rows = append(rows, "",
			"Status: "+theme.ApplicationStatusStyle(st.Status).Render(st.Status))
		if st.UpdatedOn != "" {
			rows = append(rows, theme.DimmedStyle.Render("Updated "+st.UpdatedOn))
		}
		if st.Interview {
			rows = append(rows, "Interview scheduled")
		}
		if st.Comments != "" {
			rows = append(rows, st.Comments)
		}
	}
	return strings.Join(rows, "\n")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
