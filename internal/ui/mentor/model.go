package mentor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jobportal/internal/keys"
	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/paging"
	"github.com/nhle/jobportal/internal/session"
	"github.com/nhle/jobportal/internal/theme"
	"github.com/nhle/jobportal/internal/ui"
)

// RefreshInterval is how often session statuses are re-derived.
const RefreshInterval = 30 * time.Second

// API is the slice of the portal client this view needs.
type API interface {
	MentorSessions(ctx context.Context, userID model.ID) ([]model.MentorSession, error)
}

// LoadedMsg carries fetched sessions for request Seq.
type LoadedMsg struct {
	Seq      uint64
	Sessions []model.MentorSession
	Err      error
}

// TickMsg triggers a status re-evaluation.
type TickMsg struct {
	Gen uint64
	At  time.Time
}

// Model lists the applicant's upcoming and active mentor sessions.
type Model struct {
	api      API
	keys     *keys.KeyMap
	userID   model.ID
	loc      *time.Location
	now      func() time.Time
	tracker  *paging.Tracker
	cancel   context.CancelFunc
	gen      uint64
	sessions []model.MentorSession
	entries  []session.Entry
	cursor   int
	loading  bool
	loaded   bool
	err      string
	spinner  spinner.Model
	width    int
	height   int
}

// New creates the mentor session view.
func New(api API, k *keys.KeyMap, userID model.ID, width, height int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		api:     api,
		keys:    k,
		userID:  userID,
		loc:     time.Local,
		now:     time.Now,
		tracker: &paging.Tracker{},
		spinner: s,
		width:   width,
		height:  height,
	}
}

// Open starts the fetch and the re-evaluation ticker. Any earlier fetch is
// cancelled.
func (m *Model) Open() tea.Cmd {
	m.gen++
	return tea.Batch(m.fetch(), m.tick())
}

// Close cancels an in-flight fetch, drops any result still in transit
// and stops the ticker.
func (m *Model) Close() {
	m.gen++
	m.release()
	m.tracker.Begin()
	m.loading = false
}

func (m *Model) release() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) fetch() tea.Cmd {
	m.release()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.loading = true
	seq := m.tracker.Begin()

	api, uid := m.api, m.userID
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		sessions, err := api.MentorSessions(ctx, uid)
		return LoadedMsg{Seq: seq, Sessions: sessions, Err: err}
	})
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg{Gen: gen, At: t}
	})
}

func (m *Model) evaluate() {
	visible, invalid := session.Evaluate(m.sessions, m.now(), m.loc)
	for _, err := range invalid {
		logger.Warn().Err(err).Msg("skipping mentor session with bad schedule")
	}
	m.entries = visible
	m.cursor = ui.MoveCursor(m.cursor, 0, len(m.entries))
}

// Update handles messages for the mentor view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if !m.tracker.Current(msg.Seq) || errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		m.release()
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not load mentor sessions"
			return m, func() tea.Msg { return ui.ErrorMsg("mentor sessions", msg.Err, m.err) }
		}
		m.err = ""
		m.loaded = true
		m.sessions = msg.Sessions
		m.evaluate()
		return m, nil

	case TickMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.evaluate()
		return m, m.tick()

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
		m.cursor = ui.MoveCursor(m.cursor, 1, len(m.entries))
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.cursor = ui.MoveCursor(m.cursor, -1, len(m.entries))
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch()
	}

	if m.cursor >= len(m.entries) {
		return m, nil
	}
	e := m.entries[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Copy):
		return m, ui.CopyCmd(e.Session.MeetingLink, "Meeting link")
	case key.Matches(msg, m.keys.CopyAlt):
		return m, ui.CopyCmd(session.CalendarLink(e), "Calendar link")
	case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Select):
		if e.Status == session.StatusActive {
			return m, ui.OpenURL(e.Session.MeetingLink)
		}
		return m, ui.OpenURL(session.CalendarLink(e))
	}
	return m, nil
}

// Entries returns the visible sessions in display order.
func (m Model) Entries() []session.Entry { return m.entries }

// View renders the session list.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Mentor Sessions")

	if !m.loaded {
		if m.err != "" {
			return lipgloss.JoinVertical(lipgloss.Left, title, theme.ErrorStyle.Render(m.err))
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, m.spinner.View()+" Loading sessions...")
	}
	if len(m.entries) == 0 {
		return ui.EmptyState(m.width, m.height, "No upcoming mentor sessions.")
	}

	now := m.now()
	blocks := make([]string, len(m.entries))
	for i, e := range m.entries {
		blocks[i] = m.renderEntry(e, now)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		ui.RenderRows(blocks, m.cursor),
		"",
		theme.HelpStyle.Render("y copy meeting link · c copy calendar link · o open"),
	)
}

func (m Model) renderEntry(e session.Entry, now time.Time) string {
	status := e.Status.String()
	head := theme.SessionStatusStyle(status).Render(status) + " " +
		lipgloss.NewStyle().Bold(true).Render(e.Session.Title)

	meta := []string{session.FormatRange(e.Start.In(m.loc), e.End.In(m.loc)), session.Until(e, now)}
	if e.Session.MentorName != "" {
		meta = append([]string{"with " + e.Session.MentorName}, meta...)
	}
	line := head + "\n   " + theme.DimmedStyle.Render(strings.Join(meta, " · "))
	if len(e.Session.Topics) > 0 {
		line += "\n   " + theme.DimmedStyle.Render(fmt.Sprintf("Topics: %s", strings.Join(e.Session.Topics, ", ")))
	}
	return line
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
