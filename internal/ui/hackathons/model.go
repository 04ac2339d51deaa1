// Package hackathons is the recruiter's hackathon manager: list, detail,
// creation, winner declaration, deletion and spreadsheet export.
package hackathons

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/jobportal/internal/export"
	"github.com/nhle/jobportal/internal/keys"
	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/paging"
	"github.com/nhle/jobportal/internal/theme"
	"github.com/nhle/jobportal/internal/ui"
)

// API is the slice of the portal client this view needs.
type API interface {
	CreateHackathon(ctx context.Context, in model.HackathonInput) (*model.Hackathon, error)
	Hackathons(ctx context.Context, recruiterID model.ID) ([]model.Hackathon, error)
	Hackathon(ctx context.Context, id model.ID) (*model.Hackathon, error)
	Registrations(ctx context.Context, id model.ID) ([]model.Registration, error)
	Submissions(ctx context.Context, id model.ID) ([]model.Submission, error)
	DeclareWinners(ctx context.Context, id model.ID, winners []model.Winner) error
	DeleteHackathon(ctx context.Context, id model.ID) error
}

// ListMsg carries the recruiter's hackathons for request Seq.
type ListMsg struct {
	Seq   uint64
	Items []model.Hackathon
	Err   error
}

// DetailMsg carries one hackathon with its participants.
type DetailMsg struct {
	Seq           uint64
	Hackathon     model.Hackathon
	Registrations []model.Registration
	Submissions   []model.Submission
	Err           error
}

// CreatedMsg reports the result of a create request.
type CreatedMsg struct {
	Hackathon *model.Hackathon
	Err       error
}

// DeletedMsg reports the result of a delete request.
type DeletedMsg struct {
	ID  model.ID
	Err error
}

// WinnersMsg reports the result of declaring winners.
type WinnersMsg struct {
	ID      model.ID
	Winners []model.Winner
	Err     error
}

// ExportedMsg reports where a workbook was written.
type ExportedMsg struct {
	Path string
	Err  error
}

type mode int

const (
	modeList mode = iota
	modeDetail
	modeCreate
	modeWinners
)

type detailTab int

const (
	tabRegistrations detailTab = iota
	tabSubmissions
)

var detailTabLabels = []string{"Registrations", "Submissions"}

// Model is the hackathon manager view.
type Model struct {
	api         API
	keys        *keys.KeyMap
	recruiterID model.ID
	shareBase   string
	exportDir   string
	loc         *time.Location
	now         func() time.Time
	tracker     *paging.Tracker

	mode    mode
	items   []model.Hackathon
	cursor  int
	loading bool
	loaded  bool
	err     string
	pending model.ID

	detail  *DetailMsg
	placed  map[model.ID]int
	tab     detailTab
	rowCur  int
	create  createForm
	winners winnersForm

	spinner spinner.Model
	width   int
	height  int
}

// New creates the hackathon manager. Share links are built on shareBase and
// exports are written into exportDir.
func New(api API, k *keys.KeyMap, recruiterID model.ID, shareBase, exportDir string, width, height int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	m := Model{
		api:         api,
		keys:        k,
		recruiterID: recruiterID,
		shareBase:   strings.TrimRight(shareBase, "/"),
		exportDir:   exportDir,
		loc:         time.Local,
		now:         time.Now,
		tracker:     &paging.Tracker{},
		loading:     true,
		winners:     newWinnersForm(),
		spinner:     s,
	}
	m.create = newCreateForm(recruiterID, m.loc, m.now)
	m.SetSize(width, height)
	return m
}

// Init loads the hackathon list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadList())
}

// Reload refetches the list.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.loadList())
}

// Capturing reports whether the view consumes keys the root would otherwise
// handle, such as esc and q.
func (m Model) Capturing() bool {
	return m.mode != modeList || m.pending != ""
}

// ShareLink returns the public URL for a hackathon.
func (m Model) ShareLink(id model.ID) string {
	return m.shareBase + "/hackathons/" + id.String()
}

func (m Model) loadList() tea.Cmd {
	seq := m.tracker.Begin()
	api, rid := m.api, m.recruiterID
	return func() tea.Msg {
		items, err := api.Hackathons(context.Background(), rid)
		return ListMsg{Seq: seq, Items: items, Err: err}
	}
}

func (m Model) loadDetail(id model.ID) tea.Cmd {
	seq := m.tracker.Begin()
	api := m.api
	return func() tea.Msg {
		msg := DetailMsg{Seq: seq}
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			h, err := api.Hackathon(ctx, id)
			if err == nil {
				msg.Hackathon = *h
			}
			return err
		})
		g.Go(func() error {
			regs, err := api.Registrations(ctx, id)
			msg.Registrations = regs
			return err
		})
		g.Go(func() error {
			subs, err := api.Submissions(ctx, id)
			msg.Submissions = subs
			return err
		})
		msg.Err = g.Wait()
		return msg
	}
}

// Update handles messages for the hackathon manager.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ListMsg:
		if !m.tracker.Current(msg.Seq) {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not load hackathons"
			return m, func() tea.Msg { return ui.ErrorMsg("hackathons", msg.Err, m.err) }
		}
		m.err = ""
		m.loaded = true
		m.items = msg.Items
		m.cursor = ui.MoveCursor(m.cursor, 0, len(m.items))
		return m, nil

	case DetailMsg:
		if !m.tracker.Current(msg.Seq) {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.mode = modeList
			return m, func() tea.Msg { return ui.ErrorMsg("hackathon detail", msg.Err, "Could not load hackathon") }
		}
		m.detail = &msg
		m.placed = nil
		m.tab = tabRegistrations
		m.rowCur = 0
		return m, nil

	case formSubmitMsg:
		api, in := m.api, msg.Input
		return m, func() tea.Msg {
			h, err := api.CreateHackathon(context.Background(), in)
			return CreatedMsg{Hackathon: h, Err: err}
		}

	case winnersSubmitMsg:
		if m.detail == nil {
			return m, nil
		}
		api, id, winners := m.api, m.detail.Hackathon.ID, msg.Winners
		return m, func() tea.Msg {
			err := api.DeclareWinners(context.Background(), id, winners)
			return WinnersMsg{ID: id, Winners: winners, Err: err}
		}

	case formCancelMsg:
		if m.mode == modeWinners {
			m.mode = modeDetail
		} else {
			m.mode = modeList
		}
		return m, nil

	case CreatedMsg:
		if msg.Err != nil {
			return m, tea.Batch(
				m.create.reopen("Could not create hackathon"),
				func() tea.Msg { return ui.ErrorMsg("create hackathon", msg.Err, "Could not create hackathon") },
			)
		}
		m.mode = modeList
		return m, tea.Batch(ui.Notify("Hackathon created"), m.Reload())

	case WinnersMsg:
		if msg.Err != nil {
			return m, tea.Batch(
				m.winners.reopen("Could not declare winners"),
				func() tea.Msg { return ui.ErrorMsg("declare winners", msg.Err, "Could not declare winners") },
			)
		}
		m.mode = modeDetail
		if m.detail != nil && m.detail.Hackathon.ID == msg.ID {
			m.detail.Hackathon.WinnersDeclared = true
			m.placed = make(map[model.ID]int, len(msg.Winners))
			for _, w := range msg.Winners {
				m.placed[w.SubmissionID] = w.Position
			}
		}
		for i := range m.items {
			if m.items[i].ID == msg.ID {
				m.items[i].WinnersDeclared = true
			}
		}
		return m, ui.Notify("Winners declared")

	case DeletedMsg:
		if msg.Err != nil {
			return m, func() tea.Msg { return ui.ErrorMsg("delete hackathon", msg.Err, "Could not delete hackathon") }
		}
		m.items = paging.Remove(m.items, msg.ID.String())
		m.cursor = ui.MoveCursor(m.cursor, 0, len(m.items))
		return m, ui.Notify("Hackathon deleted")

	case ExportedMsg:
		if msg.Err != nil {
			logger.Error().Err(msg.Err).Msg("exporting hackathon")
			return m, ui.Fail("Export failed")
		}
		return m, ui.Notify("Exported to %s", msg.Path)

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

	return m.forward(msg)
}

// forward passes non-key messages, such as huh's internal ones, to the
// active form.
func (m Model) forward(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case modeCreate:
		m.create, cmd = m.create.update(msg)
	case modeWinners:
		m.winners, cmd = m.winners.update(msg)
	}
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeCreate, modeWinners:
		if key.Matches(msg, m.keys.Back) {
			return m.Update(formCancelMsg{})
		}
		return m.forward(msg)
	case modeDetail:
		return m.detailKeys(msg)
	}
	return m.listKeys(msg)
}

func (m Model) listKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.pending != "" {
		id := m.pending
		m.pending = ""
		if !key.Matches(msg, m.keys.Remove) {
			return m, ui.Notify("Delete cancelled")
		}
		api := m.api
		return m, func() tea.Msg {
			return DeletedMsg{ID: id, Err: api.DeleteHackathon(context.Background(), id)}
		}
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor = ui.MoveCursor(m.cursor, 1, len(m.items))
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.cursor = ui.MoveCursor(m.cursor, -1, len(m.items))
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()
	case key.Matches(msg, m.keys.New):
		m.mode = modeCreate
		m.create.loc, m.create.now = m.loc, m.now
		return m, m.create.start()
	}

	if m.cursor >= len(m.items) {
		return m, nil
	}
	h := m.items[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Select):
		m.mode = modeDetail
		m.detail = nil
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.loadDetail(h.ID))
	case key.Matches(msg, m.keys.Copy):
		return m, ui.CopyCmd(m.ShareLink(h.ID), "Share link")
	case key.Matches(msg, m.keys.Remove):
		m.pending = h.ID
		return m, ui.Notify("Press x again to delete %q", h.Title)
	}
	return m, nil
}

func (m Model) detailKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.mode = modeList
		m.detail = nil
		m.loading = false
		return m, nil
	}
	if m.detail == nil {
		return m, nil
	}
	d := m.detail

	switch {
	case key.Matches(msg, m.keys.NextTab), key.Matches(msg, m.keys.PrevTab):
		m.tab = 1 - m.tab
		m.rowCur = 0
	case key.Matches(msg, m.keys.Down):
		m.rowCur = ui.MoveCursor(m.rowCur, 1, m.rowCount())
	case key.Matches(msg, m.keys.Up):
		m.rowCur = ui.MoveCursor(m.rowCur, -1, m.rowCount())
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.loadDetail(d.Hackathon.ID))
	case key.Matches(msg, m.keys.Copy):
		return m, ui.CopyCmd(m.ShareLink(d.Hackathon.ID), "Share link")
	case key.Matches(msg, m.keys.Export):
		return m, m.export(*d)
	case key.Matches(msg, m.keys.Open):
		if m.tab != tabSubmissions || m.rowCur >= len(d.Submissions) {
			return m, ui.Notify("Select a submission to open")
		}
		return m, ui.OpenURL(d.Submissions[m.rowCur].GithubURL)
	case key.Matches(msg, m.keys.Winners):
		switch {
		case d.Hackathon.WinnersDeclared:
			return m, ui.Notify("Winners already declared")
		case len(d.Submissions) == 0:
			return m, ui.Notify("No submissions to rank")
		}
		m.mode = modeWinners
		return m, m.winners.start(d.Hackathon, d.Submissions)
	}
	return m, nil
}

func (m Model) rowCount() int {
	if m.detail == nil {
		return 0
	}
	if m.tab == tabSubmissions {
		return len(m.detail.Submissions)
	}
	return len(m.detail.Registrations)
}

func (m Model) export(d DetailMsg) tea.Cmd {
	dir, loc := m.exportDir, m.loc
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ExportedMsg{Err: fmt.Errorf("creating export dir: %w", err)}
		}
		path := filepath.Join(dir, export.Filename(d.Hackathon))
		f, err := os.Create(path)
		if err != nil {
			return ExportedMsg{Err: fmt.Errorf("creating %s: %w", path, err)}
		}
		werr := export.WriteHackathon(f, d.Registrations, d.Submissions, loc)
		cerr := f.Close()
		if werr != nil {
			return ExportedMsg{Err: werr}
		}
		if cerr != nil {
			return ExportedMsg{Err: fmt.Errorf("closing %s: %w", path, cerr)}
		}
		logger.Info().Str("path", path).Msg("hackathon exported")
		return ExportedMsg{Path: path}
	}
}

// View renders the active mode.
func (m Model) View() string {
	switch m.mode {
	case modeCreate:
		return m.create.view()
	case modeWinners:
		return m.winners.view()
	case modeDetail:
		return m.detailView()
	}
	return m.listView()
}

func (m Model) listView() string {
	title := theme.TitleStyle.Render("My Hackathons")
	if !m.loaded {
		if m.err != "" {
			return lipgloss.JoinVertical(lipgloss.Left, title, theme.ErrorStyle.Render(m.err))
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, m.spinner.View()+" Loading hackathons...")
	}
	if len(m.items) == 0 {
		return ui.EmptyState(m.width, m.height, "No hackathons yet. Press a to create one.")
	}

	lines := make([]string, len(m.items))
	for i, h := range m.items {
		line := lipgloss.NewStyle().Bold(true).Render(h.Title)
		meta := []string{
			h.Theme,
			fmt.Sprintf("%d registered", h.RegistrationCount),
			fmt.Sprintf("%d submitted", h.SubmissionCount),
		}
		if when := ui.When(h.StartAt, m.loc); when != "" {
			meta = append(meta, "starts "+when)
		}
		if h.WinnersDeclared {
			meta = append(meta, "winners declared")
		}
		lines[i] = line + "\n   " + theme.DimmedStyle.Render(strings.Join(meta, " · "))
	}

	hint := "enter open · a new · y copy link · x delete"
	if m.pending != "" {
		hint = theme.ErrorStyle.Render("Press x again to confirm delete, any other key cancels")
	} else {
		hint = theme.HelpStyle.Render(hint)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, ui.RenderRows(lines, m.cursor), "", hint)
}

func (m Model) detailView() string {
	if m.detail == nil {
		return m.spinner.View() + " Loading hackathon..."
	}
	h := m.detail.Hackathon

	head := []string{theme.TitleStyle.Render(h.Title)}
	meta := []string{h.Company, h.Theme, fmt.Sprintf("team of up to %d", h.MaxTeamSize)}
	if h.Prize > 0 {
		meta = append(meta, fmt.Sprintf("prize %.0f", h.Prize))
	}
	head = append(head, theme.DimmedStyle.Render(strings.Join(meta, " · ")))
	head = append(head, theme.DimmedStyle.Render(fmt.Sprintf("Registration closes %s · runs %s to %s",
		orDash(ui.When(h.RegistrationDeadline, m.loc)),
		orDash(ui.When(h.StartAt, m.loc)),
		orDash(ui.When(h.EndAt, m.loc)))))
	if d := strings.TrimSpace(h.Description); d != "" {
		head = append(head, "", theme.PanelStyle.Width(m.width-4).Render(d))
	}

	head = append(head, "", ui.RenderTabs(detailTabLabels, int(m.tab)))
	var rows []string
	if m.tab == tabSubmissions {
		rows = m.submissionRows()
	} else {
		rows = m.registrationRows()
	}
	if len(rows) == 0 {
		head = append(head, theme.DimmedStyle.Render("Nothing here yet."))
	} else {
		head = append(head, ui.RenderRows(rows, m.rowCur))
	}

	head = append(head, "", theme.HelpStyle.Render("tab switch · e export · W winners · o open repo · y copy link · esc back"))
	return lipgloss.JoinVertical(lipgloss.Left, head...)
}

func (m Model) registrationRows() []string {
	rows := make([]string, len(m.detail.Registrations))
	for i, r := range m.detail.Registrations {
		rows[i] = fmt.Sprintf("%s  %s <%s>  %s",
			r.TeamName, r.Name, r.Email,
			theme.DimmedStyle.Render(fmt.Sprintf("%d members · %s", r.TeamSize, orDash(ui.When(r.RegisteredAt, m.loc)))))
	}
	return rows
}

func (m Model) submissionRows() []string {
	rows := make([]string, len(m.detail.Submissions))
	for i, s := range m.detail.Submissions {
		line := fmt.Sprintf("%s · %s", s.ProjectName, s.TeamName)
		if pos, ok := m.placed[s.ID]; ok {
			line = theme.PodiumStyle(pos).Render(fmt.Sprintf("#%d ", pos)) + line
		}
		meta := []string{ui.Truncate(s.GithubURL, 40)}
		if s.Score > 0 {
			meta = append(meta, fmt.Sprintf("score %.1f", s.Score))
		}
		rows[i] = line + "  " + theme.DimmedStyle.Render(strings.Join(meta, " · "))
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.create.width, m.create.height = width, height
	m.winners.width, m.winners.height = width, height
}
