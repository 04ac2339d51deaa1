package videos

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
	"github.com/nhle/jobportal/internal/portal"
	"github.com/nhle/jobportal/internal/theme"
	"github.com/nhle/jobportal/internal/ui"
)

// API is the slice of the portal client this view needs.
type API interface {
	RecommendedVideos(ctx context.Context, userID model.ID) ([]model.Video, error)
	TrackWatch(ctx context.Context, p model.WatchProgress) error
}

// Outbox stores progress that could not be sent.
type Outbox interface {
	QueueProgress(ctx context.Context, p model.WatchProgress) error
}

// LoadedMsg carries the recommended feed for request Seq.
type LoadedMsg struct {
	Seq    uint64
	Videos []model.Video
	Err    error
}

// WatchedMsg reports a mark-watched result. Queued is set when the
// progress was stored locally because the backend call failed.
type WatchedMsg struct {
	VideoID model.ID
	Queued  bool
	Err     error
}

// Model is the recommended video feed.
type Model struct {
	api     API
	outbox  Outbox
	keys    *keys.KeyMap
	userID  model.ID
	now     func() time.Time
	tracker *paging.Tracker
	cancel  context.CancelFunc
	videos  []model.Video
	cursor  int
	loading bool
	loaded  bool
	err     string
	spinner spinner.Model
	width   int
	height  int
}

// New creates the video feed view.
func New(api API, outbox Outbox, k *keys.KeyMap, userID model.ID, width, height int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		api:     api,
		outbox:  outbox,
		keys:    k,
		userID:  userID,
		now:     time.Now,
		tracker: &paging.Tracker{},
		spinner: s,
		width:   width,
		height:  height,
	}
}

// Open starts a fetch, cancelling any earlier one.
func (m *Model) Open() tea.Cmd {
	return m.fetch()
}

// Close cancels an in-flight fetch and drops any result still in
// transit.
func (m *Model) Close() {
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
		videos, err := api.RecommendedVideos(ctx, uid)
		return LoadedMsg{Seq: seq, Videos: videos, Err: err}
	})
}

// Update handles messages for the video feed.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if !m.tracker.Current(msg.Seq) || errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		m.release()
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not load videos"
			return m, func() tea.Msg { return ui.ErrorMsg("videos", msg.Err, m.err) }
		}
		m.err = ""
		m.loaded = true
		m.videos = msg.Videos
		m.cursor = ui.MoveCursor(m.cursor, 0, len(m.videos))
		return m, nil

	case WatchedMsg:
		if msg.Err != nil {
			return m, func() tea.Msg { return ui.ErrorMsg("track watch", msg.Err, "Could not record progress") }
		}
		for i := range m.videos {
			if m.videos[i].ID == msg.VideoID {
				m.videos[i].Watched = true
			}
		}
		if msg.Queued {
			return m, tea.Batch(
				ui.Notify("Offline: progress saved and will sync later"),
				func() tea.Msg { return ui.ProgressQueuedMsg{} },
			)
		}
		return m, ui.Notify("Marked as watched")

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
		m.cursor = ui.MoveCursor(m.cursor, 1, len(m.videos))
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.cursor = ui.MoveCursor(m.cursor, -1, len(m.videos))
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch()
	}

	if m.cursor >= len(m.videos) {
		return m, nil
	}
	v := m.videos[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Select):
		return m, ui.OpenURL(v.URL)
	case key.Matches(msg, m.keys.Copy):
		return m, ui.CopyCmd(v.URL, "Video link")
	case key.Matches(msg, m.keys.Watched):
		if v.Watched {
			return m, ui.Notify("Already watched")
		}
		return m, m.markWatched(v)
	}
	return m, nil
}

func (m Model) markWatched(v model.Video) tea.Cmd {
	p := model.WatchProgress{
		UserID:      m.userID,
		VideoID:     v.ID,
		PositionSec: v.DurationSec,
		Completed:   true,
		RecordedAt:  m.now(),
	}
	api, outbox := m.api, m.outbox
	return func() tea.Msg {
		err := api.TrackWatch(context.Background(), p)
		if err == nil {
			return WatchedMsg{VideoID: p.VideoID}
		}
		if portal.IsAuthError(err) || outbox == nil {
			return WatchedMsg{VideoID: p.VideoID, Err: err}
		}
		logger.Warn().Err(err).Str("video", p.VideoID.String()).Msg("tracking failed, queueing progress")
		if qerr := outbox.QueueProgress(context.Background(), p); qerr != nil {
			logger.Error().Err(qerr).Msg("queueing watch progress")
			return WatchedMsg{VideoID: p.VideoID, Err: err}
		}
		return WatchedMsg{VideoID: p.VideoID, Queued: true}
	}
}

// View renders the feed.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Recommended Videos")

	if !m.loaded {
		if m.err != "" {
			return lipgloss.JoinVertical(lipgloss.Left, title, theme.ErrorStyle.Render(m.err))
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, m.spinner.View()+" Loading videos...")
	}
	if len(m.videos) == 0 {
		return ui.EmptyState(m.width, m.height, "No recommendations yet.")
	}

	lines := make([]string, len(m.videos))
	for i, v := range m.videos {
		lines[i] = m.renderLine(v)
	}
	parts := []string{title, ui.RenderRows(lines, m.cursor)}
	if m.cursor < len(m.videos) {
		if d := strings.TrimSpace(m.videos[m.cursor].Description); d != "" {
			parts = append(parts, "", theme.PanelStyle.Width(m.width-4).Render(d))
		}
	}
	parts = append(parts, "", theme.HelpStyle.Render("o open · y copy link · w mark watched"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderLine(v model.Video) string {
	check := "  "
	if v.Watched {
		check = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("✓ ")
	}
	line := check + v.Title
	var meta []string
	if d := ui.Duration(v.DurationSec); d != "" {
		meta = append(meta, d)
	}
	if len(v.Tags) > 0 {
		meta = append(meta, fmt.Sprintf("#%s", strings.Join(v.Tags, " #")))
	}
	if len(meta) > 0 {
		line += "  " + theme.DimmedStyle.Render(strings.Join(meta, " · "))
	}
	return line
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
