package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/jobportal/internal/auth"
	"github.com/nhle/jobportal/internal/keys"
	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/portal"
	"github.com/nhle/jobportal/internal/store"
	appsync "github.com/nhle/jobportal/internal/sync"
	"github.com/nhle/jobportal/internal/ui"
	"github.com/nhle/jobportal/internal/ui/alerts"
	"github.com/nhle/jobportal/internal/ui/command"
	"github.com/nhle/jobportal/internal/ui/hackathons"
	helpview "github.com/nhle/jobportal/internal/ui/help"
	"github.com/nhle/jobportal/internal/ui/mentor"
	"github.com/nhle/jobportal/internal/ui/myjobs"
	"github.com/nhle/jobportal/internal/ui/notifications"
	"github.com/nhle/jobportal/internal/ui/resetpw"
	"github.com/nhle/jobportal/internal/ui/setup"
	"github.com/nhle/jobportal/internal/ui/videos"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewSetup ViewState = iota
	ViewReset
	ViewJobs
	ViewHackathons
	ViewAlerts
	ViewNotifications
	ViewMentor
	ViewVideos
	ViewHelp
	ViewCommand
)

var viewTitles = map[ViewState]string{
	ViewSetup:         "Sign in",
	ViewReset:         "Reset password",
	ViewJobs:          "My jobs",
	ViewHackathons:    "Hackathons",
	ViewAlerts:        "Job alerts",
	ViewNotifications: "Notifications",
	ViewMentor:        "Mentor sessions",
	ViewVideos:        "Videos",
	ViewHelp:          "Help",
	ViewCommand:       "Command",
}

// Client is everything the views ask of the portal backend.
type Client interface {
	notifications.API
	myjobs.API
	alerts.API
	mentor.API
	hackathons.API
	videos.API
	resetpw.API
	appsync.CountClient
	Me(ctx context.Context) (*model.User, error)
	BaseURL() string
}

// Deps are the collaborators the root model is wired with.
type Deps struct {
	Config *model.AppConfig
	// Store backs the page cache and the watch-progress outbox. It may be nil.
	Store store.Store
	// Connect builds a portal client for baseURL.
	Connect func(baseURL string, token portal.TokenSource) Client
	// LoadToken reads the stored bearer token.
	LoadToken    func() (string, error)
	SaveSettings setup.Saver
	ClearToken   func() error
	// Mail returns a reader for reset codes, or nil when no mailbox is set.
	Mail      func(model.MailConfig) resetpw.CodeReader
	ExportDir string
}

type snackExpiredMsg struct{ gen int }

// Model is the root Bubble Tea model. It routes between views, owns the
// session and renders the header and status bar.
type Model struct {
	deps     Deps
	cfg      *model.AppConfig
	keys     *keys.KeyMap
	client   Client
	token    *tokenBox
	identity *auth.Identity
	poller   *appsync.Poller
	pollGen  int

	currentView  ViewState
	previousView ViewState
	resetFrom    ViewState
	started      map[ViewState]bool
	layout       ui.Layout
	ready        bool
	restoring    bool

	unread      int
	pendingSync int
	offline     bool
	snack       *ui.Snack
	snackGen    int

	setupView   setup.Model
	resetView   resetpw.Model
	jobsView    myjobs.Model
	hackView    hackathons.Model
	alertsView  alerts.Model
	notifView   notifications.Model
	mentorView  mentor.Model
	videosView  videos.Model
	helpView    helpview.Model
	commandView command.Model
}

// New creates the root model. The session is restored in Init.
func New(deps Deps) Model {
	cfg := deps.Config
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	k := keys.DefaultKeyMap()
	m := Model{
		deps:        deps,
		cfg:         cfg,
		keys:        k,
		token:       &tokenBox{},
		started:     make(map[ViewState]bool),
		restoring:   true,
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
	m.client = m.connect(cfg.Backend.BaseURL)
	m.setupView = setup.New(m.probe, deps.SaveSettings, cfg, k, 80, 24)
	m.refreshCommands()
	return m
}

func (m Model) connect(baseURL string) Client {
	if m.deps.Connect == nil {
		return nil
	}
	return m.deps.Connect(baseURL, m.token.Get)
}

// probe checks a URL and token pair with a throwaway client.
func (m Model) probe(ctx context.Context, baseURL, token string) (*model.User, error) {
	if m.deps.Connect == nil {
		return nil, fmt.Errorf("no portal client configured")
	}
	c := m.deps.Connect(baseURL, func() string { return token })
	return c.Me(ctx)
}

// Init restores the stored session.
func (m Model) Init() tea.Cmd {
	return m.loadSession()
}

// SignedIn reports whether a session is active.
func (m Model) SignedIn() bool { return m.identity != nil }

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState { return m.currentView }

// Shutdown stops background work. Call it after the program exits.
func (m Model) Shutdown() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

func (m Model) contentWidth() int {
	if !m.ready {
		return 80
	}
	return m.layout.ContentWidth()
}

func (m Model) contentHeight() int {
	if !m.ready {
		return 22
	}
	return m.layout.ContentHeight()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.setupView.SetSize(w, h)
		m.resetView.SetSize(w, h)
		m.jobsView.SetSize(w, h)
		m.hackView.SetSize(w, h)
		m.alertsView.SetSize(w, h)
		m.notifView.SetSize(w, h)
		m.mentorView.SetSize(w, h)
		m.videosView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionMsg:
		return m, m.restore(msg)

	case feedMsg:
		return m, m.applyFeed(msg)

	case tokenClearedMsg:
		if msg.err != nil {
			logger.Warn().Err(msg.err).Msg("clearing stored token")
		}
		return m, nil

	case ui.SnackMsg:
		snack := ui.Snack(msg)
		m.snack = &snack
		m.snackGen++
		gen := m.snackGen
		return m, tea.Tick(m.snackDuration(), func(time.Time) tea.Msg {
			return snackExpiredMsg{gen: gen}
		})

	case snackExpiredMsg:
		if msg.gen == m.snackGen {
			m.snack = nil
		}
		return m, nil

	case ui.RefreshUnreadMsg:
		m.refreshFeed(appsync.FeedUnread)
		return m, nil

	case ui.ProgressQueuedMsg:
		m.pendingSync++
		return m, nil

	case ui.AuthExpiredMsg:
		return m, m.signOut(msg.Message)

	case setup.DoneMsg:
		return m, m.completeSetup(msg)

	case setup.CancelMsg:
		if m.identity == nil {
			return m, tea.Quit
		}
		return m, m.switchTo(m.dashboard())

	case setup.ForgotMsg:
		return m, m.openReset()

	case resetpw.DoneMsg:
		return m, tea.Batch(
			m.openSetup("Password changed. Sign in with your new credentials."),
			ui.Notify("Password updated"),
		)

	case resetpw.CancelMsg:
		if m.identity != nil && m.resetFrom != ViewSetup {
			return m, m.switchTo(m.dashboard())
		}
		return m, m.openSetup("")

	case command.CommandMsg:
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
		}
		return m, m.executeCommand(string(msg))

	case spinner.TickMsg:
		return m.broadcastTick(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.restoring {
			return m, nil
		}
		if handled, next, cmd := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
		return m.updateActiveView(msg)
	}

	if routed, next, cmd := m.route(msg); routed {
		return next, cmd
	}
	return m.updateActiveView(msg)
}

func (m Model) snackDuration() time.Duration {
	sec := m.cfg.Display.SnackbarSec
	if sec <= 0 {
		sec = 3
	}
	return time.Duration(sec) * time.Second
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.leave(m.currentView)
	m.stopPoller()
	return m, tea.Quit
}

// route delivers async results to the view that requested them, whichever
// view is active.
func (m Model) route(msg tea.Msg) (bool, Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.(type) {
	case setup.ProbeMsg:
		m.setupView, cmd = m.setupView.Update(msg)
		return true, m, cmd

	case resetpw.SentMsg, resetpw.VerifiedMsg, resetpw.ResetMsg, resetpw.CodeMsg, resetpw.CountdownMsg:
		m.resetView, cmd = m.resetView.Update(msg)
		return true, m, cmd
	}

	signedIn := m.identity != nil
	switch msg.(type) {
	case notifications.LoadedMsg, notifications.ReadMsg, notifications.DeletedMsg, notifications.ClearedMsg:
		if signedIn {
			m.notifView, cmd = m.notifView.Update(msg)
		}
	case myjobs.CountMsg, myjobs.PageMsg, myjobs.ActionMsg, myjobs.StatusMsg:
		if signedIn && !m.identity.IsRecruiter() {
			m.jobsView, cmd = m.jobsView.Update(msg)
		}
	case alerts.CountMsg, alerts.PageMsg, alerts.SeenMsg:
		if signedIn && !m.identity.IsRecruiter() {
			m.alertsView, cmd = m.alertsView.Update(msg)
		}
	case mentor.LoadedMsg, mentor.TickMsg:
		if signedIn && !m.identity.IsRecruiter() {
			m.mentorView, cmd = m.mentorView.Update(msg)
		}
	case videos.LoadedMsg, videos.WatchedMsg:
		if signedIn && !m.identity.IsRecruiter() {
			m.videosView, cmd = m.videosView.Update(msg)
		}
	case hackathons.ListMsg, hackathons.DetailMsg, hackathons.CreatedMsg,
		hackathons.DeletedMsg, hackathons.WinnersMsg, hackathons.ExportedMsg:
		if signedIn && m.identity.IsRecruiter() {
			m.hackView, cmd = m.hackView.Update(msg)
		}
	default:
		return false, m, nil
	}
	return true, m, cmd
}

// broadcastTick feeds spinner ticks to every view so background loads keep
// animating. Each spinner ignores ticks that are not its own.
func (m Model) broadcastTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.setupView, cmd = m.setupView.Update(msg)
	cmds = append(cmds, cmd)
	m.resetView, cmd = m.resetView.Update(msg)
	cmds = append(cmds, cmd)

	if m.identity != nil {
		m.notifView, cmd = m.notifView.Update(msg)
		cmds = append(cmds, cmd)
		if m.identity.IsRecruiter() {
			m.hackView, cmd = m.hackView.Update(msg)
			cmds = append(cmds, cmd)
		} else {
			m.jobsView, cmd = m.jobsView.Update(msg)
			cmds = append(cmds, cmd)
			m.alertsView, cmd = m.alertsView.Update(msg)
			cmds = append(cmds, cmd)
			m.mentorView, cmd = m.mentorView.Update(msg)
			cmds = append(cmds, cmd)
			m.videosView, cmd = m.videosView.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// capturing reports whether the active view wants every key, for example
// while a form has focus.
func (m Model) capturing() bool {
	switch m.currentView {
	case ViewSetup:
		return m.setupView.Capturing()
	case ViewReset:
		return m.resetView.Capturing()
	case ViewHackathons:
		return m.hackView.Capturing()
	}
	return false
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if m.currentView == ViewCommand {
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Command) {
			m.currentView = m.previousView
			return true, m, nil
		}
		return false, m, nil
	}
	if m.capturing() {
		return false, m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		next, cmd := m.quit()
		return true, next, cmd

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m, m.commandView.Focus()

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		if m.identity != nil && m.currentView != m.dashboard() {
			return true, m, m.switchTo(m.dashboard())
		}
		return true, m, nil

	case key.Matches(msg, m.keys.SignIn):
		return true, m, m.openSetup("")
	}

	if m.identity == nil {
		return false, m, nil
	}
	target, ok := m.viewForKey(msg)
	if !ok {
		return false, m, nil
	}
	if !m.offered(target) {
		return true, m, ui.Notify("%s is not available for your role", viewTitles[target])
	}
	if m.currentView == ViewHelp {
		m.currentView = m.previousView
	}
	return true, m, m.switchTo(target)
}

func (m Model) viewForKey(msg tea.KeyMsg) (ViewState, bool) {
	switch {
	case key.Matches(msg, m.keys.Dashboard):
		return m.dashboard(), true
	case key.Matches(msg, m.keys.Alerts):
		return ViewAlerts, true
	case key.Matches(msg, m.keys.Notifications):
		return ViewNotifications, true
	case key.Matches(msg, m.keys.Mentor):
		return ViewMentor, true
	case key.Matches(msg, m.keys.Videos):
		return ViewVideos, true
	}
	return 0, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewSetup:
		m.setupView, cmd = m.setupView.Update(msg)
	case ViewReset:
		m.resetView, cmd = m.resetView.Update(msg)
	case ViewJobs:
		m.jobsView, cmd = m.jobsView.Update(msg)
	case ViewHackathons:
		m.hackView, cmd = m.hackView.Update(msg)
	case ViewAlerts:
		m.alertsView, cmd = m.alertsView.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewMentor:
		m.mentorView, cmd = m.mentorView.Update(msg)
	case ViewVideos:
		m.videosView, cmd = m.videosView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.restoring {
		return "Restoring session..."
	}

	header := m.layout.RenderHeader(m.title(), m.unread, m.status())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.snack)
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

func (m Model) title() string {
	return "Job Portal · " + viewTitles[m.currentView]
}

// status describes the signed-in user and background sync state.
func (m Model) status() string {
	if m.identity == nil {
		return "signed out"
	}
	who := m.identity.Email
	if who == "" {
		who = m.identity.UserID.String()
	}
	s := fmt.Sprintf("%s (%s)", who, roleLabel(m.identity.Role))
	if m.pendingSync > 0 {
		s += fmt.Sprintf(" · %d pending sync", m.pendingSync)
	}
	if m.offline {
		s += " · offline"
	}
	return s
}

func roleLabel(r model.Role) string {
	if r == model.RoleRecruiter {
		return "recruiter"
	}
	return "applicant"
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewSetup:
		return m.setupView.View()
	case ViewReset:
		return m.resetView.View()
	case ViewJobs:
		return m.jobsView.View()
	case ViewHackathons:
		return m.hackView.View()
	case ViewAlerts:
		return m.alertsView.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewMentor:
		return m.mentorView.View()
	case ViewVideos:
		return m.videosView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewSetup, ViewReset:
		return "enter continue | esc cancel | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewJobs:
		return "tab switch list | n/p page | s save | x remove | t status | o open | ? help"
	case ViewHackathons:
		return "enter detail | a new | x delete | y copy link | e export | W winners | ? help"
	case ViewAlerts:
		return "n/p page | m mark seen | r refresh | ? help"
	case ViewNotifications:
		return "enter detail | m mark read | o open link | x delete | X delete all | ? help"
	case ViewMentor:
		return "c copy calendar link | y copy meeting link | o join | ? help"
	case ViewVideos:
		return "o open | w mark watched | y copy link | ? help"
	default:
		return "q quit | ? help | : command"
	}
}
