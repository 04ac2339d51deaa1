package app

import (
	"errors"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/jobportal/internal/auth"
	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/model"
	appsync "github.com/nhle/jobportal/internal/sync"
	"github.com/nhle/jobportal/internal/ui"
	"github.com/nhle/jobportal/internal/ui/alerts"
	"github.com/nhle/jobportal/internal/ui/hackathons"
	"github.com/nhle/jobportal/internal/ui/mentor"
	"github.com/nhle/jobportal/internal/ui/myjobs"
	"github.com/nhle/jobportal/internal/ui/notifications"
	"github.com/nhle/jobportal/internal/ui/setup"
	"github.com/nhle/jobportal/internal/ui/videos"
)

// tokenBox holds the bearer token the portal client reads on every request.
type tokenBox struct {
	mu    sync.RWMutex
	token string
}

func (b *tokenBox) Get() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

func (b *tokenBox) Set(token string) {
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()
}

// sessionMsg carries the stored token read at start-up.
type sessionMsg struct {
	token string
	err   error
}

// feedMsg tags a poller result with the sign-in it belongs to.
type feedMsg struct {
	gen    int
	result appsync.FeedResultMsg
}

type tokenClearedMsg struct{ err error }

func (m Model) loadSession() tea.Cmd {
	load := m.deps.LoadToken
	return func() tea.Msg {
		if load == nil {
			return sessionMsg{}
		}
		token, err := load()
		return sessionMsg{token: token, err: err}
	}
}

// restore decides between the dashboard and the sign-in form for the
// token found at start-up.
func (m *Model) restore(msg sessionMsg) tea.Cmd {
	m.restoring = false
	if msg.err != nil {
		logger.Warn().Err(msg.err).Msg("reading stored token")
	}
	if strings.TrimSpace(msg.token) == "" {
		return m.openSetup("")
	}

	id, err := auth.Parse(msg.token)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("stored token is unreadable")
		return m.openSetup("The saved token could not be read. Sign in again.")
	case id.Expired(time.Now()):
		logger.Info().Time("expired_at", id.ExpiresAt).Msg("stored token expired")
		return m.openSetup("Your session has expired. Sign in again.")
	}

	m.token.Set(msg.token)
	return m.signIn(id)
}

// identityFor merges the token claims with the profile returned by the
// sign-in probe. Opaque tokens rely on the profile alone.
func identityFor(token string, u model.User) auth.Identity {
	id, err := auth.Parse(token)
	if err != nil && !errors.Is(err, auth.ErrInvalidFormat) {
		logger.Debug().Err(err).Msg("token claims unavailable")
	}
	if u.ID != "" {
		id.UserID = u.ID
	}
	if u.Email != "" {
		id.Email = u.Email
	}
	if u.Name != "" {
		id.Name = u.Name
	}
	if u.Role != "" {
		id.Role = model.ParseRole(u.Role)
	}
	return id
}

// completeSetup applies accepted sign-in settings and opens the dashboard.
func (m *Model) completeSetup(msg setup.DoneMsg) tea.Cmd {
	m.cfg.Backend.BaseURL = msg.Settings.BaseURL
	m.cfg.Mail = msg.Settings.Mail
	if m.client == nil || m.client.BaseURL() != msg.Settings.BaseURL {
		m.client = m.connect(msg.Settings.BaseURL)
	}
	m.token.Set(msg.Settings.Token)
	return m.signIn(identityFor(msg.Settings.Token, msg.User))
}

// signIn builds the views offered to id's role and starts the poller.
func (m *Model) signIn(id auth.Identity) tea.Cmd {
	m.stopPoller()
	m.identity = &id
	m.unread, m.pendingSync, m.offline = 0, 0, false
	m.started = make(map[ViewState]bool)

	k, w, h := m.keys, m.contentWidth(), m.contentHeight()
	uid := id.UserID
	interval := time.Duration(m.cfg.Display.PollIntervalSec) * time.Second

	m.notifView = notifications.New(m.client, k, uid, w, h)
	p := appsync.New()
	p.RegisterFeed(appsync.UnreadFeed(m.client, uid, interval))

	if id.IsRecruiter() {
		m.hackView = hackathons.New(m.client, k, uid, shareBase(m.cfg.Backend.BaseURL), m.deps.ExportDir, w, h)
	} else {
		size := m.cfg.Display.PageSize
		m.jobsView = myjobs.New(m.client, m.deps.Store, k, uid, size, w, h)
		m.alertsView = alerts.New(m.client, m.deps.Store, k, uid, size, w, h)
		m.mentorView = mentor.New(m.client, k, uid, w, h)
		m.videosView = videos.New(m.client, m.deps.Store, k, uid, w, h)
		if m.deps.Store != nil {
			p.RegisterFeed(appsync.ProgressFlushFeed(m.client, m.deps.Store, interval))
		}
	}

	m.refreshCommands()

	m.poller = p
	m.pollGen++
	logger.Info().Str("user", id.Email).Str("role", string(id.Role)).Msg("session started")

	m.currentView = ViewSetup
	return tea.Batch(
		m.listen(p.Start()),
		m.switchTo(m.dashboard()),
		notifySignedIn(id),
	)
}

func notifySignedIn(id auth.Identity) tea.Cmd {
	who := id.Name
	if who == "" {
		who = id.Email
	}
	if who == "" {
		return nil
	}
	return ui.Notify("Signed in as %s", who)
}

// signOut drops the session, forgets the stored token and shows the
// sign-in form with notice.
func (m *Model) signOut(notice string) tea.Cmd {
	if m.identity == nil {
		return nil
	}
	logger.Info().Str("user", m.identity.Email).Msg("session ended")
	m.leave(m.currentView)
	m.stopPoller()
	m.identity = nil
	m.token.Set("")
	m.unread, m.pendingSync, m.offline = 0, 0, false
	m.refreshCommands()
	return tea.Batch(m.openSetup(notice), m.clearToken())
}

func (m Model) clearToken() tea.Cmd {
	forget := m.deps.ClearToken
	if forget == nil {
		return nil
	}
	return func() tea.Msg { return tokenClearedMsg{err: forget()} }
}

func (m *Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
		m.poller = nil
	}
}

// listen wraps a poller wait so results from an earlier sign-in are
// recognisable.
func (m Model) listen(wait tea.Cmd) tea.Cmd {
	if wait == nil {
		return nil
	}
	gen := m.pollGen
	return func() tea.Msg {
		r, ok := wait().(appsync.FeedResultMsg)
		if !ok {
			return nil
		}
		return feedMsg{gen: gen, result: r}
	}
}

func (m *Model) applyFeed(msg feedMsg) tea.Cmd {
	if msg.gen != m.pollGen || m.poller == nil {
		return nil
	}
	r := msg.result
	if r.AuthError != nil {
		return m.signOut(r.AuthError.Message)
	}

	switch r.Feed {
	case appsync.FeedUnread:
		m.offline = r.Error != nil
		if r.Error == nil {
			m.unread = r.Value
		}
	case appsync.FeedProgressFlush:
		if r.Error == nil {
			m.pendingSync = r.Value
		}
	}
	return m.listen(m.poller.WaitForNextResult())
}

func (m Model) refreshFeed(name appsync.FeedName) {
	if m.poller != nil {
		m.poller.Refresh(name)
	}
}

// shareBase turns the API root into the public site root used for
// shareable hackathon links.
func shareBase(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return strings.TrimSuffix(base, "/api")
}
