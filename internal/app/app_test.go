package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/portal"
	appsync "github.com/nhle/jobportal/internal/sync"
	"github.com/nhle/jobportal/internal/ui"
	"github.com/nhle/jobportal/internal/ui/command"
	"github.com/nhle/jobportal/internal/ui/myjobs"
	"github.com/nhle/jobportal/internal/ui/resetpw"
	"github.com/nhle/jobportal/internal/ui/setup"
)

// fakeClient answers every portal call with empty data.
type fakeClient struct {
	base string
}

func (f *fakeClient) BaseURL() string                         { return f.base }
func (f *fakeClient) Me(context.Context) (*model.User, error) { return &model.User{ID: "1"}, nil }

func (f *fakeClient) Notifications(context.Context, model.ID) ([]model.Notification, error) {
	return nil, nil
}
func (f *fakeClient) MarkNotificationRead(context.Context, model.ID) error   { return nil }
func (f *fakeClient) DeleteNotification(context.Context, model.ID) error     { return nil }
func (f *fakeClient) DeleteAllNotifications(context.Context, model.ID) error { return nil }
func (f *fakeClient) UnreadCount(context.Context, model.ID) (int, error)     { return 0, nil }
func (f *fakeClient) UnseenAlertCount(context.Context, model.ID) (int, error) {
	return 0, nil
}

func (f *fakeClient) JobCount(context.Context, model.JobTab, model.ID) (int, error) { return 0, nil }
func (f *fakeClient) JobPage(context.Context, model.JobTab, model.ID, int, int) ([]model.Job, error) {
	return nil, nil
}
func (f *fakeClient) SaveJob(context.Context, model.ID, model.ID) error        { return nil }
func (f *fakeClient) RemoveSavedJob(context.Context, model.ID, model.ID) error { return nil }
func (f *fakeClient) JobStatus(context.Context, model.ID, model.ID) (*model.JobStatus, error) {
	return nil, nil
}

func (f *fakeClient) AlertCount(context.Context, model.ID) (int, error) { return 0, nil }
func (f *fakeClient) AlertPage(context.Context, model.ID, int, int) ([]model.JobAlert, error) {
	return nil, nil
}
func (f *fakeClient) MarkAlertSeen(context.Context, model.ID) error { return nil }

func (f *fakeClient) MentorSessions(context.Context, model.ID) ([]model.MentorSession, error) {
	return nil, nil
}

func (f *fakeClient) CreateHackathon(context.Context, model.HackathonInput) (*model.Hackathon, error) {
	return &model.Hackathon{}, nil
}
func (f *fakeClient) Hackathons(context.Context, model.ID) ([]model.Hackathon, error) {
	return nil, nil
}
func (f *fakeClient) Hackathon(context.Context, model.ID) (*model.Hackathon, error) {
	return &model.Hackathon{}, nil
}
func (f *fakeClient) Registrations(context.Context, model.ID) ([]model.Registration, error) {
	return nil, nil
}
func (f *fakeClient) Submissions(context.Context, model.ID) ([]model.Submission, error) {
	return nil, nil
}
func (f *fakeClient) DeclareWinners(context.Context, model.ID, []model.Winner) error { return nil }
func (f *fakeClient) DeleteHackathon(context.Context, model.ID) error                { return nil }

func (f *fakeClient) RecommendedVideos(context.Context, model.ID) ([]model.Video, error) {
	return nil, nil
}
func (f *fakeClient) TrackWatch(context.Context, model.WatchProgress) error { return nil }

func (f *fakeClient) SendOTP(context.Context, string) error                       { return nil }
func (f *fakeClient) ResendOTP(context.Context, string) error                     { return nil }
func (f *fakeClient) VerifyOTP(context.Context, string, string) error             { return nil }
func (f *fakeClient) ResetPassword(context.Context, string, string, string) error { return nil }

type harness struct {
	mu        sync.Mutex
	connected []string
	cleared   bool
	mailCalls int
	token     string
}

func (h *harness) deps() Deps {
	cfg := model.DefaultAppConfig()
	cfg.Backend.BaseURL = "https://portal.example.com/api"
	return Deps{
		Config: cfg,
		Connect: func(baseURL string, _ portal.TokenSource) Client {
			h.mu.Lock()
			h.connected = append(h.connected, baseURL)
			h.mu.Unlock()
			return &fakeClient{base: baseURL}
		},
		LoadToken: func() (string, error) { return h.token, nil },
		ClearToken: func() error {
			h.cleared = true
			return nil
		},
		Mail: func(model.MailConfig) resetpw.CodeReader {
			h.mailCalls++
			return nil
		},
		ExportDir: "",
	}
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func applicantToken(t *testing.T) string {
	return sign(t, jwt.MapClaims{
		"userId": "7",
		"email":  "ana@example.com",
		"role":   "APPLICANT",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
}

func recruiterToken(t *testing.T) string {
	return sign(t, jwt.MapClaims{
		"userId": "9",
		"email":  "rita@example.com",
		"role":   "RECRUITER",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// start builds the root model, sizes it and restores a session from token.
func start(t *testing.T, h *harness, token string) Model {
	t.Helper()
	h.token = token
	m := New(h.deps())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	msg := m.Init()()
	m, _ = update(t, m, msg)
	t.Cleanup(m.Shutdown)
	return m
}

func TestRestoreApplicantSession(t *testing.T) {
	m := start(t, &harness{}, applicantToken(t))

	require.True(t, m.SignedIn())
	assert.Equal(t, ViewJobs, m.CurrentView())
	assert.True(t, m.started[ViewJobs])
	assert.NotNil(t, m.poller)
	assert.Contains(t, m.status(), "ana@example.com (applicant)")
	assert.Contains(t, m.View(), "Job Portal · My jobs")
	assert.Contains(t, commandNames(m), "videos")
	assert.NotContains(t, commandNames(m), "hackathons")
}

func TestRestoreRecruiterSession(t *testing.T) {
	m := start(t, &harness{}, recruiterToken(t))

	require.True(t, m.SignedIn())
	assert.Equal(t, ViewHackathons, m.CurrentView())

	m, cmd := update(t, m, keyMsg("2"))
	assert.Equal(t, ViewHackathons, m.CurrentView())
	require.NotNil(t, cmd)
	assert.Equal(t, ui.SnackMsg{Text: "Job alerts is not available for your role"}, cmd())

	m, _ = update(t, m, keyMsg("3"))
	assert.Equal(t, ViewNotifications, m.CurrentView())
}

func TestRestoreFallsBackToSetup(t *testing.T) {
	expired := sign(t, jwt.MapClaims{
		"userId": "7",
		"exp":    time.Now().Add(-time.Minute).Unix(),
	})
	tests := []struct {
		name   string
		token  string
		notice string
	}{
		{"no token", "", ""},
		{"expired", expired, "Your session has expired. Sign in again."},
		{"unreadable", "not-a-jwt", "The saved token could not be read. Sign in again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := start(t, &harness{}, tt.token)

			assert.False(t, m.SignedIn())
			assert.Equal(t, ViewSetup, m.CurrentView())
			assert.Equal(t, tt.notice, m.setupView.Notice())
			assert.Nil(t, m.poller)
		})
	}
}

func TestNavigationKeys(t *testing.T) {
	m := start(t, &harness{}, applicantToken(t))

	m, cmd := update(t, m, keyMsg("4"))
	assert.Equal(t, ViewMentor, m.CurrentView())
	assert.NotNil(t, cmd, "entering mentor starts a fetch")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewJobs, m.CurrentView())

	m, _ = update(t, m, keyMsg("?"))
	assert.Equal(t, ViewHelp, m.CurrentView())
	m, _ = update(t, m, keyMsg("?"))
	assert.Equal(t, ViewJobs, m.CurrentView())

	m, cmd = update(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, m.poller)
}

func TestAuthExpiredSignsOut(t *testing.T) {
	h := &harness{}
	m := start(t, h, applicantToken(t))
	require.True(t, m.SignedIn())

	m, cmd := update(t, m, ui.AuthExpiredMsg{Message: "Your session has expired. Sign in again."})
	assert.NotNil(t, cmd)
	assert.False(t, m.SignedIn())
	assert.Equal(t, ViewSetup, m.CurrentView())
	assert.Equal(t, "Your session has expired. Sign in again.", m.setupView.Notice())
	assert.Nil(t, m.poller)
	assert.Empty(t, m.token.Get())
	assert.NotContains(t, commandNames(m), "sign out")

	assert.Equal(t, tokenClearedMsg{}, m.clearToken()())
	assert.True(t, h.cleared)

	m, cmd = update(t, m, ui.AuthExpiredMsg{Message: "again"})
	assert.Nil(t, cmd, "a second expiry while signed out is ignored")
	assert.Equal(t, "Your session has expired. Sign in again.", m.setupView.Notice())
}

func TestFeedResults(t *testing.T) {
	m := start(t, &harness{}, applicantToken(t))
	gen := m.pollGen

	m, cmd := update(t, m, feedMsg{gen: gen, result: appsync.FeedResultMsg{Feed: appsync.FeedUnread, Value: 4}})
	assert.Equal(t, 4, m.unread)
	assert.NotNil(t, cmd, "keeps listening")

	m, cmd = update(t, m, feedMsg{gen: gen - 1, result: appsync.FeedResultMsg{Feed: appsync.FeedUnread, Value: 9}})
	assert.Equal(t, 4, m.unread, "results from an earlier session are dropped")
	assert.Nil(t, cmd)

	m, _ = update(t, m, feedMsg{gen: gen, result: appsync.FeedResultMsg{Feed: appsync.FeedUnread, Error: errors.New("down")}})
	assert.Equal(t, 4, m.unread)
	assert.True(t, m.offline)
	assert.Contains(t, m.status(), "offline")

	m, _ = update(t, m, feedMsg{gen: gen, result: appsync.FeedResultMsg{Feed: appsync.FeedProgressFlush, Value: 2}})
	assert.Equal(t, 2, m.pendingSync)
	assert.Contains(t, m.status(), "2 pending sync")

	m, _ = update(t, m, feedMsg{gen: gen, result: appsync.FeedResultMsg{
		Feed:      appsync.FeedUnread,
		Error:     &portal.AuthError{Status: 401},
		AuthError: &appsync.AuthErrorMsg{Feed: appsync.FeedUnread, Message: "Your session has expired. Sign in again."},
	}})
	assert.False(t, m.SignedIn())
	assert.Equal(t, ViewSetup, m.CurrentView())
}

func TestSnackExpires(t *testing.T) {
	m := start(t, &harness{}, applicantToken(t))

	m, cmd := update(t, m, ui.SnackMsg{Text: "Job saved"})
	require.NotNil(t, cmd)
	require.NotNil(t, m.snack)
	assert.Equal(t, "Job saved", m.snack.Text)
	first := m.snackGen

	m, _ = update(t, m, ui.SnackMsg{Text: "Marked as watched"})
	m, _ = update(t, m, snackExpiredMsg{gen: first})
	require.NotNil(t, m.snack, "an older timer does not hide a newer snack")

	m, _ = update(t, m, snackExpiredMsg{gen: m.snackGen})
	assert.Nil(t, m.snack)
}

func commandNames(m Model) []string {
	var names []string
	for _, c := range m.commands() {
		names = append(names, c.Name)
	}
	return names
}

func TestCommandPalette(t *testing.T) {
	m := start(t, &harness{}, applicantToken(t))

	m, _ = update(t, m, keyMsg(":"))
	assert.Equal(t, ViewCommand, m.CurrentView())
	m, _ = update(t, m, keyMsg("q"))
	assert.Equal(t, ViewCommand, m.CurrentView(), "typing goes to the palette")

	m, _ = update(t, m, command.CommandMsg("alerts"))
	assert.Equal(t, ViewAlerts, m.CurrentView())

	m, cmd := update(t, m, command.CommandMsg("hackathons"))
	assert.Equal(t, ViewAlerts, m.CurrentView())
	require.NotNil(t, cmd)
	assert.Equal(t, ui.SnackMsg{Text: "Hackathons is not available"}, cmd())

	m, _ = update(t, m, command.CommandMsg("sign out"))
	assert.False(t, m.SignedIn())
	assert.Equal(t, ViewSetup, m.CurrentView())
	assert.Equal(t, "Signed out.", m.setupView.Notice())
}

func TestSetupDoneSignsInWithProfile(t *testing.T) {
	h := &harness{}
	m := start(t, h, "")
	require.Equal(t, ViewSetup, m.CurrentView())

	m, _ = update(t, m, setup.DoneMsg{
		Settings: setup.Settings{BaseURL: "https://jobs.example.org/api", Token: "opaque-token"},
		User:     model.User{ID: "9", Email: "rita@example.com", Role: "RECRUITER"},
	})
	t.Cleanup(m.Shutdown)

	require.True(t, m.SignedIn())
	assert.Equal(t, ViewHackathons, m.CurrentView())
	assert.Equal(t, model.ID("9"), m.identity.UserID)
	assert.Equal(t, "opaque-token", m.token.Get())
	assert.Equal(t, "https://jobs.example.org/api", m.cfg.Backend.BaseURL)
	assert.Equal(t, "https://jobs.example.org/api", m.client.BaseURL())
	assert.Equal(t, []string{"https://portal.example.com/api", "https://jobs.example.org/api"}, h.connected)
	assert.Equal(t, "https://jobs.example.org/hackathons/3", m.hackView.ShareLink("3"))
}

func TestSetupCancel(t *testing.T) {
	m := start(t, &harness{}, "")

	_, cmd := update(t, m, setup.CancelMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd(), "nothing to go back to while signed out")

	m = start(t, &harness{}, applicantToken(t))
	m, _ = update(t, m, keyMsg("S"))
	require.Equal(t, ViewSetup, m.CurrentView())
	m, _ = update(t, m, setup.CancelMsg{})
	assert.Equal(t, ViewJobs, m.CurrentView())
	assert.True(t, m.SignedIn())
}

func TestPasswordResetRouting(t *testing.T) {
	h := &harness{}
	m := start(t, h, "")

	m, _ = update(t, m, setup.ForgotMsg{})
	assert.Equal(t, ViewReset, m.CurrentView())
	assert.Zero(t, h.mailCalls, "no mailbox configured")

	m, _ = update(t, m, resetpw.CancelMsg{})
	assert.Equal(t, ViewSetup, m.CurrentView())

	m.cfg.Mail.Host = "imap.example.com"
	m.cfg.Mail.Username = "ana@example.com"
	m, _ = update(t, m, setup.ForgotMsg{})
	assert.Equal(t, 1, h.mailCalls)

	m, cmd := update(t, m, resetpw.DoneMsg{Email: "ana@example.com"})
	assert.NotNil(t, cmd)
	assert.Equal(t, ViewSetup, m.CurrentView())
	assert.Equal(t, "Password changed. Sign in with your new credentials.", m.setupView.Notice())
}

func TestResetFromDashboardReturnsThere(t *testing.T) {
	m := start(t, &harness{}, applicantToken(t))

	m, _ = update(t, m, keyMsg(":"))
	m, _ = update(t, m, command.CommandMsg("reset password"))
	require.Equal(t, ViewReset, m.CurrentView())

	m, _ = update(t, m, resetpw.CancelMsg{})
	assert.Equal(t, ViewJobs, m.CurrentView())
}

func TestResultsForOtherRoleAreDropped(t *testing.T) {
	m := start(t, &harness{}, recruiterToken(t))

	m, cmd := update(t, m, myjobs.PageMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewHackathons, m.CurrentView())
}

func TestShareBase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://portal.example.com/api", "https://portal.example.com"},
		{"https://portal.example.com/api/", "https://portal.example.com"},
		{"https://portal.example.com", "https://portal.example.com"},
		{" http://localhost:8080/api ", "http://localhost:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, shareBase(tt.in))
		})
	}
}
