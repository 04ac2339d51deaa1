// Package setup is the sign-in view: portal URL and token, plus the optional
// mailbox used to read password reset codes.
package setup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jobportal/internal/keys"
	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/portal"
	"github.com/nhle/jobportal/internal/theme"
	"github.com/nhle/jobportal/internal/validate"
)

// Settings is what the form collects.
type Settings struct {
	BaseURL      string
	Token        string
	Mail         model.MailConfig
	MailPassword string
}

// Prober checks a URL and token pair against the backend.
type Prober func(ctx context.Context, baseURL, token string) (*model.User, error)

// Saver persists accepted settings.
type Saver func(Settings) error

// DoneMsg is sent once the token has been verified and saved.
type DoneMsg struct {
	Settings Settings
	User     model.User
}

// CancelMsg is sent when the user leaves the form without signing in.
type CancelMsg struct{}

// ForgotMsg asks the root to open the password reset flow.
type ForgotMsg struct{}

// ProbeMsg carries the outcome of a connection check.
type ProbeMsg struct {
	User *model.User
	Err  error
}

type savedMsg struct {
	user model.User
	err  error
}

// Mode is the current state of the view.
type Mode int

const (
	ModeForm Mode = iota
	ModeProbing
	ModeResult
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	baseURL      string
	token        string
	mailHost     string
	mailPort     string
	mailUser     string
	mailPassword string
	mailTLS      bool
}

func (fb *formBindings) settings() Settings {
	return Settings{
		BaseURL: strings.TrimRight(strings.TrimSpace(fb.baseURL), "/"),
		Token:   strings.TrimSpace(fb.token),
		Mail: model.MailConfig{
			Host:     strings.TrimSpace(fb.mailHost),
			Port:     strings.TrimSpace(fb.mailPort),
			Username: strings.TrimSpace(fb.mailUser),
			TLS:      fb.mailTLS,
		},
		MailPassword: fb.mailPassword,
	}
}

// Model is the sign-in view.
type Model struct {
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	probe   Prober
	save    Saver
	keys    *keys.KeyMap
	notice  string
	failure string
	spinner spinner.Model
	width   int
	height  int
}

// New creates the sign-in view pre-filled from cfg.
func New(probe Prober, save Saver, cfg *model.AppConfig, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	fb := &formBindings{mailTLS: true}
	if cfg != nil {
		fb.baseURL = cfg.Backend.BaseURL
		fb.mailHost = cfg.Mail.Host
		fb.mailPort = cfg.Mail.Port
		fb.mailUser = cfg.Mail.Username
		fb.mailTLS = cfg.Mail.TLS || cfg.Mail.Host == ""
	}
	return Model{
		fb:      fb,
		probe:   probe,
		save:    save,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start opens the form. notice is shown above it, for example after an
// expired session or a password reset.
func (m *Model) Start(notice string) tea.Cmd {
	m.mode = ModeForm
	m.notice = notice
	m.failure = ""
	m.fb.token = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Capturing reports whether the view consumes every key.
func (m Model) Capturing() bool { return true }

// Mode returns the current mode.
func (m Model) Mode() Mode { return m.mode }

// Notice returns the text shown above the form.
func (m Model) Notice() string { return m.notice }

// Update handles messages for the sign-in view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProbeMsg:
		if msg.Err != nil {
			m.mode = ModeResult
			m.failure = probeFailure(msg.Err)
			logger.Warn().Err(msg.Err).Msg("sign-in probe failed")
			return m, nil
		}
		s, save := m.fb.settings(), m.save
		user := *msg.User
		return m, func() tea.Msg {
			if save == nil {
				return savedMsg{user: user}
			}
			return savedMsg{user: user, err: save(s)}
		}

	case savedMsg:
		if msg.err != nil {
			m.mode = ModeResult
			m.failure = "Signed in, but the token could not be saved: " + msg.err.Error()
			logger.Error().Err(msg.err).Msg("saving settings")
			return m, nil
		}
		s := m.fb.settings()
		logger.Info().Str("user", msg.user.Email).Str("base_url", s.BaseURL).Msg("signed in")
		return m, func() tea.Msg { return DoneMsg{Settings: s, User: msg.user} }

	case spinner.TickMsg:
		if m.mode != ModeProbing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Forgot) && m.mode != ModeProbing {
			return m, func() tea.Msg { return ForgotMsg{} }
		}
		switch m.mode {
		case ModeProbing:
			return m, nil
		case ModeResult:
			return m.resultKeys(msg)
		}
	}

	return m.updateForm(msg)
}

func (m Model) resultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		m.mode = ModeForm
		m.form = m.buildForm()
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Refresh):
		return m.startProbe()
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.mode != ModeForm {
		return m, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Back) {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.startProbe()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

func (m Model) startProbe() (Model, tea.Cmd) {
	m.mode = ModeProbing
	m.failure = ""
	s, probe := m.fb.settings(), m.probe
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		u, err := probe(context.Background(), s.BaseURL, s.Token)
		if err == nil && u == nil {
			err = errors.New("empty response from /users/me")
		}
		return ProbeMsg{User: u, Err: err}
	})
}

func probeFailure(err error) string {
	if portal.IsAuthError(err) {
		return "The server rejected this token."
	}
	return portal.UserMessage(err, "Could not reach the portal.")
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Portal URL").
				Description("API root, e.g. https://portal.example.com/api").
				Placeholder("https://portal.example.com/api").
				Value(&m.fb.baseURL).
				Validate(validate.URL),
			huh.NewInput().
				Title("Access token").
				Description("Bearer token issued by the portal").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.token).
				Validate(validate.Required("Token")),
		).Title("Sign in"),
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP host").
				Description("Optional. Used to read password reset codes").
				Placeholder("imap.example.com").
				Value(&m.fb.mailHost),
			huh.NewInput().
				Title("IMAP port").
				Placeholder("993").
				Value(&m.fb.mailPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Placeholder("you@example.com").
				Value(&m.fb.mailUser),
			huh.NewInput().
				Title("Password").
				Description("Leave blank to keep the stored one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.mailPassword),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.mailTLS),
		).Title("Mailbox"),
	).WithWidth(m.formWidth())
}

// View renders the current mode.
func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).
		Render("Job Portal")
	var body string
	switch m.mode {
	case ModeProbing:
		body = m.spinner.View() + " Checking token..."
	case ModeResult:
		body = lipgloss.JoinVertical(lipgloss.Left,
			theme.ErrorStyle.Render("✗ "+m.failure),
			"",
			theme.HelpStyle.Render("enter edit · r retry · ctrl+f forgot password · esc cancel"),
		)
	default:
		if m.form == nil {
			return ""
		}
		parts := []string{}
		if m.notice != "" {
			parts = append(parts, theme.DimmedStyle.Render(m.notice), "")
		}
		parts = append(parts, m.form.View(), theme.HelpStyle.Render("ctrl+f forgot password"))
		body = lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + body)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func validatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
