// Package resetpw walks an applicant through the forgotten password flow:
// email, then the emailed code, then the new password.
package resetpw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jobportal/internal/keys"
	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/otpmail"
	"github.com/nhle/jobportal/internal/portal"
	"github.com/nhle/jobportal/internal/theme"
	"github.com/nhle/jobportal/internal/ui"
	"github.com/nhle/jobportal/internal/validate"
)

// ResendCooldown is how long the user waits before asking for another code.
const ResendCooldown = 30

const mailTimeout = 20 * time.Second

// API is the slice of the portal client this view needs.
type API interface {
	SendOTP(ctx context.Context, email string) error
	ResendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}

// CodeReader finds the latest reset code in the user's mailbox.
type CodeReader interface {
	LatestCode(ctx context.Context) (string, error)
}

// Step is a stage of the flow.
type Step int

const (
	StepEmail Step = iota
	StepCode
	StepPassword
)

// SentMsg reports a send or resend request.
type SentMsg struct {
	Resend bool
	Err    error
}

// VerifiedMsg reports the code check.
type VerifiedMsg struct{ Err error }

// ResetMsg reports the password change.
type ResetMsg struct{ Err error }

// CodeMsg carries a code read from the mailbox.
type CodeMsg struct {
	Code string
	Err  error
}

// CountdownMsg advances the resend countdown of generation Gen.
type CountdownMsg struct{ Gen int }

// DoneMsg is sent once the password has been changed.
type DoneMsg struct{ Email string }

// CancelMsg is sent when the user leaves the flow.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	otp      string
	password string
	confirm  string
}

// Model is the password reset view.
type Model struct {
	api      API
	mail     CodeReader
	keys     *keys.KeyMap
	step     Step
	form     *huh.Form
	fb       *formBindings
	busy     bool
	fetching bool
	problem  string
	resendIn int
	gen      int
	spinner  spinner.Model
	width    int
	height   int
}

// New creates the reset view. mail may be nil when no mailbox is configured.
func New(api API, mail CodeReader, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		api:     api,
		mail:    mail,
		keys:    k,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start resets the flow to the email step. email pre-fills the first field.
func (m *Model) Start(email string) tea.Cmd {
	*m.fb = formBindings{email: email}
	m.step = StepEmail
	m.busy = false
	m.fetching = false
	m.problem = ""
	m.resendIn = 0
	m.gen++
	return m.openForm("")
}

// Capturing reports whether the view consumes every key.
func (m Model) Capturing() bool { return true }

// Step returns the current stage.
func (m Model) Step() Step { return m.step }

// ResendIn returns the seconds left before a resend is allowed.
func (m Model) ResendIn() int { return m.resendIn }

func (m *Model) openForm(problem string) tea.Cmd {
	m.problem = problem
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) startCountdown() tea.Cmd {
	m.gen++
	m.resendIn = ResendCooldown
	return countdown(m.gen)
}

func countdown(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return CountdownMsg{Gen: gen} })
}

// Update handles messages for the reset view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SentMsg:
		m.busy = false
		if msg.Err != nil {
			text := portal.UserMessage(msg.Err, "Could not send the code")
			logger.Warn().Err(msg.Err).Bool("resend", msg.Resend).Msg("sending reset code")
			if msg.Resend {
				return m, ui.Fail(text)
			}
			return m, m.openForm(text)
		}
		cmds := []tea.Cmd{m.startCountdown()}
		if msg.Resend {
			cmds = append(cmds, ui.Notify("A new code is on its way"))
		} else {
			m.step = StepCode
			m.fb.otp = ""
			cmds = append(cmds, m.openForm(""), ui.Notify("Code sent to %s", m.fb.email))
			if m.mail != nil {
				cmds = append(cmds, m.fetchCode())
			}
		}
		return m, tea.Batch(cmds...)

	case CountdownMsg:
		if msg.Gen != m.gen || m.resendIn <= 0 {
			return m, nil
		}
		m.resendIn--
		if m.resendIn == 0 {
			return m, nil
		}
		return m, countdown(m.gen)

	case CodeMsg:
		m.fetching = false
		switch {
		case errors.Is(msg.Err, otpmail.ErrNoCode):
			return m, ui.Notify("No code in your inbox yet")
		case msg.Err != nil:
			logger.Warn().Err(msg.Err).Msg("reading reset code from mail")
			return m, ui.Fail("Could not read your mailbox")
		case m.step != StepCode:
			return m, nil
		}
		m.fb.otp = msg.Code
		return m, tea.Batch(m.openForm(""), ui.Notify("Code filled from mail"))

	case VerifiedMsg:
		m.busy = false
		if msg.Err != nil {
			logger.Warn().Err(msg.Err).Msg("verifying reset code")
			return m, m.openForm(portal.UserMessage(msg.Err, "Invalid or expired code"))
		}
		m.step = StepPassword
		m.gen++
		m.resendIn = 0
		return m, m.openForm("")

	case ResetMsg:
		m.busy = false
		if msg.Err != nil {
			logger.Warn().Err(msg.Err).Msg("resetting password")
			return m, m.openForm(portal.UserMessage(msg.Err, "Could not reset the password"))
		}
		email := m.fb.email
		*m.fb = formBindings{}
		logger.Info().Str("email", email).Msg("password reset")
		return m, func() tea.Msg { return DoneMsg{Email: email} }

	case spinner.TickMsg:
		if !m.busy && !m.fetching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			m.gen++
			return m, func() tea.Msg { return CancelMsg{} }
		}
		if m.busy {
			return m, nil
		}
		if m.step == StepCode {
			switch {
			case key.Matches(msg, m.keys.Resend):
				return m.resend()
			case key.Matches(msg, m.keys.FetchCode):
				if m.mail == nil {
					return m, ui.Notify("No mailbox configured. Add one on the sign-in screen")
				}
				if m.fetching {
					return m, nil
				}
				return m, m.fetchCode()
			}
		}
	}

	return m.updateForm(msg)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.submit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	m.busy = true
	m.problem = ""
	api, fb := m.api, *m.fb
	var req tea.Cmd
	switch m.step {
	case StepEmail:
		req = func() tea.Msg {
			return SentMsg{Err: api.SendOTP(context.Background(), fb.email)}
		}
	case StepCode:
		req = func() tea.Msg {
			return VerifiedMsg{Err: api.VerifyOTP(context.Background(), fb.email, fb.otp)}
		}
	default:
		req = func() tea.Msg {
			return ResetMsg{Err: api.ResetPassword(context.Background(), fb.email, fb.otp, fb.password)}
		}
	}
	return m, tea.Batch(m.spinner.Tick, req)
}

func (m Model) resend() (Model, tea.Cmd) {
	if m.resendIn > 0 {
		return m, ui.Notify("You can resend in %ds", m.resendIn)
	}
	m.busy = true
	api, email := m.api, m.fb.email
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return SentMsg{Resend: true, Err: api.ResendOTP(context.Background(), email)}
	})
}

func (m *Model) fetchCode() tea.Cmd {
	m.fetching = true
	mail := m.mail
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		code, err := mail.LatestCode(ctx)
		return CodeMsg{Code: code, Err: err}
	})
}

func (m *Model) buildForm() *huh.Form {
	var group *huh.Group
	switch m.step {
	case StepEmail:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Description("We'll send a 6-digit code to this address").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validate.Email),
		)
	case StepCode:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Verification code").
				Description("Sent to " + m.fb.email).
				Placeholder("123456").
				CharLimit(6).
				Value(&m.fb.otp).
				Validate(validate.OTP),
		)
	default:
		fb := m.fb
		group = huh.NewGroup(
			huh.NewInput().
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validate.Password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.confirm).
				Validate(func(s string) error {
					return validate.PasswordConfirmation(fb.password, s)
				}),
		)
	}
	return huh.NewForm(group).WithWidth(m.formWidth())
}

// View renders the current step.
func (m Model) View() string {
	titles := [...]string{"Reset password · 1/3", "Reset password · 2/3", "Reset password · 3/3"}
	parts := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).Render(titles[m.step]),
	}
	if m.problem != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.problem), "")
	}
	if m.busy {
		parts = append(parts, m.spinner.View()+" Please wait...")
	} else if m.form != nil {
		parts = append(parts, m.form.View())
	}
	parts = append(parts, "", theme.HelpStyle.Render(m.hints()))
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) hints() string {
	if m.step != StepCode {
		return "enter continue · esc back to sign in"
	}
	resend := "ctrl+r resend code"
	if m.resendIn > 0 {
		resend = fmt.Sprintf("resend in %ds", m.resendIn)
	}
	hint := resend
	switch {
	case m.fetching:
		hint += " · " + m.spinner.View() + " checking mail"
	case m.mail != nil:
		hint += " · ctrl+g code from mail"
	}
	return hint + " · esc back"
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
	if w > 80 {
		w = 80
	}
	return w
}
