package resetpw

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobportal/internal/keys"
	"github.com/nhle/jobportal/internal/otpmail"
	"github.com/nhle/jobportal/internal/portal"
	"github.com/nhle/jobportal/internal/ui"
)

type fakeAPI struct {
	sent      []string
	resent    []string
	verified  []string
	reset     []string
	verifyErr error
}

func (f *fakeAPI) SendOTP(_ context.Context, email string) error {
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeAPI) ResendOTP(_ context.Context, email string) error {
	f.resent = append(f.resent, email)
	return nil
}

func (f *fakeAPI) VerifyOTP(_ context.Context, _, otp string) error {
	f.verified = append(f.verified, otp)
	return f.verifyErr
}

func (f *fakeAPI) ResetPassword(_ context.Context, email, otp, pw string) error {
	f.reset = append(f.reset, email+"|"+otp+"|"+pw)
	return nil
}

type fakeMail struct {
	code string
	err  error
}

func (f fakeMail) LatestCode(context.Context) (string, error) { return f.code, f.err }

// request runs a spinner-plus-request batch and returns the request's result.
func request(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg := c(); msg != nil {
			if _, tick := msg.(spinner.TickMsg); !tick {
				return msg
			}
		}
	}
	t.Fatal("no request in batch")
	return nil
}

func ctrl(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

// atCodeStep returns a model that has just sent a code to ana@example.com.
func atCodeStep(t *testing.T, api *fakeAPI, mail CodeReader) Model {
	t.Helper()
	m := New(api, mail, keys.DefaultKeyMap(), 80, 24)
	m.Start("ana@example.com")

	m, cmd := m.submit()
	assert.True(t, m.busy)
	m, _ = m.Update(request(t, cmd))

	require.Equal(t, StepCode, m.Step())
	return m
}

func TestEmailStepSendsCodeAndStartsCountdown(t *testing.T) {
	api := &fakeAPI{}
	m := atCodeStep(t, api, nil)

	assert.Equal(t, []string{"ana@example.com"}, api.sent)
	assert.Equal(t, ResendCooldown, m.ResendIn())
	assert.False(t, m.busy)
}

func TestResendIsGatedByCountdown(t *testing.T) {
	api := &fakeAPI{}
	m := atCodeStep(t, api, nil)

	_, cmd := m.Update(ctrl(tea.KeyCtrlR))
	require.NotNil(t, cmd)
	assert.Equal(t, ui.SnackMsg{Text: "You can resend in 30s"}, cmd())
	assert.Empty(t, api.resent)

	m, cmd = m.Update(CountdownMsg{Gen: m.gen - 1})
	assert.Nil(t, cmd)
	assert.Equal(t, 30, m.ResendIn(), "stale countdown is ignored")

	m, cmd = m.Update(CountdownMsg{Gen: m.gen})
	assert.NotNil(t, cmd)
	assert.Equal(t, 29, m.ResendIn())

	m.resendIn = 1
	m, cmd = m.Update(CountdownMsg{Gen: m.gen})
	assert.Nil(t, cmd)
	assert.Zero(t, m.ResendIn())

	m, cmd = m.Update(ctrl(tea.KeyCtrlR))
	m, _ = m.Update(request(t, cmd))
	assert.Equal(t, []string{"ana@example.com"}, api.resent)
	assert.Equal(t, ResendCooldown, m.ResendIn())
	assert.Equal(t, StepCode, m.Step())
}

func TestCodeFilledFromMail(t *testing.T) {
	m := atCodeStep(t, &fakeAPI{}, fakeMail{code: "482913"})
	m.fetching = false

	m, cmd := m.Update(ctrl(tea.KeyCtrlG))
	assert.True(t, m.fetching)
	m, _ = m.Update(request(t, cmd))

	assert.False(t, m.fetching)
	assert.Equal(t, "482913", m.fb.otp)
}

func TestCodeFromMailNotFound(t *testing.T) {
	m := atCodeStep(t, &fakeAPI{}, fakeMail{err: otpmail.ErrNoCode})

	_, cmd := m.Update(CodeMsg{Err: otpmail.ErrNoCode})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.SnackMsg{Text: "No code in your inbox yet"}, cmd())
}

func TestCodeFromMailWithoutMailbox(t *testing.T) {
	m := atCodeStep(t, &fakeAPI{}, nil)

	_, cmd := m.Update(ctrl(tea.KeyCtrlG))
	require.NotNil(t, cmd)
	assert.Equal(t, ui.SnackMsg{Text: "No mailbox configured. Add one on the sign-in screen"}, cmd())
}

func TestVerifyFailureStaysOnCodeStep(t *testing.T) {
	api := &fakeAPI{verifyErr: &portal.APIError{Status: 400, Message: "OTP expired"}}
	m := atCodeStep(t, api, nil)
	m.fb.otp = "111111"

	m, cmd := m.submit()
	m, _ = m.Update(request(t, cmd))

	assert.Equal(t, []string{"111111"}, api.verified)
	assert.Equal(t, StepCode, m.Step())
	assert.Equal(t, "OTP expired", m.problem)
}

func TestResetCompletesFlow(t *testing.T) {
	api := &fakeAPI{}
	m := atCodeStep(t, api, nil)
	m.fb.otp = "482913"

	m, cmd := m.submit()
	m, _ = m.Update(request(t, cmd))
	require.Equal(t, StepPassword, m.Step())
	assert.Zero(t, m.ResendIn())

	m.fb.password = "S3cure!pw"
	m.fb.confirm = "S3cure!pw"
	m, cmd = m.submit()
	m, cmd = m.Update(request(t, cmd))

	assert.Equal(t, []string{"ana@example.com|482913|S3cure!pw"}, api.reset)
	require.NotNil(t, cmd)
	assert.Equal(t, DoneMsg{Email: "ana@example.com"}, cmd())
	assert.Empty(t, m.fb.password, "secrets are cleared")
}

func TestEscCancels(t *testing.T) {
	m := New(&fakeAPI{}, nil, keys.DefaultKeyMap(), 80, 24)
	m.Start("")

	_, cmd := m.Update(ctrl(tea.KeyEsc))
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
}

func TestSendFailureKeepsEmailStep(t *testing.T) {
	m := New(&fakeAPI{}, nil, keys.DefaultKeyMap(), 80, 24)
	m.Start("ana@example.com")

	m, _ = m.Update(SentMsg{Err: errors.New("no route")})

	assert.Equal(t, StepEmail, m.Step())
	assert.Equal(t, "Could not send the code", m.problem)
}
