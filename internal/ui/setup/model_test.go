package setup

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobportal/internal/keys"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/portal"
)

type probeCall struct {
	baseURL, token string
}

func drive(m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case ProbeMsg, savedMsg:
			var next tea.Cmd
			m, next = m.Update(msg)
			queue = append(queue, next)
		default:
			out = append(out, msg)
		}
	}
	return m, out
}

func newModel(probe Prober, save Saver) Model {
	cfg := model.DefaultAppConfig()
	cfg.Backend.BaseURL = "https://portal.example.com/api/"
	cfg.Mail.Host = "imap.example.com"
	cfg.Mail.Username = "ana@example.com"
	cfg.Mail.TLS = false
	m := New(probe, save, cfg, keys.DefaultKeyMap(), 80, 30)
	m.Start("")
	m.fb.token = " tok-123 "
	return m
}

func TestSignInProbesAndSaves(t *testing.T) {
	var calls []probeCall
	var saved []Settings
	probe := func(_ context.Context, baseURL, token string) (*model.User, error) {
		calls = append(calls, probeCall{baseURL, token})
		return &model.User{ID: "5", Email: "ana@example.com", Role: "APPLICANT"}, nil
	}
	save := func(s Settings) error {
		saved = append(saved, s)
		return nil
	}
	m := newModel(probe, save)

	m, cmd := m.startProbe()
	assert.Equal(t, ModeProbing, m.Mode())
	_, out := drive(m, cmd)

	assert.Equal(t, []probeCall{{"https://portal.example.com/api", "tok-123"}}, calls)
	require.Len(t, saved, 1)
	assert.Equal(t, "imap.example.com", saved[0].Mail.Host)
	require.Len(t, out, 1)
	done := out[0].(DoneMsg)
	assert.Equal(t, model.ID("5"), done.User.ID)
	assert.Equal(t, "tok-123", done.Settings.Token)
}

func TestRejectedTokenShowsResult(t *testing.T) {
	probe := func(context.Context, string, string) (*model.User, error) {
		return nil, &portal.AuthError{Status: 401}
	}
	saveCalled := false
	m := newModel(probe, func(Settings) error { saveCalled = true; return nil })

	m, cmd := m.startProbe()
	m, out := drive(m, cmd)

	assert.Empty(t, out)
	assert.False(t, saveCalled)
	assert.Equal(t, ModeResult, m.Mode())
	assert.Contains(t, m.View(), "The server rejected this token.")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeForm, m.Mode())
	assert.NotNil(t, cmd)
}

func TestSaveFailureShowsResult(t *testing.T) {
	probe := func(context.Context, string, string) (*model.User, error) {
		return &model.User{ID: "5"}, nil
	}
	m := newModel(probe, func(Settings) error { return errors.New("keyring locked") })

	m, cmd := m.startProbe()
	m, out := drive(m, cmd)

	assert.Empty(t, out)
	assert.Equal(t, ModeResult, m.Mode())
	assert.Contains(t, m.failure, "keyring locked")
}

func TestForgotAndCancelKeys(t *testing.T) {
	m := newModel(nil, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	require.NotNil(t, cmd)
	assert.Equal(t, ForgotMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
	assert.True(t, m.Capturing())
}

func TestNewPrefillsFromConfig(t *testing.T) {
	m := newModel(nil, nil)
	s := m.fb.settings()

	assert.Equal(t, "https://portal.example.com/api", s.BaseURL)
	assert.Equal(t, "ana@example.com", s.Mail.Username)
	assert.False(t, s.Mail.TLS, "explicit config value is kept")
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"993", false},
		{"0", true},
		{"70000", true},
		{"imap", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := validatePort(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
