package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Display.PageSize)
	assert.Equal(t, 60, cfg.Display.PollIntervalSec)
	assert.Equal(t, 3, cfg.Backend.MaxRetries)
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoadConfigOverridesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
backend:
  base_url: https://portal.example.com/api
display:
  page_size: 0
  poll_interval_sec: 1
mail:
  host: imap.example.com
  username: me@example.com
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, 6, cfg.Display.PageSize)
	assert.Equal(t, 60, cfg.Display.PollIntervalSec)
	assert.Equal(t, 30, cfg.Backend.TimeoutSec)
	assert.True(t, cfg.Mail.Enabled())
	assert.Equal(t, "993", cfg.Mail.Port)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.Backend.BaseURL = "https://jobs.example.org"
	cfg.Display.PageSize = 12

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.example.org", loaded.Backend.BaseURL)
	assert.Equal(t, 12, loaded.Display.PageSize)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleRecruiter, ParseRole("ROLE_RECRUITER"))
	assert.Equal(t, RoleRecruiter, ParseRole(" recruiter "))
	assert.Equal(t, RoleApplicant, ParseRole("APPLICANT"))
	assert.Equal(t, RoleApplicant, ParseRole(""))
}
