package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/jobportal/internal/app"
	"github.com/nhle/jobportal/internal/credential"
	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/otpmail"
	"github.com/nhle/jobportal/internal/portal"
	"github.com/nhle/jobportal/internal/store"
	"github.com/nhle/jobportal/internal/ui/resetpw"
	"github.com/nhle/jobportal/internal/ui/setup"
)

func main() {
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("jobportal exited with an error")
		fmt.Fprintln(os.Stderr, "jobportal:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", model.DefaultConfigPath(), "path to the config file")
	logLevel := pflag.String("log-level", "", "log level override (debug, info, warn, error)")
	pflag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	closeLog := configureLogger(cfg.Log)
	defer closeLog()

	if err := os.MkdirAll(model.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	s, err := store.NewSQLiteStore(filepath.Join(model.ConfigDir(), "cache.db"))
	if err != nil {
		return fmt.Errorf("opening local cache: %w", err)
	}
	defer s.Close()

	root := app.New(app.Deps{
		Config:       cfg,
		Store:        s,
		Connect:      connector(cfg.Backend),
		LoadToken:    credential.Token,
		SaveSettings: saver(*configPath, cfg),
		ClearToken:   credential.ClearToken,
		Mail:         mailReader,
		ExportDir:    exportDir(),
	})

	logger.Info().Str("config", *configPath).Str("base_url", cfg.Backend.BaseURL).Msg("starting jobportal")
	final, err := tea.NewProgram(root, tea.WithAltScreen()).Run()
	if m, ok := final.(app.Model); ok {
		m.Shutdown()
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	logger.Info().Msg("jobportal finished")
	return nil
}

// configureLogger points the logger at the configured file. Logging is
// disabled when the file cannot be opened since the terminal belongs to
// the UI.
func configureLogger(c model.LogConfig) func() {
	if c.File == "" {
		return func() {}
	}
	f, err := logger.OpenFile(c.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, "jobportal: logging disabled:", err)
		return func() {}
	}
	logger.Configure(logger.Config{
		Level:  logger.ParseLevel(c.Level),
		Pretty: c.Pretty,
		Output: f,
	})
	return func() { _ = f.Close() }
}

func connector(b model.BackendConfig) func(string, portal.TokenSource) app.Client {
	return func(baseURL string, token portal.TokenSource) app.Client {
		return portal.NewClient(baseURL, token,
			portal.WithTimeout(time.Duration(b.TimeoutSec)*time.Second),
			portal.WithMaxRetries(b.MaxRetries),
		)
	}
}

// saver persists accepted sign-in settings: secrets to the keyring, the
// rest to the config file.
func saver(path string, cfg *model.AppConfig) setup.Saver {
	return func(st setup.Settings) error {
		if err := credential.SetToken(st.Token); err != nil {
			return err
		}
		if st.MailPassword != "" {
			if err := credential.Set(credential.MailPasswordKey, st.MailPassword); err != nil {
				return err
			}
		}

		next := *cfg
		next.Backend.BaseURL = st.BaseURL
		next.Mail = st.Mail
		return model.SaveConfig(path, &next)
	}
}

func mailReader(c model.MailConfig) resetpw.CodeReader {
	if !c.Enabled() {
		return nil
	}
	pw, err := credential.MailPassword()
	if err != nil {
		logger.Warn().Err(err).Msg("reading mail password")
		return nil
	}
	return otpmail.NewReader(c, pw)
}

func exportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(model.ConfigDir(), "exports")
	}
	return filepath.Join(home, "Downloads")
}
