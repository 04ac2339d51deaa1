package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// BackendConfig points the client at the portal REST API.
type BackendConfig struct {
	// BaseURL is the root URL of the API (e.g., https://portal.example.com/api).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries caps the retries on HTTP 429.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme           string `mapstructure:"theme" yaml:"theme"`
	PageSize        int    `mapstructure:"page_size" yaml:"page_size"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	SnackbarSec     int    `mapstructure:"snackbar_sec" yaml:"snackbar_sec"`
}

// MailConfig enables reading OTP codes from the user's inbox. The IMAP
// password is stored in the system keyring, never in this file.
type MailConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// Enabled reports whether enough IMAP settings are present to connect.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Username != ""
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	File   string `mapstructure:"file" yaml:"file"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Mail    MailConfig    `mapstructure:"mail" yaml:"mail"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/jobportal, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "jobportal")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/jobportal/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 30,
			MaxRetries: 3,
		},
		Display: DisplayConfig{
			Theme:           "default",
			PageSize:        6,
			PollIntervalSec: 60,
			SnackbarSec:     3,
		},
		Mail: MailConfig{
			Port: "993",
			TLS:  true,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "jobportal.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("JOBPORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend.base_url", def.Backend.BaseURL)
	v.SetDefault("backend.timeout_sec", def.Backend.TimeoutSec)
	v.SetDefault("backend.max_retries", def.Backend.MaxRetries)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.page_size", def.Display.PageSize)
	v.SetDefault("display.poll_interval_sec", def.Display.PollIntervalSec)
	v.SetDefault("display.snackbar_sec", def.Display.SnackbarSec)
	v.SetDefault("mail.port", def.Mail.Port)
	v.SetDefault("mail.tls", def.Mail.TLS)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Display.PageSize < 1 {
		cfg.Display.PageSize = def.Display.PageSize
	}
	if cfg.Display.PollIntervalSec < 5 {
		cfg.Display.PollIntervalSec = def.Display.PollIntervalSec
	}
	if cfg.Backend.TimeoutSec <= 0 {
		cfg.Backend.TimeoutSec = def.Backend.TimeoutSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("display", cfg.Display)
	v.Set("mail", cfg.Mail)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
