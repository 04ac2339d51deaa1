package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/portal"
)

// Snack is a transient status bar banner.
type Snack struct {
	Text  string
	Error bool
}

// SnackMsg asks the root model to show a snackbar.
type SnackMsg Snack

// RefreshUnreadMsg asks the root model to re-query the header badge.
type RefreshUnreadMsg struct{}

// AuthExpiredMsg is emitted when the backend rejects the bearer token.
type AuthExpiredMsg struct {
	Message string
}

// ProgressQueuedMsg reports that watch progress was stored locally for a
// later flush.
type ProgressQueuedMsg struct{}

// Swapped in tests.
var (
	writeClipboard = clipboard.WriteAll
	startBrowser   = browserCommand
)

// Notify returns a command that shows an informational snackbar.
func Notify(format string, args ...interface{}) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return SnackMsg{Text: text} }
}

// Fail returns a command that shows an error snackbar.
func Fail(text string) tea.Cmd {
	return func() tea.Msg { return SnackMsg{Text: text, Error: true} }
}

// RefreshUnread is a tea.Cmd emitting RefreshUnreadMsg.
func RefreshUnread() tea.Msg { return RefreshUnreadMsg{} }

// ErrorMsg logs err against op and converts it into the message the root
// model reacts to: AuthExpiredMsg for rejected tokens, an error snackbar
// otherwise.
func ErrorMsg(op string, err error, fallback string) tea.Msg {
	if portal.IsAuthError(err) {
		logger.Warn().Err(err).Str("op", op).Msg("token rejected")
		return AuthExpiredMsg{Message: "Your session has expired. Sign in again."}
	}
	logger.Error().Err(err).Str("op", op).Msg("request failed")
	return SnackMsg{Text: portal.UserMessage(err, fallback), Error: true}
}

// CopyCmd writes text to the system clipboard and reports the outcome.
func CopyCmd(text, label string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(text) == "" {
			return SnackMsg{Text: "Nothing to copy", Error: true}
		}
		if err := writeClipboard(text); err != nil {
			logger.Warn().Err(err).Msg("clipboard write failed")
			return SnackMsg{Text: "Clipboard unavailable", Error: true}
		}
		return SnackMsg{Text: label + " copied"}
	}
}

// OpenURL launches the system browser on url.
func OpenURL(url string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(url) == "" {
			return SnackMsg{Text: "No link available", Error: true}
		}
		cmd := startBrowser(url)
		if err := cmd.Start(); err != nil {
			logger.Warn().Err(err).Str("url", url).Msg("opening browser failed")
			return SnackMsg{Text: "Could not open browser", Error: true}
		}
		go func() { _ = cmd.Wait() }()
		return SnackMsg{Text: "Opened in browser"}
	}
}

func browserCommand(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// Truncate shortens s to width runes, appending an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
