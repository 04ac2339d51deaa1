package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jobportal/internal/theme"
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar: title on the left, unread badge and
// right-hand status text on the right.
func (l Layout) RenderHeader(title string, unread int, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	right := theme.HeaderStyle.Align(lipgloss.Right).Render(status)
	if unread > 0 {
		right = lipgloss.JoinHorizontal(lipgloss.Top, theme.BadgeStyle.Render(badge(unread)), right)
	}

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		right,
	)
}

func badge(n int) string {
	if n > 99 {
		return "99+"
	}
	return fmt.Sprintf("%d", n)
}

// RenderStatusBar renders the bottom status bar. A snackbar, when set,
// replaces the key hints.
func (l Layout) RenderStatusBar(hints string, snack *Snack) string {
	var rendered string
	bg := theme.StatusBarStyle.GetBackground()
	if snack != nil {
		style := theme.SnackbarStyle(snack.Error)
		rendered = style.Render(snack.Text)
		bg = style.GetBackground()
	} else {
		rendered = theme.StatusBarStyle.Render(hints)
	}

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(bg).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
