package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jobportal/internal/paging"
	"github.com/nhle/jobportal/internal/theme"
)

// RenderPager draws the footer under a paginated list: prev/next
// controls, page dots and the item range. Disabled controls are dimmed.
func RenderPager(p paging.Pager) string {
	if p.TotalPages() == 0 {
		return theme.DimmedStyle.Render(p.Summary())
	}

	dots := paginator.New()
	dots.Type = paginator.Dots
	dots.ActiveDot = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("•")
	dots.InactiveDot = theme.DimmedStyle.Render("•")
	dots.SetTotalPages(p.TotalPages())
	dots.Page = p.ServerPage()
	if p.TotalPages() > 12 {
		dots.Type = paginator.Arabic
	}

	prev := control("‹ prev", p.HasPrev())
	next := control("next ›", p.HasNext())

	return strings.Join([]string{
		prev,
		dots.View(),
		next,
		theme.DimmedStyle.Render(p.Summary()),
	}, "  ")
}

func control(label string, enabled bool) string {
	if !enabled {
		return lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(label)
	}
	return lipgloss.NewStyle().Foreground(theme.ColorBlue).Render(label)
}

// RenderTabs draws a tab strip with active highlighted.
func RenderTabs(labels []string, active int) string {
	rendered := make([]string, len(labels))
	for i, l := range labels {
		if i == active {
			rendered[i] = theme.ActiveTabStyle.Render(l)
		} else {
			rendered[i] = theme.InactiveTabStyle.Render(l)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// RenderRows renders lines as a selectable list with cursor highlighted.
func RenderRows(lines []string, cursor int) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if i == cursor {
			out[i] = theme.SelectedItemStyle.Render(l)
		} else {
			out[i] = theme.ListItemStyle.Render(l)
		}
	}
	return strings.Join(out, "\n")
}

// MoveCursor applies a delta to cursor and bounds it to [0, n).
func MoveCursor(cursor, delta, n int) int {
	cursor += delta
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// EmptyState renders centered guidance text for an empty view.
func EmptyState(width, height int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}
