package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sitebudget/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports.
type StatusInfo struct {
	Source      string // actuals convention
	Age         string // time since the data was fetched
	FromCache   bool
	Refreshing  bool
	AutoRefresh bool
	Message     string
	IsError     bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, st StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.NearLimit).Background(t.Surface)
	bad := lipgloss.NewStyle().Foreground(t.OverBudget).Background(t.Surface).Bold(true)
	good := lipgloss.NewStyle().Foreground(t.OnTrack).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")
	if st.Message != "" {
		style := good
		if st.IsError {
			style = bad
		}
		left += base.Render("  ") + style.Render(st.Message)
	}

	var right []string
	if st.Refreshing {
		right = append(right, accent.Render("refreshing…"))
	}
	if st.AutoRefresh {
		right = append(right, accent.Render("auto"))
	}
	if st.FromCache {
		right = append(right, warn.Render("offline"))
	}
	if st.Source != "" {
		right = append(right, base.Render("actuals: ")+accent.Render(st.Source))
	}
	if st.Age != "" {
		right = append(right, base.Render("data: "+st.Age))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 0 {
		padding = 0
	}

	return lipgloss.NewStyle().Background(t.Surface).Width(width).
		Render(left + base.Render(strings.Repeat(" ", padding)) + rightStr)
}
