package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/tui/theme"
)

var hundred = decimal.NewFromInt(100)

// ColorForSpend returns green/yellow/orange/red for a spent-to-budget ratio.
func ColorForSpend(ratio float64) lipgloss.Color {
	t := theme.Active
	switch {
	case ratio > 1:
		return t.OverBudget
	case ratio >= 0.9:
		return t.NearLimit
	case ratio >= 0.7:
		return t.Caution
	default:
		return t.OnTrack
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func bar(color lipgloss.Color, width int) progress.Model {
	t := theme.Active
	if width < 4 {
		width = 4
	}
	p := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	p.EmptyColor = string(t.TextDim)
	return p
}

// ProgressBar renders completion on a 0-100 scale followed by the percentage.
func ProgressBar(pct decimal.Decimal, width int) string {
	t := theme.Active
	f := clamp01(pct.Div(hundred).InexactFloat64())

	color := t.InProgress
	switch {
	case f >= 1:
		color = t.OnTrack
	case f >= 0.5:
		color = t.Accent
	}

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	return bar(color, width).ViewAs(f) + space + pctStyle.Render(pct.StringFixed(1)+"%")
}

// SpendBar renders a labelled bar of spent against budget. A zero budget
// renders an empty bar with no ratio.
func SpendBar(label string, spent, budget decimal.Decimal, labelW, barW int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Width(labelW)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	if !budget.IsPositive() {
		dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
		return labelStyle.Render(label) + space + bar(t.TextDim, barW).ViewAs(0) + space + dim.Render("no budget")
	}

	ratio := spent.Div(budget).InexactFloat64()
	color := ColorForSpend(ratio)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)

	return labelStyle.Render(label) +
		space +
		bar(color, barW).ViewAs(clamp01(ratio)) +
		space +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", ratio*100))
}
