package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/tui/theme"
)

// CategoryBar is one row of the estimate-versus-actual chart.
type CategoryBar struct {
	Label    string
	Estimate decimal.Decimal
	Actual   decimal.Decimal
}

// CategoryChart renders horizontal bars scaled to the largest figure.
// Each category gets an estimate bar and an actual bar below it; actuals
// above their estimate are drawn in red.
func CategoryChart(rows []CategoryBar, width int) string {
	t := theme.Active
	if len(rows) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No line items yet")
	}

	labelW := 4
	for _, r := range rows {
		if w := lipgloss.Width(r.Label); w > labelW {
			labelW = w
		}
	}
	if labelW > 18 {
		labelW = 18
	}
	barW := width - labelW - 2
	if barW < 10 {
		barW = 10
	}

	maxVal := decimal.Zero
	for _, r := range rows {
		maxVal = decimal.Max(maxVal, r.Estimate, r.Actual)
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Width(labelW)
	estStyle := lipgloss.NewStyle().Foreground(t.Estimate).Background(t.Surface)
	bg := lipgloss.NewStyle().Background(t.Surface)

	scaled := func(v decimal.Decimal) int {
		if !maxVal.IsPositive() || !v.IsPositive() {
			return 0
		}
		n := int(v.Div(maxVal).InexactFloat64() * float64(barW))
		if n == 0 {
			n = 1
		}
		return n
	}

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		label := r.Label
		if r := []rune(label); len(r) > labelW {
			label = string(r[:labelW-1]) + "…"
		}

		est := scaled(r.Estimate)
		b.WriteString(labelStyle.Render(label))
		b.WriteString(bg.Render(" "))
		b.WriteString(estStyle.Render(strings.Repeat("▔", est)))
		b.WriteString(bg.Render(strings.Repeat(" ", barW-est+1)))
		b.WriteString("\n")

		actColor := t.OnTrack
		if r.Actual.GreaterThan(r.Estimate) {
			actColor = t.OverBudget
		}
		act := scaled(r.Actual)
		b.WriteString(labelStyle.Render(""))
		b.WriteString(bg.Render(" "))
		b.WriteString(lipgloss.NewStyle().Foreground(actColor).Background(t.Surface).Render(strings.Repeat("█", act)))
		b.WriteString(bg.Render(strings.Repeat(" ", barW-act+1)))
	}
	return b.String()
}
