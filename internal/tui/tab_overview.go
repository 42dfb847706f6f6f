package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/tui/components"
	"github.com/theirongolddev/sitebudget/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.view.Summary()
	p := a.view.Project()

	remainingNote := ""
	if s.TotalBudget.IsPositive() {
		remainingNote = cli.FormatPercent(s.RemainingPercent) + " of budget"
	}

	metrics := []components.Metric{
		{Label: "Total Budget", Value: cli.FormatCurrency(s.TotalBudget)},
		{Label: "Est. Final Cost", Value: cli.FormatCurrency(s.EstimatedFinalCost),
			Note: "forecast " + cli.FormatCurrency(s.TotalForecast)},
		{Label: "Actual Spent", Value: cli.FormatCurrency(s.TotalActual)},
		{Label: "Variance", Value: cli.FormatSignedCurrency(s.Variance),
			Color: t.Track(s.Variance.IsNegative())},
		{Label: "Remaining", Value: cli.FormatCurrency(s.Remaining), Note: remainingNote},
	}

	var b strings.Builder
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(metrics[:3], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(metrics[3:], cw))
	} else {
		b.WriteString(components.MetricCardRow(metrics, cw))
	}
	b.WriteString("\n")

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	line := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-18s", label)) + valueStyle.Render(value)
	}
	signed := func(label string, negative bool, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-18s", label)) +
			lipgloss.NewStyle().Foreground(t.Track(negative)).Background(t.Surface).Render(value)
	}

	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}

	// Progress card
	track := lipgloss.NewStyle().Foreground(t.OnTrack).Background(t.Surface).Bold(true).Render("On Track")
	if !s.OnTrack() {
		track = lipgloss.NewStyle().Foreground(t.OverBudget).Background(t.Surface).Bold(true).Render("Over Budget")
	}
	barW := components.CardInnerWidth(halves[0]) - 8
	progress := strings.Join([]string{
		components.ProgressBar(s.ProgressPercent, barW),
		"",
		line("Status", cli.FormatStatus(s.Status)),
		line("Completed items", fmt.Sprintf("%d / %d", s.CompletedItems, s.TotalItems)),
		line("Budgeted (done)", cli.FormatCurrency(s.BudgetedForCompleted)),
		line("Spent (done)", cli.FormatCurrency(s.SpentOnCompleted)),
		signed("Spend variance", s.SpendVariance.IsNegative(), cli.FormatSignedCurrency(s.SpendVariance)),
		labelStyle.Render(fmt.Sprintf("%-18s", "Budget")) + track,
	}, "\n")
	progressCard := components.ContentCard("Progress", progress, halves[0])

	// Project card
	spendW := components.CardInnerWidth(halves[1]) - 22
	details := strings.Join([]string{
		components.SpendBar("Spent", s.TotalActual, s.TotalBudget, 10, spendW),
		components.SpendBar("Projected", s.EstimatedFinalCost, s.TotalBudget, 10, spendW),
		"",
		line("Start", cli.FormatDate(p.StartDate)),
		line("Target", cli.FormatDate(p.TargetCompletionDate)),
		line("Square feet", cli.FormatSqft(p.TotalSqft)),
		line("Expenses", fmt.Sprintf("%d recorded", a.view.Expenses.Len())),
		line("Actuals from", string(a.view.Source())),
	}, "\n")
	projectCard := components.ContentCard("Budget", details, halves[1])

	if a.isCompactLayout() {
		b.WriteString(progressCard)
		b.WriteString("\n")
		b.WriteString(projectCard)
	} else {
		b.WriteString(components.CardRow([]string{progressCard, projectCard}))
	}
	b.WriteString("\n")

	rows := a.view.Rows()
	bars := make([]components.CategoryBar, len(rows))
	for i, r := range rows {
		bars[i] = components.CategoryBar{Label: r.Item.Category, Estimate: r.Item.EstimatedCost, Actual: r.Actual}
	}
	legend := lipgloss.NewStyle().Foreground(t.Estimate).Background(t.Surface).Render("▔ estimate") +
		labelStyle.Render("  ") +
		lipgloss.NewStyle().Foreground(t.OnTrack).Background(t.Surface).Render("█ actual")
	chart := legend + "\n" + components.CategoryChart(bars, components.CardInnerWidth(cw))
	b.WriteString(components.ContentCard("Estimate vs Actual", chart, cw))

	return b.String()
}
