package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/tui/components"
	"github.com/theirongolddev/sitebudget/internal/tui/theme"
)

// sortedExpenses returns expenses newest first.
func (a App) sortedExpenses() []model.Expense {
	exps := a.view.Expenses.All()
	sort.Slice(exps, func(i, j int) bool {
		if !exps[i].Date.Equal(exps[j].Date.Time) {
			return exps[i].Date.After(exps[j].Date.Time)
		}
		return exps[i].ID > exps[j].ID
	})
	return exps
}

func (a App) renderExpensesTab(cw, h int) string {
	t := theme.Active
	exps := a.sortedExpenses()

	if len(exps) == 0 {
		dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
		return components.ContentCard("Expenses", dim.Render("No expenses recorded."), cw)
	}

	categories := make(map[int64]string)
	for _, it := range a.view.Items.All() {
		categories[it.ID] = it.Category
	}

	cols := []column{
		{title: "Date", width: 12},
		{title: "Vendor"},
		{title: "Line item", width: 22},
		{title: "Amount", width: 14, right: true},
	}
	if !a.isCompactLayout() {
		cols = append(cols, column{title: "Receipt", width: 30})
	}

	total := decimal.Zero
	unlinked := decimal.Zero
	rows := make([][]string, len(exps))
	for i, e := range exps {
		item := "-"
		if e.ForecastLineItemID != nil {
			item = categories[*e.ForecastLineItemID]
			if item == "" {
				item = fmt.Sprintf("#%d", *e.ForecastLineItemID)
			}
		} else {
			unlinked = unlinked.Add(e.AmountSpent)
		}
		vendor := e.Vendor
		if vendor == "" {
			vendor = "-"
		}
		row := []string{cli.FormatDate(e.Date), vendor, item, cli.FormatCurrency(e.AmountSpent)}
		if !a.isCompactLayout() {
			row = append(row, e.ReceiptURL)
		}
		rows[i] = row
		total = total.Add(e.AmountSpent)
	}

	body := renderTable(cols, rows, a.cursors[tabExpenses], h-listOverhead, components.CardInnerWidth(cw))

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	bold := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	footer := muted.Render("Total ") + bold.Render(cli.FormatCurrency(total)) +
		muted.Render("  not linked to an item ") + bold.Render(cli.FormatCurrency(unlinked))
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("[x x] delete  [j/k] move")

	title := fmt.Sprintf("Expenses · %d", len(exps))
	return components.ContentCard(title, body+"\n\n"+footer+"\n"+hint, cw)
}

func (a App) renderDrawsTab(cw, h int) string {
	t := theme.Active
	draws := a.view.Draws.All()

	if len(draws) == 0 {
		dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
		return components.ContentCard("Draws", dim.Render("No draws tracked for this project."), cw)
	}

	cols := []column{
		{title: "Last draw", width: 14},
		{title: "Cash on hand", width: 16, right: true},
		{title: "Triggered", width: 10},
		{title: "Notes"},
	}
	rows := make([][]string, len(draws))
	for i, d := range draws {
		triggered := "no"
		if d.DrawTriggered {
			triggered = "yes"
		}
		rows[i] = []string{cli.FormatDate(d.LastDrawDate), cli.FormatCurrency(d.CashOnHand), triggered, d.Notes}
	}

	body := renderTable(cols, rows, a.cursors[tabDraws], h-listOverhead, components.CardInnerWidth(cw))
	return components.ContentCard(fmt.Sprintf("Draws · %d", len(draws)), body, cw)
}
