package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	goodStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	badStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

func separator(left, mid, right string, widths []int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(left))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render(mid))
		}
	}
	b.WriteString(dimStyle.Render(right))
	b.WriteString("\n")
	return b.String()
}

func pad(cell string, w int, left bool) string {
	gap := w - lipgloss.Width(cell)
	if gap < 0 {
		gap = 0
	}
	if left {
		return " " + cell + strings.Repeat(" ", gap) + " "
	}
	return " " + strings.Repeat(" ", gap) + cell + " "
}

// RenderTable renders a bordered table with headers and rows. The first
// column is left-aligned, the rest right-aligned. A row of just "---" draws
// a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(separator("╭", "┬", "╮", widths))

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(pad(h, widths[i], true)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		b.WriteString(separator("├", "┼", "┤", widths))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(separator("├", "┼", "┤", widths))
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(valueStyle.Render(pad(cell, widths[i], i == 0)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	b.WriteString(separator("╰", "┴", "╯", widths))
	return b.String()
}

// RenderProgressBar renders a bar for a 0-100 percentage.
func RenderProgressBar(pct decimal.Decimal, width int) string {
	f := pct.InexactFloat64() / 100
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	filled := int(f * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", goodStyle.Render(bar), FormatPercent(pct))
}

// Signed colours a money value green when >= 0 and red when negative.
func Signed(d decimal.Decimal, text string) string {
	if d.IsNegative() {
		return badStyle.Render(text)
	}
	return goodStyle.Render(text)
}

// Muted renders secondary text.
func Muted(s string) string { return mutedStyle.Render(s) }

// Warn renders a warning line.
func Warn(s string) string { return warnStyle.Render(s) }

// Error renders an error banner.
func Error(s string) string { return badStyle.Render("  " + s) }

// Success renders a confirmation line.
func Success(s string) string { return goodStyle.Render("  " + s) }

// RenderSummary renders the budget overview block for a project.
func RenderSummary(p model.Project, s model.BudgetSummary) string {
	track := goodStyle.Render("On Track")
	if !s.OnTrack() {
		track = badStyle.Render("Over Budget")
	}

	rows := [][]string{
		{"Total Budget", FormatCurrency(s.TotalBudget)},
		{"Forecast Total", FormatCurrency(s.TotalForecast)},
		{"Actual Spent", FormatCurrency(s.TotalActual)},
		{"Est. Final Cost", FormatCurrency(s.EstimatedFinalCost)},
		{"Variance", Signed(s.Variance, FormatSignedCurrency(s.Variance))},
		{"Remaining", FormatCurrency(s.Remaining) + " " + Muted("("+FormatPercent(s.RemainingPercent)+")")},
		{"---"},
		{"Completed Items", fmt.Sprintf("%d / %d", s.CompletedItems, s.TotalItems)},
		{"Budgeted (done)", FormatCurrency(s.BudgetedForCompleted)},
		{"Spent (done)", FormatCurrency(s.SpentOnCompleted)},
		{"Spend Variance", Signed(s.SpendVariance, FormatSignedCurrency(s.SpendVariance))},
		{"Status", FormatStatus(s.Status)},
		{"Budget", track},
	}

	var b strings.Builder
	b.WriteString(RenderTitle(p.Name))
	b.WriteString("\n")
	if p.Address != "" {
		b.WriteString("  " + Muted(p.Address) + "\n")
	}
	b.WriteString(fmt.Sprintf("  %s  %s\n", Muted("Progress"), RenderProgressBar(s.ProgressPercent, 30)))
	b.WriteString(RenderTable(Table{Headers: []string{"Metric", "Value"}, Rows: rows}))
	return b.String()
}

// ItemTable renders the forecast line items with their actuals.
func ItemTable(rows []model.ItemRow) Table {
	t := Table{
		Title:   "Forecast",
		Headers: []string{"ID", "Category", "Status", "Estimate", "Actual", "Variance", "Progress"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d", r.Item.ID),
			r.Item.Category,
			r.Status.Label(),
			FormatCurrency(r.Item.EstimatedCost),
			FormatCurrency(r.Actual),
			Signed(r.Variance, FormatSignedCurrency(r.Variance)),
			fmt.Sprintf("%d%%", r.Item.ProgressPercent),
		})
	}
	return t
}
