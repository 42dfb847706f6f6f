package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/form"
	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/tui/components"
	"github.com/theirongolddev/sitebudget/internal/tui/theme"
)

// column describes one table column. A zero width takes the remaining space.
type column struct {
	title string
	width int
	right bool
}

// renderTable renders rows with a highlighted cursor row, scrolled so the
// cursor stays visible within height lines.
func renderTable(cols []column, rows [][]string, cursor, height, innerW int) string {
	t := theme.Active

	fixed := 0
	flex := -1
	for i, c := range cols {
		if c.width == 0 {
			flex = i
			continue
		}
		fixed += c.width + 1
	}
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = c.width
	}
	if flex >= 0 {
		widths[flex] = innerW - fixed
		if widths[flex] < 8 {
			widths[flex] = 8
		}
	}

	cell := func(s string, i int, style lipgloss.Style) string {
		s = truncStr(s, widths[i])
		st := style.Width(widths[i])
		if cols[i].right {
			st = st.Align(lipgloss.Right)
		}
		return st.Render(s)
	}

	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Selected).Bold(true)
	gap := func(style lipgloss.Style) string { return style.Width(1).Render(" ") }

	var b strings.Builder
	for i := range cols {
		if i > 0 {
			b.WriteString(gap(headStyle))
		}
		b.WriteString(cell(cols[i].title, i, headStyle))
	}

	start, end := visibleWindow(len(rows), cursor, height)
	for r := start; r < end; r++ {
		style := rowStyle
		if r == cursor {
			style = selStyle
		}
		b.WriteString("\n")
		for i := range cols {
			if i > 0 {
				b.WriteString(gap(style))
			}
			b.WriteString(cell(rows[r][i], i, style))
		}
	}
	return b.String()
}

func (a App) renderForecastTab(cw, h int) string {
	t := theme.Active
	rows := a.view.Rows()
	innerW := components.CardInnerWidth(cw)

	if len(rows) == 0 {
		dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
		return components.ContentCard("Forecast", dim.Render("No line items yet. Add one with `sitebudget items add`."), cw)
	}

	cols := []column{
		{title: "Category"},
		{title: "Status", width: 12},
		{title: "Estimate", width: 14, right: true},
		{title: "Actual", width: 14, right: true},
		{title: "Variance", width: 14, right: true},
		{title: "Progress", width: 8, right: true},
	}
	if !a.isCompactLayout() {
		cols = append(cols, column{title: "Start", width: 12}, column{title: "End", width: 12})
	}

	table := make([][]string, len(rows))
	var estimate, actual decimal.Decimal
	for i, r := range rows {
		line := []string{
			r.Item.Category,
			r.Status.Label(),
			cli.FormatCurrency(r.Item.EstimatedCost),
			cli.FormatCurrency(r.Actual),
			cli.FormatSignedCurrency(r.Variance),
			fmt.Sprintf("%d%%", r.Item.ProgressPercent),
		}
		if !a.isCompactLayout() {
			line = append(line, cli.FormatDate(r.Item.StartDate), cli.FormatDate(r.Item.EndDate))
		}
		table[i] = line
		estimate = estimate.Add(r.Item.EstimatedCost)
		actual = actual.Add(r.Actual)
	}

	body := renderTable(cols, table, a.cursors[tabForecast], h-listOverhead, innerW)

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	total := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	variance := estimate.Sub(actual)
	footer := muted.Render("Total estimate ") + total.Render(cli.FormatCurrency(estimate)) +
		muted.Render("  actual ") + total.Render(cli.FormatCurrency(actual)) +
		muted.Render("  variance ") +
		lipgloss.NewStyle().Foreground(t.Track(variance.IsNegative())).Background(t.Surface).Bold(true).
			Render(cli.FormatSignedCurrency(variance))
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render("[enter] edit  [x x] delete  [j/k] move")

	title := fmt.Sprintf("Forecast · %d items", len(rows))
	return components.ContentCard(title, body+"\n\n"+footer+"\n"+hint, cw)
}

// ─── Line item edit form ────────────────────────────────────────

// itemEditValues holds the raw edit form fields.
type itemEditValues struct {
	item     model.ForecastItem
	actual   decimal.Decimal
	Status   string
	Progress string
	Estimate string
	Actual   string
}

func validateAmount(field, label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		_, err := form.Amount(field, label, s)
		return err
	}
}

func validateProgress(s string) error {
	_, err := form.Item{Category: "x", Progress: s}.Parse(model.ForecastItem{})
	return err
}

func newItemEditForm(v *itemEditValues) *huh.Form {
	opts := make([]huh.Option[string], len(model.Statuses))
	for i, s := range model.Statuses {
		opts[i] = huh.NewOption(s.Label(), string(s))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(v.item.Category).
				Description(v.item.Description),
			huh.NewSelect[string]().
				Title("Status").
				Options(opts...).
				Value(&v.Status),
			huh.NewInput().
				Title("Progress %").
				Value(&v.Progress).
				Validate(validateProgress),
			huh.NewInput().
				Title("Estimated cost").
				Value(&v.Estimate).
				Validate(validateAmount("estimated_cost", "Estimated cost")),
			huh.NewInput().
				Title("Actual cost").
				Value(&v.Actual).
				Validate(validateAmount("actual_cost", "Actual cost")),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(false)
}

func formWidth(w int) int {
	if w > 74 {
		return 70
	}
	return w - 4
}

func (a App) openEditForm() (tea.Model, tea.Cmd) {
	rows := a.view.Rows()
	if len(rows) == 0 {
		return a, nil
	}
	r := rows[a.cursors[tabForecast]]
	a.editVals = &itemEditValues{
		item:     r.Item,
		actual:   r.Actual,
		Status:   string(r.Status),
		Progress: fmt.Sprintf("%d", r.Item.ProgressPercent),
		Estimate: r.Item.EstimatedCost.StringFixed(2),
		Actual:   r.Actual.StringFixed(2),
	}
	a.editForm = newItemEditForm(a.editVals)
	if a.width > 0 {
		a.editForm = a.editForm.WithWidth(formWidth(a.width))
	}
	return a, a.editForm.Init()
}

func (a App) updateEditForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.editForm = nil
		a.editVals = nil
		return a, nil
	}

	f, cmd := a.editForm.Update(msg)
	if hf, ok := f.(*huh.Form); ok {
		a.editForm = hf
	}

	switch a.editForm.State {
	case huh.StateCompleted:
		vals := a.editVals
		a.editForm = nil
		a.editVals = nil
		return a.submitEdit(vals)
	case huh.StateAborted:
		a.editForm = nil
		a.editVals = nil
		return a, nil
	}
	return a, cmd
}

// submitEdit validates the form and runs the reconciled edit.
func (a App) submitEdit(v *itemEditValues) (tea.Model, tea.Cmd) {
	it, err := form.Item{
		Status:        v.Status,
		Progress:      v.Progress,
		EstimatedCost: v.Estimate,
	}.Parse(v.item)
	if err != nil {
		a.setFlash(err.Error(), true)
		return a, nil
	}

	var actual *decimal.Decimal
	if s := strings.TrimSpace(v.Actual); s != "" {
		d, err := form.Amount("actual_cost", "Actual cost", s)
		if err != nil {
			a.setFlash(err.Error(), true)
			return a, nil
		}
		if !d.Equal(v.actual) {
			actual = &d
		}
	}

	a.busy = true
	view := a.view
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := view.EditItem(ctx, it, actual)
		return mutationDoneMsg{
			message: "Saved " + it.Category,
			err:     err,
			syncErr: res.StatusSyncErr,
		}
	}
}

func (a App) renderEditOverlay(cw, h int) string {
	t := theme.Active
	w := formWidth(cw) + 4
	card := components.ContentCard("Edit line item", a.editForm.View()+"\n"+
		lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("[enter] next  [esc] cancel"), w)
	return lipgloss.Place(cw, h, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}
