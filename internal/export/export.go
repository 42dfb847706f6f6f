// Package export writes a project's budget table as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/pipeline"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case CSV:
		return CSV, nil
	case XLSX, "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want csv or xlsx)", s)
}

// FormatFor infers the format from a file extension, defaulting to CSV.
func FormatFor(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return CSV
}

var itemHeaders = []string{
	"ID", "Category", "Description", "Status", "Estimated", "Actual", "Variance",
	"Progress %", "Start", "End",
}

func itemRecord(r model.ItemRow) []string {
	return []string{
		strconv.FormatInt(r.Item.ID, 10),
		r.Item.Category,
		r.Item.Description,
		string(r.Status),
		r.Item.EstimatedCost.StringFixed(2),
		r.Actual.StringFixed(2),
		r.Variance.StringFixed(2),
		strconv.Itoa(r.Item.ProgressPercent),
		r.Item.StartDate.String(),
		r.Item.EndDate.String(),
	}
}

// Write exports the bundle in the given format.
func Write(w io.Writer, f Format, b model.ProjectBundle, source model.ActualsSource) error {
	switch f {
	case XLSX:
		return WriteXLSX(w, b, source)
	default:
		return WriteCSV(w, b, source)
	}
}

// WriteCSV writes one row per forecast item followed by a totals row.
func WriteCSV(w io.Writer, b model.ProjectBundle, source model.ActualsSource) error {
	rows := pipeline.ItemRows(b.Items, b.Expenses, source)
	s := pipeline.Summarize(b.Project, b.Items, b.Expenses, source)

	cw := csv.NewWriter(w)
	if err := cw.Write(itemHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(itemRecord(r)); err != nil {
			return err
		}
	}

	actualTotal := decimal.Zero
	for _, r := range rows {
		actualTotal = actualTotal.Add(r.Actual)
	}
	total := make([]string, len(itemHeaders))
	total[1] = "TOTAL"
	total[4] = s.TotalForecast.StringFixed(2)
	total[5] = actualTotal.StringFixed(2)
	total[6] = s.TotalForecast.Sub(actualTotal).StringFixed(2)
	if err := cw.Write(total); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with Summary, Forecast and Expenses sheets.
func WriteXLSX(w io.Writer, b model.ProjectBundle, source model.ActualsSource) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	s := pipeline.Summarize(b.Project, b.Items, b.Expenses, source)

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	summary := [][]any{
		{"Project", b.Project.Name},
		{"Address", b.Project.Address},
		{"Actuals Source", string(s.Source)},
		{"Total Budget", money(s.TotalBudget)},
		{"Forecast Total", money(s.TotalForecast)},
		{"Actual Spent", money(s.TotalActual)},
		{"Estimated Final Cost", money(s.EstimatedFinalCost)},
		{"Variance", money(s.Variance)},
		{"Remaining", money(s.Remaining)},
		{"Remaining %", money(s.RemainingPercent)},
		{"Spend Variance (completed)", money(s.SpendVariance)},
		{"Progress %", money(s.ProgressPercent)},
		{"Status", string(s.Status)},
		{"On Track", s.OnTrack()},
	}
	if err := writeRows(f, "Summary", nil, summary); err != nil {
		return err
	}
	_ = f.SetColWidth("Summary", "A", "A", 28)
	_ = f.SetColWidth("Summary", "B", "B", 20)

	forecastIdx, err := f.NewSheet("Forecast")
	if err != nil {
		return fmt.Errorf("creating forecast sheet: %w", err)
	}
	var itemRows [][]any
	for _, r := range pipeline.ItemRows(b.Items, b.Expenses, source) {
		itemRows = append(itemRows, []any{
			r.Item.ID, r.Item.Category, r.Item.Description, string(r.Status),
			money(r.Item.EstimatedCost), money(r.Actual), money(r.Variance),
			r.Item.ProgressPercent, r.Item.StartDate.String(), r.Item.EndDate.String(),
		})
	}
	if err := writeRows(f, "Forecast", itemHeaders, itemRows); err != nil {
		return err
	}
	_ = f.SetColWidth("Forecast", "B", "C", 24)
	_ = f.SetColWidth("Forecast", "E", "G", 14)

	if _, err := f.NewSheet("Expenses"); err != nil {
		return fmt.Errorf("creating expenses sheet: %w", err)
	}
	var expenseRows [][]any
	for _, e := range b.Expenses {
		var itemID any
		if e.ForecastLineItemID != nil {
			itemID = *e.ForecastLineItemID
		}
		expenseRows = append(expenseRows, []any{e.ID, itemID, e.Vendor, money(e.AmountSpent), e.Date.String(), e.ReceiptURL})
	}
	if err := writeRows(f, "Expenses", []string{"ID", "Item", "Vendor", "Amount", "Date", "Receipt"}, expenseRows); err != nil {
		return err
	}
	_ = f.SetColWidth("Expenses", "C", "C", 24)

	f.SetActiveSheet(forecastIdx)
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	row := 1
	if headers != nil {
		for i, h := range headers {
			if err := setCell(f, sheet, i+1, row, h); err != nil {
				return err
			}
		}
		row++
	}
	for _, r := range rows {
		for i, v := range r {
			if err := setCell(f, sheet, i+1, row, v); err != nil {
				return err
			}
		}
		row++
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// money converts to float for spreadsheet cells, rounded to cents.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
