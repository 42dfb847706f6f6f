package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/sitebudget/internal/model"
)

func sampleBundle() model.ProjectBundle {
	itemID := int64(1)
	return model.ProjectBundle{
		Project: model.Project{ID: 1, Name: "Cabin", TotalBudget: decimal.NewNullDecimal(decimal.NewFromInt(20000))},
		Items: []model.ForecastItem{
			{ID: 1, ProjectID: 1, Category: "Framing", EstimatedCost: decimal.NewFromInt(10000),
				ActualCost: decimal.NewFromInt(8000), Status: "completed", ProgressPercent: 100},
			{ID: 2, ProjectID: 1, Category: "Roof", EstimatedCost: decimal.NewFromInt(5000), Status: "in_progress"},
		},
		Expenses: []model.Expense{{ID: 7, ProjectID: 1, ForecastLineItemID: &itemID, Vendor: "Lumber Co",
			AmountSpent: decimal.RequireFromString("8100.50")}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleBundle(), model.ActualsFromItems); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want header + 2 items + total", len(records))
	}
	if records[1][1] != "Framing" || records[1][5] != "8000.00" || records[1][6] != "2000.00" {
		t.Fatalf("row 1 = %v", records[1])
	}
	total := records[3]
	if total[1] != "TOTAL" || total[4] != "15000.00" || total[5] != "8000.00" {
		t.Fatalf("total = %v", total)
	}
}

func TestWriteCSV_ExpensesSource(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleBundle(), model.ActualsFromExpenses); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if records[1][5] != "8100.50" {
		t.Fatalf("actual from expenses = %q", records[1][5])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleBundle(), model.ActualsFromItems); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Summary", "Forecast", "Expenses"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v", sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", sheets, want)
		}
	}

	name, _ := f.GetCellValue("Summary", "B1")
	if name != "Cabin" {
		t.Fatalf("Summary!B1 = %q", name)
	}
	efc, _ := f.GetCellValue("Summary", "B7")
	if efc != "13000" {
		t.Fatalf("Summary!B7 (EFC) = %q", efc)
	}

	rows, err := f.GetRows("Forecast")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[2][1] != "Roof" {
		t.Fatalf("forecast rows = %v", rows)
	}
	vendor, _ := f.GetCellValue("Expenses", "C2")
	if vendor != "Lumber Co" {
		t.Fatalf("Expenses!C2 = %q", vendor)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(".XLSX"); err != nil || f != XLSX {
		t.Fatalf("ParseFormat(.XLSX) = %q, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatal("expected error for pdf")
	}
	if FormatFor("budget.xlsx") != XLSX || FormatFor("budget.txt") != CSV {
		t.Fatal("FormatFor mismatch")
	}
}
