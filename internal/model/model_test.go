package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"completed":   StatusCompleted,
		"Complete":    StatusCompleted,
		"COMPLETED":   StatusCompleted,
		"done":        StatusCompleted,
		"In Progress": StatusInProgress,
		"in-progress": StatusInProgress,
		"in_progress": StatusInProgress,
		"Not Started": StatusNotStarted,
		"not_started": StatusNotStarted,
		"":            StatusNotStarted,
		"bogus":       StatusNotStarted,
	}
	for in, want := range tests {
		if got := ParseStatus(in); got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusInProgress.Label(); got != "In Progress" {
		t.Fatalf("Label = %q", got)
	}
	if got := Status("Complete").Label(); got != "Completed" {
		t.Fatalf("Label = %q", got)
	}
}

func TestForecastItem_DecodeLenient(t *testing.T) {
	body := `{"id":7,"project_id":3,"category":"Framing","estimated_cost":"1250.50",
		"actual_cost":null,"progress_percent":null,"status":"Complete","start_date":"2024-03-01","end_date":null}`

	var it ForecastItem
	if err := json.Unmarshal([]byte(body), &it); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !it.EstimatedCost.Equal(decimal.RequireFromString("1250.5")) {
		t.Fatalf("EstimatedCost = %s", it.EstimatedCost)
	}
	if !it.ActualCost.IsZero() {
		t.Fatalf("ActualCost = %s, want 0", it.ActualCost)
	}
	if !it.Completed() {
		t.Fatal("Completed = false for \"Complete\"")
	}
	if it.StartDate.String() != "2024-03-01" {
		t.Fatalf("StartDate = %q", it.StartDate)
	}
	if !it.EndDate.IsZero() {
		t.Fatalf("EndDate = %v, want zero", it.EndDate)
	}

	var blank ForecastItem
	if err := json.Unmarshal([]byte(`{"id":8,"category":"Roof","estimated_cost":""}`), &blank); err != nil {
		t.Fatalf("Unmarshal blank estimate: %v", err)
	}
	if !blank.EstimatedCost.IsZero() {
		t.Fatalf("blank EstimatedCost = %s, want 0", blank.EstimatedCost)
	}
}

func TestForecastItem_DecodeBlankMoney(t *testing.T) {
	body := `[{"id":1,"category":"Foundation","estimated_cost":10000,"actual_cost":"12000"},
		{"id":2,"category":"Framing","estimated_cost":"","actual_cost":"  "}]`

	var items []ForecastItem
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	if !items[0].EstimatedCost.Equal(decimal.NewFromInt(10000)) || !items[0].ActualCost.Equal(decimal.NewFromInt(12000)) {
		t.Fatalf("item 1 = %s / %s", items[0].EstimatedCost, items[0].ActualCost)
	}
	if !items[1].EstimatedCost.IsZero() || !items[1].ActualCost.IsZero() {
		t.Fatalf("blank money = %s / %s, want 0", items[1].EstimatedCost, items[1].ActualCost)
	}
	if items[1].Category != "Framing" {
		t.Fatalf("Category = %q", items[1].Category)
	}

	var bad ForecastItem
	if err := json.Unmarshal([]byte(`{"estimated_cost":"lots"}`), &bad); err == nil {
		t.Fatal("non-numeric estimate accepted")
	}
}

func TestExpenseAndDraw_DecodeBlankMoney(t *testing.T) {
	var e Expense
	if err := json.Unmarshal([]byte(`{"id":4,"amount_spent":"","date":"2024-06-01","forecast_line_item_id":2}`), &e); err != nil {
		t.Fatalf("Unmarshal expense: %v", err)
	}
	if !e.AmountSpent.IsZero() || !e.LinkedTo(2) || e.Date.String() != "2024-06-01" {
		t.Fatalf("expense = %+v", e)
	}

	var d Draw
	if err := json.Unmarshal([]byte(`{"id":1,"cash_on_hand":null,"draw_triggered":true}`), &d); err != nil {
		t.Fatalf("Unmarshal draw: %v", err)
	}
	if !d.CashOnHand.IsZero() || !d.DrawTriggered {
		t.Fatalf("draw = %+v", d)
	}
}

func TestProject_EncodeNumbers(t *testing.T) {
	sqft := 2400
	in := ProjectInput{
		Name:        "Lake House",
		StartDate:   NewDate(2024, time.May, 1),
		TotalSqft:   &sqft,
		TotalBudget: decimal.NewNullDecimal(decimal.RequireFromString("450000.00")),
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"total_budget":450000`, `"start_date":"2024-05-01"`, `"target_completion_date":null`} {
		if !strings.Contains(s, want) {
			t.Errorf("payload %s missing %s", s, want)
		}
	}
}

func TestProjectPatch_StatusOnly(t *testing.T) {
	data, err := json.Marshal(StatusPatch(StatusCompleted))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"status":"completed"}` {
		t.Fatalf("patch = %s", data)
	}
}

func TestProject_BudgetUnset(t *testing.T) {
	var p Project
	if err := json.Unmarshal([]byte(`{"id":1,"name":"x","total_budget":null}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !p.Budget().IsZero() {
		t.Fatalf("Budget = %s, want 0", p.Budget())
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-15T10:30:00Z")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2024-06-15" {
		t.Fatalf("date = %s", d)
	}
	if _, err := ParseDate("15/06/2024"); err == nil {
		t.Fatal("expected error for bad layout")
	}
}

func TestParseActualsSource(t *testing.T) {
	for in, want := range map[string]ActualsSource{"": ActualsFromItems, "item": ActualsFromItems, "Expenses": ActualsFromExpenses} {
		got, err := ParseActualsSource(in)
		if err != nil || got != want {
			t.Errorf("ParseActualsSource(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseActualsSource("both"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}
