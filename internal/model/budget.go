package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ActualsSource selects which representation of "actual cost" is authoritative.
type ActualsSource string

const (
	// ActualsFromItems uses each line item's own actual_cost field.
	ActualsFromItems ActualsSource = "item"
	// ActualsFromExpenses sums Expense records linked to each line item.
	ActualsFromExpenses ActualsSource = "expenses"
)

// ParseActualsSource validates a configured actuals source. Empty means items.
func ParseActualsSource(s string) (ActualsSource, error) {
	switch ActualsSource(strings.ToLower(strings.TrimSpace(s))) {
	case "", ActualsFromItems:
		return ActualsFromItems, nil
	case ActualsFromExpenses, "expense":
		return ActualsFromExpenses, nil
	}
	return "", fmt.Errorf("unknown actuals source %q (want %q or %q)", s, ActualsFromItems, ActualsFromExpenses)
}

// BudgetSummary holds the derived financial and progress figures for one project.
type BudgetSummary struct {
	ProjectID int64
	Source    ActualsSource

	TotalBudget        decimal.Decimal
	TotalForecast      decimal.Decimal
	TotalActual        decimal.Decimal
	EstimatedFinalCost decimal.Decimal
	Variance           decimal.Decimal // budget - estimated final cost; negative means over budget
	Remaining          decimal.Decimal // max(0, Variance)
	RemainingPercent   decimal.Decimal

	CompletedItems       int
	TotalItems           int
	BudgetedForCompleted decimal.Decimal
	SpentOnCompleted     decimal.Decimal
	SpendVariance        decimal.Decimal
	ProgressPercent      decimal.Decimal

	Status Status
}

// OnTrack reports whether the projected cost stays within the budget.
func (s BudgetSummary) OnTrack() bool {
	return !s.Variance.IsNegative()
}

// ItemRow is one line of the budget table.
type ItemRow struct {
	Item     ForecastItem
	Actual   decimal.Decimal
	Variance decimal.Decimal // estimate - actual
	Status   Status
}

// ProjectBundle is everything needed to render one project.
type ProjectBundle struct {
	Project  Project
	Items    []ForecastItem
	Expenses []Expense
	Draws    []Draw
}
