// Package pipeline computes budget summaries and loads project data from the
// API with an offline cache fallback.
package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Actuals resolves the authoritative actual cost for a line item.
type Actuals func(item model.ForecastItem) decimal.Decimal

// ItemActuals reads each item's own actual_cost field.
func ItemActuals() Actuals {
	return func(item model.ForecastItem) decimal.Decimal {
		return item.ActualCost
	}
}

// ExpenseActuals sums the expenses linked to each item. Items without
// expenses resolve to zero.
func ExpenseActuals(expenses []model.Expense) Actuals {
	byItem := ActualsByItem(expenses)
	return func(item model.ForecastItem) decimal.Decimal {
		return byItem[item.ID]
	}
}

// ResolveActuals picks the Actuals for the configured source.
func ResolveActuals(source model.ActualsSource, expenses []model.Expense) Actuals {
	if source == model.ActualsFromExpenses {
		return ExpenseActuals(expenses)
	}
	return ItemActuals()
}

// TotalForecast sums estimated_cost over all items.
func TotalForecast(items []model.ForecastItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.EstimatedCost)
	}
	return total
}

// ActualsByItem groups expenses by line item and sums amount_spent per group.
// Expenses without a line item link are skipped.
func ActualsByItem(expenses []model.Expense) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for _, e := range expenses {
		if e.ForecastLineItemID == nil {
			continue
		}
		id := *e.ForecastLineItemID
		out[id] = out[id].Add(e.AmountSpent)
	}
	return out
}

// TotalActual sums every expense regardless of item linkage.
func TotalActual(expenses []model.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.AmountSpent)
	}
	return total
}

// TotalItemActual sums the resolved actual over all items.
func TotalItemActual(items []model.ForecastItem, actuals Actuals) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(actuals(it))
	}
	return total
}

// AggregateProjectStatus derives a project's status from its items.
func AggregateProjectStatus(items []model.ForecastItem) model.Status {
	if len(items) == 0 {
		return model.StatusNotStarted
	}
	var completed, notStarted int
	for _, it := range items {
		switch it.Canonical() {
		case model.StatusCompleted:
			completed++
		case model.StatusNotStarted:
			notStarted++
		}
	}
	switch {
	case completed == len(items):
		return model.StatusCompleted
	case notStarted == len(items):
		return model.StatusNotStarted
	default:
		return model.StatusInProgress
	}
}

// EstimatedFinalCost is locked-in actuals for completed items plus estimates
// for everything still open.
func EstimatedFinalCost(items []model.ForecastItem, actuals Actuals) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Completed() {
			total = total.Add(actuals(it))
		} else {
			total = total.Add(it.EstimatedCost)
		}
	}
	return total
}

// BudgetVariance returns budget minus estimated final cost. Negative means over budget.
func BudgetVariance(totalBudget, estimatedFinalCost decimal.Decimal) decimal.Decimal {
	return totalBudget.Sub(estimatedFinalCost)
}

// BudgetRemaining floors the variance at zero.
func BudgetRemaining(variance decimal.Decimal) decimal.Decimal {
	if variance.IsNegative() {
		return decimal.Zero
	}
	return variance
}

// SpendVarianceForCompleted returns estimate minus actual over completed items.
// Positive means completed work came in under estimate.
func SpendVarianceForCompleted(items []model.ForecastItem, actuals Actuals) decimal.Decimal {
	budgeted, spent := completedTotals(items, actuals)
	return budgeted.Sub(spent)
}

func completedTotals(items []model.ForecastItem, actuals Actuals) (budgeted, spent decimal.Decimal) {
	budgeted, spent = decimal.Zero, decimal.Zero
	for _, it := range items {
		if !it.Completed() {
			continue
		}
		budgeted = budgeted.Add(it.EstimatedCost)
		spent = spent.Add(actuals(it))
	}
	return budgeted, spent
}

// ProjectProgressPercent is the share of completed items, by count. Per-item
// progress_percent is not considered.
func ProjectProgressPercent(items []model.ForecastItem) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	completed := 0
	for _, it := range items {
		if it.Completed() {
			completed++
		}
	}
	return decimal.NewFromInt(int64(completed)).Mul(hundred).Div(decimal.NewFromInt(int64(len(items))))
}

// Summarize computes the full budget summary for a project.
func Summarize(p model.Project, items []model.ForecastItem, expenses []model.Expense, source model.ActualsSource) model.BudgetSummary {
	if source == "" {
		source = model.ActualsFromItems
	}
	actuals := ResolveActuals(source, expenses)

	s := model.BudgetSummary{
		ProjectID:     p.ID,
		Source:        source,
		TotalBudget:   p.Budget(),
		TotalForecast: TotalForecast(items),
		TotalItems:    len(items),
		Status:        AggregateProjectStatus(items),
	}

	if source == model.ActualsFromExpenses {
		s.TotalActual = TotalActual(expenses)
	} else {
		s.TotalActual = TotalItemActual(items, actuals)
	}

	s.EstimatedFinalCost = EstimatedFinalCost(items, actuals)
	s.Variance = BudgetVariance(s.TotalBudget, s.EstimatedFinalCost)
	s.Remaining = BudgetRemaining(s.Variance)
	if s.TotalBudget.IsPositive() {
		s.RemainingPercent = s.Remaining.Mul(hundred).Div(s.TotalBudget)
	}

	for _, it := range items {
		if it.Completed() {
			s.CompletedItems++
		}
	}
	s.BudgetedForCompleted, s.SpentOnCompleted = completedTotals(items, actuals)
	s.SpendVariance = s.BudgetedForCompleted.Sub(s.SpentOnCompleted)
	s.ProgressPercent = ProjectProgressPercent(items)

	return s
}

// ItemRows builds one table row per item with its resolved actual and
// estimate-minus-actual variance.
func ItemRows(items []model.ForecastItem, expenses []model.Expense, source model.ActualsSource) []model.ItemRow {
	actuals := ResolveActuals(source, expenses)
	rows := make([]model.ItemRow, 0, len(items))
	for _, it := range items {
		actual := actuals(it)
		rows = append(rows, model.ItemRow{
			Item:     it,
			Actual:   actual,
			Variance: it.EstimatedCost.Sub(actual),
			Status:   it.Canonical(),
		})
	}
	return rows
}
