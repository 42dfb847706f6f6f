package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/pipeline"
)

// ItemUpdater persists forecast line items.
type ItemUpdater interface {
	Update(ctx context.Context, it model.ForecastItem) (model.ForecastItem, error)
}

// ExpenseUpserter creates or updates expenses.
type ExpenseUpserter interface {
	Upsert(ctx context.Context, e model.Expense) (model.Expense, error)
}

// ProjectPatcher sends partial project updates.
type ProjectPatcher interface {
	Patch(ctx context.Context, id int64, p model.ProjectPatch) (model.Project, error)
}

// Reconciler applies a line-item edit and its follow-up writes: the tracked
// expense (expenses mode) and the derived project status.
type Reconciler struct {
	Items    ItemUpdater
	Expenses ExpenseUpserter
	Projects ProjectPatcher
	Source   model.ActualsSource
	Now      func() time.Time
	Log      *slog.Logger
}

// NewReconciler wires a Reconciler to the API-backed services.
func NewReconciler(s *Services, source model.ActualsSource, log *slog.Logger) *Reconciler {
	return &Reconciler{
		Items:    s.Forecast,
		Expenses: s.Expenses,
		Projects: s.Projects,
		Source:   source,
		Log:      log,
	}
}

// EditRequest describes one line-item edit against the current project state.
type EditRequest struct {
	Project  model.Project
	Items    []model.ForecastItem
	Expenses []model.Expense
	// Item carries the edited fields; its ID selects the item.
	Item model.ForecastItem
	// Actual, when set, is the new actual spend for the item.
	Actual *decimal.Decimal
}

// EditResult is the state after a successful edit.
type EditResult struct {
	Item     model.ForecastItem
	Items    []model.ForecastItem
	Expense  *model.Expense
	Expenses []model.Expense
	Project  model.Project
	// Status is the recomputed aggregate status.
	Status       model.Status
	StatusSynced bool
	// StatusSyncErr records a failed status push. It never fails the edit.
	StatusSyncErr error
}

// EditLineItem persists the item, then the tracked expense, then pushes the
// recomputed project status if it changed. Each step waits for the previous one.
func (r *Reconciler) EditLineItem(ctx context.Context, req EditRequest) (EditResult, error) {
	it := req.Item
	if it.ProjectID == 0 {
		it.ProjectID = req.Project.ID
	}
	if req.Actual != nil && r.source() == model.ActualsFromItems {
		it.ActualCost = *req.Actual
	}

	saved, err := r.Items.Update(ctx, it)
	if err != nil {
		return EditResult{}, err
	}

	res := EditResult{
		Item:     saved,
		Items:    replaceItem(req.Items, saved),
		Expenses: append([]model.Expense(nil), req.Expenses...),
		Project:  req.Project,
	}

	if req.Actual != nil && r.source() == model.ActualsFromExpenses {
		exp, err := r.Expenses.Upsert(ctx, r.trackedExpense(saved, req.Expenses, *req.Actual))
		if err != nil {
			return res, fmt.Errorf("recording actual for item %d: %w", saved.ID, err)
		}
		res.Expense = &exp
		res.Expenses = replaceExpense(res.Expenses, exp)
	}

	res.Status = pipeline.AggregateProjectStatus(res.Items)
	if req.Project.ID != 0 && model.ParseStatus(string(req.Project.Status)) != res.Status {
		r.syncStatus(ctx, &res)
	}
	return res, nil
}

func (r *Reconciler) syncStatus(ctx context.Context, res *EditResult) {
	updated, err := r.Projects.Patch(ctx, res.Project.ID, model.StatusPatch(res.Status))
	if err != nil {
		res.StatusSyncErr = err
		r.logger().Warn("project status sync failed",
			"project_id", res.Project.ID, "status", res.Status, "err", err)
		return
	}
	res.StatusSynced = true
	if updated.ID == 0 {
		updated = res.Project
	}
	updated.Status = res.Status
	res.Project = updated
}

// trackedExpense returns the item's current expense carrying the new amount
// and today's date. When several expenses are linked, the newest id wins.
func (r *Reconciler) trackedExpense(it model.ForecastItem, expenses []model.Expense, amount decimal.Decimal) model.Expense {
	var current *model.Expense
	for i := range expenses {
		e := &expenses[i]
		if e.LinkedTo(it.ID) && (current == nil || e.ID > current.ID) {
			current = e
		}
	}

	out := model.Expense{ProjectID: it.ProjectID}
	if current != nil {
		out = *current
	}
	id := it.ID
	out.ForecastLineItemID = &id
	out.AmountSpent = amount
	out.Date = model.DateOf(r.now())
	return out
}

func (r *Reconciler) source() model.ActualsSource {
	if r.Source == "" {
		return model.ActualsFromItems
	}
	return r.Source
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reconciler) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func replaceItem(items []model.ForecastItem, it model.ForecastItem) []model.ForecastItem {
	out := make([]model.ForecastItem, 0, len(items)+1)
	found := false
	for _, cur := range items {
		if cur.ID == it.ID {
			out = append(out, it)
			found = true
			continue
		}
		out = append(out, cur)
	}
	if !found {
		out = append(out, it)
	}
	return out
}

func replaceExpense(expenses []model.Expense, e model.Expense) []model.Expense {
	for i := range expenses {
		if expenses[i].ID == e.ID {
			expenses[i] = e
			return expenses
		}
	}
	return append(expenses, e)
}
