package state

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/pipeline"
	"github.com/theirongolddev/sitebudget/internal/service"
	"github.com/theirongolddev/sitebudget/internal/store"
)

// ErrNotLoaded is returned by mutations before Load has succeeded.
var ErrNotLoaded = errors.New("state: project not loaded")

// ProjectView is the client-side state of one project: the project itself,
// its line items, expenses and draws.
type ProjectView struct {
	svc        *service.Services
	reconciler *service.Reconciler
	cache      *store.Cache
	source     model.ActualsSource

	Items    *Collection[model.ForecastItem]
	Expenses *Collection[model.Expense]
	Draws    *Collection[model.Draw]

	// mu guards the fields below and makes bundle swaps atomic for readers.
	mu          sync.RWMutex
	project     model.Project
	loaded      bool
	fromCache   bool
	fetchedAt   time.Time
	lastSyncErr error
}

// NewProjectView creates an empty view. cache may be nil.
func NewProjectView(svc *service.Services, rec *service.Reconciler, cache *store.Cache, source model.ActualsSource) *ProjectView {
	return &ProjectView{
		svc:        svc,
		reconciler: rec,
		cache:      cache,
		source:     source,
		Items:      NewCollection[model.ForecastItem](nil),
		Expenses:   NewCollection[model.Expense](nil),
		Draws:      NewCollection[model.Draw](nil),
	}
}

// Project returns the loaded project.
func (v *ProjectView) Project() model.Project {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.project
}

// FromCache reports whether the last Load was served from the offline cache.
func (v *ProjectView) FromCache() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.fromCache
}

// FetchedAt is when the loaded data was fetched from the API.
func (v *ProjectView) FetchedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.fetchedAt
}

// LastSyncErr is the most recent swallowed status-sync failure.
func (v *ProjectView) LastSyncErr() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastSyncErr
}

// current returns the project and whether Load has succeeded.
func (v *ProjectView) current() (model.Project, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.project, v.loaded
}

// Source returns the actuals convention in use.
func (v *ProjectView) Source() model.ActualsSource { return v.source }

// Load fetches the project bundle, falling back to cache when offline.
func (v *ProjectView) Load(ctx context.Context, projectID int64) error {
	src := pipeline.Sources{
		Projects: v.svc.Projects,
		Items:    v.svc.Forecast,
		Expenses: v.svc.Expenses,
		Draws:    v.svc.Draws,
	}
	res, err := pipeline.LoadWithCache(ctx, src, v.cache, projectID)
	if err != nil {
		return err
	}
	v.apply(res.Bundle, res.FromCache, res.FetchedAt)
	return nil
}

// apply swaps in a whole bundle. Items are sorted before they become visible.
func (v *ProjectView) apply(b model.ProjectBundle, fromCache bool, fetchedAt time.Time) {
	items := append([]model.ForecastItem(nil), b.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	v.mu.Lock()
	defer v.mu.Unlock()
	v.project = b.Project
	v.loaded = true
	v.fromCache, v.fetchedAt = fromCache, fetchedAt
	v.Items.Replace(items)
	v.Expenses.Replace(b.Expenses)
	v.Draws.Replace(b.Draws)
}

// Bundle returns the current state as a bundle.
func (v *ProjectView) Bundle() model.ProjectBundle {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return model.ProjectBundle{
		Project:  v.project,
		Items:    v.Items.All(),
		Expenses: v.Expenses.All(),
		Draws:    v.Draws.All(),
	}
}

// Summary recomputes the budget summary from the current collections.
func (v *ProjectView) Summary() model.BudgetSummary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return pipeline.Summarize(v.project, v.Items.All(), v.Expenses.All(), v.source)
}

// Rows returns per-item budget rows.
func (v *ProjectView) Rows() []model.ItemRow {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return pipeline.ItemRows(v.Items.All(), v.Expenses.All(), v.source)
}

// AddItem creates a line item for the loaded project.
func (v *ProjectView) AddItem(ctx context.Context, it model.ForecastItem) (model.ForecastItem, error) {
	p, ok := v.current()
	if !ok {
		return model.ForecastItem{}, ErrNotLoaded
	}
	it.ProjectID = p.ID
	if it.Status == "" {
		it.Status = string(model.StatusNotStarted)
	}
	created, err := v.svc.Forecast.Create(ctx, it)
	if err != nil {
		return model.ForecastItem{}, err
	}
	v.Items.Upsert(created)
	return created, nil
}

// EditItem runs the reconciliation step and adopts its resulting state.
// actual may be nil when only non-cost fields changed.
func (v *ProjectView) EditItem(ctx context.Context, it model.ForecastItem, actual *decimal.Decimal) (service.EditResult, error) {
	p, ok := v.current()
	if !ok {
		return service.EditResult{}, ErrNotLoaded
	}
	res, err := v.reconciler.EditLineItem(ctx, service.EditRequest{
		Project:  p,
		Items:    v.Items.All(),
		Expenses: v.Expenses.All(),
		Item:     it,
		Actual:   actual,
	})
	v.mu.Lock()
	defer v.mu.Unlock()
	if res.Items != nil {
		// The item write succeeded even if the expense write did not.
		v.Items.Replace(res.Items)
		v.Expenses.Replace(res.Expenses)
		v.project = res.Project
	}
	if err != nil {
		return res, err
	}
	v.lastSyncErr = res.StatusSyncErr
	return res, nil
}

// DeleteItem removes a line item optimistically.
func (v *ProjectView) DeleteItem(ctx context.Context, id int64) error {
	if _, ok := v.current(); !ok {
		return ErrNotLoaded
	}
	return v.Items.Optimistic(
		func(c *Collection[model.ForecastItem]) { c.Remove(id) },
		func() error { return v.svc.Forecast.Delete(ctx, id) },
	)
}

// RecordExpense creates a standalone expense for the loaded project.
func (v *ProjectView) RecordExpense(ctx context.Context, e model.Expense) (model.Expense, error) {
	p, ok := v.current()
	if !ok {
		return model.Expense{}, ErrNotLoaded
	}
	e.ProjectID = p.ID
	if e.Date.IsZero() {
		e.Date = model.DateOf(time.Now())
	}
	created, err := v.svc.Expenses.Create(ctx, e)
	if err != nil {
		return model.Expense{}, err
	}
	v.Expenses.Upsert(created)
	return created, nil
}

// DeleteExpense removes an expense optimistically.
func (v *ProjectView) DeleteExpense(ctx context.Context, id int64) error {
	if _, ok := v.current(); !ok {
		return ErrNotLoaded
	}
	return v.Expenses.Optimistic(
		func(c *Collection[model.Expense]) { c.Remove(id) },
		func() error { return v.svc.Expenses.Delete(ctx, id) },
	)
}
