package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/model"
)

var fixedNow = func() time.Time { return time.Date(2024, time.July, 4, 15, 0, 0, 0, time.UTC) }

func seed(f *fakeAPI) (model.Project, []model.ForecastItem) {
	p := model.Project{ID: 1, Name: "Cabin", Status: model.StatusNotStarted,
		TotalBudget: decimal.NewNullDecimal(decimal.NewFromInt(50000))}
	items := []model.ForecastItem{
		{ID: 10, ProjectID: 1, Category: "Framing", EstimatedCost: decimal.NewFromInt(10000), Status: "not_started"},
		{ID: 11, ProjectID: 1, Category: "Roofing", EstimatedCost: decimal.NewFromInt(8000), Status: "not_started"},
	}
	f.projects[p.ID] = p
	for _, it := range items {
		f.items[it.ID] = it
	}
	return p, items
}

func TestEditLineItem_ExpenseUpsertLaw(t *testing.T) {
	f, svc := newFakeAPI(t)
	p, items := seed(f)

	r := NewReconciler(svc, model.ActualsFromExpenses, nil)
	r.Now = fixedNow

	edit := items[0]
	edit.Status = "Complete"
	first := decimal.NewFromInt(9000)
	res, err := r.EditLineItem(context.Background(), EditRequest{Project: p, Items: items, Item: edit, Actual: &first})
	if err != nil {
		t.Fatalf("first edit: %v", err)
	}

	second := decimal.NewFromInt(9500)
	res, err = r.EditLineItem(context.Background(), EditRequest{
		Project: res.Project, Items: res.Items, Expenses: res.Expenses, Item: res.Item, Actual: &second,
	})
	if err != nil {
		t.Fatalf("second edit: %v", err)
	}

	var linked []model.Expense
	for _, e := range f.expenses {
		if e.LinkedTo(10) {
			linked = append(linked, e)
		}
	}
	if len(linked) != 1 {
		t.Fatalf("server holds %d expenses for item 10, want 1", len(linked))
	}
	if !linked[0].AmountSpent.Equal(second) {
		t.Fatalf("amount = %s, want %s", linked[0].AmountSpent, second)
	}
	if linked[0].Date.String() != "2024-07-04" {
		t.Fatalf("date = %s, want today", linked[0].Date)
	}
	if len(res.Expenses) != 1 {
		t.Fatalf("result holds %d expenses, want 1", len(res.Expenses))
	}
	if !f.items[10].ActualCost.IsZero() {
		t.Fatalf("item actual_cost written in expenses mode: %s", f.items[10].ActualCost)
	}
}

func TestEditLineItem_ItemModeWritesActualCost(t *testing.T) {
	f, svc := newFakeAPI(t)
	p, items := seed(f)

	r := NewReconciler(svc, model.ActualsFromItems, nil)
	actual := decimal.RequireFromString("10250.75")
	edit := items[1]
	edit.Status = "in_progress"
	res, err := r.EditLineItem(context.Background(), EditRequest{Project: p, Items: items, Item: edit, Actual: &actual})
	if err != nil {
		t.Fatalf("EditLineItem: %v", err)
	}
	if !f.items[11].ActualCost.Equal(actual) {
		t.Fatalf("server actual_cost = %s", f.items[11].ActualCost)
	}
	if len(f.expenses) != 0 {
		t.Fatalf("expenses created in item mode: %d", len(f.expenses))
	}
	if res.Expense != nil {
		t.Fatal("Expense set in item mode")
	}
}

func TestEditLineItem_SyncsChangedStatus(t *testing.T) {
	f, svc := newFakeAPI(t)
	p, items := seed(f)

	r := NewReconciler(svc, model.ActualsFromItems, nil)
	edit := items[0]
	edit.Status = "in_progress"
	res, err := r.EditLineItem(context.Background(), EditRequest{Project: p, Items: items, Item: edit})
	if err != nil {
		t.Fatalf("EditLineItem: %v", err)
	}
	if res.Status != model.StatusInProgress || !res.StatusSynced {
		t.Fatalf("Status = %q synced = %v", res.Status, res.StatusSynced)
	}
	if f.projects[1].Status != model.StatusInProgress {
		t.Fatalf("server project status = %q", f.projects[1].Status)
	}
	if res.Project.Status != model.StatusInProgress {
		t.Fatalf("result project status = %q", res.Project.Status)
	}
}

func TestEditLineItem_UnchangedStatusSkipsPatch(t *testing.T) {
	f, svc := newFakeAPI(t)
	p, items := seed(f)

	r := NewReconciler(svc, model.ActualsFromItems, nil)
	edit := items[0]
	edit.Notes = "ordered lumber"
	if _, err := r.EditLineItem(context.Background(), EditRequest{Project: p, Items: items, Item: edit}); err != nil {
		t.Fatalf("EditLineItem: %v", err)
	}
	for _, path := range f.puts {
		if path == "/projects/1" {
			t.Fatal("project patched although status did not change")
		}
	}
}

func TestEditLineItem_StatusSyncFailureIsSwallowed(t *testing.T) {
	f, svc := newFakeAPI(t)
	p, items := seed(f)
	f.failPut["/projects/"] = 500

	r := NewReconciler(svc, model.ActualsFromExpenses, nil)
	r.Now = fixedNow
	edit := items[0]
	edit.Status = "completed"
	actual := decimal.NewFromInt(9900)
	res, err := r.EditLineItem(context.Background(), EditRequest{Project: p, Items: items, Item: edit, Actual: &actual})
	if err != nil {
		t.Fatalf("EditLineItem returned status sync error: %v", err)
	}
	if res.StatusSyncErr == nil {
		t.Fatal("StatusSyncErr = nil, want recorded failure")
	}
	var re *api.RequestError
	if !errors.As(res.StatusSyncErr, &re) || re.StatusCode != 500 {
		t.Fatalf("StatusSyncErr = %v", res.StatusSyncErr)
	}
	if f.items[10].Status != "completed" {
		t.Fatalf("item write rolled back: %+v", f.items[10])
	}
	if len(f.expenses) != 1 {
		t.Fatalf("expense write rolled back: %d expenses", len(f.expenses))
	}
}

func TestEditLineItem_ItemFailureAborts(t *testing.T) {
	f, svc := newFakeAPI(t)
	p, items := seed(f)
	f.failPut["/forecast-items/"] = 400

	r := NewReconciler(svc, model.ActualsFromExpenses, nil)
	actual := decimal.NewFromInt(1)
	edit := items[0]
	edit.Status = "completed"
	if _, err := r.EditLineItem(context.Background(), EditRequest{Project: p, Items: items, Item: edit, Actual: &actual}); err == nil {
		t.Fatal("expected error when item update fails")
	}
	if len(f.expenses) != 0 {
		t.Fatal("expense written after failed item update")
	}
	if f.projects[1].Status != model.StatusNotStarted {
		t.Fatal("project status synced after failed item update")
	}
}

type orderRecorder struct {
	calls []string
}

func (o *orderRecorder) Update(_ context.Context, it model.ForecastItem) (model.ForecastItem, error) {
	o.calls = append(o.calls, "item")
	return it, nil
}

func (o *orderRecorder) Upsert(_ context.Context, e model.Expense) (model.Expense, error) {
	o.calls = append(o.calls, "expense")
	e.ID = 1
	return e, nil
}

func (o *orderRecorder) Patch(_ context.Context, id int64, _ model.ProjectPatch) (model.Project, error) {
	o.calls = append(o.calls, "status")
	return model.Project{ID: id}, nil
}

func TestEditLineItem_Ordering(t *testing.T) {
	rec := &orderRecorder{}
	r := &Reconciler{Items: rec, Expenses: rec, Projects: rec, Source: model.ActualsFromExpenses, Now: fixedNow}

	actual := decimal.NewFromInt(5)
	_, err := r.EditLineItem(context.Background(), EditRequest{
		Project: model.Project{ID: 3},
		Items:   []model.ForecastItem{{ID: 1, ProjectID: 3}},
		Item:    model.ForecastItem{ID: 1, ProjectID: 3, Status: "completed"},
		Actual:  &actual,
	})
	if err != nil {
		t.Fatalf("EditLineItem: %v", err)
	}
	want := []string{"item", "expense", "status"}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", rec.calls, want)
		}
	}
}
