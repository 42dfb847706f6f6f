package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBundleRoundTrip(t *testing.T) {
	c := openTestCache(t)
	itemID := int64(11)
	b := model.ProjectBundle{
		Project: model.Project{ID: 3, Name: "Cabin", Status: model.StatusInProgress,
			TotalBudget: decimal.NewNullDecimal(decimal.RequireFromString("125000.50"))},
		Items: []model.ForecastItem{
			{ID: 11, ProjectID: 3, Category: "Framing", EstimatedCost: decimal.NewFromInt(9000), Status: "Complete"},
			{ID: 12, ProjectID: 3, Category: "Roof", EstimatedCost: decimal.NewFromInt(7000)},
		},
		Expenses: []model.Expense{
			{ID: 21, ProjectID: 3, ForecastLineItemID: &itemID, AmountSpent: decimal.RequireFromString("8750.25"),
				Date: model.NewDate(2024, time.March, 2)},
		},
		Draws: []model.Draw{{ID: 31, ProjectID: 3, CashOnHand: decimal.NewFromInt(5000)}},
	}

	before := time.Now().Add(-time.Second)
	if err := c.SaveBundle(b); err != nil {
		t.Fatalf("SaveBundle: %v", err)
	}

	got, at, err := c.LoadBundle(3)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}
	if at.Before(before) {
		t.Fatalf("fetched_at = %v, want recent", at)
	}
	if got.Project.Name != "Cabin" || !got.Project.Budget().Equal(decimal.RequireFromString("125000.5")) {
		t.Fatalf("project = %+v", got.Project)
	}
	if len(got.Items) != 2 || got.Items[0].Status != "Complete" {
		t.Fatalf("items = %+v", got.Items)
	}
	if len(got.Expenses) != 1 || !got.Expenses[0].LinkedTo(11) || got.Expenses[0].Date.String() != "2024-03-02" {
		t.Fatalf("expenses = %+v", got.Expenses)
	}
	if len(got.Draws) != 1 || !got.Draws[0].CashOnHand.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("draws = %+v", got.Draws)
	}
}

func TestSaveBundleReplacesRows(t *testing.T) {
	c := openTestCache(t)
	b := model.ProjectBundle{
		Project: model.Project{ID: 1, Name: "A"},
		Items:   []model.ForecastItem{{ID: 1, ProjectID: 1}, {ID: 2, ProjectID: 1}},
	}
	if err := c.SaveBundle(b); err != nil {
		t.Fatal(err)
	}
	b.Items = b.Items[:1]
	if err := c.SaveBundle(b); err != nil {
		t.Fatal(err)
	}
	got, _, err := c.LoadBundle(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("items = %d, want 1 after replace", len(got.Items))
	}
}

func TestLoadMissing(t *testing.T) {
	c := openTestCache(t)
	if _, _, err := c.LoadBundle(99); !errors.Is(err, ErrNotCached) {
		t.Fatalf("LoadBundle err = %v, want ErrNotCached", err)
	}
	if _, _, err := c.LoadProjects(); !errors.Is(err, ErrNotCached) {
		t.Fatalf("LoadProjects err = %v, want ErrNotCached", err)
	}
}

func TestProjectsAndDelete(t *testing.T) {
	c := openTestCache(t)
	if err := c.SaveProjects([]model.Project{{ID: 2, Name: "B"}, {ID: 1, Name: "A"}}); err != nil {
		t.Fatal(err)
	}
	list, _, err := c.LoadProjects()
	if err != nil || len(list) != 2 || list[0].Name != "A" {
		t.Fatalf("LoadProjects = %+v, %v", list, err)
	}
	if err := c.DeleteProject(1); err != nil {
		t.Fatal(err)
	}
	list, _, _ = c.LoadProjects()
	if len(list) != 1 {
		t.Fatalf("projects after delete = %d", len(list))
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.SaveProjects([]model.Project{{ID: 1, Name: "A"}})
	_ = c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	if list, _, err := c.LoadProjects(); err != nil || len(list) != 1 {
		t.Fatalf("after reopen = %+v, %v", list, err)
	}
}
