package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/service"
	"github.com/theirongolddev/sitebudget/internal/state"
	"github.com/theirongolddev/sitebudget/internal/tui/components"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func ptr[T any](v T) *T { return &v }

// budgetServer serves one project with three line items and one expense.
func budgetServer(t *testing.T) *httptest.Server {
	t.Helper()
	project := model.Project{
		ID:          1,
		Name:        "Lake House",
		Address:     "12 Shore Rd",
		Status:      model.StatusInProgress,
		TotalBudget: decimal.NewNullDecimal(decimal.NewFromInt(100000)),
	}
	items := []model.ForecastItem{
		{ID: 10, ProjectID: 1, Category: "Foundation", EstimatedCost: decimal.NewFromInt(20000), ActualCost: decimal.NewFromInt(21000), Status: "Completed", ProgressPercent: 100},
		{ID: 11, ProjectID: 1, Category: "Framing", EstimatedCost: decimal.NewFromInt(30000), ActualCost: decimal.NewFromInt(5000), Status: "in_progress", ProgressPercent: 20},
		{ID: 12, ProjectID: 1, Category: "Roofing", EstimatedCost: decimal.NewFromInt(15000), Status: "not_started"},
	}
	expenses := []model.Expense{
		{ID: 50, ProjectID: 1, ForecastLineItemID: ptr(int64(10)), Vendor: "Concrete Co", AmountSpent: decimal.NewFromInt(21000), Date: model.NewDate(2026, 3, 2)},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body any
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
			return
		case r.URL.Path == "/projects/1":
			body = project
		case r.URL.Path == "/forecast-items/":
			body = items
		case r.URL.Path == "/expenses/":
			body = expenses
		case r.URL.Path == "/draws/":
			body = []model.Draw{}
		default:
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestView(baseURL string) *state.ProjectView {
	svc := service.New(api.New(api.Options{BaseURL: baseURL}))
	rec := service.NewReconciler(svc, model.ActualsFromItems, nil)
	return state.NewProjectView(svc, rec, nil, model.ActualsFromItems)
}

// loadedApp returns an app that has completed its initial load at 120x40.
func loadedApp(t *testing.T) App {
	t.Helper()
	srv := budgetServer(t)
	a := NewApp(Options{ProjectID: 1, View: newTestView(srv.URL)})

	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	a = m.(App)
	m, _ = a.Update(loadCmd(a.view, 1)())
	a = m.(App)
	if !a.loaded {
		t.Fatalf("app not loaded: %v", a.loadErr)
	}
	return a
}

func press(t *testing.T, a App, keys ...string) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var m tea.Model
		m, cmd = a.Update(msg)
		a = m.(App)
	}
	return a, cmd
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 50); got != -1 {
			t.Errorf("x past the last tab = %d, want -1", got)
		}
	}
}

func TestTabKeysSwitchTabs(t *testing.T) {
	a := loadedApp(t)
	for key, want := range map[string]int{"f": tabForecast, "e": tabExpenses, "d": tabDraws, "o": tabOverview} {
		a, _ = press(t, a, key)
		if a.activeTab != want {
			t.Errorf("key %q -> tab %d, want %d", key, a.activeTab, want)
		}
	}
}

func TestCursorClampsToRows(t *testing.T) {
	a := loadedApp(t)
	a, _ = press(t, a, "f", "j", "j", "j", "j", "j")
	if got := a.cursors[tabForecast]; got != 2 {
		t.Errorf("cursor = %d, want 2", got)
	}
	a, _ = press(t, a, "g")
	if got := a.cursors[tabForecast]; got != 0 {
		t.Errorf("cursor after g = %d, want 0", got)
	}
	a, _ = press(t, a, "k")
	if got := a.cursors[tabForecast]; got != 0 {
		t.Errorf("cursor moved above the first row: %d", got)
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	a := loadedApp(t)
	want := map[string][]string{
		"o": {"Lake House", "Total Budget", "$100,000.00", "On Track"},
		"f": {"Foundation", "Framing", "Roofing", "Completed"},
		"e": {"Concrete Co", "Foundation", "$21,000.00"},
		"d": {"No draws tracked"},
	}
	for key, needles := range want {
		a, _ = press(t, a, key)
		out := a.View()
		for _, n := range needles {
			if !strings.Contains(out, n) {
				t.Errorf("tab %q missing %q", key, n)
			}
		}
		if h := lipgloss.Height(out); h != 40 {
			t.Errorf("tab %q height = %d, want 40", key, h)
		}
	}
}

func TestLoadErrorShowsMessage(t *testing.T) {
	a := NewApp(Options{ProjectID: 99, View: newTestView("http://127.0.0.1:1")})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	a = m.(App)
	m, _ = a.Update(dataLoadedMsg{err: api.ErrNotFound})
	a = m.(App)

	if a.loaded {
		t.Fatal("app should not be loaded")
	}
	if !strings.Contains(a.View(), "Project not found.") {
		t.Error("loading view should show the not-found message")
	}
}

func TestDeleteNeedsTwoPresses(t *testing.T) {
	a := loadedApp(t)
	a, cmd := press(t, a, "f", "x")
	if cmd != nil || a.busy {
		t.Fatal("first x should only arm the delete")
	}
	if a.pendingDelete != 10 {
		t.Fatalf("pendingDelete = %d, want 10", a.pendingDelete)
	}

	a, cmd = press(t, a, "x")
	if cmd == nil || !a.busy {
		t.Fatal("second x should start the delete")
	}
	m, _ := a.Update(cmd())
	a = m.(App)
	if a.busy {
		t.Error("busy should clear after the delete completes")
	}
	if a.view.Items.Len() != 2 {
		t.Errorf("items = %d, want 2", a.view.Items.Len())
	}
	if a.flashErr {
		t.Errorf("unexpected error flash: %s", a.flash)
	}
}

func TestOtherKeyDisarmsDelete(t *testing.T) {
	a := loadedApp(t)
	a, _ = press(t, a, "f", "x", "j")
	if a.pendingDelete != 0 {
		t.Error("moving the cursor should disarm the pending delete")
	}
}

func TestEditFormOpensAndCancels(t *testing.T) {
	a := loadedApp(t)
	a, _ = press(t, a, "f", "j", "enter")
	if a.editForm == nil || a.editVals == nil {
		t.Fatal("enter should open the edit form")
	}
	if a.editVals.item.ID != 11 || a.editVals.Actual != "5000.00" {
		t.Errorf("form seeded with %+v", a.editVals)
	}
	a, _ = press(t, a, "esc")
	if a.editForm != nil {
		t.Error("esc should close the edit form")
	}
}

func TestSubmitEditRejectsBadInput(t *testing.T) {
	a := loadedApp(t)
	vals := &itemEditValues{
		item:     a.view.Items.All()[0],
		Status:   "completed",
		Progress: "250",
	}
	m, cmd := a.submitEdit(vals)
	a = m.(App)
	if cmd != nil {
		t.Error("invalid progress should not start a request")
	}
	if !a.flashErr || !strings.Contains(a.flash, "Progress") {
		t.Errorf("flash = %q", a.flash)
	}
}

func TestHelpToggle(t *testing.T) {
	a := loadedApp(t)
	a, _ = press(t, a, "?")
	if !a.showHelp || !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Fatal("? should show help")
	}
	a, _ = press(t, a, "f")
	if a.showHelp || a.activeTab != tabOverview {
		t.Error("any key should only dismiss help")
	}
}

func TestTooNarrow(t *testing.T) {
	a := NewApp(Options{View: newTestView("http://127.0.0.1:1")})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if out := m.(App).View(); !strings.Contains(out, "too narrow") {
		t.Errorf("unexpected view: %q", out)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{api.ErrAuthRequired, "Session expired"},
		{api.ErrNotFound, "Project not found."},
		{&api.NetworkError{Method: "GET", URL: "/x", Err: http.ErrHandlerTimeout}, "Network error"},
		{&api.RequestError{StatusCode: 422, Message: "Name taken"}, "Name taken"},
	}
	for _, tt := range tests {
		if got := describe(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("describe(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestVisibleWindow(t *testing.T) {
	tests := []struct {
		n, cursor, height int
		start, end        int
	}{
		{5, 0, 10, 0, 5},
		{20, 0, 5, 0, 5},
		{20, 10, 5, 8, 13},
		{20, 19, 5, 15, 20},
	}
	for _, tt := range tests {
		s, e := visibleWindow(tt.n, tt.cursor, tt.height)
		if s != tt.start || e != tt.end {
			t.Errorf("visibleWindow(%d,%d,%d) = %d,%d want %d,%d", tt.n, tt.cursor, tt.height, s, e, tt.start, tt.end)
		}
	}
}

func TestTruncStr(t *testing.T) {
	if got := truncStr("Foundation", 5); got != "Foun…" {
		t.Errorf("truncStr = %q", got)
	}
	if got := truncStr("abc", 5); got != "abc" {
		t.Errorf("truncStr = %q", got)
	}
}
