package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/store"
)

type stubAPI struct {
	project  model.Project
	items    []model.ForecastItem
	expenses []model.Expense
	draws    []model.Draw
	err      error
	drawsErr error
}

type stubProjects struct{ s *stubAPI }
type stubItems struct{ s *stubAPI }
type stubExpenses struct{ s *stubAPI }
type stubDraws struct{ s *stubAPI }

func (p stubProjects) Get(context.Context, int64) (model.Project, error) { return p.s.project, p.s.err }
func (p stubProjects) List(context.Context) ([]model.Project, error) {
	return []model.Project{p.s.project}, p.s.err
}
func (i stubItems) List(context.Context, int64) ([]model.ForecastItem, error) {
	return i.s.items, i.s.err
}
func (e stubExpenses) List(context.Context, int64) ([]model.Expense, error) {
	return e.s.expenses, e.s.err
}
func (d stubDraws) List(context.Context, int64) ([]model.Draw, error) {
	if d.s.drawsErr != nil {
		return nil, d.s.drawsErr
	}
	return d.s.draws, d.s.err
}

func (s *stubAPI) sources() Sources {
	return Sources{Projects: stubProjects{s}, Items: stubItems{s}, Expenses: stubExpenses{s}, Draws: stubDraws{s}}
}

func sampleAPI() *stubAPI {
	return &stubAPI{
		project: model.Project{ID: 4, Name: "Barn", TotalBudget: decimal.NewNullDecimal(decimal.NewFromInt(1000))},
		items:   []model.ForecastItem{{ID: 1, ProjectID: 4, EstimatedCost: decimal.NewFromInt(400)}},
		draws:   []model.Draw{{ID: 9, ProjectID: 4}},
	}
}

func networkErr() error {
	return &api.NetworkError{Method: "GET", URL: "http://x", Err: syscall.ECONNREFUSED}
}

func TestLoad_Bundle(t *testing.T) {
	res, err := Load(context.Background(), sampleAPI().sources(), 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Bundle.Project.Name != "Barn" || len(res.Bundle.Items) != 1 || len(res.Bundle.Draws) != 1 {
		t.Fatalf("bundle = %+v", res.Bundle)
	}
}

func TestLoad_MissingDrawsEndpoint(t *testing.T) {
	s := sampleAPI()
	s.drawsErr = &api.RequestError{StatusCode: 404, Message: "Not Found"}
	res, err := Load(context.Background(), s.sources(), 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Bundle.Draws) != 0 {
		t.Fatalf("draws = %+v", res.Bundle.Draws)
	}
}

func TestLoad_NotFoundProject(t *testing.T) {
	s := sampleAPI()
	s.err = &api.RequestError{StatusCode: 404, Message: "Project not found"}
	_, err := Load(context.Background(), s.sources(), 4)
	if !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadWithCache_FallsBackWhenOffline(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	s := sampleAPI()
	fresh, err := LoadWithCache(context.Background(), s.sources(), cache, 4)
	if err != nil || fresh.FromCache || fresh.CacheErr != nil {
		t.Fatalf("fresh = %+v, %v", fresh, err)
	}

	s.err = networkErr()
	offline, err := LoadWithCache(context.Background(), s.sources(), cache, 4)
	if err != nil {
		t.Fatalf("offline load: %v", err)
	}
	if !offline.FromCache || !api.IsNetwork(offline.Offline) {
		t.Fatalf("offline = %+v", offline)
	}
	if offline.Bundle.Project.Name != "Barn" || len(offline.Bundle.Items) != 1 {
		t.Fatalf("cached bundle = %+v", offline.Bundle)
	}
}

func TestLoadWithCache_AuthErrorNotMasked(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	s := sampleAPI()
	if _, err := LoadWithCache(context.Background(), s.sources(), cache, 4); err != nil {
		t.Fatal(err)
	}
	s.err = api.ErrAuthRequired
	if _, err := LoadWithCache(context.Background(), s.sources(), cache, 4); !errors.Is(err, api.ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
}

func TestListProjectsWithCache(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	s := sampleAPI()
	if _, err := ListProjectsWithCache(context.Background(), stubProjects{s}, cache); err != nil {
		t.Fatal(err)
	}
	s.err = networkErr()
	res, err := ListProjectsWithCache(context.Background(), stubProjects{s}, cache)
	if err != nil || !res.FromCache || len(res.Projects) != 1 {
		t.Fatalf("res = %+v, %v", res, err)
	}
}
