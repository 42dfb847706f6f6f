// Package service holds typed CRUD wrappers over the API client and the
// line-item reconciliation step.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/model"
)

// Doer is the subset of *api.Client used by the services.
type Doer interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Services bundles every entity service over one client.
type Services struct {
	Projects *ProjectService
	Forecast *ForecastService
	Expenses *ExpenseService
	Draws    *DrawService
	Auth     *AuthService
}

// New builds all services on top of c.
func New(c Doer) *Services {
	return &Services{
		Projects: &ProjectService{c: c},
		Forecast: &ForecastService{c: c},
		Expenses: &ExpenseService{c: c},
		Draws:    &DrawService{c: c},
		Auth:     &AuthService{c: c},
	}
}

func byProject(projectID int64) url.Values {
	return url.Values{"project_id": {strconv.FormatInt(projectID, 10)}}
}

func itemPath(base string, id int64) string {
	return base + strconv.FormatInt(id, 10)
}

// keep returns the elements of list whose project matches.
func keep[T any](list []T, projectID int64, project func(T) int64) []T {
	out := list[:0]
	for _, v := range list {
		if project(v) == projectID {
			out = append(out, v)
		}
	}
	return out
}

// ProjectService manages /projects/.
type ProjectService struct{ c Doer }

const projectsPath = "/projects/"

// List returns every project visible to the caller.
func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	if err := s.c.Get(ctx, projectsPath, nil, &out); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return out, nil
}

// Get fetches one project. A missing project yields an error matching api.ErrNotFound.
func (s *ProjectService) Get(ctx context.Context, id int64) (model.Project, error) {
	var out model.Project
	if err := s.c.Get(ctx, itemPath(projectsPath, id), nil, &out); err != nil {
		return model.Project{}, fmt.Errorf("getting project %d: %w", id, err)
	}
	return out, nil
}

// Create adds a project and returns the server's copy.
func (s *ProjectService) Create(ctx context.Context, in model.ProjectInput) (model.Project, error) {
	var out model.Project
	if err := s.c.Post(ctx, projectsPath, in, &out); err != nil {
		return model.Project{}, fmt.Errorf("creating project: %w", err)
	}
	return out, nil
}

// Update replaces a project's editable fields.
func (s *ProjectService) Update(ctx context.Context, id int64, in model.ProjectInput) (model.Project, error) {
	var out model.Project
	if err := s.c.Put(ctx, itemPath(projectsPath, id), in, &out); err != nil {
		return model.Project{}, fmt.Errorf("updating project %d: %w", id, err)
	}
	return out, nil
}

// Patch sends only the non-nil fields of p. The API treats PUT bodies as partial.
func (s *ProjectService) Patch(ctx context.Context, id int64, p model.ProjectPatch) (model.Project, error) {
	var out model.Project
	if err := s.c.Put(ctx, itemPath(projectsPath, id), p, &out); err != nil {
		return model.Project{}, fmt.Errorf("patching project %d: %w", id, err)
	}
	return out, nil
}

// Delete removes a project. The server cascades to its items and expenses.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	if err := s.c.Delete(ctx, itemPath(projectsPath, id)); err != nil {
		return fmt.Errorf("deleting project %d: %w", id, err)
	}
	return nil
}

// ForecastService manages /forecast-items/.
type ForecastService struct{ c Doer }

const forecastPath = "/forecast-items/"

// List returns a project's forecast line items.
func (s *ForecastService) List(ctx context.Context, projectID int64) ([]model.ForecastItem, error) {
	var out []model.ForecastItem
	if err := s.c.Get(ctx, forecastPath, byProject(projectID), &out); err != nil {
		return nil, fmt.Errorf("listing forecast items: %w", err)
	}
	return keep(out, projectID, func(i model.ForecastItem) int64 { return i.ProjectID }), nil
}

// Get fetches one line item.
func (s *ForecastService) Get(ctx context.Context, id int64) (model.ForecastItem, error) {
	var out model.ForecastItem
	if err := s.c.Get(ctx, itemPath(forecastPath, id), nil, &out); err != nil {
		return model.ForecastItem{}, fmt.Errorf("getting forecast item %d: %w", id, err)
	}
	return out, nil
}

// Create adds a line item.
func (s *ForecastService) Create(ctx context.Context, it model.ForecastItem) (model.ForecastItem, error) {
	it.ID = 0
	var out model.ForecastItem
	if err := s.c.Post(ctx, forecastPath, it, &out); err != nil {
		return model.ForecastItem{}, fmt.Errorf("creating forecast item: %w", err)
	}
	return out, nil
}

// Update persists it. When the server replies without a body, it is returned as sent.
func (s *ForecastService) Update(ctx context.Context, it model.ForecastItem) (model.ForecastItem, error) {
	out := it
	if err := s.c.Put(ctx, itemPath(forecastPath, it.ID), it, &out); err != nil {
		return model.ForecastItem{}, fmt.Errorf("updating forecast item %d: %w", it.ID, err)
	}
	return out, nil
}

// Delete removes a line item.
func (s *ForecastService) Delete(ctx context.Context, id int64) error {
	if err := s.c.Delete(ctx, itemPath(forecastPath, id)); err != nil {
		return fmt.Errorf("deleting forecast item %d: %w", id, err)
	}
	return nil
}

// ExpenseService manages /expenses/.
type ExpenseService struct{ c Doer }

const expensesPath = "/expenses/"

// List returns a project's expenses.
func (s *ExpenseService) List(ctx context.Context, projectID int64) ([]model.Expense, error) {
	var out []model.Expense
	if err := s.c.Get(ctx, expensesPath, byProject(projectID), &out); err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return keep(out, projectID, func(e model.Expense) int64 { return e.ProjectID }), nil
}

// Get fetches one expense.
func (s *ExpenseService) Get(ctx context.Context, id int64) (model.Expense, error) {
	var out model.Expense
	if err := s.c.Get(ctx, itemPath(expensesPath, id), nil, &out); err != nil {
		return model.Expense{}, fmt.Errorf("getting expense %d: %w", id, err)
	}
	return out, nil
}

// Create records a new expense.
func (s *ExpenseService) Create(ctx context.Context, e model.Expense) (model.Expense, error) {
	e.ID = 0
	var out model.Expense
	if err := s.c.Post(ctx, expensesPath, e, &out); err != nil {
		return model.Expense{}, fmt.Errorf("creating expense: %w", err)
	}
	return out, nil
}

// Update replaces an expense in place.
func (s *ExpenseService) Update(ctx context.Context, e model.Expense) (model.Expense, error) {
	out := e
	if err := s.c.Put(ctx, itemPath(expensesPath, e.ID), e, &out); err != nil {
		return model.Expense{}, fmt.Errorf("updating expense %d: %w", e.ID, err)
	}
	return out, nil
}

// Upsert updates e when it has an id and creates it otherwise.
func (s *ExpenseService) Upsert(ctx context.Context, e model.Expense) (model.Expense, error) {
	if e.ID != 0 {
		return s.Update(ctx, e)
	}
	return s.Create(ctx, e)
}

// Delete removes an expense.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.c.Delete(ctx, itemPath(expensesPath, id)); err != nil {
		return fmt.Errorf("deleting expense %d: %w", id, err)
	}
	return nil
}

// DrawService manages /draws/.
type DrawService struct{ c Doer }

const drawsPath = "/draws/"

// List returns a project's draw records.
func (s *DrawService) List(ctx context.Context, projectID int64) ([]model.Draw, error) {
	var out []model.Draw
	if err := s.c.Get(ctx, drawsPath, byProject(projectID), &out); err != nil {
		return nil, fmt.Errorf("listing draws: %w", err)
	}
	return keep(out, projectID, func(d model.Draw) int64 { return d.ProjectID }), nil
}

// Create records a draw.
func (s *DrawService) Create(ctx context.Context, d model.Draw) (model.Draw, error) {
	d.ID = 0
	var out model.Draw
	if err := s.c.Post(ctx, drawsPath, d, &out); err != nil {
		return model.Draw{}, fmt.Errorf("creating draw: %w", err)
	}
	return out, nil
}

// Update replaces a draw record.
func (s *DrawService) Update(ctx context.Context, d model.Draw) (model.Draw, error) {
	out := d
	if err := s.c.Put(ctx, itemPath(drawsPath, d.ID), d, &out); err != nil {
		return model.Draw{}, fmt.Errorf("updating draw %d: %w", d.ID, err)
	}
	return out, nil
}

// Delete removes a draw record.
func (s *DrawService) Delete(ctx context.Context, id int64) error {
	if err := s.c.Delete(ctx, itemPath(drawsPath, id)); err != nil {
		return fmt.Errorf("deleting draw %d: %w", id, err)
	}
	return nil
}

// AuthService calls the auth endpoints. It does not store credentials.
type AuthService struct{ c Doer }

// Login exchanges email and password for an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.AuthResponse, error) {
	var out model.AuthResponse
	if err := s.c.Post(ctx, "/auth/login", model.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return model.AuthResponse{}, fmt.Errorf("login: %w", err)
	}
	return out, nil
}

// Register creates an account. The response may not carry a token.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (model.AuthResponse, error) {
	req := model.RegisterRequest{
		Email:        email,
		Password:     password,
		UserMetadata: model.UserMetadata{FullName: fullName},
	}
	var out model.AuthResponse
	if err := s.c.Post(ctx, "/auth/register", req, &out); err != nil {
		return model.AuthResponse{}, fmt.Errorf("register: %w", err)
	}
	return out, nil
}

var _ Doer = (*api.Client)(nil)
