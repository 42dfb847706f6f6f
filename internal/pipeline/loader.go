package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/model"
)

// ProjectGetter fetches a single project.
type ProjectGetter interface {
	Get(ctx context.Context, id int64) (model.Project, error)
}

// ItemLister lists a project's forecast line items.
type ItemLister interface {
	List(ctx context.Context, projectID int64) ([]model.ForecastItem, error)
}

// ExpenseLister lists a project's expenses.
type ExpenseLister interface {
	List(ctx context.Context, projectID int64) ([]model.Expense, error)
}

// DrawLister lists a project's draw records.
type DrawLister interface {
	List(ctx context.Context, projectID int64) ([]model.Draw, error)
}

// Sources are the API endpoints a project bundle is assembled from.
// Draws is optional.
type Sources struct {
	Projects ProjectGetter
	Items    ItemLister
	Expenses ExpenseLister
	Draws    DrawLister
}

// LoadResult holds one freshly fetched project bundle.
type LoadResult struct {
	Bundle  model.ProjectBundle
	Elapsed time.Duration
}

// Load fetches the project, its items, expenses and draws concurrently.
// The first failure cancels the rest. A server without the draws endpoint
// (404) yields no draws rather than an error.
func Load(ctx context.Context, src Sources, projectID int64) (*LoadResult, error) {
	start := time.Now()
	var b model.ProjectBundle

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := src.Projects.Get(ctx, projectID)
		b.Project = p
		return err
	})
	g.Go(func() error {
		items, err := src.Items.List(ctx, projectID)
		b.Items = items
		return err
	})
	g.Go(func() error {
		expenses, err := src.Expenses.List(ctx, projectID)
		b.Expenses = expenses
		return err
	})
	if src.Draws != nil {
		g.Go(func() error {
			draws, err := src.Draws.List(ctx, projectID)
			if errors.Is(err, api.ErrNotFound) {
				return nil
			}
			b.Draws = draws
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading project %d: %w", projectID, err)
	}
	return &LoadResult{Bundle: b, Elapsed: time.Since(start)}, nil
}
