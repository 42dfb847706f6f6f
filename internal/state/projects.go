package state

import (
	"context"
	"time"

	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/pipeline"
	"github.com/theirongolddev/sitebudget/internal/service"
	"github.com/theirongolddev/sitebudget/internal/store"
)

type projectKey struct{ model.Project }

func (p projectKey) Key() int64 { return p.ID }

// ProjectList is the cached list of the user's projects.
type ProjectList struct {
	svc   *service.ProjectService
	cache *store.Cache
	list  *Collection[projectKey]

	// FromCache and FetchedAt describe the last Refresh.
	FromCache bool
	FetchedAt time.Time
}

// NewProjectList creates an empty list. cache may be nil.
func NewProjectList(svc *service.ProjectService, cache *store.Cache) *ProjectList {
	return &ProjectList{svc: svc, cache: cache, list: NewCollection[projectKey](nil)}
}

// Projects returns the current snapshot.
func (l *ProjectList) Projects() []model.Project {
	all := l.list.All()
	out := make([]model.Project, len(all))
	for i, p := range all {
		out[i] = p.Project
	}
	return out
}

// Refresh reloads the list from the API, or from cache when offline.
func (l *ProjectList) Refresh(ctx context.Context) error {
	res, err := pipeline.ListProjectsWithCache(ctx, l.svc, l.cache)
	if err != nil {
		return err
	}
	wrapped := make([]projectKey, len(res.Projects))
	for i, p := range res.Projects {
		wrapped[i] = projectKey{p}
	}
	l.list.Replace(wrapped)
	l.FromCache, l.FetchedAt = res.FromCache, res.FetchedAt
	return nil
}

// Create adds a project and appends it to the list.
func (l *ProjectList) Create(ctx context.Context, in model.ProjectInput) (model.Project, error) {
	p, err := l.svc.Create(ctx, in)
	if err != nil {
		return model.Project{}, err
	}
	l.list.Upsert(projectKey{p})
	return p, nil
}

// Update replaces a project and its list entry.
func (l *ProjectList) Update(ctx context.Context, id int64, in model.ProjectInput) (model.Project, error) {
	p, err := l.svc.Update(ctx, id, in)
	if err != nil {
		return model.Project{}, err
	}
	if p.ID == 0 {
		p.ID = id
	}
	l.list.Upsert(projectKey{p})
	return p, nil
}

// Delete removes a project optimistically; the entry comes back on failure.
func (l *ProjectList) Delete(ctx context.Context, id int64) error {
	err := l.list.Optimistic(
		func(c *Collection[projectKey]) { c.Remove(id) },
		func() error { return l.svc.Delete(ctx, id) },
	)
	if err == nil && l.cache != nil {
		_ = l.cache.DeleteProject(id)
	}
	return err
}
