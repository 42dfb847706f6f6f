package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	// FromCache is set when the API was unreachable and the bundle came from disk.
	FromCache bool
	FetchedAt time.Time
	// Offline is the network error that forced the cache fallback.
	Offline error
	// CacheErr records a failure to write the fresh bundle to the cache.
	CacheErr error
}

// LoadWithCache fetches a project bundle from the API and stores it in cache.
// When the API is unreachable it serves the last cached copy instead. Any
// other failure (401, 404, server errors) is returned as is.
func LoadWithCache(ctx context.Context, src Sources, cache *store.Cache, projectID int64) (*CachedLoadResult, error) {
	res, err := Load(ctx, src, projectID)
	if err == nil {
		out := &CachedLoadResult{LoadResult: *res, FetchedAt: time.Now()}
		if cache != nil {
			out.CacheErr = cache.SaveBundle(res.Bundle)
		}
		return out, nil
	}

	if cache == nil || !api.IsNetwork(err) {
		return nil, err
	}
	b, at, cerr := cache.LoadBundle(projectID)
	if cerr != nil {
		return nil, err
	}
	return &CachedLoadResult{
		LoadResult: LoadResult{Bundle: b},
		FromCache:  true,
		FetchedAt:  at,
		Offline:    err,
	}, nil
}

// ProjectLister lists projects.
type ProjectLister interface {
	List(ctx context.Context) ([]model.Project, error)
}

// ProjectsResult is a project list and where it came from.
type ProjectsResult struct {
	Projects  []model.Project
	FromCache bool
	FetchedAt time.Time
	Offline   error
}

// ListProjectsWithCache lists projects from the API, falling back to the
// cached list when the API is unreachable.
func ListProjectsWithCache(ctx context.Context, lister ProjectLister, cache *store.Cache) (*ProjectsResult, error) {
	projects, err := lister.List(ctx)
	if err == nil {
		if cache != nil {
			_ = cache.SaveProjects(projects)
		}
		return &ProjectsResult{Projects: projects, FetchedAt: time.Now()}, nil
	}

	if cache == nil || !api.IsNetwork(err) {
		return nil, err
	}
	cached, at, cerr := cache.LoadProjects()
	if cerr != nil {
		if errors.Is(cerr, store.ErrNotCached) {
			return nil, err
		}
		return nil, errors.Join(err, cerr)
	}
	return &ProjectsResult{Projects: cached, FromCache: true, FetchedAt: at, Offline: err}, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitebudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "sitebudget")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "entities.db")
}
