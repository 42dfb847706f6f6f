package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/model"
)

// fakeAPI is an in-memory stand-in for the budget REST API.
type fakeAPI struct {
	mu       sync.Mutex
	nextID   int64
	projects map[int64]model.Project
	items    map[int64]model.ForecastItem
	expenses map[int64]model.Expense
	failPut  map[string]int // path prefix -> status code
	puts     []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Services) {
	t.Helper()
	f := &fakeAPI{
		nextID:   100,
		projects: map[int64]model.Project{},
		items:    map[int64]model.ForecastItem{},
		expenses: map[int64]model.Expense{},
		failPut:  map[string]int{},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, New(api.New(api.Options{BaseURL: srv.URL}))
}

func (f *fakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	collection := parts[0]
	var id int64
	if len(parts) > 1 {
		id, _ = strconv.ParseInt(parts[1], 10, 64)
	}

	if r.Method == http.MethodPut {
		f.puts = append(f.puts, r.URL.Path)
		for prefix, code := range f.failPut {
			if strings.HasPrefix(r.URL.Path, prefix) {
				writeJSON(w, code, map[string]string{"detail": "write rejected"})
				return
			}
		}
	}

	switch collection {
	case "projects":
		f.serveProjects(w, r, id)
	case "forecast-items":
		serveCollection(w, r, id, f.items, f.id, func(v *model.ForecastItem, id int64) { v.ID = id })
	case "expenses":
		serveCollection(w, r, id, f.expenses, f.id, func(v *model.Expense, id int64) { v.ID = id })
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) serveProjects(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPut {
		serveCollection(w, r, id, f.projects, f.id, func(v *model.Project, id int64) { v.ID = id })
		return
	}
	p, ok := f.projects[id]
	if !ok {
		http.NotFound(w, r)
		return
	}
	var patch model.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	f.projects[id] = p
	writeJSON(w, http.StatusOK, p)
}

func serveCollection[T any](w http.ResponseWriter, r *http.Request, id int64, m map[int64]T, next func() int64, setID func(*T, int64)) {
	switch r.Method {
	case http.MethodGet:
		if id == 0 {
			out := make([]T, 0, len(m))
			for _, v := range m {
				out = append(out, v)
			}
			writeJSON(w, http.StatusOK, out)
			return
		}
		v, ok := m[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
			return
		}
		writeJSON(w, http.StatusOK, v)
	case http.MethodPost, http.MethodPut:
		var v T
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
			return
		}
		if r.Method == http.MethodPost {
			id = next()
		} else if _, ok := m[id]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
			return
		}
		setID(&v, id)
		m[id] = v
		writeJSON(w, http.StatusOK, v)
	case http.MethodDelete:
		delete(m, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
