// Package store provides a SQLite-backed offline cache of API entities.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/theirongolddev/sitebudget/internal/model"
)

// ErrNotCached is returned when nothing has been cached for a key yet.
var ErrNotCached = errors.New("store: not cached")

// Cache stores the last successful API responses so commands can still
// render when the API is unreachable.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseStamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// SaveProjects replaces the cached project list.
func (c *Cache) SaveProjects(projects []model.Project) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM projects"); err != nil {
		return fmt.Errorf("clearing projects: %w", err)
	}
	now := stamp(time.Now())
	for _, p := range projects {
		if err := putProject(tx, p, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func putProject(tx *sql.Tx, p model.Project, now string) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding project %d: %w", p.ID, err)
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO projects (id, name, data, fetched_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, string(data), now)
	if err != nil {
		return fmt.Errorf("saving project %d: %w", p.ID, err)
	}
	return nil
}

// LoadProjects returns the cached project list and when it was fetched.
func (c *Cache) LoadProjects() ([]model.Project, time.Time, error) {
	rows, err := c.db.Query("SELECT data, fetched_at FROM projects ORDER BY id")
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Project
	var newest time.Time
	for rows.Next() {
		var data, at string
		if err := rows.Scan(&data, &at); err != nil {
			return nil, time.Time{}, err
		}
		var p model.Project
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, time.Time{}, fmt.Errorf("decoding cached project: %w", err)
		}
		out = append(out, p)
		if t := parseStamp(at); t.After(newest) {
			newest = t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	if len(out) == 0 {
		return nil, time.Time{}, ErrNotCached
	}
	return out, newest, nil
}

// SaveBundle replaces everything cached for b.Project.
func (c *Cache) SaveBundle(b model.ProjectBundle) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	pid := b.Project.ID
	now := stamp(time.Now())

	for _, table := range []string{"forecast_items", "expenses", "draws"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE project_id = ?", pid); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := putProject(tx, b.Project, now); err != nil {
		return err
	}
	for _, it := range b.Items {
		if err := putRow(tx, "INSERT OR REPLACE INTO forecast_items (id, project_id, data, fetched_at) VALUES (?, ?, ?, ?)",
			it, it.ID, pid, now); err != nil {
			return err
		}
	}
	for _, e := range b.Expenses {
		var itemID any
		if e.ForecastLineItemID != nil {
			itemID = *e.ForecastLineItemID
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding expense %d: %w", e.ID, err)
		}
		if _, err := tx.Exec("INSERT OR REPLACE INTO expenses (id, project_id, item_id, data, fetched_at) VALUES (?, ?, ?, ?, ?)",
			e.ID, pid, itemID, string(data), now); err != nil {
			return fmt.Errorf("saving expense %d: %w", e.ID, err)
		}
	}
	for _, d := range b.Draws {
		if err := putRow(tx, "INSERT OR REPLACE INTO draws (id, project_id, data, fetched_at) VALUES (?, ?, ?, ?)",
			d, d.ID, pid, now); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("INSERT OR REPLACE INTO bundles (project_id, fetched_at) VALUES (?, ?)", pid, now); err != nil {
		return fmt.Errorf("saving bundle marker: %w", err)
	}
	return tx.Commit()
}

func putRow(tx *sql.Tx, query string, v any, id, projectID int64, now string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding row %d: %w", id, err)
	}
	if _, err := tx.Exec(query, id, projectID, string(data), now); err != nil {
		return fmt.Errorf("saving row %d: %w", id, err)
	}
	return nil
}

// LoadBundle returns the cached bundle for a project and when it was fetched.
func (c *Cache) LoadBundle(projectID int64) (model.ProjectBundle, time.Time, error) {
	var at string
	err := c.db.QueryRow("SELECT fetched_at FROM bundles WHERE project_id = ?", projectID).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ProjectBundle{}, time.Time{}, ErrNotCached
	}
	if err != nil {
		return model.ProjectBundle{}, time.Time{}, err
	}

	var b model.ProjectBundle
	var data string
	if err := c.db.QueryRow("SELECT data FROM projects WHERE id = ?", projectID).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ProjectBundle{}, time.Time{}, ErrNotCached
		}
		return model.ProjectBundle{}, time.Time{}, err
	}
	if err := json.Unmarshal([]byte(data), &b.Project); err != nil {
		return model.ProjectBundle{}, time.Time{}, fmt.Errorf("decoding cached project: %w", err)
	}

	if b.Items, err = loadRows[model.ForecastItem](c.db, "forecast_items", projectID); err != nil {
		return model.ProjectBundle{}, time.Time{}, err
	}
	if b.Expenses, err = loadRows[model.Expense](c.db, "expenses", projectID); err != nil {
		return model.ProjectBundle{}, time.Time{}, err
	}
	if b.Draws, err = loadRows[model.Draw](c.db, "draws", projectID); err != nil {
		return model.ProjectBundle{}, time.Time{}, err
	}
	return b, parseStamp(at), nil
}

func loadRows[T any](db *sql.DB, table string, projectID int64) ([]T, error) {
	rows, err := db.Query("SELECT data FROM "+table+" WHERE project_id = ? ORDER BY id", projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("decoding cached %s row: %w", table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteProject drops a project and everything cached under it.
func (c *Cache) DeleteProject(projectID int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		"DELETE FROM forecast_items WHERE project_id = ?",
		"DELETE FROM expenses WHERE project_id = ?",
		"DELETE FROM draws WHERE project_id = ?",
		"DELETE FROM bundles WHERE project_id = ?",
		"DELETE FROM projects WHERE id = ?",
	} {
		if _, err := tx.Exec(q, projectID); err != nil {
			return fmt.Errorf("deleting cached project %d: %w", projectID, err)
		}
	}
	return tx.Commit()
}

// Clear empties the cache.
func (c *Cache) Clear() error {
	for _, table := range []string{"forecast_items", "expenses", "draws", "bundles", "projects"} {
		if _, err := c.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}
