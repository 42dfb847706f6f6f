// Package state keeps in-memory entity collections in sync with the API.
package state

import (
	"sort"
	"sync"
)

// Keyed is implemented by entities with a server-assigned id.
type Keyed interface {
	Key() int64
}

// Collection is an ordered set of entities keyed by id. It is safe for
// concurrent use; writers replace whole snapshots.
type Collection[T Keyed] struct {
	mu    sync.RWMutex
	items []T
}

// NewCollection returns a collection holding items.
func NewCollection[T Keyed](items []T) *Collection[T] {
	c := &Collection[T]{}
	c.Replace(items)
	return c
}

// Replace swaps in a new snapshot.
func (c *Collection[T]) Replace(items []T) {
	cp := append([]T(nil), items...)
	c.mu.Lock()
	c.items = cp
	c.mu.Unlock()
}

// All returns a copy of the current snapshot.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Len returns the number of entities.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the entity with the given id.
func (c *Collection[T]) Get(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.items {
		if v.Key() == id {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Upsert replaces the entity with v's id, or appends v.
func (c *Collection[T]) Upsert(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]T, 0, len(c.items)+1)
	found := false
	for _, cur := range c.items {
		if cur.Key() == v.Key() {
			next = append(next, v)
			found = true
			continue
		}
		next = append(next, cur)
	}
	if !found {
		next = append(next, v)
	}
	c.items = next
}

// Remove drops the entity with the given id and reports whether it existed.
func (c *Collection[T]) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]T, 0, len(c.items))
	for _, cur := range c.items {
		if cur.Key() != id {
			next = append(next, cur)
		}
	}
	removed := len(next) != len(c.items)
	c.items = next
	return removed
}

// SortBy orders the snapshot in place with less.
func (c *Collection[T]) SortBy(less func(a, b T) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sort.SliceStable(c.items, func(i, j int) bool { return less(c.items[i], c.items[j]) })
}

// Optimistic applies mutate locally, then runs commit. When commit fails the
// previous snapshot is restored and the error returned.
func (c *Collection[T]) Optimistic(mutate func(*Collection[T]), commit func() error) error {
	snapshot := c.All()
	mutate(c)
	if err := commit(); err != nil {
		c.Replace(snapshot)
		return err
	}
	return nil
}
