package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory catalog used in dev and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewMemoryRepo constructs a MemoryRepo holding items.
func NewMemoryRepo(items ...Item) *MemoryRepo {
	r := &MemoryRepo{items: make(map[string]Item, len(items))}
	for _, it := range items {
		r.items[it.Code] = it
	}
	return r
}

// List returns all items ordered by code.
func (r *MemoryRepo) List(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Upsert inserts or replaces an item.
func (r *MemoryRepo) Upsert(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.Code] = item
	return nil
}
