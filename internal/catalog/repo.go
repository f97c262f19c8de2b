package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("catalog item not found")

// Repo reads the item catalog.
type Repo interface {
	List(ctx context.Context) ([]Item, error)
	Upsert(ctx context.Context, item Item) error
}

// Index maps items by code.
func Index(items []Item) map[string]Item {
	out := make(map[string]Item, len(items))
	for _, it := range items {
		out[it.Code] = it
	}
	return out
}
