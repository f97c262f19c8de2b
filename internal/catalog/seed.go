package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed.json
var seedJSON []byte

// SeedItems returns the built-in catalog.
func SeedItems() ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(seedJSON, &items); err != nil {
		return nil, fmt.Errorf("decode seed catalog: %w", err)
	}
	return items, nil
}

// Seed upserts every built-in item into repo and returns how many were written.
func Seed(ctx context.Context, repo Repo) (int, error) {
	items, err := SeedItems()
	if err != nil {
		return 0, err
	}
	for _, it := range items {
		if err := repo.Upsert(ctx, it); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", it.Code, err)
		}
	}
	return len(items), nil
}
