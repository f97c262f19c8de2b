package offline

import (
	"context"
	"encoding/json"
	"fmt"
)

const draftPrefix = "draft:"

// DraftStore keeps in-progress form state between sessions. Values are
// stored as JSON and never validated.
type DraftStore struct {
	Store Store
}

// NewDraftStore constructs a DraftStore over store.
func NewDraftStore(store Store) *DraftStore {
	return &DraftStore{Store: store}
}

// Save overwrites the draft at key.
func (d *DraftStore) Save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", key, err)
	}
	return d.Store.Put(ctx, draftPrefix+key, raw)
}

// Load decodes the draft at key into dst and reports whether one existed.
func (d *DraftStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := d.Store.Get(ctx, draftPrefix+key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return true, nil
}

// Clear removes the draft at key. Clearing a missing draft is a no-op.
func (d *DraftStore) Clear(ctx context.Context, key string) error {
	return d.Store.Delete(ctx, draftPrefix+key)
}
