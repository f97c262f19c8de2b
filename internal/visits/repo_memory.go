package visits

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Visit
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Visit),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a visit.
func (r *MemoryRepo) Create(ctx context.Context, v Visit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v.Verticals = append([]string(nil), v.Verticals...)
	r.data[v.ID] = v
	return nil
}

// GetByID returns a copy of the stored visit.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Visit, error) {
	if err := ctx.Err(); err != nil {
		return Visit{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[id]
	if !ok {
		return Visit{}, ErrNotFound
	}
	v.Verticals = append([]string(nil), v.Verticals...)
	return v, nil
}

// Update applies patch and bumps UpdatedAt.
func (r *MemoryRepo) Update(ctx context.Context, id string, patch Patch) (Visit, error) {
	if err := ctx.Err(); err != nil {
		return Visit{}, err
	}
	r.mu.Lock()
	v, ok := r.data[id]
	if !ok {
		r.mu.Unlock()
		return Visit{}, ErrNotFound
	}
	if !patch.Empty() {
		if patch.VisitNotes != nil {
			v.VisitNotes = *patch.VisitNotes
		}
		if patch.Verticals != nil {
			v.Verticals = append([]string(nil), (*patch.Verticals)...)
		}
		v.UpdatedAt = r.now()
		r.data[id] = v
	}
	r.mu.Unlock()
	return r.GetByID(ctx, id)
}
