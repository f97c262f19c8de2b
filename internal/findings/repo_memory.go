package findings

import (
	"context"
	"sort"
	"sync"

	"inspection-backend/internal/visits"
)

// MemoryRepo is an in-memory implementation of Repo. Visits resolves site
// names for pricing hints.
type MemoryRepo struct {
	mu     sync.RWMutex
	data   map[string]Finding
	Visits visits.Repo
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo(visitRepo visits.Repo) *MemoryRepo {
	return &MemoryRepo{
		data:   make(map[string]Finding),
		Visits: visitRepo,
	}
}

// Create stores a finding.
func (r *MemoryRepo) Create(ctx context.Context, f Finding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[f.ID] = f.Clone()
	return nil
}

// Update replaces a stored finding.
func (r *MemoryRepo) Update(ctx context.Context, f Finding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[f.ID]; !ok {
		return ErrNotFound
	}
	r.data[f.ID] = f.Clone()
	return nil
}

// GetByID returns a copy of a stored finding.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Finding, error) {
	if err := ctx.Err(); err != nil {
		return Finding{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.data[id]
	if !ok {
		return Finding{}, ErrNotFound
	}
	return f.Clone(), nil
}

// ListByVisit returns the visit's findings in creation order.
func (r *MemoryRepo) ListByVisit(ctx context.Context, visitID string) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Finding, 0)
	for _, f := range r.data {
		if f.VisitID == visitID {
			out = append(out, f.Clone())
		}
	}
	r.mu.RUnlock()
	sortByCreated(out)
	return out, nil
}

// LatestUnitPrice returns the newest non-null unit price recorded for
// itemCode at any visit to siteName.
func (r *MemoryRepo) LatestUnitPrice(ctx context.Context, siteName, itemCode string) (*string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	candidates := make([]Finding, 0)
	for _, f := range r.data {
		if f.ItemCode == itemCode && f.UnitPrice != nil {
			candidates = append(candidates, f.Clone())
		}
	}
	r.mu.RUnlock()
	sortByCreated(candidates)

	for i := len(candidates) - 1; i >= 0; i-- {
		f := candidates[i]
		if r.Visits == nil {
			continue
		}
		v, err := r.Visits.GetByID(ctx, f.VisitID)
		if err != nil {
			continue
		}
		if v.SiteName == siteName {
			return f.UnitPrice, nil
		}
	}
	return nil, nil
}

func sortByCreated(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].CreatedAt.Equal(fs[j].CreatedAt) {
			return fs[i].ID < fs[j].ID
		}
		return fs[i].CreatedAt.Before(fs[j].CreatedAt)
	})
}
