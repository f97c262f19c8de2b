package reports

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Report
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Report)}
}

// Create stores a deep copy of r.
func (m *MemoryRepo) Create(ctx context.Context, r Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[r.ID] = cloneReport(r)
	return nil
}

// GetByID returns a copy of a stored report.
func (m *MemoryRepo) GetByID(ctx context.Context, id string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.data[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return cloneReport(r), nil
}

// ListByVisit returns a visit's reports, newest first.
func (m *MemoryRepo) ListByVisit(ctx context.Context, visitID string) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Report, 0)
	for _, r := range m.data {
		if r.VisitID == visitID {
			out = append(out, cloneReport(r))
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}

func cloneReport(r Report) Report {
	out := r
	out.IncludedFindingIDs = append([]string(nil), r.IncludedFindingIDs...)
	out.Snapshot = append([]byte(nil), r.Snapshot...)
	return out
}
