package attachments

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Attachment
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Attachment)}
}

// Create stores an attachment.
func (r *MemoryRepo) Create(ctx context.Context, a Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[a.ID] = clone(a)
	return nil
}

// ListByVisit returns the visit's attachments ordered by file name.
func (r *MemoryRepo) ListByVisit(ctx context.Context, visitID string) ([]Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Attachment, 0)
	for _, a := range r.data {
		if a.VisitID == visitID {
			out = append(out, clone(a))
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FileName == out[j].FileName {
			return out[i].ID < out[j].ID
		}
		return out[i].FileName < out[j].FileName
	})
	return out, nil
}

// LinkToFinding points every listed attachment at findingID. Unknown ids are ignored.
func (r *MemoryRepo) LinkToFinding(ctx context.Context, findingID string, ids []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		a, ok := r.data[id]
		if !ok {
			continue
		}
		fid := findingID
		a.FindingID = &fid
		r.data[id] = a
		n++
	}
	return n, nil
}

func clone(a Attachment) Attachment {
	out := a
	if a.FindingID != nil {
		v := *a.FindingID
		out.FindingID = &v
	}
	out.Tags = append([]string(nil), a.Tags...)
	return out
}
