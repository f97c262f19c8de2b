package visits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service contains business logic for visits.
type Service struct {
	Repo Repo
}

// Create validates in and stores a new visit, returning its id.
func (s *Service) Create(ctx context.Context, in CreateInput) (Visit, error) {
	in.SiteName = strings.TrimSpace(in.SiteName)
	in.Address = strings.TrimSpace(in.Address)
	in.TechUserID = strings.TrimSpace(in.TechUserID)
	if in.SiteName == "" || in.Address == "" || in.TechUserID == "" {
		return Visit{}, fmt.Errorf("%w: siteName, address and techUserId are required", ErrInvalidInput)
	}
	if len(in.Verticals) == 0 {
		return Visit{}, fmt.Errorf("%w: at least one vertical is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	v := Visit{
		ID:         uuid.NewString(),
		SiteName:   in.SiteName,
		Address:    in.Address,
		Verticals:  in.Verticals,
		TechUserID: in.TechUserID,
		VisitNotes: in.VisitNotes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, v); err != nil {
		return Visit{}, err
	}
	return v, nil
}

// Get returns a visit by id.
func (s *Service) Get(ctx context.Context, id string) (Visit, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Visit{}, fmt.Errorf("%w: malformed visit id", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}

// Update applies a notes/verticals patch.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Visit, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Visit{}, fmt.Errorf("%w: malformed visit id", ErrInvalidInput)
	}
	return s.Repo.Update(ctx, id, patch)
}
