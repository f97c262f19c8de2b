package findings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inspection-backend/internal/visits"
)

// Service contains business logic for findings.
type Service struct {
	Repo   Repo
	Visits visits.Repo
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create validates in, derives the line total and stores the finding.
func (s *Service) Create(ctx context.Context, in CreateInput) (Finding, error) {
	if _, err := uuid.Parse(in.VisitID); err != nil {
		return Finding{}, fmt.Errorf("%w: visitId must be a uuid", ErrInvalidInput)
	}
	in.ItemCode = strings.TrimSpace(in.ItemCode)
	if in.ItemCode == "" {
		return Finding{}, fmt.Errorf("%w: itemCode is required", ErrInvalidInput)
	}
	if !in.Decision.Valid() {
		return Finding{}, fmt.Errorf("%w: decision must be Yes, No or Other", ErrInvalidInput)
	}
	for _, id := range in.AttachmentIDs {
		if _, err := uuid.Parse(id); err != nil {
			return Finding{}, fmt.Errorf("%w: attachment id %q is not a uuid", ErrInvalidInput, id)
		}
	}
	if s.Visits != nil {
		if _, err := s.Visits.GetByID(ctx, in.VisitID); err != nil {
			if errors.Is(err, visits.ErrNotFound) {
				return Finding{}, fmt.Errorf("%w: unknown visit %s", ErrInvalidInput, in.VisitID)
			}
			return Finding{}, err
		}
	}

	f := Finding{
		ID:            uuid.NewString(),
		VisitID:       in.VisitID,
		ItemCode:      in.ItemCode,
		Decision:      in.Decision,
		OtherReason:   in.OtherReason,
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice.Text(),
		SendToQuote:   in.SendToQuote,
		Notes:         in.Notes,
		AttachmentIDs: in.AttachmentIDs,
		ExtraFields:   in.ExtraFields,
		CreatedAt:     s.now(),
	}
	if f.AttachmentIDs == nil {
		f.AttachmentIDs = []string{}
	}
	if f.ExtraFields == nil {
		f.ExtraFields = map[string]any{}
	}
	f.LineTotal = LineTotal(f.Quantity, f.UnitPrice)

	if err := s.Repo.Create(ctx, f); err != nil {
		return Finding{}, err
	}
	return f, nil
}

// Update applies patch to the stored finding.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Finding, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Finding{}, fmt.Errorf("%w: malformed finding id", ErrInvalidInput)
	}
	if patch.Decision.Set && (patch.Decision.Value == nil || !patch.Decision.Value.Valid()) {
		return Finding{}, fmt.Errorf("%w: decision must be Yes, No or Other", ErrInvalidInput)
	}
	if patch.AttachmentIDs.Set && patch.AttachmentIDs.Value != nil {
		for _, aid := range *patch.AttachmentIDs.Value {
			if _, err := uuid.Parse(aid); err != nil {
				return Finding{}, fmt.Errorf("%w: attachment id %q is not a uuid", ErrInvalidInput, aid)
			}
		}
	}

	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Finding{}, err
	}
	updated := patch.Apply(current)
	if err := s.Repo.Update(ctx, updated); err != nil {
		return Finding{}, err
	}
	return updated, nil
}

// ListByVisit returns every finding of a visit.
func (s *Service) ListByVisit(ctx context.Context, visitID string) ([]Finding, error) {
	if _, err := uuid.Parse(visitID); err != nil {
		return nil, fmt.Errorf("%w: visitId must be a uuid", ErrInvalidInput)
	}
	return s.Repo.ListByVisit(ctx, visitID)
}

// PricingHint returns the most recent unit price recorded for itemCode at
// the same site as visitID, or nil when there is none.
func (s *Service) PricingHint(ctx context.Context, visitID, itemCode string) (*string, error) {
	if strings.TrimSpace(visitID) == "" || strings.TrimSpace(itemCode) == "" {
		return nil, fmt.Errorf("%w: visitId and itemCode required", ErrInvalidInput)
	}
	if _, err := uuid.Parse(visitID); err != nil {
		return nil, nil
	}
	v, err := s.Visits.GetByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, visits.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.Repo.LatestUnitPrice(ctx, v.SiteName, itemCode)
}
