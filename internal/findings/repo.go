package findings

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("finding not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repo defines persistence operations for findings.
type Repo interface {
	Create(ctx context.Context, f Finding) error
	Update(ctx context.Context, f Finding) error
	GetByID(ctx context.Context, id string) (Finding, error)
	ListByVisit(ctx context.Context, visitID string) ([]Finding, error)
	LatestUnitPrice(ctx context.Context, siteName, itemCode string) (*string, error)
}
