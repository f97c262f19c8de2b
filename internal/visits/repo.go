package visits

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("visit not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repo defines persistence operations for visits.
type Repo interface {
	Create(ctx context.Context, v Visit) error
	GetByID(ctx context.Context, id string) (Visit, error)
	Update(ctx context.Context, id string, patch Patch) (Visit, error)
}
