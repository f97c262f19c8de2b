package attachments

import (
	"context"
	"errors"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrTooLarge     = errors.New("file too large")
	ErrUnsupported  = errors.New("unsupported mime type")
)

// Repo defines persistence operations for attachments.
type Repo interface {
	Create(ctx context.Context, a Attachment) error
	ListByVisit(ctx context.Context, visitID string) ([]Attachment, error)
	LinkToFinding(ctx context.Context, findingID string, ids []string) (int64, error)
}
