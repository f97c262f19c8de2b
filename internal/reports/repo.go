package reports

import "context"

// Repo stores generated reports. Reports are never updated.
type Repo interface {
	Create(ctx context.Context, r Report) error
	GetByID(ctx context.Context, id string) (Report, error)
	ListByVisit(ctx context.Context, visitID string) ([]Report, error)
}
