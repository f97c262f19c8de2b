package health

import (
	"context"
	"database/sql"
	"time"

	"inspection-backend/internal/shared/storage/db"
)

const pingTimeout = 2 * time.Second

// Status is the health payload.
type Status struct {
	OK       bool           `json:"ok"`
	Database string         `json:"database"`
	Pool     map[string]any `json:"pool,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. A nil db means in-memory
// repositories.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status pings the database when one is configured.
func (s *Service) Status(ctx context.Context) Status {
	if s == nil || s.DB == nil {
		return Status{OK: true, Database: "memory"}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		return Status{OK: false, Database: "down"}
	}
	return Status{OK: true, Database: "up", Pool: db.PoolStats(s.DB)}
}
