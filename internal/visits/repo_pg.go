package visits

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new visit.
func (r *PGRepo) Create(ctx context.Context, v Visit) error {
	const query = `
INSERT INTO visits (
    id,
    site_name,
    address,
    verticals,
    tech_user_id,
    visit_notes,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	verticals, err := json.Marshal(v.Verticals)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		v.ID,
		v.SiteName,
		v.Address,
		verticals,
		v.TechUserID,
		v.VisitNotes,
		v.CreatedAt,
		v.UpdatedAt,
	)
	return err
}

// GetByID fetches a visit.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Visit, error) {
	const query = `
SELECT id, site_name, address, verticals, tech_user_id, visit_notes, created_at, updated_at
FROM visits
WHERE id = $1`
	var v Visit
	var verticals []byte
	var notes sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&v.ID,
		&v.SiteName,
		&v.Address,
		&verticals,
		&v.TechUserID,
		&notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Visit{}, ErrNotFound
		}
		return Visit{}, err
	}
	if err := json.Unmarshal(verticals, &v.Verticals); err != nil {
		return Visit{}, fmt.Errorf("decode verticals: %w", err)
	}
	v.VisitNotes = notes.String
	return v, nil
}

// Update sets only the fields present in patch, bumping updated_at.
func (r *PGRepo) Update(ctx context.Context, id string, patch Patch) (Visit, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	var sets []string
	var args []any
	if patch.VisitNotes != nil {
		args = append(args, *patch.VisitNotes)
		sets = append(sets, fmt.Sprintf("visit_notes = $%d", len(args)))
	}
	if patch.Verticals != nil {
		verticals, err := json.Marshal(*patch.Verticals)
		if err != nil {
			return Visit{}, err
		}
		args = append(args, verticals)
		sets = append(sets, fmt.Sprintf("verticals = $%d", len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE visits SET %s, updated_at = now() WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return Visit{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Visit{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}
