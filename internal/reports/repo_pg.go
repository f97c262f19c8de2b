package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a report row.
func (r *PGRepo) Create(ctx context.Context, rep Report) error {
	const query = `
INSERT INTO reports (
    id,
    visit_id,
    type,
    generated_by_user_id,
    generated_at,
    pdf_url,
    included_finding_ids,
    snapshot
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ids := rep.IncludedFindingIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	snapshot := []byte(rep.Snapshot)
	if len(snapshot) == 0 {
		snapshot = []byte("{}")
	}
	_, err = r.DB.ExecContext(ctx, query,
		rep.ID,
		rep.VisitID,
		string(rep.Type),
		rep.GeneratedBy,
		rep.GeneratedAt,
		rep.PDFURL,
		idsJSON,
		snapshot,
	)
	return err
}

const reportColumns = `id, visit_id, type, generated_by_user_id, generated_at, pdf_url, included_finding_ids, snapshot`

// GetByID fetches a report including its snapshot.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Report, error) {
	rep, err := scanReport(r.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	return rep, nil
}

// ListByVisit returns a visit's reports newest first.
func (r *PGRepo) ListByVisit(ctx context.Context, visitID string) ([]Report, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE visit_id = $1 ORDER BY generated_at DESC`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (Report, error) {
	var rep Report
	var typ string
	var ids, snapshot []byte
	if err := row.Scan(&rep.ID, &rep.VisitID, &typ, &rep.GeneratedBy, &rep.GeneratedAt, &rep.PDFURL, &ids, &snapshot); err != nil {
		return Report{}, err
	}
	rep.Type = Audience(typ)
	if err := json.Unmarshal(ids, &rep.IncludedFindingIDs); err != nil {
		return Report{}, fmt.Errorf("decode included finding ids: %w", err)
	}
	rep.Snapshot = json.RawMessage(snapshot)
	return rep, nil
}
