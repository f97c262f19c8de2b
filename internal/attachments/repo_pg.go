package attachments

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts an attachment row.
func (r *PGRepo) Create(ctx context.Context, a Attachment) error {
	const query = `
INSERT INTO attachments (id, visit_id, finding_id, blob_url, file_name, mime_type, size_bytes, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var findingID sql.NullString
	if a.FindingID != nil {
		findingID = sql.NullString{String: *a.FindingID, Valid: true}
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		a.ID,
		a.VisitID,
		findingID,
		a.BlobURL,
		a.FileName,
		a.MimeType,
		a.SizeBytes,
		tagsJSON,
	)
	return err
}

// ListByVisit returns attachments ordered by file name.
func (r *PGRepo) ListByVisit(ctx context.Context, visitID string) ([]Attachment, error) {
	const query = `
SELECT id, visit_id, finding_id, blob_url, file_name, mime_type, size_bytes, tags
FROM attachments
WHERE visit_id = $1
ORDER BY file_name, id`
	rows, err := r.DB.QueryContext(ctx, query, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Attachment, 0)
	for rows.Next() {
		var a Attachment
		var findingID sql.NullString
		var tags []byte
		if err := rows.Scan(&a.ID, &a.VisitID, &findingID, &a.BlobURL, &a.FileName, &a.MimeType, &a.SizeBytes, &tags); err != nil {
			return nil, err
		}
		if findingID.Valid {
			a.FindingID = &findingID.String
		}
		a.Tags = []string{}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &a.Tags); err != nil {
				return nil, fmt.Errorf("decode tags: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LinkToFinding sets finding_id on every listed attachment.
func (r *PGRepo) LinkToFinding(ctx context.Context, findingID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, findingID)
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}
	query := fmt.Sprintf("UPDATE attachments SET finding_id = $1 WHERE id IN (%s)", strings.Join(placeholders, ", "))
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
