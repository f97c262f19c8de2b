package findings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, visit_id, item_code, decision, other_reason, quantity, unit_price, line_total, send_to_quote, notes, attachments, extra_prompt_fields, created_at`

// Create inserts a finding.
func (r *PGRepo) Create(ctx context.Context, f Finding) error {
	const query = `
INSERT INTO findings (
    id,
    visit_id,
    item_code,
    decision,
    other_reason,
    quantity,
    unit_price,
    line_total,
    send_to_quote,
    notes,
    attachments,
    extra_prompt_fields,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	args, err := writeArgs(f)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		f.ID,
		f.VisitID,
		f.ItemCode,
		string(f.Decision),
		args.otherReason,
		args.quantity,
		args.unitPrice,
		args.lineTotal,
		f.SendToQuote,
		f.Notes,
		args.attachments,
		args.extra,
		f.CreatedAt,
	)
	return err
}

// Update rewrites every mutable column of a finding.
func (r *PGRepo) Update(ctx context.Context, f Finding) error {
	const query = `
UPDATE findings SET
    decision = $1,
    other_reason = $2,
    quantity = $3,
    unit_price = $4,
    line_total = $5,
    send_to_quote = $6,
    notes = $7,
    attachments = $8,
    extra_prompt_fields = $9
WHERE id = $10`

	args, err := writeArgs(f)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		string(f.Decision),
		args.otherReason,
		args.quantity,
		args.unitPrice,
		args.lineTotal,
		f.SendToQuote,
		f.Notes,
		args.attachments,
		args.extra,
		f.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches one finding.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Finding, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM findings WHERE id = $1`, id)
	f, err := scanFinding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Finding{}, ErrNotFound
		}
		return Finding{}, err
	}
	return f, nil
}

// ListByVisit returns a visit's findings in creation order.
func (r *PGRepo) ListByVisit(ctx context.Context, visitID string) ([]Finding, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+selectColumns+` FROM findings WHERE visit_id = $1 ORDER BY created_at, id`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Finding, 0)
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// LatestUnitPrice returns the newest non-null unit price for itemCode across
// visits to the same site.
func (r *PGRepo) LatestUnitPrice(ctx context.Context, siteName, itemCode string) (*string, error) {
	const query = `
SELECT f.unit_price
FROM findings f
JOIN visits v ON v.id = f.visit_id
WHERE v.site_name = $1 AND f.item_code = $2 AND f.unit_price IS NOT NULL
ORDER BY f.created_at DESC
LIMIT 1`
	var price string
	err := r.DB.QueryRowContext(ctx, query, siteName, itemCode).Scan(&price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFinding(row rowScanner) (Finding, error) {
	var f Finding
	var decision string
	var otherReason, unitPrice sql.NullString
	var quantity sql.NullFloat64
	var lineTotal decimal.NullDecimal
	var attachments, extra []byte
	if err := row.Scan(
		&f.ID,
		&f.VisitID,
		&f.ItemCode,
		&decision,
		&otherReason,
		&quantity,
		&unitPrice,
		&lineTotal,
		&f.SendToQuote,
		&f.Notes,
		&attachments,
		&extra,
		&f.CreatedAt,
	); err != nil {
		return Finding{}, err
	}
	f.Decision = Decision(decision)
	if otherReason.Valid {
		f.OtherReason = &otherReason.String
	}
	if quantity.Valid {
		f.Quantity = &quantity.Float64
	}
	if unitPrice.Valid {
		f.UnitPrice = &unitPrice.String
	}
	if lineTotal.Valid {
		f.LineTotal = &lineTotal.Decimal
	}
	f.AttachmentIDs = []string{}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &f.AttachmentIDs); err != nil {
			return Finding{}, fmt.Errorf("decode attachments: %w", err)
		}
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &f.ExtraFields); err != nil {
			return Finding{}, fmt.Errorf("decode extra fields: %w", err)
		}
	}
	return f, nil
}

type findingArgs struct {
	otherReason sql.NullString
	quantity    sql.NullFloat64
	unitPrice   sql.NullString
	lineTotal   decimal.NullDecimal
	attachments []byte
	extra       []byte
}

func writeArgs(f Finding) (findingArgs, error) {
	var a findingArgs
	if f.OtherReason != nil {
		a.otherReason = sql.NullString{String: *f.OtherReason, Valid: true}
	}
	if f.Quantity != nil {
		a.quantity = sql.NullFloat64{Float64: *f.Quantity, Valid: true}
	}
	if f.UnitPrice != nil {
		a.unitPrice = sql.NullString{String: *f.UnitPrice, Valid: true}
	}
	if f.LineTotal != nil {
		a.lineTotal = decimal.NullDecimal{Decimal: *f.LineTotal, Valid: true}
	}
	ids := f.AttachmentIDs
	if ids == nil {
		ids = []string{}
	}
	var err error
	if a.attachments, err = json.Marshal(ids); err != nil {
		return a, err
	}
	extra := f.ExtraFields
	if extra == nil {
		extra = map[string]any{}
	}
	if a.extra, err = json.Marshal(extra); err != nil {
		return a, err
	}
	return a, nil
}
