package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// List returns the catalog ordered by code.
func (r *PGRepo) List(ctx context.Context) ([]Item, error) {
	const query = `
SELECT code, name, unit, simple, verticals, why_it_matters, compliance_refs, underwriting_weight
FROM catalog_items
ORDER BY code`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var verticals, refs []byte
		if err := rows.Scan(&it.Code, &it.Name, &it.Unit, &it.Simple, &verticals, &it.WhyItMatters, &refs, &it.UnderwritingWeight); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(verticals, &it.Verticals); err != nil {
			return nil, fmt.Errorf("decode verticals for %s: %w", it.Code, err)
		}
		if len(refs) > 0 {
			if err := json.Unmarshal(refs, &it.ComplianceRefs); err != nil {
				return nil, fmt.Errorf("decode compliance refs for %s: %w", it.Code, err)
			}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Upsert inserts an item or refreshes every column of an existing one.
func (r *PGRepo) Upsert(ctx context.Context, item Item) error {
	const query = `
INSERT INTO catalog_items (code, name, unit, simple, verticals, why_it_matters, compliance_refs, underwriting_weight)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (code) DO UPDATE SET
    name = excluded.name,
    unit = excluded.unit,
    simple = excluded.simple,
    verticals = excluded.verticals,
    why_it_matters = excluded.why_it_matters,
    compliance_refs = excluded.compliance_refs,
    underwriting_weight = excluded.underwriting_weight`

	verticals, err := json.Marshal(nonNil(item.Verticals))
	if err != nil {
		return err
	}
	refs, err := json.Marshal(nonNil(item.ComplianceRefs))
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		item.Code,
		item.Name,
		item.Unit,
		item.Simple,
		verticals,
		item.WhyItMatters,
		refs,
		item.UnderwritingWeight,
	)
	return err
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
