package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"inspection-backend/internal/attachments"
	"inspection-backend/internal/catalog"
	"inspection-backend/internal/findings"
	"inspection-backend/internal/visits"
)

// Assembler loads and joins everything a report needs.
type Assembler struct {
	Visits      visits.Repo
	Findings    findings.Repo
	Attachments attachments.Repo
	Catalog     catalog.Repo
	Now         func() time.Time
}

// Assemble builds ReportData for a visit. When included is non-empty only
// those Yes findings are reported. Findings whose item code is missing from
// the catalog are skipped.
func (a *Assembler) Assemble(ctx context.Context, visitID string, audience Audience, included []string) (ReportData, error) {
	visit, err := a.Visits.GetByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, visits.ErrNotFound) {
			return ReportData{}, ErrVisitNotFound
		}
		return ReportData{}, fmt.Errorf("load visit: %w", err)
	}

	items, err := a.Catalog.List(ctx)
	if err != nil {
		return ReportData{}, fmt.Errorf("load catalog: %w", err)
	}
	byCode := catalog.Index(items)

	all, err := a.Findings.ListByVisit(ctx, visitID)
	if err != nil {
		return ReportData{}, fmt.Errorf("load findings: %w", err)
	}
	keep := make(map[string]bool, len(included))
	for _, id := range included {
		keep[id] = true
	}

	data := ReportData{
		Audience: audience,
		Visit:    visit,
	}
	for _, f := range all {
		item, ok := byCode[f.ItemCode]
		if !ok {
			continue
		}
		row := FindingRow{Finding: f, ItemName: item.Name, Unit: item.Unit, WhyItMatters: item.WhyItMatters}
		switch f.Decision {
		case findings.DecisionYes:
			if len(keep) > 0 && !keep[f.ID] {
				continue
			}
			data.Findings = append(data.Findings, row)
		case findings.DecisionNo:
			if audience == AudienceCustomer {
				data.NoFindings = append(data.NoFindings, row)
			}
		}
	}
	sortByCode(data.Findings)
	sortByCode(data.NoFindings)

	data.Attachments, err = a.Attachments.ListByVisit(ctx, visitID)
	if err != nil {
		return ReportData{}, fmt.Errorf("load attachments: %w", err)
	}
	sort.SliceStable(data.Attachments, func(i, j int) bool {
		return data.Attachments[i].FileName < data.Attachments[j].FileName
	})

	data.GeneratedAt = time.Now().UTC()
	if a.Now != nil {
		data.GeneratedAt = a.Now()
	}
	return data, nil
}

func sortByCode(rows []FindingRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ItemCode < rows[j].ItemCode
	})
}
