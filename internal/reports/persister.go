package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"inspection-backend/internal/shared/storage/object"
	"inspection-backend/internal/shared/telemetry"
	"inspection-backend/internal/shared/util"
)

const pdfContentType = "application/pdf"

// Persister uploads rendered PDFs and records immutable Report rows.
type Persister struct {
	Store  object.ObjectStore
	Repo   Repo
	Suffix func() string
}

func (p *Persister) suffix() string {
	if p.Suffix != nil {
		return p.Suffix()
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// FileKey builds the object key for a report PDF.
func FileKey(data ReportData, audience Audience, suffix string) string {
	v := data.Visit
	return fmt.Sprintf("reports/%s/CEC_%s_%s_%s_%s-%s.pdf",
		v.ID, audience, util.Slugify(v.SiteName), v.ID, data.GeneratedAt.Format("20060102"), suffix)
}

// Persist uploads pdf and stores a Report whose snapshot is serialized now,
// so later edits to findings never change it. When the row cannot be
// recorded the uploaded object is removed again.
func (p *Persister) Persist(ctx context.Context, pdf []byte, data ReportData, audience Audience) (Report, error) {
	snapshot, err := json.Marshal(NewSnapshot(data))
	if err != nil {
		return Report{}, fmt.Errorf("encode snapshot: %w", err)
	}

	key := FileKey(data, audience, p.suffix())
	url, err := p.Store.Put(ctx, key, pdfContentType, bytes.NewReader(pdf))
	if err != nil {
		return Report{}, fmt.Errorf("upload report: %w", err)
	}

	report := Report{
		ID:                 uuid.NewString(),
		VisitID:            data.Visit.ID,
		Type:               audience,
		GeneratedBy:        data.Visit.TechUserID,
		GeneratedAt:        data.GeneratedAt,
		PDFURL:             url,
		IncludedFindingIDs: data.FindingIDs(),
		Snapshot:           snapshot,
	}
	if err := p.Repo.Create(ctx, report); err != nil {
		if delErr := p.Store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			telemetry.Error("report.orphan_cleanup_failed", map[string]any{
				"visit_id": data.Visit.ID,
				"key":      key,
				"error":    delErr.Error(),
			})
		}
		return Report{}, fmt.Errorf("record report: %w", err)
	}
	return report, nil
}
