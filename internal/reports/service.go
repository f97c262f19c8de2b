package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inspection-backend/internal/events"
	"inspection-backend/internal/shared/metrics"
	"inspection-backend/internal/shared/telemetry"
)

// Service generates and serves reports.
type Service struct {
	Assembler *Assembler
	Compiler  *Compiler
	Persister *Persister
	Repo      Repo
	Events    events.Publisher
	Render    func(Document) ([]byte, error)
}

// Generate assembles, compiles, renders and persists one report. Errors are
// ErrInvalidInput, ErrVisitNotFound or ErrGenerationFailed; nothing is stored
// on failure.
func (s *Service) Generate(ctx context.Context, visitID string, audience Audience, included []string) (Report, error) {
	if _, err := uuid.Parse(visitID); err != nil {
		return Report{}, fmt.Errorf("%w: visitId must be a uuid", ErrInvalidInput)
	}
	layout, err := LayoutFor(audience)
	if err != nil {
		return Report{}, err
	}

	start := time.Now()
	report, fallbacks, err := s.generate(ctx, visitID, layout, included)
	metrics.ObserveReportDurationMs(float64(time.Since(start).Milliseconds()))
	metrics.AddImageFallbacks(fallbacks)
	if err != nil {
		metrics.IncReportFailed()
		if errors.Is(err, ErrVisitNotFound) || errors.Is(err, ErrInvalidInput) {
			return Report{}, err
		}
		telemetry.Error("report.generate_failed", map[string]any{
			"visit_id": visitID,
			"type":     string(audience),
			"error":    err.Error(),
		})
		return Report{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	metrics.IncReportGenerated()

	telemetry.Info("report.generated", map[string]any{
		"visit_id":        visitID,
		"report_id":       report.ID,
		"type":            string(audience),
		"image_fallbacks": fallbacks,
		"duration_ms":     time.Since(start).Milliseconds(),
	})
	s.publish(ctx, report)
	return report, nil
}

func (s *Service) generate(ctx context.Context, visitID string, layout Layout, included []string) (Report, int, error) {
	data, err := s.Assembler.Assemble(ctx, visitID, layout.Audience(), included)
	if err != nil {
		return Report{}, 0, err
	}
	doc, err := s.Compiler.Compile(ctx, data, layout)
	if err != nil {
		return Report{}, 0, fmt.Errorf("compile: %w", err)
	}
	render := s.Render
	if render == nil {
		render = RenderPDF
	}
	pdf, err := render(doc)
	if err != nil {
		return Report{}, doc.ImageFallbacks, fmt.Errorf("render: %w", err)
	}
	report, err := s.Persister.Persist(ctx, pdf, data, layout.Audience())
	if err != nil {
		return Report{}, doc.ImageFallbacks, err
	}
	return report, doc.ImageFallbacks, nil
}

func (s *Service) publish(ctx context.Context, r Report) {
	if s.Events == nil {
		return
	}
	err := s.Events.Publish(ctx, events.Message{
		Type:        events.TypeReportGenerated,
		ReportID:    r.ID,
		VisitID:     r.VisitID,
		ReportType:  string(r.Type),
		PDFURL:      r.PDFURL,
		RequestID:   requestIDFrom(ctx),
		GeneratedAt: r.GeneratedAt,
		Version:     1,
	})
	if err != nil {
		telemetry.Warn("report.event_publish_failed", map[string]any{
			"report_id": r.ID,
			"error":     err.Error(),
		})
	}
}

// Get returns a stored report.
func (s *Service) Get(ctx context.Context, id string) (Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Report{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// ListByVisit returns a visit's reports, newest first.
func (s *Service) ListByVisit(ctx context.Context, visitID string) ([]Report, error) {
	if _, err := uuid.Parse(visitID); err != nil {
		return nil, fmt.Errorf("%w: visitId must be a uuid", ErrInvalidInput)
	}
	return s.Repo.ListByVisit(ctx, visitID)
}

type requestIDKey struct{}

// WithRequestID attaches a request id that is forwarded on published events.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
