package reports

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"inspection-backend/internal/shared/server/middleware"
	"inspection-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type generateRequest struct {
	VisitID            string   `json:"visitId" binding:"required"`
	IncludedFindingIDs []string `json:"includedFindingIds"`
}

// RegisterRoutes attaches report routes. generate may carry extra middleware
// such as a rate limiter for the expensive endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, generate ...gin.HandlerFunc) {
	rg.POST("/reports/customer", chain(generate, h.generate(AudienceCustomer))...)
	rg.POST("/reports/insurer", chain(generate, h.generate(AudienceInsurer))...)
	rg.GET("/reports/:id", h.get)
	rg.GET("/visits/:id/reports", h.listByVisit)
}

func chain(mw []gin.HandlerFunc, last gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw)+1)
	out = append(out, mw...)
	return append(out, last)
}

func (h *Handler) generate(audience Audience) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "visitId required", nil)
			return
		}
		c.Set("visitId", req.VisitID)

		ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
		report, err := h.Svc.Generate(ctx, req.VisitID, audience, req.IncludedFindingIDs)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.Set("reportId", report.ID)
		respond.OK(c, gin.H{"id": report.ID, "url": report.PDFURL})
	}
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("reportId", id)
	report, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set("visitId", report.VisitID)
	respond.OK(c, report)
}

func (h *Handler) listByVisit(c *gin.Context) {
	visitID := c.Param("id")
	c.Set("visitId", visitID)
	list, err := h.Svc.ListByVisit(c.Request.Context(), visitID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"reports": list})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrVisitNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "visit not found", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "generation_failed", "Failed to generate PDF", nil)
	}
}
