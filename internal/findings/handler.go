package findings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches finding and pricing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/findings", h.list)
	rg.POST("/findings", h.create)
	rg.PATCH("/findings/:id", h.update)
	rg.GET("/pricing/prefill", h.prefill)
}

func (h *Handler) list(c *gin.Context) {
	visitID := c.Query("visitId")
	if visitID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "visitId required", nil)
		return
	}
	c.Set("visitId", visitID)
	list, err := h.Svc.ListByVisit(c.Request.Context(), visitID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"findings": list})
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	c.Set("visitId", in.VisitID)
	f, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"id": f.ID})
}

func (h *Handler) update(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	f, err := h.Svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, f)
}

func (h *Handler) prefill(c *gin.Context) {
	visitID := c.Query("visitId")
	c.Set("visitId", visitID)
	hint, err := h.Svc.PricingHint(c.Request.Context(), visitID, c.Query("itemCode"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"hint": hint})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "finding not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "finding request failed", nil)
	}
}
