package visits

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

// RegisterRoutes attaches visit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/visits", h.create)
	rg.GET("/visits/:id", h.get)
	rg.PATCH("/visits/:id", h.update)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	v, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set("visitId", v.ID)
	respond.OK(c, gin.H{"id": v.ID})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("visitId", id)
	v, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, v)
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	c.Set("visitId", id)
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	v, err := h.Svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, v)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "visit not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "visit request failed", nil)
	}
}
