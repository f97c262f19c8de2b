package attachments

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"inspection-backend/internal/shared/server/respond"
)

// base64 inflates by 4/3; leave headroom for the JSON envelope.
const maxBodyBytes = MaxSizeBytes*4/3 + 1<<20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches attachment routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/attachments", h.list)
	rg.POST("/attachments", h.upload)
	rg.POST("/attachments/link", h.link)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var in UploadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set("visitId", in.VisitID)
	a, err := h.Svc.Upload(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"id": a.ID, "url": a.BlobURL})
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
	respond.OK(c, gin.H{"attachments": list})
}

func (h *Handler) link(c *gin.Context) {
	var in LinkInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "findingId and attachmentIds[] required", nil)
		return
	}
	if _, err := h.Svc.Link(c.Request.Context(), in); err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusBadRequest, "file_too_large", "File too large", nil)
	case errors.Is(err, ErrUnsupported):
		respond.Error(c, http.StatusBadRequest, "unsupported_mime_type", "Unsupported mime type", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "attachment request failed", nil)
	}
}
