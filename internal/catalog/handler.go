package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inspection-backend/internal/shared/server/respond"
)

// Handler serves the catalog.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.list)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list catalog", nil)
		return
	}
	if items == nil {
		items = []Item{}
	}
	respond.OK(c, gin.H{"items": items})
}
