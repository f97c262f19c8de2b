package server

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"inspection-backend/internal/attachments"
	"inspection-backend/internal/catalog"
	"inspection-backend/internal/findings"
	"inspection-backend/internal/reports"
	"inspection-backend/internal/services/health"
	"inspection-backend/internal/shared/config"
	"inspection-backend/internal/shared/metrics"
	"inspection-backend/internal/shared/server/middleware"
	"inspection-backend/internal/shared/server/respond"
	"inspection-backend/internal/shared/storage/object"
	"inspection-backend/internal/visits"
)

const reportsRateGroup = "REPORTS"

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config             config.Config
	CatalogHandler     *catalog.Handler
	VisitsHandler      *visits.Handler
	FindingsHandler    *findings.Handler
	AttachmentsHandler *attachments.Handler
	ReportsHandler     *reports.Handler
	Health             *health.Service
	// Files, when set, serves stored objects under /api/v1/files.
	Files object.ObjectStore
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	api.GET("/metrics", metrics.Handler())

	if deps.CatalogHandler != nil {
		deps.CatalogHandler.RegisterRoutes(api)
	}
	if deps.VisitsHandler != nil {
		deps.VisitsHandler.RegisterRoutes(api)
	}
	if deps.FindingsHandler != nil {
		deps.FindingsHandler.RegisterRoutes(api)
	}
	if deps.AttachmentsHandler != nil {
		deps.AttachmentsHandler.RegisterRoutes(api)
	}
	if deps.ReportsHandler != nil {
		deps.ReportsHandler.RegisterRoutes(api, reportLimiter(deps.Config.ReportRatePerMin)...)
	}
	if deps.Files != nil {
		api.GET("/files/*key", serveFile(deps.Files))
	}

	return r
}

func reportLimiter(perMinute int) []gin.HandlerFunc {
	if perMinute <= 0 {
		return nil
	}
	return []gin.HandlerFunc{middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: reportsRateGroup,
		Rules: map[string]middleware.RateLimitRule{
			reportsRateGroup: {Rate: float64(perMinute) / 60.0, Burst: perMinute},
		},
	})}
}

func serveFile(store object.ObjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		rc, err := store.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, object.ErrInvalidKey) {
				respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "file read failed", nil)
			return
		}
		defer rc.Close()

		body, err := io.ReadAll(rc)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "file read failed", nil)
			return
		}
		c.Data(http.StatusOK, mimetype.Detect(body).String(), body)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
