package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"inspection-backend/internal/shared/server/respond"
	"inspection-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 error envelope and logs it with
// the request, visit and report ids known so far.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				fields := map[string]any{
					"request_id": RequestIDFromContext(c),
					"error":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				}
				if v := c.GetString("visitId"); v != "" {
					fields["visit_id"] = v
				}
				if v := c.GetString("reportId"); v != "" {
					fields["report_id"] = v
				}
				telemetry.Error("panic", fields)
				respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
				c.Abort()
			}
		}()
		c.Next()
	}
}
