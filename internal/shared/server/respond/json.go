package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with status and marks the response uncacheable.
func JSON(c *gin.Context, status int, payload any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}
