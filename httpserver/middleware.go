package httpserver

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const staticMaxAge = "public, max-age=2592000, immutable"

// cacheHeaders marks API responses uncacheable and static assets
// long-lived.
func cacheHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		switch {
		case strings.HasPrefix(path, "/api/"):
			c.Header("Cache-Control", "no-cache")
		case strings.HasPrefix(path, "/static/"):
			c.Header("Cache-Control", staticMaxAge)
		}
		c.Next()
	}
}
