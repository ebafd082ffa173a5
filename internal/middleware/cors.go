package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Origins is a parsed allow-list of cross-origin callers.
type Origins map[string]bool

// ParseOrigins reads "*" or a comma-separated list (e.g. "http://localhost:3000,http://localhost:5173").
func ParseOrigins(s string) Origins {
	m := make(Origins)
	for _, o := range strings.Split(strings.TrimSpace(s), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			m[o] = true
		}
	}
	return m
}

// AllowAll reports whether every origin is accepted.
func (o Origins) AllowAll() bool {
	return len(o) == 0 || o["*"]
}

// Allowed reports whether origin may call the API.
func (o Origins) Allowed(origin string) bool {
	return o.AllowAll() || (origin != "" && o[origin])
}

// CORS returns a middleware that sets CORS headers for cross-origin requests.
func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := ParseOrigins(allowedOrigins)
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowOrigin := ""
		if origins.AllowAll() {
			allowOrigin = "*"
		} else if origins.Allowed(origin) {
			allowOrigin = origin
			c.Header("Vary", "Origin")
		}
		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
