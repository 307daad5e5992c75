package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"feedbackportal/internal/config"
	"feedbackportal/internal/observability"

	"github.com/gin-gonic/gin"
)

// RequireAdminKey gates admin routes on the X-API-Key header. When no key is
// configured the routes stay open; a warning is logged once at startup so the
// operator knows.
func RequireAdminKey(cfg *config.Config, logger *observability.Logger) gin.HandlerFunc {
	adminKey := cfg.Server.AdminAPIKey
	if adminKey == "" {
		logger.Warn(context.Background(), "Admin API key is not configured, admin routes are open")
	}

	return func(c *gin.Context) {
		if adminKey == "" {
			c.Next()
			return
		}

		if !AdminKeyValid(c, cfg) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// AdminKeyValid reports whether the request carries the configured admin key.
// Routes shared between the public and admin surfaces use it to widen the
// response without gating access.
func AdminKeyValid(c *gin.Context, cfg *config.Config) bool {
	adminKey := cfg.Server.AdminAPIKey
	if adminKey == "" {
		return false
	}
	provided := c.GetHeader(config.APIKeyHeader)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) == 1
}
