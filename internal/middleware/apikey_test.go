package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"feedbackportal/internal/config"
	"feedbackportal/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupKeyedRouter(adminKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Server.AdminAPIKey = adminKey
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	router := gin.New()
	router.GET("/admin", RequireAdminKey(cfg, logger), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRequireAdminKey_RejectsMissingAndWrongKey(t *testing.T) {
	router := setupKeyedRouter("topsecret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(config.APIKeyHeader, "wrong")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdminKey_AcceptsCorrectKey(t *testing.T) {
	router := setupKeyedRouter("topsecret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(config.APIKeyHeader, "topsecret")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdminKey_OpenWhenUnconfigured(t *testing.T) {
	router := setupKeyedRouter("")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
