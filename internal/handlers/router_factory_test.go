package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter_NoCORSOriginsConfigured(t *testing.T) {
	env := newRouterEnv()
	env.cfg.Server.CORSOrigins = nil

	var router http.Handler
	require.NotPanics(t, func() { router = env.buildRouter() })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewRouter_CORSAllowsConfiguredOrigin(t *testing.T) {
	env := newRouterEnv()
	router := env.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/feedback", nil)
	req.Header.Set("Origin", "https://feedback.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://feedback.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
