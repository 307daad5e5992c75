package handlers

import (
	"net/http"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"

	"github.com/gin-gonic/gin"
)

// WebhookHandler manages admin-registered outbound webhook subscriptions.
type WebhookHandler struct {
	registry services.WebhookRegistryInterface
	logger   *observability.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(registry services.WebhookRegistryInterface, logger *observability.Logger) *WebhookHandler {
	return &WebhookHandler{registry: registry, logger: logger}
}

type registerWebhookRequest struct {
	URL    string                     `json:"url" binding:"required"`
	Secret string                     `json:"secret"`
	Events []models.NotificationEvent `json:"events"`
}

// Register handles POST /api/webhooks.
func (h *WebhookHandler) Register(c *gin.Context) {
	var req registerWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	for _, event := range req.Events {
		if !event.IsValid() {
			HandleValidationError(c, "events", string(event), "unknown event type")
			return
		}
	}

	hook, err := h.registry.Register(c.Request.Context(), req.URL, req.Secret, req.Events)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hook)
}

// List handles GET /api/webhooks. Secrets are never echoed back.
func (h *WebhookHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"webhooks": h.registry.List(c.Request.Context())})
}

// Unregister handles DELETE /api/webhooks/:id.
func (h *WebhookHandler) Unregister(c *gin.Context) {
	if err := h.registry.Unregister(c.Request.Context(), c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "removed": true})
}
