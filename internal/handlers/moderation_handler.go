package handlers

import (
	"net/http"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"

	"github.com/gin-gonic/gin"
)

// ModerationHandler exposes the admin moderation queue.
type ModerationHandler struct {
	feedbackService services.FeedbackServiceInterface
	logger          *observability.Logger
}

// NewModerationHandler creates a new moderation handler
func NewModerationHandler(feedbackService services.FeedbackServiceInterface, logger *observability.Logger) *ModerationHandler {
	return &ModerationHandler{feedbackService: feedbackService, logger: logger}
}

// GetQueue handles GET /api/moderation/flagged.
func (h *ModerationHandler) GetQueue(c *gin.Context) {
	limit, offset := ParsePagination(c)

	items, total, err := h.feedbackService.GetFlaggedFeedback(c.Request.Context(), limit, offset)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	WritePaginated(c, "feedback", items, total, limit, offset)
}

// GetStats handles GET /api/moderation/stats.
func (h *ModerationHandler) GetStats(c *gin.Context) {
	stats, err := h.feedbackService.GetModerationStats(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type moderationDecisionRequest struct {
	Status models.ModerationStatus `json:"status" binding:"required"`
	Reason string                  `json:"reason"`
}

// Decide handles POST /api/moderation/:id.
func (h *ModerationHandler) Decide(c *gin.Context) {
	id := c.Param("id")

	var req moderationDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if !req.Status.IsValid() {
		HandleValidationError(c, "status", string(req.Status), "invalid moderation status")
		return
	}

	if err := h.feedbackService.UpdateModerationStatus(c.Request.Context(), id, req.Status, req.Reason); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "moderationStatus": req.Status})
}

type bulkModerationRequest struct {
	IDs    []string                `json:"ids" binding:"required"`
	Status models.ModerationStatus `json:"status" binding:"required"`
	Reason string                  `json:"reason"`
}

// DecideBulk handles POST /api/moderation/bulk.
func (h *ModerationHandler) DecideBulk(c *gin.Context) {
	var req bulkModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if len(req.IDs) == 0 {
		HandleValidationError(c, "ids", "", "at least one id is required")
		return
	}
	if !req.Status.IsValid() {
		HandleValidationError(c, "status", string(req.Status), "invalid moderation status")
		return
	}

	result, err := h.feedbackService.BulkUpdateModerationStatus(c.Request.Context(), req.IDs, req.Status, req.Reason)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
