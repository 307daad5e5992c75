package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"

	"github.com/gin-gonic/gin"
)

// TrackHandler serves the anonymous tracking flow: submitters check status
// and answer clarifications using only their access code.
type TrackHandler struct {
	feedbackService      services.FeedbackServiceInterface
	clarificationService services.ClarificationServiceInterface
	notificationService  services.NotificationServiceInterface
	webhookRegistry      services.WebhookRegistryInterface
	logger               *observability.Logger
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(
	feedbackService services.FeedbackServiceInterface,
	clarificationService services.ClarificationServiceInterface,
	notificationService services.NotificationServiceInterface,
	webhookRegistry services.WebhookRegistryInterface,
	logger *observability.Logger,
) *TrackHandler {
	return &TrackHandler{
		feedbackService:      feedbackService,
		clarificationService: clarificationService,
		notificationService:  notificationService,
		webhookRegistry:      webhookRegistry,
		logger:               logger,
	}
}

// submitterView is what the anonymous tracking flow returns. Moderation
// state, admin notes, extracted keywords and the AI analysis stay on the
// admin side.
type submitterView struct {
	ID             string                    `json:"id"`
	FeedbackType   models.FeedbackType       `json:"feedbackType"`
	Urgency        models.Urgency            `json:"urgency"`
	Subject        string                    `json:"subject"`
	Description    string                    `json:"description"`
	Status         models.FeedbackStatus     `json:"status"`
	AllowFollowUp  bool                      `json:"allowFollowUp"`
	Rating         *int32                    `json:"rating"`
	CategoryLabel  *string                   `json:"categoryLabel"`
	Responses      []models.QuestionResponse `json:"responses,omitempty"`
	Clarifications []models.Clarification    `json:"clarifications,omitempty"`
	ResolvedAt     *time.Time                `json:"resolvedAt"`
	CreatedAt      time.Time                 `json:"createdAt"`
	UpdatedAt      time.Time                 `json:"updatedAt"`
}

func newSubmitterView(f *models.Feedback) submitterView {
	view := submitterView{
		ID:             f.ID,
		FeedbackType:   f.FeedbackType,
		Urgency:        f.Urgency,
		Subject:        f.Subject,
		Description:    f.Description,
		Status:         f.Status,
		AllowFollowUp:  f.AllowFollowUp,
		Responses:      f.Responses,
		Clarifications: f.Clarifications,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
	if f.Rating.Valid {
		rating := f.Rating.Int32
		view.Rating = &rating
	}
	if f.CategoryLabel.Valid {
		label := f.CategoryLabel.String
		view.CategoryLabel = &label
	}
	if f.ResolvedAt.Valid {
		resolvedAt := f.ResolvedAt.Time
		view.ResolvedAt = &resolvedAt
	}
	return view
}

// TrackFeedback handles GET /api/track?code=XXXX-XXXX-XXXX. The code is
// accepted with or without dashes, in any case.
func (h *TrackHandler) TrackFeedback(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		HandleValidationError(c, "code", "", "access code is required")
		return
	}

	feedback, err := h.feedbackService.GetFeedbackByAccessCodeHash(
		c.Request.Context(), services.HashAccessCode(code))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSubmitterView(feedback))
}

type trackRequest struct {
	AccessCode string `json:"accessCode" binding:"required"`
}

// LookupFeedback handles POST /api/track. Same lookup as the GET form, for
// clients that prefer to keep the code out of the URL.
func (h *TrackHandler) LookupFeedback(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	feedback, err := h.feedbackService.GetFeedbackByAccessCodeHash(
		c.Request.Context(), services.HashAccessCode(req.AccessCode))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSubmitterView(feedback))
}

type respondRequest struct {
	AccessCode      string `json:"accessCode" binding:"required"`
	ClarificationID string `json:"clarificationId" binding:"required"`
	Response        string `json:"response" binding:"required"`
}

// RespondToClarification handles POST /api/track/respond.
func (h *TrackHandler) RespondToClarification(c *gin.Context) {
	ctx := c.Request.Context()

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Response) == "" {
		HandleValidationError(c, "response", req.Response, "response cannot be empty")
		return
	}

	hash := services.HashAccessCode(req.AccessCode)
	clarification, err := h.clarificationService.RespondToClarification(
		ctx, hash, req.ClarificationID, strings.TrimSpace(req.Response))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	feedback, err := h.feedbackService.GetFeedbackByAccessCodeHash(ctx, hash)
	if err == nil {
		notifyCtx := context.WithoutCancel(ctx)
		go h.notificationService.NotifyClarificationResponse(notifyCtx, feedback, clarification)
		go h.webhookRegistry.Trigger(notifyCtx, models.EventClarificationResponse, gin.H{
			"feedbackId":      feedback.ID,
			"clarificationId": clarification.ID,
		})
	} else {
		h.logger.Warn(ctx, "Failed to load feedback for clarification notification", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.JSON(http.StatusOK, clarification)
}
