package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler serves the public submission endpoint and the admin triage
// surface.
type FeedbackHandler struct {
	feedbackService      services.FeedbackServiceInterface
	clarificationService services.ClarificationServiceInterface
	settingsService      services.SettingsServiceInterface
	aiService            services.AIServiceInterface
	notificationService  services.NotificationServiceInterface
	webhookRegistry      services.WebhookRegistryInterface
	cfg                  *config.Config
	logger               *observability.Logger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(
	feedbackService services.FeedbackServiceInterface,
	clarificationService services.ClarificationServiceInterface,
	settingsService services.SettingsServiceInterface,
	aiService services.AIServiceInterface,
	notificationService services.NotificationServiceInterface,
	webhookRegistry services.WebhookRegistryInterface,
	cfg *config.Config,
	logger *observability.Logger,
) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService:      feedbackService,
		clarificationService: clarificationService,
		settingsService:      settingsService,
		aiService:            aiService,
		notificationService:  notificationService,
		webhookRegistry:      webhookRegistry,
		cfg:                  cfg,
		logger:               logger,
	}
}

type submitResponseInput struct {
	QuestionID     string  `json:"questionId" binding:"required"`
	ResponseValue  *string `json:"responseValue"`
	ResponseNumber *int32  `json:"responseNumber"`
	ResponseOption *string `json:"responseOption"`
}

type submitFeedbackRequest struct {
	FeedbackType      string                `json:"feedbackType" binding:"required"`
	Urgency           string                `json:"urgency"`
	Subject           string                `json:"subject" binding:"required"`
	Description       string                `json:"description" binding:"required"`
	Impact            *string               `json:"impact"`
	SuggestedSolution *string               `json:"suggestedSolution"`
	CategoryID        *string               `json:"categoryId"`
	AllowFollowUp     *bool                 `json:"allowFollowUp"`
	Rating            *int32                `json:"rating"`
	TagIDs            []string              `json:"tagIds"`
	Responses         []submitResponseInput `json:"responses"`
}

// SubmitFeedback handles POST /api/feedback. The submitter gets back a
// one-time access code; its hash is the only link stored server side.
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	ctx := c.Request.Context()

	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	feedbackType := models.FeedbackType(req.FeedbackType)
	if !feedbackType.IsValid() {
		HandleValidationError(c, "feedbackType", req.FeedbackType, "unknown feedback type")
		return
	}
	urgency := models.UrgencyMedium
	if req.Urgency != "" {
		urgency = models.Urgency(req.Urgency)
		if !urgency.IsValid() {
			HandleValidationError(c, "urgency", req.Urgency, "unknown urgency level")
			return
		}
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		HandleValidationError(c, "rating", *req.Rating, "must be between 1 and 5")
		return
	}
	if len(req.Subject) > 200 {
		HandleValidationError(c, "subject", req.Subject, "must be at most 200 characters")
		return
	}
	if len(req.Description) < 10 || len(req.Description) > 5000 {
		HandleValidationError(c, "description", "", "must be between 10 and 5000 characters")
		return
	}

	accessCode, err := services.GenerateAccessCode()
	if err != nil {
		HandleAppError(c, err)
		return
	}

	moderation := services.ModerateContent(req.Subject + " " + req.Description)
	moderationStatus := models.ModerationApproved
	if !moderation.Passed {
		moderationStatus = models.ModerationFlagged
	}

	feedback := &models.Feedback{
		AccessCodeHash:   services.HashAccessCode(accessCode),
		FeedbackType:     feedbackType,
		Urgency:          urgency,
		Subject:          req.Subject,
		Description:      req.Description,
		AllowFollowUp:    req.AllowFollowUp == nil || *req.AllowFollowUp,
		ModerationStatus: moderationStatus,
		ModerationFlags:  moderation.Flags,
		ModerationScore:  moderation.Score,
		Keywords:         services.ExtractKeywords(req.Subject + " " + req.Description),
	}
	if req.Impact != nil && *req.Impact != "" {
		feedback.Impact = sql.NullString{String: *req.Impact, Valid: true}
	}
	if req.SuggestedSolution != nil && *req.SuggestedSolution != "" {
		feedback.SuggestedSolution = sql.NullString{String: *req.SuggestedSolution, Valid: true}
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		feedback.CategoryID = sql.NullString{String: *req.CategoryID, Valid: true}
	}
	if req.Rating != nil {
		feedback.Rating = sql.NullInt32{Int32: *req.Rating, Valid: true}
	}

	tagIDs := req.TagIDs

	var activeCategories []models.Category
	if categories, listErr := h.settingsService.ListCategories(ctx, false); listErr == nil {
		activeCategories = categories
	}

	// AI analysis is best effort. Failures are logged and the submission
	// proceeds without it.
	if h.aiService.IsEnabled() {
		analysisReq := &services.AnalysisRequest{
			Subject:      req.Subject,
			Description:  req.Description,
			FeedbackType: feedbackType,
			Urgency:      urgency,
		}
		if req.Impact != nil {
			analysisReq.Impact = *req.Impact
		}
		if req.SuggestedSolution != nil {
			analysisReq.SuggestedSolution = *req.SuggestedSolution
		}
		for _, category := range activeCategories {
			analysisReq.Categories = append(analysisReq.Categories, category.Label)
		}
		if activeTags, listErr := h.settingsService.ListTags(ctx, false); listErr == nil {
			for _, tag := range activeTags {
				analysisReq.Tags = append(analysisReq.Tags, tag.Name)
			}
		}

		analysis, aiErr := h.aiService.AnalyzeFeedback(ctx, analysisReq)
		if aiErr != nil {
			h.logger.Warn(ctx, "AI analysis failed, continuing without it", map[string]interface{}{
				"error": aiErr.Error(),
			})
		} else {
			feedback.AIAnalysis = analysis
			if !feedback.CategoryID.Valid && analysis.Category != "" {
				if category, resolveErr := h.settingsService.ResolveCategoryByName(ctx, analysis.Category); resolveErr == nil {
					feedback.CategoryID = sql.NullString{String: category.ID, Valid: true}
				}
			}
			if len(analysis.SuggestedTags) > 0 {
				if suggested, resolveErr := h.settingsService.ResolveTagsByName(ctx, analysis.SuggestedTags); resolveErr == nil {
					tagIDs = mergeIDs(tagIDs, suggested)
				}
			}
		}
	}

	// Without an AI category, fall back to keyword overlap against the
	// configured categories.
	if !feedback.CategoryID.Valid {
		if id := matchCategoryByKeywords(activeCategories, feedback.Keywords); id != "" {
			feedback.CategoryID = sql.NullString{String: id, Valid: true}
		}
	}

	responses := make([]models.QuestionResponse, 0, len(req.Responses))
	for _, r := range req.Responses {
		qr := models.QuestionResponse{QuestionID: r.QuestionID}
		if r.ResponseValue != nil {
			qr.ResponseValue = sql.NullString{String: *r.ResponseValue, Valid: true}
		}
		if r.ResponseNumber != nil {
			qr.ResponseNumber = sql.NullInt32{Int32: *r.ResponseNumber, Valid: true}
		}
		if r.ResponseOption != nil {
			qr.ResponseOption = sql.NullString{String: *r.ResponseOption, Valid: true}
		}
		responses = append(responses, qr)
	}

	if err := h.feedbackService.CreateFeedback(ctx, feedback, tagIDs, responses); err != nil {
		HandleAppError(c, err)
		return
	}

	// Notifications and webhooks must not delay the response.
	notifyCtx := context.WithoutCancel(ctx)
	go h.notificationService.NotifyFeedbackSubmitted(notifyCtx, feedback)
	go h.webhookRegistry.Trigger(notifyCtx, models.EventNewFeedback, gin.H{
		"id":           feedback.ID,
		"feedbackType": string(feedback.FeedbackType),
		"urgency":      string(feedback.Urgency),
		"subject":      feedback.Subject,
	})

	c.JSON(http.StatusCreated, gin.H{
		"id":          feedback.ID,
		"accessCode":  accessCode,
		"trackingUrl": h.trackingURL(accessCode),
	})
}

// trackingURL builds the submitter-facing status link.
func (h *FeedbackHandler) trackingURL(accessCode string) string {
	base := strings.TrimSuffix(h.cfg.Server.AppBaseURL, "/")
	return fmt.Sprintf("%s/track/%s", base, accessCode)
}

// matchCategoryByKeywords picks the category whose name or label words
// overlap the extracted keywords the most. Empty string when nothing matches.
func matchCategoryByKeywords(categories []models.Category, keywords []string) string {
	keywordSet := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		keywordSet[kw] = true
	}

	bestID := ""
	bestOverlap := 0
	for _, category := range categories {
		overlap := 0
		words := strings.Fields(strings.ToLower(category.Label))
		words = append(words, strings.Split(category.Name, "-")...)
		seen := make(map[string]bool, len(words))
		for _, word := range words {
			if !seen[word] && keywordSet[word] {
				seen[word] = true
				overlap++
			}
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
			bestID = category.ID
		}
	}
	return bestID
}

// mergeIDs appends ids from extra not already present in base.
func mergeIDs(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, id := range base {
		seen[id] = true
	}
	for _, id := range extra {
		if !seen[id] {
			seen[id] = true
			base = append(base, id)
		}
	}
	return base
}

// ListFeedback handles GET /api/feedback. With ?type=analytics it returns the
// dashboard document instead of a listing.
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Query("type") == "analytics" {
		analytics, err := h.feedbackService.GetAnalytics(ctx)
		if err != nil {
			HandleAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, analytics)
		return
	}

	limit, offset := ParsePagination(c)
	raw := ParseFilters(c, "status", "moderationStatus", "feedbackType", "urgency", "categoryId", "search")
	filters := services.ListFeedbackFilters{
		Status:           models.FeedbackStatus(raw["status"]),
		ModerationStatus: models.ModerationStatus(raw["moderationStatus"]),
		FeedbackType:     models.FeedbackType(raw["feedbackType"]),
		Urgency:          models.Urgency(raw["urgency"]),
		CategoryID:       raw["categoryId"],
		Search:           raw["search"],
		Limit:            limit,
		Offset:           offset,
	}
	if filters.Status != "" && !filters.Status.IsValid() {
		HandleValidationError(c, "status", raw["status"], "unknown status")
		return
	}
	if filters.ModerationStatus != "" && !filters.ModerationStatus.IsValid() {
		HandleValidationError(c, "moderationStatus", raw["moderationStatus"], "unknown moderation status")
		return
	}
	if filters.FeedbackType != "" && !filters.FeedbackType.IsValid() {
		HandleValidationError(c, "feedbackType", raw["feedbackType"], "unknown feedback type")
		return
	}
	if filters.Urgency != "" && !filters.Urgency.IsValid() {
		HandleValidationError(c, "urgency", raw["urgency"], "unknown urgency level")
		return
	}

	items, total, err := h.feedbackService.ListFeedback(ctx, filters)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	WritePaginated(c, "feedback", items, total, limit, offset)
}

// GetFeedback handles GET /api/feedback/:id.
func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	feedback, err := h.feedbackService.GetFeedbackByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

type patchFeedbackRequest struct {
	Action     string  `json:"action"`
	Status     *string `json:"status"`
	Urgency    *string `json:"urgency"`
	CategoryID *string `json:"categoryId"`
	AdminNote  *string `json:"adminNote"`
	Question   *string `json:"question"`
}

// PatchFeedback handles PATCH /api/feedback/:id. The action field selects
// between triage updates and requesting a clarification.
func (h *FeedbackHandler) PatchFeedback(c *gin.Context) {
	var req patchFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	// An absent action means a plain field update.
	switch req.Action {
	case "", "update_status":
		h.updateFeedback(c, &req)
	case "request_clarification":
		h.requestClarification(c, &req)
	default:
		HandleValidationError(c, "action", req.Action, "must be update_status or request_clarification")
	}
}

func (h *FeedbackHandler) updateFeedback(c *gin.Context, req *patchFeedbackRequest) {
	ctx := c.Request.Context()
	id := c.Param("id")

	input := services.UpdateFeedbackInput{CategoryID: req.CategoryID}
	if req.Status != nil {
		status := models.FeedbackStatus(*req.Status)
		input.Status = &status
	}
	if req.Urgency != nil {
		urgency := models.Urgency(*req.Urgency)
		input.Urgency = &urgency
	}

	if input.Status == nil && input.Urgency == nil && input.CategoryID == nil {
		if req.AdminNote == nil || *req.AdminNote == "" {
			HandleValidationError(c, "action", req.Action, "no fields to update")
			return
		}
		if err := h.feedbackService.AddAdminNote(ctx, id, *req.AdminNote); err != nil {
			HandleAppError(c, err)
			return
		}
		feedback, err := h.feedbackService.GetFeedbackByID(ctx, id)
		if err != nil {
			HandleAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, feedback)
		return
	}

	feedback, err := h.feedbackService.UpdateFeedback(ctx, id, input)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if req.AdminNote != nil && *req.AdminNote != "" {
		if err := h.feedbackService.AddAdminNote(ctx, id, *req.AdminNote); err != nil {
			HandleAppError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, feedback)
}

func (h *FeedbackHandler) requestClarification(c *gin.Context, req *patchFeedbackRequest) {
	if req.Question == nil || strings.TrimSpace(*req.Question) == "" {
		HandleValidationError(c, "question", "", "question is required for request_clarification")
		return
	}

	clarification, err := h.clarificationService.CreateClarification(
		c.Request.Context(), c.Param("id"), strings.TrimSpace(*req.Question))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clarification)
}
