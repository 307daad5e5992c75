package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"feedbackportal/internal/config"
	"feedbackportal/internal/middleware"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"

	"github.com/gin-gonic/gin"
)

// SettingsHandler serves portal configuration: categories, tags, intake
// questions, branding and notification channels. Reads are public but only
// expose active entities; requests carrying the admin key see everything
// and can write.
type SettingsHandler struct {
	settingsService     services.SettingsServiceInterface
	notificationService services.NotificationServiceInterface
	cfg                 *config.Config
	logger              *observability.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(
	settingsService services.SettingsServiceInterface,
	notificationService services.NotificationServiceInterface,
	cfg *config.Config,
	logger *observability.Logger,
) *SettingsHandler {
	return &SettingsHandler{
		settingsService:     settingsService,
		notificationService: notificationService,
		cfg:                 cfg,
		logger:              logger,
	}
}

// includeInactive honors ?includeInactive=true, but only for requests that
// carry the admin key. The public surface never sees inactive entities.
func (h *SettingsHandler) includeInactive(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("includeInactive"))
	return v && middleware.AdminKeyValid(c, h.cfg)
}

// ListCategories handles GET /api/settings/categories.
func (h *SettingsHandler) ListCategories(c *gin.Context) {
	categories, err := h.settingsService.ListCategories(c.Request.Context(), h.includeInactive(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type categoryRequest struct {
	Label       *string `json:"label"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	IsActive    *bool   `json:"isActive"`
	SortOrder   *int    `json:"sortOrder"`
}

func (r *categoryRequest) toInput() services.CategoryInput {
	return services.CategoryInput{
		Label:       r.Label,
		Description: r.Description,
		Color:       r.Color,
		Icon:        r.Icon,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
	}
}

// CreateCategory handles POST /api/settings/categories.
func (h *SettingsHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	category, err := h.settingsService.CreateCategory(c.Request.Context(), req.toInput())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles PATCH /api/settings/categories/:id.
func (h *SettingsHandler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	category, err := h.settingsService.UpdateCategory(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/settings/categories/:id. Categories
// are deactivated, not removed, so existing feedback keeps its label.
func (h *SettingsHandler) DeleteCategory(c *gin.Context) {
	if err := h.settingsService.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "deactivated": true})
}

// ListTags handles GET /api/settings/tags.
func (h *SettingsHandler) ListTags(c *gin.Context) {
	tags, err := h.settingsService.ListTags(c.Request.Context(), h.includeInactive(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

type tagRequest struct {
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	IsActive  *bool   `json:"isActive"`
	SortOrder *int    `json:"sortOrder"`
}

func (r *tagRequest) toInput() services.TagInput {
	return services.TagInput{Name: r.Name, Color: r.Color, IsActive: r.IsActive, SortOrder: r.SortOrder}
}

// CreateTag handles POST /api/settings/tags.
func (h *SettingsHandler) CreateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	tag, err := h.settingsService.CreateTag(c.Request.Context(), req.toInput())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// UpdateTag handles PATCH /api/settings/tags/:id.
func (h *SettingsHandler) UpdateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	tag, err := h.settingsService.UpdateTag(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// DeleteTag handles DELETE /api/settings/tags/:id.
func (h *SettingsHandler) DeleteTag(c *gin.Context) {
	if err := h.settingsService.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "deactivated": true})
}

// ListQuestions handles GET /api/settings/questions.
func (h *SettingsHandler) ListQuestions(c *gin.Context) {
	questions, err := h.settingsService.ListQuestions(c.Request.Context(), h.includeInactive(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

type questionRequest struct {
	QuestionType models.QuestionType `json:"questionType" binding:"required"`
	QuestionText string              `json:"questionText" binding:"required"`
	Description  *string             `json:"description"`
	Options      json.RawMessage     `json:"options"`
	IsRequired   bool                `json:"isRequired"`
	IsActive     *bool               `json:"isActive"`
	SortOrder    int                 `json:"sortOrder"`
	MinValue     *int32              `json:"minValue"`
	MaxValue     *int32              `json:"maxValue"`
}

func (r *questionRequest) toModel() *models.Question {
	q := &models.Question{
		QuestionType: r.QuestionType,
		QuestionText: r.QuestionText,
		Options:      r.Options,
		IsRequired:   r.IsRequired,
		IsActive:     true,
		SortOrder:    r.SortOrder,
	}
	if r.Description != nil {
		q.Description = sql.NullString{String: *r.Description, Valid: true}
	}
	if r.IsActive != nil {
		q.IsActive = *r.IsActive
	}
	if r.MinValue != nil {
		q.MinValue = sql.NullInt32{Int32: *r.MinValue, Valid: true}
	}
	if r.MaxValue != nil {
		q.MaxValue = sql.NullInt32{Int32: *r.MaxValue, Valid: true}
	}
	return q
}

// CreateQuestion handles POST /api/settings/questions.
func (h *SettingsHandler) CreateQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	question := req.toModel()
	if err := h.settingsService.CreateQuestion(c.Request.Context(), question); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion handles PATCH /api/settings/questions/:id.
func (h *SettingsHandler) UpdateQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	question := req.toModel()
	question.ID = c.Param("id")
	if err := h.settingsService.UpdateQuestion(c.Request.Context(), question); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion handles DELETE /api/settings/questions/:id.
func (h *SettingsHandler) DeleteQuestion(c *gin.Context) {
	if err := h.settingsService.DeleteQuestion(c.Request.Context(), c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "deactivated": true})
}

// GetBranding handles GET /api/settings/branding. Publicly readable so the
// intake form can render the configured look.
func (h *SettingsHandler) GetBranding(c *gin.Context) {
	branding, err := h.settingsService.GetBranding(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, branding)
}

type brandingRequest struct {
	SiteName       string  `json:"siteName" binding:"required"`
	SiteSubtitle   *string `json:"siteSubtitle"`
	PrimaryColor   string  `json:"primaryColor"`
	SecondaryColor string  `json:"secondaryColor"`
	LogoURL        *string `json:"logoUrl"`
	TrustBadge1    *string `json:"trustBadge1"`
	TrustBadge2    *string `json:"trustBadge2"`
	TrustBadge3    *string `json:"trustBadge3"`
	CustomCSS      *string `json:"customCss"`
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// UpdateBranding handles PUT /api/settings/branding.
func (h *SettingsHandler) UpdateBranding(c *gin.Context) {
	var req brandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	branding := &models.BrandingSettings{
		SiteName:       req.SiteName,
		SiteSubtitle:   nullString(req.SiteSubtitle),
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
		LogoURL:        nullString(req.LogoURL),
		TrustBadge1:    nullString(req.TrustBadge1),
		TrustBadge2:    nullString(req.TrustBadge2),
		TrustBadge3:    nullString(req.TrustBadge3),
		CustomCSS:      nullString(req.CustomCSS),
	}
	if err := h.settingsService.UpdateBranding(c.Request.Context(), branding); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, branding)
}

// ListNotificationSettings handles GET /api/settings/notifications.
func (h *SettingsHandler) ListNotificationSettings(c *gin.Context) {
	settings, err := h.settingsService.ListNotificationSettings(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": settings})
}

type notificationSettingRequest struct {
	NotificationType              models.NotificationType `json:"notificationType" binding:"required"`
	IsEnabled                     bool                    `json:"isEnabled"`
	Config                        json.RawMessage         `json:"config"`
	NotifyOnNewFeedback           bool                    `json:"notifyOnNewFeedback"`
	NotifyOnUrgentFeedback        bool                    `json:"notifyOnUrgentFeedback"`
	NotifyOnClarificationResponse bool                    `json:"notifyOnClarificationResponse"`
}

// UpsertNotificationSetting handles PUT /api/settings/notifications.
func (h *SettingsHandler) UpsertNotificationSetting(c *gin.Context) {
	var req notificationSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	setting := &models.NotificationSetting{
		NotificationType:              req.NotificationType,
		IsEnabled:                     req.IsEnabled,
		Config:                        req.Config,
		NotifyOnNewFeedback:           req.NotifyOnNewFeedback,
		NotifyOnUrgentFeedback:        req.NotifyOnUrgentFeedback,
		NotifyOnClarificationResponse: req.NotifyOnClarificationResponse,
	}
	if err := h.settingsService.UpsertNotificationSetting(c.Request.Context(), setting); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

type telegramTestRequest struct {
	BotToken string `json:"botToken" binding:"required"`
	ChatID   string `json:"chatId" binding:"required"`
}

// TestTelegram handles POST /api/settings/notifications/test-telegram.
func (h *SettingsHandler) TestTelegram(c *gin.Context) {
	var req telegramTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		StandardizeHTTPError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := h.notificationService.TestTelegram(c.Request.Context(), req.BotToken, req.ChatID); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Test message sent"})
}
