package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"feedbackportal/internal/config"
	"feedbackportal/internal/middleware"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	"feedbackportal/internal/version"
)

// NewRouter creates a new router with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	feedbackService services.FeedbackServiceInterface,
	clarificationService services.ClarificationServiceInterface,
	settingsService services.SettingsServiceInterface,
	aiService services.AIServiceInterface,
	notificationService services.NotificationServiceInterface,
	webhookRegistry services.WebhookRegistryInterface,
	logger *observability.Logger,
) *gin.Engine {
	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())

	// Add HTTP request logging middleware using our observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Set(requestLoggerKey, logger)

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}

		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		// Use appropriate log level based on status code
		if statusCode >= 500 {
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		} else if statusCode >= 400 {
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		} else {
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "feedback-backend"})
	})

	// Add OpenTelemetry middleware for HTTP tracing and context propagation
	router.Use(observability.GinMiddlewareWithErrorHandling("feedback-backend"))

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	// Setup CORS middleware
	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowCredentials = true
	} else {
		// cors.New rejects a config with neither origins nor AllowAllOrigins,
		// and credentials cannot be combined with a wildcard origin.
		corsConfig.AllowAllOrigins = true
		logger.Warn(context.Background(), "no CORS origins configured, allowing all origins")
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", config.APIKeyHeader, "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Setup Gin mode
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	// Security middleware
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	// Initialize handlers
	feedbackHandler := NewFeedbackHandler(feedbackService, clarificationService, settingsService,
		aiService, notificationService, webhookRegistry, cfg, logger)
	trackHandler := NewTrackHandler(feedbackService, clarificationService, notificationService, webhookRegistry, logger)
	moderationHandler := NewModerationHandler(feedbackService, logger)
	settingsHandler := NewSettingsHandler(settingsService, notificationService, cfg, logger)
	webhookHandler := NewWebhookHandler(webhookRegistry, logger)

	adminKey := middleware.RequireAdminKey(cfg, logger)

	api := router.Group("/api")
	{
		api.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "feedback-backend",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		// Public intake and tracking surface (no auth, submitters are anonymous)
		api.POST("/feedback", feedbackHandler.SubmitFeedback)
		api.GET("/track", trackHandler.TrackFeedback)
		api.POST("/track", trackHandler.LookupFeedback)
		api.POST("/track/respond", trackHandler.RespondToClarification)

		// Admin triage surface, gated by the API key header
		api.GET("/feedback", adminKey, feedbackHandler.ListFeedback)
		api.GET("/feedback/:id", adminKey, feedbackHandler.GetFeedback)
		api.PATCH("/feedback/:id", adminKey, feedbackHandler.PatchFeedback)

		moderation := api.Group("/moderation")
		moderation.Use(adminKey)
		{
			moderation.GET("/flagged", moderationHandler.GetQueue)
			moderation.GET("/stats", moderationHandler.GetStats)
			moderation.POST("/bulk", moderationHandler.DecideBulk)
			moderation.POST("/:id", moderationHandler.Decide)
		}

		// Portal configuration. Reads are public (active entities only unless
		// the admin key is present); writes need the key.
		settings := api.Group("/settings")
		{
			settings.GET("/categories", settingsHandler.ListCategories)
			settings.POST("/categories", adminKey, settingsHandler.CreateCategory)
			settings.PATCH("/categories/:id", adminKey, settingsHandler.UpdateCategory)
			settings.DELETE("/categories/:id", adminKey, settingsHandler.DeleteCategory)

			settings.GET("/tags", settingsHandler.ListTags)
			settings.POST("/tags", adminKey, settingsHandler.CreateTag)
			settings.PATCH("/tags/:id", adminKey, settingsHandler.UpdateTag)
			settings.DELETE("/tags/:id", adminKey, settingsHandler.DeleteTag)

			settings.GET("/questions", settingsHandler.ListQuestions)
			settings.POST("/questions", adminKey, settingsHandler.CreateQuestion)
			settings.PATCH("/questions/:id", adminKey, settingsHandler.UpdateQuestion)
			settings.DELETE("/questions/:id", adminKey, settingsHandler.DeleteQuestion)

			settings.GET("/branding", settingsHandler.GetBranding)
			settings.PUT("/branding", adminKey, settingsHandler.UpdateBranding)

			settings.GET("/notifications", adminKey, settingsHandler.ListNotificationSettings)
			settings.PUT("/notifications", adminKey, settingsHandler.UpsertNotificationSetting)
			settings.POST("/notifications/test-telegram", adminKey, settingsHandler.TestTelegram)
		}

		webhooks := api.Group("/webhooks")
		webhooks.Use(adminKey)
		{
			webhooks.GET("", webhookHandler.List)
			webhooks.POST("", webhookHandler.Register)
			webhooks.DELETE("/:id", webhookHandler.Unregister)
		}
	}

	return router
}
