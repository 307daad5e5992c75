// Package di provides a dependency injection container for managing service
// lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"feedbackportal/internal/config"
	"feedbackportal/internal/database"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	contextutils "feedbackportal/internal/utils"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetFeedbackService() (services.FeedbackServiceInterface, error)
	GetClarificationService() (services.ClarificationServiceInterface, error)
	GetSettingsService() (services.SettingsServiceInterface, error)
	GetAIService() (services.AIServiceInterface, error)
	GetNotificationService() (services.NotificationServiceInterface, error)
	GetWebhookRegistry() (services.WebhookRegistryInterface, error)
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Initialize database
	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDBWithConfig(sc.cfg.Database)
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	sc.initializeServices(ctx)
	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetFeedbackService returns the feedback service
func (sc *ServiceContainer) GetFeedbackService() (services.FeedbackServiceInterface, error) {
	return GetServiceAs[services.FeedbackServiceInterface](sc, "feedback")
}

// GetClarificationService returns the clarification service
func (sc *ServiceContainer) GetClarificationService() (services.ClarificationServiceInterface, error) {
	return GetServiceAs[services.ClarificationServiceInterface](sc, "clarification")
}

// GetSettingsService returns the settings service
func (sc *ServiceContainer) GetSettingsService() (services.SettingsServiceInterface, error) {
	return GetServiceAs[services.SettingsServiceInterface](sc, "settings")
}

// GetAIService returns the AI service
func (sc *ServiceContainer) GetAIService() (services.AIServiceInterface, error) {
	return GetServiceAs[services.AIServiceInterface](sc, "ai")
}

// GetNotificationService returns the notification service
func (sc *ServiceContainer) GetNotificationService() (services.NotificationServiceInterface, error) {
	return GetServiceAs[services.NotificationServiceInterface](sc, "notification")
}

// GetWebhookRegistry returns the webhook registry
func (sc *ServiceContainer) GetWebhookRegistry() (services.WebhookRegistryInterface, error) {
	return GetServiceAs[services.WebhookRegistryInterface](sc, "webhook_registry")
}

// GetDatabase returns the database instance
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var errs []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errs)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(_ context.Context) {
	feedbackService := services.NewFeedbackService(sc.db, sc.logger)
	sc.services["feedback"] = feedbackService

	clarificationService := services.NewClarificationService(sc.db, sc.logger)
	sc.services["clarification"] = clarificationService

	settingsService := services.NewSettingsService(sc.db, sc.logger)
	sc.services["settings"] = settingsService

	aiService := services.NewAIService(&sc.cfg.AI, sc.logger)
	sc.services["ai"] = aiService

	// Notifications read their channel config through the settings service
	notificationService := services.NewNotificationService(settingsService, &sc.cfg.Email, sc.cfg.Server.AppBaseURL, sc.logger)
	sc.services["notification"] = notificationService

	webhookRegistry := services.NewWebhookRegistry(sc.logger)
	sc.services["webhook_registry"] = webhookRegistry
}
