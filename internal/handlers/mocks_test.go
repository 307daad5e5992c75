package handlers

import (
	"context"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// MockFeedbackService for testing
type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) CreateFeedback(ctx context.Context, feedback *models.Feedback, tagIDs []string, responses []models.QuestionResponse) error {
	args := m.Called(ctx, feedback, tagIDs, responses)
	return args.Error(0)
}

func (m *MockFeedbackService) GetFeedbackByID(ctx context.Context, id string) (result0 *models.Feedback, err error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) GetFeedbackByAccessCodeHash(ctx context.Context, hash string) (result0 *models.Feedback, err error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) ListFeedback(ctx context.Context, filters services.ListFeedbackFilters) (result0 []models.Feedback, result1 int, err error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.Feedback), args.Int(1), args.Error(2)
}

func (m *MockFeedbackService) UpdateFeedback(ctx context.Context, id string, input services.UpdateFeedbackInput) (result0 *models.Feedback, err error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) AddAdminNote(ctx context.Context, id, note string) error {
	args := m.Called(ctx, id, note)
	return args.Error(0)
}

func (m *MockFeedbackService) UpdateModerationStatus(ctx context.Context, id string, status models.ModerationStatus, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

func (m *MockFeedbackService) BulkUpdateModerationStatus(ctx context.Context, ids []string, status models.ModerationStatus, reason string) (result0 *models.BulkResult, err error) {
	args := m.Called(ctx, ids, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkResult), args.Error(1)
}

func (m *MockFeedbackService) GetFlaggedFeedback(ctx context.Context, limit, offset int) (result0 []models.Feedback, result1 int, err error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.Feedback), args.Int(1), args.Error(2)
}

func (m *MockFeedbackService) GetModerationStats(ctx context.Context) (result0 *models.ModerationStats, err error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ModerationStats), args.Error(1)
}

func (m *MockFeedbackService) GetAnalytics(ctx context.Context) (result0 *models.Analytics, err error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analytics), args.Error(1)
}

// MockClarificationService for testing
type MockClarificationService struct {
	mock.Mock
}

func (m *MockClarificationService) CreateClarification(ctx context.Context, feedbackID, question string) (result0 *models.Clarification, err error) {
	args := m.Called(ctx, feedbackID, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clarification), args.Error(1)
}

func (m *MockClarificationService) RespondToClarification(ctx context.Context, accessCodeHash, clarificationID, response string) (result0 *models.Clarification, err error) {
	args := m.Called(ctx, accessCodeHash, clarificationID, response)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clarification), args.Error(1)
}

func (m *MockClarificationService) GetClarificationsByFeedbackID(ctx context.Context, feedbackID string) (result0 []models.Clarification, err error) {
	args := m.Called(ctx, feedbackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Clarification), args.Error(1)
}

// MockSettingsService for testing
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) ListCategories(ctx context.Context, includeInactive bool) (result0 []models.Category, err error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockSettingsService) CreateCategory(ctx context.Context, input services.CategoryInput) (result0 *models.Category, err error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockSettingsService) UpdateCategory(ctx context.Context, id string, input services.CategoryInput) (result0 *models.Category, err error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockSettingsService) DeleteCategory(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSettingsService) ResolveCategoryByName(ctx context.Context, name string) (result0 *models.Category, err error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockSettingsService) ListTags(ctx context.Context, includeInactive bool) (result0 []models.Tag, err error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockSettingsService) CreateTag(ctx context.Context, input services.TagInput) (result0 *models.Tag, err error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockSettingsService) UpdateTag(ctx context.Context, id string, input services.TagInput) (result0 *models.Tag, err error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockSettingsService) DeleteTag(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSettingsService) ResolveTagsByName(ctx context.Context, names []string) (result0 []string, err error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSettingsService) ListQuestions(ctx context.Context, includeInactive bool) (result0 []models.Question, err error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Question), args.Error(1)
}

func (m *MockSettingsService) CreateQuestion(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockSettingsService) UpdateQuestion(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockSettingsService) DeleteQuestion(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSettingsService) GetBranding(ctx context.Context) (result0 *models.BrandingSettings, err error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BrandingSettings), args.Error(1)
}

func (m *MockSettingsService) UpdateBranding(ctx context.Context, branding *models.BrandingSettings) error {
	args := m.Called(ctx, branding)
	return args.Error(0)
}

func (m *MockSettingsService) ListNotificationSettings(ctx context.Context) (result0 []models.NotificationSetting, err error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NotificationSetting), args.Error(1)
}

func (m *MockSettingsService) UpsertNotificationSetting(ctx context.Context, setting *models.NotificationSetting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

// MockAIService for testing
type MockAIService struct {
	mock.Mock
}

func (m *MockAIService) AnalyzeFeedback(ctx context.Context, req *services.AnalysisRequest) (result0 *models.FeedbackAnalysis, err error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedbackAnalysis), args.Error(1)
}

func (m *MockAIService) IsEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockNotificationService for testing
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) NotifyFeedbackSubmitted(ctx context.Context, feedback *models.Feedback) {
	m.Called(ctx, feedback)
}

func (m *MockNotificationService) NotifyClarificationResponse(ctx context.Context, feedback *models.Feedback, clarification *models.Clarification) {
	m.Called(ctx, feedback, clarification)
}

func (m *MockNotificationService) TestTelegram(ctx context.Context, botToken, chatID string) error {
	args := m.Called(ctx, botToken, chatID)
	return args.Error(0)
}

// MockWebhookRegistry for testing
type MockWebhookRegistry struct {
	mock.Mock
}

func (m *MockWebhookRegistry) Register(ctx context.Context, rawURL, secret string, events []models.NotificationEvent) (result0 *services.RegisteredWebhook, err error) {
	args := m.Called(ctx, rawURL, secret, events)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RegisteredWebhook), args.Error(1)
}

func (m *MockWebhookRegistry) Unregister(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWebhookRegistry) List(ctx context.Context) []services.RegisteredWebhook {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]services.RegisteredWebhook)
}

func (m *MockWebhookRegistry) Trigger(ctx context.Context, event models.NotificationEvent, payload interface{}) {
	m.Called(ctx, event, payload)
}

// routerEnv bundles the mocks behind a fully wired router.
type routerEnv struct {
	feedback      *MockFeedbackService
	clarification *MockClarificationService
	settings      *MockSettingsService
	ai            *MockAIService
	notifications *MockNotificationService
	webhooks      *MockWebhookRegistry
	cfg           *config.Config
}

const testAdminKey = "test-admin-key"

func newRouterEnv() *routerEnv {
	return &routerEnv{
		feedback:      &MockFeedbackService{},
		clarification: &MockClarificationService{},
		settings:      &MockSettingsService{},
		ai:            &MockAIService{},
		notifications: &MockNotificationService{},
		webhooks:      &MockWebhookRegistry{},
		cfg: &config.Config{
			Server: config.ServerConfig{
				AppBaseURL:  "https://feedback.example.com",
				AdminAPIKey: testAdminKey,
				CORSOrigins: []string{"https://feedback.example.com"},
			},
		},
	}
}

func (e *routerEnv) buildRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewRouter(e.cfg, e.feedback, e.clarification, e.settings, e.ai, e.notifications, e.webhooks, logger)
}
