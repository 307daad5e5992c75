package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettingsService(t *testing.T) (*SettingsService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	svc := NewSettingsService(db, logger)
	cleanup := func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	}
	return svc, mock, cleanup
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Workplace Environment", "workplace-environment"},
		{"  Product & Services  ", "product-services"},
		{"UPPER", "upper"},
		{"---", ""},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, slugify(tc.input), "slugify(%q)", tc.input)
	}
}

func TestCreateCategory_AppliesDefaultsAndSlug(t *testing.T) {
	svc, mock, cleanup := newTestSettingsService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO categories")).
		WithArgs("workplace-environment", "Workplace Environment", sql.NullString{}, defaultCategoryColor, defaultCategoryIcon).
		WillReturnRows(mock.NewRows([]string{"id", "name", "label", "description", "color", "icon", "is_active", "sort_order", "created_at", "updated_at"}).
			AddRow("cat-1", "workplace-environment", "Workplace Environment", nil, defaultCategoryColor, defaultCategoryIcon, true, 6, now, now))

	label := "Workplace Environment"
	category, err := svc.CreateCategory(context.Background(), CategoryInput{Label: &label})
	require.NoError(t, err)
	assert.Equal(t, "workplace-environment", category.Name)
	assert.Equal(t, defaultCategoryColor, category.Color)
	assert.Equal(t, 6, category.SortOrder)
}

func TestCreateCategory_RequiresLabel(t *testing.T) {
	svc, _, cleanup := newTestSettingsService(t)
	defer cleanup()

	_, err := svc.CreateCategory(context.Background(), CategoryInput{})
	assert.True(t, contextutils.IsError(err, contextutils.ErrMissingRequired))

	empty := "   "
	_, err = svc.CreateCategory(context.Background(), CategoryInput{Label: &empty})
	assert.True(t, contextutils.IsError(err, contextutils.ErrMissingRequired))
}

func TestUpdateCategory_PartialUpdate(t *testing.T) {
	svc, mock, cleanup := newTestSettingsService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE categories SET color = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs("#ff0000", "cat-1").
		WillReturnRows(mock.NewRows([]string{"id", "name", "label", "description", "color", "icon", "is_active", "sort_order", "created_at", "updated_at"}).
			AddRow("cat-1", "product", "Product", nil, "#ff0000", "folder", true, 1, now, now))

	color := "#ff0000"
	category, err := svc.UpdateCategory(context.Background(), "cat-1", CategoryInput{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", category.Color)
}

func TestDeleteCategory_SoftDeactivates(t *testing.T) {
	svc, mock, cleanup := newTestSettingsService(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE categories SET is_active = FALSE")).
		WithArgs("cat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.DeleteCategory(context.Background(), "cat-1"))
}

func TestDeleteCategory_NotFound(t *testing.T) {
	svc, mock, cleanup := newTestSettingsService(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE categories SET is_active = FALSE")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.DeleteCategory(context.Background(), "missing")
	assert.True(t, contextutils.IsError(err, contextutils.ErrRecordNotFound))
}

func TestResolveTagsByName_SkipsUnknownAndDuplicates(t *testing.T) {
	svc, mock, cleanup := newTestSettingsService(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM tags WHERE is_active = TRUE AND name = $1")).
		WithArgs("performance").
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("tag-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM tags WHERE is_active = TRUE AND name = $1")).
		WithArgs("nonexistent").
		WillReturnError(sql.ErrNoRows)

	ids, err := svc.ResolveTagsByName(context.Background(), []string{"Performance", "performance", "nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-1"}, ids)
}

func TestCreateQuestion_RejectsInvalidType(t *testing.T) {
	svc, _, cleanup := newTestSettingsService(t)
	defer cleanup()

	err := svc.CreateQuestion(context.Background(), &models.Question{
		QuestionType: models.QuestionType("essay"),
		QuestionText: "How often?",
	})
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestCreateQuestion_Success(t *testing.T) {
	svc, mock, cleanup := newTestSettingsService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO questions")).
		WillReturnRows(mock.NewRows([]string{"id", "is_active", "sort_order", "created_at", "updated_at"}).
			AddRow("q-1", true, 1, now, now))

	question := &models.Question{
		QuestionType: models.QuestionTypeRating,
		QuestionText: "How severe is the impact?",
		MinValue:     sql.NullInt32{Int32: 1, Valid: true},
		MaxValue:     sql.NullInt32{Int32: 5, Valid: true},
	}
	require.NoError(t, svc.CreateQuestion(context.Background(), question))
	assert.Equal(t, "q-1", question.ID)
	assert.Equal(t, 1, question.SortOrder)
}

func TestGetBranding_CreatesDefaultsWhenMissing(t *testing.T) {
	svc, mock, cleanup := newTestSettingsService(t)
	defer cleanup()

	brandingCols := []string{"id", "site_name", "site_subtitle", "primary_color", "secondary_color",
		"logo_url", "trust_badge_1", "trust_badge_2", "trust_badge_3", "custom_css", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM branding_settings ORDER BY updated_at DESC LIMIT 1")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO branding_settings DEFAULT VALUES")).
		WillReturnRows(mock.NewRows(brandingCols).
			AddRow("br-1", "Anonymous Feedback Portal", nil, "#3b82f6", "#6b7280", nil, nil, nil, nil, nil, time.Now()))

	branding, err := svc.GetBranding(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Anonymous Feedback Portal", branding.SiteName)
	assert.Equal(t, "#3b82f6", branding.PrimaryColor)
}

func TestUpsertNotificationSetting_ByChannelType(t *testing.T) {
	svc, mock, cleanup := newTestSettingsService(t)
	defer cleanup()

	cfg, err := json.Marshal(models.TelegramConfig{BotToken: "token", ChatID: "chat"})
	require.NoError(t, err)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (notification_type) DO UPDATE")).
		WithArgs(models.NotificationTelegram, true, cfg, true, true, false).
		WillReturnRows(mock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("ns-1", now, now))

	setting := &models.NotificationSetting{
		NotificationType:       models.NotificationTelegram,
		IsEnabled:              true,
		Config:                 cfg,
		NotifyOnNewFeedback:    true,
		NotifyOnUrgentFeedback: true,
	}
	require.NoError(t, svc.UpsertNotificationSetting(context.Background(), setting))
	assert.Equal(t, "ns-1", setting.ID)
}

func TestUpsertNotificationSetting_RejectsUnknownChannel(t *testing.T) {
	svc, _, cleanup := newTestSettingsService(t)
	defer cleanup()

	err := svc.UpsertNotificationSetting(context.Background(), &models.NotificationSetting{
		NotificationType: models.NotificationType("pager"),
	})
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}
