package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"
)

const (
	defaultCategoryColor = "#6b7280"
	defaultCategoryIcon  = "folder"
	defaultTagColor      = "#3b82f6"
)

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a stable machine name from a human label.
func slugify(label string) string {
	slug := strings.ToLower(strings.TrimSpace(label))
	slug = slugSanitizer.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// CategoryInput carries category fields for create and update calls. Nil
// pointers on update leave the column untouched.
type CategoryInput struct {
	Label       *string
	Description *string
	Color       *string
	Icon        *string
	IsActive    *bool
	SortOrder   *int
}

// TagInput carries tag fields for create and update calls.
type TagInput struct {
	Name      *string
	Color     *string
	IsActive  *bool
	SortOrder *int
}

// SettingsServiceInterface defines the portal configuration surface:
// categories, tags, intake questions, branding and notification channels.
type SettingsServiceInterface interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ResolveCategoryByName(ctx context.Context, name string) (*models.Category, error)

	ListTags(ctx context.Context, includeInactive bool) ([]models.Tag, error)
	CreateTag(ctx context.Context, input TagInput) (*models.Tag, error)
	UpdateTag(ctx context.Context, id string, input TagInput) (*models.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	ResolveTagsByName(ctx context.Context, names []string) ([]string, error)

	ListQuestions(ctx context.Context, includeInactive bool) ([]models.Question, error)
	CreateQuestion(ctx context.Context, question *models.Question) error
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, id string) error

	GetBranding(ctx context.Context) (*models.BrandingSettings, error)
	UpdateBranding(ctx context.Context, branding *models.BrandingSettings) error

	ListNotificationSettings(ctx context.Context) ([]models.NotificationSetting, error)
	UpsertNotificationSetting(ctx context.Context, setting *models.NotificationSetting) error
}

// SettingsService manages portal configuration stored in the database.
type SettingsService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(db *sql.DB, logger *observability.Logger) *SettingsService {
	return &SettingsService{db: db, logger: logger}
}

const categoryColumns = "id, name, label, description, color, icon, is_active, sort_order, created_at, updated_at"

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Label, &c.Description, &c.Color, &c.Icon,
		&c.IsActive, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns categories in display order. The public intake form
// only sees active ones.
func (s *SettingsService) ListCategories(ctx context.Context, includeInactive bool) (result0 []models.Category, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "list_categories")
	defer observability.FinishSpan(span, &err)

	query := fmt.Sprintf("SELECT %s FROM categories", categoryColumns)
	if !includeInactive {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY sort_order, label"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list categories")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	categories := []models.Category{}
	for rows.Next() {
		category, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to scan category")
		}
		categories = append(categories, *category)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate categories")
	}
	return categories, nil
}

// CreateCategory adds a category. The machine name is derived from the label
// and the new category sorts after existing ones.
func (s *SettingsService) CreateCategory(ctx context.Context, input CategoryInput) (result0 *models.Category, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "create_category")
	defer observability.FinishSpan(span, &err)

	if input.Label == nil || strings.TrimSpace(*input.Label) == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "category label is required")
	}
	label := strings.TrimSpace(*input.Label)
	name := slugify(label)
	if name == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "category label has no usable characters")
	}

	color := defaultCategoryColor
	if input.Color != nil && *input.Color != "" {
		color = *input.Color
	}
	icon := defaultCategoryIcon
	if input.Icon != nil && *input.Icon != "" {
		icon = *input.Icon
	}
	var description sql.NullString
	if input.Description != nil && *input.Description != "" {
		description = sql.NullString{String: *input.Description, Valid: true}
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO categories (name, label, description, color, icon, sort_order)
		VALUES ($1, $2, $3, $4, $5, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories))
		RETURNING %s`, categoryColumns),
		name, label, description, color, icon)
	category, err := scanCategory(row)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create category")
	}
	return category, nil
}

// UpdateCategory applies partial changes to a category.
func (s *SettingsService) UpdateCategory(ctx context.Context, id string, input CategoryInput) (result0 *models.Category, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "update_category")
	defer observability.FinishSpan(span, &err)

	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if input.Label != nil {
		label := strings.TrimSpace(*input.Label)
		if label == "" {
			return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "category label cannot be empty")
		}
		set("label", label)
		set("name", slugify(label))
	}
	if input.Description != nil {
		set("description", sql.NullString{String: *input.Description, Valid: *input.Description != ""})
	}
	if input.Color != nil {
		set("color", *input.Color)
	}
	if input.Icon != nil {
		set("icon", *input.Icon)
	}
	if input.IsActive != nil {
		set("is_active", *input.IsActive)
	}
	if input.SortOrder != nil {
		set("sort_order", *input.SortOrder)
	}
	if len(sets) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "no updatable fields provided")
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE categories SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), categoryColumns)

	category, err := scanCategory(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update category")
	}
	return category, nil
}

// DeleteCategory deactivates a category. Feedback keeps its category link,
// the category just stops appearing on the intake form.
func (s *SettingsService) DeleteCategory(ctx context.Context, id string) (err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "delete_category")
	defer observability.FinishSpan(span, &err)

	return s.softDeactivate(ctx, "categories", id)
}

// ResolveCategoryByName finds an active category matching a name or label,
// case-insensitively. Used to map AI-suggested categories onto configured ones.
func (s *SettingsService) ResolveCategoryByName(ctx context.Context, name string) (result0 *models.Category, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "resolve_category_by_name")
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM categories
		WHERE is_active = TRUE AND (LOWER(name) = LOWER($1) OR LOWER(label) = LOWER($1))
		LIMIT 1`, categoryColumns), strings.TrimSpace(name))
	category, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to resolve category")
	}
	return category, nil
}

const tagColumns = "id, name, color, is_active, sort_order, created_at, updated_at"

func scanTag(row rowScanner) (*models.Tag, error) {
	var t models.Tag
	err := row.Scan(&t.ID, &t.Name, &t.Color, &t.IsActive, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTags returns tags in display order.
func (s *SettingsService) ListTags(ctx context.Context, includeInactive bool) (result0 []models.Tag, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "list_tags")
	defer observability.FinishSpan(span, &err)

	query := fmt.Sprintf("SELECT %s FROM tags", tagColumns)
	if !includeInactive {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY sort_order, name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list tags")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	tags := []models.Tag{}
	for rows.Next() {
		tag, scanErr := scanTag(rows)
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to scan tag")
		}
		tags = append(tags, *tag)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate tags")
	}
	return tags, nil
}

// CreateTag adds a tag at the end of the display order.
func (s *SettingsService) CreateTag(ctx context.Context, input TagInput) (result0 *models.Tag, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "create_tag")
	defer observability.FinishSpan(span, &err)

	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "tag name is required")
	}
	name := slugify(*input.Name)
	if name == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "tag name has no usable characters")
	}
	color := defaultTagColor
	if input.Color != nil && *input.Color != "" {
		color = *input.Color
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO tags (name, color, sort_order)
		VALUES ($1, $2, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM tags))
		RETURNING %s`, tagColumns),
		name, color)
	tag, err := scanTag(row)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create tag")
	}
	return tag, nil
}

// UpdateTag applies partial changes to a tag.
func (s *SettingsService) UpdateTag(ctx context.Context, id string, input TagInput) (result0 *models.Tag, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "update_tag")
	defer observability.FinishSpan(span, &err)

	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if input.Name != nil {
		name := slugify(*input.Name)
		if name == "" {
			return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "tag name cannot be empty")
		}
		set("name", name)
	}
	if input.Color != nil {
		set("color", *input.Color)
	}
	if input.IsActive != nil {
		set("is_active", *input.IsActive)
	}
	if input.SortOrder != nil {
		set("sort_order", *input.SortOrder)
	}
	if len(sets) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "no updatable fields provided")
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE tags SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), tagColumns)

	tag, err := scanTag(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update tag")
	}
	return tag, nil
}

// DeleteTag deactivates a tag.
func (s *SettingsService) DeleteTag(ctx context.Context, id string) (err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "delete_tag")
	defer observability.FinishSpan(span, &err)

	return s.softDeactivate(ctx, "tags", id)
}

// ResolveTagsByName maps tag names to IDs of active tags. Unknown names are
// skipped, not errors; AI tag suggestions often include tags that are not
// configured.
func (s *SettingsService) ResolveTagsByName(ctx context.Context, names []string) (result0 []string, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "resolve_tags_by_name")
	defer observability.FinishSpan(span, &err)

	ids := []string{}
	seen := map[string]bool{}
	for _, name := range names {
		slug := slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		var id string
		scanErr := s.db.QueryRowContext(ctx,
			"SELECT id FROM tags WHERE is_active = TRUE AND name = $1", slug).Scan(&id)
		if scanErr == sql.ErrNoRows {
			continue
		}
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to resolve tag")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// softDeactivate marks a row inactive instead of deleting it.
func (s *SettingsService) softDeactivate(ctx context.Context, table, id string) error {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET is_active = FALSE, updated_at = NOW() WHERE id = $1", table), id)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to deactivate %s row", table)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check deactivation")
	}
	if affected == 0 {
		return contextutils.ErrRecordNotFound
	}
	return nil
}

const questionColumns = `id, question_type, question_text, description, options, is_required, is_active,
	sort_order, min_value, max_value, created_at, updated_at`

func scanQuestion(row rowScanner) (*models.Question, error) {
	var q models.Question
	var options []byte
	err := row.Scan(&q.ID, &q.QuestionType, &q.QuestionText, &q.Description, &options,
		&q.IsRequired, &q.IsActive, &q.SortOrder, &q.MinValue, &q.MaxValue, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(options) > 0 {
		q.Options = options
	}
	return &q, nil
}

// ListQuestions returns intake questions in display order.
func (s *SettingsService) ListQuestions(ctx context.Context, includeInactive bool) (result0 []models.Question, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "list_questions")
	defer observability.FinishSpan(span, &err)

	query := fmt.Sprintf("SELECT %s FROM questions", questionColumns)
	if !includeInactive {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY sort_order, created_at"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list questions")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	questions := []models.Question{}
	for rows.Next() {
		question, scanErr := scanQuestion(rows)
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to scan question")
		}
		questions = append(questions, *question)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate questions")
	}
	return questions, nil
}

// CreateQuestion adds an intake question at the end of the display order and
// fills in the generated fields on the given struct.
func (s *SettingsService) CreateQuestion(ctx context.Context, question *models.Question) (err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "create_question")
	defer observability.FinishSpan(span, &err)

	if !question.QuestionType.IsValid() {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid question type: %s", question.QuestionType)
	}
	if strings.TrimSpace(question.QuestionText) == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "question text is required")
	}

	var options interface{}
	if len(question.Options) > 0 {
		options = []byte(question.Options)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO questions (question_type, question_text, description, options, is_required, min_value, max_value, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM questions))
		RETURNING id, is_active, sort_order, created_at, updated_at`,
		question.QuestionType, question.QuestionText, question.Description, options,
		question.IsRequired, question.MinValue, question.MaxValue,
	).Scan(&question.ID, &question.IsActive, &question.SortOrder, &question.CreatedAt, &question.UpdatedAt)
	if err != nil {
		return contextutils.WrapError(err, "failed to create question")
	}
	return nil
}

// UpdateQuestion replaces the editable fields of an intake question.
func (s *SettingsService) UpdateQuestion(ctx context.Context, question *models.Question) (err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "update_question")
	defer observability.FinishSpan(span, &err)

	if !question.QuestionType.IsValid() {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid question type: %s", question.QuestionType)
	}

	var options interface{}
	if len(question.Options) > 0 {
		options = []byte(question.Options)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE questions
		SET question_type = $1, question_text = $2, description = $3, options = $4, is_required = $5,
			is_active = $6, sort_order = $7, min_value = $8, max_value = $9, updated_at = NOW()
		WHERE id = $10`,
		question.QuestionType, question.QuestionText, question.Description, options,
		question.IsRequired, question.IsActive, question.SortOrder,
		question.MinValue, question.MaxValue, question.ID)
	if err != nil {
		return contextutils.WrapError(err, "failed to update question")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check question update")
	}
	if affected == 0 {
		return contextutils.ErrRecordNotFound
	}
	return nil
}

// DeleteQuestion deactivates an intake question. Past responses stay linked.
func (s *SettingsService) DeleteQuestion(ctx context.Context, id string) (err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "delete_question")
	defer observability.FinishSpan(span, &err)

	return s.softDeactivate(ctx, "questions", id)
}

const brandingColumns = `id, site_name, site_subtitle, primary_color, secondary_color, logo_url,
	trust_badge_1, trust_badge_2, trust_badge_3, custom_css, updated_at`

// GetBranding returns the singleton branding row, creating it with defaults
// on first access.
func (s *SettingsService) GetBranding(ctx context.Context) (result0 *models.BrandingSettings, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "get_branding")
	defer observability.FinishSpan(span, &err)

	var b models.BrandingSettings
	scan := func(row rowScanner) error {
		return row.Scan(&b.ID, &b.SiteName, &b.SiteSubtitle, &b.PrimaryColor, &b.SecondaryColor,
			&b.LogoURL, &b.TrustBadge1, &b.TrustBadge2, &b.TrustBadge3, &b.CustomCSS, &b.UpdatedAt)
	}

	err = scan(s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM branding_settings ORDER BY updated_at DESC LIMIT 1", brandingColumns)))
	if err == sql.ErrNoRows {
		err = scan(s.db.QueryRowContext(ctx,
			fmt.Sprintf("INSERT INTO branding_settings DEFAULT VALUES RETURNING %s", brandingColumns)))
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get branding settings")
	}
	return &b, nil
}

// UpdateBranding replaces the singleton branding row's fields.
func (s *SettingsService) UpdateBranding(ctx context.Context, branding *models.BrandingSettings) (err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "update_branding")
	defer observability.FinishSpan(span, &err)

	current, err := s.GetBranding(ctx)
	if err != nil {
		return err
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE branding_settings
		SET site_name = $1, site_subtitle = $2, primary_color = $3, secondary_color = $4, logo_url = $5,
			trust_badge_1 = $6, trust_badge_2 = $7, trust_badge_3 = $8, custom_css = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING id, updated_at`,
		branding.SiteName, branding.SiteSubtitle, branding.PrimaryColor, branding.SecondaryColor,
		branding.LogoURL, branding.TrustBadge1, branding.TrustBadge2, branding.TrustBadge3,
		branding.CustomCSS, current.ID,
	).Scan(&branding.ID, &branding.UpdatedAt)
	if err != nil {
		return contextutils.WrapError(err, "failed to update branding settings")
	}
	return nil
}

const notificationColumns = `id, notification_type, is_enabled, config, notify_on_new_feedback,
	notify_on_urgent_feedback, notify_on_clarification_response, created_at, updated_at`

func scanNotificationSetting(row rowScanner) (*models.NotificationSetting, error) {
	var n models.NotificationSetting
	var cfg []byte
	err := row.Scan(&n.ID, &n.NotificationType, &n.IsEnabled, &cfg, &n.NotifyOnNewFeedback,
		&n.NotifyOnUrgentFeedback, &n.NotifyOnClarificationResponse, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.Config = cfg
	return &n, nil
}

// ListNotificationSettings returns all configured notification channels.
func (s *SettingsService) ListNotificationSettings(ctx context.Context) (result0 []models.NotificationSetting, err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "list_notification_settings")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM notification_settings ORDER BY notification_type", notificationColumns))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list notification settings")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	settings := []models.NotificationSetting{}
	for rows.Next() {
		setting, scanErr := scanNotificationSetting(rows)
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to scan notification setting")
		}
		settings = append(settings, *setting)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate notification settings")
	}
	return settings, nil
}

// UpsertNotificationSetting creates or replaces the configuration for one
// channel. Each channel type has at most one row.
func (s *SettingsService) UpsertNotificationSetting(ctx context.Context, setting *models.NotificationSetting) (err error) {
	ctx, span := observability.TraceSettingsFunction(ctx, "upsert_notification_setting",
		observability.AttributeChannel(string(setting.NotificationType)))
	defer observability.FinishSpan(span, &err)

	if !setting.NotificationType.IsValid() {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid notification type: %s", setting.NotificationType)
	}
	config := setting.Config
	if len(config) == 0 {
		config = []byte("{}")
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO notification_settings (notification_type, is_enabled, config, notify_on_new_feedback,
			notify_on_urgent_feedback, notify_on_clarification_response)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (notification_type) DO UPDATE SET
			is_enabled = EXCLUDED.is_enabled,
			config = EXCLUDED.config,
			notify_on_new_feedback = EXCLUDED.notify_on_new_feedback,
			notify_on_urgent_feedback = EXCLUDED.notify_on_urgent_feedback,
			notify_on_clarification_response = EXCLUDED.notify_on_clarification_response,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		setting.NotificationType, setting.IsEnabled, []byte(config),
		setting.NotifyOnNewFeedback, setting.NotifyOnUrgentFeedback, setting.NotifyOnClarificationResponse,
	).Scan(&setting.ID, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		return contextutils.WrapError(err, "failed to upsert notification setting")
	}
	return nil
}
