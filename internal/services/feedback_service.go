package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// feedbackColumns is the canonical select list for the feedback table.
const feedbackColumns = `id, access_code_hash, category_id, feedback_type, urgency, subject, description,
	impact, suggested_solution, allow_follow_up, rating, status, moderation_status, moderation_flags,
	moderation_score, keywords, admin_notes, ai_analysis, resolved_at, created_at, updated_at`

// ListFeedbackFilters narrows the admin feedback listing.
type ListFeedbackFilters struct {
	Status           models.FeedbackStatus
	ModerationStatus models.ModerationStatus
	FeedbackType     models.FeedbackType
	Urgency          models.Urgency
	CategoryID       string
	Search           string
	Limit            int
	Offset           int
}

// UpdateFeedbackInput carries the mutable triage fields. Nil pointers leave
// the column untouched.
type UpdateFeedbackInput struct {
	Status     *models.FeedbackStatus
	Urgency    *models.Urgency
	CategoryID *string
}

// FeedbackServiceInterface defines feedback persistence and triage operations.
type FeedbackServiceInterface interface {
	CreateFeedback(ctx context.Context, feedback *models.Feedback, tagIDs []string, responses []models.QuestionResponse) error
	GetFeedbackByID(ctx context.Context, id string) (*models.Feedback, error)
	GetFeedbackByAccessCodeHash(ctx context.Context, hash string) (*models.Feedback, error)
	ListFeedback(ctx context.Context, filters ListFeedbackFilters) ([]models.Feedback, int, error)
	UpdateFeedback(ctx context.Context, id string, input UpdateFeedbackInput) (*models.Feedback, error)
	AddAdminNote(ctx context.Context, id, note string) error
	UpdateModerationStatus(ctx context.Context, id string, status models.ModerationStatus, reason string) error
	BulkUpdateModerationStatus(ctx context.Context, ids []string, status models.ModerationStatus, reason string) (*models.BulkResult, error)
	GetFlaggedFeedback(ctx context.Context, limit, offset int) ([]models.Feedback, int, error)
	GetModerationStats(ctx context.Context) (*models.ModerationStats, error)
	GetAnalytics(ctx context.Context) (*models.Analytics, error)
}

// FeedbackService handles feedback storage and the triage workflow.
type FeedbackService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(db *sql.DB, logger *observability.Logger) *FeedbackService {
	return &FeedbackService{db: db, logger: logger}
}

// CreateFeedback persists a submission with its tag links and question
// responses in a single transaction.
func (s *FeedbackService) CreateFeedback(ctx context.Context, feedback *models.Feedback, tagIDs []string, responses []models.QuestionResponse) (err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "create_feedback",
		attribute.String("feedback.type", string(feedback.FeedbackType)),
		attribute.String("feedback.urgency", string(feedback.Urgency)),
	)
	defer observability.FinishSpan(span, &err)

	var analysisJSON interface{}
	if feedback.AIAnalysis != nil {
		data, marshalErr := json.Marshal(feedback.AIAnalysis)
		if marshalErr != nil {
			return contextutils.WrapError(marshalErr, "failed to marshal AI analysis")
		}
		analysisJSON = data
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				s.logger.Warn(ctx, "Failed to rollback transaction", map[string]interface{}{"error": rbErr.Error()})
			}
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO feedback (access_code_hash, category_id, feedback_type, urgency, subject, description,
			impact, suggested_solution, allow_follow_up, rating, moderation_status, moderation_flags,
			moderation_score, keywords, ai_analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, status, created_at, updated_at`,
		feedback.AccessCodeHash, feedback.CategoryID, feedback.FeedbackType, feedback.Urgency,
		feedback.Subject, feedback.Description, feedback.Impact, feedback.SuggestedSolution,
		feedback.AllowFollowUp, feedback.Rating, feedback.ModerationStatus,
		pq.Array(feedback.ModerationFlags), feedback.ModerationScore, pq.Array(feedback.Keywords),
		analysisJSON,
	).Scan(&feedback.ID, &feedback.Status, &feedback.CreatedAt, &feedback.UpdatedAt)
	if err != nil {
		return contextutils.WrapError(err, "failed to insert feedback")
	}

	for _, tagID := range tagIDs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO feedback_tags (feedback_id, tag_id) VALUES ($1, $2)
			ON CONFLICT (feedback_id, tag_id) DO NOTHING`,
			feedback.ID, tagID); err != nil {
			return contextutils.WrapErrorf(err, "failed to link tag %s", tagID)
		}
	}

	for i := range responses {
		r := &responses[i]
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO feedback_responses (feedback_id, question_id, response_value, response_number, response_option)
			VALUES ($1, $2, $3, $4, $5)`,
			feedback.ID, r.QuestionID, r.ResponseValue, r.ResponseNumber, r.ResponseOption); err != nil {
			return contextutils.WrapErrorf(err, "failed to save response for question %s", r.QuestionID)
		}
	}

	if err = tx.Commit(); err != nil {
		return contextutils.WrapError(err, "failed to commit transaction")
	}

	s.logger.Info(ctx, "Feedback created", map[string]interface{}{
		"feedback_id":       feedback.ID,
		"feedback_type":     string(feedback.FeedbackType),
		"moderation_status": string(feedback.ModerationStatus),
	})
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanFeedback reads one feedback row in feedbackColumns order.
func scanFeedback(row rowScanner) (*models.Feedback, error) {
	var f models.Feedback
	var analysisJSON []byte
	err := row.Scan(
		&f.ID, &f.AccessCodeHash, &f.CategoryID, &f.FeedbackType, &f.Urgency, &f.Subject, &f.Description,
		&f.Impact, &f.SuggestedSolution, &f.AllowFollowUp, &f.Rating, &f.Status, &f.ModerationStatus,
		pq.Array(&f.ModerationFlags), &f.ModerationScore, pq.Array(&f.Keywords), pq.Array(&f.AdminNotes),
		&analysisJSON, &f.ResolvedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(analysisJSON) > 0 {
		var analysis models.FeedbackAnalysis
		if err := json.Unmarshal(analysisJSON, &analysis); err == nil {
			f.AIAnalysis = &analysis
		}
	}
	return &f, nil
}

// GetFeedbackByID returns one feedback item with category label, tags,
// question responses and clarifications.
func (s *FeedbackService) GetFeedbackByID(ctx context.Context, id string) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_feedback_by_id",
		observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM feedback WHERE id = $1", feedbackColumns), id)
	feedback, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get feedback")
	}

	if err = s.loadFeedbackDetails(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// GetFeedbackByAccessCodeHash resolves a submission through its access code
// hash for the anonymous tracking flow.
func (s *FeedbackService) GetFeedbackByAccessCodeHash(ctx context.Context, hash string) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_feedback_by_access_code")
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM feedback WHERE access_code_hash = $1", feedbackColumns), hash)
	feedback, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get feedback by access code")
	}

	if err = s.loadFeedbackDetails(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// loadFeedbackDetails populates joined data on a feedback item.
func (s *FeedbackService) loadFeedbackDetails(ctx context.Context, feedback *models.Feedback) error {
	if feedback.CategoryID.Valid {
		err := s.db.QueryRowContext(ctx,
			"SELECT label FROM categories WHERE id = $1", feedback.CategoryID.String,
		).Scan(&feedback.CategoryLabel)
		if err != nil && err != sql.ErrNoRows {
			return contextutils.WrapError(err, "failed to load category label")
		}
	}

	tagRows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.is_active, t.sort_order, t.created_at, t.updated_at
		FROM tags t
		JOIN feedback_tags ft ON ft.tag_id = t.id
		WHERE ft.feedback_id = $1
		ORDER BY t.sort_order, t.name`, feedback.ID)
	if err != nil {
		return contextutils.WrapError(err, "failed to load feedback tags")
	}
	defer func() {
		if closeErr := tagRows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()
	for tagRows.Next() {
		var t models.Tag
		if err := tagRows.Scan(&t.ID, &t.Name, &t.Color, &t.IsActive, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return contextutils.WrapError(err, "failed to scan tag")
		}
		feedback.Tags = append(feedback.Tags, t)
	}
	if err := tagRows.Err(); err != nil {
		return contextutils.WrapError(err, "failed to iterate tags")
	}

	respRows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.feedback_id, r.question_id, q.question_text, r.response_value, r.response_number,
			r.response_option, r.created_at
		FROM feedback_responses r
		JOIN questions q ON q.id = r.question_id
		WHERE r.feedback_id = $1
		ORDER BY q.sort_order`, feedback.ID)
	if err != nil {
		return contextutils.WrapError(err, "failed to load question responses")
	}
	defer func() {
		if closeErr := respRows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()
	for respRows.Next() {
		var r models.QuestionResponse
		if err := respRows.Scan(&r.ID, &r.FeedbackID, &r.QuestionID, &r.QuestionText,
			&r.ResponseValue, &r.ResponseNumber, &r.ResponseOption, &r.CreatedAt); err != nil {
			return contextutils.WrapError(err, "failed to scan question response")
		}
		feedback.Responses = append(feedback.Responses, r)
	}
	if err := respRows.Err(); err != nil {
		return contextutils.WrapError(err, "failed to iterate question responses")
	}

	clarRows, err := s.db.QueryContext(ctx, `
		SELECT id, feedback_id, question, response, created_at, responded_at
		FROM clarifications
		WHERE feedback_id = $1
		ORDER BY created_at`, feedback.ID)
	if err != nil {
		return contextutils.WrapError(err, "failed to load clarifications")
	}
	defer func() {
		if closeErr := clarRows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()
	for clarRows.Next() {
		var c models.Clarification
		if err := clarRows.Scan(&c.ID, &c.FeedbackID, &c.Question, &c.Response, &c.CreatedAt, &c.RespondedAt); err != nil {
			return contextutils.WrapError(err, "failed to scan clarification")
		}
		feedback.Clarifications = append(feedback.Clarifications, c)
	}
	if err := clarRows.Err(); err != nil {
		return contextutils.WrapError(err, "failed to iterate clarifications")
	}

	return nil
}

// ListFeedback returns a filtered page of feedback plus the total match count.
func (s *FeedbackService) ListFeedback(ctx context.Context, filters ListFeedbackFilters) (result0 []models.Feedback, result1 int, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "list_feedback",
		observability.AttributeLimit(filters.Limit),
		observability.AttributeOffset(filters.Offset),
	)
	defer observability.FinishSpan(span, &err)

	var conditions []string
	var args []interface{}
	addCondition := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filters.Status != "" {
		addCondition("status", filters.Status)
	}
	if filters.ModerationStatus != "" {
		addCondition("moderation_status", filters.ModerationStatus)
	}
	if filters.FeedbackType != "" {
		addCondition("feedback_type", filters.FeedbackType)
	}
	if filters.Urgency != "" {
		addCondition("urgency", filters.Urgency)
	}
	if filters.CategoryID != "" {
		addCondition("category_id", filters.CategoryID)
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(subject ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to count feedback")
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = config.DefaultPageSize
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf("SELECT %s FROM feedback%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		feedbackColumns, whereClause, len(args)-1, len(args))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to list feedback")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	items := []models.Feedback{}
	for rows.Next() {
		feedback, scanErr := scanFeedback(rows)
		if scanErr != nil {
			return nil, 0, contextutils.WrapError(scanErr, "failed to scan feedback")
		}
		items = append(items, *feedback)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to iterate feedback")
	}

	return items, total, nil
}

// UpdateFeedback applies triage changes. The resolved timestamp is recorded
// on the first transition to resolved and never overwritten or cleared.
func (s *FeedbackService) UpdateFeedback(ctx context.Context, id string, input UpdateFeedbackInput) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "update_feedback",
		observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	var sets []string
	var args []interface{}

	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid status: %s", *input.Status)
		}
		args = append(args, *input.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
		if *input.Status == models.StatusResolved {
			sets = append(sets, "resolved_at = COALESCE(resolved_at, NOW())")
		}
	}
	if input.Urgency != nil {
		if !input.Urgency.IsValid() {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid urgency: %s", *input.Urgency)
		}
		args = append(args, *input.Urgency)
		sets = append(sets, fmt.Sprintf("urgency = $%d", len(args)))
	}
	if input.CategoryID != nil {
		if *input.CategoryID == "" {
			sets = append(sets, "category_id = NULL")
		} else {
			args = append(args, *input.CategoryID)
			sets = append(sets, fmt.Sprintf("category_id = $%d", len(args)))
		}
	}

	if len(sets) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "no updatable fields provided")
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE feedback SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), feedbackColumns)

	feedback, err := scanFeedback(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update feedback")
	}
	return feedback, nil
}

// AddAdminNote appends a timestamped note to the feedback's admin note
// history. Notes are append-only; each entry carries the time it was added.
func (s *FeedbackService) AddAdminNote(ctx context.Context, id, note string) (err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "add_admin_note",
		observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	stamped := fmt.Sprintf("[%s] %s", time.Now().UTC().Format(time.RFC3339), note)
	result, err := s.db.ExecContext(ctx,
		"UPDATE feedback SET admin_notes = array_append(admin_notes, $1), updated_at = NOW() WHERE id = $2",
		stamped, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to add admin note")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check admin note update")
	}
	if affected == 0 {
		return contextutils.ErrRecordNotFound
	}
	return nil
}

// UpdateModerationStatus sets the moderation outcome for one item. A non-empty
// reason is recorded in the admin note history.
func (s *FeedbackService) UpdateModerationStatus(ctx context.Context, id string, status models.ModerationStatus, reason string) (err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "update_moderation_status",
		observability.AttributeFeedbackID(id),
		observability.AttributeStatus(string(status)),
	)
	defer observability.FinishSpan(span, &err)

	if !status.IsValid() {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid moderation status: %s", status)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE feedback SET moderation_status = $1, updated_at = NOW() WHERE id = $2",
		status, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to update moderation status")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check moderation update")
	}
	if affected == 0 {
		return contextutils.ErrRecordNotFound
	}

	if reason != "" {
		note := fmt.Sprintf("Moderation: %s - %s", status, reason)
		if err = s.AddAdminNote(ctx, id, note); err != nil {
			return err
		}
	}
	return nil
}

// BulkUpdateModerationStatus applies a moderation decision to many items.
// Items fail independently; one bad ID does not abort the rest.
func (s *FeedbackService) BulkUpdateModerationStatus(ctx context.Context, ids []string, status models.ModerationStatus, reason string) (result0 *models.BulkResult, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "bulk_update_moderation_status",
		observability.AttributeStatus(string(status)),
	)
	defer observability.FinishSpan(span, &err)

	if !status.IsValid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid moderation status: %s", status)
	}

	result := &models.BulkResult{Succeeded: []string{}, Failed: []models.BulkFailure{}}
	for _, id := range ids {
		if updateErr := s.UpdateModerationStatus(ctx, id, status, reason); updateErr != nil {
			result.Failed = append(result.Failed, models.BulkFailure{ID: id, Reason: updateErr.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	s.logger.Info(ctx, "Bulk moderation update completed", map[string]interface{}{
		"requested": len(ids),
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
	})
	return result, nil
}

// GetFlaggedFeedback returns the moderation queue, oldest first. The queue
// covers both flagged and still-pending items.
func (s *FeedbackService) GetFlaggedFeedback(ctx context.Context, limit, offset int) (result0 []models.Feedback, result1 int, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_flagged_feedback",
		observability.AttributeLimit(limit),
		observability.AttributeOffset(offset),
	)
	defer observability.FinishSpan(span, &err)

	var total int
	if err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM feedback WHERE moderation_status IN ('flagged', 'pending')",
	).Scan(&total); err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to count moderation queue")
	}

	if limit <= 0 {
		limit = config.DefaultPageSize
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM feedback
		WHERE moderation_status IN ('flagged', 'pending')
		ORDER BY created_at ASC LIMIT $1 OFFSET $2`, feedbackColumns)
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to list moderation queue")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	items := []models.Feedback{}
	for rows.Next() {
		feedback, scanErr := scanFeedback(rows)
		if scanErr != nil {
			return nil, 0, contextutils.WrapError(scanErr, "failed to scan moderation queue item")
		}
		items = append(items, *feedback)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to iterate moderation queue")
	}
	return items, total, nil
}

// GetModerationStats summarizes the moderation queue by status.
func (s *FeedbackService) GetModerationStats(ctx context.Context) (result0 *models.ModerationStats, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_moderation_stats")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		"SELECT moderation_status, COUNT(*) FROM feedback GROUP BY moderation_status")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get moderation stats")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	stats := &models.ModerationStats{}
	for rows.Next() {
		var status models.ModerationStatus
		var count int
		if err = rows.Scan(&status, &count); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan moderation stats")
		}
		switch status {
		case models.ModerationPending:
			stats.Pending = count
		case models.ModerationApproved:
			stats.Approved = count
		case models.ModerationFlagged:
			stats.Flagged = count
		case models.ModerationRejected:
			stats.Rejected = count
		}
		stats.Total += count
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate moderation stats")
	}
	return stats, nil
}

// GetAnalytics builds the triage dashboard document.
func (s *FeedbackService) GetAnalytics(ctx context.Context) (result0 *models.Analytics, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_analytics")
	defer observability.FinishSpan(span, &err)

	analytics := &models.Analytics{
		StatusBreakdown:    []models.NameValue{},
		UrgencyBreakdown:   []models.NameValue{},
		TypeBreakdown:      []models.NameValue{},
		SentimentBreakdown: []models.NameValue{},
		CategoryBreakdown:  []models.NameValue{},
		DailyTrend:         []models.DailyCount{},
		TopKeywords:        []models.NameValue{},
	}

	var resolved int
	var avgRating sql.NullFloat64
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'resolved'),
			AVG(rating)
		FROM feedback`).Scan(&analytics.Total, &resolved, &avgRating)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get feedback totals")
	}
	if analytics.Total > 0 {
		analytics.ResolutionRate = int(math.Round(float64(resolved) / float64(analytics.Total) * 100))
	}
	if avgRating.Valid {
		analytics.AverageRating = avgRating.Float64
	}

	if analytics.StatusBreakdown, err = s.breakdown(ctx,
		"SELECT status, COUNT(*) FROM feedback GROUP BY status ORDER BY COUNT(*) DESC"); err != nil {
		return nil, err
	}
	if analytics.UrgencyBreakdown, err = s.breakdown(ctx,
		"SELECT urgency, COUNT(*) FROM feedback GROUP BY urgency ORDER BY COUNT(*) DESC"); err != nil {
		return nil, err
	}
	if analytics.TypeBreakdown, err = s.breakdown(ctx,
		"SELECT feedback_type, COUNT(*) FROM feedback GROUP BY feedback_type ORDER BY COUNT(*) DESC"); err != nil {
		return nil, err
	}
	if analytics.SentimentBreakdown, err = s.breakdown(ctx, `
		SELECT ai_analysis->>'sentiment', COUNT(*) FROM feedback
		WHERE ai_analysis->>'sentiment' IS NOT NULL
		GROUP BY ai_analysis->>'sentiment' ORDER BY COUNT(*) DESC`); err != nil {
		return nil, err
	}
	if analytics.CategoryBreakdown, err = s.breakdown(ctx, `
		SELECT COALESCE(c.label, 'Uncategorized'), COUNT(*) FROM feedback f
		LEFT JOIN categories c ON c.id = f.category_id
		GROUP BY COALESCE(c.label, 'Uncategorized') ORDER BY COUNT(*) DESC`); err != nil {
		return nil, err
	}
	if analytics.TopKeywords, err = s.breakdown(ctx, `
		SELECT keyword, COUNT(*) FROM feedback, unnest(keywords) AS keyword
		GROUP BY keyword ORDER BY COUNT(*) DESC LIMIT 20`); err != nil {
		return nil, err
	}

	trendRows, err := s.db.QueryContext(ctx, `
		SELECT TO_CHAR(created_at::date, 'YYYY-MM-DD'), COUNT(*)
		FROM feedback
		WHERE created_at >= NOW() - INTERVAL '30 days'
		GROUP BY created_at::date
		ORDER BY created_at::date`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get daily trend")
	}
	defer func() {
		if closeErr := trendRows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()
	for trendRows.Next() {
		var dc models.DailyCount
		if err = trendRows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan daily trend")
		}
		analytics.DailyTrend = append(analytics.DailyTrend, dc)
	}
	if err = trendRows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate daily trend")
	}

	return analytics, nil
}

// breakdown runs a two-column name/count aggregation query.
func (s *FeedbackService) breakdown(ctx context.Context, query string) ([]models.NameValue, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to run breakdown query")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	result := []models.NameValue{}
	for rows.Next() {
		var nv models.NameValue
		if err := rows.Scan(&nv.Name, &nv.Value); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan breakdown row")
		}
		result = append(result, nv)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate breakdown rows")
	}
	return result, nil
}
