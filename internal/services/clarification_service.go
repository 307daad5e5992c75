package services

import (
	"context"
	"database/sql"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"
)

// ClarificationServiceInterface defines the follow-up question workflow
// between admins and anonymous submitters.
type ClarificationServiceInterface interface {
	CreateClarification(ctx context.Context, feedbackID, question string) (*models.Clarification, error)
	RespondToClarification(ctx context.Context, accessCodeHash, clarificationID, response string) (*models.Clarification, error)
	GetClarificationsByFeedbackID(ctx context.Context, feedbackID string) ([]models.Clarification, error)
}

// ClarificationService manages clarification requests and responses.
type ClarificationService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewClarificationService creates a new clarification service
func NewClarificationService(db *sql.DB, logger *observability.Logger) *ClarificationService {
	return &ClarificationService{db: db, logger: logger}
}

// CreateClarification asks the submitter a follow-up question. Feedback
// submitted without follow-up consent cannot receive one.
func (s *ClarificationService) CreateClarification(ctx context.Context, feedbackID, question string) (result0 *models.Clarification, err error) {
	ctx, span := observability.TraceClarificationFunction(ctx, "create_clarification",
		observability.AttributeFeedbackID(feedbackID))
	defer observability.FinishSpan(span, &err)

	var allowFollowUp bool
	err = s.db.QueryRowContext(ctx,
		"SELECT allow_follow_up FROM feedback WHERE id = $1", feedbackID,
	).Scan(&allowFollowUp)
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to look up feedback")
	}
	if !allowFollowUp {
		return nil, contextutils.ErrFollowUpNotAllowed
	}

	clarification := &models.Clarification{FeedbackID: feedbackID, Question: question}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO clarifications (feedback_id, question)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		feedbackID, question,
	).Scan(&clarification.ID, &clarification.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create clarification")
	}

	s.logger.Info(ctx, "Clarification requested", map[string]interface{}{
		"feedback_id":      feedbackID,
		"clarification_id": clarification.ID,
	})
	return clarification, nil
}

// RespondToClarification records the submitter's answer. The caller proves
// ownership with the access code hash; a mismatch is indistinguishable from
// a missing record. Answering is one-way, a responded clarification stays
// closed.
func (s *ClarificationService) RespondToClarification(ctx context.Context, accessCodeHash, clarificationID, response string) (result0 *models.Clarification, err error) {
	ctx, span := observability.TraceClarificationFunction(ctx, "respond_to_clarification")
	defer observability.FinishSpan(span, &err)

	var feedbackID string
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM feedback WHERE access_code_hash = $1", accessCodeHash,
	).Scan(&feedbackID)
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to look up feedback")
	}

	var clarification models.Clarification
	err = s.db.QueryRowContext(ctx, `
		SELECT id, feedback_id, question, response, created_at, responded_at
		FROM clarifications WHERE id = $1`,
		clarificationID,
	).Scan(&clarification.ID, &clarification.FeedbackID, &clarification.Question,
		&clarification.Response, &clarification.CreatedAt, &clarification.RespondedAt)
	if err == sql.ErrNoRows {
		return nil, contextutils.ErrRecordNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to look up clarification")
	}

	if clarification.FeedbackID != feedbackID {
		return nil, contextutils.ErrRecordNotFound
	}
	if clarification.IsResponded() {
		return nil, contextutils.ErrClarificationClosed
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE clarifications
		SET response = $1, responded_at = NOW()
		WHERE id = $2 AND responded_at IS NULL
		RETURNING response, responded_at`,
		response, clarificationID,
	).Scan(&clarification.Response, &clarification.RespondedAt)
	if err == sql.ErrNoRows {
		// Lost a race with another response attempt.
		return nil, contextutils.ErrClarificationClosed
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to record clarification response")
	}

	s.logger.Info(ctx, "Clarification answered", map[string]interface{}{
		"feedback_id":      feedbackID,
		"clarification_id": clarificationID,
	})
	return &clarification, nil
}

// GetClarificationsByFeedbackID lists all clarifications for one feedback
// item, oldest first.
func (s *ClarificationService) GetClarificationsByFeedbackID(ctx context.Context, feedbackID string) (result0 []models.Clarification, err error) {
	ctx, span := observability.TraceClarificationFunction(ctx, "get_clarifications",
		observability.AttributeFeedbackID(feedbackID))
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, feedback_id, question, response, created_at, responded_at
		FROM clarifications
		WHERE feedback_id = $1
		ORDER BY created_at`, feedbackID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list clarifications")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	clarifications := []models.Clarification{}
	for rows.Next() {
		var c models.Clarification
		if err = rows.Scan(&c.ID, &c.FeedbackID, &c.Question, &c.Response, &c.CreatedAt, &c.RespondedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan clarification")
		}
		clarifications = append(clarifications, c)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate clarifications")
	}
	return clarifications, nil
}
