// Package models defines the data structures for the feedback portal backend.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// FeedbackType classifies a submission.
type FeedbackType string

// Feedback types accepted at submission.
const (
	FeedbackTypeSuggestion FeedbackType = "suggestion"
	FeedbackTypeConcern    FeedbackType = "concern"
	FeedbackTypePraise     FeedbackType = "praise"
	FeedbackTypeQuestion   FeedbackType = "question"
)

// IsValid reports whether the feedback type is one of the accepted values.
func (t FeedbackType) IsValid() bool {
	switch t {
	case FeedbackTypeSuggestion, FeedbackTypeConcern, FeedbackTypePraise, FeedbackTypeQuestion:
		return true
	}
	return false
}

// Urgency is the submitter- or AI-assigned urgency level.
type Urgency string

// Urgency levels.
const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// IsValid reports whether the urgency is one of the accepted values.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// IsUrgent reports whether the urgency level triggers urgent notifications.
func (u Urgency) IsUrgent() bool {
	return u == UrgencyHigh || u == UrgencyCritical
}

// FeedbackStatus is the triage lifecycle state of a feedback record.
type FeedbackStatus string

// Feedback lifecycle states.
const (
	StatusReceived   FeedbackStatus = "received"
	StatusInProgress FeedbackStatus = "in-progress"
	StatusResolved   FeedbackStatus = "resolved"
)

// IsValid reports whether the status is one of the accepted values.
func (s FeedbackStatus) IsValid() bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// ModerationStatus is the content moderation state of a feedback record.
type ModerationStatus string

// Moderation states.
const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationFlagged  ModerationStatus = "flagged"
	ModerationRejected ModerationStatus = "rejected"
)

// IsValid reports whether the moderation status is one of the accepted values.
func (s ModerationStatus) IsValid() bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationFlagged, ModerationRejected:
		return true
	}
	return false
}

// QuestionType describes how a configured intake question is answered.
type QuestionType string

// Question types.
const (
	QuestionTypeText     QuestionType = "text"
	QuestionTypeTextarea QuestionType = "textarea"
	QuestionTypeSelect   QuestionType = "select"
	QuestionTypeRadio    QuestionType = "radio"
	QuestionTypeCheckbox QuestionType = "checkbox"
	QuestionTypeRating   QuestionType = "rating"
	QuestionTypeScale    QuestionType = "scale"
)

// IsValid reports whether the question type is one of the accepted values.
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionTypeText, QuestionTypeTextarea, QuestionTypeSelect,
		QuestionTypeRadio, QuestionTypeCheckbox, QuestionTypeRating, QuestionTypeScale:
		return true
	}
	return false
}

// NotificationType identifies a notification channel.
type NotificationType string

// Notification channels.
const (
	NotificationTelegram NotificationType = "telegram"
	NotificationSlack    NotificationType = "slack"
	NotificationWebhook  NotificationType = "webhook"
	NotificationEmail    NotificationType = "email"
)

// IsValid reports whether the notification type is one of the accepted values.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTelegram, NotificationSlack, NotificationWebhook, NotificationEmail:
		return true
	}
	return false
}

// NotificationEvent identifies a dispatchable event.
type NotificationEvent string

// Notification events.
const (
	EventNewFeedback           NotificationEvent = "new_feedback"
	EventUrgentFeedback        NotificationEvent = "urgent_feedback"
	EventClarificationResponse NotificationEvent = "clarification_response"
)

// IsValid checks if the notification event is valid
func (e NotificationEvent) IsValid() bool {
	switch e {
	case EventNewFeedback, EventUrgentFeedback, EventClarificationResponse:
		return true
	}
	return false
}

// Category is an admin-configured grouping for feedback.
type Category struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Label       string         `json:"label" db:"label"`
	Description sql.NullString `json:"description" db:"description"`
	Color       string         `json:"color" db:"color"`
	Icon        string         `json:"icon" db:"icon"`
	IsActive    bool           `json:"isActive" db:"is_active"`
	SortOrder   int            `json:"sortOrder" db:"sort_order"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for Category to handle sql.NullString properly
func (c Category) MarshalJSON() (result0 []byte, err error) {
	type Alias Category
	return json.Marshal(&struct {
		Alias
		Description *string `json:"description"`
	}{
		Alias:       Alias(c),
		Description: nullStringToPointer(c.Description),
	})
}

// Tag is an admin-configured label attachable to feedback.
type Tag struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	SortOrder int       `json:"sortOrder" db:"sort_order"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Question is an admin-configured intake question shown on the submission form.
type Question struct {
	ID           string          `json:"id" db:"id"`
	QuestionType QuestionType    `json:"questionType" db:"question_type"`
	QuestionText string          `json:"questionText" db:"question_text"`
	Description  sql.NullString  `json:"description" db:"description"`
	Options      json.RawMessage `json:"options" db:"options"`
	IsRequired   bool            `json:"isRequired" db:"is_required"`
	IsActive     bool            `json:"isActive" db:"is_active"`
	SortOrder    int             `json:"sortOrder" db:"sort_order"`
	MinValue     sql.NullInt32   `json:"minValue" db:"min_value"`
	MaxValue     sql.NullInt32   `json:"maxValue" db:"max_value"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for Question to handle sql.Null* fields properly
func (q Question) MarshalJSON() (result0 []byte, err error) {
	type Alias Question
	return json.Marshal(&struct {
		Alias
		Description *string `json:"description"`
		MinValue    *int32  `json:"minValue"`
		MaxValue    *int32  `json:"maxValue"`
	}{
		Alias:       Alias(q),
		Description: nullStringToPointer(q.Description),
		MinValue:    nullInt32ToPointer(q.MinValue),
		MaxValue:    nullInt32ToPointer(q.MaxValue),
	})
}

// BrandingSettings is the singleton portal appearance configuration.
type BrandingSettings struct {
	ID             string         `json:"id" db:"id"`
	SiteName       string         `json:"siteName" db:"site_name"`
	SiteSubtitle   sql.NullString `json:"siteSubtitle" db:"site_subtitle"`
	PrimaryColor   string         `json:"primaryColor" db:"primary_color"`
	SecondaryColor string         `json:"secondaryColor" db:"secondary_color"`
	LogoURL        sql.NullString `json:"logoUrl" db:"logo_url"`
	TrustBadge1    sql.NullString `json:"trustBadge1" db:"trust_badge_1"`
	TrustBadge2    sql.NullString `json:"trustBadge2" db:"trust_badge_2"`
	TrustBadge3    sql.NullString `json:"trustBadge3" db:"trust_badge_3"`
	CustomCSS      sql.NullString `json:"customCss" db:"custom_css"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for BrandingSettings to handle sql.NullString fields properly
func (b BrandingSettings) MarshalJSON() (result0 []byte, err error) {
	type Alias BrandingSettings
	return json.Marshal(&struct {
		Alias
		SiteSubtitle *string `json:"siteSubtitle"`
		LogoURL      *string `json:"logoUrl"`
		TrustBadge1  *string `json:"trustBadge1"`
		TrustBadge2  *string `json:"trustBadge2"`
		TrustBadge3  *string `json:"trustBadge3"`
		CustomCSS    *string `json:"customCss"`
	}{
		Alias:        Alias(b),
		SiteSubtitle: nullStringToPointer(b.SiteSubtitle),
		LogoURL:      nullStringToPointer(b.LogoURL),
		TrustBadge1:  nullStringToPointer(b.TrustBadge1),
		TrustBadge2:  nullStringToPointer(b.TrustBadge2),
		TrustBadge3:  nullStringToPointer(b.TrustBadge3),
		CustomCSS:    nullStringToPointer(b.CustomCSS),
	})
}

// NotificationSetting holds per-channel delivery configuration. Config is a
// JSON blob whose shape depends on NotificationType; it is decoded into the
// typed channel config structs at the dispatch boundary.
type NotificationSetting struct {
	ID                      string           `json:"id" db:"id"`
	NotificationType        NotificationType `json:"notificationType" db:"notification_type"`
	IsEnabled               bool             `json:"isEnabled" db:"is_enabled"`
	Config                  json.RawMessage  `json:"config" db:"config"`
	NotifyOnNewFeedback     bool             `json:"notifyOnNewFeedback" db:"notify_on_new_feedback"`
	NotifyOnUrgentFeedback  bool             `json:"notifyOnUrgentFeedback" db:"notify_on_urgent_feedback"`
	NotifyOnClarificationResponse bool       `json:"notifyOnClarificationResponse" db:"notify_on_clarification_response"`
	CreatedAt               time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt               time.Time        `json:"updatedAt" db:"updated_at"`
}

// WantsEvent reports whether this channel subscribes to the given event.
func (n *NotificationSetting) WantsEvent(event NotificationEvent) bool {
	switch event {
	case EventNewFeedback:
		return n.NotifyOnNewFeedback
	case EventUrgentFeedback:
		return n.NotifyOnUrgentFeedback
	case EventClarificationResponse:
		return n.NotifyOnClarificationResponse
	}
	return false
}

// TelegramConfig is the channel config for Telegram bot delivery.
type TelegramConfig struct {
	BotToken string `json:"botToken"`
	ChatID   string `json:"chatId"`
}

// SlackConfig is the channel config for Slack incoming webhook delivery.
type SlackConfig struct {
	WebhookURL string `json:"webhookUrl"`
	Channel    string `json:"channel,omitempty"`
}

// WebhookConfig is the channel config for generic webhook delivery.
type WebhookConfig struct {
	URL    string `json:"url"`
	Secret string `json:"secret,omitempty"`
}

// EmailChannelConfig is the channel config for email delivery.
type EmailChannelConfig struct {
	To []string `json:"to"`
}

// FeedbackAnalysis is the AI categorization result attached to a feedback record.
type FeedbackAnalysis struct {
	Category      string   `json:"category"`
	Urgency       string   `json:"urgency"`
	Sentiment     string   `json:"sentiment"`
	Summary       string   `json:"summary"`
	ActionItems   []string `json:"actionItems"`
	KeyTopics     []string `json:"keyTopics"`
	IsActionable  bool     `json:"isActionable"`
	SuggestedTags []string `json:"suggestedTags"`
}

// Feedback is an anonymous feedback record. The plaintext access code is
// never stored; AccessCodeHash is the SHA-256 digest of the normalized code.
type Feedback struct {
	ID                string           `json:"id" db:"id"`
	AccessCodeHash    string           `json:"-" db:"access_code_hash"`
	CategoryID        sql.NullString   `json:"categoryId" db:"category_id"`
	FeedbackType      FeedbackType     `json:"feedbackType" db:"feedback_type"`
	Urgency           Urgency          `json:"urgency" db:"urgency"`
	Subject           string           `json:"subject" db:"subject"`
	Description       string           `json:"description" db:"description"`
	Impact            sql.NullString   `json:"impact" db:"impact"`
	SuggestedSolution sql.NullString   `json:"suggestedSolution" db:"suggested_solution"`
	AllowFollowUp     bool             `json:"allowFollowUp" db:"allow_follow_up"`
	Rating            sql.NullInt32    `json:"rating" db:"rating"`
	Status            FeedbackStatus   `json:"status" db:"status"`
	ModerationStatus  ModerationStatus `json:"moderationStatus" db:"moderation_status"`
	ModerationFlags   []string         `json:"moderationFlags" db:"moderation_flags"`
	ModerationScore   int              `json:"moderationScore" db:"moderation_score"`
	Keywords          []string         `json:"keywords" db:"keywords"`
	AdminNotes        []string         `json:"adminNotes" db:"admin_notes"`
	AIAnalysis        *FeedbackAnalysis `json:"aiAnalysis" db:"ai_analysis"`
	ResolvedAt        sql.NullTime     `json:"resolvedAt" db:"resolved_at"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`

	// Joined data, populated by detail queries
	CategoryLabel  sql.NullString     `json:"categoryLabel,omitempty" db:"category_label"`
	Tags           []Tag              `json:"tags,omitempty"`
	Responses      []QuestionResponse `json:"responses,omitempty"`
	Clarifications []Clarification    `json:"clarifications,omitempty"`
}

// MarshalJSON customizes JSON marshaling for Feedback to handle sql.Null* fields properly
func (f Feedback) MarshalJSON() (result0 []byte, err error) {
	type Alias Feedback
	return json.Marshal(&struct {
		Alias
		CategoryID        *string    `json:"categoryId"`
		Impact            *string    `json:"impact"`
		SuggestedSolution *string    `json:"suggestedSolution"`
		Rating            *int32     `json:"rating"`
		ResolvedAt        *time.Time `json:"resolvedAt"`
		CategoryLabel     *string    `json:"categoryLabel,omitempty"`
	}{
		Alias:             Alias(f),
		CategoryID:        nullStringToPointer(f.CategoryID),
		Impact:            nullStringToPointer(f.Impact),
		SuggestedSolution: nullStringToPointer(f.SuggestedSolution),
		Rating:            nullInt32ToPointer(f.Rating),
		ResolvedAt:        nullTimeToPointer(f.ResolvedAt),
		CategoryLabel:     nullStringToPointer(f.CategoryLabel),
	})
}

// IsResolved reports whether the feedback has reached the resolved state.
func (f *Feedback) IsResolved() bool {
	return f.Status == StatusResolved
}

// QuestionResponse is a submitter's answer to a configured intake question.
type QuestionResponse struct {
	ID             string         `json:"id" db:"id"`
	FeedbackID     string         `json:"feedbackId" db:"feedback_id"`
	QuestionID     string         `json:"questionId" db:"question_id"`
	QuestionText   string         `json:"questionText,omitempty" db:"question_text"`
	ResponseValue  sql.NullString `json:"responseValue" db:"response_value"`
	ResponseNumber sql.NullInt32  `json:"responseNumber" db:"response_number"`
	ResponseOption sql.NullString `json:"responseOption" db:"response_option"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}

// MarshalJSON customizes JSON marshaling for QuestionResponse to handle sql.Null* fields properly
func (r QuestionResponse) MarshalJSON() (result0 []byte, err error) {
	type Alias QuestionResponse
	return json.Marshal(&struct {
		Alias
		ResponseValue  *string `json:"responseValue"`
		ResponseNumber *int32  `json:"responseNumber"`
		ResponseOption *string `json:"responseOption"`
	}{
		Alias:          Alias(r),
		ResponseValue:  nullStringToPointer(r.ResponseValue),
		ResponseNumber: nullInt32ToPointer(r.ResponseNumber),
		ResponseOption: nullStringToPointer(r.ResponseOption),
	})
}

// Clarification is an admin question to the anonymous submitter, answered
// through the access code. The transition Asked -> Responded is one-way.
type Clarification struct {
	ID          string         `json:"id" db:"id"`
	FeedbackID  string         `json:"feedbackId" db:"feedback_id"`
	Question    string         `json:"question" db:"question"`
	Response    sql.NullString `json:"response" db:"response"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	RespondedAt sql.NullTime   `json:"respondedAt" db:"responded_at"`
}

// MarshalJSON customizes JSON marshaling for Clarification to handle sql.Null* fields properly
func (c Clarification) MarshalJSON() (result0 []byte, err error) {
	type Alias Clarification
	return json.Marshal(&struct {
		Alias
		Response    *string    `json:"response"`
		RespondedAt *time.Time `json:"respondedAt"`
	}{
		Alias:       Alias(c),
		Response:    nullStringToPointer(c.Response),
		RespondedAt: nullTimeToPointer(c.RespondedAt),
	})
}

// IsResponded reports whether the clarification has been answered.
func (c *Clarification) IsResponded() bool {
	return c.RespondedAt.Valid
}

// NameValue is a single analytics breakdown entry.
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DailyCount is one day of the submission trend.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Analytics is the aggregate triage dashboard document.
type Analytics struct {
	Total             int          `json:"total"`
	StatusBreakdown   []NameValue  `json:"statusBreakdown"`
	UrgencyBreakdown  []NameValue  `json:"urgencyBreakdown"`
	TypeBreakdown     []NameValue  `json:"typeBreakdown"`
	SentimentBreakdown []NameValue `json:"sentimentBreakdown"`
	CategoryBreakdown []NameValue  `json:"categoryBreakdown"`
	DailyTrend        []DailyCount `json:"dailyTrend"`
	TopKeywords       []NameValue  `json:"topKeywords"`
	ResolutionRate    int          `json:"resolutionRate"`
	AverageRating     float64      `json:"averageRating"`
}

// ModerationStats is the per-status moderation queue summary.
type ModerationStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Flagged  int `json:"flagged"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// BulkFailure records why a single item in a bulk moderation request failed.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports per-item outcomes of a bulk moderation request.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// nullStringToPointer converts sql.NullString to *string for JSON marshaling
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

// nullTimeToPointer converts sql.NullTime to *time.Time for JSON marshaling
func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// nullInt32ToPointer converts sql.NullInt32 to *int32 for JSON marshaling
func nullInt32ToPointer(ni sql.NullInt32) *int32 {
	if ni.Valid {
		return &ni.Int32
	}
	return nil
}
