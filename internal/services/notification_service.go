package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	mail "gopkg.in/mail.v2"
)

const telegramAPIBase = "https://api.telegram.org"

// slackColorMap maps urgency to the Slack attachment bar color.
var slackColorMap = map[models.Urgency]string{
	models.UrgencyCritical: "#dc2626",
	models.UrgencyHigh:     "#ea580c",
	models.UrgencyMedium:   "#d97706",
	models.UrgencyLow:      "#65a30d",
}

const emailTemplateText = `<html>
<body style="font-family: sans-serif;">
	<h2>{{.Title}}</h2>
	<p><strong>Subject:</strong> {{.Subject}}</p>
	<p><strong>Type:</strong> {{.FeedbackType}} | <strong>Urgency:</strong> {{.Urgency}}</p>
	<p>{{.Body}}</p>
	{{if .Link}}<p><a href="{{.Link}}">Open in the portal</a></p>{{end}}
</body>
</html>`

var emailTemplate = template.Must(template.New("notification").Parse(emailTemplateText))

type emailTemplateData struct {
	Title        string
	Subject      string
	FeedbackType string
	Urgency      string
	Body         string
	Link         string
}

// NotificationServiceInterface fans feedback events out to the configured
// channels. Delivery is best effort: a failing channel is logged and skipped,
// it never propagates to the caller.
type NotificationServiceInterface interface {
	NotifyFeedbackSubmitted(ctx context.Context, feedback *models.Feedback)
	NotifyClarificationResponse(ctx context.Context, feedback *models.Feedback, clarification *models.Clarification)
	TestTelegram(ctx context.Context, botToken, chatID string) error
}

// notificationSettingsSource is the slice of the settings service the
// dispatcher needs.
type notificationSettingsSource interface {
	ListNotificationSettings(ctx context.Context) ([]models.NotificationSetting, error)
}

// NotificationService dispatches events to Telegram, Slack, generic webhooks
// and email.
type NotificationService struct {
	settings   notificationSettingsSource
	emailCfg   *config.EmailConfig
	appBaseURL string
	logger     *observability.Logger
	httpClient *http.Client

	// telegramBase is overridable in tests.
	telegramBase string
	// sendMail is overridable in tests.
	sendMail func(m *mail.Message) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(settings notificationSettingsSource, emailCfg *config.EmailConfig, appBaseURL string, logger *observability.Logger) *NotificationService {
	s := &NotificationService{
		settings:   settings,
		emailCfg:   emailCfg,
		appBaseURL: strings.TrimSuffix(appBaseURL, "/"),
		logger:     logger,
		httpClient: &http.Client{
			Timeout: config.NotificationTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
		telegramBase: telegramAPIBase,
	}
	s.sendMail = func(m *mail.Message) error {
		d := mail.NewDialer(emailCfg.SMTP.Host, emailCfg.SMTP.Port, emailCfg.SMTP.Username, emailCfg.SMTP.Password)
		return d.DialAndSend(m)
	}
	return s
}

// notificationMessage is a channel-neutral event description.
type notificationMessage struct {
	Event        models.NotificationEvent
	Title        string
	Subject      string
	FeedbackID   string
	FeedbackType models.FeedbackType
	Urgency      models.Urgency
	Body         string
}

// NotifyFeedbackSubmitted announces a new submission. Urgent submissions
// additionally raise the urgent event so channels can subscribe to either.
func (s *NotificationService) NotifyFeedbackSubmitted(ctx context.Context, feedback *models.Feedback) {
	ctx, span := observability.TraceNotificationFunction(ctx, "notify_feedback_submitted",
		observability.AttributeFeedbackID(feedback.ID))
	var err error
	defer observability.FinishSpan(span, &err)

	msg := notificationMessage{
		Event:        models.EventNewFeedback,
		Title:        "New feedback received",
		Subject:      feedback.Subject,
		FeedbackID:   feedback.ID,
		FeedbackType: feedback.FeedbackType,
		Urgency:      feedback.Urgency,
		Body:         truncate(feedback.Description, 300),
	}
	s.dispatch(ctx, msg)

	if feedback.Urgency.IsUrgent() {
		urgent := msg
		urgent.Event = models.EventUrgentFeedback
		urgent.Title = "Urgent feedback received"
		s.dispatch(ctx, urgent)
	}
}

// NotifyClarificationResponse announces that a submitter answered a
// clarification question.
func (s *NotificationService) NotifyClarificationResponse(ctx context.Context, feedback *models.Feedback, clarification *models.Clarification) {
	ctx, span := observability.TraceNotificationFunction(ctx, "notify_clarification_response",
		observability.AttributeFeedbackID(feedback.ID))
	var err error
	defer observability.FinishSpan(span, &err)

	body := ""
	if clarification.Response.Valid {
		body = truncate(clarification.Response.String, 300)
	}
	s.dispatch(ctx, notificationMessage{
		Event:        models.EventClarificationResponse,
		Title:        "Clarification answered",
		Subject:      feedback.Subject,
		FeedbackID:   feedback.ID,
		FeedbackType: feedback.FeedbackType,
		Urgency:      feedback.Urgency,
		Body:         body,
	})
}

// dispatch sends one event to every enabled channel subscribed to it.
func (s *NotificationService) dispatch(ctx context.Context, msg notificationMessage) {
	settings, err := s.settings.ListNotificationSettings(ctx)
	if err != nil {
		s.logger.Error(ctx, "Failed to load notification settings", err, map[string]interface{}{
			"event": string(msg.Event),
		})
		return
	}

	for i := range settings {
		setting := &settings[i]
		if !setting.IsEnabled || !setting.WantsEvent(msg.Event) {
			continue
		}
		if sendErr := s.sendToChannel(ctx, setting, msg); sendErr != nil {
			s.logger.Error(ctx, "Notification delivery failed", sendErr, map[string]interface{}{
				"channel":     string(setting.NotificationType),
				"event":       string(msg.Event),
				"feedback_id": msg.FeedbackID,
			})
			continue
		}
		s.logger.Debug(ctx, "Notification delivered", map[string]interface{}{
			"channel":     string(setting.NotificationType),
			"event":       string(msg.Event),
			"feedback_id": msg.FeedbackID,
		})
	}
}

func (s *NotificationService) sendToChannel(ctx context.Context, setting *models.NotificationSetting, msg notificationMessage) error {
	switch setting.NotificationType {
	case models.NotificationTelegram:
		var cfg models.TelegramConfig
		if err := json.Unmarshal(setting.Config, &cfg); err != nil {
			return contextutils.WrapError(err, "invalid telegram config")
		}
		return s.sendTelegram(ctx, &cfg, msg)
	case models.NotificationSlack:
		var cfg models.SlackConfig
		if err := json.Unmarshal(setting.Config, &cfg); err != nil {
			return contextutils.WrapError(err, "invalid slack config")
		}
		return s.sendSlack(ctx, &cfg, msg)
	case models.NotificationWebhook:
		var cfg models.WebhookConfig
		if err := json.Unmarshal(setting.Config, &cfg); err != nil {
			return contextutils.WrapError(err, "invalid webhook config")
		}
		return s.sendWebhook(ctx, &cfg, msg)
	case models.NotificationEmail:
		var cfg models.EmailChannelConfig
		if err := json.Unmarshal(setting.Config, &cfg); err != nil {
			return contextutils.WrapError(err, "invalid email config")
		}
		return s.sendEmail(ctx, &cfg, msg)
	}
	return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown notification channel: %s", setting.NotificationType)
}

// adminLink builds the triage URL for a feedback item.
func (s *NotificationService) adminLink(feedbackID string) string {
	if s.appBaseURL == "" || feedbackID == "" {
		return ""
	}
	return fmt.Sprintf("%s/admin/feedback/%s", s.appBaseURL, feedbackID)
}

func (s *NotificationService) sendTelegram(ctx context.Context, cfg *models.TelegramConfig, msg notificationMessage) error {
	text := fmt.Sprintf("<b>%s</b>\n\n<b>Subject:</b> %s\n<b>Type:</b> %s\n<b>Urgency:</b> %s",
		template.HTMLEscapeString(msg.Title),
		template.HTMLEscapeString(msg.Subject),
		msg.FeedbackType, msg.Urgency)
	if msg.Body != "" {
		text += "\n\n" + template.HTMLEscapeString(msg.Body)
	}
	if link := s.adminLink(msg.FeedbackID); link != "" {
		text += fmt.Sprintf("\n\n<a href=\"%s\">Open in the portal</a>", link)
	}
	return s.telegramSendMessage(ctx, cfg.BotToken, cfg.ChatID, text)
}

func (s *NotificationService) telegramSendMessage(ctx context.Context, botToken, chatID, text string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal telegram payload")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.telegramBase, botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return contextutils.WrapError(err, "failed to create telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrNotificationFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Description string `json:"description"`
		}
		_ = json.Unmarshal(body, &apiErr)
		if apiErr.Description != "" {
			return contextutils.WrapErrorf(contextutils.ErrNotificationFailed, "telegram: %s", apiErr.Description)
		}
		return contextutils.WrapErrorf(contextutils.ErrNotificationFailed, "telegram returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *NotificationService) sendSlack(ctx context.Context, cfg *models.SlackConfig, msg notificationMessage) error {
	color, ok := slackColorMap[msg.Urgency]
	if !ok {
		color = slackColorMap[models.UrgencyMedium]
	}

	attachment := map[string]interface{}{
		"color": color,
		"title": msg.Title,
		"text":  msg.Body,
		"fields": []map[string]interface{}{
			{"title": "Subject", "value": msg.Subject, "short": false},
			{"title": "Type", "value": string(msg.FeedbackType), "short": true},
			{"title": "Urgency", "value": string(msg.Urgency), "short": true},
		},
	}
	if link := s.adminLink(msg.FeedbackID); link != "" {
		attachment["title_link"] = link
	}
	body := map[string]interface{}{"attachments": []interface{}{attachment}}
	if cfg.Channel != "" {
		body["channel"] = cfg.Channel
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal slack payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return contextutils.WrapError(err, "failed to create slack request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrNotificationFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return contextutils.WrapErrorf(contextutils.ErrNotificationFailed, "slack returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *NotificationService) sendWebhook(ctx context.Context, cfg *models.WebhookConfig, msg notificationMessage) error {
	payload, err := json.Marshal(map[string]interface{}{
		"event":        string(msg.Event),
		"feedbackId":   msg.FeedbackID,
		"subject":      msg.Subject,
		"feedbackType": string(msg.FeedbackType),
		"urgency":      string(msg.Urgency),
		"summary":      msg.Body,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewBuffer(payload))
	if err != nil {
		return contextutils.WrapError(err, "failed to create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", string(msg.Event))
	if cfg.Secret != "" {
		req.Header.Set("X-Webhook-Secret", cfg.Secret)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrNotificationFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return contextutils.WrapErrorf(contextutils.ErrNotificationFailed, "webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *NotificationService) sendEmail(ctx context.Context, cfg *models.EmailChannelConfig, msg notificationMessage) error {
	if s.emailCfg == nil || !s.emailCfg.Enabled {
		return contextutils.WrapError(contextutils.ErrNotificationFailed, "email delivery is not configured")
	}
	if len(cfg.To) == 0 {
		return contextutils.WrapError(contextutils.ErrNotificationFailed, "email channel has no recipients")
	}

	var body bytes.Buffer
	err := emailTemplate.Execute(&body, emailTemplateData{
		Title:        msg.Title,
		Subject:      msg.Subject,
		FeedbackType: string(msg.FeedbackType),
		Urgency:      string(msg.Urgency),
		Body:         msg.Body,
		Link:         s.adminLink(msg.FeedbackID),
	})
	if err != nil {
		return contextutils.WrapError(err, "failed to render email body")
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", s.emailCfg.SMTP.FromAddress, s.emailCfg.SMTP.FromName)
	m.SetHeader("To", cfg.To...)
	m.SetHeader("Subject", fmt.Sprintf("%s: %s", msg.Title, msg.Subject))
	m.SetBody("text/html", body.String())

	if err := s.sendMail(m); err != nil {
		return contextutils.WrapError(contextutils.ErrNotificationFailed, err.Error())
	}
	return nil
}

// TestTelegram sends a test message so admins can verify their bot setup.
// Common Telegram API failures are translated into actionable messages.
func (s *NotificationService) TestTelegram(ctx context.Context, botToken, chatID string) (err error) {
	ctx, span := observability.TraceNotificationFunction(ctx, "test_telegram")
	defer observability.FinishSpan(span, &err)

	if botToken == "" || chatID == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "bot token and chat ID are required")
	}

	err = s.telegramSendMessage(ctx, botToken, chatID,
		"<b>Test notification</b>\n\nYour Telegram channel is configured correctly.")
	if err == nil {
		return nil
	}

	errText := err.Error()
	switch {
	case strings.Contains(errText, "chat not found"):
		return contextutils.WrapError(contextutils.ErrNotificationFailed,
			"chat not found: send a message to the bot first, then retry")
	case strings.Contains(errText, "bot was blocked"):
		return contextutils.WrapError(contextutils.ErrNotificationFailed,
			"the bot was blocked by this chat")
	case strings.Contains(errText, "Unauthorized"):
		return contextutils.WrapError(contextutils.ErrNotificationFailed,
			"invalid bot token")
	}
	return err
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
