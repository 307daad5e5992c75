package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "gopkg.in/mail.v2"
)

type stubSettingsSource struct {
	settings []models.NotificationSetting
	err      error
}

func (s *stubSettingsSource) ListNotificationSettings(ctx context.Context) ([]models.NotificationSetting, error) {
	return s.settings, s.err
}

func newTestNotificationService(t *testing.T, settings []models.NotificationSetting) *NotificationService {
	t.Helper()
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	emailCfg := &config.EmailConfig{
		Enabled: true,
		SMTP:    config.SMTPConfig{FromAddress: "portal@example.com", FromName: "Feedback Portal"},
	}
	return NewNotificationService(&stubSettingsSource{settings: settings}, emailCfg, "https://portal.example.com", logger)
}

func channelSetting(t *testing.T, nt models.NotificationType, cfg interface{}, urgentOnly bool) models.NotificationSetting {
	t.Helper()
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	return models.NotificationSetting{
		NotificationType:              nt,
		IsEnabled:                     true,
		Config:                        raw,
		NotifyOnNewFeedback:           !urgentOnly,
		NotifyOnUrgentFeedback:        true,
		NotifyOnClarificationResponse: true,
	}
}

func sampleFeedback(urgency models.Urgency) *models.Feedback {
	return &models.Feedback{
		ID:           "fb-1",
		Subject:      "Printer broken",
		Description:  "The printer in the east wing keeps jamming",
		FeedbackType: models.FeedbackTypeConcern,
		Urgency:      urgency,
	}
}

func TestNotifyFeedbackSubmitted_Telegram(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken123/sendMessage", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	svc := newTestNotificationService(t, []models.NotificationSetting{
		channelSetting(t, models.NotificationTelegram, models.TelegramConfig{BotToken: "token123", ChatID: "42"}, false),
	})
	svc.telegramBase = server.URL

	svc.NotifyFeedbackSubmitted(context.Background(), sampleFeedback(models.UrgencyMedium))

	body := <-received
	assert.Equal(t, "42", body["chat_id"])
	assert.Equal(t, "HTML", body["parse_mode"])
	text, _ := body["text"].(string)
	assert.Contains(t, text, "New feedback received")
	assert.Contains(t, text, "Printer broken")
	assert.Contains(t, text, "https://portal.example.com/admin/feedback/fb-1")
}

func TestNotifyFeedbackSubmitted_UrgentRaisesSecondEvent(t *testing.T) {
	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Attachments []struct {
				Title string `json:"title"`
				Color string `json:"color"`
			} `json:"attachments"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Len(t, payload.Attachments, 1)
		titles = append(titles, payload.Attachments[0].Title)
		assert.Equal(t, "#dc2626", payload.Attachments[0].Color)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestNotificationService(t, []models.NotificationSetting{
		channelSetting(t, models.NotificationSlack, models.SlackConfig{WebhookURL: server.URL}, false),
	})

	svc.NotifyFeedbackSubmitted(context.Background(), sampleFeedback(models.UrgencyCritical))

	require.Len(t, titles, 2)
	assert.Equal(t, "New feedback received", titles[0])
	assert.Equal(t, "Urgent feedback received", titles[1])
}

func TestNotifyFeedbackSubmitted_UrgentOnlyChannelSkipsRoutineEvents(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := newTestNotificationService(t, []models.NotificationSetting{
		channelSetting(t, models.NotificationSlack, models.SlackConfig{WebhookURL: server.URL}, true),
	})

	svc.NotifyFeedbackSubmitted(context.Background(), sampleFeedback(models.UrgencyLow))
	assert.Equal(t, 0, calls)

	svc.NotifyFeedbackSubmitted(context.Background(), sampleFeedback(models.UrgencyHigh))
	assert.Equal(t, 1, calls)
}

func TestDispatch_GenericWebhookHeaders(t *testing.T) {
	done := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "new_feedback", r.Header.Get("X-Event-Type"))
		assert.Equal(t, "sekrit", r.Header.Get("X-Webhook-Secret"))
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "fb-1", payload["feedbackId"])
		assert.Equal(t, "concern", payload["feedbackType"])
		done <- struct{}{}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	svc := newTestNotificationService(t, []models.NotificationSetting{
		channelSetting(t, models.NotificationWebhook, models.WebhookConfig{URL: server.URL, Secret: "sekrit"}, false),
	})

	svc.NotifyFeedbackSubmitted(context.Background(), sampleFeedback(models.UrgencyMedium))
	<-done
}

func TestDispatch_FailingChannelDoesNotBlockOthers(t *testing.T) {
	delivered := 0
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered++
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()
	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer failServer.Close()

	svc := newTestNotificationService(t, []models.NotificationSetting{
		channelSetting(t, models.NotificationWebhook, models.WebhookConfig{URL: failServer.URL}, false),
		channelSetting(t, models.NotificationSlack, models.SlackConfig{WebhookURL: okServer.URL}, false),
	})

	svc.NotifyFeedbackSubmitted(context.Background(), sampleFeedback(models.UrgencyLow))
	assert.Equal(t, 1, delivered)
}

func TestNotifyClarificationResponse_Email(t *testing.T) {
	var sent *mail.Message
	svc := newTestNotificationService(t, []models.NotificationSetting{
		channelSetting(t, models.NotificationEmail, models.EmailChannelConfig{To: []string{"admin@example.com"}}, false),
	})
	svc.sendMail = func(m *mail.Message) error {
		sent = m
		return nil
	}

	feedback := sampleFeedback(models.UrgencyMedium)
	clarification := &models.Clarification{
		ID:         "cl-1",
		FeedbackID: "fb-1",
		Question:   "Which wing?",
	}
	clarification.Response.String = "East wing"
	clarification.Response.Valid = true

	svc.NotifyClarificationResponse(context.Background(), feedback, clarification)

	require.NotNil(t, sent)
	assert.Equal(t, []string{"admin@example.com"}, sent.GetHeader("To"))
	subject := sent.GetHeader("Subject")
	require.Len(t, subject, 1)
	assert.Contains(t, subject[0], "Clarification answered")
}

func TestSendEmail_MultipleRecipients(t *testing.T) {
	var sent *mail.Message
	svc := newTestNotificationService(t, []models.NotificationSetting{
		channelSetting(t, models.NotificationEmail, models.EmailChannelConfig{
			To: []string{"ops@example.com", "facilities@example.com"},
		}, false),
	})
	svc.sendMail = func(m *mail.Message) error {
		sent = m
		return nil
	}

	svc.NotifyFeedbackSubmitted(context.Background(), sampleFeedback(models.UrgencyMedium))

	require.NotNil(t, sent)
	assert.Equal(t, []string{"ops@example.com", "facilities@example.com"}, sent.GetHeader("To"))
}

func TestSendEmail_NoRecipientsSkipped(t *testing.T) {
	called := false
	svc := newTestNotificationService(t, []models.NotificationSetting{
		channelSetting(t, models.NotificationEmail, models.EmailChannelConfig{To: nil}, false),
	})
	svc.sendMail = func(m *mail.Message) error {
		called = true
		return nil
	}

	svc.NotifyFeedbackSubmitted(context.Background(), sampleFeedback(models.UrgencyMedium))

	assert.False(t, called)
}

func TestTestTelegram_FriendlyErrors(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    string
	}{
		{"chat not found", "Bad Request: chat not found", "send a message to the bot first"},
		{"blocked", "Forbidden: bot was blocked by the user", "blocked"},
		{"bad token", "Unauthorized", "invalid bot token"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"ok":          false,
					"description": tc.description,
				})
			}))
			defer server.Close()

			svc := newTestNotificationService(t, nil)
			svc.telegramBase = server.URL

			err := svc.TestTelegram(context.Background(), "token", "42")
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.expected), "error %q should mention %q", err.Error(), tc.expected)
		})
	}
}

func TestTestTelegram_RequiresCredentials(t *testing.T) {
	svc := newTestNotificationService(t, nil)
	assert.Error(t, svc.TestTelegram(context.Background(), "", "42"))
	assert.Error(t, svc.TestTelegram(context.Background(), "token", ""))
}

func TestTestTelegram_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	svc := newTestNotificationService(t, nil)
	svc.telegramBase = server.URL

	assert.NoError(t, svc.TestTelegram(context.Background(), "token", "42"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
