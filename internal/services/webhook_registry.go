package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// RegisteredWebhook is a runtime-registered event subscriber. Registrations
// live in process memory and do not survive a restart.
type RegisteredWebhook struct {
	ID        string                     `json:"id"`
	URL       string                     `json:"url"`
	Secret    string                     `json:"secret,omitempty"`
	Events    []models.NotificationEvent `json:"events"`
	CreatedAt time.Time                  `json:"createdAt"`
}

// WebhookRegistryInterface manages runtime webhook subscriptions.
type WebhookRegistryInterface interface {
	Register(ctx context.Context, rawURL, secret string, events []models.NotificationEvent) (*RegisteredWebhook, error)
	Unregister(ctx context.Context, id string) error
	List(ctx context.Context) []RegisteredWebhook
	Trigger(ctx context.Context, event models.NotificationEvent, payload interface{})
}

// WebhookRegistry holds webhook subscriptions and fans events out to them.
type WebhookRegistry struct {
	mu         sync.RWMutex
	hooks      map[string]*RegisteredWebhook
	logger     *observability.Logger
	httpClient *http.Client
}

// NewWebhookRegistry creates a new webhook registry
func NewWebhookRegistry(logger *observability.Logger) *WebhookRegistry {
	return &WebhookRegistry{
		hooks:  make(map[string]*RegisteredWebhook),
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.WebhookDispatchTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
	}
}

// Register adds a webhook subscription. An empty event list subscribes to
// every event.
func (r *WebhookRegistry) Register(ctx context.Context, rawURL, secret string, events []models.NotificationEvent) (result0 *RegisteredWebhook, err error) {
	ctx, span := observability.TraceNotificationFunction(ctx, "register_webhook")
	defer observability.FinishSpan(span, &err)

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, contextutils.ErrInvalidWebhookURL
	}

	idBytes := make([]byte, 16)
	if _, err = rand.Read(idBytes); err != nil {
		return nil, contextutils.WrapError(err, "failed to generate webhook ID")
	}

	hook := &RegisteredWebhook{
		ID:        hex.EncodeToString(idBytes),
		URL:       rawURL,
		Secret:    secret,
		Events:    append([]models.NotificationEvent{}, events...),
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.hooks[hook.ID] = hook
	r.mu.Unlock()

	r.logger.Info(ctx, "Webhook registered", map[string]interface{}{
		"webhook_id": hook.ID,
		"events":     len(hook.Events),
	})
	return hook, nil
}

// Unregister removes a webhook subscription.
func (r *WebhookRegistry) Unregister(ctx context.Context, id string) (err error) {
	_, span := observability.TraceNotificationFunction(ctx, "unregister_webhook")
	defer observability.FinishSpan(span, &err)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hooks[id]; !ok {
		return contextutils.ErrRecordNotFound
	}
	delete(r.hooks, id)
	return nil
}

// List returns all subscriptions with secrets redacted.
func (r *WebhookRegistry) List(ctx context.Context) []RegisteredWebhook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hooks := make([]RegisteredWebhook, 0, len(r.hooks))
	for _, hook := range r.hooks {
		copied := *hook
		copied.Secret = ""
		copied.Events = append([]models.NotificationEvent{}, hook.Events...)
		hooks = append(hooks, copied)
	}
	return hooks
}

// wantsEvent reports whether a hook subscribes to the event. No events means
// all events.
func (h *RegisteredWebhook) wantsEvent(event models.NotificationEvent) bool {
	if len(h.Events) == 0 {
		return true
	}
	for _, e := range h.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Trigger posts the payload to every subscriber of the event. Failures are
// logged and never surface to the caller.
func (r *WebhookRegistry) Trigger(ctx context.Context, event models.NotificationEvent, payload interface{}) {
	ctx, span := observability.TraceNotificationFunction(ctx, "trigger_webhooks",
		observability.AttributeEventType(string(event)))
	var err error
	defer observability.FinishSpan(span, &err)

	r.mu.RLock()
	var targets []*RegisteredWebhook
	for _, hook := range r.hooks {
		if hook.wantsEvent(event) {
			targets = append(targets, hook)
		}
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error(ctx, "Failed to marshal webhook payload", err, map[string]interface{}{
			"event": string(event),
		})
		return
	}

	for _, hook := range targets {
		if sendErr := r.send(ctx, hook, event, body); sendErr != nil {
			r.logger.Error(ctx, "Webhook delivery failed", sendErr, map[string]interface{}{
				"webhook_id": hook.ID,
				"event":      string(event),
			})
			continue
		}
		r.logger.Debug(ctx, "Webhook delivered", map[string]interface{}{
			"webhook_id": hook.ID,
			"event":      string(event),
		})
	}
}

func (r *WebhookRegistry) send(ctx context.Context, hook *RegisteredWebhook, event models.NotificationEvent, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return contextutils.WrapError(err, "failed to create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", string(event))
	if hook.Secret != "" {
		req.Header.Set("X-Webhook-Secret", hook.Secret)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrNotificationFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return contextutils.WrapErrorf(contextutils.ErrNotificationFailed, "webhook returned status %d", resp.StatusCode)
	}
	return nil
}
