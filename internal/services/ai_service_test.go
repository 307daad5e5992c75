package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAIService(t *testing.T, providerURL string) *AIService {
	t.Helper()
	cfg := &config.AIConfig{
		URL:            providerURL,
		Model:          "test-model",
		APIKey:         "test-key",
		Enabled:        true,
		TimeoutSeconds: 2,
	}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewAIService(cfg, logger)
}

func providerResponse(t *testing.T, analysisJSON string) []byte {
	t.Helper()
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": analysisJSON},
					},
				},
			},
		},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return data
}

func TestAnalyzeFeedback_Success(t *testing.T) {
	analysis := `{
		"category": "bug",
		"urgency": "high",
		"sentiment": "negative",
		"summary": "Printer in the east wing keeps jamming.",
		"actionItems": ["Service the east wing printer"],
		"keyTopics": ["printer", "hardware"],
		"isActionable": true,
		"suggestedTags": ["performance"]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "test-model:generateContent")
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "contents")
		assert.Contains(t, body, "generationConfig")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(providerResponse(t, analysis))
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL)
	result, err := svc.AnalyzeFeedback(context.Background(), &AnalysisRequest{
		Subject:      "Printer broken",
		Description:  "The printer in the east wing keeps jamming every morning",
		FeedbackType: models.FeedbackTypeConcern,
		Urgency:      models.UrgencyHigh,
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "bug", result.Category)
	assert.Equal(t, "high", result.Urgency)
	assert.Equal(t, "negative", result.Sentiment)
	assert.True(t, result.IsActionable)
	assert.Equal(t, []string{"Service the east wing printer"}, result.ActionItems)
	assert.Equal(t, []string{"performance"}, result.SuggestedTags)
}

func TestAnalyzeFeedback_MixedSentimentAccepted(t *testing.T) {
	analysis := `{
		"category": "Facilities",
		"urgency": "medium",
		"sentiment": "mixed",
		"summary": "Likes the new desks but the chairs hurt.",
		"isActionable": true
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(providerResponse(t, analysis))
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL)
	result, err := svc.AnalyzeFeedback(context.Background(), &AnalysisRequest{
		Subject:      "New desks",
		Description:  "The standing desks are great but the chairs are painful",
		FeedbackType: models.FeedbackTypeSuggestion,
		Urgency:      models.UrgencyMedium,
	})

	require.NoError(t, err)
	assert.Equal(t, "mixed", result.Sentiment)
}

func TestBuildAnalysisPrompt_IncludesAllInputs(t *testing.T) {
	svc := newTestAIService(t, "http://localhost:1")
	prompt := svc.buildAnalysisPrompt(&AnalysisRequest{
		Subject:           "Parking shortage",
		Description:       "The north lot fills up before nine",
		FeedbackType:      models.FeedbackTypeConcern,
		Urgency:           models.UrgencyHigh,
		Impact:            "People arrive late to morning meetings",
		SuggestedSolution: "Open the overflow lot on weekdays",
		Categories:        []string{"Parking", "Facilities"},
		Tags:              []string{"commute", "north-lot"},
	})

	assert.Contains(t, prompt, "Parking shortage")
	assert.Contains(t, prompt, "Impact: People arrive late to morning meetings")
	assert.Contains(t, prompt, "Suggested solution: Open the overflow lot on weekdays")
	assert.Contains(t, prompt, "Parking, Facilities")
	assert.Contains(t, prompt, "commute, north-lot")
}

func TestAnalyzeFeedback_DisabledReturnsUnavailable(t *testing.T) {
	svc := newTestAIService(t, "http://localhost:1")
	svc.cfg.APIKey = ""

	result, err := svc.AnalyzeFeedback(context.Background(), &AnalysisRequest{
		Subject:      "Anything",
		Description:  "Anything at all",
		FeedbackType: models.FeedbackTypeQuestion,
		Urgency:      models.UrgencyLow,
	})

	assert.Nil(t, result)
	assert.True(t, contextutils.IsError(err, contextutils.ErrAIProviderUnavailable))
}

func TestAnalyzeFeedback_SchemaViolationRejected(t *testing.T) {
	// urgency outside the allowed enum
	analysis := `{
		"category": "bug",
		"urgency": "catastrophic",
		"sentiment": "negative",
		"summary": "bad",
		"isActionable": true
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(providerResponse(t, analysis))
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL)
	result, err := svc.AnalyzeFeedback(context.Background(), &AnalysisRequest{
		Subject:      "Printer broken",
		Description:  "The printer keeps jamming",
		FeedbackType: models.FeedbackTypeConcern,
		Urgency:      models.UrgencyHigh,
	})

	assert.Nil(t, result)
	assert.True(t, contextutils.IsError(err, contextutils.ErrAIResponseInvalid))
}

func TestAnalyzeFeedback_MalformedProviderResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL)
	_, err := svc.AnalyzeFeedback(context.Background(), &AnalysisRequest{
		Subject:      "Subject",
		Description:  "Description",
		FeedbackType: models.FeedbackTypeConcern,
		Urgency:      models.UrgencyMedium,
	})

	assert.True(t, contextutils.IsError(err, contextutils.ErrAIResponseInvalid))
}

func TestAnalyzeFeedback_ProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := newTestAIService(t, server.URL)
	_, err := svc.AnalyzeFeedback(context.Background(), &AnalysisRequest{
		Subject:      "Subject",
		Description:  "Description",
		FeedbackType: models.FeedbackTypeConcern,
		Urgency:      models.UrgencyMedium,
	})

	assert.True(t, contextutils.IsError(err, contextutils.ErrAIRequestFailed))
}

func TestAnalyzeFeedback_TimeoutEnforced(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	svc := newTestAIService(t, server.URL)
	svc.cfg.TimeoutSeconds = 1
	svc.httpClient.Timeout = 500 * time.Millisecond

	start := time.Now()
	_, err := svc.AnalyzeFeedback(context.Background(), &AnalysisRequest{
		Subject:      "Subject",
		Description:  "Description",
		FeedbackType: models.FeedbackTypeConcern,
		Urgency:      models.UrgencyMedium,
	})

	assert.True(t, contextutils.IsError(err, contextutils.ErrAIRequestFailed))
	assert.Less(t, time.Since(start), 5*time.Second)
}
