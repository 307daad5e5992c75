package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FeedbackAnalysisSchema validates the structured analysis document returned
// by the AI provider before it is persisted.
const FeedbackAnalysisSchema = `{
	"type": "object",
	"properties": {
		"category": {"type": "string"},
		"urgency": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
		"sentiment": {"type": "string", "enum": ["positive", "neutral", "negative", "mixed"]},
		"summary": {"type": "string"},
		"actionItems": {"type": "array", "items": {"type": "string"}},
		"keyTopics": {"type": "array", "items": {"type": "string"}},
		"isActionable": {"type": "boolean"},
		"suggestedTags": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["category", "urgency", "sentiment", "summary", "isActionable"]
}`

// AnalysisRequest carries the submission fields the AI provider sees.
// Categories and Tags are the currently active names, so the provider can
// pick from the configured vocabulary instead of inventing its own.
type AnalysisRequest struct {
	Subject           string
	Description       string
	FeedbackType      models.FeedbackType
	Urgency           models.Urgency
	Impact            string
	SuggestedSolution string
	Categories        []string
	Tags              []string
}

// AIServiceInterface defines the AI categorization collaborator. Analysis is
// strictly best effort: callers log and continue on any error.
type AIServiceInterface interface {
	AnalyzeFeedback(ctx context.Context, req *AnalysisRequest) (*models.FeedbackAnalysis, error)
	IsEnabled() bool
}

// AIService calls a Gemini-style generateContent endpoint for feedback
// categorization.
type AIService struct {
	cfg        *config.AIConfig
	logger     *observability.Logger
	httpClient *http.Client
}

// NewAIService creates a new AI analysis service
func NewAIService(cfg *config.AIConfig, logger *observability.Logger) *AIService {
	httpClient := &http.Client{
		Timeout: cfg.Timeout(),
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}
	return &AIService{
		cfg:        cfg,
		logger:     logger,
		httpClient: httpClient,
	}
}

// IsEnabled reports whether an AI provider is configured.
func (s *AIService) IsEnabled() bool {
	return s.cfg.Enabled && s.cfg.URL != "" && s.cfg.APIKey != ""
}

// geminiRequest is the provider request envelope.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
	Temperature      float64         `json:"temperature"`
}

// geminiResponse is the subset of the provider response we consume.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// AnalyzeFeedback asks the provider to categorize a submission. The request
// is bounded by the configured timeout; any failure is returned as an error
// and never blocks the submission pipeline.
func (s *AIService) AnalyzeFeedback(ctx context.Context, req *AnalysisRequest) (result0 *models.FeedbackAnalysis, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "analyze_feedback",
		attribute.String("feedback.type", string(req.FeedbackType)),
		attribute.String("feedback.urgency", string(req.Urgency)),
	)
	defer observability.FinishSpan(span, &err)

	if !s.IsEnabled() {
		return nil, contextutils.ErrAIProviderUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout())
	defer cancel()

	prompt := s.buildAnalysisPrompt(req)

	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   json.RawMessage(FeedbackAnalysisSchema),
			Temperature:      0.2,
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to marshal analysis request")
	}

	apiURL := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimSuffix(s.cfg.URL, "/"), s.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create analysis request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", s.cfg.APIKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrAIRequestFailed, err.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close AI response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	maxBytes := s.cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultAIMaxResponseBytes
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrAIRequestFailed, "failed to read provider response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "provider returned status %d", resp.StatusCode)
	}

	var providerResp geminiResponse
	if err := json.Unmarshal(respBody, &providerResp); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, err.Error())
	}
	if len(providerResp.Candidates) == 0 || len(providerResp.Candidates[0].Content.Parts) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "provider returned no candidates")
	}

	analysisJSON := providerResp.Candidates[0].Content.Parts[0].Text

	analysis, err := s.parseAnalysis(analysisJSON)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "AI analysis completed", map[string]interface{}{
		"category":  analysis.Category,
		"urgency":   analysis.Urgency,
		"sentiment": analysis.Sentiment,
	})

	return analysis, nil
}

// parseAnalysis validates the provider output against the analysis schema
// and decodes it.
func (s *AIService) parseAnalysis(analysisJSON string) (result0 *models.FeedbackAnalysis, err error) {
	validation, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(FeedbackAnalysisSchema),
		gojsonschema.NewStringLoader(analysisJSON),
	)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, err.Error())
	}
	if !validation.Valid() {
		var problems []string
		for _, desc := range validation.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "schema validation failed: %s", strings.Join(problems, "; "))
	}

	var analysis models.FeedbackAnalysis
	if err := json.Unmarshal([]byte(analysisJSON), &analysis); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, err.Error())
	}
	return &analysis, nil
}

// buildAnalysisPrompt renders the categorization prompt for a submission.
func (s *AIService) buildAnalysisPrompt(req *AnalysisRequest) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following anonymous feedback and return a JSON document ")
	sb.WriteString("with category, urgency, sentiment, a one-sentence summary, action items, ")
	sb.WriteString("key topics, whether it is actionable, and suggested tags.\n\n")
	if len(req.Categories) > 0 {
		fmt.Fprintf(&sb, "Pick the category from this list when one fits: %s\n", strings.Join(req.Categories, ", "))
	}
	if len(req.Tags) > 0 {
		fmt.Fprintf(&sb, "Suggest tags from this list when they fit: %s\n", strings.Join(req.Tags, ", "))
	}
	fmt.Fprintf(&sb, "\nType: %s\n", req.FeedbackType)
	fmt.Fprintf(&sb, "Submitter urgency: %s\n", req.Urgency)
	fmt.Fprintf(&sb, "Subject: %s\n", req.Subject)
	fmt.Fprintf(&sb, "Description: %s\n", req.Description)
	if req.Impact != "" {
		fmt.Fprintf(&sb, "Impact: %s\n", req.Impact)
	}
	if req.SuggestedSolution != "" {
		fmt.Fprintf(&sb, "Suggested solution: %s\n", req.SuggestedSolution)
	}
	return sb.String()
}
