package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface using the Gemini SDK.
type GeminiProvider struct {
	client   *genai.Client
	models   []string
	thinking string
	timeout  time.Duration
}

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey   string
	Thinking string // NONE, LOW, NORMAL, HIGH
	Timeout  time.Duration
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ProviderError{
			Provider: "gemini",
			Code:     "invalid_api_key",
			Message:  "no API key configured",
		}
	}
	if cfg.Thinking == "" {
		cfg.Thinking = "NORMAL"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:   client,
		thinking: cfg.Thinking,
		timeout:  cfg.Timeout,
		models: []string{
			"gemini-3-flash-preview",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	}, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Models returns available model identifiers.
func (p *GeminiProvider) Models() []string {
	return p.models
}

// Complete generates a completion.
func (p *GeminiProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" && len(p.models) > 0 {
		model = p.models[0]
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingLevel: thinkingLevel(p.thinking),
		},
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	contents := toGeminiContents(req.Messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("no messages in request")
	}

	result, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, p.wrapError(err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return nil, &ProviderError{
			Provider: "gemini",
			Code:     "empty_response",
			Message:  "empty response from API",
		}
	}

	candidate := result.Candidates[0]

	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}

	resp := &CompletionResponse{
		ID:           result.ResponseID,
		Model:        model,
		Content:      text.String(),
		FinishReason: mapFinishReason(candidate.FinishReason),
	}

	if result.UsageMetadata != nil {
		resp.Usage = TokenUsage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return resp, nil
}

// CountTokens estimates token count.
func (p *GeminiProvider) CountTokens(content string) (int, error) {
	return EstimateTokens(content), nil
}

// toGeminiContents converts messages to the SDK content format.
func toGeminiContents(messages []Message) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range messages {
		role := genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		if msg.Content != "" {
			parts = append(parts, &genai.Part{Text: msg.Content})
		}
		for _, img := range msg.Images {
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{
					MIMEType: img.MIMEType,
					Data:     img.Data,
				},
			})
		}
		if len(parts) == 0 {
			continue
		}

		contents = append(contents, &genai.Content{Role: string(role), Parts: parts})
	}

	return contents
}

// thinkingLevel converts string thinking level to SDK enum.
func thinkingLevel(level string) genai.ThinkingLevel {
	switch strings.ToUpper(level) {
	case "NONE":
		return genai.ThinkingLevelMinimal
	case "LOW":
		return genai.ThinkingLevelLow
	case "NORMAL":
		return genai.ThinkingLevelMedium
	case "HIGH":
		return genai.ThinkingLevelHigh
	default:
		return genai.ThinkingLevelMedium
	}
}

// mapFinishReason converts the SDK finish reason to our format.
func mapFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonStop:
		return "stop"
	case genai.FinishReasonMaxTokens:
		return "max_tokens"
	default:
		return strings.ToLower(string(reason))
	}
}

// wrapError maps SDK errors onto the provider error taxonomy.
func (p *GeminiProvider) wrapError(err error) error {
	msg := err.Error()
	code := "api_error"

	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		code = "rate_limit"
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "API key"):
		code = "authentication_error"
	case strings.Contains(msg, "token") && strings.Contains(msg, "exceed"):
		code = "context_length_exceeded"
	}

	return &ProviderError{
		Provider: "gemini",
		Code:     code,
		Message:  "generate content failed",
		Err:      err,
	}
}
