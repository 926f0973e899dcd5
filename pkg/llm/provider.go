// Package llm provides LLM provider abstraction for critique generation.
package llm

import (
	"context"
	"fmt"
)

// Provider defines the interface for LLM backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Models returns available model identifiers.
	Models() []string

	// Complete generates a completion.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates token count for content.
	CountTokens(content string) (int, error)
}

// CompletionRequest is a request to generate a completion.
type CompletionRequest struct {
	// Model is the model identifier.
	Model string `json:"model"`

	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// System is the system prompt.
	System string `json:"system,omitempty"`

	// MaxTokens limits the response length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0-1).
	Temperature float64 `json:"temperature,omitempty"`

	// Metadata contains additional request metadata.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CompletionResponse is the response from a completion request.
type CompletionResponse struct {
	// ID is the response identifier.
	ID string `json:"id"`

	// Model is the model that generated the response.
	Model string `json:"model"`

	// Content is the text response.
	Content string `json:"content"`

	// FinishReason indicates why generation stopped.
	// Values: "stop", "max_tokens".
	FinishReason string `json:"finish_reason"`

	// Usage contains token counts.
	Usage TokenUsage `json:"usage"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	// PromptTokens is input token count.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is output token count.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum.
	TotalTokens int `json:"total_tokens"`
}

// Message represents a conversation message.
type Message struct {
	// Role is the message role.
	// Values: "user", "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Images are inline image attachments (vision input).
	Images []Image `json:"images,omitempty"`
}

// Image is an inline image attachment.
type Image struct {
	// MIMEType is the image MIME type, e.g. "image/png".
	MIMEType string `json:"mime_type"`

	// Data is the raw image bytes.
	Data []byte `json:"data"`
}

// NewMessage creates a new message.
func NewMessage(role, content string) Message {
	return Message{
		Role:    role,
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return NewMessage("user", content)
}

// UserImageMessage creates a user message carrying an inline image.
func UserImageMessage(content string, mimeType string, data []byte) Message {
	return Message{
		Role:    "user",
		Content: content,
		Images:  []Image{{MIMEType: mimeType, Data: data}},
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return NewMessage("assistant", content)
}

// EstimateTokens gives a rough token estimate (~4 characters per token).
func EstimateTokens(content string) int {
	return len(content) / 4
}

// ProviderError represents a provider-specific error.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Provider, e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if the error is a rate limit error.
func IsRateLimitError(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Code == "rate_limit" || pe.Code == "rate_limit_exceeded"
	}
	return false
}

// IsAuthError checks if the error is an authentication error.
func IsAuthError(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Code == "authentication_error" || pe.Code == "invalid_api_key"
	}
	return false
}

// IsContextLengthError checks if the error is a context length error.
func IsContextLengthError(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Code == "context_length_exceeded"
	}
	return false
}
