package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider records the requests it receives.
type mockProvider struct {
	name     string
	models   []string
	lastReq  *CompletionRequest
	response *CompletionResponse
	err      error
}

func (m *mockProvider) Name() string     { return m.name }
func (m *mockProvider) Models() []string { return m.models }

func (m *mockProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &CompletionResponse{Model: req.Model, Content: "ok"}, nil
}

func (m *mockProvider) CountTokens(content string) (int, error) {
	return EstimateTokens(content), nil
}

func TestNewRouter_DefaultsToFirstModel(t *testing.T) {
	provider := &mockProvider{name: "mock", models: []string{"m-fast", "m-smart"}}
	router := NewRouter(provider)

	assert.Equal(t, "m-fast", router.CritiqueModel())
	assert.Equal(t, "m-fast", router.SynthesisModel())
}

func TestRouter_ForCritiquePinsModel(t *testing.T) {
	provider := &mockProvider{name: "mock", models: []string{"m-fast", "m-smart"}}
	router := NewRouter(provider).
		SetCritiqueModel("m-fast").
		SetSynthesisModel("m-smart")

	_, err := router.ForCritique().Complete(context.Background(), &CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "m-fast", provider.lastReq.Model)

	_, err = router.ForSynthesis().Complete(context.Background(), &CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "m-smart", provider.lastReq.Model)
}

func TestRouter_CompleteUsesDefaultModel(t *testing.T) {
	provider := &mockProvider{name: "mock", models: []string{"m-fast"}}
	router := NewRouter(provider).SetDefaultModel("m-default")

	_, err := router.Complete(context.Background(), &CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "m-default", provider.lastReq.Model)

	// An explicit model is left alone
	_, err = router.Complete(context.Background(), &CompletionRequest{Model: "m-explicit"})
	require.NoError(t, err)
	assert.Equal(t, "m-explicit", provider.lastReq.Model)
}

func TestRouter_Name(t *testing.T) {
	provider := &mockProvider{name: "mock", models: []string{"m"}}
	assert.Equal(t, "router:mock", NewRouter(provider).Name())
}

func TestMultiProvider_FallsBack(t *testing.T) {
	broken := &mockProvider{name: "broken", err: fmt.Errorf("unreachable")}
	working := &mockProvider{name: "working", models: []string{"m"}}

	mp := NewMultiProvider(broken, working)

	resp, err := mp.Complete(context.Background(), &CompletionRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestMultiProvider_NoFallbackOnAuthError(t *testing.T) {
	badKey := &mockProvider{name: "badkey", err: &ProviderError{
		Provider: "gemini",
		Code:     "authentication_error",
		Message:  "bad key",
	}}
	working := &mockProvider{name: "working"}

	mp := NewMultiProvider(badKey, working)

	_, err := mp.Complete(context.Background(), &CompletionRequest{})
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Nil(t, working.lastReq, "fallback should not run on auth errors")
}

func TestMultiProvider_AllFail(t *testing.T) {
	a := &mockProvider{name: "a", err: fmt.Errorf("down")}
	b := &mockProvider{name: "b", err: fmt.Errorf("also down")}

	_, err := NewMultiProvider(a, b).Complete(context.Background(), &CompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
}

func TestMultiProvider_ModelsDeduplicated(t *testing.T) {
	a := &mockProvider{name: "a", models: []string{"m1", "m2"}}
	b := &mockProvider{name: "b", models: []string{"m2", "m3"}}

	models := NewMultiProvider(a, b).Models()
	assert.Equal(t, []string{"m1", "m2", "m3"}, models)
}

func TestProviderError_Helpers(t *testing.T) {
	rateLimited := &ProviderError{Provider: "gemini", Code: "rate_limit", Message: "slow down"}
	assert.True(t, IsRateLimitError(rateLimited))
	assert.False(t, IsAuthError(rateLimited))

	tooLong := &ProviderError{Provider: "gemini", Code: "context_length_exceeded", Message: "too long"}
	assert.True(t, IsContextLengthError(tooLong))

	assert.False(t, IsRateLimitError(fmt.Errorf("plain error")))
}

func TestUserImageMessage(t *testing.T) {
	msg := UserImageMessage("critique this", "image/png", []byte{1, 2, 3})

	assert.Equal(t, "user", msg.Role)
	assert.Equal(t, "critique this", msg.Content)
	require.Len(t, msg.Images, 1)
	assert.Equal(t, "image/png", msg.Images[0].MIMEType)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 25, EstimateTokens(string(make([]byte, 100))))
}
