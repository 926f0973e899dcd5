package roast

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roast/pkg/llm"
	"roast/pkg/persona"
	"roast/pkg/report"
)

// scriptedProvider returns canned critiques per persona system prompt
// and a fixed summary for synthesis calls.
type scriptedProvider struct {
	critiques map[string]string // keyed by system prompt
	summary   string
	calls     int
	failAll   bool
}

func (p *scriptedProvider) Name() string     { return "scripted" }
func (p *scriptedProvider) Models() []string { return []string{"scripted-1"} }

func (p *scriptedProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	if p.failAll {
		return nil, fmt.Errorf("backend down")
	}

	// Critique requests carry the screenshot inline
	if len(req.Messages) > 0 && len(req.Messages[0].Images) > 0 {
		return &llm.CompletionResponse{Content: p.critiques[req.System], FinishReason: "stop"}, nil
	}
	return &llm.CompletionResponse{Content: p.summary, FinishReason: "stop"}, nil
}

func (p *scriptedProvider) CountTokens(content string) (int, error) {
	return llm.EstimateTokens(content), nil
}

func testRegistry(t *testing.T) *persona.Registry {
	t.Helper()

	r := persona.NewEmptyRegistry()
	require.NoError(t, r.Register(persona.Persona{
		ID: "designer", Name: "Visual Designer", Focus: "design", System: "design-review",
	}))
	require.NoError(t, r.Register(persona.Persona{
		ID: "a11y", Name: "Accessibility Auditor", Focus: "accessibility", System: "a11y-review",
	}))
	return r
}

func testOrchestrator(t *testing.T, provider llm.Provider, cfg Config, opts ...Option) *Orchestrator {
	t.Helper()

	workdir, err := report.NewWorkdir(t.TempDir())
	require.NoError(t, err)

	base := []Option{
		WithRegistry(testRegistry(t)),
		WithWorkdir(workdir),
		WithConfig(cfg),
	}
	orch, err := NewOrchestrator(llm.NewRouter(provider), append(base, opts...)...)
	require.NoError(t, err)
	return orch
}

var fakePNG = []byte("\x89PNG fake image data")

func TestNewOrchestrator_RequiresRouter(t *testing.T) {
	_, err := NewOrchestrator(nil)
	assert.Error(t, err)
}

func TestNewOrchestrator_RejectsUnknownFocus(t *testing.T) {
	provider := &scriptedProvider{}
	workdir, err := report.NewWorkdir(t.TempDir())
	require.NoError(t, err)

	_, err = NewOrchestrator(llm.NewRouter(provider),
		WithRegistry(testRegistry(t)),
		WithWorkdir(workdir),
		WithConfig(Config{Focus: "no-such-tag"}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown focus")
}

func TestRun_SingleIteration(t *testing.T) {
	provider := &scriptedProvider{
		critiques: map[string]string{
			"design-review": "- [P1] Contrast failure: gray on white.\n- [P3] Crowded header: no spacing.",
			"a11y-review":   "- [P2] Focus ring missing: buttons have no focus state.",
		},
		summary: "The screen has one blocking contrast problem.",
	}

	orch := testOrchestrator(t, provider, Config{Iterations: 1, FixMode: FixModeDeep})

	result, err := orch.Run(context.Background(), Target{Topic: "Checkout Page", Image: fakePNG}, nil)
	require.NoError(t, err)

	assert.Equal(t, "checkout-page", result.Topic)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Iterations, 1)

	iter := result.Iterations[0]
	assert.Equal(t, 1, iter.Number)
	assert.Len(t, iter.Findings, 3)
	assert.Equal(t, 3, iter.New)
	assert.Equal(t, 0, iter.Recurring)

	// Highest severity first with no focus set
	assert.Equal(t, SeverityP1, iter.Findings[0].Severity)

	// Report and screenshot artifacts on disk
	content, err := os.ReadFile(iter.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Roast: checkout-page (iteration 1)")
	assert.Contains(t, string(content), "Contrast failure")
	assert.Contains(t, string(content), "blocking contrast problem")

	_, err = os.Stat(iter.ScreenshotPath)
	assert.NoError(t, err)
}

func TestRun_FocusReordersFindings(t *testing.T) {
	provider := &scriptedProvider{
		critiques: map[string]string{
			"design-review": "- [P1] Contrast failure: gray on white.",
			"a11y-review":   "- [P3] Small targets: touch targets under 44px.",
		},
	}

	orch := testOrchestrator(t, provider, Config{
		Iterations: 1,
		FixMode:    FixModeDeep,
		Focus:      "accessibility",
	})

	result, err := orch.Run(context.Background(), Target{Topic: "signup", Image: fakePNG}, nil)
	require.NoError(t, err)

	findings := result.Iterations[0].Findings
	require.Len(t, findings, 2)

	// Focused P3 (2*1.5=3) outranks off-focus P1 (4*0.5=2)
	assert.Equal(t, "a11y", findings[0].PersonaID)
	assert.Equal(t, 3.0, findings[0].Weighted)
	assert.Equal(t, 2.0, findings[1].Weighted)
}

func TestRun_CapturesURLTargets(t *testing.T) {
	provider := &scriptedProvider{
		critiques: map[string]string{
			"design-review": "- [P2] Issue: detail.",
			"a11y-review":   "- [P2] Issue: detail.",
		},
	}

	captured := ""
	orch := testOrchestrator(t, provider, Config{Iterations: 1, FixMode: FixModeDeep},
		WithCapture(func(ctx context.Context, url string) ([]byte, error) {
			captured = url
			return fakePNG, nil
		}),
	)

	_, err := orch.Run(context.Background(), Target{Topic: "home", URL: "https://example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", captured)
}

func TestRun_URLWithoutCaptureFails(t *testing.T) {
	provider := &scriptedProvider{}
	orch := testOrchestrator(t, provider, Config{Iterations: 1})

	_, err := orch.Run(context.Background(), Target{Topic: "home", URL: "https://example.com"}, nil)
	assert.Error(t, err)
}

func TestRun_NeedsURLOrImage(t *testing.T) {
	provider := &scriptedProvider{}
	orch := testOrchestrator(t, provider, Config{Iterations: 1})

	_, err := orch.Run(context.Background(), Target{Topic: "home"}, nil)
	assert.Error(t, err)
}

func TestRun_ShipModeStopsAfterOneIteration(t *testing.T) {
	provider := &scriptedProvider{
		critiques: map[string]string{
			"design-review": "- [P2] Issue: detail.",
			"a11y-review":   "- [P2] Issue: detail.",
		},
	}

	orch := testOrchestrator(t, provider, Config{Iterations: 5, FixMode: FixModeShip})

	result, err := orch.Run(context.Background(), Target{Topic: "t", Image: fakePNG}, nil)
	require.NoError(t, err)

	assert.Len(t, result.Iterations, 1)
	assert.Equal(t, "shipped", result.Stopped)
}

func TestRun_DeciderShipEndsLoop(t *testing.T) {
	provider := &scriptedProvider{
		critiques: map[string]string{
			"design-review": "- [P2] Issue one: detail.",
			"a11y-review":   "- [P2] Issue two: detail.",
		},
	}

	orch := testOrchestrator(t, provider, Config{Iterations: 3})

	asked := 0
	result, err := orch.Run(context.Background(), Target{Topic: "t", Image: fakePNG},
		func(iter *Iteration) Decision {
			asked++
			return Decision{Mode: FixModeShip}
		})
	require.NoError(t, err)

	assert.Equal(t, 1, asked)
	assert.Len(t, result.Iterations, 1)
	assert.Equal(t, "shipped", result.Stopped)
}

func TestRun_DeciderModeCarriesIntoNextReport(t *testing.T) {
	provider := &scriptedProvider{
		critiques: map[string]string{
			"design-review": "- [P2] Issue one: detail.",
			"a11y-review":   "- [P2] Issue two: detail.",
		},
	}

	orch := testOrchestrator(t, provider, Config{Iterations: 2})

	result, err := orch.Run(context.Background(), Target{Topic: "t", Image: fakePNG},
		func(iter *Iteration) Decision {
			return Decision{Mode: FixModeQuick, Continue: true}
		})
	require.NoError(t, err)

	require.Len(t, result.Iterations, 2)
	assert.Equal(t, FixMode(""), result.Iterations[0].FixMode)
	assert.Equal(t, FixModeQuick, result.Iterations[1].FixMode)
	assert.Equal(t, "iterations exhausted", result.Stopped)
}

func TestRun_SessionResumesIterationNumbering(t *testing.T) {
	provider := &scriptedProvider{
		critiques: map[string]string{
			"design-review": "- [P2] Issue: detail.",
			"a11y-review":   "- [P2] Issue: detail.",
		},
	}

	sessionDir := t.TempDir()
	workdir, err := report.NewWorkdir(t.TempDir())
	require.NoError(t, err)

	newOrch := func() *Orchestrator {
		orch, err := NewOrchestrator(llm.NewRouter(provider),
			WithRegistry(testRegistry(t)),
			WithWorkdir(workdir),
			WithSessionDir(sessionDir),
			WithConfig(Config{Iterations: 1, FixMode: FixModeDeep}),
		)
		require.NoError(t, err)
		return orch
	}

	first, err := newOrch().Run(context.Background(), Target{Topic: "t", Image: fakePNG}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Iterations[0].Number)

	second, err := newOrch().Run(context.Background(), Target{Topic: "t", Image: fakePNG}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Iterations[0].Number)
	assert.True(t, workdir.HasReport("t", 2))
}

func TestRun_PartialPersonaFailureSurvives(t *testing.T) {
	provider := &scriptedProvider{
		critiques: map[string]string{
			"design-review": "- [P2] Issue: detail.",
			// a11y-review missing: empty critique, still succeeds
		},
	}

	orch := testOrchestrator(t, provider, Config{Iterations: 1, FixMode: FixModeDeep})

	result, err := orch.Run(context.Background(), Target{Topic: "t", Image: fakePNG}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Iterations[0].Findings, 1)
}

func TestRun_AllPersonasFailing(t *testing.T) {
	provider := &scriptedProvider{failAll: true}
	orch := testOrchestrator(t, provider, Config{Iterations: 1, FixMode: FixModeDeep})

	_, err := orch.Run(context.Background(), Target{Topic: "t", Image: fakePNG}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "personas failed")
}

func TestParseFixMode(t *testing.T) {
	tests := []struct {
		input   string
		want    FixMode
		wantErr bool
	}{
		{"", FixMode(""), false},
		{"quick", FixModeQuick, false},
		{"deep", FixModeDeep, false},
		{"ship", FixModeShip, false},
		{"yolo", FixMode(""), true},
	}

	for _, tt := range tests {
		got, err := ParseFixMode(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
		} else {
			assert.NoError(t, err, "input %q", tt.input)
			assert.Equal(t, tt.want, got)
		}
	}
}
