package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleReport() *Report {
	return &Report{
		Topic:          "checkout",
		RunID:          "run-123",
		Iteration:      2,
		Focus:          "accessibility",
		FixMode:        "deep",
		Summary:        "One blocking contrast problem remains.",
		ScreenshotPath: "reports/screenshots/checkout_2.png",
		GeneratedAt:    time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		Sections: []Section{
			{PersonaID: "designer", Heading: "Visual Designer", Critique: "- [P1] Contrast failure: gray on white."},
			{PersonaID: "a11y", Heading: "Accessibility Auditor", Critique: ""},
		},
		Ranked: []RankedFinding{
			{Persona: "designer", Severity: "P1", Title: "Contrast failure", Detail: "gray on white", Score: 2.0},
			{Persona: "a11y", Severity: "P3", Title: "Small targets", Score: 3.0, Recurring: true},
		},
	}
}

func TestReport_MarkdownHeader(t *testing.T) {
	md := sampleReport().Markdown()

	assert.True(t, strings.HasPrefix(md, "# Roast: checkout (iteration 2)\n"))
	assert.Contains(t, md, "- Run: run-123")
	assert.Contains(t, md, "- Focus: accessibility")
	assert.Contains(t, md, "- Fix mode: deep")
	assert.Contains(t, md, "- Screenshot: reports/screenshots/checkout_2.png")
}

func TestReport_MarkdownSections(t *testing.T) {
	md := sampleReport().Markdown()

	assert.Contains(t, md, "## Summary")
	assert.Contains(t, md, "## Top Findings")
	assert.Contains(t, md, "## Visual Designer")

	// Empty critiques render a placeholder instead of a bare heading
	assert.Contains(t, md, "_No findings._")

	// Recurring findings are marked in the table
	assert.Contains(t, md, "Small targets (recurring)")
}

func TestReport_MarkdownNextStepsQuickMode(t *testing.T) {
	r := sampleReport()
	r.FixMode = "quick"
	r.Ranked = []RankedFinding{
		{Severity: "P1", Title: "one"},
		{Severity: "P1", Title: "two"},
		{Severity: "P2", Title: "three"},
		{Severity: "P2", Title: "four"},
	}

	md := r.Markdown()

	assert.Contains(t, md, "1. [P1] one")
	assert.Contains(t, md, "3. [P2] three")
	assert.NotContains(t, md, "4. [P2] four")
}

func TestReport_MarkdownOmitsEmptyMetadata(t *testing.T) {
	r := &Report{Topic: "t", RunID: "r", Iteration: 1, GeneratedAt: time.Now()}

	md := r.Markdown()

	assert.NotContains(t, md, "- Focus:")
	assert.NotContains(t, md, "- Fix mode:")
	assert.NotContains(t, md, "## Summary")
	assert.NotContains(t, md, "## Top Findings")
}

func TestEscapeCell(t *testing.T) {
	assert.Equal(t, "a\\|b", escapeCell("a|b"))
	assert.Equal(t, "a b", escapeCell("a\nb"))
}
