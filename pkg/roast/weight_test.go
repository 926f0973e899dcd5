package roast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeighting_NoFocus(t *testing.T) {
	w := DefaultWeighting("")

	assert.Equal(t, 1.0, w.Multiplier("design"))
	assert.Equal(t, 1.0, w.Multiplier("accessibility"))
}

func TestWeighting_FocusBoostAndDamp(t *testing.T) {
	w := DefaultWeighting("accessibility")

	assert.Equal(t, 1.5, w.Multiplier("accessibility"))
	assert.Equal(t, 0.5, w.Multiplier("design"))
	assert.Equal(t, 0.5, w.Multiplier(""))
}

func TestWeighting_CustomFactors(t *testing.T) {
	w := Weighting{Focus: "design", Boost: 2.0, Damp: 0.25}

	assert.Equal(t, 2.0, w.Multiplier("design"))
	assert.Equal(t, 0.25, w.Multiplier("copy"))
}

func TestWeighting_ZeroFactorsFallBack(t *testing.T) {
	w := Weighting{Focus: "design"}

	assert.Equal(t, 1.5, w.Multiplier("design"))
	assert.Equal(t, 0.5, w.Multiplier("copy"))
}

func TestWeighting_Apply(t *testing.T) {
	findings := []Finding{
		{PersonaID: "a11y", Severity: SeverityP2},     // focused: 3 * 1.5
		{PersonaID: "designer", Severity: SeverityP1}, // damped: 4 * 0.5
	}
	focusByPersona := map[string]string{
		"a11y":     "accessibility",
		"designer": "design",
	}

	DefaultWeighting("accessibility").Apply(findings, focusByPersona)

	assert.Equal(t, 4.5, findings[0].Weighted)
	assert.Equal(t, 2.0, findings[1].Weighted)
}

func TestWeighting_FocusReordersSeverity(t *testing.T) {
	// A focused P3 should outrank an off-focus P1: 2*1.5=3 vs 4*0.5=2
	findings := []Finding{
		{PersonaID: "designer", Severity: SeverityP1},
		{PersonaID: "a11y", Severity: SeverityP3},
	}
	focusByPersona := map[string]string{
		"a11y":     "accessibility",
		"designer": "design",
	}

	DefaultWeighting("accessibility").Apply(findings, focusByPersona)
	SortByWeight(findings)

	assert.Equal(t, "a11y", findings[0].PersonaID)
	assert.Equal(t, "designer", findings[1].PersonaID)
}
