package roast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCritique_Bullets(t *testing.T) {
	text := `- [P1] Contrast failure: body text is light gray on white.
- [P3] Crowded header: the nav items have no breathing room.
* [P4] Logo nitpick: looks a pixel off-center.`

	findings, prose := ParseCritique("designer", text)

	require.Len(t, findings, 3)
	assert.Empty(t, prose)

	assert.Equal(t, "designer", findings[0].PersonaID)
	assert.Equal(t, SeverityP1, findings[0].Severity)
	assert.Equal(t, "Contrast failure", findings[0].Title)
	assert.Equal(t, "body text is light gray on white.", findings[0].Detail)

	assert.Equal(t, SeverityP3, findings[1].Severity)
	assert.Equal(t, SeverityP4, findings[2].Severity)
}

func TestParseCritique_BoldMarkers(t *testing.T) {
	findings, _ := ParseCritique("a11y", "- **[P2]** Focus ring missing: no visible focus state on buttons.")

	require.Len(t, findings, 1)
	assert.Equal(t, SeverityP2, findings[0].Severity)
	assert.Equal(t, "Focus ring missing", findings[0].Title)
}

func TestParseCritique_ProseSurvives(t *testing.T) {
	text := `Overall the screen is in decent shape.
- [P2] Buried CTA: the primary button is below the fold.
Nothing else worth flagging.`

	findings, prose := ParseCritique("marketing", text)

	require.Len(t, findings, 1)
	assert.Contains(t, prose, "decent shape")
	assert.Contains(t, prose, "Nothing else worth flagging.")
}

func TestParseCritique_NoColonTitleOnly(t *testing.T) {
	findings, _ := ParseCritique("copy", "- [P4] Inconsistent capitalization across buttons")

	require.Len(t, findings, 1)
	assert.Equal(t, "Inconsistent capitalization across buttons", findings[0].Title)
	assert.Empty(t, findings[0].Detail)
}

func TestParseCritique_EmptyMarkerKeptAsProse(t *testing.T) {
	findings, prose := ParseCritique("flow", "- [P1]")

	assert.Empty(t, findings)
	assert.Equal(t, "- [P1]", prose)
}

func TestParseCritique_Empty(t *testing.T) {
	findings, prose := ParseCritique("user", "")

	assert.Empty(t, findings)
	assert.Empty(t, prose)
}

func TestSeverity_BaseScore(t *testing.T) {
	assert.Equal(t, 4.0, SeverityP1.BaseScore())
	assert.Equal(t, 3.0, SeverityP2.BaseScore())
	assert.Equal(t, 2.0, SeverityP3.BaseScore())
	assert.Equal(t, 1.0, SeverityP4.BaseScore())
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "P1", SeverityP1.String())
	assert.Equal(t, "P?", Severity(9).String())
}

func TestFinding_Text(t *testing.T) {
	f := Finding{Title: "Buried CTA", Detail: "below the fold"}
	assert.Equal(t, "Buried CTA: below the fold", f.Text())

	f.Detail = ""
	assert.Equal(t, "Buried CTA", f.Text())
}

func TestSortByWeight_StableDescending(t *testing.T) {
	findings := []Finding{
		{Title: "a", Weighted: 2},
		{Title: "b", Weighted: 6},
		{Title: "c", Weighted: 2},
		{Title: "d", Weighted: 4},
	}

	SortByWeight(findings)

	assert.Equal(t, "b", findings[0].Title)
	assert.Equal(t, "d", findings[1].Title)
	// Equal scores keep their relative order
	assert.Equal(t, "a", findings[2].Title)
	assert.Equal(t, "c", findings[3].Title)
}
