package roast

import (
	"regexp"
	"sort"
	"strings"
)

// Severity is the P1..P4 severity band a persona assigns to a finding.
type Severity int

const (
	// SeverityP1 blocks users.
	SeverityP1 Severity = 1
	// SeverityP2 is a major problem with a workaround.
	SeverityP2 Severity = 2
	// SeverityP3 is a minor problem.
	SeverityP3 Severity = 3
	// SeverityP4 is polish.
	SeverityP4 Severity = 4
)

// String returns the P-band label.
func (s Severity) String() string {
	switch s {
	case SeverityP1:
		return "P1"
	case SeverityP2:
		return "P2"
	case SeverityP3:
		return "P3"
	case SeverityP4:
		return "P4"
	default:
		return "P?"
	}
}

// BaseScore maps severity to a base priority score (P1 highest).
func (s Severity) BaseScore() float64 {
	switch s {
	case SeverityP1:
		return 4
	case SeverityP2:
		return 3
	case SeverityP3:
		return 2
	case SeverityP4:
		return 1
	default:
		return 0
	}
}

// Finding is a single parsed critique issue.
type Finding struct {
	// PersonaID identifies which persona raised the finding.
	PersonaID string `json:"persona_id"`

	// Severity is the P1..P4 band.
	Severity Severity `json:"severity"`

	// Title is the short issue title.
	Title string `json:"title"`

	// Detail is the explanation, may be empty.
	Detail string `json:"detail"`

	// Weighted is the focus-weighted score. Zero until weighting runs.
	Weighted float64 `json:"weighted"`

	// Recurring marks findings already seen in a previous iteration.
	Recurring bool `json:"recurring"`
}

// Text returns the finding as a single line for embedding and display.
func (f Finding) Text() string {
	if f.Detail == "" {
		return f.Title
	}
	return f.Title + ": " + f.Detail
}

// findingLine matches "- [P2] Title: detail" with optional bold around
// the severity marker and either - or * bullets.
var findingLine = regexp.MustCompile(`^[-*]\s*(?:\*\*)?\[(P[1-4])\](?:\*\*)?\s*(.+)$`)

// ParseCritique extracts findings from a persona's raw critique text.
// Lines that do not match the finding shape are returned joined as prose
// so nothing a persona wrote is dropped silently.
func ParseCritique(personaID, text string) ([]Finding, string) {
	var findings []Finding
	var prose []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		m := findingLine.FindStringSubmatch(trimmed)
		if m == nil {
			prose = append(prose, trimmed)
			continue
		}

		severity := parseSeverity(m[1])
		title, detail := splitTitle(m[2])
		if title == "" {
			// Marker with no content, keep as prose
			prose = append(prose, trimmed)
			continue
		}

		findings = append(findings, Finding{
			PersonaID: personaID,
			Severity:  severity,
			Title:     title,
			Detail:    detail,
		})
	}

	return findings, strings.Join(prose, "\n")
}

// splitTitle splits "Title: detail" at the first colon.
func splitTitle(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ":"); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func parseSeverity(label string) Severity {
	switch label {
	case "P1":
		return SeverityP1
	case "P2":
		return SeverityP2
	case "P3":
		return SeverityP3
	default:
		return SeverityP4
	}
}

// SortByWeight orders findings by weighted score descending. The sort is
// stable so equal scores keep persona fan-out order.
func SortByWeight(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Weighted > findings[j].Weighted
	})
}
