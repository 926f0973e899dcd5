package report

import (
	"fmt"
	"strings"
	"time"
)

// Report is the renderable content of one iteration's roast.
type Report struct {
	Topic          string
	RunID          string
	Iteration      int
	Focus          string
	FixMode        string
	Summary        string
	ScreenshotPath string
	GeneratedAt    time.Time

	// Sections hold each persona's critique under its fixed heading.
	Sections []Section

	// Ranked is the merged finding list, highest weighted score first.
	Ranked []RankedFinding
}

// Section is one persona's critique.
type Section struct {
	PersonaID string
	Heading   string
	Critique  string
}

// RankedFinding is a finding row in the summary table.
type RankedFinding struct {
	Persona   string
	Severity  string
	Title     string
	Detail    string
	Score     float64
	Recurring bool
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Roast: %s (iteration %d)\n\n", r.Topic, r.Iteration)
	fmt.Fprintf(&sb, "- Run: %s\n", r.RunID)
	fmt.Fprintf(&sb, "- Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	if r.Focus != "" {
		fmt.Fprintf(&sb, "- Focus: %s\n", r.Focus)
	}
	if r.FixMode != "" {
		fmt.Fprintf(&sb, "- Fix mode: %s\n", r.FixMode)
	}
	if r.ScreenshotPath != "" {
		fmt.Fprintf(&sb, "- Screenshot: %s\n", r.ScreenshotPath)
	}
	sb.WriteString("\n")

	if r.Summary != "" {
		sb.WriteString("## Summary\n\n")
		sb.WriteString(strings.TrimSpace(r.Summary))
		sb.WriteString("\n\n")
	}

	if len(r.Ranked) > 0 {
		sb.WriteString("## Top Findings\n\n")
		sb.WriteString("| # | Score | Severity | Persona | Finding |\n")
		sb.WriteString("|---|-------|----------|---------|--------|\n")
		for i, f := range r.Ranked {
			title := f.Title
			if f.Recurring {
				title += " (recurring)"
			}
			fmt.Fprintf(&sb, "| %d | %.1f | %s | %s | %s |\n",
				i+1, f.Score, f.Severity, f.Persona, escapeCell(title))
		}
		sb.WriteString("\n")
	}

	for _, section := range r.Sections {
		fmt.Fprintf(&sb, "## %s\n\n", section.Heading)
		critique := strings.TrimSpace(section.Critique)
		if critique == "" {
			critique = "_No findings._"
		}
		sb.WriteString(critique)
		sb.WriteString("\n\n")
	}

	if len(r.Ranked) > 0 {
		sb.WriteString("## Next Steps\n\n")
		limit := len(r.Ranked)
		if r.FixMode == "quick" && limit > 3 {
			limit = 3
		}
		for i := 0; i < limit; i++ {
			f := r.Ranked[i]
			line := f.Title
			if f.Detail != "" {
				line += ": " + f.Detail
			}
			fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, f.Severity, escapeCell(line))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// escapeCell keeps pipes out of table cells.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
