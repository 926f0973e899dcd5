package roast

// Weighting controls how a user-chosen focus tag reshapes finding scores.
type Weighting struct {
	// Focus is the focused tag; empty means no weighting.
	Focus string

	// Boost multiplies scores from the focused persona (default 1.5).
	Boost float64

	// Damp multiplies scores from every other persona when a focus is
	// set (default 0.5).
	Damp float64
}

// DefaultWeighting returns the standard 1.5x / 0.5x weighting.
func DefaultWeighting(focus string) Weighting {
	return Weighting{
		Focus: focus,
		Boost: 1.5,
		Damp:  0.5,
	}
}

// Multiplier returns the score multiplier for a persona focus tag.
func (w Weighting) Multiplier(personaFocus string) float64 {
	if w.Focus == "" {
		return 1.0
	}
	if personaFocus == w.Focus {
		if w.Boost > 0 {
			return w.Boost
		}
		return 1.5
	}
	if w.Damp > 0 {
		return w.Damp
	}
	return 0.5
}

// Apply computes weighted scores for findings in place. focusByPersona
// maps persona id to its focus tag.
func (w Weighting) Apply(findings []Finding, focusByPersona map[string]string) {
	for i := range findings {
		mult := w.Multiplier(focusByPersona[findings[i].PersonaID])
		findings[i].Weighted = findings[i].Severity.BaseScore() * mult
	}
}
