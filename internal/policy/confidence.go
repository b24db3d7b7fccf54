// Package policy converts match sets into confidence tiers and refuse/answer
// decisions. Refusal is always preferred to fabricating an answer.
package policy

import "propertypilot_backend/internal/search"

// Confidence thresholds. Tunable, but exposed as named constants so the
// refusal behavior is auditable.
const (
	HighThreshold   = 0.65
	MediumThreshold = 0.50
)

// Tier is the confidence level assigned to a result set.
type Tier string

const (
	High         Tier = "high"
	Medium       Tier = "medium"
	NotAvailable Tier = "not_available"
)

// Score assigns a confidence tier to an ordered match set. High requires the
// top match at or above the high threshold; a second match, when present,
// must reach the medium threshold to count as agreement. A single strong
// match still qualifies on its own.
func Score(matches []search.Match) Tier {
	if len(matches) == 0 {
		return NotAvailable
	}

	top := matches[0].Score
	if top >= HighThreshold {
		if len(matches) == 1 || matches[1].Score >= MediumThreshold {
			return High
		}
		return Medium
	}
	if top >= MediumThreshold {
		return Medium
	}
	return NotAvailable
}
