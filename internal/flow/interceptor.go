package flow

import (
	"strings"

	"propertypilot_backend/internal/nlu"
)

// interception is a deterministic routing decision made before the
// classifier runs. Intercepted turns skip the model round-trip entirely.
type interception struct {
	Intent      nlu.Intent
	ProjectName string
}

var showMorePhrases = []string{
	"show more", "show me more", "more options", "more projects",
	"next page", "anything else", "what else",
}

var nearbyPhrases = []string{
	"nearby", "near me", "close by", "around there", "in the vicinity",
	"surrounding area",
}

// intercept pre-routes an utterance on unambiguous signals: pagination
// phrases, proximity phrases, and mentions of known project names. Project
// names are matched longest-first so "Lakefront Towers Phase 2" wins over
// "Lakefront Towers". Returns false when the turn needs the classifier.
func intercept(text string, projectNames []string) (interception, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return interception{}, false
	}

	for _, phrase := range showMorePhrases {
		if strings.Contains(lowered, phrase) {
			return interception{Intent: nlu.IntentShowMore}, true
		}
	}
	for _, phrase := range nearbyPhrases {
		if strings.Contains(lowered, phrase) {
			return interception{Intent: nlu.IntentNearby}, true
		}
	}

	var best string
	for _, name := range projectNames {
		if name == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(name)) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return interception{Intent: nlu.IntentProjectDetail, ProjectName: best}, true
	}

	return interception{}, false
}
