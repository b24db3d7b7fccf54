package policy

import "propertypilot_backend/internal/nlu"

// Reason is the closed refusal taxonomy. Each reason maps to exactly one
// fixed user-facing message; the mapping is never bypassed or composed from
// model output.
type Reason string

const (
	// ReasonUnsupportedIntent covers out-of-domain queries such as future
	// price predictions or legal/financial advice.
	ReasonUnsupportedIntent Reason = "unsupported_intent"
	// ReasonNoRelevantInfo means zero candidates survived the full fallback
	// ladder including relaxation and radius pivot.
	ReasonNoRelevantInfo Reason = "no_relevant_info"
	// ReasonInsufficientConfidence means candidates exist but confidence
	// resolved to NotAvailable.
	ReasonInsufficientConfidence Reason = "insufficient_confidence"
	// ReasonConflictingInfo means top retrieved facts disagree. Reserved for
	// retrieval-backed answers, not property search.
	ReasonConflictingInfo Reason = "conflicting_info"
)

var refusalMessages = map[Reason]string{
	ReasonUnsupportedIntent:      "I can't help with price predictions or legal and financial advice. I can help you find and compare projects.",
	ReasonNoRelevantInfo:         "I couldn't find any projects matching what you're looking for, even after widening the search. Could you adjust the location or budget?",
	ReasonInsufficientConfidence: "I'm not confident enough in what I found to recommend it. Could you share a bit more detail about what you need?",
	ReasonConflictingInfo:        "My sources disagree on this one, so I'd rather not guess. Let me connect you with the sales team for a verified answer.",
}

// Message returns the fixed user-facing message for a refusal reason.
func (r Reason) Message() string {
	return refusalMessages[r]
}

// Refusal is a refuse decision with its taxonomy reason.
type Refusal struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// NewRefusal builds the refusal envelope for a reason.
func NewRefusal(reason Reason) *Refusal {
	return &Refusal{Reason: reason, Message: reason.Message()}
}

// ShouldRefuse decides whether to refuse instead of answering. Refusal
// triggers on explicitly out-of-scope intents, zero retrieved candidates, or
// a NotAvailable confidence tier.
func ShouldRefuse(intent nlu.Intent, matchCount int, tier Tier) (bool, Reason) {
	if intent == nlu.IntentOutOfScope {
		return true, ReasonUnsupportedIntent
	}
	if matchCount == 0 {
		return true, ReasonNoRelevantInfo
	}
	if tier == NotAvailable {
		return true, ReasonInsufficientConfidence
	}
	return false, ""
}
