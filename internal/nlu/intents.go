// Package nlu defines the external language-understanding contracts: turn
// intent classification and structured requirement extraction.
package nlu

// Intent is the closed set of turn-level intents the flow engine routes on.
type Intent string

const (
	// IntentSearch starts or refines a property search.
	IntentSearch Intent = "search"
	// IntentShowMore asks for the next window of cached results.
	IntentShowMore Intent = "show_more"
	// IntentProjectDetail asks about one specific project.
	IntentProjectDetail Intent = "project_detail"
	// IntentNearby asks for options around a remembered anchor location.
	IntentNearby Intent = "nearby"
	// IntentScheduleVisit asks to arrange a site visit / face-to-face.
	IntentScheduleVisit Intent = "schedule_visit"
	// IntentObjection pushes back on price, location, or possession.
	IntentObjection Intent = "objection"
	// IntentGeneral is a non-property turn (scheduling, small talk); no
	// project records may be attached to the response.
	IntentGeneral Intent = "general"
	// IntentOutOfScope is a query the assistant must refuse (price
	// predictions, legal or financial advice).
	IntentOutOfScope Intent = "out_of_scope"
	// IntentUnknown is the safe default when classification fails or is
	// below the confidence floor.
	IntentUnknown Intent = "unknown"
)

// MinIntentConfidence is the floor below which a classification is treated
// as unknown and the turn routes to requirement gathering.
const MinIntentConfidence = 0.5

// Classification is the classifier's verdict for one turn.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// ParseIntent maps a raw string to a known intent, defaulting to unknown.
func ParseIntent(raw string) Intent {
	switch Intent(raw) {
	case IntentSearch, IntentShowMore, IntentProjectDetail, IntentNearby,
		IntentScheduleVisit, IntentObjection, IntentGeneral, IntentOutOfScope:
		return Intent(raw)
	default:
		return IntentUnknown
	}
}

// IsProperty reports whether the intent relates to property search at all.
// Non-property turns must not leak stale results.
func (i Intent) IsProperty() bool {
	switch i {
	case IntentSearch, IntentShowMore, IntentProjectDetail, IntentNearby,
		IntentScheduleVisit, IntentObjection:
		return true
	default:
		return false
	}
}
