// Package flow implements the conversation state machine: per-turn intent
// routing, requirement accumulation, the search/fallback orchestration, and
// durable session state.
package flow

import (
	"encoding/json"
	"time"

	"propertypilot_backend/internal/nlu"
	"propertypilot_backend/internal/search"
	"propertypilot_backend/internal/session"
)

// Node is a named waypoint in the conversation, not a free-form state.
type Node string

const (
	// NodeGathering collects missing requirement slots.
	NodeGathering Node = "gathering"
	// NodeResults presents a ranked result window.
	NodeResults Node = "results"
	// NodeProjectDetail is a deep-dive on one selected project.
	NodeProjectDetail Node = "project_detail"
	// NodeRadiusPivot presents distance-ranked candidates around an anchor.
	NodeRadiusPivot Node = "radius_pivot"
	// NodeObjection handles pushback on price/location/possession.
	NodeObjection Node = "objection"
	// NodeSiteVisit is the terminal face-to-face hand-off.
	NodeSiteVisit Node = "site_visit"

	// nodeSame is the transition-table sentinel for "stay where you are".
	nodeSame Node = ""
)

// Requirements is the buyer's accumulated search criteria for a conversation.
// Fields are sticky: only fields present in a new extraction overwrite prior
// values, everything else is retained until explicitly cleared.
type Requirements struct {
	Filter      search.Filter `json:"filter"`
	ProjectName string        `json:"projectName,omitempty"`
	Feature     string        `json:"featureRequested,omitempty"`
}

// Apply merges a partial filter snapshot into the requirements, present
// fields overwriting, absent fields retained.
func (r *Requirements) Apply(update search.Filter) {
	r.Filter = search.Merge(r.Filter, update)
}

// ConversationState is the per-session state mutated once per turn.
type ConversationState struct {
	Requirements        Requirements   `json:"requirements"`
	LastSearchResults   []search.Match `json:"lastSearchResults,omitempty"`
	LastShownProjects   []string       `json:"lastShownProjects,omitempty"`
	PaginationOffset    int            `json:"paginationOffset"`
	LastIntent          nlu.Intent     `json:"lastIntent,omitempty"`
	SelectedProjectName string         `json:"selectedProjectName,omitempty"`
	CurrentNode         Node           `json:"currentNode"`
}

// NewConversationState is the state for the first turn of a session.
func NewConversationState() *ConversationState {
	return &ConversationState{CurrentNode: NodeGathering}
}

// Envelope snapshots the state for the session store.
func (s *ConversationState) Envelope() (session.Envelope, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return session.Envelope{}, err
	}
	return session.Envelope{State: data, TouchedAt: time.Now().UTC()}, nil
}

// StateFromEnvelope restores a snapshot; a corrupt payload yields a fresh
// state rather than a failed turn.
func StateFromEnvelope(envelope *session.Envelope) *ConversationState {
	if envelope == nil {
		return NewConversationState()
	}
	var state ConversationState
	if err := json.Unmarshal(envelope.State, &state); err != nil {
		return NewConversationState()
	}
	if state.CurrentNode == "" {
		state.CurrentNode = NodeGathering
	}
	return &state
}
