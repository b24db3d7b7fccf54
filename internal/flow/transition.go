package flow

import "propertypilot_backend/internal/nlu"

// windowAction says what a transition does to the cached result window.
type windowAction int

const (
	// windowKeep leaves the cached results and offset untouched.
	windowKeep windowAction = iota
	// windowReplace clears the cache; the turn runs a fresh search.
	windowReplace
	// windowPaginate advances the offset over the cached results.
	windowPaginate
)

type transitionKey struct {
	Node   Node
	Intent nlu.Intent
}

type transition struct {
	Next   Node
	Window windowAction
}

// overrides are the node-sensitive transitions. Anything not listed falls
// through to the per-intent defaults, so adding a node never requires
// enumerating the full intent set.
var overrides = map[transitionKey]transition{
	// Asking for more before any search was run stays in gathering.
	{NodeGathering, nlu.IntentShowMore}: {NodeGathering, windowKeep},
	// A fresh search from the terminal node restarts the funnel.
	{NodeSiteVisit, nlu.IntentSearch}: {NodeResults, windowReplace},
}

// defaults route on intent alone. nodeSame keeps the current node.
var defaults = map[nlu.Intent]transition{
	nlu.IntentSearch:        {NodeResults, windowReplace},
	nlu.IntentShowMore:      {NodeResults, windowPaginate},
	nlu.IntentProjectDetail: {NodeProjectDetail, windowKeep},
	nlu.IntentNearby:        {NodeRadiusPivot, windowReplace},
	nlu.IntentScheduleVisit: {NodeSiteVisit, windowKeep},
	nlu.IntentObjection:     {NodeObjection, windowKeep},
	nlu.IntentGeneral:       {nodeSame, windowKeep},
	nlu.IntentOutOfScope:    {nodeSame, windowKeep},
	nlu.IntentUnknown:       {NodeGathering, windowKeep},
}

// route resolves the transition for the current node and classified intent.
// The returned Next is already concrete, never the stay-put sentinel.
func route(node Node, intent nlu.Intent) transition {
	tr, ok := overrides[transitionKey{node, intent}]
	if !ok {
		tr, ok = defaults[intent]
		if !ok {
			tr = defaults[nlu.IntentUnknown]
		}
	}
	if tr.Next == nodeSame {
		tr.Next = node
	}
	return tr
}
