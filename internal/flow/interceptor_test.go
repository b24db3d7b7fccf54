package flow

import (
	"testing"

	"propertypilot_backend/internal/nlu"
)

func TestIntercept_PaginationPhrases(t *testing.T) {
	for _, text := range []string{"show more", "Show me more options", "anything else in this area?"} {
		got, ok := intercept(text, nil)
		if !ok || got.Intent != nlu.IntentShowMore {
			t.Fatalf("intercept(%q) = %+v, %v; want show_more", text, got, ok)
		}
	}
}

func TestIntercept_ProximityPhrases(t *testing.T) {
	got, ok := intercept("what do you have nearby?", nil)
	if !ok || got.Intent != nlu.IntentNearby {
		t.Fatalf("got %+v, %v; want nearby", got, ok)
	}
}

func TestIntercept_ProjectNamePrefersLongestMatch(t *testing.T) {
	names := []string{"Lakefront Towers", "Lakefront Towers Phase 2"}
	got, ok := intercept("tell me about lakefront towers phase 2", names)
	if !ok || got.Intent != nlu.IntentProjectDetail {
		t.Fatalf("got %+v, %v; want project_detail", got, ok)
	}
	if got.ProjectName != "Lakefront Towers Phase 2" {
		t.Fatalf("got project %q, want the longer name", got.ProjectName)
	}
}

func TestIntercept_AbstainsOnAmbiguousText(t *testing.T) {
	if _, ok := intercept("I want a 2bhk in whitefield under 1cr", []string{"Palm Meadows"}); ok {
		t.Fatal("expected abstention for a plain search utterance")
	}
	if _, ok := intercept("", nil); ok {
		t.Fatal("expected abstention for empty text")
	}
}

func TestRoute_DefaultsAndOverrides(t *testing.T) {
	tests := []struct {
		node   Node
		intent nlu.Intent
		next   Node
		window windowAction
	}{
		{NodeGathering, nlu.IntentSearch, NodeResults, windowReplace},
		{NodeResults, nlu.IntentShowMore, NodeResults, windowPaginate},
		{NodeGathering, nlu.IntentShowMore, NodeGathering, windowKeep},
		{NodeSiteVisit, nlu.IntentSearch, NodeResults, windowReplace},
		{NodeResults, nlu.IntentGeneral, NodeResults, windowKeep},
		{NodeProjectDetail, nlu.IntentOutOfScope, NodeProjectDetail, windowKeep},
		{NodeResults, nlu.IntentUnknown, NodeGathering, windowKeep},
		{NodeObjection, nlu.IntentScheduleVisit, NodeSiteVisit, windowKeep},
	}
	for _, tt := range tests {
		got := route(tt.node, tt.intent)
		if got.Next != tt.next || got.Window != tt.window {
			t.Errorf("route(%s, %s) = %+v, want next=%s window=%d", tt.node, tt.intent, got, tt.next, tt.window)
		}
	}
}
