package search

import (
	"context"
	"testing"

	"propertypilot_backend/internal/catalog"
	"propertypilot_backend/internal/catalog/repository"
)

// recordingStore wraps a store and records every budget ceiling it was
// queried with.
type recordingStore struct {
	repository.Store
	ceilings []int64
}

func (r *recordingStore) Search(ctx context.Context, q catalog.Query) ([]catalog.Project, error) {
	if q.BudgetMax != nil {
		r.ceilings = append(r.ceilings, *q.BudgetMax)
	}
	return r.Store.Search(ctx, q)
}

func TestRelaxAndFind_FirstMultiplierWins(t *testing.T) {
	store := repository.NewInMemory([]catalog.Project{
		project("Cedar Court", "Hebbal", "North Bangalore", []int{2}, 9_000_000, 11_000_000),
	})
	relaxer := NewRelaxer(store)

	matches, multiplier, err := relaxer.RelaxAndFind(context.Background(), 10_000_000, Filter{Locality: "Hebbal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if multiplier == nil || *multiplier != 1.0 {
		t.Fatalf("expected multiplier 1.0, got %v", multiplier)
	}
	if len(matches) != 1 || matches[0].Stage != StageExact {
		t.Fatalf("expected one exact match, got %+v", matches)
	}
}

func TestRelaxAndFind_SmallestSufficientMultiplier(t *testing.T) {
	// Entry price 11.5M needs the 20% step on a 10M budget: 10M and 11M
	// ceilings miss, 12M hits.
	inner := repository.NewInMemory([]catalog.Project{
		project("Summit Residences", "Hebbal", "North Bangalore", []int{3}, 11_500_000, 14_000_000),
	})
	store := &recordingStore{Store: inner}
	relaxer := NewRelaxer(store)

	matches, multiplier, err := relaxer.RelaxAndFind(context.Background(), 10_000_000, Filter{Locality: "Hebbal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if multiplier == nil || *multiplier != 1.2 {
		t.Fatalf("expected multiplier 1.2, got %v", multiplier)
	}
	if len(matches) != 1 || matches[0].Stage != StageBudgetRelaxed {
		t.Fatalf("expected one relaxed match, got %+v", matches)
	}

	wantCeilings := []int64{10_000_000, 11_000_000, 12_000_000}
	if len(store.ceilings) != len(wantCeilings) {
		t.Fatalf("expected %d searches, got %d", len(wantCeilings), len(store.ceilings))
	}
	for i, want := range wantCeilings {
		if store.ceilings[i] != want {
			t.Fatalf("search %d: expected ceiling %d, got %d", i, want, store.ceilings[i])
		}
	}
}

func TestRelaxAndFind_NoInventoryReportsNilMultiplier(t *testing.T) {
	store := &recordingStore{Store: repository.NewInMemory(nil)}
	relaxer := NewRelaxer(store)

	matches, multiplier, err := relaxer.RelaxAndFind(context.Background(), 10_000_000, Filter{Locality: "Hebbal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if multiplier != nil {
		t.Fatalf("expected nil multiplier, got %v", *multiplier)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}

	// All four multipliers tried strictly in ascending order, no skipping.
	wantCeilings := []int64{10_000_000, 11_000_000, 12_000_000, 13_000_000}
	if len(store.ceilings) != len(wantCeilings) {
		t.Fatalf("expected %d searches, got %d", len(wantCeilings), len(store.ceilings))
	}
	for i, want := range wantCeilings {
		if store.ceilings[i] != want {
			t.Fatalf("search %d: expected ceiling %d, got %d", i, want, store.ceilings[i])
		}
	}
}
