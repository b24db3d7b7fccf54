package search

import (
	"testing"

	"github.com/google/uuid"

	"propertypilot_backend/internal/catalog"
)

func project(name, locality, zone string, bedrooms []int, budgetMin, budgetMax int64) catalog.Project {
	return catalog.Project{
		ID:           uuid.New(),
		Name:         name,
		Locality:     locality,
		Zone:         zone,
		Bedrooms:     bedrooms,
		BudgetMin:    budgetMin,
		BudgetMax:    budgetMax,
		PropertyType: "Apartment",
		Status:       "Under Construction",
	}
}

func assertNonIncreasing(t *testing.T, matches []Match) {
	t.Helper()
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("score increased at index %d: %f > %f", i, matches[i].Score, matches[i-1].Score)
		}
	}
}

func TestRank_ExactStage(t *testing.T) {
	candidates := []catalog.Project{
		project("Lakeview Heights", "Whitefield", "East Bangalore", []int{2, 3}, 9_000_000, 14_000_000),
		project("Gardenia Enclave", "Whitefield", "East Bangalore", []int{3}, 12_000_000, 16_000_000),
		project("Meadow Springs", "Hebbal", "North Bangalore", []int{3}, 11_000_000, 13_000_000),
	}

	f := Filter{Bedrooms: []int{3}, Locality: "Whitefield", BudgetMax: int64Ptr(12_000_000)}
	matches := Rank(f, candidates)

	if len(matches) != 2 {
		t.Fatalf("expected 2 exact matches, got %d", len(matches))
	}
	for _, m := range matches {
		if m.Stage != StageExact {
			t.Fatalf("expected exact stage, got %s", m.Stage)
		}
		if m.Project.Locality != "Whitefield" {
			t.Fatalf("unexpected locality %q", m.Project.Locality)
		}
	}
	assertNonIncreasing(t, matches)

	// Gardenia's entry price sits exactly on the ceiling, so it outranks
	// Lakeview despite the higher price.
	if matches[0].Project.Name != "Gardenia Enclave" {
		t.Fatalf("expected Gardenia Enclave first, got %s", matches[0].Project.Name)
	}
}

func TestRank_ConfigFlexStage(t *testing.T) {
	// No 2BHK inventory in Whitefield, but an affordable 3BHK exists.
	candidates := []catalog.Project{
		project("Gardenia Enclave", "Whitefield", "East Bangalore", []int{3}, 9_000_000, 13_000_000),
		project("Meadow Springs", "Hebbal", "North Bangalore", []int{2}, 8_000_000, 10_000_000),
	}

	f := Filter{Bedrooms: []int{2}, Locality: "Whitefield", BudgetMax: int64Ptr(10_000_000)}
	matches := Rank(f, candidates)

	if len(matches) != 1 {
		t.Fatalf("expected 1 config-flex match, got %d", len(matches))
	}
	if matches[0].Stage != StageConfigFlex {
		t.Fatalf("expected config_flex stage, got %s", matches[0].Stage)
	}
	if matches[0].Project.Name != "Gardenia Enclave" {
		t.Fatalf("expected the higher-tier Whitefield unit, got %s", matches[0].Project.Name)
	}
}

func TestRank_LocalityPriorityStage(t *testing.T) {
	// Buyer asks for a 4BHK in Whitefield; nothing offers one, so zone-level
	// re-ranking fires and the named micro-locality outranks the zone match.
	candidates := []catalog.Project{
		project("Orchid Towers", "Varthur", "Whitefield", []int{2}, 9_000_000, 12_000_000),
		project("Gardenia Enclave", "Whitefield", "East Bangalore", []int{2}, 9_500_000, 12_500_000),
	}

	f := Filter{Bedrooms: []int{4}, Locality: "Whitefield", BudgetMax: int64Ptr(12_000_000)}
	matches := Rank(f, candidates)

	if len(matches) != 2 {
		t.Fatalf("expected 2 locality-priority matches, got %d", len(matches))
	}
	if matches[0].Stage != StageLocalityPriority {
		t.Fatalf("expected locality_priority stage, got %s", matches[0].Stage)
	}
	if matches[0].Project.Name != "Gardenia Enclave" {
		t.Fatalf("expected exact micro-locality first, got %s", matches[0].Project.Name)
	}
	assertNonIncreasing(t, matches)
}

func TestNearestBudget_ClosestPriceFirst(t *testing.T) {
	candidates := []catalog.Project{
		project("Summit Residences", "Hebbal", "North Bangalore", []int{2}, 200, 260),
		project("Cedar Court", "Hebbal", "North Bangalore", []int{2}, 130, 170),
	}

	f := Filter{BudgetMax: int64Ptr(80)}
	matches := NearestBudget(f, candidates)

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Project.BudgetMin != 130 {
		t.Fatalf("expected the 130-priced candidate first, got %d", matches[0].Project.BudgetMin)
	}
	if matches[1].Project.BudgetMin != 200 {
		t.Fatalf("expected the 200-priced candidate second, got %d", matches[1].Project.BudgetMin)
	}
	if matches[0].Score <= matches[1].Score {
		t.Fatalf("expected strictly higher score for the closer price: %f vs %f",
			matches[0].Score, matches[1].Score)
	}
}

func TestNearestBudget_NoBudgetNoRanking(t *testing.T) {
	candidates := []catalog.Project{
		project("Cedar Court", "Hebbal", "North Bangalore", []int{2}, 130, 170),
	}
	if matches := NearestBudget(Filter{}, candidates); matches != nil {
		t.Fatalf("expected nil without a budget, got %d matches", len(matches))
	}
}

func TestRank_DeterministicTieBreaks(t *testing.T) {
	// Identical prices force the name tie-break.
	candidates := []catalog.Project{
		project("Zinnia Park", "Whitefield", "East Bangalore", []int{3}, 10_000_000, 12_000_000),
		project("Aster Grove", "Whitefield", "East Bangalore", []int{3}, 10_000_000, 12_000_000),
	}

	f := Filter{Bedrooms: []int{3}, Locality: "Whitefield", BudgetMax: int64Ptr(10_000_000)}
	matches := Rank(f, candidates)

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Project.Name != "Aster Grove" {
		t.Fatalf("expected name tie-break, got %s first", matches[0].Project.Name)
	}
}

func TestRank_ScoresNonIncreasingAcrossStages(t *testing.T) {
	candidates := []catalog.Project{
		project("Lakeview Heights", "Whitefield", "East Bangalore", []int{3}, 9_000_000, 14_000_000),
		project("Gardenia Enclave", "Whitefield", "East Bangalore", []int{3}, 12_000_000, 16_000_000),
		project("Orchid Towers", "Varthur", "Whitefield", []int{3}, 8_000_000, 11_000_000),
	}

	filters := []Filter{
		{Bedrooms: []int{3}, Locality: "Whitefield", BudgetMax: int64Ptr(12_000_000)},
		{Bedrooms: []int{2}, Locality: "Whitefield", BudgetMax: int64Ptr(12_000_000)},
		{Bedrooms: []int{5}, Locality: "Whitefield", BudgetMax: int64Ptr(12_000_000)},
	}
	for _, f := range filters {
		assertNonIncreasing(t, Rank(f, candidates))
	}
}
