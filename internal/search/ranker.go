package search

import (
	"sort"
	"strings"

	"propertypilot_backend/internal/catalog"
)

// Stage identifies which rung of the fallback ladder produced a match.
type Stage string

const (
	// StageExact means every specified filter field was strictly satisfied.
	StageExact Stage = "exact"
	// StageConfigFlex means the bedroom constraint was relaxed upward while
	// budget and location held.
	StageConfigFlex Stage = "config_flex"
	// StageLocalityPriority means candidates inside the buyer's broad zone
	// were re-ranked, preferring the named micro-locality.
	StageLocalityPriority Stage = "locality_priority"
	// StageNearestBudget means the budget ceiling was dropped and candidates
	// were ranked by price distance to the requested budget.
	StageNearestBudget Stage = "nearest_budget"
	// StageBudgetRelaxed means a staged budget-widening multiplier produced
	// the result set.
	StageBudgetRelaxed Stage = "budget_relaxed"
)

// Match is one ranked candidate. Score is non-increasing across an ordered
// result set.
type Match struct {
	Project catalog.Project `json:"project"`
	Score   float64         `json:"_match_score"`
	Stage   Stage           `json:"stage"`
}

const (
	exactLocalityBonus  = 0.5
	configFlexBase      = 0.8
	configFlexLocality  = 0.1
	localityBudgetShare = 0.5
)

// Rank orders candidates through the first three ladder stages, stopping at
// the first stage with at least one result. The nearest-budget stage is
// separate (NearestBudget) because budget relaxation runs between them.
func Rank(f Filter, candidates []catalog.Project) []Match {
	if matches := rankExact(f, candidates); len(matches) > 0 {
		return matches
	}
	if matches := rankConfigFlex(f, candidates); len(matches) > 0 {
		return matches
	}
	return rankLocalityPriority(f, candidates)
}

// NearestBudget drops the budget ceiling and ranks surviving candidates by
// absolute distance between the requested budget and the candidate's minimum
// price, closest first. Without a requested budget there is nothing to rank
// against and the result is empty.
func NearestBudget(f Filter, candidates []catalog.Project) []Match {
	if f.BudgetMax == nil {
		return nil
	}

	loose := f.WithoutBudget()
	var matches []Match
	for _, p := range candidates {
		if !satisfies(p, loose) {
			continue
		}
		matches = append(matches, Match{
			Project: p,
			Score:   budgetCloseness(*f.BudgetMax, p),
			Stage:   StageNearestBudget,
		})
	}

	sortMatches(matches)
	return matches
}

// rankExact admits candidates satisfying every specified field.
func rankExact(f Filter, candidates []catalog.Project) []Match {
	var matches []Match
	for _, p := range candidates {
		if !satisfies(p, f) {
			continue
		}
		score := 1.0
		if f.BudgetMax != nil {
			score = budgetCloseness(*f.BudgetMax, p)
		}
		matches = append(matches, Match{Project: p, Score: score, Stage: StageExact})
	}

	sortMatches(matches)
	return matches
}

// rankConfigFlex shows higher-tier configurations the buyer can still afford:
// the bedroom constraint relaxes upward while budget and location hold. An
// exact micro-locality match still earns a small independent re-ranking bonus.
func rankConfigFlex(f Filter, candidates []catalog.Project) []Match {
	if len(f.Bedrooms) == 0 {
		return nil
	}

	loose := f.WithoutBedrooms()
	var matches []Match
	for _, p := range candidates {
		if !satisfies(p, loose) || !offersHigherConfig(p, f.Bedrooms) {
			continue
		}
		score := configFlexBase
		if f.BudgetMax != nil {
			score = configFlexBase * budgetCloseness(*f.BudgetMax, p)
		}
		if isExactLocality(p, f.Locality) {
			score += configFlexLocality
		}
		matches = append(matches, Match{Project: p, Score: score, Stage: StageConfigFlex})
	}

	sortMatches(matches)
	return matches
}

// rankLocalityPriority re-ranks zone-level matches, preferring candidates
// whose micro-locality the buyer actually named over candidates merely inside
// the same broad zone. Score is the exact-locality bonus plus an inverse
// budget-distance term.
func rankLocalityPriority(f Filter, candidates []catalog.Project) []Match {
	if f.Locality == "" {
		return nil
	}

	loose := f.WithoutBedrooms()
	var matches []Match
	for _, p := range candidates {
		if !satisfies(p, loose) {
			continue
		}
		score := 0.0
		if isExactLocality(p, f.Locality) {
			score += exactLocalityBonus
		}
		if f.BudgetMax != nil {
			score += localityBudgetShare * budgetCloseness(*f.BudgetMax, p)
		} else {
			score += localityBudgetShare
		}
		matches = append(matches, Match{Project: p, Score: score, Stage: StageLocalityPriority})
	}

	sortMatches(matches)
	return matches
}

// satisfies reports whether a candidate strictly meets every specified field.
// The budget predicate is band overlap: the candidate's entry price must not
// exceed the requested ceiling.
func satisfies(p catalog.Project, f Filter) bool {
	if !p.HasBedrooms(f.Bedrooms) {
		return false
	}

	if f.Locality != "" && !localityMatches(p, f.Locality) {
		return false
	}

	if f.BudgetMax != nil && p.BudgetMin > *f.BudgetMax {
		return false
	}

	if len(f.PropertyTypes) > 0 && !containsFold(f.PropertyTypes, p.PropertyType) {
		return false
	}

	if len(f.PossessionStatuses) > 0 && !containsFold(f.PossessionStatuses, p.Status) {
		return false
	}

	for _, amenity := range f.Amenities {
		if !containsFold(p.Amenities, amenity) {
			return false
		}
	}

	return true
}

func localityMatches(p catalog.Project, locality string) bool {
	needle := strings.ToLower(locality)
	return strings.Contains(strings.ToLower(p.Locality), needle) ||
		strings.Contains(strings.ToLower(p.Zone), needle)
}

func isExactLocality(p catalog.Project, locality string) bool {
	return locality != "" && strings.EqualFold(strings.TrimSpace(p.Locality), strings.TrimSpace(locality))
}

// offersHigherConfig reports whether the project offers a bedroom count above
// the largest requested one.
func offersHigherConfig(p catalog.Project, requested []int) bool {
	maxWanted := 0
	for _, b := range requested {
		if b > maxWanted {
			maxWanted = b
		}
	}
	for _, b := range p.Bedrooms {
		if b > maxWanted {
			return true
		}
	}
	return false
}

// budgetCloseness is 1 at an exact price match and decays with the absolute
// distance between the requested ceiling and the candidate's entry price.
func budgetCloseness(budget int64, p catalog.Project) float64 {
	if budget <= 0 {
		return 0
	}
	diff := budget - p.BudgetMin
	if diff < 0 {
		diff = -diff
	}
	return float64(budget) / float64(budget+diff)
}

// sortMatches orders by score descending, ties broken by ascending entry
// price then name so orderings are stable across runs.
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Project.BudgetMin != matches[j].Project.BudgetMin {
			return matches[i].Project.BudgetMin < matches[j].Project.BudgetMin
		}
		return matches[i].Project.Name < matches[j].Project.Name
	})
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
