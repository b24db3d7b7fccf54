package search

import (
	"context"
	"math"

	"propertypilot_backend/internal/catalog"
	"propertypilot_backend/internal/catalog/repository"
)

// RelaxationMultipliers are the staged budget-widening steps, tried strictly
// in ascending order with no skipping.
var RelaxationMultipliers = []float64{1.0, 1.1, 1.2, 1.3}

// Relaxer widens the budget ceiling in fixed multiplicative steps until a
// filtered search returns at least one project.
type Relaxer struct {
	store repository.Store
}

// NewRelaxer creates a budget relaxation service over the given catalog store.
func NewRelaxer(store repository.Store) *Relaxer {
	return &Relaxer{store: store}
}

// RelaxAndFind runs a full filtered search per multiplier and returns the
// first non-empty result set together with the multiplier that produced it.
// When no multiplier yields a result, it returns an empty list and a nil
// multiplier: a reportable no-inventory outcome, never silently substituted.
func (r *Relaxer) RelaxAndFind(ctx context.Context, budget int64, f Filter) ([]Match, *float64, error) {
	for _, multiplier := range RelaxationMultipliers {
		widened := int64(math.Floor(float64(budget) * multiplier))
		attempt := f
		attempt.BudgetMax = &widened

		candidates, err := r.store.Search(ctx, attempt.ToQuery())
		if err != nil {
			return nil, nil, err
		}

		matches := rankRelaxed(attempt, budget, candidates, multiplier)
		if len(matches) > 0 {
			m := multiplier
			return matches, &m, nil
		}
	}

	return nil, nil, nil
}

// rankRelaxed admits candidates satisfying the widened filter and scores them
// by closeness to the original (unwidened) budget.
func rankRelaxed(f Filter, originalBudget int64, candidates []catalog.Project, multiplier float64) []Match {
	stage := StageBudgetRelaxed
	if multiplier == 1.0 {
		stage = StageExact
	}

	var matches []Match
	for _, p := range candidates {
		if !satisfies(p, f) {
			continue
		}
		matches = append(matches, Match{
			Project: p,
			Score:   budgetCloseness(originalBudget, p),
			Stage:   stage,
		})
	}

	sortMatches(matches)
	return matches
}
