package repository

import (
	"context"

	"propertypilot_backend/internal/catalog"
)

// Store is the narrow interface the search engine depends on. The budget
// predicate is overlap with the requested ceiling: a candidate matches when
// its BudgetMin does not exceed the requested maximum.
type Store interface {
	// Search returns all projects satisfying the query predicate.
	// A missing column or malformed predicate is a hard error, never an
	// empty result.
	Search(ctx context.Context, q catalog.Query) ([]catalog.Project, error)
	// GetByName returns a project by exact (case-insensitive) name.
	GetByName(ctx context.Context, name string) (catalog.Project, error)
	// Names returns all project names, used by the utterance interceptor.
	Names(ctx context.Context) ([]string, error)
}
