package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"propertypilot_backend/internal/catalog"
	"propertypilot_backend/platform/apperr"
)

// InMemory is a catalog store backed by a slice, used in tests and for local
// development without Postgres.
type InMemory struct {
	mu       sync.RWMutex
	projects []catalog.Project
}

// NewInMemory creates an in-memory catalog store with the given projects.
func NewInMemory(projects []catalog.Project) *InMemory {
	return &InMemory{projects: projects}
}

var _ Store = (*InMemory)(nil)

// Search evaluates the query predicate over the stored projects.
func (s *InMemory) Search(_ context.Context, q catalog.Query) ([]catalog.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []catalog.Project
	for _, p := range s.projects {
		if !matches(p, q) {
			continue
		}
		results = append(results, p)
		if q.Limit > 0 && len(results) == q.Limit {
			break
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].BudgetMin != results[j].BudgetMin {
			return results[i].BudgetMin < results[j].BudgetMin
		}
		return results[i].Name < results[j].Name
	})

	return results, nil
}

// GetByName returns a project by exact (case-insensitive) name.
func (s *InMemory) GetByName(_ context.Context, name string) (catalog.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.projects {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return catalog.Project{}, apperr.NotFound(projectNotFoundMessage)
}

// Names returns all project names.
func (s *InMemory) Names(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.projects))
	for _, p := range s.projects {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names, nil
}

func matches(p catalog.Project, q catalog.Query) bool {
	if !p.HasBedrooms(q.Bedrooms) {
		return false
	}

	if q.Locality != "" {
		needle := strings.ToLower(q.Locality)
		if !strings.Contains(strings.ToLower(p.Locality), needle) &&
			!strings.Contains(strings.ToLower(p.Zone), needle) {
			return false
		}
	}

	if q.BudgetMax != nil && p.BudgetMin > *q.BudgetMax {
		return false
	}

	if len(q.PropertyTypes) > 0 && !containsFold(q.PropertyTypes, p.PropertyType) {
		return false
	}

	if len(q.PossessionStatuses) > 0 && !containsFold(q.PossessionStatuses, p.Status) {
		return false
	}

	return true
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
