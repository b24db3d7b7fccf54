// Package catalog defines the read-only project records served by the
// catalog store, and the query predicate used to filter them.
package catalog

import "github.com/google/uuid"

// Project is a single real-estate project as stored in the catalog.
// Budgets are whole currency units (INR), no minor units. Coordinates are
// optional; a project without coordinates cannot participate in radius
// ranking.
type Project struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Locality          string    `json:"locality"`
	Zone              string    `json:"zone"`
	Bedrooms          []int     `json:"bedrooms"`
	BudgetMin         int64     `json:"budgetMin"`
	BudgetMax         int64     `json:"budgetMax"`
	PropertyType      string    `json:"propertyType"`
	Status            string    `json:"status"`
	PossessionYear    int       `json:"possessionYear"`
	PossessionQuarter string    `json:"possessionQuarter,omitempty"`
	Amenities         []string  `json:"amenities,omitempty"`
	Lat               *float64  `json:"lat,omitempty"`
	Lon               *float64  `json:"lon,omitempty"`
}

// HasCoordinates reports whether the project can participate in radius ranking.
func (p Project) HasCoordinates() bool {
	return p.Lat != nil && p.Lon != nil
}

// HasBedrooms reports whether the project offers any of the given counts.
func (p Project) HasBedrooms(counts []int) bool {
	if len(counts) == 0 {
		return true
	}
	for _, want := range counts {
		for _, have := range p.Bedrooms {
			if have == want {
				return true
			}
		}
	}
	return false
}

// MinBedrooms returns the smallest configuration offered, or 0 when unknown.
func (p Project) MinBedrooms() int {
	min := 0
	for _, b := range p.Bedrooms {
		if min == 0 || b < min {
			min = b
		}
	}
	return min
}

// Query is the predicate evaluated by the catalog store. Zero-valued fields
// are unconstrained.
type Query struct {
	Bedrooms           []int
	Locality           string
	BudgetMax          *int64
	PropertyTypes      []string
	PossessionStatuses []string
	Limit              int
}
