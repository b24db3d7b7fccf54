// Package search implements the buyer filter model, the ranking and fallback
// ladder, staged budget relaxation, and the radius pivot over catalog
// candidates.
package search

import "propertypilot_backend/internal/catalog"

// Filter is the canonical, normalized representation of a buyer's search
// criteria. Nil/empty fields are unconstrained.
type Filter struct {
	Bedrooms           []int    `json:"bedrooms,omitempty"`
	Locality           string   `json:"locality,omitempty"`
	BudgetMin          *int64   `json:"budgetMin,omitempty"`
	BudgetMax          *int64   `json:"budgetMax,omitempty"`
	PropertyTypes      []string `json:"propertyTypes,omitempty"`
	PossessionStatuses []string `json:"possessionStatuses,omitempty"`
	Amenities          []string `json:"amenities,omitempty"`
}

// Merge combines a partial update into a base filter. For each field the
// update's value wins when present/non-empty, otherwise the base value is
// retained. A single merge is deterministic; across calls, later merges win
// on present fields.
func Merge(base, update Filter) Filter {
	merged := base

	if len(update.Bedrooms) > 0 {
		merged.Bedrooms = update.Bedrooms
	}
	if update.Locality != "" {
		merged.Locality = update.Locality
	}
	if update.BudgetMin != nil {
		merged.BudgetMin = update.BudgetMin
	}
	if update.BudgetMax != nil {
		merged.BudgetMax = update.BudgetMax
	}
	if len(update.PropertyTypes) > 0 {
		merged.PropertyTypes = update.PropertyTypes
	}
	if len(update.PossessionStatuses) > 0 {
		merged.PossessionStatuses = update.PossessionStatuses
	}
	if len(update.Amenities) > 0 {
		merged.Amenities = update.Amenities
	}

	return merged
}

// IsEmpty reports whether no criteria are set at all.
func (f Filter) IsEmpty() bool {
	return len(f.Bedrooms) == 0 && f.Locality == "" &&
		f.BudgetMin == nil && f.BudgetMax == nil &&
		len(f.PropertyTypes) == 0 && len(f.PossessionStatuses) == 0 &&
		len(f.Amenities) == 0
}

// ToQuery translates the filter into a catalog store predicate.
func (f Filter) ToQuery() catalog.Query {
	return catalog.Query{
		Bedrooms:           f.Bedrooms,
		Locality:           f.Locality,
		BudgetMax:          f.BudgetMax,
		PropertyTypes:      f.PropertyTypes,
		PossessionStatuses: f.PossessionStatuses,
	}
}

// WithoutBudget returns a copy with the budget ceiling removed, used by the
// nearest-budget fallback.
func (f Filter) WithoutBudget() Filter {
	copied := f
	copied.BudgetMin = nil
	copied.BudgetMax = nil
	return copied
}

// WithoutBedrooms returns a copy with the configuration constraint removed,
// used by the configuration-flexibility stage.
func (f Filter) WithoutBedrooms() Filter {
	copied := f
	copied.Bedrooms = nil
	return copied
}
