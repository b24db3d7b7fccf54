// Package transport defines the request/response DTOs for the chat API.
package transport

import (
	"propertypilot_backend/internal/catalog"
	"propertypilot_backend/internal/flow"
	"propertypilot_backend/internal/search"
)

// TurnRequest is the POST /api/v1/chat/turn payload. Filters carries explicit
// structured criteria from the UI; they win over anything extracted from the
// message text. An absent sessionId starts a new conversation; the generated
// id comes back in the response.
type TurnRequest struct {
	SessionID string         `json:"sessionId" binding:"omitempty,max=128"`
	Message   string         `json:"message" binding:"required,max=2000"`
	Filters   *FilterPayload `json:"filters,omitempty"`
}

// FilterPayload is the wire shape of explicit search criteria.
type FilterPayload struct {
	Bedrooms           []int    `json:"bedrooms,omitempty" validate:"omitempty,max=4,dive,min=1,max=10"`
	Locality           string   `json:"locality,omitempty" validate:"omitempty,max=120"`
	BudgetMax          *int64   `json:"budgetMax,omitempty" validate:"omitempty,gt=0"`
	PropertyTypes      []string `json:"propertyTypes,omitempty" validate:"omitempty,max=5,dive,max=40"`
	PossessionStatuses []string `json:"possessionStatuses,omitempty" validate:"omitempty,max=5,dive,max=40"`
	Amenities          []string `json:"amenities,omitempty" validate:"omitempty,max=10,dive,max=60"`
}

// ToFilter converts the payload into the engine's filter model.
func (p *FilterPayload) ToFilter() *search.Filter {
	if p == nil {
		return nil
	}
	return &search.Filter{
		Bedrooms:           p.Bedrooms,
		Locality:           p.Locality,
		BudgetMax:          p.BudgetMax,
		PropertyTypes:      p.PropertyTypes,
		PossessionStatuses: p.PossessionStatuses,
		Amenities:          p.Amenities,
	}
}

// ProjectView is the client-facing projection of a catalog project, with the
// budget band rendered in Cr/L shorthand.
type ProjectView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Locality       string   `json:"locality"`
	Zone           string   `json:"zone,omitempty"`
	Bedrooms       []int    `json:"bedrooms,omitempty"`
	BudgetMin      int64    `json:"budgetMin"`
	BudgetMax      int64    `json:"budgetMax"`
	BudgetDisplay  string   `json:"budgetDisplay"`
	PropertyType   string   `json:"propertyType,omitempty"`
	Status         string   `json:"status,omitempty"`
	PossessionYear int      `json:"possessionYear,omitempty"`
	Amenities      []string `json:"amenities,omitempty"`
	MatchScore     float64  `json:"_match_score,omitempty"`
	Stage          string   `json:"stage,omitempty"`
}

// RelaxationView reports that the budget was widened to produce the results.
type RelaxationView struct {
	Multiplier float64 `json:"multiplier"`
	Note       string  `json:"note"`
}

// RefusalView is a refuse decision with its taxonomy reason.
type RefusalView struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// TurnResponse is the structured answer for one turn.
type TurnResponse struct {
	SessionID  string          `json:"sessionId"`
	Node       string          `json:"node"`
	Intent     string          `json:"intent"`
	Outcome    string          `json:"outcome"`
	Confidence string          `json:"confidence,omitempty"`
	Stage      string          `json:"stage,omitempty"`
	Projects   []ProjectView   `json:"projects,omitempty"`
	Remaining  int             `json:"remaining"`
	Relaxation *RelaxationView `json:"relaxation,omitempty"`
	Refusal    *RefusalView    `json:"refusal,omitempty"`
	Selected   *ProjectView    `json:"selected,omitempty"`
	Message    string          `json:"message,omitempty"`
	// DegradedStore is true while conversation state lives only in process
	// memory (redis unreachable), so clients can warn about lost context on
	// restart.
	DegradedStore bool `json:"degradedStore"`
}

// StatusResponse reports service health details for the chat surface.
type StatusResponse struct {
	Status       string `json:"status"`
	SessionStore string `json:"sessionStore"`
}

// FromTurnResult projects the engine outcome onto the wire shape.
func FromTurnResult(result *flow.TurnResult) TurnResponse {
	resp := TurnResponse{
		SessionID:  result.SessionID,
		Node:       string(result.Node),
		Intent:     string(result.Intent),
		Outcome:    string(result.Outcome),
		Confidence: string(result.Confidence),
		Stage:      string(result.Stage),
		Remaining:  result.Remaining,
		Message:    result.Message,
	}
	for _, m := range result.Matches {
		view := projectView(m.Project)
		view.MatchScore = m.Score
		view.Stage = string(m.Stage)
		resp.Projects = append(resp.Projects, view)
	}
	if result.Relaxation != nil {
		resp.Relaxation = &RelaxationView{
			Multiplier: result.Relaxation.Multiplier,
			Note:       result.Relaxation.Note,
		}
	}
	if result.Refusal != nil {
		resp.Refusal = &RefusalView{
			Reason:  string(result.Refusal.Reason),
			Message: result.Refusal.Message,
		}
	}
	if result.Selected != nil {
		view := projectView(*result.Selected)
		resp.Selected = &view
	}
	return resp
}

func projectView(p catalog.Project) ProjectView {
	return ProjectView{
		ID:             p.ID.String(),
		Name:           p.Name,
		Locality:       p.Locality,
		Zone:           p.Zone,
		Bedrooms:       p.Bedrooms,
		BudgetMin:      p.BudgetMin,
		BudgetMax:      p.BudgetMax,
		BudgetDisplay:  budgetDisplay(p),
		PropertyType:   p.PropertyType,
		Status:         p.Status,
		PossessionYear: p.PossessionYear,
		Amenities:      p.Amenities,
	}
}

func budgetDisplay(p catalog.Project) string {
	if p.BudgetMax > p.BudgetMin {
		return search.FormatAmount(p.BudgetMin) + " - " + search.FormatAmount(p.BudgetMax)
	}
	return search.FormatAmount(p.BudgetMin)
}
