package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"google.golang.org/genai"

	"propertypilot_backend/internal/geo"
	"propertypilot_backend/internal/search"
	"propertypilot_backend/platform/config"
)

const classifyPrompt = `You label one turn of a real-estate sales conversation.
Return JSON only: {"intent": "<label>", "confidence": <0..1>}.
Labels: search, show_more, project_detail, nearby, schedule_visit, objection,
general, out_of_scope.
Use out_of_scope for price predictions, legal advice, or financial advice.
Use general for scheduling/meeting questions and small talk unrelated to
property search.

Recent turns:
%s

Current turn: %q`

const extractPrompt = `Extract property requirements from one buyer message.
Return JSON only, include ONLY fields explicitly stated:
{"bedrooms": [int], "locality": "", "budget_max": int, "property_types": [""],
"possession_statuses": [""], "amenities": [""]}.
budget_max is whole INR (1 Cr = 10000000, 1 L = 100000).
When the stated location clearly refers to one of these localities, use that
exact spelling: %s.

Message: %q`

// GeminiNLU implements intent classification and requirement extraction as
// single-shot structured-output calls.
type GeminiNLU struct {
	client *genai.Client
	model  string
}

// NewGeminiNLU creates the classifier/extractor backed by the Gemini API.
func NewGeminiNLU(ctx context.Context, cfg config.ClassifierConfig) (*GeminiNLU, error) {
	if cfg.GetGeminiAPIKey() == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GetGeminiAPIKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiNLU{client: client, model: cfg.GetGeminiModel()}, nil
}

var (
	_ Classifier = (*GeminiNLU)(nil)
	_ Extractor  = (*GeminiNLU)(nil)
)

// Classify labels the turn. Classification failures are returned to the
// caller, which degrades to the unknown intent; quota errors surface as
// ErrQuotaExceeded.
func (g *GeminiNLU) Classify(ctx context.Context, text string, history []string) (Classification, error) {
	historyBlock := "(none)"
	if len(history) > 0 {
		historyBlock = strings.Join(history, "\n")
	}
	prompt := fmt.Sprintf(classifyPrompt, historyBlock, text)

	raw, err := g.generateJSON(ctx, prompt)
	if err != nil {
		return Classification{}, err
	}

	var payload struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Classification{}, fmt.Errorf("decode classification: %w", err)
	}

	return Classification{
		Intent:     ParseIntent(payload.Intent),
		Confidence: payload.Confidence,
	}, nil
}

// Extract returns a partial filter with only the fields the model committed to.
func (g *GeminiNLU) Extract(ctx context.Context, text string) (search.Filter, error) {
	raw, err := g.generateJSON(ctx, fmt.Sprintf(extractPrompt, knownLocalities(), text))
	if err != nil {
		return search.Filter{}, err
	}

	var payload struct {
		Bedrooms           []int    `json:"bedrooms"`
		Locality           string   `json:"locality"`
		BudgetMax          *int64   `json:"budget_max"`
		PropertyTypes      []string `json:"property_types"`
		PossessionStatuses []string `json:"possession_statuses"`
		Amenities          []string `json:"amenities"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return search.Filter{}, fmt.Errorf("decode extraction: %w", err)
	}

	return search.Filter{
		Bedrooms:           payload.Bedrooms,
		Locality:           strings.TrimSpace(payload.Locality),
		BudgetMax:          payload.BudgetMax,
		PropertyTypes:      payload.PropertyTypes,
		PossessionStatuses: payload.PossessionStatuses,
		Amenities:          payload.Amenities,
	}, nil
}

func (g *GeminiNLU) generateJSON(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0),
		},
	)
	if err != nil {
		if isQuotaError(err) {
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}
	return []byte(text), nil
}

// knownLocalities renders the gazetteer names once, sorted so prompts are
// stable across calls.
func knownLocalities() string {
	localitiesOnce.Do(func() {
		names := geo.KnownLocalities()
		sort.Strings(names)
		localitiesList = strings.Join(names, ", ")
	})
	return localitiesList
}

var (
	localitiesOnce sync.Once
	localitiesList string
)

func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	return strings.Contains(err.Error(), "RESOURCE_EXHAUSTED")
}
