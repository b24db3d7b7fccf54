package nlu

import (
	"context"
	"errors"

	"propertypilot_backend/internal/search"
)

// ErrQuotaExceeded marks a rate-limit/quota failure from the language model.
// The flow engine maps it to a distinct "service temporarily degraded"
// response instead of retrying inline.
var ErrQuotaExceeded = errors.New("language model quota exceeded")

// Classifier labels a turn with an intent and a confidence.
type Classifier interface {
	Classify(ctx context.Context, text string, history []string) (Classification, error)
}

// Extractor pulls a partial filter snapshot out of free text, populating only
// the fields it is confident about.
type Extractor interface {
	Extract(ctx context.Context, text string) (search.Filter, error)
}
