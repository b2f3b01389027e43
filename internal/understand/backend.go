// Package understand layers pluggable external language-model backends over a
// deterministic rule fallback. Backends are unreliable collaborators; nothing
// in this package may block the pipeline from producing some answer.
package understand

import (
	"context"
	"errors"
)

var (
	ErrUnderstandingFailed  = errors.New("UNDERSTANDING_FAILED")
	ErrUnderstandingTimeout = errors.New("UNDERSTANDING_TIMEOUT")
)

// SuggestionKind tags what a backend proposed.
type SuggestionKind string

const (
	// KindQuery is a sql-like query that must be executed against the source.
	KindQuery SuggestionKind = "query"
	// KindSearchTerm routes to the ledger search path.
	KindSearchTerm SuggestionKind = "search-term"
	// KindAnalysis is a data interpretation worth showing as-is.
	KindAnalysis SuggestionKind = "analysis-explanation"
	// KindExplanation is prose with no actionable content; the adapter treats
	// it as "no answer" and tries the next backend.
	KindExplanation SuggestionKind = "plain-explanation"
)

// Suggestion is the tagged union a backend attempt yields.
type Suggestion struct {
	Kind        SuggestionKind `json:"kind"`
	Query       string         `json:"query,omitempty"`
	MustExecute bool           `json:"mustExecute,omitempty"`
	SearchTerm  string         `json:"searchTerm,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
	Backend     string         `json:"backend,omitempty"`
}

// UnderstandingBackend is one pluggable strategy. Returning (nil, nil) means
// the backend had nothing actionable; the adapter moves on.
type UnderstandingBackend interface {
	Name() string
	Attempt(ctx context.Context, query string, conversation map[string]interface{}) (*Suggestion, error)
}
