package adapter

import (
	"context"
	"time"
)

// Analysis is the structured result of a single analysis call.
type Analysis struct {
	Summary   string   `json:"summary"`
	Sentiment string   `json:"sentiment"` // positive | negative | neutral
	Topics    []string `json:"topics"`

	// Cost accounting. EstimatedTokens falls back to a chars/4 heuristic
	// when the provider reports no usage.
	EstimatedTokens int     `json:"estimated_tokens"`
	EstimatedCost   float64 `json:"estimated_cost"`

	// Latency covers the whole call including retry backoff.
	Latency time.Duration `json:"-"`
	Model   string        `json:"model,omitempty"`
	Mock    bool          `json:"mock"`
}

// Analyzer is the port for turning text into an Analysis. Implementations
// own their retry, backoff and rate-limit handling; callers only see the
// final result or the last failure.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
	Name() string
}
