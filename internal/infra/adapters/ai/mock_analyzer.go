package ai

import (
	"context"
	"strings"
	"time"

	"conversation-insights/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Analyzer = (*MockAnalyzer)(nil)

var (
	positiveWords = []string{"love", "great", "happy", "thanks", "thank you", "excellent"}
	negativeWords = []string{"hate", "bad", "angry", "worst", "terrible", "awful"}

	topicStopWords = map[string]struct{}{
		"thanks": {},
		"great":  {},
		"really": {},
	}
)

const (
	mockSummaryLimit = 500
	mockTopicMinLen  = 5
	mockMaxTopics    = 5
)

// MockAnalyzer is the development/testing variant: a deterministic keyword
// heuristic plus a simulated latency proportional to text length.
type MockAnalyzer struct {
	costPer1K float64
}

func NewMockAnalyzer(costPer1K float64) *MockAnalyzer {
	return &MockAnalyzer{costPer1K: costPer1K}
}

func (m *MockAnalyzer) Name() string { return "mock" }

func (m *MockAnalyzer) Analyze(ctx context.Context, text string) (*adapter.Analysis, error) {
	start := time.Now()

	// Simulated network latency, capped at 900ms.
	simulated := 300*time.Millisecond + time.Duration(len(text)/2)*time.Millisecond
	if simulated > 900*time.Millisecond {
		simulated = 900 * time.Millisecond
	}
	if err := sleep(ctx, simulated); err != nil {
		return nil, err
	}

	lt := strings.ToLower(text)

	// Positive first, then negative overwrites when both match.
	sentiment := "neutral"
	if containsAny(lt, positiveWords) {
		sentiment = "positive"
	}
	if containsAny(lt, negativeWords) {
		sentiment = "negative"
	}

	summary := text
	if len(summary) > mockSummaryLimit {
		summary = summary[:mockSummaryLimit]
	}

	tokens := heuristicTokens(text)

	return &adapter.Analysis{
		Summary:         summary,
		Sentiment:       sentiment,
		Topics:          extractTopics(lt),
		EstimatedTokens: tokens,
		EstimatedCost:   float64(tokens) / 1000.0 * m.costPer1K,
		Latency:         time.Since(start),
		Mock:            true,
	}, nil
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// extractTopics picks up to mockMaxTopics deduplicated alphabetic words
// longer than mockTopicMinLen, in first-seen order.
func extractTopics(lowered string) []string {
	seen := map[string]struct{}{}
	topics := []string{}
	for _, raw := range strings.Fields(lowered) {
		w := strings.Trim(raw, `.,!?:;()"'`)
		if len(w) <= mockTopicMinLen || !isAlpha(w) {
			continue
		}
		if _, stop := topicStopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		topics = append(topics, w)
		if len(topics) >= mockMaxTopics {
			break
		}
	}
	return topics
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
