package model

import "time"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Insight is the persisted output of one analysis call, linked to the
// conversation it was produced from. A conversation may accumulate more
// than one insight if it is re-analyzed.
type Insight struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Summary        string    `json:"summary"`
	Sentiment      Sentiment `json:"sentiment"`
	Topics         []string  `json:"topics"`
	TokensUsed     int       `json:"tokens_used"`
	EstimatedCost  float64   `json:"estimated_cost"`
	ProcessingMs   int       `json:"processing_time_ms"`
	Model          string    `json:"model,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s)
	default:
		return SentimentNeutral
	}
}
