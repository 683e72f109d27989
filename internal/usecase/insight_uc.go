package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"conversation-insights/internal/domain"
	"conversation-insights/internal/domain/model"
	"conversation-insights/internal/domain/ports/repository"
	"conversation-insights/internal/infra/logging"
)

// Compile-time check
var _ InsightUseCase = (*insightUC)(nil)

type SentimentCount struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

type TopicCount struct {
	Topic      string  `json:"topic"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Trends aggregates insights over a trailing window.
type Trends struct {
	WindowDays            int                `json:"window_days"`
	TotalInsights         int                `json:"total_insights"`
	SentimentCounts       SentimentCount     `json:"sentiment_counts"`
	TopTopics             []TopicCount       `json:"top_topics"`
	SentimentDistribution map[string]float64 `json:"sentiment_distribution"`
}

type InsightUseCase interface {
	Get(ctx context.Context, id string) (*model.Insight, error)
	ListRecent(ctx context.Context, limit int, sentiment string) ([]*model.Insight, error)
	ForConversation(ctx context.Context, conversationID string) ([]*model.Insight, error)
	Trends(ctx context.Context, days int) (*Trends, error)
}

type insightUC struct {
	insights repository.InsightRepository

	log *zerolog.Logger
}

func NewInsightUseCase(insights repository.InsightRepository, logger *zerolog.Logger) *insightUC {
	l := logger.With().Str("component", "InsightUC").Logger()
	return &insightUC{insights: insights, log: &l}
}

func (uc *insightUC) Get(ctx context.Context, id string) (*model.Insight, error) {
	return uc.insights.FindByID(ctx, nil, id)
}

func (uc *insightUC) ListRecent(ctx context.Context, limit int, sentiment string) ([]*model.Insight, error) {
	var s model.Sentiment
	if sentiment != "" {
		s = model.Sentiment(sentiment)
		switch s {
		case model.SentimentPositive, model.SentimentNegative, model.SentimentNeutral:
		default:
			return nil, domain.ErrInvalidArgument
		}
	}
	return uc.insights.ListRecent(ctx, nil, limit, s)
}

func (uc *insightUC) ForConversation(ctx context.Context, conversationID string) ([]*model.Insight, error) {
	return uc.insights.FindByConversation(ctx, nil, conversationID)
}

const maxTopTopics = 20

// Trends computes sentiment distribution and top topics over the last
// `days` days.
func (uc *insightUC) Trends(ctx context.Context, days int) (*Trends, error) {
	defer logging.TraceDuration(uc.log, "InsightUC.Trends")()

	if days < 1 || days > 365 {
		return nil, domain.ErrInvalidArgument
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	insights, err := uc.insights.ListSince(ctx, nil, cutoff)
	if err != nil {
		return nil, err
	}

	out := &Trends{
		WindowDays:            days,
		TotalInsights:         len(insights),
		TopTopics:             []TopicCount{},
		SentimentDistribution: map[string]float64{},
	}
	if len(insights) == 0 {
		return out, nil
	}

	sentimentCounts := map[model.Sentiment]int{}
	topicCounts := map[string]int{}
	for _, in := range insights {
		sentimentCounts[in.Sentiment]++
		for _, t := range in.Topics {
			topicCounts[t]++
		}
	}

	total := float64(len(insights))
	out.SentimentCounts = SentimentCount{
		Positive: sentimentCounts[model.SentimentPositive],
		Negative: sentimentCounts[model.SentimentNegative],
		Neutral:  sentimentCounts[model.SentimentNeutral],
	}
	for s, n := range sentimentCounts {
		out.SentimentDistribution[string(s)] = float64(n) / total * 100
	}

	topics := make([]TopicCount, 0, len(topicCounts))
	for t, n := range topicCounts {
		topics = append(topics, TopicCount{Topic: t, Count: n, Percentage: float64(n) / total * 100})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Topic < topics[j].Topic
	})
	if len(topics) > maxTopTopics {
		topics = topics[:maxTopTopics]
	}
	out.TopTopics = topics

	return out, nil
}
