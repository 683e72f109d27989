package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"conversation-insights/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type Stats struct {
	TotalConversations int     `json:"total_conversations"`
	TotalInsights      int     `json:"total_insights"`
	TotalTokens        int64   `json:"total_tokens"`
	TotalCostUSD       float64 `json:"total_cost_usd"`
	CacheHits          int64   `json:"cache_hits"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (*Stats, error)
}

type statsUC struct {
	conversations repository.ConversationRepository
	insights      repository.InsightRepository
	cache         repository.AnalysisCacheRepository

	log *zerolog.Logger
}

func NewStatsUseCase(
	conversations repository.ConversationRepository,
	insights repository.InsightRepository,
	cache repository.AnalysisCacheRepository,
	logger *zerolog.Logger,
) *statsUC {
	l := logger.With().Str("component", "StatsUC").Logger()
	return &statsUC{conversations: conversations, insights: insights, cache: cache, log: &l}
}

func (s *statsUC) Totals(ctx context.Context) (*Stats, error) {
	convs, err := s.conversations.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	insights, tokens, cost, err := s.insights.Totals(ctx, nil)
	if err != nil {
		return nil, err
	}
	hits, err := s.cache.TotalHits(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalConversations: convs,
		TotalInsights:      insights,
		TotalTokens:        tokens,
		TotalCostUSD:       cost,
		CacheHits:          hits,
	}, nil
}
