package repository

import (
	"context"
	"time"

	"conversation-insights/internal/domain/model"
)

type InsightRepository interface {
	Create(ctx context.Context, tx Tx, in *model.Insight) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Insight, error)
	FindByConversation(ctx context.Context, tx Tx, conversationID string) ([]*model.Insight, error)
	ListRecent(ctx context.Context, tx Tx, limit int, sentiment model.Sentiment) ([]*model.Insight, error)
	ListSince(ctx context.Context, tx Tx, cutoff time.Time) ([]*model.Insight, error)
	Totals(ctx context.Context, tx Tx) (count int, tokens int64, cost float64, err error)
}
