package repository

import (
	"context"

	"conversation-insights/internal/domain/model"
)

type ConversationRepository interface {
	Create(ctx context.Context, tx Tx, c *model.Conversation) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Conversation, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Conversation, error)
	Count(ctx context.Context, tx Tx) (int, error)
}
