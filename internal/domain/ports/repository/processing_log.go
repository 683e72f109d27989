package repository

import (
	"context"

	"conversation-insights/internal/domain/model"
)

// ProcessingLogRepository is the append-only audit trail.
type ProcessingLogRepository interface {
	Append(ctx context.Context, tx Tx, ev *model.ProcessingEvent) error
	FindByConversation(ctx context.Context, tx Tx, conversationID string) ([]*model.ProcessingEvent, error)
}
