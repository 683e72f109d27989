package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"conversation-insights/internal/domain/model"
	"conversation-insights/internal/domain/ports/repository"
)

var _ repository.ProcessingLogRepository = (*ProcessingLogRepo)(nil)

// ProcessingLogRepo persists the append-only audit trail. Rows are never
// updated or deleted.
type ProcessingLogRepo struct {
	pool *pgxpool.Pool
}

func NewProcessingLogRepo(pool *pgxpool.Pool) *ProcessingLogRepo {
	return &ProcessingLogRepo{pool: pool}
}

func (r *ProcessingLogRepo) Append(ctx context.Context, qx repository.Tx, ev *model.ProcessingEvent) error {
	if ev.ID == "" {
		ev.ID = ulid.Make().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO processing_log (id, conversation_id, kind, status, detail, created_at)
VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6);`

	_, err := execSQL(ctx, r.pool, qx, q,
		ev.ID, ev.ConversationID, string(ev.Kind), string(ev.Status), ev.Detail, ev.CreatedAt)
	return err
}

func (r *ProcessingLogRepo) FindByConversation(ctx context.Context, qx repository.Tx, conversationID string) ([]*model.ProcessingEvent, error) {
	const q = `
SELECT id, COALESCE(conversation_id, ''), kind, status, COALESCE(detail, ''), created_at
  FROM processing_log WHERE conversation_id=$1 ORDER BY id;`

	rows, err := pickRows(ctx, r.pool, qx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ProcessingEvent
	for rows.Next() {
		var ev model.ProcessingEvent
		var kind, status string
		if err := rows.Scan(&ev.ID, &ev.ConversationID, &kind, &status, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Kind = model.EventKind(kind)
		ev.Status = model.EventStatus(status)
		out = append(out, &ev)
	}
	return out, rows.Err()
}
