package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"conversation-insights/internal/domain"
	"conversation-insights/internal/domain/model"
	"conversation-insights/internal/domain/ports/repository"
)

var _ repository.ConversationRepository = (*ConversationRepo)(nil)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) Create(ctx context.Context, qx repository.Tx, c *model.Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	var raw []byte
	if c.Raw != nil {
		var err error
		raw, err = json.Marshal(c.Raw)
		if err != nil {
			return fmt.Errorf("marshal raw: %w", err)
		}
	}

	const q = `
INSERT INTO conversations (id, external_id, thread_id, text, raw, created_at)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6);`

	_, err := execSQL(ctx, r.pool, qx, q, c.ID, c.ExternalID, c.ThreadID, c.Text, raw, c.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *ConversationRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Conversation, error) {
	const q = `
SELECT id, COALESCE(external_id, ''), COALESCE(thread_id, ''), text, raw, created_at
  FROM conversations WHERE id=$1;`

	row := pickRow(ctx, r.pool, qx, q, id)
	return scanConversation(row)
}

func (r *ConversationRepo) List(ctx context.Context, qx repository.Tx, offset, limit int) ([]*model.Conversation, error) {
	const q = `
SELECT id, COALESCE(external_id, ''), COALESCE(thread_id, ''), text, raw, created_at
  FROM conversations ORDER BY created_at DESC OFFSET $1 LIMIT $2;`

	rows, err := pickRows(ctx, r.pool, qx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ConversationRepo) Count(ctx context.Context, qx repository.Tx) (int, error) {
	row := pickRow(ctx, r.pool, qx, `SELECT COUNT(*) FROM conversations;`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	return n, nil
}

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var c model.Conversation
	var raw []byte
	if err := row.Scan(&c.ID, &c.ExternalID, &c.ThreadID, &c.Text, &raw, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.Raw); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &c, nil
}
