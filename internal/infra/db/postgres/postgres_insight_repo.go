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

var _ repository.InsightRepository = (*InsightRepo)(nil)

type InsightRepo struct {
	pool *pgxpool.Pool
}

func NewInsightRepo(pool *pgxpool.Pool) *InsightRepo {
	return &InsightRepo{pool: pool}
}

const insightColumns = `id, conversation_id, COALESCE(summary, ''), sentiment, topics,
       tokens_used, estimated_cost, processing_time_ms, COALESCE(model, ''), created_at`

func (r *InsightRepo) Create(ctx context.Context, qx repository.Tx, in *model.Insight) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	topics, err := json.Marshal(in.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	const q = `
INSERT INTO insights (id, conversation_id, summary, sentiment, topics,
                      tokens_used, estimated_cost, processing_time_ms, model, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10);`

	_, err = execSQL(ctx, r.pool, qx, q,
		in.ID, in.ConversationID, in.Summary, string(in.Sentiment), topics,
		in.TokensUsed, in.EstimatedCost, in.ProcessingMs, in.Model, in.CreatedAt)
	return err
}

func (r *InsightRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Insight, error) {
	q := `SELECT ` + insightColumns + ` FROM insights WHERE id=$1;`
	row := pickRow(ctx, r.pool, qx, q, id)
	return scanInsight(row)
}

func (r *InsightRepo) FindByConversation(ctx context.Context, qx repository.Tx, conversationID string) ([]*model.Insight, error) {
	q := `SELECT ` + insightColumns + ` FROM insights WHERE conversation_id=$1 ORDER BY created_at;`
	rows, err := pickRows(ctx, r.pool, qx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInsights(rows)
}

func (r *InsightRepo) ListRecent(ctx context.Context, qx repository.Tx, limit int, sentiment model.Sentiment) ([]*model.Insight, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if sentiment != "" {
		q := `SELECT ` + insightColumns + ` FROM insights WHERE sentiment=$1 ORDER BY created_at DESC LIMIT $2;`
		rows, err = pickRows(ctx, r.pool, qx, q, string(sentiment), limit)
	} else {
		q := `SELECT ` + insightColumns + ` FROM insights ORDER BY created_at DESC LIMIT $1;`
		rows, err = pickRows(ctx, r.pool, qx, q, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInsights(rows)
}

func (r *InsightRepo) ListSince(ctx context.Context, qx repository.Tx, cutoff time.Time) ([]*model.Insight, error) {
	q := `SELECT ` + insightColumns + ` FROM insights WHERE created_at >= $1;`
	rows, err := pickRows(ctx, r.pool, qx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInsights(rows)
}

func (r *InsightRepo) Totals(ctx context.Context, qx repository.Tx) (int, int64, float64, error) {
	row := pickRow(ctx, r.pool, qx,
		`SELECT COUNT(*), COALESCE(SUM(tokens_used), 0), COALESCE(SUM(estimated_cost), 0) FROM insights;`)
	var (
		count  int
		tokens int64
		cost   float64
	)
	if err := row.Scan(&count, &tokens, &cost); err != nil {
		return 0, 0, 0, fmt.Errorf("insight totals: %w", err)
	}
	return count, tokens, cost, nil
}

func scanInsight(row pgx.Row) (*model.Insight, error) {
	var in model.Insight
	var sentiment string
	var topics []byte
	err := row.Scan(&in.ID, &in.ConversationID, &in.Summary, &sentiment, &topics,
		&in.TokensUsed, &in.EstimatedCost, &in.ProcessingMs, &in.Model, &in.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	in.Sentiment = model.ParseSentiment(sentiment)
	if len(topics) > 0 {
		if err := json.Unmarshal(topics, &in.Topics); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &in, nil
}

func collectInsights(rows pgx.Rows) ([]*model.Insight, error) {
	var out []*model.Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
