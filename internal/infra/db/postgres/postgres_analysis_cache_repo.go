package postgres

import (
	"context"
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

var _ repository.AnalysisCacheRepository = (*AnalysisCacheRepo)(nil)

type AnalysisCacheRepo struct {
	pool *pgxpool.Pool
}

func NewAnalysisCacheRepo(pool *pgxpool.Pool) *AnalysisCacheRepo {
	return &AnalysisCacheRepo{pool: pool}
}

func (r *AnalysisCacheRepo) FindByHash(ctx context.Context, qx repository.Tx, hash string) (*model.AnalysisCacheEntry, error) {
	const q = `
SELECT id, text_hash, insight_id, hit_count, created_at
  FROM analysis_cache WHERE text_hash=$1;`

	row := pickRow(ctx, r.pool, qx, q, hash)
	var e model.AnalysisCacheEntry
	if err := row.Scan(&e.ID, &e.TextHash, &e.InsightID, &e.HitCount, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// CreateIfAbsent inserts the entry unless the hash is already mapped.
// ON CONFLICT DO NOTHING gives first-writer-wins under concurrent stores.
func (r *AnalysisCacheRepo) CreateIfAbsent(ctx context.Context, qx repository.Tx, e *model.AnalysisCacheEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO analysis_cache (id, text_hash, insight_id, hit_count, created_at)
VALUES ($1, $2, $3, 0, $4)
ON CONFLICT (text_hash) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, qx, q, e.ID, e.TextHash, e.InsightID, e.CreatedAt)
	return err
}

func (r *AnalysisCacheRepo) IncrementHit(ctx context.Context, qx repository.Tx, id string) error {
	const q = `UPDATE analysis_cache SET hit_count = hit_count + 1 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, qx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AnalysisCacheRepo) TotalHits(ctx context.Context, qx repository.Tx) (int64, error) {
	row := pickRow(ctx, r.pool, qx, `SELECT COALESCE(SUM(hit_count), 0) FROM analysis_cache;`)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("cache total hits: %w", err)
	}
	return n, nil
}
