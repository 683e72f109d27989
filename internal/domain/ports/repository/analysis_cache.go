package repository

import (
	"context"

	"conversation-insights/internal/domain/model"
)

// AnalysisCacheRepository deduplicates analysis results by content hash.
//
// CreateIfAbsent is first-writer-wins: when an entry for the hash already
// exists the call is a no-op, never an overwrite.
type AnalysisCacheRepository interface {
	FindByHash(ctx context.Context, tx Tx, hash string) (*model.AnalysisCacheEntry, error)
	CreateIfAbsent(ctx context.Context, tx Tx, e *model.AnalysisCacheEntry) error
	IncrementHit(ctx context.Context, tx Tx, id string) error
	TotalHits(ctx context.Context, tx Tx) (int64, error)
}
