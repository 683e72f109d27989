package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"conversation-insights/internal/config"
	"conversation-insights/internal/domain"
	"conversation-insights/internal/domain/model"
	"conversation-insights/internal/domain/ports/adapter"
	"conversation-insights/internal/domain/ports/repository"
	"conversation-insights/internal/infra/logging"
	"conversation-insights/internal/infra/metrics"
)

// idleYield keeps the loop from spinning when the queue stays empty past
// the flush timeout.
const idleYield = 50 * time.Millisecond

// Scheduler is the single consumer of the work queue. Each cycle it collects
// an adaptively sized batch and runs every item through
// prefilter -> cache -> analysis -> persistence, shrinking the batch under
// queue backpressure or failure and growing it on success. Repeated failures
// trip a circuit breaker that pauses all analysis for a cooldown window.
type Scheduler struct {
	cfg   config.PipelineConfig
	queue *Queue

	conversations repository.ConversationRepository
	insights      repository.InsightRepository
	cache         repository.AnalysisCacheRepository
	events        repository.ProcessingLogRepository
	tm            repository.TransactionManager
	analyzer      adapter.Analyzer
	log           *zerolog.Logger

	// Mutated only by the Run goroutine; reinitialized on every start.
	batchSize         int
	consecutiveErrors int

	alive atomic.Bool
}

func NewScheduler(
	cfg config.PipelineConfig,
	queue *Queue,
	conversations repository.ConversationRepository,
	insights repository.InsightRepository,
	cache repository.AnalysisCacheRepository,
	events repository.ProcessingLogRepository,
	tm repository.TransactionManager,
	analyzer adapter.Analyzer,
	logger *zerolog.Logger,
) *Scheduler {
	l := logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{
		cfg:           cfg,
		queue:         queue,
		conversations: conversations,
		insights:      insights,
		cache:         cache,
		events:        events,
		tm:            tm,
		analyzer:      analyzer,
		log:           &l,
	}
}

// Queue exposes the enqueue side for the ingestion layer.
func (s *Scheduler) Queue() *Queue { return s.queue }

// QueueDepth reports current depth for health endpoints.
func (s *Scheduler) QueueDepth() int { return s.queue.Size() }

// Alive reports whether the worker loop is running.
func (s *Scheduler) Alive() bool { return s.alive.Load() }

// Run is the worker loop. It returns only when ctx is cancelled. Safe to
// re-run after a restart: all adaptive state reinitializes to defaults.
func (s *Scheduler) Run(ctx context.Context) error {
	s.alive.Store(true)
	defer s.alive.Store(false)

	s.batchSize = s.cfg.StartBatchSize
	s.consecutiveErrors = 0
	metrics.SetBatchSize(s.batchSize)

	s.log.Info().
		Int("min_batch", s.cfg.MinBatchSize).
		Int("max_batch", s.cfg.MaxBatchSize).
		Int("start_batch", s.cfg.StartBatchSize).
		Msg("worker loop started")

	for {
		if err := ctx.Err(); err != nil {
			s.log.Info().Msg("worker loop stopping")
			return err
		}

		first, ok := s.queue.Dequeue(ctx, s.cfg.FlushTimeout)
		if !ok {
			metrics.SetQueueDepth(s.queue.Size())
			if err := sleep(ctx, idleYield); err != nil {
				s.log.Info().Msg("worker loop stopping")
				return err
			}
			continue
		}

		// Greedy, non-blocking collection up to the current batch size.
		batch := make([]string, 1, s.batchSize)
		batch[0] = first
		for len(batch) < s.batchSize {
			id, more := s.queue.TryDequeue()
			if !more {
				break
			}
			batch = append(batch, id)
		}

		depth := s.queue.Size()
		metrics.SetQueueDepth(depth)
		if depth > s.cfg.BackpressureThreshold && s.batchSize > s.cfg.MinBatchSize {
			s.batchSize = maxInt(s.cfg.MinBatchSize, s.batchSize/2)
			metrics.SetBatchSize(s.batchSize)
			s.log.Info().Int("batch_size", s.batchSize).Int("queue", depth).
				Msg("backpressure: reducing batch size")
		}

		for _, id := range batch {
			if ctx.Err() != nil {
				s.log.Info().Msg("worker loop stopping mid-batch")
				return ctx.Err()
			}
			s.processOne(ctx, id)
		}
	}
}

// processOne runs a single item through the pipeline stages. All failures
// are absorbed here; one bad item never halts the rest of the batch.
func (s *Scheduler) processOne(ctx context.Context, conversationID string) {
	defer logging.TraceDuration(s.log, "Scheduler.processOne")()

	conv, err := s.conversations.FindByID(ctx, nil, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Referential-integrity condition, not an analysis failure.
			s.log.Warn().Str("conversation_id", conversationID).Msg("conversation not found, skipping")
			return
		}
		s.log.Error().Err(err).Str("conversation_id", conversationID).Msg("conversation load failed")
		s.appendEvent(ctx, conversationID, model.EventError, model.EventStatusError, err.Error())
		return
	}

	if s.cfg.PrefilterEnabled() && !ShouldAnalyze(conv.Text, s.cfg.MinTextLength) {
		metrics.IncPrefilterSkip()
		s.appendEvent(ctx, conversationID, model.EventPrefilterSkip, model.EventStatusSkipped, "")
		s.log.Debug().Str("conversation_id", conversationID).Msg("skipped by prefilter")
		return
	}

	hash := ContentHash(conv.Text)

	if s.cfg.CacheEnabled() {
		entry, err := s.cache.FindByHash(ctx, nil, hash)
		switch {
		case err == nil:
			metrics.IncCacheRequest("hit")
			if err := s.cache.IncrementHit(ctx, nil, entry.ID); err != nil {
				s.log.Error().Err(err).Str("cache_id", entry.ID).Msg("cache hit count update failed")
			}
			s.appendEvent(ctx, conversationID, model.EventCacheHit, model.EventStatusSuccess, entry.InsightID)
			s.log.Debug().Str("conversation_id", conversationID).Msg("cache hit")
			return
		case errors.Is(err, domain.ErrNotFound):
			metrics.IncCacheRequest("miss")
		default:
			// Lookup trouble is not worth losing the item over; analyze anyway.
			s.log.Error().Err(err).Str("conversation_id", conversationID).Msg("cache lookup failed")
		}
	}

	s.appendEvent(ctx, conversationID, model.EventAnalysisStart, model.EventStatusSuccess, "")

	callStart := time.Now()
	res, err := s.analyzer.Analyze(ctx, conv.Text)
	latency := time.Since(callStart)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.recordFailure(ctx, conversationID, err)
		return
	}

	metrics.IncAnalysisCall(s.analyzer.Name())
	metrics.ObserveAnalysisLatency(latency.Seconds())

	insight := &model.Insight{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Summary:        res.Summary,
		Sentiment:      model.ParseSentiment(res.Sentiment),
		Topics:         res.Topics,
		TokensUsed:     res.EstimatedTokens,
		EstimatedCost:  res.EstimatedCost,
		ProcessingMs:   int(latency / time.Millisecond),
		Model:          res.Model,
		CreatedAt:      time.Now(),
	}

	// Insight and its cache entry commit together; the cache insert is
	// first-writer-wins so a concurrent duplicate is a no-op.
	err = s.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := s.insights.Create(ctx, tx, insight); err != nil {
			return err
		}
		if s.cfg.CacheEnabled() {
			return s.cache.CreateIfAbsent(ctx, tx, &model.AnalysisCacheEntry{
				ID:        uuid.NewString(),
				TextHash:  hash,
				InsightID: insight.ID,
				CreatedAt: time.Now(),
			})
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.recordFailure(ctx, conversationID, err)
		return
	}

	metrics.AddEstimatedTokens(res.EstimatedTokens)
	metrics.AddEstimatedCost(res.EstimatedCost)
	s.appendEvent(ctx, conversationID, model.EventAnalysisComplete, model.EventStatusSuccess, insight.ID)

	s.consecutiveErrors = 0
	if s.batchSize < s.cfg.MaxBatchSize {
		s.batchSize = minInt(s.cfg.MaxBatchSize, s.batchSize+s.batchSize/5+1)
		metrics.SetBatchSize(s.batchSize)
	}

	s.log.Info().Str("conversation_id", conversationID).
		Str("sentiment", string(insight.Sentiment)).
		Dur("latency", latency).
		Msg("conversation analyzed")
}

// recordFailure applies the negative feedback: error counters, batch
// shrink, and the circuit breaker once the consecutive-error threshold is
// reached.
func (s *Scheduler) recordFailure(ctx context.Context, conversationID string, cause error) {
	metrics.IncAnalysisError(s.analyzer.Name())
	s.consecutiveErrors++
	s.batchSize = maxInt(s.cfg.MinBatchSize, s.batchSize/2)
	metrics.SetBatchSize(s.batchSize)

	s.appendEvent(ctx, conversationID, model.EventError, model.EventStatusError, cause.Error())
	s.log.Error().Err(cause).Str("conversation_id", conversationID).
		Int("consecutive_errors", s.consecutiveErrors).
		Msg("analysis failed")

	if s.consecutiveErrors >= s.cfg.ErrorThreshold {
		s.log.Warn().
			Int("errors", s.consecutiveErrors).
			Dur("cooldown", s.cfg.CircuitBreakerCooldown).
			Msg("circuit breaker tripped, cooling down")
		_ = sleep(ctx, s.cfg.CircuitBreakerCooldown)
		s.consecutiveErrors = 0
	}
}

// appendEvent writes one audit record. Best effort: the pipeline never
// fails because the audit trail did.
func (s *Scheduler) appendEvent(ctx context.Context, conversationID string, kind model.EventKind, status model.EventStatus, detail string) {
	ev := &model.ProcessingEvent{
		ID:             ulid.Make().String(),
		ConversationID: conversationID,
		Kind:           kind,
		Status:         status,
		Detail:         detail,
		CreatedAt:      time.Now(),
	}
	if err := s.events.Append(ctx, nil, ev); err != nil {
		s.log.Error().Err(err).Str("kind", string(kind)).Msg("audit event append failed")
		return
	}
	metrics.IncEvent(string(kind))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
