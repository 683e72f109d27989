package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"conversation-insights/internal/infra/metrics"
)

// Queue is the FIFO hand-off between ingestion (many producers) and the
// scheduler (one consumer). Delivery is at-most-once: items still buffered
// when the process dies are not replayed.
type Queue struct {
	ch  chan string
	log *zerolog.Logger
}

func NewQueue(capacity int, logger *zerolog.Logger) *Queue {
	if capacity <= 0 {
		capacity = 10000
	}
	l := logger.With().Str("component", "Queue").Logger()
	return &Queue{ch: make(chan string, capacity), log: &l}
}

// Enqueue never blocks and never fails the producer: when the queue is at
// capacity the item is dropped with a warning and a counter bump.
func (q *Queue) Enqueue(conversationID string) {
	select {
	case q.ch <- conversationID:
	default:
		metrics.IncQueueDrop()
		q.log.Warn().Str("conversation_id", conversationID).Msg("queue full, dropping conversation")
	}
}

// Dequeue waits up to timeout for the next item. The second return is false
// on timeout or context cancellation.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (string, bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case id := <-q.ch:
		return id, true
	case <-t.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// TryDequeue returns immediately; used for greedy batch collection.
func (q *Queue) TryDequeue() (string, bool) {
	select {
	case id := <-q.ch:
		return id, true
	default:
		return "", false
	}
}

func (q *Queue) Size() int { return len(q.ch) }
