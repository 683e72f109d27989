package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"conversation-insights/internal/domain"
	"conversation-insights/internal/domain/model"
	"conversation-insights/internal/domain/ports/repository"
	"conversation-insights/internal/infra/logging"
	"conversation-insights/internal/infra/metrics"
	"conversation-insights/internal/infra/worker"
)

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

// ConversationIn is the ingestion payload.
type ConversationIn struct {
	ExternalID string         `json:"external_id,omitempty"`
	ThreadID   string         `json:"thread_id,omitempty"`
	Text       string         `json:"text"`
	Raw        map[string]any `json:"raw,omitempty"`
}

type ConversationUseCase interface {
	// Ingest stores the conversation, records the audit event and hands the
	// ID to the processing queue (fire-and-forget).
	Ingest(ctx context.Context, in ConversationIn) (*model.Conversation, error)
	IngestBulk(ctx context.Context, items []ConversationIn) ([]string, error)
	Get(ctx context.Context, id string) (*model.Conversation, error)
	List(ctx context.Context, offset, limit int) ([]*model.Conversation, error)
	Events(ctx context.Context, id string) ([]*model.ProcessingEvent, error)
}

type conversationUC struct {
	conversations repository.ConversationRepository
	events        repository.ProcessingLogRepository
	queue         *worker.Queue

	log *zerolog.Logger
}

func NewConversationUseCase(
	conversations repository.ConversationRepository,
	events repository.ProcessingLogRepository,
	queue *worker.Queue,
	logger *zerolog.Logger,
) *conversationUC {
	l := logger.With().Str("component", "ConversationUC").Logger()
	return &conversationUC{
		conversations: conversations,
		events:        events,
		queue:         queue,
		log:           &l,
	}
}

func (uc *conversationUC) Ingest(ctx context.Context, in ConversationIn) (*model.Conversation, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, domain.ErrInvalidArgument
	}

	conv := &model.Conversation{
		ID:         uuid.NewString(),
		ExternalID: in.ExternalID,
		ThreadID:   in.ThreadID,
		Text:       in.Text,
		Raw:        in.Raw,
		CreatedAt:  time.Now(),
	}
	if err := uc.conversations.Create(ctx, nil, conv); err != nil {
		return nil, err
	}

	uc.appendIngestionEvent(ctx, conv.ID)
	uc.queue.Enqueue(conv.ID)

	// Picks up the request trace ID when the web layer stamped one.
	ctx = logging.WithConversationID(ctx, conv.ID)
	logging.With(ctx, uc.log).Info().Str("external_id", in.ExternalID).
		Msg("conversation ingested")
	return conv, nil
}

func (uc *conversationUC) IngestBulk(ctx context.Context, items []ConversationIn) ([]string, error) {
	ids := make([]string, 0, len(items))
	for _, in := range items {
		conv, err := uc.Ingest(ctx, in)
		if err != nil {
			// Skip bad rows, keep the rest of the batch.
			uc.log.Warn().Err(err).Str("external_id", in.ExternalID).Msg("bulk item rejected")
			continue
		}
		ids = append(ids, conv.ID)
	}
	return ids, nil
}

func (uc *conversationUC) Get(ctx context.Context, id string) (*model.Conversation, error) {
	return uc.conversations.FindByID(ctx, nil, id)
}

func (uc *conversationUC) List(ctx context.Context, offset, limit int) ([]*model.Conversation, error) {
	return uc.conversations.List(ctx, nil, offset, limit)
}

func (uc *conversationUC) Events(ctx context.Context, id string) ([]*model.ProcessingEvent, error) {
	return uc.events.FindByConversation(ctx, nil, id)
}

func (uc *conversationUC) appendIngestionEvent(ctx context.Context, conversationID string) {
	ev := &model.ProcessingEvent{
		ID:             ulid.Make().String(),
		ConversationID: conversationID,
		Kind:           model.EventIngestion,
		Status:         model.EventStatusSuccess,
		CreatedAt:      time.Now(),
	}
	if err := uc.events.Append(ctx, nil, ev); err != nil {
		uc.log.Error().Err(err).Str("conversation_id", conversationID).Msg("ingestion event append failed")
		return
	}
	metrics.IncEvent(string(model.EventIngestion))
}
