// File: internal/infra/web/mocks_test.go
package web

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"conversation-insights/internal/config"
	"conversation-insights/internal/domain"
	"conversation-insights/internal/domain/model"
	"conversation-insights/internal/infra/worker"
	"conversation-insights/internal/usecase"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// mockConversationUC lets each test stub only the calls it exercises.
type mockConversationUC struct {
	IngestFunc     func(ctx context.Context, in usecase.ConversationIn) (*model.Conversation, error)
	IngestBulkFunc func(ctx context.Context, items []usecase.ConversationIn) ([]string, error)
	GetFunc        func(ctx context.Context, id string) (*model.Conversation, error)
	ListFunc       func(ctx context.Context, offset, limit int) ([]*model.Conversation, error)
	EventsFunc     func(ctx context.Context, id string) ([]*model.ProcessingEvent, error)
}

func (m *mockConversationUC) Ingest(ctx context.Context, in usecase.ConversationIn) (*model.Conversation, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, in)
	}
	return nil, domain.ErrNotFound
}

func (m *mockConversationUC) IngestBulk(ctx context.Context, items []usecase.ConversationIn) ([]string, error) {
	if m.IngestBulkFunc != nil {
		return m.IngestBulkFunc(ctx, items)
	}
	return nil, nil
}

func (m *mockConversationUC) Get(ctx context.Context, id string) (*model.Conversation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockConversationUC) List(ctx context.Context, offset, limit int) ([]*model.Conversation, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, offset, limit)
	}
	return nil, nil
}

func (m *mockConversationUC) Events(ctx context.Context, id string) ([]*model.ProcessingEvent, error) {
	if m.EventsFunc != nil {
		return m.EventsFunc(ctx, id)
	}
	return nil, nil
}

type mockInsightUC struct {
	GetFunc             func(ctx context.Context, id string) (*model.Insight, error)
	ListRecentFunc      func(ctx context.Context, limit int, sentiment string) ([]*model.Insight, error)
	ForConversationFunc func(ctx context.Context, conversationID string) ([]*model.Insight, error)
	TrendsFunc          func(ctx context.Context, days int) (*usecase.Trends, error)
}

func (m *mockInsightUC) Get(ctx context.Context, id string) (*model.Insight, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockInsightUC) ListRecent(ctx context.Context, limit int, sentiment string) ([]*model.Insight, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit, sentiment)
	}
	return nil, nil
}

func (m *mockInsightUC) ForConversation(ctx context.Context, conversationID string) ([]*model.Insight, error) {
	if m.ForConversationFunc != nil {
		return m.ForConversationFunc(ctx, conversationID)
	}
	return nil, nil
}

func (m *mockInsightUC) Trends(ctx context.Context, days int) (*usecase.Trends, error) {
	if m.TrendsFunc != nil {
		return m.TrendsFunc(ctx, days)
	}
	return &usecase.Trends{WindowDays: days}, nil
}

type mockStatsUC struct {
	TotalsFunc func(ctx context.Context) (*usecase.Stats, error)
}

func (m *mockStatsUC) Totals(ctx context.Context) (*usecase.Stats, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx)
	}
	return &usecase.Stats{}, nil
}

// idleScheduler returns a scheduler that is constructed but not running;
// enough for health and depth reporting.
func idleScheduler() *worker.Scheduler {
	logger := newTestLogger()
	queue := worker.NewQueue(10, logger)
	return worker.NewScheduler(config.PipelineConfig{}, queue, nil, nil, nil, nil, nil, nil, logger)
}

func newTestServer(convUC *mockConversationUC, insightUC *mockInsightUC, statsUC *mockStatsUC, cfg config.ServerConfig) *Server {
	if cfg.BulkMaxItems == 0 {
		cfg.BulkMaxItems = 500
	}
	if cfg.MaxListLimit == 0 {
		cfg.MaxListLimit = 1000
	}
	return NewServer(convUC, insightUC, statsUC, idleScheduler(), nil, config.RateLimitConfig{}, cfg, newTestLogger())
}
