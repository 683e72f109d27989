// File: internal/infra/worker/mocks_test.go
package worker

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"conversation-insights/internal/domain"
	"conversation-insights/internal/domain/model"
	"conversation-insights/internal/domain/ports/adapter"
	"conversation-insights/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// memConversationRepo is a small in-memory implementation used by unit tests.
type memConversationRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Conversation
	findErr error // simulate load failures
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{store: make(map[string]*model.Conversation)}
}

func (m *memConversationRepo) Create(ctx context.Context, tx repository.Tx, c *model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memConversationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Conversation, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memConversationRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Conversation, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memConversationRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

type memInsightRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.Insight
	createErr error // simulate persistence failures
}

func newMemInsightRepo() *memInsightRepo {
	return &memInsightRepo{store: make(map[string]*model.Insight)}
}

func (m *memInsightRepo) Create(ctx context.Context, tx repository.Tx, in *model.Insight) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *in
	m.store[in.ID] = &cp
	return nil
}

func (m *memInsightRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Insight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (m *memInsightRepo) FindByConversation(ctx context.Context, tx repository.Tx, conversationID string) ([]*model.Insight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Insight
	for _, in := range m.store {
		if in.ConversationID == conversationID {
			cp := *in
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memInsightRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int, sentiment model.Sentiment) ([]*model.Insight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Insight
	for _, in := range m.store {
		if sentiment != "" && in.Sentiment != sentiment {
			continue
		}
		cp := *in
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memInsightRepo) ListSince(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.Insight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Insight
	for _, in := range m.store {
		if !in.CreatedAt.Before(cutoff) {
			cp := *in
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memInsightRepo) Totals(ctx context.Context, tx repository.Tx) (int, int64, float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tokens int64
	var cost float64
	for _, in := range m.store {
		tokens += int64(in.TokensUsed)
		cost += in.EstimatedCost
	}
	return len(m.store), tokens, cost, nil
}

type memCacheRepo struct {
	mu     sync.RWMutex
	byHash map[string]*model.AnalysisCacheEntry
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{byHash: make(map[string]*model.AnalysisCacheEntry)}
}

func (m *memCacheRepo) FindByHash(ctx context.Context, tx repository.Tx, hash string) (*model.AnalysisCacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byHash[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memCacheRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, e *model.AnalysisCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHash[e.TextHash]; ok {
		return nil
	}
	cp := *e
	m.byHash[e.TextHash] = &cp
	return nil
}

func (m *memCacheRepo) IncrementHit(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byHash {
		if e.ID == id {
			e.HitCount++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memCacheRepo) TotalHits(ctx context.Context, tx repository.Tx) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, e := range m.byHash {
		total += e.HitCount
	}
	return total, nil
}

type memEventRepo struct {
	mu     sync.RWMutex
	events []*model.ProcessingEvent
}

func newMemEventRepo() *memEventRepo { return &memEventRepo{} }

func (m *memEventRepo) Append(ctx context.Context, tx repository.Tx, ev *model.ProcessingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ev
	m.events = append(m.events, &cp)
	return nil
}

func (m *memEventRepo) FindByConversation(ctx context.Context, tx repository.Tx, conversationID string) ([]*model.ProcessingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.ProcessingEvent
	for _, ev := range m.events {
		if ev.ConversationID == conversationID {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memEventRepo) kinds(conversationID string) []model.EventKind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.EventKind
	for _, ev := range m.events {
		if ev.ConversationID == conversationID {
			out = append(out, ev.Kind)
		}
	}
	return out
}

// fakeTxManager runs the function directly; the mem repos ignore the tx
// handle anyway.
type fakeTxManager struct{}

func (fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// fakeAnalyzer returns canned results or errors and counts calls.
type fakeAnalyzer struct {
	mu      sync.Mutex
	calls   int
	result  *adapter.Analysis
	err     error
	errFor  int // fail the first errFor calls, then succeed
	analyze func(ctx context.Context, text string) (*adapter.Analysis, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (*adapter.Analysis, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.analyze != nil {
		return f.analyze(ctx, text)
	}
	if f.err != nil && (f.errFor == 0 || n <= f.errFor) {
		return nil, f.err
	}
	if f.result != nil {
		cp := *f.result
		return &cp, nil
	}
	return &adapter.Analysis{
		Summary:         "summary of " + text,
		Sentiment:       "neutral",
		EstimatedTokens: 10,
		EstimatedCost:   0.01,
		Model:           "fake",
		Mock:            true,
	}, nil
}

func (f *fakeAnalyzer) Name() string { return "fake" }

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
