package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopchat/backend/internal/domain"
)

var testLogger = zap.NewNop()

// MockWebhookClient is a mock implementation of domain.WebhookClient
type MockWebhookClient struct {
	response any
	err      error
	texts    []string
}

func (m *MockWebhookClient) Post(ctx context.Context, text, sessionID string) (any, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

// MockLLMClient is a mock implementation of domain.LLMClient. Replies are
// returned in order; the last one repeats.
type MockLLMClient struct {
	replies []string
	err     error
	prompts []string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	i := len(m.prompts) - 1
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return m.replies[i], nil
}

// MockStorefrontClient is a mock implementation of domain.StorefrontClient
type MockStorefrontClient struct {
	products []domain.Product
	err      error
	queries  []string
}

func (m *MockStorefrontClient) ListProducts(ctx context.Context, first int) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *MockStorefrontClient) SearchProducts(ctx context.Context, query string, first int) ([]domain.Product, error) {
	m.queries = append(m.queries, query)
	return m.products, m.err
}

func (m *MockStorefrontClient) StoreDomain() string {
	return "demo.myshopify.com"
}

// MockCartClient is a mock implementation of domain.CartClient
type MockCartClient struct {
	err   error
	added []string
}

func (m *MockCartClient) Add(ctx context.Context, variantID string, quantity int) error {
	if m.err != nil {
		return m.err
	}
	m.added = append(m.added, variantID)
	return nil
}

// MockProductCache is a mock implementation of domain.ProductCache
type MockProductCache struct {
	data      map[string][]domain.Product
	getCalled bool
	setCalled bool
}

func NewMockProductCache() *MockProductCache {
	return &MockProductCache{data: make(map[string][]domain.Product)}
}

func (m *MockProductCache) Get(ctx context.Context, key string) ([]domain.Product, error) {
	m.getCalled = true
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockProductCache) Set(ctx context.Context, key string, products []domain.Product, ttl time.Duration) error {
	m.setCalled = true
	m.data[key] = products
	return nil
}

// MockHistoryRepository is a mock implementation of domain.HistoryRepository
type MockHistoryRepository struct {
	mu       sync.Mutex
	sessions map[string][]domain.ChatHistoryEntry
	busy     map[string]bool
	created  int
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{
		sessions: make(map[string][]domain.ChatHistoryEntry),
		busy:     make(map[string]bool),
	}
}

func (m *MockHistoryRepository) Create() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	id := "session_" + strings.Repeat("x", m.created)
	m.sessions[id] = nil
	return domain.Session{SessionID: id}
}

func (m *MockHistoryRepository) Append(sessionID string, entry domain.ChatHistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], entry)
}

func (m *MockHistoryRepository) Get(sessionID string) ([]domain.ChatHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return append([]domain.ChatHistoryEntry(nil), h...), nil
}

func (m *MockHistoryRepository) TryAcquire(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[sessionID] {
		return false
	}
	m.busy[sessionID] = true
	return true
}

func (m *MockHistoryRepository) Release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy[sessionID] = false
}

func priced(id, title, handle, desc, price string, tags ...string) domain.Product {
	return domain.Product{
		ID:          id,
		Title:       title,
		Handle:      handle,
		Description: desc,
		Tags:        tags,
		Variants:    []domain.Variant{{ID: "gid://shopify/ProductVariant/" + id, Price: price, Currency: "INR"}},
	}
}
