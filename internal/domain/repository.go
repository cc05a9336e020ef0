package domain

import (
	"context"
	"time"
)

// WebhookClient posts user text to the upstream chat/search webhook.
// The returned value is the decoded body: nil, string, map[string]any or []any.
type WebhookClient interface {
	Post(ctx context.Context, text, sessionID string) (any, error)
}

// LLMClient generates a completion for a single prompt
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StorefrontClient reads products from the storefront API
type StorefrontClient interface {
	ListProducts(ctx context.Context, first int) ([]Product, error)
	SearchProducts(ctx context.Context, query string, first int) ([]Product, error)
	StoreDomain() string
}

// CartClient adds a variant to the storefront cart directly
type CartClient interface {
	Add(ctx context.Context, variantID string, quantity int) error
}

// HistoryRepository stores ephemeral per-session chat history
type HistoryRepository interface {
	Create() Session
	Append(sessionID string, entry ChatHistoryEntry)
	Get(sessionID string) ([]ChatHistoryEntry, error)
	TryAcquire(sessionID string) bool
	Release(sessionID string)
}

// ProductCache caches storefront search results by query
type ProductCache interface {
	Get(ctx context.Context, key string) ([]Product, error)
	Set(ctx context.Context, key string, products []Product, ttl time.Duration) error
}
