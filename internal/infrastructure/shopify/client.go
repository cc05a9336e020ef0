package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shopchat/backend/internal/domain"
)

// Config configures the storefront client
type Config struct {
	StoreDomain     string
	StorefrontToken string
	APIVersion      string
	Timeout         time.Duration
	RateLimit       float64 // requests per second
}

// Client talks to the Shopify Storefront GraphQL API
type Client struct {
	httpClient  *http.Client
	cfg         Config
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// NewClient creates a new storefront client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-10"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}

	return &Client{
		httpClient:  &http.Client{},
		cfg:         cfg,
		baseURL:     storeBaseURL(cfg.StoreDomain),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 4),
		logger:      logger,
	}
}

// StoreDomain returns the configured storefront host
func (c *Client) StoreDomain() string {
	d := strings.TrimPrefix(strings.TrimPrefix(c.cfg.StoreDomain, "https://"), "http://")
	return strings.TrimSuffix(d, "/")
}

// ListProducts returns the first products of the catalog
func (c *Client) ListProducts(ctx context.Context, first int) ([]domain.Product, error) {
	var resp productsResponse
	vars := map[string]any{"first": clampFirst(first, 25)}
	if err := c.query(ctx, listProductsQuery, vars, &resp); err != nil {
		return nil, err
	}
	return MapToProducts(&resp), nil
}

// SearchProducts runs a storefront product search query
func (c *Client) SearchProducts(ctx context.Context, query string, first int) ([]domain.Product, error) {
	var resp productsResponse
	vars := map[string]any{"first": clampFirst(first, 100), "query": query}
	if err := c.query(ctx, searchProductsQuery, vars, &resp); err != nil {
		return nil, err
	}
	products := MapToProducts(&resp)
	c.logger.Debug("storefront search", zap.String("query", query), zap.Int("results", len(products)))
	return products, nil
}

// query executes a GraphQL read, retrying transient failures up to 3 times
func (c *Client) query(ctx context.Context, query string, vars map[string]any, out any) error {
	if c.cfg.StoreDomain == "" || c.cfg.StorefrontToken == "" {
		return domain.ErrStorefrontNotConfigured
	}

	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}
	endpoint := fmt.Sprintf("%s/api/%s/graphql.json", c.baseURL, c.cfg.APIVersion)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", domain.ErrStorefrontFailure, ctx.Err())
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		body, status, err := c.doRequest(ctx, endpoint, payload)
		if err != nil {
			c.logger.Warn("storefront request error", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		if status != http.StatusOK {
			c.logger.Warn("storefront API error",
				zap.Int("attempt", attempt),
				zap.Int("status", status),
				zap.ByteString("body", body))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrStorefrontFailure, status)
			// client errors other than throttling will not improve on retry
			if status < 500 && status != http.StatusTooManyRequests {
				return lastErr
			}
			continue
		}

		var gql graphQLResponse
		if err := json.Unmarshal(body, &gql); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		if len(gql.Errors) > 0 {
			return fmt.Errorf("%w: %s", domain.ErrStorefrontFailure, gql.Errors[0].Message)
		}
		if err := json.Unmarshal(gql.Data, out); err != nil {
			return fmt.Errorf("failed to decode data: %w", err)
		}
		return nil
	}

	return lastErr
}

// doRequest executes one POST under the client timeout
func (c *Client) doRequest(ctx context.Context, endpoint string, payload []byte) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.cfg.StorefrontToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrStorefrontFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading body: %v", domain.ErrStorefrontFailure, err)
	}
	return body, resp.StatusCode, nil
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func storeBaseURL(storeDomain string) string {
	d := strings.TrimSuffix(strings.TrimSpace(storeDomain), "/")
	if d == "" {
		return ""
	}
	if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
		return d
	}
	return "https://" + d
}
