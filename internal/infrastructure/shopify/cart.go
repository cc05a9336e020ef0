package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shopchat/backend/internal/domain"
)

// CartClient posts directly to the storefront AJAX cart endpoint
type CartClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewCartClient creates a cart client for storeDomain
func NewCartClient(storeDomain string, timeout time.Duration, logger *zap.Logger) *CartClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &CartClient{
		httpClient: &http.Client{},
		baseURL:    storeBaseURL(storeDomain),
		timeout:    timeout,
		logger:     logger,
	}
}

// Add posts {id, quantity} to /cart/add.js. Any 2xx status is success.
// The request is not retried.
func (c *CartClient) Add(ctx context.Context, variantID string, quantity int) error {
	if c.baseURL == "" {
		return domain.ErrStorefrontNotConfigured
	}
	if quantity <= 0 {
		quantity = 1
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{"id": numericID(variantID), "quantity": quantity})
	if err != nil {
		return fmt.Errorf("failed to encode cart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cart/add.js", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCartAddFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("cart add rejected", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return fmt.Errorf("%w: status %d", domain.ErrCartAddFailed, resp.StatusCode)
	}
	return nil
}
