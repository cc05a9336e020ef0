package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shopchat/backend/internal/domain"
)

// Config configures the webhook client
type Config struct {
	URL        string
	AuthHeader string // full Authorization header value; wins over Username/Password
	Username   string
	Password   string
	Timeout    time.Duration
}

// Client posts chat text to the upstream webhook.
// Requests are never retried: the webhook may act on them.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *zap.Logger
}

type postBody struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId,omitempty"`
}

// NewClient creates a new webhook client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
		logger:     logger,
	}
}

// Post sends {text, sessionId} and decodes the reply. A JSON body decodes to
// map[string]any, []any or a scalar; any other body is wrapped as
// {"rawText": body}. An empty body yields nil.
func (c *Client) Post(ctx context.Context, text, sessionID string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(postBody{Text: text, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if auth := c.authorization(); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("webhook request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrUpstreamFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("webhook returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 500)))
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
	}

	c.logger.Debug("webhook reply",
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	return decodeBody(body), nil
}

func (c *Client) authorization() string {
	if c.cfg.AuthHeader != "" {
		return c.cfg.AuthHeader
	}
	if c.cfg.Username != "" || c.cfg.Password != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(c.cfg.Username + ":" + c.cfg.Password))
		return "Basic " + creds
	}
	return ""
}

func decodeBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return map[string]any{"rawText": string(body)}
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
