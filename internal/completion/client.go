package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"askai/internal/domain"
)

// Client talks to the Ask AI completion proxy.
type Client struct {
	url       string
	healthURL string
	apiKey    string
	client    *http.Client
	logger    *zap.Logger
}

// Config configures the completion proxy client.
type Config struct {
	URL       string
	HealthURL string
	// APIKeyEnv names an optional env var holding a bearer token.
	APIKeyEnv string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewClient creates a new completion client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("completion url is required")
	}
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	healthURL := cfg.HealthURL
	if healthURL == "" {
		healthURL = strings.TrimSuffix(cfg.URL, "/") + "/health"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 20 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:       cfg.URL,
		healthURL: healthURL,
		apiKey:    key,
		client:    &http.Client{Timeout: t},
		logger:    logger,
	}, nil
}

// HealthURL is the GET endpoint reporting proxy status.
func (c *Client) HealthURL() string { return c.healthURL }

// HTTPClient exposes the underlying client so the health checker shares it.
func (c *Client) HTTPClient() *http.Client { return c.client }

// Response is a decoded 2xx proxy reply.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice is one completion alternative.
type Choice struct {
	Message *struct {
		Role    string `json:"role,omitempty"`
		Content any    `json:"content"`
	} `json:"message,omitempty"`
}

// Answer returns choices[0].message.content as decoded, or nil.
func (r *Response) Answer() any {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return nil
	}
	return r.Choices[0].Message.Content
}

type errorBody struct {
	Error json.RawMessage `json:"error"`
}

// Complete posts the question and its context. Non-2xx replies come back as
// *domain.ServiceError and missing replies as *domain.TransportError.
func (c *Client) Complete(ctx context.Context, in domain.CompletionRequest) (domain.Completion, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("completion response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(payload)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ServiceError{Status: resp.StatusCode, Message: errorMessage(payload)}
	}

	var out Response
	if err := json.Unmarshal(payload, &out); err != nil {
		c.logger.Warn("completion body not json", zap.Error(err))
		return nil, &domain.TransportError{Err: fmt.Errorf("%w: %v", domain.ErrMalformedReply, err)}
	}
	return &out, nil
}

// errorMessage extracts {"error": "..."} or {"error": {"message": "..."}}.
func errorMessage(payload []byte) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Error, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
