// =============================================================================
// OrganAIzer OpenRouter Client
// =============================================================================
// OpenAI-compatible chat completions against OpenRouter. Completion serves the
// LLM proxy; Stream serves image generation and returns a pull iterator over
// the server-sent events.
// =============================================================================

package openrouter

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

	"github.com/BaSui01/organaizer/internal/tlsutil"
	"github.com/BaSui01/organaizer/types"
)

// ProviderName identifies OpenRouter in errors, logs and metrics.
const ProviderName = "openrouter"

// DefaultBaseURL is the public OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const endpointPath = "/chat/completions"

// maxErrorBody caps how much of an upstream error body is read.
const maxErrorBody = 64 << 10

// Config holds the configuration for the OpenRouter client.
type Config struct {
	// APIKey is sent as a Bearer token. An empty key disables the client.
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Referer and Title are OpenRouter's attribution headers.
	Referer string
	Title   string

	// Timeout bounds a non-streaming completion. Defaults to 60s.
	Timeout time.Duration

	// StreamHeaderTimeout bounds the wait for a stream's response headers.
	// The body itself is bounded only by the request context. Defaults to 60s.
	StreamHeaderTimeout time.Duration

	// MaxStreamLineBytes bounds one SSE line. Longer lines are skipped.
	// Defaults to DefaultMaxLineBytes.
	MaxStreamLineBytes int
}

// Client is an OpenRouter chat-completions client.
type Client struct {
	cfg    Config
	http   *http.Client
	stream *http.Client
	logger *zap.Logger
}

// New creates a client with the given config.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.StreamHeaderTimeout <= 0 {
		cfg.StreamHeaderTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   tlsutil.SecureHTTPClient(cfg.Timeout),
		stream: tlsutil.StreamingHTTPClient(cfg.StreamHeaderTimeout),
		logger: logger.With(zap.String("component", "openrouter")),
	}
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// endpoint builds the full URL for the chat completions path.
func (c *Client) endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + endpointPath
}

// buildHeaders applies auth and attribution headers.
func (c *Client) buildHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.cfg.APIKey))
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
}

func (c *Client) newRequest(ctx context.Context, body *ChatRequest) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.buildHeaders(httpReq)
	return httpReq, nil
}

// Completion performs a non-streaming chat completion.
func (c *Client) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if !c.HasCredential() {
		return nil, types.NewError(types.ErrProviderUnavailable, "OpenRouter API key is not configured").
			WithHTTPStatus(http.StatusServiceUnavailable).
			WithProvider(ProviderName)
	}

	body := *req
	body.Stream = false

	httpReq, err := c.newRequest(ctx, &body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := ReadErrorMessage(resp.Body)
		return nil, MapHTTPError(resp.StatusCode, msg)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "invalid completion response").
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithProvider(ProviderName)
	}
	return &out, nil
}

// Stream starts a streaming chat completion. The caller must Close the
// returned reader.
func (c *Client) Stream(ctx context.Context, req *ChatRequest) (*StreamReader, error) {
	if !c.HasCredential() {
		return nil, types.NewError(types.ErrProviderUnavailable, "OpenRouter API key is not configured").
			WithHTTPStatus(http.StatusServiceUnavailable).
			WithProvider(ProviderName)
	}

	body := *req
	body.Stream = true

	httpReq, err := c.newRequest(ctx, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg := ReadErrorMessage(resp.Body)
		return nil, MapHTTPError(resp.StatusCode, msg)
	}

	c.logger.Debug("stream opened", zap.String("model", req.Model))
	return NewStreamReader(resp.Body).WithMaxLineBytes(c.cfg.MaxStreamLineBytes), nil
}

func transportError(ctx context.Context, err error) *types.Error {
	if ctx.Err() != nil {
		return types.NewError(types.ErrUpstreamTimeout, "upstream request cancelled").
			WithCause(err).
			WithHTTPStatus(http.StatusGatewayTimeout).
			WithProvider(ProviderName)
	}
	return types.NewUpstreamError(ProviderName, err)
}

// ReadErrorMessage extracts a readable message from an upstream error body.
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return "failed to read error response"
	}

	var errResp errorBody
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}

	return strings.TrimSpace(string(data))
}

// MapHTTPError converts an upstream status into a gateway error.
func MapHTTPError(status int, msg string) *types.Error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	e := types.NewError(types.ErrUpstreamError, msg).
		WithHTTPStatus(http.StatusBadGateway).
		WithProvider(ProviderName)

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		e.Code = types.ErrUnauthorized
	case status == http.StatusPaymentRequired:
		e.Code = types.ErrProviderUnavailable
	case status == http.StatusTooManyRequests:
		e.Code = types.ErrRateLimited
		e.Retryable = true
	case status == http.StatusBadRequest, status == http.StatusNotFound:
		e.Code = types.ErrInvalidRequest
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		e.Code = types.ErrUpstreamTimeout
		e.Retryable = true
	case status >= 500:
		e.Retryable = true
	}
	return e
}
