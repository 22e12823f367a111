package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/organaizer/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/api/v1/",
		Referer: "https://organaizer.service",
		Title:   "OrganAIzer Service",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

// ---------------------------------------------------------------------------
// New() constructor
// ---------------------------------------------------------------------------

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil)
	require.NotNil(t, c)
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, 60*time.Second, c.cfg.Timeout)
	assert.Equal(t, DefaultBaseURL+"/chat/completions", c.endpoint())
	assert.False(t, c.HasCredential())
	assert.Zero(t, c.stream.Timeout, "stream client must not have an overall timeout")
}

func TestClient_HasCredential(t *testing.T) {
	assert.False(t, New(Config{APIKey: "   "}, nil).HasCredential())
	assert.True(t, New(Config{APIKey: "sk"}, nil).HasCredential())
}

// ---------------------------------------------------------------------------
// Completion
// ---------------------------------------------------------------------------

func TestClient_Completion(t *testing.T) {
	var gotBody ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "https://organaizer.service", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "OrganAIzer Service", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"gen-1","model":"openrouter/auto","choices":[{"index":0,"message":{"role":"assistant","content":"hello there"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	})

	resp, err := c.Completion(context.Background(), &ChatRequest{
		Model:    "openrouter/auto",
		Messages: []Message{UserText("hi")},
		Stream:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content())
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 3, resp.Usage.PromptTokens)

	assert.False(t, gotBody.Stream, "completion forces stream=false")
	assert.Equal(t, "openrouter/auto", gotBody.Model)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "hi", gotBody.Messages[0].Content)
}

func TestClient_Completion_NoCredential(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zap.NewNop())
	_, err := c.Completion(context.Background(), &ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrProviderUnavailable))
	assert.False(t, called, "no request should be sent without a key")
}

func TestClient_Completion_HTTPErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  types.ErrorCode
		wantMsg   string
		retryable bool
	}{
		{"unauthorized", 401, `{"error":{"message":"No auth credentials found"}}`, types.ErrUnauthorized, "No auth credentials found", false},
		{"rate limited", 429, `{"error":{"message":"slow down","type":"rate_limit"}}`, types.ErrRateLimited, "slow down (type: rate_limit)", true},
		{"bad request", 400, `{"error":{"message":"model not found"}}`, types.ErrInvalidRequest, "model not found", false},
		{"server error", 503, `upstream overloaded`, types.ErrUpstreamError, "upstream overloaded", true},
		{"empty body", 500, ``, types.ErrUpstreamError, "Internal Server Error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Completion(context.Background(), &ChatRequest{Model: "m"})
			require.Error(t, err)

			e, ok := types.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantMsg, e.Message)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.Equal(t, http.StatusBadGateway, e.HTTPStatus)
			assert.Equal(t, ProviderName, e.Provider)
		})
	}
}

func TestClient_Completion_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})
	_, err := c.Completion(context.Background(), &ChatRequest{Model: "m"})
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))
}

func TestClient_Completion_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Completion(ctx, &ChatRequest{Model: "m"})
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamTimeout))
}

// ---------------------------------------------------------------------------
// Stream
// ---------------------------------------------------------------------------

func TestClient_Stream(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i := 0; i < 2; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"images\":[{\"type\":\"image_url\",\"image_url\":{\"url\":\"https://cdn.test/%d.png\"}}]}}]}\n\n", i)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	r, err := c.Stream(context.Background(), &ChatRequest{
		Model:      "google/gemini-2.5-flash-image-preview",
		Messages:   []Message{UserParts(TextPart("a cat"), ImagePart("data:image/png;base64,AAAA"))},
		Modalities: []string{ModalityImage, ModalityText},
	})
	require.NoError(t, err)
	defer r.Close()

	var urls []string
	for r.Next() {
		urls = append(urls, r.Chunk().DeltaImageURLs()...)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"https://cdn.test/0.png", "https://cdn.test/1.png"}, urls)

	assert.Equal(t, true, gotBody["stream"])
	assert.Equal(t, []any{"image", "text"}, gotBody["modalities"])
	msgs := gotBody["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]any)["type"])
	assert.Equal(t, "image_url", content[1].(map[string]any)["type"])
}

func TestClient_Stream_Non2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = io.WriteString(w, `{"error":{"message":"insufficient credits"}}`)
	})
	_, err := c.Stream(context.Background(), &ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrProviderUnavailable))
	assert.Contains(t, err.Error(), "insufficient credits")
}

func TestClient_Stream_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{APIKey: "sk", BaseURL: url}, zap.NewNop())
	_, err := c.Stream(context.Background(), &ChatRequest{Model: "m"})
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))
}

// ---------------------------------------------------------------------------
// MapHTTPError
// ---------------------------------------------------------------------------

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   types.ErrorCode
	}{
		{401, types.ErrUnauthorized},
		{403, types.ErrUnauthorized},
		{402, types.ErrProviderUnavailable},
		{404, types.ErrInvalidRequest},
		{408, types.ErrUpstreamTimeout},
		{429, types.ErrRateLimited},
		{500, types.ErrUpstreamError},
		{418, types.ErrUpstreamError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			e := MapHTTPError(tt.status, "x")
			assert.Equal(t, tt.want, e.Code)
			assert.Equal(t, ProviderName, e.Provider)
		})
	}
}
