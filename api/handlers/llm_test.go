package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BaSui01/organaizer/llm/providers/openrouter"
	"github.com/BaSui01/organaizer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	resp *openrouter.ChatResponse
	err  error
	got  *openrouter.ChatRequest
}

func (f *fakeCompleter) Completion(_ context.Context, req *openrouter.ChatRequest) (*openrouter.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type llmCall struct {
	model  string
	status string
}

type fakeLLMRecorder struct {
	calls []llmCall
}

func (f *fakeLLMRecorder) RecordLLMRequest(model, status string, _ time.Duration, _, _ int) {
	f.calls = append(f.calls, llmCall{model: model, status: status})
}

func textResponse(content string) *openrouter.ChatResponse {
	return &openrouter.ChatResponse{
		Choices: []openrouter.Choice{{Message: &openrouter.ResponseMessage{Role: "assistant", Content: content}}},
		Usage:   &openrouter.Usage{PromptTokens: 3, CompletionTokens: 5},
	}
}

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/llm", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func TestLLMHandler_Success(t *testing.T) {
	client := &fakeCompleter{resp: textResponse("hello there")}
	rec := &fakeLLMRecorder{}
	h := NewLLMHandler(client, "openrouter/auto", rec, zap.NewNop())

	w := postJSON(h.HandleCompletion, `{"prompt":"hi"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response":"hello there"}`, w.Body.String())
	require.NotNil(t, client.got)
	assert.Equal(t, "openrouter/auto", client.got.Model)
	assert.False(t, client.got.Stream)
	assert.Equal(t, []llmCall{{model: "openrouter/auto", status: "success"}}, rec.calls)
}

func TestLLMHandler_ExplicitModel(t *testing.T) {
	client := &fakeCompleter{resp: textResponse("ok")}
	h := NewLLMHandler(client, "openrouter/auto", nil, zap.NewNop())

	w := postJSON(h.HandleCompletion, `{"prompt":"hi","model":"anthropic/claude-3.5-sonnet"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", client.got.Model)
}

func TestLLMHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   types.ErrorCode
	}{
		{"missing prompt", `{}`, nil, http.StatusBadRequest, types.ErrInvalidRequest},
		{"blank prompt", `{"prompt":"  "}`, nil, http.StatusBadRequest, types.ErrInvalidRequest},
		{"invalid json", `{"prompt":`, nil, http.StatusBadRequest, types.ErrInvalidRequest},
		{"plain upstream error", `{"prompt":"hi"}`, errors.New("connection reset"), http.StatusBadGateway, types.ErrUpstreamError},
		{"rate limited upstream", `{"prompt":"hi"}`, openrouter.MapHTTPError(429, "slow down"), http.StatusBadGateway, types.ErrUpstreamError},
		{"missing key", `{"prompt":"hi"}`, types.NewError(types.ErrProviderUnavailable, "no key").WithHTTPStatus(503), http.StatusServiceUnavailable, types.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLLMHandler(&fakeCompleter{err: tt.err}, "openrouter/auto", nil, zap.NewNop())

			w := postJSON(h.HandleCompletion, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.wantCode), resp.Error.Code)
		})
	}
}
