package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/BaSui01/organaizer/api"
	"github.com/BaSui01/organaizer/api/handlers"
	"github.com/BaSui01/organaizer/config"
	"github.com/BaSui01/organaizer/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testKey = "sk-test-key-0001"

// 同一进程只能构建一次 Server（Prometheus 默认注册表）
func TestServer_Routes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{testKey}
	cfg.Image.Provider = config.ProviderNone
	cfg.Image.FallbackMaxSide = 32
	cfg.Server.RateLimitRPS = 0
	require.NoError(t, cfg.Validate())

	srv, err := NewServer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, srv.keyStore)

	h := srv.buildHTTPHandler()

	do := func(method, target, contentType, body, key string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, target, strings.NewReader(body))
		if contentType != "" {
			r.Header.Set("Content-Type", contentType)
		}
		if key != "" {
			r.Header.Set(APIKeyHeader, key)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	t.Run("root without key", func(t *testing.T) {
		w := do(http.MethodGet, "/", "", "", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp api.RootResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "OrganAIzer Service API", resp.Message)
		assert.NotEmpty(t, w.Header().Get(handlers.RequestIDHeader))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("health without key", func(t *testing.T) {
		w := do(http.MethodGet, "/health", "", "", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp api.ServiceHealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "OrganAIzer Backend", resp.Service)
	})

	t.Run("missing key", func(t *testing.T) {
		w := do(http.MethodPost, "/api/llm", "application/json", `{"prompt":"hi"}`, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"detail":"Not authenticated"}`, w.Body.String())
	})

	t.Run("invalid key", func(t *testing.T) {
		w := do(http.MethodPost, "/api/llm", "application/json", `{"prompt":"hi"}`, "sk-wrong")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"detail":"Invalid API Key"}`, w.Body.String())
	})

	t.Run("text image falls back", func(t *testing.T) {
		form := url.Values{"prompt": {"a red ball"}, "aspect_ratio": {"square"}}
		w := do(http.MethodPost, "/api/text-image/generate", "application/x-www-form-urlencoded", form.Encode(), testKey)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "fallback", w.Header().Get(handlers.TierHeader))

		var resp api.TextImageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Images, 2)
		assert.Equal(t, "fallback_img_1", resp.Images[0].ID)
		assert.Equal(t, "fallback_img_2", resp.Images[1].ID)
		assert.True(t, strings.HasPrefix(resp.Images[0].URL, "data:image/png;base64,"))
	})

	t.Run("text image missing prompt", func(t *testing.T) {
		w := do(http.MethodPost, "/api/text-image/generate", "application/x-www-form-urlencoded", "aspect_ratio=wide", testKey)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"detail":"Prompt is required"}`, w.Body.String())
	})

	t.Run("llm without upstream key", func(t *testing.T) {
		w := do(http.MethodPost, "/api/llm", "application/json", `{"prompt":"hi"}`, testKey)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp handlers.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, string(types.ErrProviderUnavailable), resp.Error.Code)
		assert.Equal(t, w.Header().Get(handlers.RequestIDHeader), resp.RequestID)
	})

	t.Run("wrong method", func(t *testing.T) {
		w := do(http.MethodGet, "/api/llm", "", "", testKey)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		w := do(http.MethodGet, "/nope", "", "", testKey)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	require.NoError(t, srv.Shutdown())
}

func TestCheckHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	assert.NoError(t, checkHealth(ts.URL, 0))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	assert.Error(t, checkHealth(down.URL, 0))
}
