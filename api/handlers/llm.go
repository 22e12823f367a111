package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/organaizer/api"
	"github.com/BaSui01/organaizer/llm/providers/openrouter"
	"github.com/BaSui01/organaizer/types"
	"go.uber.org/zap"
)

// =============================================================================
// 💬 LLM 补全 Handler
// =============================================================================

// Completer 非流式补全接口
type Completer interface {
	Completion(ctx context.Context, req *openrouter.ChatRequest) (*openrouter.ChatResponse, error)
}

// LLMRecorder 记录补全指标
type LLMRecorder interface {
	RecordLLMRequest(model, status string, duration time.Duration, promptTokens, completionTokens int)
}

// LLMHandler 处理 /api/llm
type LLMHandler struct {
	client       Completer
	defaultModel string
	recorder     LLMRecorder
	logger       *zap.Logger
}

// NewLLMHandler 创建 LLM 处理器。recorder 可以为 nil
func NewLLMHandler(client Completer, defaultModel string, recorder LLMRecorder, logger *zap.Logger) *LLMHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMHandler{
		client:       client,
		defaultModel: defaultModel,
		recorder:     recorder,
		logger:       logger.With(zap.String("handler", "llm")),
	}
}

// HandleCompletion 处理补全请求
// @Summary LLM 补全
// @Description 将单条提示词转发给 OpenRouter
// @Tags LLM
// @Accept json
// @Produce json
// @Param request body api.LLMRequest true "补全请求"
// @Success 200 {object} api.LLMResponse "补全结果"
// @Failure 400 {object} Response "无效请求"
// @Failure 502 {object} Response "上游错误"
// @Security ApiKeyAuth
// @Router /api/llm [post]
func (h *LLMHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.LLMRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		WriteError(w, types.NewInvalidRequestError("prompt is required"), h.logger)
		return
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = h.defaultModel
	}

	start := time.Now()
	resp, err := h.client.Completion(r.Context(), &openrouter.ChatRequest{
		Model:    model,
		Messages: []openrouter.Message{openrouter.UserText(req.Prompt)},
	})
	duration := time.Since(start)

	if err != nil {
		h.record(model, "error", duration, nil)
		WriteError(w, upstreamFailure(err), h.logger)
		return
	}
	h.record(model, "success", duration, resp.Usage)

	h.logger.Info("llm completion",
		zap.String("model", model),
		zap.Duration("duration", duration),
	)

	WriteJSON(w, http.StatusOK, api.LLMResponse{Response: resp.Content()})
}

func (h *LLMHandler) record(model, status string, duration time.Duration, usage *openrouter.Usage) {
	if h.recorder == nil {
		return
	}
	var prompt, completion int
	if usage != nil {
		prompt, completion = usage.PromptTokens, usage.CompletionTokens
	}
	h.recorder.RecordLLMRequest(model, status, duration, prompt, completion)
}

// upstreamFailure 统一映射为 502 UPSTREAM_ERROR。未配置 key 时保持 503
func upstreamFailure(err error) *types.Error {
	e, ok := types.AsError(err)
	if !ok {
		return types.NewUpstreamError(openrouter.ProviderName, err)
	}
	if e.Code == types.ErrProviderUnavailable && e.HTTPStatus == http.StatusServiceUnavailable {
		return e
	}
	return types.NewError(types.ErrUpstreamError, e.Message).
		WithCause(e).
		WithHTTPStatus(http.StatusBadGateway).
		WithRetryable(e.Retryable).
		WithProvider(openrouter.ProviderName)
}
