package image

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaSui01/organaizer/internal/telemetry"
	"github.com/BaSui01/organaizer/llm/providers/openrouter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var (
	errNoCredential = errors.New("api key is not configured")
	errNoImages     = errors.New("no images in response")
)

// ChatStreamer 是 OpenRouter 流式接口的最小抽象
type ChatStreamer interface {
	Stream(ctx context.Context, req *openrouter.ChatRequest) (*openrouter.StreamReader, error)
	HasCredential() bool
}

// OpenRouterGenerator 通过 OpenRouter 的流式对话接口生成图片
type OpenRouterGenerator struct {
	client   ChatStreamer
	model    string
	fetcher  *Fetcher
	recorder Recorder
	logger   *zap.Logger
}

// NewOpenRouterGenerator 创建 OpenRouter 远程后端
func NewOpenRouterGenerator(client ChatStreamer, cfg OpenRouterConfig, fetcher *Fetcher, recorder Recorder, logger *zap.Logger) *OpenRouterGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenRouterConfig().Model
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetcher == nil {
		fetcher = NewFetcher(nil, DefaultConfig(), recorder, logger)
	}
	return &OpenRouterGenerator{
		client:   client,
		model:    cfg.Model,
		fetcher:  fetcher,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "openrouter_image")),
	}
}

// Name 返回后端名称
func (g *OpenRouterGenerator) Name() string { return openrouter.ProviderName }

// Generate 发起流式请求并按到达顺序处理图片
func (g *OpenRouterGenerator) Generate(ctx context.Context, req *RemoteRequest) (images []GeneratedImage, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "image.remote.openrouter")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("remote generator panicked", zap.Any("panic", r))
			images, err = nil, unavailable(fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("image.count", len(images)))
	}()

	if g.client == nil || !g.client.HasCredential() {
		return nil, unavailable(errNoCredential)
	}

	span.SetAttributes(
		attribute.String("image.model", g.model),
		attribute.String("image.preset", req.Preset.Name),
		attribute.Int("image.references", len(req.References)),
	)

	stream, err := g.client.Stream(ctx, g.buildRequest(req))
	if err != nil {
		return nil, unavailable(err)
	}
	defer stream.Close()

	stream.OnSkip(func(payload string, perr error) {
		g.recorder.RecordStreamChunkSkipped()
		g.logger.Debug("skipping malformed stream chunk", zap.Int("bytes", len(payload)), zap.Error(perr))
	})

	for stream.Next() {
		for _, u := range stream.Chunk().DeltaImageURLs() {
			images = append(images, GeneratedImage{
				ID:          remoteID("openrouter", len(images), req.OriginalPrompt),
				URL:         g.fetcher.Resolve(ctx, u, req.Preset),
				Description: req.OriginalPrompt,
			})
		}
	}

	if serr := stream.Err(); serr != nil {
		if len(images) == 0 {
			return nil, unavailable(serr)
		}
		g.logger.Warn("stream ended with error, returning partial result",
			zap.Int("images", len(images)),
			zap.Error(serr))
	}
	if len(images) == 0 {
		return nil, unavailable(errNoImages)
	}

	g.logger.Info("remote images generated",
		zap.Int("images", len(images)),
		zap.Int("skipped_chunks", stream.Skipped()))
	return images, nil
}

// buildRequest 构造文本加参考图的多段消息
func (g *OpenRouterGenerator) buildRequest(req *RemoteRequest) *openrouter.ChatRequest {
	parts := make([]openrouter.ContentPart, 0, len(req.References)+1)
	parts = append(parts, openrouter.TextPart(req.Prompt))
	for _, ref := range req.References {
		parts = append(parts, openrouter.ImagePart(ref.DataURI()))
	}
	return &openrouter.ChatRequest{
		Model:      g.model,
		Messages:   []openrouter.Message{openrouter.UserParts(parts...)},
		Modalities: []string{openrouter.ModalityImage, openrouter.ModalityText},
		Stream:     true,
	}
}
