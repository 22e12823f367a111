package image

import (
	"context"
	"fmt"

	"github.com/BaSui01/organaizer/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const geminiProviderName = "gemini"

// ContentGenerator 是 genai Models 服务的最小抽象
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator 通过 Google Gemini 原生多模态能力生成图片
type GeminiGenerator struct {
	models   ContentGenerator
	cfg      GeminiConfig
	recorder Recorder
	logger   *zap.Logger
}

// NewGeminiClient 使用 API key 创建 genai 客户端，返回其 Models 服务
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (ContentGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errNoCredential
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client.Models, nil
}

// NewGeminiGenerator 创建 Gemini 远程后端。models 为 nil 时每次调用都不可用
func NewGeminiGenerator(models ContentGenerator, cfg GeminiConfig, recorder Recorder, logger *zap.Logger) *GeminiGenerator {
	d := DefaultGeminiConfig()
	if cfg.Model == "" {
		cfg.Model = d.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = d.MaxPixels
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiGenerator{
		models:   models,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "gemini_image")),
	}
}

// Name 返回后端名称
func (g *GeminiGenerator) Name() string { return geminiProviderName }

// Generate 调用 GenerateContent，并适配返回的内联图片
func (g *GeminiGenerator) Generate(ctx context.Context, req *RemoteRequest) (images []GeneratedImage, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "image.remote.gemini")
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

	if g.models == nil {
		return nil, unavailable(errNoCredential)
	}

	span.SetAttributes(
		attribute.String("image.model", g.cfg.Model),
		attribute.String("image.preset", req.Preset.Name),
	)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.cfg.Model, g.buildContents(req), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: req.Preset.Aspect},
	})
	if err != nil {
		return nil, unavailable(err)
	}

	for _, data := range inlineImages(resp) {
		g.recorder.RecordImageFetch(fetchProcessed)
		images = append(images, GeneratedImage{
			ID:          remoteID(geminiProviderName, len(images), req.OriginalPrompt),
			URL:         FitToAspectLimit(data, req.Preset, g.cfg.MaxPixels),
			Description: req.OriginalPrompt,
		})
	}
	if len(images) == 0 {
		return nil, unavailable(errNoImages)
	}
	return images, nil
}

// buildContents 提示词在前，参考图按上传顺序跟随
func (g *GeminiGenerator) buildContents(req *RemoteRequest) []*genai.Content {
	parts := make([]*genai.Part, 0, len(req.References)+1)
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	for _, ref := range req.References {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: ref.MIMEType(), Data: ref.Data}})
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// inlineImages 收集所有候选中的内联图片数据
func inlineImages(resp *genai.GenerateContentResponse) [][]byte {
	if resp == nil {
		return nil
	}
	var out [][]byte
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				out = append(out, part.InlineData.Data)
			}
		}
	}
	return out
}
