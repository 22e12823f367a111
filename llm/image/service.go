package image

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/organaizer/internal/telemetry"
	"github.com/BaSui01/organaizer/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

var errNoRemote = errors.New("no remote generator configured")

// =============================================================================
// 🖼️ 两级编排
// =============================================================================

// Service 先尝试远程后端，不可用时退化为本地兜底图片
type Service struct {
	remote      RemoteGenerator
	synthesizer *Synthesizer
	cfg         Config
	recorder    Recorder
	generations metric.Int64Counter
	logger      *zap.Logger
}

// GenerationsCounter OTel 计数器名称，按 tier 与 preset 计数
const GenerationsCounter = "organaizer.image.generations"

// NewService 创建编排器。remote 可以为 nil，此时始终使用兜底图片
func NewService(remote RemoteGenerator, cfg Config, recorder Recorder, logger *zap.Logger) *Service {
	cfg = cfg.withDefaults()
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "image_service"))

	generations, err := telemetry.Meter().Int64Counter(GenerationsCounter,
		metric.WithDescription("Image generation requests by tier"))
	if err != nil {
		logger.Warn("failed to create generations counter", zap.Error(err))
		generations = noop.Int64Counter{}
	}

	return &Service{
		remote:      remote,
		synthesizer: NewSynthesizer(cfg.FallbackMaxSide),
		cfg:         cfg,
		recorder:    recorder,
		generations: generations,
		logger:      logger,
	}
}

// Generate 生成图片。唯一的错误是提示词为空，其余情况总是返回至少一张图
func (s *Service) Generate(ctx context.Context, req *GenerationRequest) (*Result, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, types.NewInvalidRequestError("Prompt is required")
	}

	start := time.Now()
	prompt := strings.TrimSpace(req.Prompt)
	preset := Resolve(req.AspectRatio)

	ctx, span := telemetry.Tracer().Start(ctx, "image.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("image.preset", preset.Name),
		attribute.Int("image.references", len(req.References)),
	)

	result := s.generate(ctx, prompt, preset, req.References)

	duration := time.Since(start)
	s.recorder.RecordImageGeneration(string(result.Tier), preset.Name, duration)
	s.generations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tier", string(result.Tier)),
		attribute.String("preset", preset.Name),
	))
	span.SetAttributes(
		attribute.String("image.tier", string(result.Tier)),
		attribute.Int("image.count", len(result.Images)),
	)

	fields := []zap.Field{
		zap.String("tier", string(result.Tier)),
		zap.String("preset", preset.Name),
		zap.Int("images", len(result.Images)),
		zap.Duration("duration", duration),
	}
	if result.Reason != nil {
		fields = append(fields, zap.NamedError("reason", result.Reason))
	}
	s.logger.Info("image generation completed", fields...)

	return result, nil
}

// generate 不混合两级结果，也不重试
func (s *Service) generate(ctx context.Context, prompt string, preset Preset, refs []ReferenceImage) *Result {
	images, err := s.callRemote(ctx, &RemoteRequest{
		Prompt:         preset.EnhancePrompt(prompt),
		OriginalPrompt: prompt,
		Preset:         preset,
		References:     refs,
	})
	if err == nil && len(images) > 0 {
		return &Result{Tier: TierRemote, Preset: preset, Images: images}
	}
	if err == nil {
		err = unavailable(errNoImages)
	}

	return &Result{
		Tier:   TierFallback,
		Preset: preset,
		Reason: err,
		Images: s.fallback(prompt, preset),
	}
}

// callRemote 捕获远程后端的 panic
func (s *Service) callRemote(ctx context.Context, req *RemoteRequest) (images []GeneratedImage, err error) {
	if s.remote == nil {
		return nil, unavailable(errNoRemote)
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("remote generator panicked", zap.Any("panic", r))
			images, err = nil, unavailable(fmt.Errorf("panic: %v", r))
		}
	}()
	return s.remote.Generate(ctx, req)
}

// fallback 生成编号从 1 开始的兜底图片
func (s *Service) fallback(prompt string, preset Preset) []GeneratedImage {
	images := make([]GeneratedImage, 0, s.cfg.FallbackCount)
	for i := 1; i <= s.cfg.FallbackCount; i++ {
		images = append(images, s.synthesizer.Synthesize(i, prompt, preset))
	}
	return images
}

// RemoteName 返回远程后端名称，未配置时为 "none"
func (s *Service) RemoteName() string {
	if s.remote == nil {
		return "none"
	}
	return s.remote.Name()
}
