package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/BaSui01/organaizer/api/handlers"
	"github.com/BaSui01/organaizer/config"
	"github.com/BaSui01/organaizer/internal/apikey"
	"github.com/BaSui01/organaizer/internal/metrics"
	"github.com/BaSui01/organaizer/internal/server"
	"github.com/BaSui01/organaizer/llm/image"
	"github.com/BaSui01/organaizer/llm/providers/openrouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// skipAuthPaths 无需 API Key 的路径
var skipAuthPaths = []string{"/", "/health", "/healthz", "/ready", "/version", "/metrics"}

// Server 是 OrganAIzer 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// Handlers
	healthHandler    *handlers.HealthHandler
	textImageHandler *handlers.TextImageHandler
	llmHandler       *handlers.LLMHandler

	// 指标收集器
	metricsCollector *metrics.Collector

	// API Key 存储，未启用认证时为 nil
	keyStore *apikey.Chain

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建服务器并完成依赖装配，ctx 用于初始化阶段的外部连接
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:              cfg,
		logger:           logger,
		metricsCollector: metrics.NewCollector("organaizer", logger),
	}

	if err := s.initHandlers(ctx); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}
	if err := s.initKeyStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to init api key store: %w", err)
	}

	s.httpManager = server.NewManager(s.buildHTTPHandler(), s.httpServerConfig(), logger)
	if cfg.Server.MetricsPort > 0 {
		s.metricsManager = server.NewManager(s.buildMetricsHandler(), s.metricsServerConfig(), logger)
	}

	return s, nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers(ctx context.Context) error {
	s.healthHandler = handlers.NewHealthHandler(Version, s.logger)

	orCfg := s.cfg.OpenRouter
	client := openrouter.New(openrouter.Config{
		APIKey:  orCfg.APIKey,
		BaseURL: orCfg.BaseURL,
		Referer: orCfg.Referer,
		Title:   orCfg.Title,
		Timeout: orCfg.Timeout,
	}, s.logger)
	if !client.HasCredential() {
		s.logger.Warn("OpenRouter API key not configured, remote generation and /api/llm will degrade")
	}

	imgCfg := image.Config{
		FetchTimeout:    s.cfg.Image.FetchTimeout,
		MaxPixels:       s.cfg.Image.MaxPixels,
		FallbackCount:   s.cfg.Image.FallbackCount,
		FallbackMaxSide: s.cfg.Image.FallbackMaxSide,
	}

	remote, err := s.newRemoteGenerator(ctx, client, imgCfg)
	if err != nil {
		return err
	}

	service := image.NewService(remote, imgCfg, s.metricsCollector, s.logger)
	s.textImageHandler = handlers.NewTextImageHandler(service, s.cfg.Image.MaxUploadBytes, s.logger)
	s.llmHandler = handlers.NewLLMHandler(client, orCfg.DefaultModel, s.metricsCollector, s.logger)

	s.logger.Info("Handlers initialized",
		zap.String("image_provider", s.cfg.Image.Provider),
		zap.String("image_remote", service.RemoteName()),
	)
	return nil
}

// newRemoteGenerator 按 image.provider 选择远程后端，none 时只使用兜底图片
func (s *Server) newRemoteGenerator(ctx context.Context, client *openrouter.Client, imgCfg image.Config) (image.RemoteGenerator, error) {
	switch s.cfg.Image.Provider {
	case config.ProviderOpenRouter:
		fetcher := image.NewFetcher(nil, imgCfg, s.metricsCollector, s.logger)
		return image.NewOpenRouterGenerator(client, image.OpenRouterConfig{
			Model: s.cfg.OpenRouter.ImageModel,
		}, fetcher, s.metricsCollector, s.logger), nil

	case config.ProviderGemini:
		gemCfg := image.GeminiConfig{
			APIKey:    s.cfg.Image.Gemini.APIKey,
			Model:     s.cfg.Image.Gemini.Model,
			MaxPixels: s.cfg.Image.MaxPixels,
		}
		models, err := image.NewGeminiClient(ctx, gemCfg)
		if err != nil {
			// 无 Key 时仍可提供兜底图片
			s.logger.Warn("Gemini client unavailable, serving fallback images only", zap.Error(err))
			return nil, nil
		}
		return image.NewGeminiGenerator(models, gemCfg, s.metricsCollector, s.logger), nil

	case config.ProviderNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown image provider %q", s.cfg.Image.Provider)
}

// initKeyStore 按配置构建 API Key 存储，并为 Redis 注册就绪检查
func (s *Server) initKeyStore(ctx context.Context) error {
	if !s.cfg.Auth.Enabled {
		s.logger.Warn("API key authentication disabled")
		return nil
	}

	chain, err := apikey.FromConfig(ctx, s.cfg.Auth, s.logger)
	if err != nil {
		return err
	}
	s.keyStore = chain

	if s.cfg.Auth.Redis.Addr != "" {
		s.healthHandler.RegisterCheck(handlers.NewRedisHealthCheck("api_keys", chain.Ping))
	}
	return nil
}

// =============================================================================
// 🌐 HTTP 路由与中间件
// =============================================================================

// buildHTTPHandler 注册路由并构建中间件链
func (s *Server) buildHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	// 健康检查端点
	mux.HandleFunc("GET /{$}", s.healthHandler.HandleRoot)
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(BuildTime, GitCommit))

	// API 路由
	mux.HandleFunc("POST /api/text-image/generate", s.textImageHandler.HandleGenerate)
	mux.HandleFunc("POST /api/llm", s.llmHandler.HandleCompletion)

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		MetricsMiddleware(s.metricsCollector),
		RequestLogger(s.logger),
		CORS(s.cfg.Server.CORSAllowedOrigins),
	}

	if s.cfg.Server.RateLimitRPS > 0 {
		rateLimiterCtx, cancel := context.WithCancel(context.Background())
		s.rateLimiterCancel = cancel
		middlewares = append(middlewares,
			RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}

	if s.keyStore != nil {
		middlewares = append(middlewares,
			APIKeyAuth(s.keyStore, skipAuthPaths, s.cfg.Auth.AllowQueryAPIKey, s.metricsCollector, s.logger))
	}

	return Chain(mux, middlewares...)
}

func (s *Server) buildMetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) httpServerConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Name = "api"
	cfg.Addr = fmt.Sprintf(":%d", s.cfg.Server.HTTPPort)
	cfg.ReadTimeout = s.cfg.Server.ReadTimeout
	cfg.WriteTimeout = s.cfg.Server.WriteTimeout
	cfg.IdleTimeout = 2 * s.cfg.Server.ReadTimeout
	cfg.ShutdownTimeout = s.cfg.Server.ShutdownTimeout
	return cfg
}

func (s *Server) metricsServerConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Name = "metrics"
	cfg.Addr = fmt.Sprintf(":%d", s.cfg.Server.MetricsPort)
	cfg.ReadTimeout = s.cfg.Server.ReadTimeout
	cfg.WriteTimeout = s.cfg.Server.ReadTimeout
	cfg.ShutdownTimeout = s.cfg.Server.ShutdownTimeout
	return cfg
}

// =============================================================================
// 🚀 运行与关闭
// =============================================================================

// Run 启动所有服务器并阻塞，直到 ctx 结束或任一服务器异常退出
func (s *Server) Run(ctx context.Context) error {
	if err := s.httpManager.Start(); err != nil {
		s.Shutdown()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	var metricsErrs <-chan error
	if s.metricsManager != nil {
		if err := s.metricsManager.Start(); err != nil {
			s.Shutdown()
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		metricsErrs = s.metricsManager.Errors()
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("auth_enabled", s.keyStore != nil),
	)

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received")
	case serveErr = <-s.httpManager.Errors():
	case serveErr = <-metricsErrs:
	}

	return errors.Join(serveErr, s.Shutdown())
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() error {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()
	var errs []error

	// 1. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 2. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
	}

	// 3. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
	}

	// 4. 关闭 Key 存储连接
	if s.keyStore != nil {
		if err := s.keyStore.Close(); err != nil {
			s.logger.Error("API key store close error", zap.Error(err))
			errs = append(errs, err)
		}
	}

	s.logger.Info("Graceful shutdown completed")
	return errors.Join(errs...)
}
