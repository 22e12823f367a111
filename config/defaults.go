// =============================================================================
// 📦 OrganAIzer 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// 文生图远程后端
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderNone       = "none"
)

// DefaultCORSOrigins 前端部署使用的来源
var DefaultCORSOrigins = []string{
	"https://organaizer.com2u.selfhost.eu",
	"https://organaizer_backend.com2u.selfhost.eu",
	"http://localhost:5173",
	"http://localhost:3000",
	"http://192.168.0.95:5173",
	"http://192.168.0.95:3000",
	"http://100.107.41.75:5173",
	"http://100.107.41.75:3000",
	"http://192.168.0.95",
	"http://100.107.41.75",
	"http://localhost",
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Auth:       DefaultAuthConfig(),
		OpenRouter: DefaultOpenRouterConfig(),
		Image:      DefaultImageConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	origins := make([]string, len(DefaultCORSOrigins))
	copy(origins, DefaultCORSOrigins)
	return ServerConfig{
		HTTPPort:           8000,
		MetricsPort:        9091,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       180 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		CORSAllowedOrigins: origins,
		RateLimitRPS:       20,
		RateLimitBurst:     40,
	}
}

// DefaultAuthConfig 返回默认认证配置
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Enabled:  false,
		APIKeys:  []string{},
		KeysFile: "",
		Redis: RedisConfig{
			KeySet:   "organaizer:api_keys",
			PoolSize: 10,
			Timeout:  2 * time.Second,
		},
	}
}

// DefaultOpenRouterConfig 返回默认 OpenRouter 配置
func DefaultOpenRouterConfig() OpenRouterConfig {
	return OpenRouterConfig{
		BaseURL:      "https://openrouter.ai/api/v1",
		ImageModel:   "google/gemini-2.5-flash-image-preview",
		DefaultModel: "openrouter/auto",
		Referer:      "https://organaizer.service",
		Title:        "OrganAIzer Service",
		Timeout:      60 * time.Second,
	}
}

// DefaultImageConfig 返回默认文生图配置
func DefaultImageConfig() ImageConfig {
	return ImageConfig{
		Provider:        ProviderOpenRouter,
		FetchTimeout:    30 * time.Second,
		MaxUploadBytes:  20 << 20,
		MaxPixels:       64 << 20,
		FallbackCount:   2,
		FallbackMaxSide: 512,
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash-image-preview",
		},
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "organaizer",
		SampleRate:   0.1,
	}
}
