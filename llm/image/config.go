package image

import "time"

// Config 控制编排器与远程后端的行为
type Config struct {
	// FetchTimeout 单张远程图片的拉取超时
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`
	// MaxFetchBytes 单张远程图片的最大字节数
	MaxFetchBytes int64 `json:"max_fetch_bytes" yaml:"max_fetch_bytes"`
	// MaxPixels 适配前允许解码的最大像素数，超出时原样返回
	MaxPixels int64 `json:"max_pixels" yaml:"max_pixels"`
	// FallbackCount 兜底图片数量
	FallbackCount int `json:"fallback_count" yaml:"fallback_count"`
	// FallbackMaxSide 兜底图片最长边
	FallbackMaxSide int `json:"fallback_max_side" yaml:"fallback_max_side"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		FetchTimeout:    30 * time.Second,
		MaxFetchBytes:   32 << 20,
		MaxPixels:       DefaultMaxPixels,
		FallbackCount:   2,
		FallbackMaxSide: DefaultFallbackMaxSide,
	}
}

// withDefaults 用默认值补齐零值字段
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.MaxFetchBytes <= 0 {
		c.MaxFetchBytes = d.MaxFetchBytes
	}
	if c.MaxPixels <= 0 {
		c.MaxPixels = d.MaxPixels
	}
	if c.FallbackCount <= 0 {
		c.FallbackCount = d.FallbackCount
	}
	if c.FallbackMaxSide <= 0 {
		c.FallbackMaxSide = d.FallbackMaxSide
	}
	return c
}

// OpenRouterConfig 配置 OpenRouter 远程后端
type OpenRouterConfig struct {
	Model string `json:"model" yaml:"model"`
}

// DefaultOpenRouterConfig 返回默认 OpenRouter 图像配置
func DefaultOpenRouterConfig() OpenRouterConfig {
	return OpenRouterConfig{Model: "google/gemini-2.5-flash-image-preview"}
}

// GeminiConfig 配置 Google Gemini 远程后端
type GeminiConfig struct {
	APIKey    string        `json:"api_key" yaml:"api_key"`
	Model     string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxPixels int64         `json:"max_pixels,omitempty" yaml:"max_pixels,omitempty"`
}

// DefaultGeminiConfig 返回默认 Gemini 图像配置
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		Model:     "gemini-2.5-flash-image-preview",
		Timeout:   120 * time.Second,
		MaxPixels: DefaultMaxPixels,
	}
}
