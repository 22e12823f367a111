package api

import "time"

// =============================================================================
// 文生图类型
// =============================================================================

// Image 是返回给客户端的一张图片。
// @Description 生成的图片
type Image struct {
	// 图片 ID（openrouter_img_* / gemini_img_* / fallback_img_*）
	ID string `json:"id" example:"fallback_img_1"`
	// PNG data URI，或远程拉取失败时的原始 URL
	URL string `json:"url" example:"data:image/png;base64,..."`
	// 描述
	Description string `json:"description" example:"a red ball"`
}

// TextImageResponse 是 /api/text-image/generate 的响应。
// @Description 文生图响应
type TextImageResponse struct {
	Images []Image `json:"images"`
}

// DetailResponse 是文生图与鉴权失败时的错误体。
// @Description 错误详情
type DetailResponse struct {
	Detail string `json:"detail" example:"Prompt is required"`
}

// =============================================================================
// LLM 类型
// =============================================================================

// LLMRequest 是 /api/llm 的请求体。
// @Description LLM 补全请求
type LLMRequest struct {
	// 提示词
	Prompt string `json:"prompt" example:"Summarize this text"`
	// 模型，为空时使用默认模型
	Model string `json:"model,omitempty" example:"openrouter/auto"`
}

// LLMResponse 是 /api/llm 的响应体。
// @Description LLM 补全响应
type LLMResponse struct {
	Response string `json:"response"`
}

// =============================================================================
// 服务信息类型
// =============================================================================

// RootResponse 是 GET / 的响应。
type RootResponse struct {
	Message string `json:"message" example:"OrganAIzer Service API"`
}

// ServiceHealthResponse 是 GET /health 的响应。
// @Description 服务健康状态
type ServiceHealthResponse struct {
	Status    string    `json:"status" example:"healthy"`
	Service   string    `json:"service" example:"OrganAIzer Backend"`
	Version   string    `json:"version" example:"1.0.0"`
	Timestamp time.Time `json:"timestamp"`
}

// VersionInfo 是 GET /version 的响应数据。
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}
