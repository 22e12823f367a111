// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 OrganAIzer HTTP API 的请求处理器实现。

# 概述

handlers 包实现文生图、LLM 补全与健康检查端点，以及统一的
响应/错误处理。所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - TextImageHandler — /api/text-image/generate，读取 multipart 或 urlencoded 表单
  - LLMHandler       — /api/llm，单条提示词的非流式补全
  - HealthHandler    — /、/health、/healthz、/ready、/version
  - Response         — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo        — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter   — 包装 http.ResponseWriter 以捕获状态码
  - HealthCheck      — 可插拔就绪检查接口

# 错误体

文生图端点与鉴权失败沿用 {"detail": "..."}（WriteDetail），
其余端点使用 WriteError 输出的统一信封。
*/
package handlers
