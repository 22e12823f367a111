// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 OrganAIzer 服务端程序入口。

# 概述

cmd/organaizer 是 OrganAIzer 网关的可执行入口，提供 HTTP API 服务、
健康检查和版本查询等子命令。程序支持 YAML 配置文件与环境变量覆盖、
结构化日志（zap）、Prometheus 指标采集以及 OpenTelemetry 追踪。

# 核心类型

  - Server           — 主服务器，管理 API、Metrics 双端口及优雅关闭
  - Middleware        — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - AuthRecorder      — 认证失败计数接口，由 metrics.Collector 实现

# 主要能力

  - 子命令：serve（启动服务）、version、health
  - 路由：/、/health、/healthz、/ready、/version、
    POST /api/text-image/generate、POST /api/llm
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、
    MetricsMiddleware、RequestLogger、CORS、RateLimiter（基于 IP）、
    APIKeyAuth（X-API-Key / query 参数，静态列表、CSV 与 Redis）
  - 文生图后端：按 image.provider 选择 openrouter、gemini 或仅兜底
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：SIGINT/SIGTERM → 关闭 HTTP → 关闭 Metrics → 关闭 Key 存储 → 关闭遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
