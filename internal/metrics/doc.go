// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集，覆盖 HTTP、文生图、
LLM 代理与认证四个维度。

# 概述

Collector 使用 promauto 注册到默认 Registry，所有指标按 namespace
隔离，由独立的 metrics 端口通过 promhttp 暴露。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 文生图指标：按结果层级（remote/fallback）与预设
    统计生成次数与耗时，按结果统计图片 URL 拉取，以及被跳过的
    畸形流事件数。
  - LLM 指标：请求总数、耗时与上游报告的 Token 用量。
  - 认证指标：按原因统计被拒绝的 API Key 校验。
*/
package metrics
