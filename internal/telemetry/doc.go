// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为 OrganAIzer 提供集中式的 TracerProvider 和 MeterProvider 配置。
// 当遥测功能禁用时，使用 noop 实现，不连接任何外部服务。
// Tracer 与 Meter 返回统一作用域下的埋点对象，供 HTTP 中间件与
// 文生图流程创建 span 和计数器。
package telemetry
