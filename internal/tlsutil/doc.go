// Package tlsutil 提供集中式 TLS 配置，
// 为上游调用（OpenRouter 补全、流式生成、图片下载）提供安全加固的 HTTP 客户端
// （TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
