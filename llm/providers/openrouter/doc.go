// Package openrouter 提供 OpenRouter（OpenAI 兼容）chat completions 客户端。
//
// Completion 用于 /api/llm 的非流式代理；Stream 返回 StreamReader，
// 以 Next/Chunk/Err 的拉取方式逐个读取 SSE 事件，供文生图流程
// 在事件到达时提取 delta.images。所有出站请求使用 tlsutil 的加固客户端，
// 错误统一为 *types.Error。
package openrouter
