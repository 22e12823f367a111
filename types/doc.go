// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供网关各层共享的基础类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 api、llm/image、
cmd 等上层模块提供统一的错误体系与 Context 传播工具，避免循环依赖。

# 核心类型

  - Error / ErrorCode — 结构化错误，含 HTTP 状态码、Retryable、Provider 标记
  - contextKey        — Context 键类型（request_id / trace_id / client_key）

# 主要能力

  - 错误工具链：NewError / WithCause / AsError / IsErrorCode / IsRetryable
  - 常用错误构造：NewInvalidRequestError / NewUpstreamError
  - Context 传播：WithRequestID / WithTraceID / WithClientKey
*/
package types
