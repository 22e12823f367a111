// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

// Package config 提供 OrganAIzer 服务的配置加载。
//
// 配置来源依次为内置默认值、YAML 文件、兼容的无前缀环境变量
// （OPENROUTER_API_KEY、MODEL、GEMINI_API_KEY）以及
// ORGANAIZER_ 前缀的环境变量，后者优先级最高。
// 嵌套字段的环境变量名由 env 标签逐级拼接，例如
// ORGANAIZER_IMAGE_GEMINI_MODEL。
package config
