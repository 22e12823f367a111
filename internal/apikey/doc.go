// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 apikey 提供 X-API-Key 认证所需的 Key 查询。

# 核心类型

  - Store：Key 查询接口，Contains 在后端不可达时返回 error。
  - StaticStore：配置项 api_keys 与 CSV 文件（无表头，取第一列）
    合并得到的内存集合。
  - RedisStore：基于 Redis Set 的集合，使用 SISMEMBER 查询，
    支持运行时 Add/Remove。
  - Chain：按顺序组合多个 Store，任一命中即通过，并提供
    Ping/Close 供就绪检查与关闭流程使用。

FromConfig 根据 config.AuthConfig 构建 Chain。
*/
package apikey
