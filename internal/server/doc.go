// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP/HTTPS 服务器生命周期管理，支持非阻塞启动、
优雅关闭与基于 context 的阻塞运行。

# 核心类型

  - Manager：HTTP 服务器管理器，持有 http.Server、net.Listener
    与异步错误通道。API 服务与 metrics 服务各用一个实例，
    通过 Config.Name 在日志中区分。
  - Config：监听地址、读写超时、空闲超时、最大请求头大小、
    优雅关闭超时与可选的 TLS 证书。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 阻塞运行：Run 在 ctx 取消或服务异常退出后自动优雅关闭。
  - TLS：同时配置 CertFile 与 KeyFile 时使用 tlsutil 的加固配置。
  - 状态查询：IsRunning/Addr/BoundAddr，使用 ":0" 时 BoundAddr
    返回实际端口。
*/
package server
