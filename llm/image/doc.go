// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 image 实现带宽高比适配与本地兜底的文生图流程。

# 概述

Service 是入口：先调用远程后端（OpenRouter 流式对话或 Gemini
GenerateContent），远程不可用时改为本地程序化绘制。两级结果互不
混合，也不重试，返回的 Result 总是至少包含一张图片。

# 核心类型

  - Preset：五个固定尺寸预设，Resolve 对未知名称返回 square。
  - RemoteGenerator：远程后端接口，失败一律包装为 ErrUnavailable。
  - OpenRouterGenerator / GeminiGenerator：两个远程实现。
  - Fetcher：拉取远程图片 URL，失败时保留原始 URL。
  - Synthesizer：按提示词确定性绘制渐变、圆形与文字带。
  - Result：Tier 区分远程与兜底来源。

# 图片适配

FitToAspect 先居中裁剪到目标比例，再用 CatmullRom 重采样到预设
尺寸，输出 PNG data URI。无法解码的数据按原字节编码返回；
解码前先读取头部尺寸，像素数超过 Config.MaxPixels 的图片同样原样返回。
*/
package image
