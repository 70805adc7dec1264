// Copyright (c) PluginFamily Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 pluginfamily 管理 HTTP API 的请求处理器实现。

# 概述

handlers 包实现插件注册表的查询、实例化与重载端点，
以及健康检查和统一的响应/错误处理。
所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - PluginHandler    — 泛型插件注册表处理器（列表、查询、实例化、重载）
  - HealthHandler    — 服务健康检查（/health, /healthz, /ready）
  - Response         — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo        — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter   — 包装 http.ResponseWriter 以捕获状态码
  - HealthCheck      — 可插拔健康检查接口

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON 辅助函数
  - 请求验证：DecodeJSONBody（1 MB 限制 + 严格模式）
  - 插件未找到返回 404，构造失败返回 422，重载限流返回 429
  - 可扩展健康检查：RegisterCheck 注册自定义 HealthCheck 实现
*/
package handlers
