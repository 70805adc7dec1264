// Copyright (c) PluginFamily Authors.
// Licensed under the MIT License.

/*
Package main 提供 pluginfamily 命令行程序入口。

# 概述

cmd/pluginfamily 链接 family 包的全部插件，提供插件查询、实例化
与管理 HTTP 服务等子命令。程序支持 YAML 配置文件加载、结构化日志（zap）、
Prometheus 指标采集、OpenTelemetry 追踪以及插件热重载。

# 核心类型

  - Server      — 管理服务，持有注册表、重载协调器与 HTTP 服务器
  - Middleware  — HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：list、get、serve、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    OTelTracing、MetricsMiddleware
  - 热重载：文件轮询、管理 API 与 Redis 广播三种触发方式，统一限流
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
