// 版权所有 2024 PluginFamily Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的插件注册表与管理接口指标采集能力。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制。所有指标按 namespace 隔离。Collector 实现
registry.Recorder，可直接通过 registry.WithRecorder 接入注册表。

# 主要能力

  - HTTP 指标：请求总数与耗时，按 method/path/status 分组，
    状态码归类为 2xx/3xx/4xx/5xx。
  - 注册表指标：发现次数与耗时、候选数量、被拒绝候选（按 reason）、
    代码冲突、当前插件数量、实例化请求（ok/error/not_found）。
  - 重载指标：按触发来源与结果分组的重载计数。
*/
package metrics
