// Package config 提供 PluginFamily 的配置管理功能。
//
// 包含配置加载（默认值、YAML 文件、环境变量）、配置校验，
// 以及用于插件热重载的文件监视器。
package config
