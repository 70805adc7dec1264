// 版权所有 2024 PluginFamily Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 pluginfamily 管理 API 的 HTTP 服务器生命周期。

# 核心类型

  - Manager：封装 net/http.Server，提供 Start/Shutdown/WaitForShutdown。
  - Config：监听地址、超时与请求头上限，可由 config.ServerConfig 构造。

# 主要能力

  - 非阻塞启动，Addr 返回实际监听地址（支持 ":0" 随机端口）。
  - WaitForShutdown 在 ctx 取消、SIGINT/SIGTERM 或服务异常时优雅关闭。
  - Shutdown 幂等，关闭后不可再次启动。
*/
package server
