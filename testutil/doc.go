// Copyright 2026 PluginFamily Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 pluginfamily 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 异步断言: AssertEventuallyTrue / WaitFor / WaitForChannel
  - 文件辅助: WriteFile / TouchLater，用于热重载测试中制造可观察的变更

# 子包

  - testutil/fixtures: 候选插件样例，包括完整、不完整、必须带参数、
    探测时 panic 等情形，以及组装 Static 发现源的 Source 函数
  - testutil/mocks: Recorder（记录注册表事件）与 Reloader（计数重载）

# 使用示例

	ctx := testutil.TestContext(t)
	src := fixtures.Source(fixtures.Complete("square"), fixtures.Incomplete("broken"))
	r := registry.New[plugin.Plugin]("example.com/shapes", registry.WithSources(src))
	require.NoError(t, r.Initialise(ctx))
*/
package testutil
