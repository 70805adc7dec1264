// =============================================================================
// pluginfamily 主入口
// =============================================================================
// 插件注册表命令行与管理服务
//
// 使用方法:
//
//	pluginfamily list                         # 列出已注册插件
//	pluginfamily get my_plugin                # 构造插件并显示
//	pluginfamily get echo hello prefix=">> "  # 位置参数与关键字参数
//	pluginfamily serve --config config.yaml   # 启动管理服务
//	pluginfamily version                      # 显示版本信息
//	pluginfamily health                       # 健康检查
// =============================================================================

// @title pluginfamily admin API
// @version 1.0.0
// @description Plugin registry inspection, instantiation and hot reload.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/pluginfamily/config"
	"github.com/BaSui01/pluginfamily/discovery"
	"github.com/BaSui01/pluginfamily/family"
	_ "github.com/BaSui01/pluginfamily/family/all"
	"github.com/BaSui01/pluginfamily/factory"
	"github.com/BaSui01/pluginfamily/internal/telemetry"
	"github.com/BaSui01/pluginfamily/plugin"
	"github.com/BaSui01/pluginfamily/registry"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = runList(os.Args[2:], os.Stdout)
	case "get":
		err = runGet(os.Args[2:], os.Stdout)
	case "serve":
		err = runServe(os.Args[2:])
	case "version":
		printVersion(os.Stdout)
	case "health":
		err = runHealthCheck(os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// ⚙️ 配置与注册表
// =============================================================================

// loadConfig 解析 --config 并加载配置，返回剩余参数
func loadConfig(name string, args []string) (*config.Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, fs.Args(), nil
}

// buildSources 由配置组装发现源：编译期目录 + 可选 .so 目录，
// 可选清单过滤两者。
func buildSources(cfg config.RegistryConfig, logger *zap.Logger) []discovery.Source {
	var src discovery.Source = discovery.DefaultCatalog
	if cfg.PluginDir != "" {
		src = discovery.Multi(src, discovery.NewDirSource(cfg.PluginDir, discovery.WithDirLogger(logger)))
	}
	if cfg.Manifest != "" {
		src = discovery.NewManifestSource(cfg.Manifest, src, logger)
	}
	return []discovery.Source{src}
}

// registryOptions 返回由配置派生的注册表选项
func registryOptions(cfg config.RegistryConfig, logger *zap.Logger) ([]registry.Option, error) {
	policy, err := registry.ParseProbePolicy(cfg.ProbePolicy)
	if err != nil {
		return nil, err
	}
	return []registry.Option{
		registry.WithSources(buildSources(cfg, logger)...),
		registry.WithLogger(logger),
		registry.WithProbePolicy(policy),
	}, nil
}

// =============================================================================
// 📋 list / get 命令
// =============================================================================

func runList(args []string, out io.Writer) error {
	cfg, _, err := loadConfig("list", args)
	if err != nil {
		return err
	}
	logger := cliLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	opts, err := registryOptions(cfg.Registry, logger)
	if err != nil {
		return err
	}
	reg := family.NewRegistry(opts...)

	codes, err := factory.New(reg).List(context.Background())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tDISPLAY\tUNIT")
	for _, code := range codes {
		d, _ := reg.Lookup(code)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Code, d.Display, d.Unit)
	}
	return tw.Flush()
}

func runGet(args []string, out io.Writer) error {
	cfg, rest, err := loadConfig("get", args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("usage: pluginfamily get [--config <path>] <code> [args...]")
	}
	logger := cliLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	opts, err := registryOptions(cfg.Registry, logger)
	if err != nil {
		return err
	}

	code := rest[0]
	p, ok, err := family.New(opts...).Get(context.Background(), code, parseArgs(rest[1:])...)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no plugin with code %q", code)
	}

	fmt.Fprintln(out, plugin.Display(p))
	fmt.Fprintln(out, p.Describe())
	return nil
}

// parseArgs 将 key=value 形式的参数收集为 plugin.Kwargs 并追加在位置参数之后
func parseArgs(raw []string) []any {
	var (
		args   []any
		kwargs plugin.Kwargs
	)
	for _, a := range raw {
		key, value, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			args = append(args, a)
			continue
		}
		if kwargs == nil {
			kwargs = plugin.Kwargs{}
		}
		kwargs[key] = parseValue(value)
	}
	if kwargs != nil {
		args = append(args, kwargs)
	}
	return args
}

// parseValue 识别布尔字面量，其余保持字符串
func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// cliLogger 构建命令行日志：stdout 让给命令输出，日志改写到 stderr
func cliLogger(cfg config.LogConfig) *zap.Logger {
	paths := make([]string, 0, len(cfg.OutputPaths))
	for _, p := range cfg.OutputPaths {
		if p == "stdout" {
			p = "stderr"
		}
		paths = append(paths, p)
	}
	cfg.OutputPaths = paths
	return initLogger(cfg)
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) error {
	cfg, _, err := loadConfig("serve", args)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pluginfamily",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("module_version", telemetry.Version()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer(cfg, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	err = srv.WaitForShutdown(ctx)
	logger.Info("pluginfamily stopped")
	return err
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	fmt.Fprintln(out, "OK")
	return nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(out io.Writer) {
	fmt.Fprintf(out, "pluginfamily %s\n", Version)
	fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, `pluginfamily - plugin registry

Usage:
  pluginfamily <command> [options]

Commands:
  list      List registered plugins
  get       Construct a plugin by code and print it
  serve     Start the admin HTTP server
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'list', 'get' and 'serve':
  --config <path>   Path to configuration file (YAML)

Arguments for 'get':
  <code> [args...]  args of the form key=value are passed as keyword arguments;
                    the values true and false become booleans

Examples:
  pluginfamily list
  pluginfamily get my_plugin
  pluginfamily get echo hello world prefix=">> " upper=true
  pluginfamily serve --config /etc/pluginfamily/config.yaml
  pluginfamily health --addr http://localhost:8080
  pluginfamily version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
