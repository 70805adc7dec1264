package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/pluginfamily/api/handlers"
	"github.com/BaSui01/pluginfamily/config"
	"github.com/BaSui01/pluginfamily/family"
	"github.com/BaSui01/pluginfamily/internal/metrics"
	"github.com/BaSui01/pluginfamily/internal/reload"
	"github.com/BaSui01/pluginfamily/internal/reloadbus"
	"github.com/BaSui01/pluginfamily/internal/server"
	"github.com/BaSui01/pluginfamily/internal/telemetry"
	"github.com/BaSui01/pluginfamily/registry"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 pluginfamily 的管理服务
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	namespace string

	// 服务器管理器
	httpManager *server.Manager

	// 插件注册表
	registry *registry.Registry[family.Plugin]

	// Handlers
	healthHandler *handlers.HealthHandler
	pluginHandler *handlers.PluginHandler[family.Plugin]

	// 指标与追踪
	metricsCollector *metrics.Collector
	otelProviders    *telemetry.Providers

	// 热重载
	coordinator  *reload.Coordinator
	watcher      *config.FileWatcher
	bus          *reloadbus.Bus
	subscription *reloadbus.Subscription

	// 后台任务生命周期
	cancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		namespace: "pluginfamily",
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 初始化注册表、热重载与 HTTP 服务（非阻塞）
func (s *Server) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	// 1. 指标与追踪
	s.metricsCollector = metrics.NewCollector(s.namespace, s.logger)

	otelProviders, err := telemetry.Init(s.cfg.Telemetry, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	s.otelProviders = otelProviders

	// 2. 插件注册表
	if err := s.initRegistry(ctx); err != nil {
		s.cleanup()
		return fmt.Errorf("failed to init registry: %w", err)
	}

	// 3. 热重载
	if err := s.initReload(ctx); err != nil {
		s.cleanup()
		return fmt.Errorf("failed to init reload: %w", err)
	}

	// 4. Handlers
	s.initHandlers()

	// 5. HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		s.cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	s.logger.Info("pluginfamily server started",
		zap.String("addr", s.Addr()),
		zap.String("owner", s.registry.Owner()),
		zap.Int("plugins", s.registry.Len()),
		zap.Bool("hot_reload", s.watcher != nil),
		zap.Bool("reload_bus", s.bus != nil),
	)
	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

func (s *Server) initRegistry(ctx context.Context) error {
	opts, err := registryOptions(s.cfg.Registry, s.logger)
	if err != nil {
		return err
	}
	opts = append(opts,
		registry.WithRecorder(s.metricsCollector),
		registry.WithTracer(s.otelProviders.Tracer("pluginfamily/registry")),
	)

	s.registry = family.NewRegistry(opts...)
	return s.registry.Initialise(ctx)
}

func (s *Server) initReload(ctx context.Context) error {
	rc := s.cfg.Registry
	opts := []reload.Option{
		reload.WithMetrics(s.metricsCollector),
		reload.WithLogger(s.logger),
	}
	if rc.ReloadRate > 0 {
		opts = append(opts, reload.WithLimit(rate.Limit(rc.ReloadRate), rc.ReloadBurst))
	}

	if s.cfg.Redis.Enabled {
		bus, err := reloadbus.New(s.cfg.Redis, s.logger)
		if err != nil {
			// 总线不可用时仅本地重载
			s.logger.Warn("reload bus not available, cross-process reload disabled", zap.Error(err))
		} else {
			s.bus = bus
			opts = append(opts, reload.WithPublisher(bus))
		}
	}

	s.coordinator = reload.NewCoordinator(s.registry, s.registry.Owner(), opts...)

	if s.bus != nil {
		sub, err := s.bus.Subscribe(ctx, func(msg reloadbus.Message) {
			s.coordinator.HandleMessage(ctx, msg)
		})
		if err != nil {
			return err
		}
		s.subscription = sub
	}

	if !rc.HotReload {
		return nil
	}
	paths := rc.WatchPaths()
	if len(paths) == 0 {
		s.logger.Info("hot reload enabled but no plugin_dir or manifest configured")
		return nil
	}

	watcher, err := config.NewFileWatcher(paths,
		config.WithPollInterval(rc.PollInterval),
		config.WithWatcherLogger(s.logger),
	)
	if err != nil {
		return err
	}
	s.coordinator.WatchFiles(ctx, watcher)
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	s.watcher = watcher
	return nil
}

func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewFuncHealthCheck("registry", func(ctx context.Context) error {
		if !s.registry.Initialised() {
			return errors.New("plugin registry not initialised")
		}
		return nil
	}))
	if s.bus != nil {
		s.healthHandler.RegisterCheck(s.bus)
	}

	s.pluginHandler = handlers.NewPluginHandler(s.registry, s.coordinator, s.logger)
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// routes 构建路由与中间件链
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// 健康检查端点
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// Prometheus 指标
	mux.Handle("GET /metrics", promhttp.Handler())

	// 插件管理 API
	s.pluginHandler.Register(mux)

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(s.otelProviders),
		MetricsMiddleware(s.metricsCollector),
	)
}

func (s *Server) startHTTPServer() error {
	s.httpManager = server.NewManager(s.routes(), server.FromConfig(s.cfg.Server), s.logger)
	return s.httpManager.Start()
}

// Addr 返回 HTTP 服务监听地址
func (s *Server) Addr() string {
	if s.httpManager == nil {
		return ""
	}
	return s.httpManager.Addr()
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号或 ctx 取消，然后释放全部资源
func (s *Server) WaitForShutdown(ctx context.Context) error {
	var err error
	if s.httpManager != nil {
		err = s.httpManager.WaitForShutdown(ctx)
	}
	s.cleanup()
	return err
}

// Shutdown 立即优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpManager != nil {
		err = s.httpManager.Shutdown(ctx)
	}
	s.cleanup()
	return err
}

func (s *Server) cleanup() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		_ = s.watcher.Stop()
		s.watcher = nil
	}
	if s.subscription != nil {
		if err := s.subscription.Close(); err != nil {
			s.logger.Debug("close reload subscription", zap.Error(err))
		}
		s.subscription = nil
	}
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			s.logger.Warn("close reload bus", zap.Error(err))
		}
		s.bus = nil
	}
	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(context.Background()); err != nil {
			s.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
		s.otelProviders = nil
	}
	s.logger.Info("server resources released")
}
