package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/pluginfamily/registry"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，同时实现 registry.Recorder
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 注册表指标
	discoveryTotal     *prometheus.CounterVec
	discoveryDuration  *prometheus.HistogramVec
	candidatesFound    *prometheus.GaugeVec
	candidatesSkipped  *prometheus.CounterVec
	codeCollisions     *prometheus.CounterVec
	pluginsRegistered  *prometheus.GaugeVec
	instantiationTotal *prometheus.CounterVec

	// 重载指标
	reloadsTotal *prometheus.CounterVec

	logger *zap.Logger
}

var _ registry.Recorder = (*Collector)(nil)

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 注册表指标
	c.discoveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "discovery_total",
			Help:      "Total number of plugin discovery passes",
		},
		[]string{"owner", "status"},
	)

	c.discoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "discovery_duration_seconds",
			Help:      "Plugin discovery and registration duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"owner"},
	)

	c.candidatesFound = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "candidates",
			Help:      "Number of candidates seen by the last discovery pass",
		},
		[]string{"owner"},
	)

	c.candidatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "candidates_skipped_total",
			Help:      "Total number of candidates rejected during registration",
		},
		[]string{"owner", "reason"},
	)

	c.codeCollisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "code_collisions_total",
			Help:      "Total number of plugins that replaced an earlier plugin with the same code",
		},
		[]string{"owner", "code"},
	)

	c.pluginsRegistered = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "plugins",
			Help:      "Number of plugins in the installed index",
		},
		[]string{"owner"},
	)

	c.instantiationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "instantiations_total",
			Help:      "Total number of plugin instantiation requests",
		},
		[]string{"owner", "code", "status"}, // status: ok, error, not_found
	)

	// 重载指标
	c.reloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Total number of hot reload requests",
		},
		[]string{"trigger", "status"}, // status: ok, error, throttled
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🔌 注册表指标记录（registry.Recorder）
// =============================================================================

// DiscoveryCompleted 记录一次发现与注册过程
func (c *Collector) DiscoveryCompleted(owner string, duration time.Duration, candidates int, err error) {
	c.discoveryTotal.WithLabelValues(owner, outcome(err)).Inc()
	c.discoveryDuration.WithLabelValues(owner).Observe(duration.Seconds())
	if err == nil {
		c.candidatesFound.WithLabelValues(owner).Set(float64(candidates))
	}
}

// CandidateSkipped 记录被拒绝的候选插件
func (c *Collector) CandidateSkipped(owner, reason string) {
	c.candidatesSkipped.WithLabelValues(owner, reason).Inc()
}

// CodeCollision 记录插件代码冲突
func (c *Collector) CodeCollision(owner, code string) {
	c.codeCollisions.WithLabelValues(owner, code).Inc()
}

// IndexInstalled 记录当前索引大小
func (c *Collector) IndexInstalled(owner string, size int) {
	c.pluginsRegistered.WithLabelValues(owner).Set(float64(size))
}

// Instantiated 记录插件实例化
func (c *Collector) Instantiated(owner, code string, found bool, err error) {
	status := outcome(err)
	if !found {
		// 未知代码不作为 label，避免基数膨胀
		code = ""
		status = "not_found"
	}
	c.instantiationTotal.WithLabelValues(owner, code, status).Inc()
}

// =============================================================================
// 🔄 重载指标记录
// =============================================================================

// RecordReload 记录重载请求，status 为 ok、error 或 throttled
func (c *Collector) RecordReload(trigger, status string) {
	c.reloadsTotal.WithLabelValues(trigger, status).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
