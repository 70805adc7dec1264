package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/pluginfamily/internal/metrics"
)

var testNamespaceSeq atomic.Int64

// nextTestNamespace 为每个测试生成唯一指标命名空间，避免重复注册
func nextTestNamespace() string {
	return fmt.Sprintf("pluginfamily_cmd_test_%d", testNamespaceSeq.Add(1))
}

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	SecurityHeaders()(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
}

func TestRequestID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})
	handler := RequestID()(inner)

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, strings.HasPrefix(seen, "req-"))
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("preserved", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "client-id")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, "client-id", seen)
		assert.Equal(t, "client-id", w.Header().Get("X-Request-ID"))
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	Chain(inner, mark("outer"), mark("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("plugin exploded")
	})

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		Recovery(zap.New(core))(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plugins", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	RequestLogger(zap.New(core))(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plugins/echo", nil))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/plugins/echo", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/plugins", "/plugins"},
		{"/plugins/reload", "/plugins/reload"},
		{"/plugins/my_plugin", "/plugins/{code}"},
		{"/plugins/echo/instantiate", "/plugins/{code}/instantiate"},
		{"/plugins/echo/unknown", "other"},
		{"/plugins/", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePath(tt.path))
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	ns := nextTestNamespace()
	collector := metrics.NewCollector(ns, zap.NewNop())

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := MetricsMiddleware(collector)(inner)

	for _, code := range []string{"a", "b", "c"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plugins/"+code, nil))
	}

	expected := fmt.Sprintf(`
# HELP %[1]s_http_requests_total Total number of HTTP requests
# TYPE %[1]s_http_requests_total counter
%[1]s_http_requests_total{method="GET",path="/plugins/{code}",status="4xx"} 3
`, ns)
	assert.NoError(t, testutil.GatherAndCompare(
		prometheus.DefaultGatherer, strings.NewReader(expected), ns+"_http_requests_total"))
}
