package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/pluginfamily/internal/reload"
	"github.com/BaSui01/pluginfamily/plugin"
	"github.com/BaSui01/pluginfamily/registry"
)

// =============================================================================
// 🔌 插件管理 Handler
// =============================================================================

// ReloadTrigger 触发注册表重载
type ReloadTrigger interface {
	Trigger(ctx context.Context, trigger string) error
}

// PluginHandler 插件注册表管理处理器
type PluginHandler[T plugin.Plugin] struct {
	registry *registry.Registry[T]
	reloader ReloadTrigger
	logger   *zap.Logger
}

// NewPluginHandler 创建插件管理处理器。reloader 为 nil 时重载端点返回 404。
func NewPluginHandler[T plugin.Plugin](r *registry.Registry[T], reloader ReloadTrigger, logger *zap.Logger) *PluginHandler[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginHandler[T]{
		registry: r,
		reloader: reloader,
		logger:   logger.With(zap.String("component", "plugin_handler")),
	}
}

// PluginListResponse 插件列表响应
type PluginListResponse[T plugin.Plugin] struct {
	Owner      string                   `json:"owner"`
	Generation string                   `json:"generation"`
	BuiltAt    time.Time                `json:"built_at"`
	Plugins    []registry.Descriptor[T] `json:"plugins"`
}

// InstantiateRequest 实例化请求
type InstantiateRequest struct {
	Args   []any          `json:"args,omitempty"`
	Kwargs map[string]any `json:"kwargs,omitempty"`
}

// InstantiateResponse 实例化响应
type InstantiateResponse struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

// ReloadResponse 重载响应
type ReloadResponse struct {
	Generation string `json:"generation"`
	Plugins    int    `json:"plugins"`
}

// Register 挂载插件端点
func (h *PluginHandler[T]) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /plugins", h.HandleList)
	mux.HandleFunc("GET /plugins/{code}", h.HandleGet)
	mux.HandleFunc("POST /plugins/{code}/instantiate", h.HandleInstantiate)
	mux.HandleFunc("POST /plugins/reload", h.HandleReload)
}

// HandleList 列出已注册插件
// @Summary 列出插件
// @Description 返回注册表中全部插件描述符（注册顺序）
// @Tags plugins
// @Produce json
// @Success 200 {object} Response
// @Failure 500 {object} Response
// @Router /plugins [get]
func (h *PluginHandler[T]) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.ensureInitialised(w, r) {
		return
	}

	plugins := h.registry.Plugins()
	if plugins == nil {
		plugins = []registry.Descriptor[T]{}
	}

	WriteSuccess(w, PluginListResponse[T]{
		Owner:      h.registry.Owner(),
		Generation: h.registry.Generation(),
		BuiltAt:    h.registry.BuiltAt(),
		Plugins:    plugins,
	})
}

// HandleGet 查询单个插件
// @Summary 查询插件
// @Tags plugins
// @Produce json
// @Param code path string true "插件代码"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /plugins/{code} [get]
func (h *PluginHandler[T]) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !h.ensureInitialised(w, r) {
		return
	}

	code := r.PathValue("code")
	d, ok := h.registry.Lookup(code)
	if !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "plugin not found: "+code, nil, h.logger)
		return
	}

	WriteSuccess(w, d)
}

// HandleInstantiate 构造插件实例并返回其展示形式
// @Summary 实例化插件
// @Tags plugins
// @Accept json
// @Produce json
// @Param code path string true "插件代码"
// @Param request body InstantiateRequest false "构造参数"
// @Success 200 {object} Response{data=InstantiateResponse}
// @Failure 404 {object} Response
// @Failure 422 {object} Response
// @Router /plugins/{code}/instantiate [post]
func (h *PluginHandler[T]) HandleInstantiate(w http.ResponseWriter, r *http.Request) {
	if !h.ensureInitialised(w, r) {
		return
	}

	var req InstantiateRequest
	if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
		if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
			return
		}
	}

	args := req.Args
	if len(req.Kwargs) > 0 {
		args = append(args, plugin.Kwargs(req.Kwargs))
	}

	code := r.PathValue("code")
	p, ok, err := h.registry.Instantiate(r.Context(), code, args...)
	if !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "plugin not found: "+code, nil, h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, ErrUnprocessable, err.Error(), err, h.logger)
		return
	}

	WriteSuccess(w, InstantiateResponse{
		Code:    p.Code(),
		Display: plugin.Display(p),
	})
}

// HandleReload 触发注册表重载
// @Summary 重载插件
// @Tags plugins
// @Produce json
// @Success 200 {object} Response{data=ReloadResponse}
// @Failure 429 {object} Response
// @Failure 500 {object} Response
// @Router /plugins/reload [post]
func (h *PluginHandler[T]) HandleReload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "reload is not enabled", nil, h.logger)
		return
	}

	if err := h.reloader.Trigger(r.Context(), reload.TriggerAPI); err != nil {
		if errors.Is(err, reload.ErrThrottled) {
			WriteError(w, http.StatusTooManyRequests, ErrRateLimited, "reload throttled, retry later", err, h.logger)
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrInternal, "reload failed", err, h.logger)
		return
	}

	WriteSuccess(w, ReloadResponse{
		Generation: h.registry.Generation(),
		Plugins:    h.registry.Len(),
	})
}

func (h *PluginHandler[T]) ensureInitialised(w http.ResponseWriter, r *http.Request) bool {
	if err := h.registry.Initialise(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternal, "plugin discovery failed", err, h.logger)
		return false
	}
	return true
}
