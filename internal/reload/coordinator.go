// Package reload serializes and rate-limits plugin registry reloads coming
// from the admin API, file changes and other processes.
// This package is internal and should not be imported by external projects.
package reload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/pluginfamily/config"
	"github.com/BaSui01/pluginfamily/internal/reloadbus"
)

// Triggers label where a reload request came from.
const (
	TriggerAPI    = "api"
	TriggerFile   = "file"
	TriggerRemote = "remote"
	TriggerSignal = "signal"
)

// ErrThrottled is returned by Trigger when the reload rate limit is hit.
var ErrThrottled = errors.New("reload throttled")

// Reloader rebuilds a plugin index.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Publisher announces a completed local reload to other processes.
type Publisher interface {
	Publish(ctx context.Context, owner, reason string) error
}

// Metrics receives reload outcomes.
type Metrics interface {
	RecordReload(trigger, status string)
}

// Coordinator funnels reload requests into one Reloader.
type Coordinator struct {
	target    Reloader
	owner     string
	limiter   *rate.Limiter
	publisher Publisher
	metrics   Metrics
	logger    *zap.Logger

	// serializes reloads
	mu sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLimit sets the reload rate and burst.
func WithLimit(r rate.Limit, burst int) Option {
	return func(c *Coordinator) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithPublisher broadcasts successful local reloads.
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// WithMetrics records reload outcomes.
func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator creates a Coordinator reloading target, which belongs to
// owner. Without WithLimit reloads are not rate limited.
func NewCoordinator(target Reloader, owner string, opts ...Option) *Coordinator {
	c := &Coordinator{
		target:  target,
		owner:   owner,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "reload_coordinator"), zap.String("owner", owner))
	return c
}

// Trigger reloads immediately or fails with ErrThrottled.
func (c *Coordinator) Trigger(ctx context.Context, trigger string) error {
	if !c.limiter.Allow() {
		c.record(trigger, "throttled")
		c.logger.Warn("reload throttled", zap.String("trigger", trigger))
		return ErrThrottled
	}
	return c.reload(ctx, trigger)
}

// TriggerWait waits for the rate limiter, then reloads.
func (c *Coordinator) TriggerWait(ctx context.Context, trigger string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		c.record(trigger, "throttled")
		return fmt.Errorf("wait for reload slot: %w", err)
	}
	return c.reload(ctx, trigger)
}

func (c *Coordinator) reload(ctx context.Context, trigger string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.target.Reload(ctx); err != nil {
		c.record(trigger, "error")
		c.logger.Error("plugin reload failed", zap.String("trigger", trigger), zap.Error(err))
		return err
	}
	c.record(trigger, "ok")
	c.logger.Info("plugins reloaded", zap.String("trigger", trigger))

	if c.publisher != nil && trigger != TriggerRemote {
		if err := c.publisher.Publish(ctx, c.owner, trigger); err != nil {
			// Local reload already succeeded.
			c.logger.Warn("broadcast reload failed", zap.Error(err))
		}
	}
	return nil
}

// WatchFiles reloads whenever w reports a change. Call before w.Start.
func (c *Coordinator) WatchFiles(ctx context.Context, w *config.FileWatcher) {
	w.OnChange(func(evt config.FileEvent) {
		c.logger.Debug("plugin source changed",
			zap.String("path", evt.Path),
			zap.String("op", evt.Op.String()))
		_ = c.TriggerWait(ctx, TriggerFile)
	})
}

// HandleMessage reloads in response to a bus message addressed to this
// coordinator's owner or to every owner.
func (c *Coordinator) HandleMessage(ctx context.Context, msg reloadbus.Message) {
	if msg.Owner != "" && msg.Owner != c.owner {
		return
	}
	c.logger.Debug("remote reload requested",
		zap.String("from", msg.Origin),
		zap.String("reason", msg.Reason))
	_ = c.TriggerWait(ctx, TriggerRemote)
}

func (c *Coordinator) record(trigger, status string) {
	if c.metrics != nil {
		c.metrics.RecordReload(trigger, status)
	}
}
