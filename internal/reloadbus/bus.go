// Package reloadbus broadcasts plugin reload requests between processes over
// Redis pub/sub.
// This package is internal and should not be imported by external projects.
package reloadbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/pluginfamily/config"
)

// ErrClosed is returned by operations on a closed Bus.
var ErrClosed = errors.New("reload bus is closed")

// =============================================================================
// 📨 重载消息
// =============================================================================

// Message is a reload request published on the bus.
type Message struct {
	// Origin 是发布进程的标识
	Origin string `json:"origin"`
	// Owner 是需要重载的注册表，空表示全部
	Owner string `json:"owner,omitempty"`
	// Reason 描述触发原因
	Reason string `json:"reason,omitempty"`
	// At 是发布时间
	At time.Time `json:"at"`
}

// =============================================================================
// 🚌 重载总线
// =============================================================================

// Bus publishes and receives reload messages on one Redis channel.
type Bus struct {
	redis   *redis.Client
	channel string
	origin  string
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// New connects to Redis and returns a Bus on cfg.Channel.
func New(cfg config.RedisConfig, logger *zap.Logger) (*Bus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	b := NewWithClient(client, cfg.Channel, logger)
	b.logger.Info("reload bus initialized", zap.String("addr", cfg.Addr))
	return b, nil
}

// NewWithClient wraps an existing client. The Bus takes ownership of client.
func NewWithClient(client *redis.Client, channel string, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	origin := uuid.NewString()
	return &Bus{
		redis:   client,
		channel: channel,
		origin:  origin,
		logger: logger.With(
			zap.String("component", "reload_bus"),
			zap.String("channel", channel),
			zap.String("origin", origin)),
	}
}

// Origin identifies this process on the bus.
func (b *Bus) Origin() string { return b.origin }

// Channel returns the Redis channel name.
func (b *Bus) Channel() string { return b.channel }

// Publish announces that owner's plugins should be reloaded.
func (b *Bus) Publish(ctx context.Context, owner, reason string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(Message{
		Origin: b.origin,
		Owner:  owner,
		Reason: reason,
		At:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode reload message: %w", err)
	}

	if err := b.redis.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Error("publish reload message failed", zap.Error(err))
		return fmt.Errorf("publish reload message: %w", err)
	}
	b.logger.Debug("reload message published", zap.String("owner", owner), zap.String("reason", reason))
	return nil
}

// Subscription is an active subscription created by Subscribe.
type Subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
}

// Close stops the subscription and waits for its handler loop to exit.
func (s *Subscription) Close() error {
	err := s.pubsub.Close()
	<-s.done
	return err
}

// Subscribe delivers messages from other processes to handler until ctx is
// cancelled or the Subscription is closed. Messages published by this Bus
// and undecodable payloads are dropped. The subscription is confirmed before
// Subscribe returns.
func (b *Bus) Subscribe(ctx context.Context, handler func(Message)) (*Subscription, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	pubsub := b.redis.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}

	sub := &Subscription{pubsub: pubsub, done: make(chan struct{})}
	go b.receiveLoop(ctx, sub, handler)
	return sub, nil
}

func (b *Bus) receiveLoop(ctx context.Context, sub *Subscription, handler func(Message)) {
	defer close(sub.done)

	ch := sub.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = sub.pubsub.Close()
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				b.logger.Warn("dropping malformed reload message", zap.Error(err))
				continue
			}
			if msg.Origin == b.origin {
				continue
			}
			b.logger.Debug("reload message received",
				zap.String("from", msg.Origin),
				zap.String("owner", msg.Owner))
			handler(msg)
		}
	}
}

// =============================================================================
// 🏥 健康检查
// =============================================================================

// Name implements the admin health check interface.
func (b *Bus) Name() string { return "redis" }

// Check implements the admin health check interface.
func (b *Bus) Check(ctx context.Context) error {
	return b.Ping(ctx)
}

// Ping checks the Redis connection.
func (b *Bus) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	return b.redis.Ping(ctx).Err()
}

// Close closes the Redis client. Open subscriptions end.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.logger.Info("closing reload bus")
	return b.redis.Close()
}
