package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
)

// FeedingsChangedChannel is the Redis Pub/Sub channel shared by all instances.
const FeedingsChangedChannel = "feedings:changed"

// Notifier tells every server instance that the feedings collection changed.
type Notifier interface {
	NotifyChanged(ctx context.Context) error
}

// Invalidator is the part of FeedingHub a notifier drives.
type Invalidator interface {
	Invalidate()
}

// LocalNotifier refreshes a single in-process hub.
type LocalNotifier struct {
	target Invalidator
}

func NewLocalNotifier(target Invalidator) *LocalNotifier {
	return &LocalNotifier{target: target}
}

func (n *LocalNotifier) NotifyChanged(context.Context) error {
	n.target.Invalidate()
	return nil
}

// ChangeEvent is the payload published on FeedingsChangedChannel.
type ChangeEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisNotifier publishes changes over Redis so every instance refreshes its hub.
type RedisNotifier struct {
	client  *redis.Client
	target  Invalidator
	started sync.Once
}

func NewRedisNotifier(client *redis.Client, target Invalidator) *RedisNotifier {
	return &RedisNotifier{client: client, target: target}
}

func (n *RedisNotifier) NotifyChanged(ctx context.Context) error {
	return n.Publish(ctx, ChangeEvent{Type: "changed"})
}

// Publish sends ev to all instances, this one included.
func (n *RedisNotifier) Publish(ctx context.Context, ev ChangeEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, FeedingsChangedChannel, data).Err()
}

// Start launches the shared subscriber once per process.
func (n *RedisNotifier) Start(ctx context.Context) {
	n.started.Do(func() {
		go n.run(ctx)
	})
}

func (n *RedisNotifier) run(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := n.listen(ctx, func() { backoff = time.Second })
		if ctx.Err() != nil {
			return
		}
		logger.Warn("redis subscriber stopped", "module", "notifier", "error", err, "retry_in", backoff.String())

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (n *RedisNotifier) listen(ctx context.Context, onReady func()) error {
	pubsub := n.client.Subscribe(ctx, FeedingsChangedChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	onReady()
	logger.Info("redis subscriber started", "module", "notifier", "channel", FeedingsChangedChannel)

	// Messages published while we were disconnected are lost; catch up once.
	n.target.Invalidate()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}

		n.handle(msg.Payload)
	}
}

// handle refreshes the hub for every message. The event is decoded only for
// the log; a payload that does not decode still triggers the refresh.
func (n *RedisNotifier) handle(payload string) {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		logger.Warn("bad feedings change event", "module", "notifier", "error", err)
	} else {
		logger.Debug("feedings change event", "module", "notifier", "type", ev.Type,
			"lag", time.Since(ev.Timestamp).String())
	}
	n.target.Invalidate()
}
