package redis

import (
	"context"

	"github.com/viditkulsh/CyberTrek/internal/infrastructure/messaging"
)

// EventBridge adapts the go-redis client to the pub/sub operations the
// Redis event bus needs. The underlying connection belongs to the Cache;
// Close only stops the bridge's subscriptions.
type EventBridge struct {
	cache *Cache
}

// NewEventBridge creates a bridge over an established cache connection.
func NewEventBridge(cache *Cache) *EventBridge {
	return &EventBridge{cache: cache}
}

// Publish sends a message to the channel.
func (b *EventBridge) Publish(ctx context.Context, channel string, message interface{}) error {
	return b.cache.client.Publish(ctx, channel, message).Err()
}

// Subscribe delivers channel messages until ctx is cancelled.
func (b *EventBridge) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	sub := b.cache.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close implements the bus's client interface. The cache owns the
// connection, so there is nothing to release here.
func (b *EventBridge) Close() error {
	return nil
}
