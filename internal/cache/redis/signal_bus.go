package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ListingsChannel is the Pub/Sub channel carrying listings-changed
// invalidation signals from the watch loop to API server instances.
const ListingsChannel = "kioskwatch:listings"

// SignalBus relays payload-free listings-changed signals over Redis
// Pub/Sub so that a serve-mode instance can push invalidations to its
// websocket clients even when the watch loop runs in another process.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// PublishListingsChanged broadcasts one invalidation signal.
func (sb *SignalBus) PublishListingsChanged(ctx context.Context) error {
	if err := sb.rdb.Publish(ctx, ListingsChannel, "changed").Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", ListingsChannel, err)
	}
	return nil
}

// SubscribeListingsChanged returns a channel that emits one value per
// invalidation signal. The subscription closes when the context is
// cancelled; the returned channel is closed at that point as well.
func (sb *SignalBus) SubscribeListingsChanged(ctx context.Context) (<-chan struct{}, error) {
	pubsub := sb.rdb.Subscribe(ctx, ListingsChannel)

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", ListingsChannel, err)
	}

	out := make(chan struct{}, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
					// A pending signal already queued is enough; the
					// consumer re-reconciles fully either way.
				}
			}
		}
	}()

	return out, nil
}
