// Package redisbridge connects observables to Redis Pub/Sub.
//
// Observe turns subscribed Redis channels into a hot observable of incoming
// messages, and PublishInto drains an observable into Redis PUBLISH calls.
// Together they let marble pipelines span processes:
//
//	msgs := redisbridge.Observe(client, "events")
//	values := rx.Map(msgs, func(m *redis.Message) string { return m.Payload })
package redisbridge

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/marbleworks/rxkit/pkg/rx"
)

// Subscriber is the slice of go-redis used by Observe, satisfied by
// *redis.Client and *redis.ClusterClient.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Publisher is the slice of go-redis used by PublishInto.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Observe exposes the given Pub/Sub channels as a hot observable. Each
// subscription opens its own Redis subscription and emits every message
// received until the context is cancelled; Pub/Sub streams have no natural
// completion. A closed connection surfaces as OnError.
func Observe(client Subscriber, channels ...string) rx.Observable[*redis.Message] {
	return rx.Create(func(ctx context.Context, dst rx.Observer[*redis.Message]) {
		pubsub := client.Subscribe(ctx, channels...)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					dst.OnError(fmt.Errorf("redis subscription closed"))
					return
				}
				dst.OnNext(msg)
			}
		}
	}).Named("redis")
}

// PublishInto drains the observable into PUBLISH calls on the given channel,
// blocking until the sequence terminates or ctx is cancelled. It returns the
// stream error, the first failed publish, or nil on completion.
func PublishInto(ctx context.Context, client Publisher, channel string, obs rx.Observable[string]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var publishErr error
	err := obs.Blocking().ForEach(ctx, func(v string) {
		if publishErr != nil {
			return
		}
		if err := client.Publish(ctx, channel, v).Err(); err != nil {
			publishErr = fmt.Errorf("publish to %s: %w", channel, err)
			cancel()
		}
	})
	if publishErr != nil {
		return publishErr
	}
	return err
}
