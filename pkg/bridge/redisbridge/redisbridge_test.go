package redisbridge

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/marbleworks/rxkit/pkg/rx"
)

// fakePublisher records publishes and can fail after a set number of calls.
type fakePublisher struct {
	mu        sync.Mutex
	messages  []string
	failAfter int // fail every call once this many succeeded, 0 = never
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter > 0 && len(f.messages) >= f.failAfter {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	f.messages = append(f.messages, message.(string))
	return redis.NewIntResult(1, nil)
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func TestPublishInto(t *testing.T) {
	pub := &fakePublisher{}
	err := PublishInto(context.Background(), pub, "events", rx.Just("a", "b", "c"))
	if err != nil {
		t.Fatalf("PublishInto: %v", err)
	}
	if got := pub.published(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("published = %v, want [a b c]", got)
	}
}

func TestPublishIntoStreamError(t *testing.T) {
	boom := errors.New("boom")
	pub := &fakePublisher{}
	err := PublishInto(context.Background(), pub, "events",
		rx.Concat(rx.Just("a"), rx.Throw[string](boom)))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want stream error", err)
	}
	if got := pub.published(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("published = %v, want [a]", got)
	}
}

func TestPublishIntoPublishError(t *testing.T) {
	pub := &fakePublisher{failAfter: 1}
	err := PublishInto(context.Background(), pub, "events", rx.Just("a", "b", "c"))
	if err == nil {
		t.Fatal("expected publish error")
	}
	if got := pub.published(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("published = %v, want publishing stopped after failure", got)
	}
}

func TestPublishIntoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := &fakePublisher{}
	err := PublishInto(ctx, pub, "events", rx.Never[string]())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
