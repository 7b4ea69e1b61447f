package rx

import (
	"context"
	"sync"
)

// multicaster is the contract connectables need from a subject flavor:
// the observer side plus registration with an atomic "now receiving"
// callback.
type multicaster[T any] interface {
	Observer[T]
	observeSub(ctx context.Context, dst Observer[T], registered func())
	isDone() bool
}

func (s *Subject[T]) isDone() bool         { return s.core.isTerminated() }
func (s *BehaviorSubject[T]) isDone() bool { return s.core.isTerminated() }
func (s *ReplaySubject[T]) isDone() bool   { return s.core.isTerminated() }

// Connectable is an observable whose subscription to the underlying source
// is explicit: subscribers attach to a shared subject, and the source only
// starts when Connect is called. This is the standard way to turn a cold
// sequence hot and share one upstream subscription among many observers.
type Connectable[T any] struct {
	source  Observable[T]
	factory func() multicaster[T]

	mu        sync.Mutex
	current   multicaster[T]
	sub       *Subscription
	connected bool
	refs      int
	refCancel context.CancelFunc
}

// Publish shares src through a plain Subject: subscribers receive only
// events emitted after they attached.
func Publish[T any](src Observable[T]) *Connectable[T] {
	c := &Connectable[T]{
		source:  src,
		factory: func() multicaster[T] { return NewSubject[T]() },
	}
	c.current = c.factory()
	return c
}

// Replay shares src through a ReplaySubject buffering the last size values
// (size <= 0 buffers everything): subscribers also receive buffered
// history.
func Replay[T any](src Observable[T], size int) *Connectable[T] {
	c := &Connectable[T]{
		source:  src,
		factory: func() multicaster[T] { return NewReplaySubject[T](size) },
	}
	c.current = c.factory()
	return c
}

// Observable returns the shared side of the connectable. Subscribing does
// not start the source; it waits for Connect.
func (c *Connectable[T]) Observable() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		c.mu.Lock()
		subj := c.current
		c.mu.Unlock()
		subj.observeSub(ctx, dst, nil)
	}).Named("connectable")
}

// Connect subscribes the shared subject to the source and returns the
// upstream subscription. While a connection is active further Connect
// calls return the same subscription; after the source terminated or the
// connection was cancelled, Connect starts a fresh cycle with a new
// subject.
func (c *Connectable[T]) Connect(ctx context.Context) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Connectable[T]) connectLocked(ctx context.Context) *Subscription {
	if c.connected {
		return c.sub
	}
	if c.current.isDone() {
		c.current = c.factory()
	}
	subj := c.current
	sub := c.source.Subscribe(ctx, subj)
	c.sub = sub
	c.connected = true
	go func() {
		<-sub.Done()
		c.mu.Lock()
		if c.sub == sub {
			c.connected = false
		}
		c.mu.Unlock()
	}()
	return sub
}

// RefCount returns an observable that connects the source when the first
// subscriber arrives and cancels the upstream subscription when the last
// one leaves. Combine with Replay for late subscribers to see history:
//
//	shared := rx.Replay(src, 16).RefCount()
func (c *Connectable[T]) RefCount() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		c.mu.Lock()
		if c.current.isDone() && !c.connected {
			c.current = c.factory()
		}
		subj := c.current
		c.mu.Unlock()

		registered := func() {
			c.mu.Lock()
			c.refs++
			if c.refs == 1 && !c.connected {
				cctx, cancel := context.WithCancel(context.Background())
				c.refCancel = cancel
				c.connectLocked(cctx)
			}
			c.mu.Unlock()
		}
		defer func() {
			c.mu.Lock()
			c.refs--
			if c.refs == 0 && c.refCancel != nil {
				c.refCancel()
				c.refCancel = nil
			}
			c.mu.Unlock()
		}()

		subj.observeSub(ctx, dst, registered)
	}).Named("refcount")
}

// Share is Publish followed by RefCount: the source runs while at least
// one subscriber is attached and its events are multicast.
func Share[T any](src Observable[T]) Observable[T] {
	return Publish(src).RefCount().Named("share")
}

// Cache subscribes to the source once, on the first subscription, and
// replays the entire sequence, terminal event included, to every
// subscriber. The source is never resubscribed and, unlike RefCount, never
// cancelled: it runs to termination in the background once started.
func Cache[T any](src Observable[T]) Observable[T] {
	subj := NewReplaySubject[T](0)
	var once sync.Once
	return New(func(ctx context.Context, dst Observer[T]) {
		subj.observeSub(ctx, dst, func() {
			once.Do(func() {
				src.Subscribe(context.Background(), subj)
			})
		})
	}).Named("cache")
}
