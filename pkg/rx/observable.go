package rx

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marbleworks/rxkit/pkg/observability"
)

// Observable is a cold push-based sequence of values.
//
// The zero value behaves like [Empty]. Observables are immutable: operators
// return new observables and never mutate their receiver, so a single
// observable can be subscribed any number of times, concurrently.
type Observable[T any] struct {
	// op names the source or outermost operator for observability hooks
	// and diagnostics. Optional.
	op string

	// sub produces the sequence. It must deliver events to dst respecting
	// the Rx grammar and must not return until the sequence terminated or
	// ctx was cancelled.
	sub func(ctx context.Context, dst Observer[T])
}

// New creates an observable from a subscribe function.
//
// The function is invoked once per subscription on the subscription's
// goroutine. It must honor ctx cancellation and must not return before the
// sequence terminates or ctx is done. Events emitted after a terminal event
// are discarded by the subscription machinery.
func New[T any](subscribe func(ctx context.Context, dst Observer[T])) Observable[T] {
	return Observable[T]{sub: subscribe}
}

// Named returns a copy of the observable tagged with an operator name. The
// name is reported to observability hooks on subscription.
func (o Observable[T]) Named(name string) Observable[T] {
	o.op = name
	return o
}

// observe runs the subscribe function synchronously on the calling
// goroutine. Operators compose through observe; user code goes through
// Subscribe, which adds the goroutine, gate, and bookkeeping.
func (o Observable[T]) observe(ctx context.Context, dst Observer[T]) {
	if o.sub == nil {
		dst.OnComplete()
		return
	}
	if ctx.Err() != nil {
		return
	}
	o.sub(ctx, dst)
}

// subIDKey carries the subscription ID through the context so operators can
// tag hook events with it.
type subIDKey struct{}

// subscriptionID returns the subscription ID attached by Subscribe, or ""
// when the observable is driven synchronously (runSync, observe).
func subscriptionID(ctx context.Context) string {
	if id, ok := ctx.Value(subIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// ID returns the unique identifier of this subscription, as reported to
// observability hooks.
func (s *Subscription) ID() string { return s.id }

// Cancel stops delivery. It is safe to call multiple times and after the
// sequence terminated.
func (s *Subscription) Cancel() { s.cancel() }

// Done returns a channel closed once delivery stopped, whether by terminal
// event or cancellation.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err returns the outcome after Done is closed: nil for completion, the
// stream error for OnError, or context.Canceled when the subscription was
// cancelled before terminating. Before Done it returns nil.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Subscribe starts the sequence on a new goroutine and delivers its events
// to dst. Callbacks are serialized and stop after the first terminal event.
// Cancelling ctx (or the returned subscription) stops delivery.
func (o Observable[T]) Subscribe(ctx context.Context, dst Observer[T]) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	ctx = context.WithValue(ctx, subIDKey{}, sub.id)

	hooks := observability.Stream()
	start := time.Now()
	hooks.OnSubscribe(ctx, sub.id, o.op)

	g := newGate[T](dst)
	g.hooks = hooks
	g.ctx = ctx
	g.id = sub.id

	go func() {
		defer close(sub.done)
		defer cancel()

		o.observe(ctx, g)

		terminated, err := g.state()
		if !terminated {
			hooks.OnCancel(ctx, sub.id, time.Since(start))
			sub.setErr(context.Canceled)
			return
		}
		hooks.OnTerminal(ctx, sub.id, time.Since(start), err)
		sub.setErr(err)
	}()

	return sub
}

// SubscribeFunc subscribes with plain callbacks. Any callback may be nil.
func (o Observable[T]) SubscribeFunc(ctx context.Context, onNext func(T), onError func(error), onComplete func()) *Subscription {
	return o.Subscribe(ctx, NewObserver(onNext, onError, onComplete))
}

// runSync subscribes on the calling goroutine and blocks until the sequence
// terminates or ctx is cancelled. It reports how the sequence ended:
// terminated=false means cancellation. Used by Retry, Catch and the blocking
// adapter, where resubscription decisions need the terminal synchronously.
func (o Observable[T]) runSync(ctx context.Context, onNext func(T)) (terminated bool, err error) {
	g := newGate[T](NewObserver(onNext, nil, nil))
	o.observe(ctx, g)
	return g.state()
}
