package rx

import (
	"context"
	"time"
)

// Create builds an observable from an imperative producer. The producer
// receives the downstream observer directly and must follow the Rx grammar;
// it should return once done emitting or when ctx is cancelled. This is the
// escape hatch for sources that do not fit any other constructor.
func Create[T any](producer func(ctx context.Context, dst Observer[T])) Observable[T] {
	return New(producer).Named("create")
}

// Just emits the given values in order, then completes.
func Just[T any](values ...T) Observable[T] {
	return From(values).Named("just")
}

// From emits every element of the slice in order, then completes.
// The slice is not copied; callers must not mutate it while subscribed.
func From[T any](values []T) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		for _, v := range values {
			if ctx.Err() != nil {
				return
			}
			dst.OnNext(v)
		}
		dst.OnComplete()
	}).Named("from")
}

// FromChannel emits every value received from ch and completes when ch is
// closed. The channel is shared state: subscribing twice splits values
// between subscriptions rather than duplicating them.
func FromChannel[T any](ch <-chan T) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok {
					dst.OnComplete()
					return
				}
				dst.OnNext(v)
			}
		}
	}).Named("fromchannel")
}

// Range emits count consecutive integers starting at start, then completes.
func Range(start, count int) Observable[int] {
	return New(func(ctx context.Context, dst Observer[int]) {
		for i := 0; i < count; i++ {
			if ctx.Err() != nil {
				return
			}
			dst.OnNext(start + i)
		}
		dst.OnComplete()
	}).Named("range")
}

// Empty completes immediately without emitting.
func Empty[T any]() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		dst.OnComplete()
	}).Named("empty")
}

// Never emits nothing and never terminates. The subscription ends only
// through cancellation.
func Never[T any]() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		<-ctx.Done()
	}).Named("never")
}

// Throw fails immediately with err.
func Throw[T any](err error) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		dst.OnError(err)
	}).Named("throw")
}

// Defer calls factory at subscription time and subscribes to its result.
// Each subscriber gets a fresh observable, which is how per-subscription
// state (attempt counters, timestamps) is usually captured.
func Defer[T any](factory func() Observable[T]) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		factory().observe(ctx, dst)
	}).Named("defer")
}

// Interval emits 0, 1, 2, ... every period until cancelled. It never
// completes on its own; bound it with Take or TakeUntil.
func Interval(period time.Duration) Observable[int64] {
	return New(func(ctx context.Context, dst Observer[int64]) {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		var n int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dst.OnNext(n)
				n++
			}
		}
	}).Named("interval")
}

// Timer emits a single 0 after delay, then completes.
func Timer(delay time.Duration) Observable[int64] {
	return New(func(ctx context.Context, dst Observer[int64]) {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			dst.OnNext(0)
			dst.OnComplete()
		}
	}).Named("timer")
}
