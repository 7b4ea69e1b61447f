package rx

import (
	"context"
	"sync"
	"time"

	"github.com/marbleworks/rxkit/pkg/observability"
)

// Delay time-shifts every element by d. Terminal events are shifted with
// the elements, so ordering is preserved.
func (o Observable[T]) Delay(d time.Duration) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		type timed struct {
			at time.Time
			n  Notification[T]
		}
		queue := make(chan timed, 64)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				wait := time.Until(item.at)
				if wait > 0 {
					t := time.NewTimer(wait)
					select {
					case <-ctx.Done():
						t.Stop()
						for range queue { // drain so the producer can exit
						}
						return
					case <-t.C:
					}
				}
				switch item.n.Kind {
				case KindNext:
					dst.OnNext(item.n.Value)
				case KindError:
					dst.OnError(item.n.Err)
				case KindComplete:
					dst.OnComplete()
				}
			}
		}()

		push := func(n Notification[T]) {
			select {
			case queue <- timed{at: time.Now().Add(d), n: n}:
			case <-ctx.Done():
			}
		}
		o.observe(ctx, NewObserver(
			func(v T) { push(NextOf(v)) },
			func(err error) { push(ErrorOf[T](err)) },
			func() { push(CompleteOf[T]()) },
		))
		close(queue)
		wg.Wait()
	}).Named("delay")
}

// Debounce emits an element only after d elapsed without a newer one.
// The value pending when the source completes is flushed before the
// completion; an error discards the pending value.
func (o Observable[T]) Debounce(d time.Duration) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[T](dst)

		var mu sync.Mutex
		var pending T
		havePending := false
		version := 0

		var wg sync.WaitGroup

		o.observe(ctx, NewObserver(
			func(v T) {
				mu.Lock()
				pending = v
				havePending = true
				version++
				myVersion := version
				mu.Unlock()

				wg.Add(1)
				go func() {
					defer wg.Done()
					t := time.NewTimer(d)
					defer t.Stop()
					select {
					case <-ctx.Done():
						return
					case <-t.C:
					}
					mu.Lock()
					fire := version == myVersion && havePending
					if fire {
						havePending = false
					}
					val := pending
					mu.Unlock()
					if fire {
						s.OnNext(val)
					}
				}()
			},
			func(err error) {
				mu.Lock()
				havePending = false
				mu.Unlock()
				s.OnError(err)
				cancel()
			},
			func() {
				mu.Lock()
				fire := havePending
				havePending = false
				val := pending
				mu.Unlock()
				if fire {
					s.OnNext(val)
				}
				s.OnComplete()
				cancel()
			},
		))
		wg.Wait()
	}).Named("debounce")
}

// Sample emits the most recent element every period, skipping periods in
// which nothing new arrived. Completion flushes nothing; the last sampled
// value is whatever the previous tick saw.
func (o Observable[T]) Sample(period time.Duration) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[T](dst)

		var mu sync.Mutex
		var latest T
		dirty := false

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(period)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					mu.Lock()
					fire := dirty
					dirty = false
					val := latest
					mu.Unlock()
					if fire {
						s.OnNext(val)
					}
				}
			}
		}()

		o.observe(ctx, NewObserver(
			func(v T) {
				mu.Lock()
				latest = v
				dirty = true
				mu.Unlock()
			},
			func(err error) {
				s.OnError(err)
				cancel()
			},
			func() {
				s.OnComplete()
				cancel()
			},
		))
		wg.Wait()
	}).Named("sample")
}

// Throttle emits an element and then mutes the source for d. Elements
// arriving inside the mute window are dropped (throttle-first semantics).
func (o Observable[T]) Throttle(d time.Duration) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		var last time.Time
		o.observe(ctx, NewObserver(
			func(v T) {
				now := time.Now()
				if last.IsZero() || now.Sub(last) >= d {
					last = now
					dst.OnNext(v)
				}
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("throttle")
}

// Timeout fails with ErrTimeout when more than d elapses between
// subscription and the first event, or between consecutive events.
func (o Observable[T]) Timeout(d time.Duration) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[T](dst)
		activity := make(chan struct{}, 1)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := time.NewTimer(d)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-activity:
					if !t.Stop() {
						select {
						case <-t.C:
						default:
						}
					}
					t.Reset(d)
				case <-t.C:
					s.OnError(ErrTimeout)
					cancel()
					return
				}
			}
		}()

		touch := func() {
			select {
			case activity <- struct{}{}:
			default:
			}
		}
		o.observe(ctx, NewObserver(
			func(v T) {
				touch()
				s.OnNext(v)
			},
			func(err error) {
				s.OnError(err)
				cancel()
			},
			func() {
				s.OnComplete()
				cancel()
			},
		))
		wg.Wait()
	}).Named("timeout")
}

// BufferTime collects elements into slices and emits the pending slice
// every period. Empty windows emit nothing. The remainder is flushed on
// completion.
func BufferTime[T any](src Observable[T], period time.Duration) Observable[[]T] {
	return New(func(ctx context.Context, dst Observer[[]T]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[[]T](dst)

		var mu sync.Mutex
		var buf []T

		flush := func() {
			mu.Lock()
			out := buf
			buf = nil
			mu.Unlock()
			if len(out) > 0 {
				s.OnNext(out)
			}
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(period)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					flush()
				}
			}
		}()

		src.observe(ctx, NewObserver(
			func(v T) {
				mu.Lock()
				buf = append(buf, v)
				mu.Unlock()
			},
			func(err error) {
				s.OnError(err)
				cancel()
			},
			func() {
				flush()
				s.OnComplete()
				cancel()
			},
		))
		wg.Wait()
	}).Named("buffertime")
}

// OverflowPolicy controls what ObserveOn does when its buffer is full.
type OverflowPolicy int

const (
	// OverflowBlock makes the producer wait for buffer space.
	OverflowBlock OverflowPolicy = iota
	// OverflowDropOldest discards the oldest buffered element to make
	// room. Drops are reported through observability hooks.
	OverflowDropOldest
)

// ObserveOn moves delivery onto a dedicated goroutine decoupled from the
// producer by a bounded buffer. With OverflowBlock the producer blocks when
// the consumer falls behind; with OverflowDropOldest old elements are
// discarded instead. Terminal events are never dropped.
func (o Observable[T]) ObserveOn(buffer int, policy OverflowPolicy) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		if buffer < 1 {
			buffer = 1
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		hooks := observability.Stream()
		queue := make(chan Notification[T], buffer)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel() // unblock the producer once delivery stopped
			for {
				select {
				case <-ctx.Done():
					return
				case n, ok := <-queue:
					if !ok {
						return
					}
					switch n.Kind {
					case KindNext:
						dst.OnNext(n.Value)
					case KindError:
						dst.OnError(n.Err)
						return
					case KindComplete:
						dst.OnComplete()
						return
					}
				}
			}
		}()

		push := func(n Notification[T]) {
			if policy == OverflowBlock || n.Kind != KindNext {
				select {
				case queue <- n:
				case <-ctx.Done():
				}
				return
			}
			for {
				select {
				case queue <- n:
					return
				case <-ctx.Done():
					return
				default:
				}
				select {
				case <-queue: // evict oldest
					hooks.OnDrop(ctx, subscriptionID(ctx), 1)
				default:
				}
			}
		}

		o.observe(ctx, NewObserver(
			func(v T) { push(NextOf(v)) },
			func(err error) { push(ErrorOf[T](err)) },
			func() { push(CompleteOf[T]()) },
		))
		close(queue)
		wg.Wait()
	}).Named("observeon")
}
