package rx

import "context"

// Tap invokes fn for every element without altering the sequence. Used for
// logging and side effects.
func (o Observable[T]) Tap(fn func(T)) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		o.observe(ctx, NewObserver(
			func(v T) {
				fn(v)
				dst.OnNext(v)
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("tap")
}

// Finally invokes fn after the sequence ends for any reason, terminal event
// or cancellation, before the subscribe call returns.
func (o Observable[T]) Finally(fn func()) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		defer fn()
		o.observe(ctx, dst)
	}).Named("finally")
}

// First emits only the first element, then completes and stops the source.
// An empty sequence fails with ErrEmpty.
func (o Observable[T]) First() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		done := false
		o.observe(ctx, NewObserver(
			func(v T) {
				if done {
					return
				}
				done = true
				dst.OnNext(v)
				dst.OnComplete()
				cancel()
			},
			dst.OnError,
			func() {
				if !done {
					dst.OnError(ErrEmpty)
				}
			},
		))
	}).Named("first")
}

// Last emits only the final element when the sequence completes. An empty
// sequence fails with ErrEmpty.
func (o Observable[T]) Last() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		var last T
		have := false
		o.observe(ctx, NewObserver(
			func(v T) {
				last = v
				have = true
			},
			dst.OnError,
			func() {
				if !have {
					dst.OnError(ErrEmpty)
					return
				}
				dst.OnNext(last)
				dst.OnComplete()
			},
		))
	}).Named("last")
}
