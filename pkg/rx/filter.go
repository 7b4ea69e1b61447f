package rx

import (
	"context"
	"sync"
)

// Filter keeps only the elements for which pred returns true.
func (o Observable[T]) Filter(pred func(T) bool) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		o.observe(ctx, NewObserver(
			func(v T) {
				if pred(v) {
					dst.OnNext(v)
				}
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("filter")
}

// Take emits the first n elements, then completes and stops the source.
// Take(0) completes immediately without subscribing upstream.
func (o Observable[T]) Take(n int) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		if n <= 0 {
			dst.OnComplete()
			return
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		remaining := n
		o.observe(ctx, NewObserver(
			func(v T) {
				if remaining == 0 {
					return
				}
				remaining--
				dst.OnNext(v)
				if remaining == 0 {
					dst.OnComplete()
					cancel()
				}
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("take")
}

// TakeWhile emits elements while pred returns true, then completes on the
// first failing element (which is not emitted).
func (o Observable[T]) TakeWhile(pred func(T) bool) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		done := false
		o.observe(ctx, NewObserver(
			func(v T) {
				if done {
					return
				}
				if !pred(v) {
					done = true
					dst.OnComplete()
					cancel()
					return
				}
				dst.OnNext(v)
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("takewhile")
}

// TakeUntil mirrors the source until notifier emits its first element or
// terminates, at which point the result completes (or forwards the
// notifier's error).
func TakeUntil[T, U any](src Observable[T], notifier Observable[U]) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[T](dst)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			notifier.observe(ctx, NewObserver(
				func(U) {
					s.OnComplete()
					cancel()
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
		}()

		src.observe(ctx, NewObserver(s.OnNext, s.OnError, func() {
			s.OnComplete()
			cancel()
		}))
		wg.Wait()
	}).Named("takeuntil")
}

// Skip drops the first n elements.
func (o Observable[T]) Skip(n int) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		remaining := n
		o.observe(ctx, NewObserver(
			func(v T) {
				if remaining > 0 {
					remaining--
					return
				}
				dst.OnNext(v)
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("skip")
}

// SkipWhile drops elements while pred returns true, then emits everything
// from the first failing element on.
func (o Observable[T]) SkipWhile(pred func(T) bool) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		skipping := true
		o.observe(ctx, NewObserver(
			func(v T) {
				if skipping && pred(v) {
					return
				}
				skipping = false
				dst.OnNext(v)
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("skipwhile")
}

// Distinct suppresses elements already seen anywhere in the sequence.
// Memory grows with the number of distinct elements.
func Distinct[T comparable](src Observable[T]) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		seen := make(map[T]struct{})
		src.observe(ctx, NewObserver(
			func(v T) {
				if _, ok := seen[v]; ok {
					return
				}
				seen[v] = struct{}{}
				dst.OnNext(v)
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("distinct")
}

// DistinctUntilChanged suppresses consecutive duplicate elements.
func DistinctUntilChanged[T comparable](src Observable[T]) Observable[T] {
	return DistinctUntilChangedFunc(src, func(a, b T) bool { return a == b })
}

// DistinctUntilChangedFunc suppresses consecutive elements that eq reports
// equal. Use this for element types that are not comparable.
func DistinctUntilChangedFunc[T any](src Observable[T], eq func(a, b T) bool) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		var prev T
		have := false
		src.observe(ctx, NewObserver(
			func(v T) {
				if have && eq(prev, v) {
					return
				}
				prev = v
				have = true
				dst.OnNext(v)
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("distinctuntilchanged")
}

// ElementAt emits only the element at the given zero-based index, then
// completes. If the sequence ends earlier it fails with ErrIndexOutOfRange.
func (o Observable[T]) ElementAt(index int) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		if index < 0 {
			dst.OnError(ErrIndexOutOfRange)
			return
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		i := 0
		done := false
		o.observe(ctx, NewObserver(
			func(v T) {
				if done {
					return
				}
				if i == index {
					done = true
					dst.OnNext(v)
					dst.OnComplete()
					cancel()
				}
				i++
			},
			dst.OnError,
			func() {
				if !done {
					dst.OnError(ErrIndexOutOfRange)
				}
			},
		))
	}).Named("elementat")
}

// IgnoreElements drops all elements and forwards only the terminal event.
func (o Observable[T]) IgnoreElements() Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		o.observe(ctx, NewObserver[T](nil, dst.OnError, dst.OnComplete))
	}).Named("ignoreelements")
}
