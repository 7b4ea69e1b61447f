package rx

import (
	"context"
	"sync"
	"sync/atomic"
)

// Map transforms every element with f.
func Map[T, U any](src Observable[T], f func(T) U) Observable[U] {
	return New(func(ctx context.Context, dst Observer[U]) {
		src.observe(ctx, NewObserver(
			func(v T) { dst.OnNext(f(v)) },
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("map")
}

// FlatMap maps every element to an inner observable and merges the inner
// sequences. Inner observables run concurrently; output order interleaves.
// The result completes once the source and all inner sequences completed,
// and fails as soon as any of them fails.
func FlatMap[T, U any](src Observable[T], f func(T) Observable[U]) Observable[U] {
	return New(func(ctx context.Context, dst Observer[U]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[U](dst)
		var wg sync.WaitGroup
		active := int64(1) // the source itself counts as active

		complete := func() {
			if atomic.AddInt64(&active, -1) == 0 {
				s.OnComplete()
			}
		}
		fail := func(err error) {
			s.OnError(err)
			cancel()
		}

		src.observe(ctx, NewObserver(
			func(v T) {
				inner := f(v)
				atomic.AddInt64(&active, 1)
				wg.Add(1)
				go func() {
					defer wg.Done()
					inner.observe(ctx, NewObserver(s.OnNext, fail, complete))
				}()
			},
			fail,
			complete,
		))
		wg.Wait()
	}).Named("flatmap")
}

// ConcatMap maps every element to an inner observable and concatenates the
// inner sequences, preserving order. Each inner sequence is drained before
// the next source element is processed, so a slow inner observable slows
// the source down with it.
func ConcatMap[T, U any](src Observable[T], f func(T) Observable[U]) Observable[U] {
	return New(func(ctx context.Context, dst Observer[U]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		src.observe(ctx, NewObserver(
			func(v T) {
				f(v).observe(ctx, NewObserver(
					dst.OnNext,
					func(err error) {
						dst.OnError(err)
						cancel()
					},
					nil, // inner completion resumes the source
				))
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("concatmap")
}

// SwitchMap maps every element to an inner observable and mirrors only the
// most recent one, cancelling the previous inner sequence when a new source
// element arrives. The result completes once the source completed and the
// last inner sequence finished.
func SwitchMap[T, U any](src Observable[T], f func(T) Observable[U]) Observable[U] {
	return New(func(ctx context.Context, dst Observer[U]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[U](dst)
		var wg sync.WaitGroup

		var mu sync.Mutex
		var version int64
		var innerCancel context.CancelFunc
		sourceDone := false
		innerActive := false

		fail := func(err error) {
			s.OnError(err)
			cancel()
		}

		src.observe(ctx, NewObserver(
			func(v T) {
				mu.Lock()
				version++
				myVersion := version
				if innerCancel != nil {
					innerCancel()
				}
				innerCtx, ic := context.WithCancel(ctx)
				innerCancel = ic
				innerActive = true
				mu.Unlock()

				inner := f(v)
				wg.Add(1)
				go func() {
					defer wg.Done()
					inner.observe(innerCtx, NewObserver(
						func(u U) {
							mu.Lock()
							current := version == myVersion
							mu.Unlock()
							if current {
								s.OnNext(u)
							}
						},
						func(err error) {
							mu.Lock()
							current := version == myVersion
							mu.Unlock()
							if current {
								fail(err)
							}
						},
						func() {
							mu.Lock()
							if version == myVersion {
								innerActive = false
								if sourceDone {
									mu.Unlock()
									s.OnComplete()
									return
								}
							}
							mu.Unlock()
						},
					))
				}()
			},
			fail,
			func() {
				mu.Lock()
				sourceDone = true
				done := !innerActive
				mu.Unlock()
				if done {
					s.OnComplete()
				}
			},
		))
		wg.Wait()
	}).Named("switchmap")
}

// Scan emits the running accumulation of the sequence: for every source
// element it applies acc to the previous accumulator and emits the result.
// The seed itself is not emitted.
func Scan[T, A any](src Observable[T], seed A, acc func(A, T) A) Observable[A] {
	return New(func(ctx context.Context, dst Observer[A]) {
		state := seed
		src.observe(ctx, NewObserver(
			func(v T) {
				state = acc(state, v)
				dst.OnNext(state)
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("scan")
}

// StartWith emits the given values before the source's own elements.
func (o Observable[T]) StartWith(values ...T) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		for _, v := range values {
			if ctx.Err() != nil {
				return
			}
			dst.OnNext(v)
		}
		o.observe(ctx, dst)
	}).Named("startwith")
}

// Buffer collects elements into slices of length size and emits each full
// slice. A trailing partial buffer is emitted before completion; errors
// discard the pending buffer.
func Buffer[T any](src Observable[T], size int) Observable[[]T] {
	return New(func(ctx context.Context, dst Observer[[]T]) {
		if size <= 0 {
			dst.OnError(errBufferSize(size))
			return
		}
		buf := make([]T, 0, size)
		src.observe(ctx, NewObserver(
			func(v T) {
				buf = append(buf, v)
				if len(buf) == size {
					out := buf
					buf = make([]T, 0, size)
					dst.OnNext(out)
				}
			},
			dst.OnError,
			func() {
				if len(buf) > 0 {
					dst.OnNext(buf)
				}
				dst.OnComplete()
			},
		))
	}).Named("buffer")
}

// Pair holds two consecutive elements of a sequence.
type Pair[T any] struct {
	Previous T
	Current  T
}

// Pairwise emits each element together with its predecessor. The first
// element produces no output.
func Pairwise[T any](src Observable[T]) Observable[Pair[T]] {
	return New(func(ctx context.Context, dst Observer[Pair[T]]) {
		var prev T
		have := false
		src.observe(ctx, NewObserver(
			func(v T) {
				if have {
					dst.OnNext(Pair[T]{Previous: prev, Current: v})
				}
				prev = v
				have = true
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("pairwise")
}

// Grouped is one group produced by GroupBy.
type Grouped[K comparable, T any] struct {
	Key    K
	Values []T
}

// GroupBy partitions the sequence by key and emits one Grouped per key on
// completion, in first-seen key order. Unlike classical Rx this does not
// emit nested observables; the grouping is collected eagerly, which keeps
// the common "bucket then process" use simple at the cost of buffering the
// whole sequence.
func GroupBy[T any, K comparable](src Observable[T], key func(T) K) Observable[Grouped[K, T]] {
	return New(func(ctx context.Context, dst Observer[Grouped[K, T]]) {
		groups := make(map[K][]T)
		var order []K
		src.observe(ctx, NewObserver(
			func(v T) {
				k := key(v)
				if _, ok := groups[k]; !ok {
					order = append(order, k)
				}
				groups[k] = append(groups[k], v)
			},
			dst.OnError,
			func() {
				for _, k := range order {
					if ctx.Err() != nil {
						return
					}
					dst.OnNext(Grouped[K, T]{Key: k, Values: groups[k]})
				}
				dst.OnComplete()
			},
		))
	}).Named("groupby")
}
