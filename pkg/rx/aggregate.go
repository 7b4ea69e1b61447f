package rx

import "context"

// Reduce folds the sequence into a single value and emits it on completion.
// The seed is emitted as-is when the source is empty; use First/Last for
// operators that treat emptiness as an error.
func Reduce[T, A any](src Observable[T], seed A, acc func(A, T) A) Observable[A] {
	return New(func(ctx context.Context, dst Observer[A]) {
		state := seed
		src.observe(ctx, NewObserver(
			func(v T) { state = acc(state, v) },
			dst.OnError,
			func() {
				dst.OnNext(state)
				dst.OnComplete()
			},
		))
	}).Named("reduce")
}

// Count emits the number of elements in the sequence.
func (o Observable[T]) Count() Observable[int64] {
	return New(func(ctx context.Context, dst Observer[int64]) {
		var n int64
		o.observe(ctx, NewObserver(
			func(T) { n++ },
			dst.OnError,
			func() {
				dst.OnNext(n)
				dst.OnComplete()
			},
		))
	}).Named("count")
}

// Number covers the built-in numeric types accepted by Sum.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum emits the sum of the sequence (zero for an empty sequence).
func Sum[T Number](src Observable[T]) Observable[T] {
	return Reduce(src, T(0), func(a, v T) T { return a + v }).Named("sum")
}

// MinBy emits the smallest element according to less. An empty sequence
// fails with ErrEmpty.
func (o Observable[T]) MinBy(less func(a, b T) bool) Observable[T] {
	return o.extremumBy(less, "minby")
}

// MaxBy emits the largest element according to less. An empty sequence
// fails with ErrEmpty.
func (o Observable[T]) MaxBy(less func(a, b T) bool) Observable[T] {
	return o.extremumBy(func(a, b T) bool { return less(b, a) }, "maxby")
}

func (o Observable[T]) extremumBy(less func(a, b T) bool, name string) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		var best T
		have := false
		o.observe(ctx, NewObserver(
			func(v T) {
				if !have || less(v, best) {
					best = v
				}
				have = true
			},
			dst.OnError,
			func() {
				if !have {
					dst.OnError(ErrEmpty)
					return
				}
				dst.OnNext(best)
				dst.OnComplete()
			},
		))
	}).Named(name)
}

// All emits true if every element satisfies pred (vacuously true for an
// empty sequence), short-circuiting to false on the first counterexample.
func (o Observable[T]) All(pred func(T) bool) Observable[bool] {
	return New(func(ctx context.Context, dst Observer[bool]) {
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
					dst.OnNext(false)
					dst.OnComplete()
					cancel()
				}
			},
			dst.OnError,
			func() {
				if !done {
					dst.OnNext(true)
					dst.OnComplete()
				}
			},
		))
	}).Named("all")
}

// Any emits true on the first element satisfying pred, false if the
// sequence completes without one.
func (o Observable[T]) Any(pred func(T) bool) Observable[bool] {
	return New(func(ctx context.Context, dst Observer[bool]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		done := false
		o.observe(ctx, NewObserver(
			func(v T) {
				if done {
					return
				}
				if pred(v) {
					done = true
					dst.OnNext(true)
					dst.OnComplete()
					cancel()
				}
			},
			dst.OnError,
			func() {
				if !done {
					dst.OnNext(false)
					dst.OnComplete()
				}
			},
		))
	}).Named("any")
}

// Contains emits true if the sequence emits target, false otherwise.
func Contains[T comparable](src Observable[T], target T) Observable[bool] {
	return src.Any(func(v T) bool { return v == target }).Named("contains")
}

// ToSlice collects the whole sequence and emits it as a single slice on
// completion.
func ToSlice[T any](src Observable[T]) Observable[[]T] {
	return New(func(ctx context.Context, dst Observer[[]T]) {
		var out []T
		src.observe(ctx, NewObserver(
			func(v T) { out = append(out, v) },
			dst.OnError,
			func() {
				dst.OnNext(out)
				dst.OnComplete()
			},
		))
	}).Named("toslice")
}
