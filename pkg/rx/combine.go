package rx

import (
	"context"
	"sync"
	"sync/atomic"
)

// Merge interleaves the elements of all sources as they arrive. The result
// completes when every source completed and fails as soon as one fails.
func Merge[T any](sources ...Observable[T]) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		if len(sources) == 0 {
			dst.OnComplete()
			return
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[T](dst)
		active := int64(len(sources))

		var wg sync.WaitGroup
		for _, src := range sources {
			wg.Add(1)
			go func(src Observable[T]) {
				defer wg.Done()
				src.observe(ctx, NewObserver(
					s.OnNext,
					func(err error) {
						s.OnError(err)
						cancel()
					},
					func() {
						if atomic.AddInt64(&active, -1) == 0 {
							s.OnComplete()
						}
					},
				))
			}(src)
		}
		wg.Wait()
	}).Named("merge")
}

// Concat emits each source's elements in turn, subscribing to a source only
// after the previous one completed.
func Concat[T any](sources ...Observable[T]) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for _, src := range sources {
			if ctx.Err() != nil {
				return
			}
			terminated, err := src.runSync(ctx, dst.OnNext)
			if !terminated {
				return // cancelled
			}
			if err != nil {
				dst.OnError(err)
				return
			}
		}
		dst.OnComplete()
	}).Named("concat")
}

// Race mirrors whichever source emits first and cancels the others. A
// source that terminates without emitting wins with its terminal event only
// if no other source emitted earlier.
func Race[T any](sources ...Observable[T]) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		if len(sources) == 0 {
			dst.OnComplete()
			return
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[T](dst)

		ctxs := make([]context.Context, len(sources))
		cancels := make([]context.CancelFunc, len(sources))
		for i := range sources {
			ctxs[i], cancels[i] = context.WithCancel(ctx)
		}

		var mu sync.Mutex
		winner := -1 // index of the source that emitted first

		claim := func(i int) bool {
			mu.Lock()
			defer mu.Unlock()
			if winner == -1 {
				winner = i
				for j, c := range cancels {
					if j != i {
						c()
					}
				}
			}
			return winner == i
		}

		var wg sync.WaitGroup
		for i, src := range sources {
			wg.Add(1)
			go func(i int, src Observable[T]) {
				defer wg.Done()
				src.observe(ctxs[i], NewObserver(
					func(v T) {
						if claim(i) {
							s.OnNext(v)
						}
					},
					func(err error) {
						if claim(i) {
							s.OnError(err)
							cancel()
						}
					},
					func() {
						if claim(i) {
							s.OnComplete()
							cancel()
						}
					},
				))
			}(i, src)
		}
		wg.Wait()
	}).Named("race")
}

// Zip pairs the nth element of a with the nth element of b and emits the
// combination. It completes as soon as the shorter source completes, and
// fails as soon as either source errors, even while the other is silent.
func Zip[A, B, R any](a Observable[A], b Observable[B], combine func(A, B) R) Observable[R] {
	return New(func(ctx context.Context, dst Observer[R]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		failed := make(chan error, 2)
		chA, errA := pump(ctx, a, failed)
		chB, errB := pump(ctx, b, failed)

		for {
			var va A
			select {
			case v, ok := <-chA:
				if !ok {
					finishZip(ctx, dst, errA)
					return
				}
				va = v
			case err := <-failed:
				dst.OnError(err)
				return
			}
			var vb B
			select {
			case v, ok := <-chB:
				if !ok {
					finishZip(ctx, dst, errB)
					return
				}
				vb = v
			case err := <-failed:
				dst.OnError(err)
				return
			}
			dst.OnNext(combine(va, vb))
		}
	}).Named("zip")
}

// pump subscribes src on a goroutine and forwards its elements to a
// channel. The channel closes on terminal or cancellation; errOut holds the
// terminal error once closed, and failed receives it immediately so the
// consumer can abandon a blocked read on the other source.
func pump[T any](ctx context.Context, src Observable[T], failed chan<- error) (<-chan T, *atomic.Pointer[error]) {
	ch := make(chan T)
	errOut := &atomic.Pointer[error]{}
	go func() {
		defer close(ch)
		_, err := src.runSync(ctx, func(v T) {
			select {
			case ch <- v:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errOut.Store(&err)
			failed <- err
		}
	}()
	return ch, errOut
}

func finishZip[R any](ctx context.Context, dst Observer[R], errPtr *atomic.Pointer[error]) {
	if p := errPtr.Load(); p != nil {
		dst.OnError(*p)
		return
	}
	if ctx.Err() != nil {
		return // cancelled, no terminal
	}
	dst.OnComplete()
}

// CombineLatest emits a combination of the latest element of each source
// every time either source emits, starting once both have emitted at least
// once. It completes when both sources completed.
func CombineLatest[A, B, R any](a Observable[A], b Observable[B], combine func(A, B) R) Observable[R] {
	return New(func(ctx context.Context, dst Observer[R]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[R](dst)

		var mu sync.Mutex
		var lastA A
		var lastB B
		haveA, haveB := false, false
		active := int64(2)

		emit := func() {
			mu.Lock()
			ready := haveA && haveB
			va, vb := lastA, lastB
			mu.Unlock()
			if ready {
				s.OnNext(combine(va, vb))
			}
		}
		fail := func(err error) {
			s.OnError(err)
			cancel()
		}
		complete := func() {
			if atomic.AddInt64(&active, -1) == 0 {
				s.OnComplete()
			}
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.observe(ctx, NewObserver(
				func(v A) {
					mu.Lock()
					lastA = v
					haveA = true
					mu.Unlock()
					emit()
				},
				fail, complete,
			))
		}()
		go func() {
			defer wg.Done()
			b.observe(ctx, NewObserver(
				func(v B) {
					mu.Lock()
					lastB = v
					haveB = true
					mu.Unlock()
					emit()
				},
				fail, complete,
			))
		}()
		wg.Wait()
	}).Named("combinelatest")
}

// WithLatestFrom emits a combination of each source element with the most
// recent element of other, skipping source elements that arrive before
// other's first. Only the source drives emissions and termination; other is
// sampled (its completion is ignored, its error propagates).
func WithLatestFrom[A, B, R any](src Observable[A], other Observable[B], combine func(A, B) R) Observable[R] {
	return New(func(ctx context.Context, dst Observer[R]) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := newGate[R](dst)

		var mu sync.Mutex
		var last B
		have := false

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			other.observe(ctx, NewObserver(
				func(v B) {
					mu.Lock()
					last = v
					have = true
					mu.Unlock()
				},
				func(err error) {
					s.OnError(err)
					cancel()
				},
				nil,
			))
		}()

		src.observe(ctx, NewObserver(
			func(v A) {
				mu.Lock()
				ok := have
				b := last
				mu.Unlock()
				if ok {
					s.OnNext(combine(v, b))
				}
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
	}).Named("withlatestfrom")
}
