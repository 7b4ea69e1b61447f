package rx

import "context"

// Blocking adapts an observable for synchronous, pull-style consumption.
// Obtain one with [Observable.Blocking].
type Blocking[T any] struct {
	src Observable[T]
}

// Blocking returns a blocking view of the observable.
func (o Observable[T]) Blocking() Blocking[T] {
	return Blocking[T]{src: o}
}

// First returns the first element, cancelling the source afterwards.
// It returns ErrEmpty for an empty sequence and ctx.Err() when cancelled.
func (b Blocking[T]) First(ctx context.Context) (T, error) {
	return b.src.First().Blocking().single(ctx)
}

// Last returns the final element of the completed sequence. It returns
// ErrEmpty for an empty sequence and ctx.Err() when cancelled.
func (b Blocking[T]) Last(ctx context.Context) (T, error) {
	return b.src.Last().Blocking().single(ctx)
}

// single drains a sequence expected to emit exactly one element.
func (b Blocking[T]) single(ctx context.Context) (T, error) {
	var out T
	terminated, err := b.src.runSync(ctx, func(v T) { out = v })
	if !terminated {
		return out, ctx.Err()
	}
	return out, err
}

// ForEach invokes fn for every element and returns the terminal error, nil
// on completion, or ctx.Err() when cancelled.
func (b Blocking[T]) ForEach(ctx context.Context, fn func(T)) error {
	terminated, err := b.src.runSync(ctx, fn)
	if !terminated {
		return ctx.Err()
	}
	return err
}

// Slice collects the whole sequence. On error the elements received so far
// are returned alongside it.
func (b Blocking[T]) Slice(ctx context.Context) ([]T, error) {
	var out []T
	err := b.ForEach(ctx, func(v T) { out = append(out, v) })
	return out, err
}

// Iter exposes the sequence as a channel for use in range loops. The
// channel closes when the sequence ends; err reports the outcome after the
// channel closed (nil, the stream error, or ctx.Err()).
//
//	ch, err := obs.Blocking().Iter(ctx)
//	for v := range ch {
//	    use(v)
//	}
//	if err() != nil { ... }
func (b Blocking[T]) Iter(ctx context.Context) (<-chan T, func() error) {
	ch := make(chan T)
	var outcome error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(ch)
		terminated, err := b.src.runSync(ctx, func(v T) {
			select {
			case ch <- v:
			case <-ctx.Done():
			}
		})
		if !terminated {
			outcome = ctx.Err()
			return
		}
		outcome = err
	}()
	return ch, func() error {
		<-done
		return outcome
	}
}
