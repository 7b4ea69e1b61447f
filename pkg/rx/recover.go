package rx

import (
	"context"
	"time"

	"github.com/marbleworks/rxkit/pkg/observability"
)

// Catch resumes with the observable returned by handler when the source
// fails. Elements emitted before the error are kept; the handler receives
// the error and decides the continuation (return Throw(err) to rethrow).
func (o Observable[T]) Catch(handler func(err error) Observable[T]) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		terminated, err := o.runSync(ctx, dst.OnNext)
		if !terminated {
			return
		}
		if err == nil {
			dst.OnComplete()
			return
		}
		handler(err).observe(ctx, dst)
	}).Named("catch")
}

// OnErrorReturn replaces an upstream error with a single fallback element
// followed by completion.
func (o Observable[T]) OnErrorReturn(fallback T) Observable[T] {
	return o.Catch(func(error) Observable[T] {
		return Just(fallback)
	}).Named("onerrorreturn")
}

// OnErrorResumeNext continues with next when the source fails, ignoring
// the error itself.
func (o Observable[T]) OnErrorResumeNext(next Observable[T]) Observable[T] {
	return o.Catch(func(error) Observable[T] { return next }).Named("onerrorresumenext")
}

// Retry resubscribes to the source up to attempts times after an error.
// Elements emitted by failed attempts are not withheld: each attempt's
// output flows downstream as it happens. attempts < 0 retries forever.
func (o Observable[T]) Retry(attempts int) Observable[T] {
	return o.RetryWhen(func(attempt int, err error) time.Duration {
		if attempts >= 0 && attempt > attempts {
			return -1
		}
		return 0
	}).Named("retry")
}

// RetryWhen resubscribes after errors under control of the policy function.
// For each failure it is called with the 1-based attempt number and the
// error; it returns the delay to wait before resubscribing, or a negative
// duration to give up and forward the error.
func (o Observable[T]) RetryWhen(policy func(attempt int, err error) time.Duration) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		hooks := observability.Stream()
		attempt := 0
		for {
			terminated, err := o.runSync(ctx, dst.OnNext)
			if !terminated {
				return // cancelled
			}
			if err == nil {
				dst.OnComplete()
				return
			}

			attempt++
			delay := policy(attempt, err)
			if delay < 0 {
				dst.OnError(err)
				return
			}
			hooks.OnRetry(ctx, subscriptionID(ctx), attempt, err)

			if delay > 0 {
				t := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					t.Stop()
					return
				case <-t.C:
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}).Named("retrywhen")
}
