package rx

import "context"

// NotificationKind discriminates the three event types of the Rx grammar.
type NotificationKind int

const (
	// KindNext is an element delivery.
	KindNext NotificationKind = iota
	// KindError is terminal failure.
	KindError
	// KindComplete is terminal success.
	KindComplete
)

// String returns the lowercase name of the kind.
func (k NotificationKind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Notification is a reified stream event: an element, an error, or
// completion. Materialize turns a live sequence into notifications;
// Dematerialize plays them back.
type Notification[T any] struct {
	Kind  NotificationKind
	Value T     // set when Kind == KindNext
	Err   error // set when Kind == KindError
}

// NextOf builds a next notification.
func NextOf[T any](v T) Notification[T] {
	return Notification[T]{Kind: KindNext, Value: v}
}

// ErrorOf builds an error notification.
func ErrorOf[T any](err error) Notification[T] {
	return Notification[T]{Kind: KindError, Err: err}
}

// CompleteOf builds a completion notification.
func CompleteOf[T any]() Notification[T] {
	return Notification[T]{Kind: KindComplete}
}

// Materialize converts every event, terminal ones included, into a
// Notification element. The resulting sequence always completes: an
// upstream error becomes a KindError element followed by OnComplete.
func Materialize[T any](src Observable[T]) Observable[Notification[T]] {
	return New(func(ctx context.Context, dst Observer[Notification[T]]) {
		src.observe(ctx, NewObserver(
			func(v T) { dst.OnNext(NextOf(v)) },
			func(err error) {
				dst.OnNext(ErrorOf[T](err))
				dst.OnComplete()
			},
			func() {
				dst.OnNext(CompleteOf[T]())
				dst.OnComplete()
			},
		))
	}).Named("materialize")
}

// Dematerialize reverses Materialize: KindNext elements are re-emitted,
// and the first terminal notification ends the sequence accordingly.
// A source that completes without a terminal notification completes the
// output as well.
func Dematerialize[T any](src Observable[Notification[T]]) Observable[T] {
	return New(func(ctx context.Context, dst Observer[T]) {
		src.observe(ctx, NewObserver(
			func(n Notification[T]) {
				switch n.Kind {
				case KindNext:
					dst.OnNext(n.Value)
				case KindError:
					dst.OnError(n.Err)
				case KindComplete:
					dst.OnComplete()
				}
			},
			dst.OnError,
			dst.OnComplete,
		))
	}).Named("dematerialize")
}
