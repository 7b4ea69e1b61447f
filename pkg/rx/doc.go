// Package rx implements push-based observable sequences for Go.
//
// # Overview
//
// An [Observable] is a sequence of values delivered over time to an
// [Observer]. Observables are cold: nothing happens until Subscribe is
// called, and every subscription restarts the producer. Hot entry points
// (subjects) and hot/cold conversion (connectables) are provided on top of
// the same primitive.
//
// The delivery contract follows the classical Rx grammar:
//
//   - OnNext* (OnError | OnComplete)?
//   - Observer callbacks for one subscription are serialized.
//   - After a terminal event nothing else is delivered.
//   - Cancelling the subscription context stops delivery promptly and is
//     reported through [Subscription.Err] as context.Canceled, not as a
//     stream error.
//
// # Operators
//
// Operators that keep the element type are methods on [Observable]:
//
//	evens := rx.Range(0, 10).Filter(func(v int) bool { return v%2 == 0 }).Take(3)
//
// Operators that change the element type are package functions, because Go
// methods cannot introduce new type parameters:
//
//	labels := rx.Map(evens, func(v int) string { return fmt.Sprintf("#%d", v) })
//
// # Subscribing
//
// Subscribe runs the producer on its own goroutine and returns a
// [Subscription]:
//
//	sub := labels.SubscribeFunc(ctx, func(s string) { fmt.Println(s) }, nil, nil)
//	<-sub.Done()
//
// For synchronous consumption use the blocking adapter:
//
//	first, err := labels.Blocking().First(ctx)
//
// # Hot sequences
//
// A [Subject] multicasts to its current subscribers, [BehaviorSubject]
// replays the latest value, and [ReplaySubject] replays a bounded history.
// [Publish], [Replay], [Share] and [Cache] convert a cold observable into a
// shared hot one.
package rx
