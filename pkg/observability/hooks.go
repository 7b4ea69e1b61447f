// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about stream subscriptions, emissions, retries, and buffer
// overflow drops.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetStreamHooks(&myStreamHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Stream().OnSubscribe(ctx, subID, "interval")
//	// ... deliver events ...
//	observability.Stream().OnTerminal(ctx, subID, lifetime, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// EventKind identifies the kind of a delivered stream event.
type EventKind string

// Event kinds reported through StreamHooks.OnEvent.
const (
	EventNext     EventKind = "next"
	EventError    EventKind = "error"
	EventComplete EventKind = "complete"
)

// StreamHooks receives events from observable subscriptions.
//
// The id uniquely identifies a subscription and op names the source or
// outermost operator the subscription was made against (may be empty).
type StreamHooks interface {
	// OnSubscribe records a new subscription.
	OnSubscribe(ctx context.Context, id, op string)

	// OnEvent records a delivered event.
	OnEvent(ctx context.Context, id string, kind EventKind)

	// OnTerminal records subscription end via completion or error.
	OnTerminal(ctx context.Context, id string, lifetime time.Duration, err error)

	// OnCancel records subscription end via cancellation.
	OnCancel(ctx context.Context, id string, lifetime time.Duration)

	// OnRetry records a resubscription attempt after an upstream error.
	OnRetry(ctx context.Context, id string, attempt int, err error)

	// OnDrop records events discarded by a bounded delivery buffer.
	OnDrop(ctx context.Context, id string, count int)
}

// NoopStreamHooks is a no-op implementation of StreamHooks.
type NoopStreamHooks struct{}

func (NoopStreamHooks) OnSubscribe(context.Context, string, string)              {}
func (NoopStreamHooks) OnEvent(context.Context, string, EventKind)               {}
func (NoopStreamHooks) OnTerminal(context.Context, string, time.Duration, error) {}
func (NoopStreamHooks) OnCancel(context.Context, string, time.Duration)          {}
func (NoopStreamHooks) OnRetry(context.Context, string, int, error)              {}
func (NoopStreamHooks) OnDrop(context.Context, string, int)                      {}

var (
	streamHooks StreamHooks = NoopStreamHooks{}
	hooksMu     sync.RWMutex
)

// SetStreamHooks registers custom stream hooks.
// This should be called once at application startup before any subscriptions.
func SetStreamHooks(h StreamHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		streamHooks = h
	}
}

// Stream returns the registered stream hooks.
func Stream() StreamHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return streamHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	streamHooks = NoopStreamHooks{}
}
