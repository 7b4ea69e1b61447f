package rx

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by operators. All are delivered through OnError
// (or returned by blocking adapters) and can be matched with errors.Is.
var (
	// ErrEmpty is delivered when an operator that requires at least one
	// element observes an empty sequence (First, Last, unseeded Reduce).
	ErrEmpty = errors.New("rx: sequence contains no elements")

	// ErrIndexOutOfRange is delivered by ElementAt when the sequence
	// completes before reaching the requested index.
	ErrIndexOutOfRange = errors.New("rx: index out of range")

	// ErrTimeout is delivered by Timeout when the gap between events
	// exceeds the configured duration.
	ErrTimeout = errors.New("rx: timeout waiting for event")
)

func errBufferSize(n int) error {
	return fmt.Errorf("rx: buffer size must be positive, got %d", n)
}
