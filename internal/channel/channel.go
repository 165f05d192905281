// Package channel provides generic channel wrappers for the tracking streams.
package channel

import "context"

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel.
type Sender[T any] interface {
	// Send blocks until the value is accepted or ctx is done.
	Send(ctx context.Context, v T) error
	// Offer delivers v only if that does not block and reports whether it did.
	Offer(v T) bool
}

// Channel combines read and write access. Close is idempotent.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}
