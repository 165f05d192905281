//go:build !debug

package channel

// New creates a new channel with the given buffer size.
// Production builds hand out buffered channels so slow consumers drop samples
// instead of stalling the tracker.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
