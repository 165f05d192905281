//go:build debug

package channel

// New creates a new channel.
// Debug builds hand out unbuffered channels (size is ignored) so every dropped
// sample shows up immediately.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
