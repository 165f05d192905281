// Package tracking provides in-process pose and anchor providers. The replay
// tool feeds them from recorded sessions; tests drive them directly.
package tracking

import (
	"sync"
	"sync/atomic"

	"github.com/spatialhue/lightcontrol/internal/channel"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// HandStream fans hand samples out to every subscriber. Slow subscribers lose
// samples rather than stalling the publisher.
type HandStream struct {
	mu      sync.Mutex
	subs    []channel.Channel[core.HandSample]
	closed  bool
	dropped atomic.Uint64
}

// NewHandStream creates an empty stream.
func NewHandStream() *HandStream {
	return &HandStream{}
}

// Subscribe returns a channel receiving every sample published from now on.
// The channel is closed by Close.
func (h *HandStream) Subscribe(size int) <-chan core.HandSample {
	ch := channel.New[core.HandSample](size)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		ch.Close()
	} else {
		h.subs = append(h.subs, ch)
	}
	return ch.Receive()
}

// Publish offers s to all subscribers.
func (h *HandStream) Publish(s core.HandSample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs {
		if !sub.Offer(s) {
			h.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (h *HandStream) Dropped() uint64 {
	return h.dropped.Load()
}

// Close closes every subscriber channel.
func (h *HandStream) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, sub := range h.subs {
		sub.Close()
	}
	h.subs = nil
}
