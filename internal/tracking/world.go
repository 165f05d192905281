package tracking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/internal/channel"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

var (
	ErrAnchorLimit   = errors.New("anchor limit reached")
	ErrUnknownAnchor = errors.New("unknown anchor")
	ErrDuplicate     = errors.New("anchor already registered")
)

// World is an in-process anchor provider and device tracker. Every successful
// add, update or remove emits one event on Events.
type World struct {
	mu      sync.Mutex
	anchors map[uuid.UUID]mgl64.Mat4
	limit   int
	device  mgl64.Mat4

	events channel.Channel[core.AnchorEvent]
}

// NewWorld creates a world holding at most limit anchors; limit <= 0 means unlimited.
func NewWorld(limit, eventBuffer int) *World {
	return &World{
		anchors: make(map[uuid.UUID]mgl64.Mat4),
		limit:   limit,
		device:  mgl64.Ident4(),
		events:  channel.New[core.AnchorEvent](eventBuffer),
	}
}

// Events returns the anchor lifecycle stream.
func (w *World) Events() <-chan core.AnchorEvent {
	return w.events.Receive()
}

// AddAnchor registers a new anchor.
func (w *World) AddAnchor(ctx context.Context, a core.Anchor) error {
	w.mu.Lock()
	if _, ok := w.anchors[a.ID]; ok {
		w.mu.Unlock()
		return fmt.Errorf("add %s: %w", a.ID, ErrDuplicate)
	}
	if w.limit > 0 && len(w.anchors) >= w.limit {
		w.mu.Unlock()
		return fmt.Errorf("add %s: %w", a.ID, ErrAnchorLimit)
	}
	w.anchors[a.ID] = a.Transform
	w.mu.Unlock()

	return w.events.Send(ctx, core.AnchorEvent{Kind: core.AnchorAdded, Anchor: a})
}

// UpdateAnchor changes the pose of a registered anchor.
func (w *World) UpdateAnchor(ctx context.Context, a core.Anchor) error {
	w.mu.Lock()
	if _, ok := w.anchors[a.ID]; !ok {
		w.mu.Unlock()
		return fmt.Errorf("update %s: %w", a.ID, ErrUnknownAnchor)
	}
	w.anchors[a.ID] = a.Transform
	w.mu.Unlock()

	return w.events.Send(ctx, core.AnchorEvent{Kind: core.AnchorUpdated, Anchor: a})
}

// RemoveAnchor unregisters an anchor.
func (w *World) RemoveAnchor(ctx context.Context, id uuid.UUID) error {
	w.mu.Lock()
	pose, ok := w.anchors[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("remove %s: %w", id, ErrUnknownAnchor)
	}
	delete(w.anchors, id)
	w.mu.Unlock()

	return w.events.Send(ctx, core.AnchorEvent{Kind: core.AnchorRemoved, Anchor: core.Anchor{ID: id, Transform: pose}})
}

// Anchors returns the registered anchors ordered by id.
func (w *World) Anchors() []core.Anchor {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]core.Anchor, 0, len(w.anchors))
	for id, pose := range w.anchors {
		out = append(out, core.Anchor{ID: id, Transform: pose})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// Len returns the number of registered anchors.
func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.anchors)
}

// DeviceTransform returns the current head pose in world space.
func (w *World) DeviceTransform() mgl64.Mat4 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.device
}

// SetDeviceTransform updates the head pose.
func (w *World) SetDeviceTransform(m mgl64.Mat4) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.device = m
}

// Close ends the event stream.
func (w *World) Close() {
	w.events.Close()
}
