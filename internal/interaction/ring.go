package interaction

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/internal/collision"
	"github.com/spatialhue/lightcontrol/internal/gesture"
	"github.com/spatialhue/lightcontrol/internal/ring"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"github.com/tanema/gween/ease"
)

var (
	// ErrNoRing is returned by drag calls while no ring is shown.
	ErrNoRing = errors.New("ring not shown")
	// ErrNoDrag is returned when a drag update arrives with nothing held.
	ErrNoDrag = errors.New("no token held")
)

const collapsedScale = 0.001

// RingConfig tunes the palm ring.
type RingConfig struct {
	Layout        ring.Config
	OffsetY       float64
	OpenDuration  time.Duration
	CloseDuration time.Duration
}

// RingSession shows the color ring above the palm and handles dragging its
// tokens. Exported methods take the scene lock.
type RingSession struct {
	sc      *scene.Scene
	device  Device
	cfg     RingConfig
	palm    *gesture.PalmUp
	state   gesture.PalmState
	log     *slog.Logger
	pivot   *scene.Node
	ring    *ring.Ring
	opening bool
	closing *scene.Timer
	held    *scene.Node
}

func newRingSession(sc *scene.Scene, device Device, palm *gesture.PalmUp, cfg RingConfig, log *slog.Logger) *RingSession {
	return &RingSession{sc: sc, device: device, palm: palm, cfg: cfg, log: log}
}

// Observe feeds one hand sample to the palm classifier and updates the ring.
func (r *RingSession) Observe(s core.HandSample) {
	r.sc.Lock()
	defer r.sc.Unlock()

	var ev gesture.Event
	r.state, ev = r.palm.Step(r.state, s)
	switch ev {
	case gesture.EventRingOpen:
		r.open()
	case gesture.EventRingClose:
		r.close()
	}
	if r.state.Phase == gesture.PhaseShowing && r.pivot != nil {
		r.follow()
	}
}

// Phase returns the palm classifier phase.
func (r *RingSession) Phase() gesture.Phase {
	r.sc.Lock()
	defer r.sc.Unlock()
	return r.state.Phase
}

// Shown reports whether ring entities exist, including while closing.
func (r *RingSession) Shown() bool {
	r.sc.Lock()
	defer r.sc.Unlock()
	return r.ring != nil
}

// Tokens returns the live tokens in ring order.
func (r *RingSession) Tokens() []*scene.Node {
	r.sc.Lock()
	defer r.sc.Unlock()
	if r.ring == nil {
		return nil
	}
	return append([]*scene.Node(nil), r.ring.Tokens()...)
}

// Container returns the node the tokens hang off, nil while no ring is shown.
func (r *RingSession) Container() *scene.Node {
	r.sc.Lock()
	defer r.sc.Unlock()
	if r.ring == nil {
		return nil
	}
	return r.ring.Container()
}

func (r *RingSession) open() {
	if r.closing != nil {
		r.closing.Cancel()
		r.closing = nil
	}

	if r.ring == nil {
		r.pivot = r.sc.NewNode("ring-pivot")
		r.sc.Root().AddChild(r.pivot)
		container := r.sc.NewNode("ring")
		container.Scale = mgl64.Vec3{collapsedScale, collapsedScale, collapsedScale}
		container.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
		r.pivot.AddChild(container)
		r.ring = ring.New(r.sc, container, r.cfg.Layout)
		r.ring.Populate(ring.Palette())
		r.log.Debug("Ring created", "tokens", r.ring.Len())
	}

	r.follow()
	r.opening = true
	r.sc.Animator().Move(r.ring.Container(), scene.Identity(), r.cfg.OpenDuration, ease.OutBack, func() {
		r.opening = false
	})
}

func (r *RingSession) close() {
	if r.ring == nil {
		return
	}
	r.opening = false
	to := scene.Identity()
	to.Scale = mgl64.Vec3{collapsedScale, collapsedScale, collapsedScale}
	r.sc.Animator().Move(r.ring.Container(), to, r.cfg.CloseDuration, ease.OutQuad, nil)
	r.closing = r.sc.Animator().After(r.cfg.CloseDuration, func() {
		r.closing = nil
		r.teardown()
	})
}

// follow keeps the pivot above the palm and, once opened, facing the viewer.
func (r *RingSession) follow() {
	palm := r.state.Palm.Col(3).Vec3()
	pos := palm.Add(mgl64.Vec3{0, r.cfg.OffsetY, 0})
	if r.opening || r.device == nil {
		r.pivot.SetWorldPosition(pos)
		return
	}
	viewer := r.device.DeviceTransform().Col(3).Vec3()
	r.pivot.LookAt(viewer, pos, mgl64.Vec3{0, 1, 0})
}

// teardown removes every ring entity. Caller holds the scene lock.
func (r *RingSession) teardown() {
	if r.closing != nil {
		r.closing.Cancel()
		r.closing = nil
	}
	if r.ring != nil {
		r.ring.Clear()
		r.ring = nil
	}
	if r.pivot != nil {
		r.pivot.Dispose()
		r.pivot = nil
	}
	r.held = nil
	r.opening = false
}

// reset drops classifier state and entities. Caller holds the scene lock.
func (r *RingSession) reset() {
	r.teardown()
	r.state = gesture.PalmState{}
}

// BeginDrag picks up the token at index i of the live ring.
func (r *RingSession) BeginDrag(i int) (*scene.Node, error) {
	r.sc.Lock()
	defer r.sc.Unlock()
	if r.ring == nil {
		return nil, ErrNoRing
	}
	tokens := r.ring.Tokens()
	if i < 0 || i >= len(tokens) {
		return nil, errors.New("token index out of range")
	}
	r.held = tokens[i]
	r.ring.BeginDrag(r.held)
	return r.held, nil
}

// UpdateDrag moves the held token to world and previews its landing slot.
// It returns ring.NoEmptySlot when the token is too far out to rejoin.
func (r *RingSession) UpdateDrag(world mgl64.Vec3) (int, error) {
	r.sc.Lock()
	defer r.sc.Unlock()
	if r.ring == nil {
		return ring.NoEmptySlot, ErrNoRing
	}
	if r.held == nil {
		return ring.NoEmptySlot, ErrNoDrag
	}
	r.held.SetWorldPosition(world)
	return r.ring.UpdateDragged(r.held), nil
}

// Release lets go of the held token and reports whether it snapped back.
func (r *RingSession) Release() (bool, error) {
	r.sc.Lock()
	defer r.sc.Unlock()
	if r.ring == nil {
		return false, ErrNoRing
	}
	if r.held == nil {
		return false, ErrNoDrag
	}
	snapped := r.ring.Release(r.held)
	r.held = nil
	return snapped, nil
}

func (r *RingSession) onHit(hit collision.Hit) {
	r.sc.Lock()
	defer r.sc.Unlock()
	if r.ring == nil {
		return
	}
	if r.held == hit.Token {
		r.held = nil
	}
	r.ring.Consume(hit.Token)
}
