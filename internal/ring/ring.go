package ring

import (
	"fmt"
	"math"
	"time"

	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"github.com/tanema/gween/ease"
)

// Config holds ring geometry.
type Config struct {
	Radius          float64
	TokenRadius     float64
	RemoveDistance  float64
	SnapDistance    float64
	ArrangeDuration time.Duration
}

// Ring owns the ordered live tokens parented under a container node.
// Slice order is angular order.
type Ring struct {
	sc        *scene.Scene
	cfg       Config
	container *scene.Node
	tokens    []*scene.Node
	// owned holds every token Populate created, including ones dragged away.
	owned []*scene.Node
}

// New creates an empty ring laid out in container's XY plane.
func New(sc *scene.Scene, container *scene.Node, cfg Config) *Ring {
	return &Ring{sc: sc, cfg: cfg, container: container}
}

// Container returns the node tokens are laid out under.
func (r *Ring) Container() *scene.Node {
	return r.container
}

// Tokens returns the live tokens in slot order. The slice MUST NOT be mutated.
func (r *Ring) Tokens() []*scene.Node {
	return r.tokens
}

// Len returns the number of live tokens.
func (r *Ring) Len() int {
	return len(r.tokens)
}

// Index returns the slot of token in the live set, or -1.
func (r *Ring) Index(token *scene.Node) int {
	for i, t := range r.tokens {
		if t == token {
			return i
		}
	}
	return -1
}

// Populate creates one token per color and places them directly in their slots.
func (r *Ring) Populate(colors []core.Color) {
	for i, c := range colors {
		n := r.sc.NewNode(fmt.Sprintf("token-%d", i))
		n.Radius = r.cfg.TokenRadius
		n.UserData = &core.Token{Color: c}
		r.container.AddChild(n)
		r.tokens = append(r.tokens, n)
		r.owned = append(r.owned, n)
	}
	for i, p := range Layout(len(r.tokens), NoEmptySlot, r.cfg.Radius) {
		r.tokens[i].Position = p
	}
}

// Arrange animates the live tokens to their slots, optionally leaving one vacant.
func (r *Ring) Arrange(emptySlot int) {
	positions := Layout(len(r.tokens), emptySlot, r.cfg.Radius)
	for i, tok := range r.tokens {
		to := scene.Identity()
		to.Position = positions[i]
		to.Scale = tok.Scale
		r.sc.Animator().Move(tok, to, r.cfg.ArrangeDuration, ease.OutCubic, nil)
	}
}

// BeginDrag lifts token out of the ring container so it follows the hand in
// world space.
func (r *Ring) BeginDrag(token *scene.Node) {
	if t, ok := token.UserData.(*core.Token); ok {
		t.Manipulated = true
	}
	if token.Parent == r.container {
		r.sc.Root().AddChildPreservingWorld(token)
	}
}

// localAngle returns the token's angle around the ring normal in [0, 2π).
func (r *Ring) localAngle(token *scene.Node) float64 {
	p := r.container.ConvertToLocal(token.WorldPosition())
	return scene.NormalizeAngle(math.Atan2(p.Y(), p.X()))
}

func (r *Ring) distance(token *scene.Node) float64 {
	return token.WorldPosition().Sub(r.container.WorldPosition()).Len()
}

func (r *Ring) remove(token *scene.Node) bool {
	i := r.Index(token)
	if i < 0 {
		return false
	}
	r.tokens = append(r.tokens[:i], r.tokens[i+1:]...)
	return true
}

// UpdateDragged previews where a dragged token would land. It returns the
// reserved slot, or NoEmptySlot when the token is too far away to rejoin.
func (r *Ring) UpdateDragged(token *scene.Node) int {
	r.remove(token)
	if r.distance(token) > r.cfg.RemoveDistance {
		r.Arrange(NoEmptySlot)
		return NoEmptySlot
	}
	slot := ComputeInsertionIndex(r.localAngle(token), len(r.tokens))
	r.Arrange(slot)
	return slot
}

// Release drops a dragged token. Close enough to the center it snaps into the
// nearest slot and true is returned; otherwise it stays where it was let go.
func (r *Ring) Release(token *scene.Node) bool {
	r.remove(token)
	if r.distance(token) > r.cfg.SnapDistance {
		r.Arrange(NoEmptySlot)
		return false
	}

	r.container.AddChildPreservingWorld(token)
	slot := ComputeInsertionIndex(r.localAngle(token), len(r.tokens))
	r.tokens = append(r.tokens, nil)
	copy(r.tokens[slot+1:], r.tokens[slot:])
	r.tokens[slot] = token
	r.Arrange(NoEmptySlot)

	if t, ok := token.UserData.(*core.Token); ok {
		t.Manipulated = false
	}
	return true
}

// Consume drops token from the live set for good, closing its gap.
func (r *Ring) Consume(token *scene.Node) {
	if r.remove(token) {
		r.Arrange(NoEmptySlot)
	}
}

// Clear disposes every token the ring created, live or dragged away.
func (r *Ring) Clear() {
	for _, t := range r.owned {
		t.Dispose()
	}
	r.tokens = nil
	r.owned = nil
}

// SlotAngleOf returns the angle of the slot token is settling into.
func (r *Ring) SlotAngleOf(token *scene.Node) float64 {
	p := r.sc.Animator().Target(token).Position
	return scene.NormalizeAngle(math.Atan2(p.Y(), p.X()))
}
