package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tween moves one node from its transform at creation time to a target
// transform. A single eased progress value drives position, rotation and scale.
type Tween struct {
	node     *Node
	from, to Transform
	progress *gween.Tween
	onDone   func()
	Done     bool
}

func (t *Tween) step(dt float32) {
	if t.Done {
		return
	}
	if t.node.IsDisposed() {
		t.Done = true
		return
	}
	p, finished := t.progress.Update(dt)
	if finished {
		t.node.SetTransform(t.to)
		t.Done = true
		return
	}
	k := float64(p)
	t.node.Position = lerp(t.from.Position, t.to.Position, k)
	t.node.Scale = lerp(t.from.Scale, t.to.Scale, k)
	t.node.Rotation = mgl64.QuatSlerp(t.from.Rotation, t.to.Rotation, k)
}

func lerp(a, b mgl64.Vec3, k float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(k))
}

// Timer runs a callback once after a delay measured in scene time.
type Timer struct {
	remaining float32
	fn        func()
	cancelled bool
}

// Cancel stops the timer from firing. Safe to call more than once.
func (t *Timer) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

// Animator advances tweens and timers. There is at most one tween per node:
// a new Move on a node replaces the running one, so the last target wins.
type Animator struct {
	tweens map[*Node]*Tween
	timers []*Timer
}

// NewAnimator creates an empty animator.
func NewAnimator() *Animator {
	return &Animator{tweens: make(map[*Node]*Tween)}
}

// Move animates n to the target transform over d using fn.
// A non-positive duration applies the target immediately.
func (a *Animator) Move(n *Node, to Transform, d time.Duration, fn ease.TweenFunc, onDone func()) {
	delete(a.tweens, n)
	if d <= 0 {
		n.SetTransform(to)
		if onDone != nil {
			onDone()
		}
		return
	}
	a.tweens[n] = &Tween{
		node:     n,
		from:     n.Transform(),
		to:       to,
		progress: gween.New(0, 1, float32(d.Seconds()), fn),
		onDone:   onDone,
	}
}

// Animating reports whether n has a running tween.
func (a *Animator) Animating(n *Node) bool {
	_, ok := a.tweens[n]
	return ok
}

// Target returns the transform n is heading to, or its current one when idle.
func (a *Animator) Target(n *Node) Transform {
	if t, ok := a.tweens[n]; ok {
		return t.to
	}
	return n.Transform()
}

// After schedules fn to run once d of scene time has passed.
func (a *Animator) After(d time.Duration, fn func()) *Timer {
	t := &Timer{remaining: float32(d.Seconds()), fn: fn}
	a.timers = append(a.timers, t)
	return t
}

// Pending returns the number of running tweens and timers.
func (a *Animator) Pending() int {
	return len(a.tweens) + len(a.timers)
}

func (a *Animator) cancel(n *Node) {
	delete(a.tweens, n)
}

// Update advances everything by dt. Completion callbacks and due timers run
// after all tweens have stepped, so they may schedule new work.
func (a *Animator) Update(dt time.Duration) {
	step := float32(dt.Seconds())

	var done []func()
	for n, t := range a.tweens {
		t.step(step)
		if t.Done {
			delete(a.tweens, n)
			if t.onDone != nil && !n.IsDisposed() {
				done = append(done, t.onDone)
			}
		}
	}

	var due []*Timer
	live := a.timers[:0]
	for _, t := range a.timers {
		if t.cancelled {
			continue
		}
		t.remaining -= step
		if t.remaining <= 0 {
			due = append(due, t)
			continue
		}
		live = append(live, t)
	}
	for i := len(live); i < len(a.timers); i++ {
		a.timers[i] = nil
	}
	a.timers = live

	for _, fn := range done {
		fn()
	}
	for _, t := range due {
		if !t.cancelled {
			t.fn()
		}
	}
}
