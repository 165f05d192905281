package slingshot

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// Ballistics is a small stand-in for the physics engine: launched bodies fly
// under gravity and overlapping collision spheres are reported to the scene
// once, when they start touching. Callers hold the scene lock.
//
// A body stops flying once it drops below FloorY or has flown for MaxFlight.
// Its node stays where it came to rest; disposing it is up to the owner.
type Ballistics struct {
	sc        *scene.Scene
	Gravity   mgl64.Vec3
	FloorY    float64
	MaxFlight time.Duration

	bodies   map[*scene.Node]*body
	touching map[core.CollisionEvent]struct{}
}

type body struct {
	v   mgl64.Vec3
	age time.Duration
}

// NewBallistics creates an empty simulation over sc.
func NewBallistics(sc *scene.Scene) *Ballistics {
	return &Ballistics{
		sc:        sc,
		Gravity:   mgl64.Vec3{0, -9.81, 0},
		FloorY:    -10,
		MaxFlight: 10 * time.Second,
		bodies:    make(map[*scene.Node]*body),
		touching:  make(map[core.CollisionEvent]struct{}),
	}
}

// ApplyImpulse adds impulse to n's velocity. Bodies have unit mass.
func (b *Ballistics) ApplyImpulse(n *scene.Node, impulse mgl64.Vec3) {
	bd, ok := b.bodies[n]
	if !ok {
		bd = &body{}
		b.bodies[n] = bd
	}
	bd.v = bd.v.Add(impulse)
}

// Velocity returns the current velocity of n, zero if it is not flying.
func (b *Ballistics) Velocity(n *scene.Node) mgl64.Vec3 {
	if bd, ok := b.bodies[n]; ok {
		return bd.v
	}
	return mgl64.Vec3{}
}

// Flying returns the number of live bodies in flight.
func (b *Ballistics) Flying() int {
	return len(b.bodies)
}

// Step integrates every body over dt and reports new contacts.
func (b *Ballistics) Step(dt time.Duration) {
	s := dt.Seconds()
	for n, bd := range b.bodies {
		if n.IsDisposed() {
			delete(b.bodies, n)
			continue
		}
		bd.v = bd.v.Add(b.Gravity.Mul(s))
		bd.age += dt
		pos := n.WorldPosition().Add(bd.v.Mul(s))
		n.SetWorldPosition(pos)
		if pos.Y() < b.FloorY || (b.MaxFlight > 0 && bd.age >= b.MaxFlight) {
			delete(b.bodies, n)
		}
	}

	now := make(map[core.CollisionEvent]struct{})
	for _, ev := range b.sc.Overlapping() {
		now[ev] = struct{}{}
		if _, ok := b.touching[ev]; !ok {
			b.sc.ReportCollision(ev.A, ev.B)
		}
	}
	b.touching = now
}
