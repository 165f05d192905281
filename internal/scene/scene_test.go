package scene

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-6), "want %v, got %v", want, got)
}

func TestNode_WorldPositionThroughParents(t *testing.T) {
	s := New()
	parent := s.NewNode("parent")
	parent.Position = mgl64.Vec3{1, 0, 0}
	parent.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	s.Root().AddChild(parent)

	child := s.NewNode("child")
	child.Position = mgl64.Vec3{1, 0, 0}
	parent.AddChild(child)

	assertVec(t, mgl64.Vec3{1, 1, 0}, child.WorldPosition())
	assertVec(t, mgl64.Vec3{1, 0, 0}, parent.ConvertToLocal(mgl64.Vec3{1, 1, 0}))
}

func TestNode_AddChildPreservingWorld(t *testing.T) {
	s := New()
	ring := s.NewNode("ring")
	ring.Position = mgl64.Vec3{0, 1, 0}
	ring.Scale = mgl64.Vec3{2, 2, 2}
	s.Root().AddChild(ring)

	token := s.NewNode("token")
	token.Position = mgl64.Vec3{0.1, 0, 0}
	ring.AddChild(token)
	before := token.WorldPosition()

	s.Root().AddChildPreservingWorld(token)
	assert.Same(t, s.Root(), token.Parent)
	assertVec(t, before, token.WorldPosition())

	ring.AddChildPreservingWorld(token)
	assert.Same(t, ring, token.Parent)
	assertVec(t, before, token.WorldPosition())
	assertVec(t, mgl64.Vec3{0.1, 0, 0}, token.Position)
}

func TestNode_AddChildCyclePanics(t *testing.T) {
	s := New()
	a := s.NewNode("a")
	b := s.NewNode("b")
	a.AddChild(b)
	assert.Panics(t, func() { b.AddChild(a) })
}

func TestNode_DisposeUnregistersSubtree(t *testing.T) {
	s := New()
	a := s.NewNode("a")
	b := s.NewNode("b")
	s.Root().AddChild(a)
	a.AddChild(b)
	require.Equal(t, 3, s.Len())

	a.Dispose()
	assert.True(t, a.IsDisposed())
	assert.True(t, b.IsDisposed())
	assert.Empty(t, s.Root().Children())
	assert.Equal(t, 1, s.Len())
	_, ok := s.Node(b.ID)
	assert.False(t, ok)
}

func TestNode_Attached(t *testing.T) {
	s := New()
	n := s.NewNode("n")
	assert.False(t, n.Attached())
	s.Root().AddChild(n)
	assert.True(t, n.Attached())
	n.RemoveFromParent()
	assert.False(t, n.Attached())
}

func TestNode_LookAtPointsForwardAtTarget(t *testing.T) {
	s := New()
	n := s.NewNode("ring")
	s.Root().AddChild(n)

	n.LookAt(mgl64.Vec3{0, 0, -2}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0})
	forward := n.Rotation.Rotate(mgl64.Vec3{0, 0, -1})
	assertVec(t, mgl64.Vec3{0, 0, -1}, forward)

	n.LookAt(mgl64.Vec3{3, 1, 0}, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{0, 1, 0})
	forward = n.Rotation.Rotate(mgl64.Vec3{0, 0, -1})
	assertVec(t, mgl64.Vec3{1, 0, 0}, forward)
	assertVec(t, mgl64.Vec3{1, 1, 0}, n.WorldPosition())
}

func TestDecompose_RoundTrip(t *testing.T) {
	tr := Transform{
		Position: mgl64.Vec3{1, 2, 3},
		Rotation: mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 0}),
		Scale:    mgl64.Vec3{2, 2, 2},
	}
	got := Decompose(tr.Matrix())
	assertVec(t, tr.Position, got.Position)
	assertVec(t, tr.Scale, got.Scale)
	assert.True(t, tr.Rotation.ApproxEqualThreshold(got.Rotation, 1e-6) ||
		tr.Rotation.ApproxEqualThreshold(got.Rotation.Scale(-1), 1e-6))
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 0, NormalizeAngle(0), 1e-12)
	assert.InDelta(t, 3*math.Pi/2, NormalizeAngle(-math.Pi/2), 1e-12)
	assert.InDelta(t, math.Pi/2, NormalizeAngle(5*math.Pi/2), 1e-12)
}

func TestAnimator_MoveReachesTarget(t *testing.T) {
	s := New()
	n := s.NewNode("n")
	done := false

	s.Animator().Move(n, Translation(mgl64.Vec3{1, 0, 0}), time.Second, ease.Linear, func() { done = true })
	assert.True(t, s.Animator().Animating(n))

	s.Update(500 * time.Millisecond)
	assertVec(t, mgl64.Vec3{0.5, 0, 0}, n.Position)
	assert.False(t, done)

	s.Update(600 * time.Millisecond)
	assertVec(t, mgl64.Vec3{1, 0, 0}, n.Position)
	assert.True(t, done)
	assert.False(t, s.Animator().Animating(n))
}

func TestAnimator_LastMoveWins(t *testing.T) {
	s := New()
	n := s.NewNode("n")
	a := s.Animator()

	a.Move(n, Translation(mgl64.Vec3{1, 0, 0}), time.Second, ease.Linear, nil)
	s.Update(250 * time.Millisecond)
	a.Move(n, Translation(mgl64.Vec3{0, 1, 0}), time.Second, ease.Linear, nil)
	assertVec(t, mgl64.Vec3{0, 1, 0}, a.Target(n).Position)

	s.Update(2 * time.Second)
	assertVec(t, mgl64.Vec3{0, 1, 0}, n.Position)
}

func TestAnimator_ZeroDurationAppliesImmediately(t *testing.T) {
	s := New()
	n := s.NewNode("n")
	called := false
	s.Animator().Move(n, Translation(mgl64.Vec3{0, 0, 2}), 0, ease.Linear, func() { called = true })

	assertVec(t, mgl64.Vec3{0, 0, 2}, n.Position)
	assert.True(t, called)
	assert.Equal(t, 0, s.Animator().Pending())
}

func TestAnimator_DisposedNodeStops(t *testing.T) {
	s := New()
	n := s.NewNode("n")
	called := false
	s.Animator().Move(n, Translation(mgl64.Vec3{1, 0, 0}), time.Second, ease.Linear, func() { called = true })

	n.Dispose()
	s.Update(2 * time.Second)
	assert.False(t, called)
	assert.Equal(t, 0, s.Animator().Pending())
}

func TestAnimator_TimersFireOnceAndCancel(t *testing.T) {
	s := New()
	fired := 0
	s.Animator().After(500*time.Millisecond, func() { fired++ })
	cancelled := s.Animator().After(500*time.Millisecond, func() { fired += 100 })
	cancelled.Cancel()

	s.Update(400 * time.Millisecond)
	assert.Equal(t, 0, fired)
	s.Update(200 * time.Millisecond)
	assert.Equal(t, 1, fired)
	s.Update(time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, s.Animator().Pending())
}

func TestAnimator_TimerMaySchedule(t *testing.T) {
	s := New()
	steps := 0
	s.Animator().After(100*time.Millisecond, func() {
		steps++
		s.Animator().After(100*time.Millisecond, func() { steps++ })
	})

	s.Update(150 * time.Millisecond)
	assert.Equal(t, 1, steps)
	s.Update(150 * time.Millisecond)
	assert.Equal(t, 2, steps)
}

func TestScene_Collisions(t *testing.T) {
	s := New()
	a := s.NewNode("token")
	a.Radius = 0.02
	b := s.NewNode("marker")
	b.Radius = 0.15
	b.Position = mgl64.Vec3{0.1, 0, 0}
	c := s.NewNode("far")
	c.Radius = 0.02
	c.Position = mgl64.Vec3{5, 0, 0}
	for _, n := range []*Node{a, b, c} {
		s.Root().AddChild(n)
	}

	hits := s.Overlapping()
	require.Len(t, hits, 1)
	assert.Equal(t, a.ID, hits[0].A)
	assert.Equal(t, b.ID, hits[0].B)

	s.ReportCollision(a.ID, b.ID)
	assert.Len(t, s.DrainCollisions(), 1)
	assert.Empty(t, s.DrainCollisions())
}
