package interaction

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/internal/collision"
	"github.com/spatialhue/lightcontrol/internal/gesture"
	"github.com/spatialhue/lightcontrol/internal/logging"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSlingshot(t *testing.T) (*scene.Scene, *fakePhysics, *SlingshotSession) {
	t.Helper()
	sc := scene.New()
	phys := &fakePhysics{}
	cfg := testConfig()
	return sc, phys, newSlingshotSession(sc, phys, gesture.NewPeace(cfg.Peace), cfg.Slingshot, nil, logging.Discard())
}

func TestSlingshotSession_SpawnsOnPeace(t *testing.T) {
	_, _, s := newSlingshot(t)
	assert.Nil(t, s.Projectile())

	s.Observe(peaceSample(0))
	assert.Equal(t, gesture.PhaseTracked, s.Phase())

	p := s.Projectile()
	require.NotNil(t, p)
	assert.True(t, peaceMidpoint.ApproxEqualThreshold(p.WorldPosition(), 1e-9), "pinned to the fingertip midpoint")
	tok, ok := p.UserData.(*core.Token)
	require.True(t, ok)
	assert.False(t, tok.Manipulated)
	assert.Greater(t, p.Radius, 0.0)
}

func TestSlingshotSession_FollowsFingersUntilGrabbed(t *testing.T) {
	_, _, s := newSlingshot(t)
	s.Observe(peaceSample(0))

	moved := peaceSample(10 * time.Millisecond)
	moved.OriginFromAnchor = mgl64.Translate3D(0.3, 1, -0.4)
	s.Observe(moved)
	want := peaceMidpoint.Add(mgl64.Vec3{0.1, 0, 0})
	assert.True(t, want.ApproxEqualThreshold(s.Projectile().WorldPosition(), 1e-9))

	require.NoError(t, s.BeginDrag(want))
	s.Observe(peaceSample(20 * time.Millisecond))
	assert.True(t, want.ApproxEqualThreshold(s.Projectile().WorldPosition(), 1e-9), "grabbed projectile is not pinned")
}

func TestSlingshotSession_PullAndRelease(t *testing.T) {
	sc, phys, s := newSlingshot(t)
	s.Observe(peaceSample(0))
	first := s.Projectile()

	require.NoError(t, s.BeginDrag(peaceMidpoint))
	impulse, err := s.UpdateDrag(peaceMidpoint.Add(mgl64.Vec3{0, 0, 0.8}))
	require.NoError(t, err)
	assert.True(t, mgl64.Vec3{0, 0, -15}.ApproxEqualThreshold(impulse, 1e-9))

	pulled := peaceMidpoint.Add(mgl64.Vec3{0, 0, 0.5})
	assert.True(t, pulled.ApproxEqualThreshold(first.WorldPosition(), 1e-9), "pull is clamped")
	assert.Len(t, s.Trajectory(), 10)

	launched, err := s.Release()
	require.NoError(t, err)
	assert.Equal(t, impulse, launched)
	require.Len(t, phys.launches, 1)
	assert.Same(t, first, phys.launches[0].node)
	assert.Empty(t, s.Trajectory())
	assert.ErrorIs(t, s.BeginDrag(peaceMidpoint), ErrNoProjectile)

	advance(sc, 600*time.Millisecond)
	second := s.Projectile()
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.True(t, first.IsDisposed())
	assert.True(t, peaceMidpoint.ApproxEqualThreshold(second.WorldPosition(), 1e-9))
	assert.NoError(t, s.BeginDrag(peaceMidpoint))
}

func TestSlingshotSession_ZeroPullHasNoPreview(t *testing.T) {
	_, _, s := newSlingshot(t)
	s.Observe(peaceSample(0))

	require.NoError(t, s.BeginDrag(peaceMidpoint))
	impulse, err := s.UpdateDrag(peaceMidpoint)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{}, impulse)
	assert.Empty(t, s.Trajectory())
}

func TestSlingshotSession_LostTearsDown(t *testing.T) {
	sc, _, s := newSlingshot(t)
	s.Observe(peaceSample(0))
	p := s.Projectile()

	s.Observe(lostSample(core.RightHand, 10*time.Millisecond))
	assert.Equal(t, gesture.PhaseIdle, s.Phase())
	assert.Nil(t, s.Projectile())
	assert.True(t, p.IsDisposed())
	assert.Equal(t, 1, sc.Len(), "only the content root is left")
}

func TestSlingshotSession_HitReloads(t *testing.T) {
	sc, _, s := newSlingshot(t)
	s.Observe(peaceSample(0))
	first := s.Projectile()

	require.NoError(t, s.BeginDrag(peaceMidpoint))
	_, err := s.UpdateDrag(peaceMidpoint.Add(mgl64.Vec3{0, 0, 0.2}))
	require.NoError(t, err)
	_, err = s.Release()
	require.NoError(t, err)

	sc.Lock()
	first.Dispose()
	sc.Unlock()
	s.onHit(collision.Hit{Token: first})

	second := s.Projectile()
	require.NotNil(t, second)
	assert.NotSame(t, first, second)

	// the reload timer was replaced by the hit
	advance(sc, time.Second)
	assert.Same(t, second, s.Projectile())
}

func TestSlingshotSession_IgnoresOtherHits(t *testing.T) {
	sc, _, s := newSlingshot(t)
	s.Observe(peaceSample(0))
	p := s.Projectile()

	sc.Lock()
	other := sc.NewNode("other")
	sc.Unlock()
	s.onHit(collision.Hit{Token: other})
	assert.Same(t, p, s.Projectile())
}
