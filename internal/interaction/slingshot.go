package interaction

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/internal/collision"
	"github.com/spatialhue/lightcontrol/internal/gesture"
	"github.com/spatialhue/lightcontrol/internal/ring"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/internal/slingshot"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// ErrNoProjectile is returned by drag calls while no projectile is loaded.
var ErrNoProjectile = errors.New("no projectile loaded")

// SlingshotConfig tunes the two-finger slingshot.
type SlingshotConfig struct {
	MaxPullDistance float64
	ForceMultiplier float64
	TokenRadius     float64
	MarkerRadius    float64
	Preview         slingshot.PreviewConfig
	ResetDelay      time.Duration
}

// SlingshotSession spawns a projectile between two spread fingers, lets the
// user pull it back and launches it on release. Exported methods take the
// scene lock.
type SlingshotSession struct {
	sc      *scene.Scene
	physics Physics
	cfg     SlingshotConfig
	peace   *gesture.Peace
	state   gesture.PeaceState
	mech    *slingshot.Mechanism
	rng     *rand.Rand
	log     *slog.Logger

	group      *scene.Node
	index      *scene.Node
	middle     *scene.Node
	midpoint   *scene.Node
	projectile *scene.Node
	trajectory *slingshot.Trajectory
	launched   bool
	reloading  *scene.Timer
}

func newSlingshotSession(sc *scene.Scene, physics Physics, peace *gesture.Peace, cfg SlingshotConfig, rng *rand.Rand, log *slog.Logger) *SlingshotSession {
	return &SlingshotSession{
		sc:      sc,
		physics: physics,
		cfg:     cfg,
		peace:   peace,
		mech:    slingshot.NewMechanism(cfg.MaxPullDistance, cfg.ForceMultiplier),
		rng:     rng,
		log:     log,
	}
}

// Observe feeds one hand sample to the peace classifier and moves the finger
// markers.
func (s *SlingshotSession) Observe(sample core.HandSample) {
	s.sc.Lock()
	defer s.sc.Unlock()

	var ev gesture.Event
	s.state, ev = s.peace.Step(s.state, sample)
	switch ev {
	case gesture.EventPeaceDetected:
		s.spawn()
	case gesture.EventPeaceLost:
		s.teardown()
	}
	if s.state.Phase == gesture.PhaseTracked {
		s.track()
	}
}

// Phase returns the peace classifier phase.
func (s *SlingshotSession) Phase() gesture.Phase {
	s.sc.Lock()
	defer s.sc.Unlock()
	return s.state.Phase
}

// Projectile returns the loaded or flying projectile, nil if none.
func (s *SlingshotSession) Projectile() *scene.Node {
	s.sc.Lock()
	defer s.sc.Unlock()
	return s.projectile
}

// Trajectory returns the preview markers currently shown.
func (s *SlingshotSession) Trajectory() []*scene.Node {
	s.sc.Lock()
	defer s.sc.Unlock()
	if s.trajectory == nil {
		return nil
	}
	return append([]*scene.Node(nil), s.trajectory.Markers()...)
}

func (s *SlingshotSession) spawn() {
	if s.group != nil {
		return
	}
	s.group = s.sc.NewNode("slingshot")
	s.sc.Root().AddChild(s.group)

	marker := func(name string) *scene.Node {
		n := s.sc.NewNode(name)
		n.Scale = mgl64.Vec3{s.cfg.MarkerRadius, s.cfg.MarkerRadius, s.cfg.MarkerRadius}
		s.group.AddChild(n)
		return n
	}
	s.index = marker("finger-index")
	s.middle = marker("finger-middle")
	s.midpoint = marker("finger-midpoint")

	s.projectile = s.sc.NewNode("projectile")
	s.projectile.Radius = s.cfg.TokenRadius
	s.projectile.UserData = &core.Token{Color: ring.RandomColor(s.rng)}
	s.group.AddChild(s.projectile)

	s.trajectory = slingshot.NewTrajectory(s.sc, s.group, s.cfg.Preview)
	s.launched = false
	s.log.Debug("Slingshot loaded")
}

func (s *SlingshotSession) track() {
	if s.group == nil {
		return
	}
	f := s.state.Fingers
	s.index.SetWorldPosition(f.Index)
	s.middle.SetWorldPosition(f.Middle)
	s.midpoint.SetWorldPosition(f.Midpoint)
	if s.projectile != nil && !s.manipulated() {
		s.projectile.SetWorldPosition(f.Midpoint)
	}
}

func (s *SlingshotSession) manipulated() bool {
	t, ok := s.projectile.UserData.(*core.Token)
	return ok && t.Manipulated
}

// teardown removes every slingshot entity. Caller holds the scene lock.
func (s *SlingshotSession) teardown() {
	if s.reloading != nil {
		s.reloading.Cancel()
		s.reloading = nil
	}
	if s.trajectory != nil {
		s.trajectory.Clear()
		s.trajectory = nil
	}
	if s.group != nil {
		s.group.Dispose()
	}
	s.group, s.index, s.middle, s.midpoint, s.projectile = nil, nil, nil, nil, nil
	s.launched = false
	s.mech.Reset()
}

// reset drops classifier state and entities. Caller holds the scene lock.
func (s *SlingshotSession) reset() {
	s.teardown()
	s.state = gesture.PeaceState{}
}

// reload replaces the entities while the gesture is still held.
func (s *SlingshotSession) reload() {
	s.teardown()
	if s.state.Phase == gesture.PhaseTracked {
		s.spawn()
		s.track()
	}
}

func (s *SlingshotSession) loaded() bool {
	return s.projectile != nil && !s.launched
}

// BeginDrag grabs the projectile at p.
func (s *SlingshotSession) BeginDrag(p mgl64.Vec3) error {
	s.sc.Lock()
	defer s.sc.Unlock()
	if !s.loaded() {
		return ErrNoProjectile
	}
	if t, ok := s.projectile.UserData.(*core.Token); ok {
		t.Manipulated = true
	}
	s.mech.BeginDrag(p)
	return nil
}

// UpdateDrag pulls the projectile toward p, measured from the current
// fingertip midpoint, and redraws the trajectory preview.
func (s *SlingshotSession) UpdateDrag(p mgl64.Vec3) (mgl64.Vec3, error) {
	s.sc.Lock()
	defer s.sc.Unlock()
	if !s.loaded() {
		return mgl64.Vec3{}, ErrNoProjectile
	}
	mid := s.state.Fingers.Midpoint
	s.mech.UpdateDrag(p, &mid)
	start := mid.Add(s.mech.Offset())
	s.projectile.SetWorldPosition(start)
	impulse := s.mech.Impulse()
	if impulse.Len() > 0 {
		s.trajectory.Update(start, impulse)
	} else {
		s.trajectory.Clear()
	}
	return impulse, nil
}

// Release launches the projectile and schedules a reload.
func (s *SlingshotSession) Release() (mgl64.Vec3, error) {
	s.sc.Lock()
	defer s.sc.Unlock()
	if !s.loaded() {
		return mgl64.Vec3{}, ErrNoProjectile
	}
	impulse := s.mech.Impulse()
	if s.physics != nil {
		s.physics.ApplyImpulse(s.projectile, impulse)
	}
	s.trajectory.Clear()
	s.launched = true
	s.log.Debug("Projectile launched", "impulse", impulse.Len())

	s.reloading = s.sc.Animator().After(s.cfg.ResetDelay, func() {
		s.reloading = nil
		s.reload()
	})
	return impulse, nil
}

func (s *SlingshotSession) onHit(hit collision.Hit) {
	s.sc.Lock()
	defer s.sc.Unlock()
	if s.projectile == nil || hit.Token != s.projectile {
		return
	}
	s.reload()
}
