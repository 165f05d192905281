// Package interaction runs the gesture-driven sessions: the palm ring and the
// two-finger slingshot. Only the session of the active mode consumes hand
// samples, and switching modes stops the previous classifier before the next
// one starts.
package interaction

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/internal/collision"
	"github.com/spatialhue/lightcontrol/internal/gesture"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/internal/session"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// ErrClosed is returned by SetMode after Close.
var ErrClosed = errors.New("interaction manager closed")

// Samples is the pose stream provider.
type Samples interface {
	Subscribe(size int) <-chan core.HandSample
}

// Device reports the viewer's pose.
type Device interface {
	DeviceTransform() mgl64.Mat4
}

// Physics launches bodies and advances the simulation. Calls happen under the
// scene lock.
type Physics interface {
	ApplyImpulse(n *scene.Node, impulse mgl64.Vec3)
	Step(dt time.Duration)
}

// Config groups the classifier and session settings.
type Config struct {
	Palm         gesture.PalmConfig
	Peace        gesture.PeaceConfig
	Ring         RingConfig
	Slingshot    SlingshotConfig
	SampleBuffer int
}

// Dependencies holds the collaborators of a Manager.
type Dependencies struct {
	Scene      *scene.Scene
	Session    *session.Context
	Samples    Samples
	Device     Device
	Physics    Physics
	Collisions *collision.Dispatcher
	Rand       *rand.Rand
	Logger     *slog.Logger
}

// Manager owns the interaction sessions and the classifier task of the
// active mode.
type Manager struct {
	sc      *scene.Scene
	session *session.Context
	physics Physics
	hits    *collision.Dispatcher
	log     *slog.Logger

	samples <-chan core.HandSample
	ring    *RingSession
	sling   *SlingshotSession

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewManager creates a manager in look-and-pinch mode. Classifiers only run
// once Start has been called.
func NewManager(cfg Config, deps Dependencies) *Manager {
	if cfg.SampleBuffer <= 0 {
		cfg.SampleBuffer = 64
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "interaction")

	m := &Manager{
		sc:      deps.Scene,
		session: deps.Session,
		physics: deps.Physics,
		hits:    deps.Collisions,
		log:     log,
	}
	if deps.Samples != nil {
		m.samples = deps.Samples.Subscribe(cfg.SampleBuffer)
	}
	m.ring = newRingSession(deps.Scene, deps.Device, gesture.NewPalmUp(cfg.Palm), cfg.Ring, log)
	m.sling = newSlingshotSession(deps.Scene, deps.Physics, gesture.NewPeace(cfg.Peace), cfg.Slingshot, deps.Rand, log)

	if m.hits != nil {
		m.hits.OnDispatch(func(hit collision.Hit) {
			m.ring.onHit(hit)
			m.sling.onHit(hit)
		})
	}
	return m
}

// Ring returns the palm ring session.
func (m *Manager) Ring() *RingSession {
	return m.ring
}

// Slingshot returns the slingshot session.
func (m *Manager) Slingshot() *SlingshotSession {
	return m.sling
}

// Mode returns the active interaction mode.
func (m *Manager) Mode() core.InteractionMode {
	return m.session.Mode()
}

// Start binds the classifier tasks to ctx and starts the one of the current
// mode.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx = ctx
	m.startLocked(m.session.Mode())
}

// SetMode stops the running classifier, waits for it to exit, tears down every
// session entity and starts the classifier of mode.
func (m *Manager) SetMode(mode core.InteractionMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	prev := m.session.Mode()
	m.stopLocked()

	m.sc.Lock()
	m.ring.reset()
	m.sling.reset()
	m.sc.Unlock()

	m.session.SetMode(mode)
	if m.ctx != nil {
		m.startLocked(mode)
	}
	m.log.Info("Interaction mode changed", "from", prev.String(), "to", mode.String())
	return nil
}

// Observe feeds s to the session of the active mode on the caller's
// goroutine. Callers that deliver samples in order themselves use it instead
// of Start.
func (m *Manager) Observe(s core.HandSample) {
	if observe := m.observer(m.session.Mode()); observe != nil {
		observe(s)
	}
}

func (m *Manager) observer(mode core.InteractionMode) func(core.HandSample) {
	switch mode {
	case core.ModeRing:
		return m.ring.Observe
	case core.ModeSlingshot:
		return m.sling.Observe
	}
	return nil
}

func (m *Manager) startLocked(mode core.InteractionMode) {
	observe := m.observer(mode)
	if observe == nil || m.samples == nil {
		return
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	active := func() bool { return m.session.Mode() == mode }

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := gesture.Run(ctx, m.samples, active, observe)
		if err != nil && !errors.Is(err, context.Canceled) {
			m.log.Warn("Gesture classifier stopped", "mode", mode.String(), "error", err)
		}
	}()
}

func (m *Manager) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.wg.Wait()
}

// Tick advances animations, timers and physics by dt, then dispatches the
// collisions reported meanwhile. It returns the number of token hits.
func (m *Manager) Tick(dt time.Duration) int {
	m.sc.Lock()
	m.sc.Update(dt)
	if m.physics != nil {
		m.physics.Step(dt)
	}
	m.sc.Unlock()

	if m.hits == nil {
		return 0
	}
	return m.hits.Process()
}

// Close stops the classifier and removes every session entity.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.stopLocked()

	m.sc.Lock()
	m.ring.reset()
	m.sling.reset()
	m.sc.Unlock()
}
