package interaction

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/internal/gesture"
	"github.com/spatialhue/lightcontrol/internal/ring"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/internal/slingshot"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeDevice struct {
	m mgl64.Mat4
}

func (d fakeDevice) DeviceTransform() mgl64.Mat4 {
	return d.m
}

type launch struct {
	node    *scene.Node
	impulse mgl64.Vec3
}

type fakePhysics struct {
	launches []launch
	steps    int
}

func (p *fakePhysics) ApplyImpulse(n *scene.Node, impulse mgl64.Vec3) {
	p.launches = append(p.launches, launch{n, impulse})
}

func (p *fakePhysics) Step(time.Duration) {
	p.steps++
}

func testConfig() Config {
	return Config{
		Palm: gesture.PalmConfig{
			Hand:                core.LeftHand,
			RequiredStableCount: 3,
			UpThreshold:         0.5,
			CloseDuration:       500 * time.Millisecond,
		},
		Peace: gesture.PeaceConfig{
			Hand:           core.RightHand,
			Separation:     0.03,
			ExtensionRatio: 0.7,
		},
		Ring: RingConfig{
			Layout: ring.Config{
				Radius:          0.075,
				TokenRadius:     0.02,
				RemoveDistance:  0.15,
				SnapDistance:    0.12,
				ArrangeDuration: time.Second,
			},
			OffsetY:       0.2,
			OpenDuration:  time.Second,
			CloseDuration: 500 * time.Millisecond,
		},
		Slingshot: SlingshotConfig{
			MaxPullDistance: 0.5,
			ForceMultiplier: -30,
			TokenRadius:     0.02,
			MarkerRadius:    0.005,
			Preview: slingshot.PreviewConfig{
				Length:      1.5,
				ArcHeight:   0.05,
				Samples:     10,
				PointRadius: 0.003,
			},
			ResetDelay: 500 * time.Millisecond,
		},
		SampleBuffer: 16,
	}
}

var palmOrigin = mgl64.Vec3{0, 1, -0.3}

func palmSample(up bool, at time.Duration) core.HandSample {
	rot := mgl64.Ident4()
	if !up {
		rot = mgl64.HomogRotate3DX(math.Pi)
	}
	return core.HandSample{
		Chirality:        core.LeftHand,
		Tracked:          true,
		OriginFromAnchor: mgl64.Translate3D(palmOrigin.X(), palmOrigin.Y(), palmOrigin.Z()),
		Joints: map[core.JointName]core.Joint{
			core.JointMiddleFingerMetacarpal: {Tracked: true, AnchorFromJoint: rot},
		},
		Time: t0.Add(at),
	}
}

var peaceOrigin = mgl64.Vec3{0.2, 1, -0.4}

// peaceMidpoint is where the projectile sits for peaceSample.
var peaceMidpoint = peaceOrigin.Add(mgl64.Vec3{0, 0.15, 0})

func peaceSample(at time.Duration) core.HandSample {
	joint := func(x, y float64) core.Joint {
		return core.Joint{Tracked: true, AnchorFromJoint: mgl64.Translate3D(x, y, 0)}
	}
	return core.HandSample{
		Chirality:        core.RightHand,
		Tracked:          true,
		OriginFromAnchor: mgl64.Translate3D(peaceOrigin.X(), peaceOrigin.Y(), peaceOrigin.Z()),
		Joints: map[core.JointName]core.Joint{
			core.JointWrist:     joint(0, 0),
			core.JointIndexTip:  joint(-0.02, 0.15),
			core.JointMiddleTip: joint(0.02, 0.15),
			core.JointRingTip:   joint(0.01, 0.05),
			core.JointLittleTip: joint(0.02, 0.04),
		},
		Time: t0.Add(at),
	}
}

func lostSample(hand core.Chirality, at time.Duration) core.HandSample {
	return core.HandSample{Chirality: hand, Tracked: false, Time: t0.Add(at)}
}

func advance(sc *scene.Scene, d time.Duration) {
	sc.Lock()
	defer sc.Unlock()
	sc.Update(d)
}

func localAngle(n *scene.Node) float64 {
	return scene.NormalizeAngle(math.Atan2(n.Position.Y(), n.Position.X()))
}
