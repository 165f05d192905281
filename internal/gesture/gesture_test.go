package gesture

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func palmSample(hand core.Chirality, up bool, at time.Duration) core.HandSample {
	rot := mgl64.Ident4()
	if !up {
		rot = mgl64.HomogRotate3DX(math.Pi)
	}
	return core.HandSample{
		Chirality:        hand,
		Tracked:          true,
		OriginFromAnchor: mgl64.Translate3D(0, 1, -0.3),
		Joints: map[core.JointName]core.Joint{
			core.JointMiddleFingerMetacarpal: {Tracked: true, AnchorFromJoint: rot},
		},
		Time: t0.Add(at),
	}
}

func untracked(hand core.Chirality, at time.Duration) core.HandSample {
	return core.HandSample{Chirality: hand, Tracked: false, Time: t0.Add(at)}
}

func newPalm() *PalmUp {
	return NewPalmUp(PalmConfig{
		Hand:                core.LeftHand,
		RequiredStableCount: 3,
		UpThreshold:         0.5,
		CloseDuration:       500 * time.Millisecond,
	})
}

func feedPalm(c *PalmUp, s PalmState, samples ...core.HandSample) (PalmState, []Event) {
	var events []Event
	for _, smp := range samples {
		var ev Event
		s, ev = c.Step(s, smp)
		if ev != EventNone {
			events = append(events, ev)
		}
	}
	return s, events
}

func TestPalmUp_ThreeUpSamplesOpen(t *testing.T) {
	c := newPalm()
	s, events := feedPalm(c, PalmState{},
		palmSample(core.LeftHand, true, 0),
		palmSample(core.LeftHand, true, 10*time.Millisecond),
	)
	assert.Empty(t, events)
	assert.Equal(t, PhaseIdle, s.Phase)

	s, ev := c.Step(s, palmSample(core.LeftHand, true, 20*time.Millisecond))
	assert.Equal(t, EventRingOpen, ev)
	assert.Equal(t, PhaseShowing, s.Phase)
	assert.InDelta(t, 1.0, s.Palm.Col(3).Y(), 1e-9)

	s, ev = c.Step(s, palmSample(core.LeftHand, true, 30*time.Millisecond))
	assert.Equal(t, EventNone, ev, "open fires once")
	assert.Equal(t, PhaseShowing, s.Phase)
}

func TestPalmUp_TwoUpThenDownDoesNotOpen(t *testing.T) {
	c := newPalm()
	s, events := feedPalm(c, PalmState{},
		palmSample(core.LeftHand, true, 0),
		palmSample(core.LeftHand, true, 10*time.Millisecond),
		palmSample(core.LeftHand, false, 20*time.Millisecond),
	)
	assert.Empty(t, events)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, 0, s.UpCount)
	assert.Equal(t, 1, s.DownCount)
}

func TestPalmUp_ThreeDownSamplesClose(t *testing.T) {
	c := newPalm()
	s, _ := feedPalm(c, PalmState{},
		palmSample(core.LeftHand, true, 0),
		palmSample(core.LeftHand, true, 0),
		palmSample(core.LeftHand, true, 0),
	)
	require.Equal(t, PhaseShowing, s.Phase)

	s, events := feedPalm(c, s,
		palmSample(core.LeftHand, false, 100*time.Millisecond),
		palmSample(core.LeftHand, false, 110*time.Millisecond),
	)
	assert.Empty(t, events)

	s, ev := c.Step(s, palmSample(core.LeftHand, false, 120*time.Millisecond))
	assert.Equal(t, EventRingClose, ev)
	assert.Equal(t, PhaseClosing, s.Phase)

	s, _ = c.Step(s, palmSample(core.LeftHand, false, 400*time.Millisecond))
	assert.Equal(t, PhaseClosing, s.Phase)
	s, ev = c.Step(s, palmSample(core.LeftHand, false, 700*time.Millisecond))
	assert.Equal(t, EventNone, ev)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestPalmUp_ReopenWhileClosing(t *testing.T) {
	c := newPalm()
	s := PalmState{Phase: PhaseClosing, ClosingSince: t0}

	s, events := feedPalm(c, s,
		palmSample(core.LeftHand, true, 10*time.Millisecond),
		palmSample(core.LeftHand, true, 20*time.Millisecond),
		palmSample(core.LeftHand, true, 30*time.Millisecond),
	)
	assert.Equal(t, []Event{EventRingOpen}, events)
	assert.Equal(t, PhaseShowing, s.Phase)
}

func TestPalmUp_UntrackedResetsAndCloses(t *testing.T) {
	c := newPalm()
	s, _ := feedPalm(c, PalmState{},
		palmSample(core.LeftHand, true, 0),
		palmSample(core.LeftHand, true, 0),
	)
	s, ev := c.Step(s, untracked(core.LeftHand, 0))
	assert.Equal(t, EventNone, ev)
	assert.Equal(t, 0, s.UpCount)

	s, _ = feedPalm(c, s,
		palmSample(core.LeftHand, true, 0),
		palmSample(core.LeftHand, true, 0),
		palmSample(core.LeftHand, true, 0),
	)
	require.Equal(t, PhaseShowing, s.Phase)

	s, ev = c.Step(s, untracked(core.LeftHand, time.Second))
	assert.Equal(t, EventRingClose, ev)
	assert.Equal(t, PhaseClosing, s.Phase)
}

func TestPalmUp_UntrackedJoint(t *testing.T) {
	c := newPalm()
	smp := palmSample(core.LeftHand, true, 0)
	smp.Joints[core.JointMiddleFingerMetacarpal] = core.Joint{Tracked: false}

	s, ev := c.Step(PalmState{UpCount: 2}, smp)
	assert.Equal(t, EventNone, ev)
	assert.Equal(t, 0, s.UpCount)
}

func TestPalmUp_IgnoresOtherHand(t *testing.T) {
	c := newPalm()
	s, events := feedPalm(c, PalmState{},
		palmSample(core.RightHand, true, 0),
		palmSample(core.RightHand, true, 0),
		palmSample(core.RightHand, true, 0),
	)
	assert.Empty(t, events)
	assert.Equal(t, PalmState{}, s)
}

// peaceSample builds a hand with the wrist at the origin and fingertips placed
// by the caller, all offsets in metres.
func peaceSample(hand core.Chirality, index, middle, ring, little mgl64.Vec3) core.HandSample {
	j := func(p mgl64.Vec3) core.Joint {
		return core.Joint{Tracked: true, AnchorFromJoint: mgl64.Translate3D(p.X(), p.Y(), p.Z())}
	}
	return core.HandSample{
		Chirality:        hand,
		Tracked:          true,
		OriginFromAnchor: mgl64.Translate3D(0.2, 1.2, -0.4),
		Joints: map[core.JointName]core.Joint{
			core.JointWrist:     j(mgl64.Vec3{}),
			core.JointIndexTip:  j(index),
			core.JointMiddleTip: j(middle),
			core.JointRingTip:   j(ring),
			core.JointLittleTip: j(little),
		},
		Time: t0,
	}
}

func vSign() core.HandSample {
	return peaceSample(core.RightHand,
		mgl64.Vec3{-0.03, 0.18, 0},
		mgl64.Vec3{0.03, 0.18, 0},
		mgl64.Vec3{0.02, 0.08, 0},
		mgl64.Vec3{0.03, 0.07, 0},
	)
}

func newPeace() *Peace {
	return NewPeace(PeaceConfig{Hand: core.RightHand, Separation: 0.03, ExtensionRatio: 0.7})
}

func TestPeace_DetectAndTrack(t *testing.T) {
	c := newPeace()

	s, ev := c.Step(PeaceState{}, vSign())
	assert.Equal(t, EventPeaceDetected, ev)
	assert.Equal(t, PhaseTracked, s.Phase)
	assert.True(t, mgl64.Vec3{0.2, 1.38, -0.4}.ApproxEqualThreshold(s.Fingers.Midpoint, 1e-9))

	s, ev = c.Step(s, vSign())
	assert.Equal(t, EventNone, ev)
	assert.Equal(t, PhaseTracked, s.Phase)
}

func TestPeace_ClosedFingersDoNotTrack(t *testing.T) {
	c := newPeace()
	closed := peaceSample(core.RightHand,
		mgl64.Vec3{-0.005, 0.18, 0},
		mgl64.Vec3{0.005, 0.18, 0},
		mgl64.Vec3{0.02, 0.08, 0},
		mgl64.Vec3{0.03, 0.07, 0},
	)
	_, ev := c.Step(PeaceState{}, closed)
	assert.Equal(t, EventNone, ev)

	s, _ := c.Step(PeaceState{}, vSign())
	s, ev = c.Step(s, closed)
	assert.Equal(t, EventPeaceLost, ev)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestPeace_OpenHandRejected(t *testing.T) {
	c := newPeace()
	open := peaceSample(core.RightHand,
		mgl64.Vec3{-0.03, 0.18, 0},
		mgl64.Vec3{0.03, 0.18, 0},
		mgl64.Vec3{0.05, 0.17, 0},
		mgl64.Vec3{0.07, 0.14, 0},
	)
	_, ok := c.Read(open)
	assert.False(t, ok)
}

func TestPeace_UntrackedLoses(t *testing.T) {
	c := newPeace()
	s, _ := c.Step(PeaceState{}, vSign())

	lost := vSign()
	lost.Joints[core.JointWrist] = core.Joint{Tracked: false}
	s, ev := c.Step(s, lost)
	assert.Equal(t, EventPeaceLost, ev)
	assert.Equal(t, PhaseIdle, s.Phase)

	_, ev = c.Step(s, untracked(core.RightHand, 0))
	assert.Equal(t, EventNone, ev)
}

func TestPeace_IgnoresOtherHand(t *testing.T) {
	c := newPeace()
	smp := vSign()
	smp.Chirality = core.LeftHand
	_, ev := c.Step(PeaceState{}, smp)
	assert.Equal(t, EventNone, ev)
}

func TestRun_SkipsInactiveAndStopsOnCancel(t *testing.T) {
	samples := make(chan core.HandSample)
	var calls atomic.Int32
	active := func() bool { return calls.Add(1) > 1 }
	observed := make(chan core.HandSample, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, samples, active, func(s core.HandSample) {
			observed <- s
		})
	}()

	samples <- vSign()
	samples <- vSign()

	select {
	case <-observed:
	case <-time.After(time.Second):
		t.Fatal("active sample was not observed")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Empty(t, observed, "inactive sample must be skipped")
}

func TestRun_EndsWithStream(t *testing.T) {
	samples := make(chan core.HandSample)
	close(samples)
	err := Run(context.Background(), samples, nil, func(core.HandSample) {})
	assert.NoError(t, err)
}
