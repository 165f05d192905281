package gesture

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// PeaceConfig tunes the two-finger classifier.
type PeaceConfig struct {
	Hand core.Chirality
	// Separation is the index/middle tip distance above which the fingers count as spread.
	Separation float64
	// ExtensionRatio bounds ring and little finger reach relative to the index finger.
	ExtensionRatio float64
}

// Fingers holds the world positions the slingshot follows.
type Fingers struct {
	Index    mgl64.Vec3
	Middle   mgl64.Vec3
	Midpoint mgl64.Vec3
}

// PeaceState is threaded through Peace.Step.
type PeaceState struct {
	Phase   Phase
	Fingers Fingers
}

// Peace recognises index and middle fingers held up in a V.
type Peace struct {
	cfg PeaceConfig
}

// NewPeace creates a peace classifier.
func NewPeace(cfg PeaceConfig) *Peace {
	return &Peace{cfg: cfg}
}

var peaceJoints = []core.JointName{
	core.JointIndexTip,
	core.JointMiddleTip,
	core.JointRingTip,
	core.JointLittleTip,
	core.JointWrist,
}

// Read evaluates the pose. ok is false when the sample does not show the gesture.
func (c *Peace) Read(sample core.HandSample) (Fingers, bool) {
	if !sample.Tracked {
		return Fingers{}, false
	}
	pos := make(map[core.JointName]mgl64.Vec3, len(peaceJoints))
	for _, j := range peaceJoints {
		p, ok := sample.JointPosition(j)
		if !ok {
			return Fingers{}, false
		}
		pos[j] = p
	}

	wrist := pos[core.JointWrist]
	index := pos[core.JointIndexTip]
	middle := pos[core.JointMiddleTip]

	reach := index.Sub(wrist).Len() * c.cfg.ExtensionRatio
	if pos[core.JointRingTip].Sub(wrist).Len() > reach || pos[core.JointLittleTip].Sub(wrist).Len() > reach {
		return Fingers{}, false
	}

	if index.Sub(middle).Len() <= c.cfg.Separation {
		return Fingers{}, false
	}

	return Fingers{
		Index:    index,
		Middle:   middle,
		Midpoint: index.Add(middle).Mul(0.5),
	}, true
}

// Step advances the classifier by one sample.
func (c *Peace) Step(s PeaceState, sample core.HandSample) (PeaceState, Event) {
	if sample.Chirality != c.cfg.Hand {
		return s, EventNone
	}

	fingers, ok := c.Read(sample)
	if !ok {
		if s.Phase == PhaseTracked {
			return PeaceState{Phase: PhaseIdle}, EventPeaceLost
		}
		return s, EventNone
	}

	s.Fingers = fingers
	if s.Phase != PhaseTracked {
		s.Phase = PhaseTracked
		return s, EventPeaceDetected
	}
	return s, EventNone
}
