package gesture

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// PalmConfig tunes the palm-up classifier.
type PalmConfig struct {
	Hand                core.Chirality
	RequiredStableCount int
	UpThreshold         float64
	CloseDuration       time.Duration
}

// PalmState is threaded through PalmUp.Step.
type PalmState struct {
	Phase        Phase
	UpCount      int
	DownCount    int
	ClosingSince time.Time
	// Palm is the world transform of the palm joint from the last tracked sample.
	Palm mgl64.Mat4
}

// PalmUp recognises an open palm facing up.
type PalmUp struct {
	cfg PalmConfig
}

// NewPalmUp creates a palm-up classifier.
func NewPalmUp(cfg PalmConfig) *PalmUp {
	if cfg.RequiredStableCount < 1 {
		cfg.RequiredStableCount = 1
	}
	return &PalmUp{cfg: cfg}
}

// PalmUpVector returns the palm's local +Y axis in world space.
func PalmUpVector(palm mgl64.Mat4) mgl64.Vec3 {
	return palm.Mul4x1(mgl64.Vec4{0, 1, 0, 0}).Vec3().Normalize()
}

// Step advances the classifier by one sample.
func (c *PalmUp) Step(s PalmState, sample core.HandSample) (PalmState, Event) {
	if sample.Chirality != c.cfg.Hand {
		return s, EventNone
	}

	if s.Phase == PhaseClosing && !sample.Time.Before(s.ClosingSince.Add(c.cfg.CloseDuration)) {
		s.Phase = PhaseIdle
	}

	palm, ok := sample.JointTransform(core.JointMiddleFingerMetacarpal)
	if !sample.Tracked || !ok {
		s.UpCount, s.DownCount = 0, 0
		if s.Phase == PhaseShowing {
			s.Phase = PhaseClosing
			s.ClosingSince = sample.Time
			return s, EventRingClose
		}
		return s, EventNone
	}
	s.Palm = palm

	if PalmUpVector(palm).Y() > c.cfg.UpThreshold {
		s.UpCount++
		s.DownCount = 0
		if s.UpCount >= c.cfg.RequiredStableCount && s.Phase != PhaseShowing {
			s.Phase = PhaseShowing
			return s, EventRingOpen
		}
		return s, EventNone
	}

	s.DownCount++
	s.UpCount = 0
	if s.DownCount >= c.cfg.RequiredStableCount && s.Phase == PhaseShowing {
		s.Phase = PhaseClosing
		s.ClosingSince = sample.Time
		return s, EventRingClose
	}
	return s, EventNone
}
