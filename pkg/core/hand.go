package core

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Chirality tells left and right hands apart.
type Chirality int

const (
	LeftHand Chirality = iota
	RightHand
)

func (c Chirality) String() string {
	if c == RightHand {
		return "right"
	}
	return "left"
}

// ParseChirality accepts "left" or "right"; anything else is left.
func ParseChirality(s string) Chirality {
	if s == "right" {
		return RightHand
	}
	return LeftHand
}

// JointName identifies a hand skeleton joint.
type JointName string

const (
	JointWrist                  JointName = "wrist"
	JointIndexTip               JointName = "indexFingerTip"
	JointMiddleTip              JointName = "middleFingerTip"
	JointRingTip                JointName = "ringFingerTip"
	JointLittleTip              JointName = "littleFingerTip"
	JointMiddleFingerMetacarpal JointName = "middleFingerMetacarpal"
)

// Joint is one skeleton joint relative to its hand anchor.
type Joint struct {
	Tracked         bool
	AnchorFromJoint mgl64.Mat4
}

// HandSample is a single pose update for one hand.
type HandSample struct {
	Chirality        Chirality
	Tracked          bool
	OriginFromAnchor mgl64.Mat4
	Joints           map[JointName]Joint
	Time             time.Time
}

// JointTransform returns the world transform of a joint and whether it is tracked.
func (s HandSample) JointTransform(name JointName) (mgl64.Mat4, bool) {
	j, ok := s.Joints[name]
	if !ok || !j.Tracked {
		return mgl64.Ident4(), false
	}
	return s.OriginFromAnchor.Mul4(j.AnchorFromJoint), true
}

// JointPosition returns the world position of a joint and whether it is tracked.
func (s HandSample) JointPosition(name JointName) (mgl64.Vec3, bool) {
	m, ok := s.JointTransform(name)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return Translation(m), true
}
