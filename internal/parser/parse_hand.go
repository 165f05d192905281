package parser

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/internal/geo"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// parseHand converts a hand line into a sample.
// Missing "tracked" flags default to true; a missing origin is the identity.
func (p *Parser) parseHand(raw rawLine, at time.Time) (core.HandSample, error) {
	var result core.HandSample

	switch raw.Hand {
	case "left":
		result.Chirality = core.LeftHand
	case "right":
		result.Chirality = core.RightHand
	default:
		return result, fmt.Errorf("unknown hand %q", raw.Hand)
	}

	result.Tracked = raw.Tracked == nil || *raw.Tracked
	result.Time = at

	result.OriginFromAnchor = mgl64.Ident4()
	if len(raw.Matrix) > 0 || len(raw.Pos) > 0 {
		origin, err := geo.PoseFromSlices(raw.Matrix, raw.Pos, raw.Rot)
		if err != nil {
			return result, fmt.Errorf("error parsing hand origin: %w", err)
		}
		result.OriginFromAnchor = origin
	}

	result.Joints = make(map[core.JointName]core.Joint, len(raw.Joints))
	for name, j := range raw.Joints {
		joint := core.Joint{Tracked: j.Tracked == nil || *j.Tracked}
		if !joint.Tracked && len(j.Matrix) == 0 && len(j.Pos) == 0 {
			joint.AnchorFromJoint = mgl64.Ident4()
			result.Joints[core.JointName(name)] = joint
			continue
		}
		m, err := geo.PoseFromSlices(j.Matrix, j.Pos, j.Rot)
		if err != nil {
			return result, fmt.Errorf("error parsing joint %s: %w", name, err)
		}
		joint.AnchorFromJoint = m
		result.Joints[core.JointName(name)] = joint
	}

	return result, nil
}
