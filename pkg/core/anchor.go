package core

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Anchor is a tracked point in world space owned by the tracking provider.
type Anchor struct {
	ID        uuid.UUID
	Transform mgl64.Mat4
}

// AnchorEventKind is the lifecycle transition an anchor went through.
type AnchorEventKind int

const (
	AnchorAdded AnchorEventKind = iota
	AnchorUpdated
	AnchorRemoved
)

func (k AnchorEventKind) String() string {
	switch k {
	case AnchorAdded:
		return "added"
	case AnchorUpdated:
		return "updated"
	case AnchorRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// AnchorEvent is emitted by the tracking provider for every anchor change.
type AnchorEvent struct {
	Kind   AnchorEventKind
	Anchor Anchor
}

// Translation returns the translation column of a rigid transform.
func Translation(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}
