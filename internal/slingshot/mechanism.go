// Package slingshot models the pull-and-release launcher: a bounded pull
// vector, the impulse it produces and a preview of the launch arc.
package slingshot

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Mechanism tracks one pull. The offset never exceeds MaxPullDistance.
type Mechanism struct {
	MaxPullDistance float64
	ForceMultiplier float64

	initial *mgl64.Vec3
	offset  mgl64.Vec3
}

// NewMechanism creates an idle mechanism.
func NewMechanism(maxPull, force float64) *Mechanism {
	return &Mechanism{MaxPullDistance: maxPull, ForceMultiplier: force}
}

// BeginDrag anchors the pull at p and zeroes the offset.
func (m *Mechanism) BeginDrag(p mgl64.Vec3) {
	m.initial = &p
	m.offset = mgl64.Vec3{}
}

// UpdateDrag re-anchors the pull at newInitial and measures p against it.
// A nil anchor clears the pull origin and leaves the offset untouched.
func (m *Mechanism) UpdateDrag(p mgl64.Vec3, newInitial *mgl64.Vec3) {
	if newInitial == nil {
		m.initial = nil
		return
	}
	anchor := *newInitial
	m.initial = &anchor

	offset := p.Sub(anchor)
	if l := offset.Len(); l > m.MaxPullDistance {
		offset = offset.Mul(m.MaxPullDistance / l)
	}
	m.offset = offset
}

// Offset returns the current clamped pull vector.
func (m *Mechanism) Offset() mgl64.Vec3 {
	return m.offset
}

// Initial returns the pull origin, if a drag is in progress.
func (m *Mechanism) Initial() (mgl64.Vec3, bool) {
	if m.initial == nil {
		return mgl64.Vec3{}, false
	}
	return *m.initial, true
}

// Impulse returns the launch impulse for the current pull. It is zero exactly
// when the offset is zero.
func (m *Mechanism) Impulse() mgl64.Vec3 {
	l := m.offset.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return m.offset.Normalize().Mul(l * m.ForceMultiplier)
}

// Reset returns the mechanism to idle.
func (m *Mechanism) Reset() {
	m.initial = nil
	m.offset = mgl64.Vec3{}
}
