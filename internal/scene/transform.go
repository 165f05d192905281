package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a local translation, rotation and scale.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// Identity is the transform that changes nothing.
func Identity() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Translation returns an identity transform moved to p.
func Translation(p mgl64.Vec3) Transform {
	t := Identity()
	t.Position = p
	return t
}

// Matrix composes T·R·S.
func (t Transform) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Decompose splits an affine matrix without shear back into a Transform.
func Decompose(m mgl64.Mat4) Transform {
	pos := m.Col(3).Vec3()
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()

	rot := mgl64.QuatIdent()
	if sx > 0 && sy > 0 && sz > 0 {
		r := mgl64.Mat4FromCols(
			m.Col(0).Mul(1/sx),
			m.Col(1).Mul(1/sy),
			m.Col(2).Mul(1/sz),
			mgl64.Vec4{0, 0, 0, 1},
		)
		rot = mgl64.Mat4ToQuat(r).Normalize()
	}

	return Transform{
		Position: pos,
		Rotation: rot,
		Scale:    mgl64.Vec3{sx, sy, sz},
	}
}

// LookRotation returns the rotation whose -Z axis points along forward with the
// given up hint. ok is false when forward is zero or parallel to up.
func LookRotation(forward, up mgl64.Vec3) (q mgl64.Quat, ok bool) {
	if forward.Len() < 1e-9 {
		return mgl64.QuatIdent(), false
	}
	z := forward.Normalize().Mul(-1)
	x := up.Cross(z)
	if x.Len() < 1e-9 {
		return mgl64.QuatIdent(), false
	}
	x = x.Normalize()
	y := z.Cross(x)

	m := mgl64.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl64.Vec4{0, 0, 0, 1})
	return mgl64.Mat4ToQuat(m).Normalize(), true
}

// NormalizeAngle maps an angle in radians into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
