// Package geo parses positions, rotations and poses in the local tracking
// frame. All lengths are metres; matrices are column-major.
package geo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Vec3FromString parses "x,y,z" or "x,y" (z = 0) into a position.
func Vec3FromString(coords string) (mgl64.Vec3, error) {
	split := strings.Split(coords, ",")
	if len(split) < 2 || len(split) > 3 {
		return mgl64.Vec3{}, ErrInvalidCoordinates
	}
	var v mgl64.Vec3
	for i, s := range split {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return mgl64.Vec3{}, ErrInvalidCoordinates
		}
		v[i] = f
	}
	return v, nil
}

// Vec3FromSlice converts exactly three values into a position.
func Vec3FromSlice(v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, ErrInvalidCoordinates
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

// QuatFromSlice converts [x, y, z, w] into a normalized rotation. An empty
// slice is the identity.
func QuatFromSlice(v []float64) (mgl64.Quat, error) {
	if len(v) == 0 {
		return mgl64.QuatIdent(), nil
	}
	if len(v) != 4 {
		return mgl64.Quat{}, ErrInvalidCoordinates
	}
	q := mgl64.Quat{W: v[3], V: mgl64.Vec3{v[0], v[1], v[2]}}
	if q.Len() == 0 {
		return mgl64.Quat{}, ErrInvalidCoordinates
	}
	return q.Normalize(), nil
}

// Mat4FromSlice converts 16 column-major values into a transform.
func Mat4FromSlice(v []float64) (mgl64.Mat4, error) {
	var m mgl64.Mat4
	if len(v) != len(m) {
		return mgl64.Mat4{}, ErrInvalidCoordinates
	}
	copy(m[:], v)
	return m, nil
}

// Pose composes a translation and a rotation.
func Pose(pos mgl64.Vec3, rot mgl64.Quat) mgl64.Mat4 {
	return mgl64.Translate3D(pos.X(), pos.Y(), pos.Z()).Mul4(rot.Mat4())
}

// PoseFromSlices builds a pose from a 16-value matrix, or failing that from a
// position and optional rotation.
func PoseFromSlices(matrix, pos, rot []float64) (mgl64.Mat4, error) {
	if len(matrix) > 0 {
		return Mat4FromSlice(matrix)
	}
	p, err := Vec3FromSlice(pos)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	q, err := QuatFromSlice(rot)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return Pose(p, q), nil
}
