package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestVec3FromString_ValidWithZ(t *testing.T) {
	v, err := Vec3FromString("100.5,200.25,50.0")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != (mgl64.Vec3{100.5, 200.25, 50}) {
		t.Errorf("unexpected position %v", v)
	}
}

func TestVec3FromString_ValidWithoutZ(t *testing.T) {
	v, err := Vec3FromString("-0.5, 1.25")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != (mgl64.Vec3{-0.5, 1.25, 0}) {
		t.Errorf("unexpected position %v", v)
	}
}

func TestVec3FromString_Invalid(t *testing.T) {
	for _, in := range []string{"", "1", "a,b", "1,2,3,4", "1,,3"} {
		if _, err := Vec3FromString(in); !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("%q: expected ErrInvalidCoordinates, got %v", in, err)
		}
	}
}

func TestQuatFromSlice(t *testing.T) {
	q, err := QuatFromSlice(nil)
	if err != nil || q != mgl64.QuatIdent() {
		t.Fatalf("empty rotation should be identity, got %v, %v", q, err)
	}

	q, err = QuatFromSlice([]float64{0, 0, 2, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(q.Len()-1) > 1e-12 {
		t.Errorf("expected unit quaternion, got length %f", q.Len())
	}

	if _, err := QuatFromSlice([]float64{0, 0, 0, 0}); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("zero quaternion should be rejected, got %v", err)
	}
	if _, err := QuatFromSlice([]float64{1, 2, 3}); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("short quaternion should be rejected, got %v", err)
	}
}

func TestMat4FromSlice_ColumnMajor(t *testing.T) {
	values := []float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0.5, 1, -2, 1}
	m, err := Mat4FromSlice(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Col(3).Vec3(); got != (mgl64.Vec3{0.5, 1, -2}) {
		t.Errorf("translation should be the last column, got %v", got)
	}

	if _, err := Mat4FromSlice(values[:12]); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("short matrix should be rejected, got %v", err)
	}
}

func TestPoseFromSlices(t *testing.T) {
	m, err := PoseFromSlices(nil, []float64{1, 2, 3}, []float64{0, 0, math.Sin(math.Pi / 4), math.Cos(math.Pi / 4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Col(3).Vec3(); got != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("unexpected translation %v", got)
	}
	x := m.Mul4x1(mgl64.Vec4{1, 0, 0, 0}).Vec3()
	if !x.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("expected a quarter turn about z, got %v", x)
	}

	if _, err := PoseFromSlices(nil, []float64{1, 2}, nil); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("short position should be rejected, got %v", err)
	}
}
