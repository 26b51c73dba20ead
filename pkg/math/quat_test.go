package math

import (
	gomath "math"
	"testing"
)

const quatEpsilon = 1e-5

func quatNear(a, b Quat, eps float32) bool {
	// q and -q represent the same rotation
	if a.Dot(b) < 0 {
		b = Quat{-b.X, -b.Y, -b.Z, -b.W}
	}
	return absf(a.X-b.X) < eps && absf(a.Y-b.Y) < eps &&
		absf(a.Z-b.Z) < eps && absf(a.W-b.W) < eps
}

func vecNear(a, b Vec3, eps float32) bool {
	return absf(a.X-b.X) < eps && absf(a.Y-b.Y) < eps && absf(a.Z-b.Z) < eps
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func TestQuatIdentityRotate(t *testing.T) {
	v := Vec3{1, 2, 3}
	if got := QuatIdentity().Rotate(v); !vecNear(got, v, quatEpsilon) {
		t.Errorf("identity rotation moved %v to %v", v, got)
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees about Z maps X to Y
	q := QuatFromAxisAngle(Vec3{Z: 1}, float32(gomath.Pi/2))
	got := q.Rotate(Vec3{X: 1})
	if !vecNear(got, Vec3{Y: 1}, quatEpsilon) {
		t.Errorf("rotating X by 90deg about Z = %v, want (0,1,0)", got)
	}
}

func TestQuatMulComposes(t *testing.T) {
	// two 45 degree yaws equal one 90 degree yaw
	half := QuatFromAxisAngle(Vec3{Z: 1}, float32(gomath.Pi/4))
	full := QuatFromAxisAngle(Vec3{Z: 1}, float32(gomath.Pi/2))
	if got := half.Mul(half); !quatNear(got, full, quatEpsilon) {
		t.Errorf("45+45 yaw = %v, want %v", got, full)
	}
}

func TestQuatFromRPY(t *testing.T) {
	tests := []struct {
		name             string
		roll, pitch, yaw float32
		in, want         Vec3
	}{
		{"yaw only", 0, 0, float32(gomath.Pi / 2), Vec3{X: 1}, Vec3{Y: 1}},
		{"roll only", float32(gomath.Pi / 2), 0, 0, Vec3{Y: 1}, Vec3{Z: 1}},
		{"pitch only", 0, float32(gomath.Pi / 2), 0, Vec3{Z: 1}, Vec3{X: 1}},
	}

	for _, tc := range tests {
		q := QuatFromRPY(tc.roll, tc.pitch, tc.yaw)
		if got := q.Rotate(tc.in); !vecNear(got, tc.want, quatEpsilon) {
			t.Errorf("%s: rotated %v to %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestQuatNormalizeDegenerate(t *testing.T) {
	q := Quat{}
	if got := q.Normalize(); got != QuatIdentity() {
		t.Errorf("normalizing zero quaternion = %v, want identity", got)
	}
}

func TestQuatConjugateInverts(t *testing.T) {
	q := QuatFromRPY(0.3, -0.7, 1.1)
	v := Vec3{1, 2, 3}
	back := q.Conjugate().Rotate(q.Rotate(v))
	if !vecNear(back, v, quatEpsilon) {
		t.Errorf("conjugate did not invert rotation: got %v, want %v", back, v)
	}
}
