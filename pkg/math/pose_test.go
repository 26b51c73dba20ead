package math

import (
	gomath "math"
	"testing"
)

func poseNear(a, b Pose, eps float32) bool {
	return vecNear(a.T, b.T, eps) && quatNear(a.R, b.R, eps)
}

func TestComposeIdentity(t *testing.T) {
	p := PoseFromRPY(Vec3{1, 2, 3}, 0.1, 0.2, 0.3)
	if got := Compose(PoseIdentity(), p); !poseNear(got, p, quatEpsilon) {
		t.Errorf("identity∘p = %v, want %v", got, p)
	}
	if got := Compose(p, PoseIdentity()); !poseNear(got, p, quatEpsilon) {
		t.Errorf("p∘identity = %v, want %v", got, p)
	}
}

func TestComposeTranslationRotates(t *testing.T) {
	// parent yawed 90 degrees: a child offset along X lands along Y
	parent := PoseFromRPY(Vec3{}, 0, 0, float32(gomath.Pi/2))
	child := Pose{T: Vec3{X: 1}, R: QuatIdentity()}

	got := Compose(parent, child)
	if !vecNear(got.T, Vec3{Y: 1}, quatEpsilon) {
		t.Errorf("composed translation = %v, want (0,1,0)", got.T)
	}
}

func TestComposeAssociative(t *testing.T) {
	a := PoseFromRPY(Vec3{1, 0, 0}, 0.2, 0, 0.4)
	b := PoseFromRPY(Vec3{0, 2, 0}, 0, -0.3, 0)
	c := PoseFromRPY(Vec3{0, 0, 3}, 0.5, 0.1, -0.2)

	left := Compose(Compose(a, b), c)
	right := Compose(a, Compose(b, c))
	if !poseNear(left, right, 1e-4) {
		t.Errorf("composition not associative: (ab)c = %v, a(bc) = %v", left, right)
	}
}

func TestComposeNotCommutative(t *testing.T) {
	a := Pose{T: Vec3{X: 1}, R: QuatFromRPY(0, 0, float32(gomath.Pi/2))}
	b := Pose{T: Vec3{Y: 1}, R: QuatIdentity()}

	ab := Compose(a, b)
	ba := Compose(b, a)
	if poseNear(ab, ba, quatEpsilon) {
		t.Error("expected a∘b != b∘a for non-trivial poses")
	}
}

func TestComposeNormalizesOrientation(t *testing.T) {
	drifted := Pose{T: Vec3{}, R: Quat{X: 0, Y: 0, Z: 0.01, W: 1.02}}
	got := Compose(drifted, PoseIdentity())

	l := float32(gomath.Sqrt(float64(got.R.Dot(got.R))))
	if absf(l-1) > quatEpsilon {
		t.Errorf("composed orientation length = %v, want 1", l)
	}
}

func TestPoseApplyMatchesMat4(t *testing.T) {
	p := PoseFromRPY(Vec3{1, -2, 0.5}, 0.3, 0.6, -0.9)
	v := Vec3{0.2, 0.4, 0.8}

	direct := p.Apply(v)
	viaMatrix := p.Mat4().TransformPoint(v)
	if !vecNear(direct, viaMatrix, 1e-4) {
		t.Errorf("Pose.Apply = %v, Mat4 path = %v", direct, viaMatrix)
	}
}
