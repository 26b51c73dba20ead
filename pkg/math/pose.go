package math

// Pose is a 6-DOF rigid transform: a translation plus a unit-quaternion
// orientation. Poses are values; composition always produces a fresh
// pose rather than mutating either operand.
type Pose struct {
	T Vec3
	R Quat
}

// PoseIdentity returns the identity transform.
func PoseIdentity() Pose {
	return Pose{R: QuatIdentity()}
}

// PoseFromRPY builds a pose from a translation and roll/pitch/yaw
// angles in radians.
func PoseFromRPY(t Vec3, roll, pitch, yaw float32) Pose {
	return Pose{T: t, R: QuatFromRPY(roll, pitch, yaw)}
}

// Compose returns parent then local: the local transform expressed in
// the parent frame. Orientations are normalized on the way in (so a
// zero-value Pose composes as the identity) and the result is
// renormalized to absorb floating-point drift across long joint chains.
func Compose(parent, local Pose) Pose {
	pr := parent.R.Normalize()
	return Pose{
		T: pr.Rotate(local.T).Add(parent.T),
		R: pr.Mul(local.R.Normalize()).Normalize(),
	}
}

// Apply transforms a point from the pose's local frame to its parent
// frame.
func (p Pose) Apply(v Vec3) Vec3 {
	return p.R.Rotate(v).Add(p.T)
}

// Mat4 returns the pose as a homogeneous transform matrix.
func (p Pose) Mat4() Mat4 {
	return Translate(p.T).Mul(FromQuat(p.R))
}
