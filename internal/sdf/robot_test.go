package sdf

import (
	"errors"
	"testing"

	"github.com/robolab/roboscene/pkg/math"
)

const twoLinkArm = `<?xml version="1.0"?>
<robot name="arm">
  <material name="steel">
    <color rgba="0.6 0.6 0.65 1"/>
  </material>
  <link name="base">
    <inertial>
      <origin xyz="0 0 0.05"/>
      <mass value="4.0"/>
      <inertia ixx="0.01" ixy="0" ixz="0" iyy="0.01" iyz="0" izz="0.02"/>
    </inertial>
    <visual>
      <geometry><cylinder radius="0.1" length="0.1"/></geometry>
      <material name="steel"/>
    </visual>
    <collision>
      <geometry><cylinder radius="0.1" length="0.1"/></geometry>
    </collision>
  </link>
  <link name="upper">
    <visual>
      <origin xyz="0 0 0.2" rpy="0 0 0"/>
      <geometry><mesh filename="package://arm/meshes/upper.glb" scale="1 1 1"/></geometry>
    </visual>
  </link>
  <joint name="shoulder" type="revolute">
    <origin xyz="0 0 0.1" rpy="0 0 0"/>
    <parent link="base"/>
    <child link="upper"/>
    <axis xyz="0 1 0"/>
    <limit lower="-1.57" upper="1.57" effort="50" velocity="2"/>
  </joint>
</robot>`

func TestParseRobot(t *testing.T) {
	model, diags, err := ParseRobot([]byte(twoLinkArm))
	if err != nil {
		t.Fatalf("ParseRobot: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if model.Name != "arm" {
		t.Errorf("model name = %q, want %q", model.Name, "arm")
	}
	if len(model.Links) != 2 || len(model.Joints) != 1 {
		t.Fatalf("got %d links, %d joints; want 2, 1", len(model.Links), len(model.Joints))
	}

	base := &model.Links[0]
	if base.Inertial == nil || base.Inertial.Mass != 4.0 {
		t.Errorf("base inertial = %+v, want mass 4", base.Inertial)
	}
	if base.Inertial.Izz != 0.02 {
		t.Errorf("base izz = %v, want 0.02", base.Inertial.Izz)
	}
	// named material resolved from the robot-level definition
	if base.Visuals[0].Material.Diffuse != (Color{0.6, 0.6, 0.65, 1}) {
		t.Errorf("shared material not resolved: %+v", base.Visuals[0].Material.Diffuse)
	}

	upper := &model.Links[1]
	if upper.Visuals[0].Geometry.Kind != GeometryMesh {
		t.Fatalf("upper visual kind = %v, want mesh", upper.Visuals[0].Geometry.Kind)
	}
	if upper.Visuals[0].Geometry.URI != "package://arm/meshes/upper.glb" {
		t.Errorf("mesh uri = %q", upper.Visuals[0].Geometry.URI)
	}
	if len(upper.Collisions) != 0 {
		t.Errorf("upper should have no collisions, got %d", len(upper.Collisions))
	}

	joint := &model.Joints[0]
	if joint.Kind != JointRevolute {
		t.Errorf("joint kind = %v, want revolute", joint.Kind)
	}
	if joint.Axis != (math.Vec3{Y: 1}) {
		t.Errorf("joint axis = %v, want (0,1,0)", joint.Axis)
	}
	if joint.Origin.T != (math.Vec3{Z: 0.1}) {
		t.Errorf("joint origin = %v, want (0,0,0.1)", joint.Origin.T)
	}
	if joint.Limits == nil || joint.Limits.Upper != 1.57 {
		t.Errorf("joint limits = %+v", joint.Limits)
	}
}

func TestParseRobotOmittedBlocksValid(t *testing.T) {
	// links without visual or collision blocks are legal
	doc := `<robot name="bare">
      <link name="ghost"/>
      <link name="wall">
        <collision><geometry><box size="1 1 1"/></geometry></collision>
      </link>
    </robot>`

	model, diags, err := ParseRobot([]byte(doc))
	if err != nil {
		t.Fatalf("ParseRobot: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(model.Links[0].Visuals)+len(model.Links[0].Collisions) != 0 {
		t.Error("empty link grew geometry")
	}
	if len(model.Links[1].Visuals) != 0 || len(model.Links[1].Collisions) != 1 {
		t.Error("collision-only link mis-parsed")
	}
}

func TestParseRobotCycleRejected(t *testing.T) {
	doc := `<robot name="loop">
      <link name="a"/><link name="b"/><link name="c"/>
      <joint name="j1" type="fixed"><parent link="a"/><child link="b"/></joint>
      <joint name="j2" type="fixed"><parent link="b"/><child link="c"/></joint>
      <joint name="j3" type="fixed"><parent link="c"/><child link="a"/></joint>
    </robot>`

	_, _, err := ParseRobot([]byte(doc))
	if !errors.Is(err, ErrCyclicJointGraph) {
		t.Fatalf("got %v, want ErrCyclicJointGraph", err)
	}
}

func TestParseRobotUnknownJointLink(t *testing.T) {
	doc := `<robot name="dangling">
      <link name="a"/>
      <joint name="j" type="fixed"><parent link="a"/><child link="nope"/></joint>
    </robot>`

	_, _, err := ParseRobot([]byte(doc))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("got %v, want ErrMalformedDocument", err)
	}
}

func TestParseRobotGeometryDegrades(t *testing.T) {
	doc := `<robot name="r">
      <link name="l">
        <visual><geometry><sphere radius="-1"/></geometry></visual>
      </link>
    </robot>`

	model, diags, err := ParseRobot([]byte(doc))
	if err != nil {
		t.Fatalf("ParseRobot: %v", err)
	}
	if model.Links[0].Visuals[0].Geometry.Kind != GeometryNone {
		t.Errorf("invalid sphere should degrade to none")
	}
	if len(diags) != 1 {
		t.Errorf("got %d diagnostics, want 1", len(diags))
	}
}
