// Package sdf holds the intermediate document model shared by the two
// description front-ends (the single-robot kinematic dialect and the
// multi-object world dialect) plus the structural validation both
// dialects require. Parsers produce these values; the scene compiler
// consumes them. A parsed World is immutable by convention: reloading
// re-parses from scratch.
package sdf

import (
	"fmt"

	"github.com/robolab/roboscene/pkg/math"
)

// GeometryKind discriminates the Geometry tagged union.
type GeometryKind int

const (
	// GeometryNone marks a geometry slot that was present in the
	// document but degraded during parsing. Compilers skip it.
	GeometryNone GeometryKind = iota
	GeometryBox
	GeometrySphere
	GeometryCylinder
	GeometryPlane
	GeometryMesh
	GeometryHeightmap
)

// String returns a human-readable geometry kind name.
func (k GeometryKind) String() string {
	switch k {
	case GeometryNone:
		return "none"
	case GeometryBox:
		return "box"
	case GeometrySphere:
		return "sphere"
	case GeometryCylinder:
		return "cylinder"
	case GeometryPlane:
		return "plane"
	case GeometryMesh:
		return "mesh"
	case GeometryHeightmap:
		return "heightmap"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Geometry is the tagged union over all shape kinds both dialects can
// express. Only the fields relevant to Kind are meaningful.
type Geometry struct {
	Kind GeometryKind

	Size      math.Vec3 // box extents; heightmap world size
	Radius    float32   // sphere, cylinder
	Length    float32   // cylinder
	Normal    math.Vec3 // plane
	PlaneSize math.Vec2 // plane
	URI       string    // mesh, heightmap reference
	Scale     math.Vec3 // mesh, multiplicative on decoded coordinates
	Origin    math.Vec3 // heightmap offset
}

// Color is an RGBA quadruple with components in [0,1].
type Color struct {
	R, G, B, A float32
}

// Material carries the render colors of a visual geometry. Absent
// materials default to a neutral gray.
type Material struct {
	Ambient  Color
	Diffuse  Color
	Specular Color
	Emissive Color
	Texture  string
}

// DefaultMaterial returns the neutral gray used when a document does
// not specify a material.
func DefaultMaterial() Material {
	return Material{
		Ambient: Color{0.2, 0.2, 0.2, 1},
		Diffuse: Color{0.7, 0.7, 0.7, 1},
	}
}

// Visual pairs a geometry with its material and pose local to the link.
type Visual struct {
	Name     string
	Pose     math.Pose
	Geometry Geometry
	Material Material
}

// Collision pairs a geometry with its pose local to the link. Collision
// shapes never carry materials.
type Collision struct {
	Name     string
	Pose     math.Pose
	Geometry Geometry
}

// Link is a named node of the kinematic tree. Visual and collision sets
// are independent: a link may carry either, both, or neither.
type Link struct {
	Name       string
	Pose       math.Pose // local to the model (or joint child frame)
	Inertial   *LinkInertial
	Visuals    []Visual
	Collisions []Collision
}

// LinkInertial is the optional mass + inertia block of a link. A mass
// of zero or below marks the link as static.
type LinkInertial struct {
	Mass                         float32
	Pose                         math.Pose
	Ixx, Ixy, Ixz, Iyy, Iyz, Izz float32
}

// JointKind enumerates the supported joint types.
type JointKind int

const (
	JointFixed JointKind = iota
	JointRevolute
	JointPrismatic
	JointContinuous
	JointFloating
	JointPlanar
)

// String returns the dialect spelling of the joint kind.
func (k JointKind) String() string {
	switch k {
	case JointFixed:
		return "fixed"
	case JointRevolute:
		return "revolute"
	case JointPrismatic:
		return "prismatic"
	case JointContinuous:
		return "continuous"
	case JointFloating:
		return "floating"
	case JointPlanar:
		return "planar"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// JointKindFromString maps a dialect type attribute to a JointKind.
func JointKindFromString(s string) (JointKind, bool) {
	switch s {
	case "fixed", "":
		return JointFixed, true
	case "revolute":
		return JointRevolute, true
	case "prismatic":
		return JointPrismatic, true
	case "continuous":
		return JointContinuous, true
	case "floating":
		return JointFloating, true
	case "planar":
		return JointPlanar, true
	default:
		return JointFixed, false
	}
}

// JointLimits bounds a joint's motion. Present only when the document
// declares them.
type JointLimits struct {
	Lower, Upper     float32
	Effort, Velocity float32
}

// Joint relates a child link's frame to its parent link's frame. Links
// are addressed by name; Model.LinkIndex maps names to arena indices.
type Joint struct {
	Name   string
	Kind   JointKind
	Parent string
	Child  string
	Origin math.Pose // child frame relative to parent frame
	Axis   math.Vec3
	Limits *JointLimits
}

// Model is one articulated or static object: an arena of links plus the
// joints that relate them. Joints hold link names, not pointers; the
// tree is a traversal order over the arena.
type Model struct {
	Name   string
	Static bool
	Pose   math.Pose // world placement
	Links  []Link
	Joints []Joint
}

// LinkIndex returns the arena index of the named link, or -1.
func (m *Model) LinkIndex(name string) int {
	for i := range m.Links {
		if m.Links[i].Name == name {
			return i
		}
	}
	return -1
}

// LightKind enumerates the world dialect's light types.
type LightKind int

const (
	LightPoint LightKind = iota
	LightDirectional
	LightSpot
)

// Light is a world-level light source.
type Light struct {
	Name     string
	Kind     LightKind
	Pose     math.Pose
	Diffuse  Color
	Specular Color
}

// Physics carries the world's global simulation parameters.
type Physics struct {
	Name               string
	MaxStepSize        float32
	RealTimeFactor     float32
	RealTimeUpdateRate float32
	Gravity            math.Vec3
}

// SceneSettings carries world-level render settings.
type SceneSettings struct {
	Ambient    Color
	Background Color
}

// World is the top-level aggregate produced by the world front-end.
type World struct {
	Name    string
	Models  []Model
	Lights  []Light
	Physics *Physics
	Scene   *SceneSettings
}

// Diagnostic records a non-fatal degradation surfaced during parsing:
// the document location it concerns and the underlying cause.
type Diagnostic struct {
	Context string
	Err     error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %v", d.Context, d.Err)
}
