package sdf

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/robolab/roboscene/pkg/math"
)

// Wire structs for the kinematic dialect. Unlike the world dialect it
// puts scalars in attributes (origin xyz/rpy, box size, mesh filename)
// and shares named materials at the robot level.
type xmlRobot struct {
	XMLName   xml.Name           `xml:"robot"`
	Name      string             `xml:"name,attr"`
	Materials []xmlRobotMaterial `xml:"material"`
	Links     []xmlRobotLink     `xml:"link"`
	Joints    []xmlRobotJoint    `xml:"joint"`
}

type xmlRobotMaterial struct {
	Name  string `xml:"name,attr"`
	Color *struct {
		RGBA string `xml:"rgba,attr"`
	} `xml:"color"`
	Texture *struct {
		Filename string `xml:"filename,attr"`
	} `xml:"texture"`
}

type xmlRobotLink struct {
	Name       string              `xml:"name,attr"`
	Inertial   *xmlRobotInertial   `xml:"inertial"`
	Visuals    []xmlRobotVisual    `xml:"visual"`
	Collisions []xmlRobotCollision `xml:"collision"`
}

type xmlRobotInertial struct {
	Origin *xmlOrigin `xml:"origin"`
	Mass   *struct {
		Value string `xml:"value,attr"`
	} `xml:"mass"`
	Inertia *struct {
		Ixx string `xml:"ixx,attr"`
		Ixy string `xml:"ixy,attr"`
		Ixz string `xml:"ixz,attr"`
		Iyy string `xml:"iyy,attr"`
		Iyz string `xml:"iyz,attr"`
		Izz string `xml:"izz,attr"`
	} `xml:"inertia"`
}

type xmlOrigin struct {
	Xyz string `xml:"xyz,attr"`
	Rpy string `xml:"rpy,attr"`
}

type xmlRobotVisual struct {
	Name     string            `xml:"name,attr"`
	Origin   *xmlOrigin        `xml:"origin"`
	Geometry *xmlRobotGeometry `xml:"geometry"`
	Material *xmlRobotMaterial `xml:"material"`
}

type xmlRobotCollision struct {
	Name     string            `xml:"name,attr"`
	Origin   *xmlOrigin        `xml:"origin"`
	Geometry *xmlRobotGeometry `xml:"geometry"`
}

type xmlRobotGeometry struct {
	Box *struct {
		Size string `xml:"size,attr"`
	} `xml:"box"`
	Sphere *struct {
		Radius string `xml:"radius,attr"`
	} `xml:"sphere"`
	Cylinder *struct {
		Radius string `xml:"radius,attr"`
		Length string `xml:"length,attr"`
	} `xml:"cylinder"`
	Mesh *struct {
		Filename string `xml:"filename,attr"`
		Scale    string `xml:"scale,attr"`
	} `xml:"mesh"`
}

type xmlRobotJoint struct {
	Name   string     `xml:"name,attr"`
	Type   string     `xml:"type,attr"`
	Origin *xmlOrigin `xml:"origin"`
	Parent *struct {
		Link string `xml:"link,attr"`
	} `xml:"parent"`
	Child *struct {
		Link string `xml:"link,attr"`
	} `xml:"child"`
	Axis *struct {
		Xyz string `xml:"xyz,attr"`
	} `xml:"axis"`
	Limit *struct {
		Lower    string `xml:"lower,attr"`
		Upper    string `xml:"upper,attr"`
		Effort   string `xml:"effort,attr"`
		Velocity string `xml:"velocity,attr"`
	} `xml:"limit"`
}

// ParseRobotFile reads and parses a kinematic document from disk.
func ParseRobotFile(path string) (*Model, []Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading robot file: %w", err)
	}
	return ParseRobot(data)
}

// ParseRobot parses a single-robot kinematic document into one Model.
// Geometry problems degrade with diagnostics; structural problems fail
// the whole document.
func ParseRobot(data []byte) (*Model, []Diagnostic, error) {
	var doc xmlRobot
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	model := &Model{Name: doc.Name, Pose: math.PoseIdentity()}
	var diags []Diagnostic

	// robot-level materials referenced by name from link visuals
	shared := map[string]Material{}
	for i := range doc.Materials {
		material, err := convertRobotMaterial(&doc.Materials[i], nil)
		if err != nil {
			diags = append(diags, Diagnostic{Context: "material " + doc.Materials[i].Name, Err: err})
			continue
		}
		shared[doc.Materials[i].Name] = material
	}

	for i := range doc.Links {
		link, linkDiags, err := convertRobotLink(&doc.Links[i], doc.Name, shared)
		diags = append(diags, linkDiags...)
		if err != nil {
			return nil, diags, err
		}
		model.Links = append(model.Links, *link)
	}

	for i := range doc.Joints {
		joint, err := convertRobotJoint(&doc.Joints[i])
		if err != nil {
			return nil, diags, err
		}
		model.Joints = append(model.Joints, *joint)
	}

	if err := model.Validate(); err != nil {
		return nil, diags, err
	}
	return model, diags, nil
}

func convertRobotLink(x *xmlRobotLink, robotName string, shared map[string]Material) (*Link, []Diagnostic, error) {
	link := &Link{Name: x.Name, Pose: math.PoseIdentity()}
	var diags []Diagnostic

	if x.Inertial != nil {
		inertial, err := convertRobotInertial(x.Inertial)
		if err != nil {
			return nil, diags, fmt.Errorf("link %q: %w", x.Name, err)
		}
		link.Inertial = inertial
	}

	for i := range x.Visuals {
		v := &x.Visuals[i]
		visual := Visual{Name: v.Name, Material: DefaultMaterial()}
		if visual.Name == "" {
			visual.Name = "visual"
		}

		pose, err := convertOrigin(v.Origin)
		if err != nil {
			return nil, diags, fmt.Errorf("link %q visual: %w", x.Name, err)
		}
		visual.Pose = pose

		geom, err := convertRobotGeometry(v.Geometry)
		if err != nil {
			diags = append(diags, Diagnostic{
				Context: fmt.Sprintf("robot %q link %q visual %q", robotName, x.Name, visual.Name),
				Err:     err,
			})
			geom = Geometry{Kind: GeometryNone}
		}
		visual.Geometry = geom

		if v.Material != nil {
			material, err := convertRobotMaterial(v.Material, shared)
			if err != nil {
				diags = append(diags, Diagnostic{
					Context: fmt.Sprintf("robot %q link %q visual %q material", robotName, x.Name, visual.Name),
					Err:     err,
				})
			} else {
				visual.Material = material
			}
		}
		link.Visuals = append(link.Visuals, visual)
	}

	for i := range x.Collisions {
		c := &x.Collisions[i]
		collision := Collision{Name: c.Name}
		if collision.Name == "" {
			collision.Name = "collision"
		}

		pose, err := convertOrigin(c.Origin)
		if err != nil {
			return nil, diags, fmt.Errorf("link %q collision: %w", x.Name, err)
		}
		collision.Pose = pose

		geom, err := convertRobotGeometry(c.Geometry)
		if err != nil {
			diags = append(diags, Diagnostic{
				Context: fmt.Sprintf("robot %q link %q collision %q", robotName, x.Name, collision.Name),
				Err:     err,
			})
			geom = Geometry{Kind: GeometryNone}
		}
		collision.Geometry = geom
		link.Collisions = append(link.Collisions, collision)
	}

	return link, diags, nil
}

func convertOrigin(x *xmlOrigin) (math.Pose, error) {
	if x == nil {
		return math.PoseIdentity(), nil
	}
	return parsePoseAttrs(x.Xyz, x.Rpy)
}

func convertRobotInertial(x *xmlRobotInertial) (*LinkInertial, error) {
	inertial := &LinkInertial{}

	pose, err := convertOrigin(x.Origin)
	if err != nil {
		return nil, err
	}
	inertial.Pose = pose

	if x.Mass != nil {
		mass, err := parseScalarText(x.Mass.Value, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: inertial mass: %v", ErrMalformedDocument, err)
		}
		inertial.Mass = mass
	}

	if x.Inertia != nil {
		fields := []struct {
			text string
			dst  *float32
		}{
			{x.Inertia.Ixx, &inertial.Ixx},
			{x.Inertia.Ixy, &inertial.Ixy},
			{x.Inertia.Ixz, &inertial.Ixz},
			{x.Inertia.Iyy, &inertial.Iyy},
			{x.Inertia.Iyz, &inertial.Iyz},
			{x.Inertia.Izz, &inertial.Izz},
		}
		for _, f := range fields {
			v, err := parseScalarText(f.text, 0)
			if err != nil {
				return nil, fmt.Errorf("%w: inertia tensor: %v", ErrMalformedDocument, err)
			}
			*f.dst = v
		}
	}
	return inertial, nil
}

func convertRobotGeometry(x *xmlRobotGeometry) (Geometry, error) {
	if x == nil {
		return Geometry{}, fmt.Errorf("missing geometry element")
	}

	switch {
	case x.Box != nil:
		size, err := parseVec3Text(x.Box.Size, math.Vec3{})
		if err != nil || size == (math.Vec3{}) {
			return Geometry{}, fmt.Errorf("box size %q invalid", x.Box.Size)
		}
		return Geometry{Kind: GeometryBox, Size: size}, nil

	case x.Sphere != nil:
		radius, err := parseScalarText(x.Sphere.Radius, 0)
		if err != nil || radius <= 0 {
			return Geometry{}, fmt.Errorf("sphere radius %q invalid", x.Sphere.Radius)
		}
		return Geometry{Kind: GeometrySphere, Radius: radius}, nil

	case x.Cylinder != nil:
		radius, err := parseScalarText(x.Cylinder.Radius, 0)
		if err != nil || radius <= 0 {
			return Geometry{}, fmt.Errorf("cylinder radius %q invalid", x.Cylinder.Radius)
		}
		length, err := parseScalarText(x.Cylinder.Length, 0)
		if err != nil || length <= 0 {
			return Geometry{}, fmt.Errorf("cylinder length %q invalid", x.Cylinder.Length)
		}
		return Geometry{Kind: GeometryCylinder, Radius: radius, Length: length}, nil

	case x.Mesh != nil:
		if x.Mesh.Filename == "" {
			return Geometry{}, fmt.Errorf("mesh has no filename")
		}
		scale, err := parseVec3Text(x.Mesh.Scale, math.One)
		if err != nil {
			return Geometry{}, fmt.Errorf("mesh scale %q invalid", x.Mesh.Scale)
		}
		return Geometry{Kind: GeometryMesh, URI: x.Mesh.Filename, Scale: scale}, nil

	default:
		return Geometry{}, fmt.Errorf("geometry has no recognized shape element")
	}
}

// convertRobotMaterial resolves a material element, falling back to the
// robot-level material of the same name when the inline element only
// carries a name reference.
func convertRobotMaterial(x *xmlRobotMaterial, shared map[string]Material) (Material, error) {
	material := DefaultMaterial()

	if x.Color == nil && x.Texture == nil {
		if shared != nil {
			if m, ok := shared[x.Name]; ok {
				return m, nil
			}
		}
		return Material{}, fmt.Errorf("material %q has no color and no shared definition", x.Name)
	}

	if x.Color != nil {
		c, err := parseColorText(x.Color.RGBA, material.Diffuse)
		if err != nil {
			return Material{}, fmt.Errorf("color rgba: %v", err)
		}
		material.Diffuse = c
		material.Ambient = Color{c.R * 0.3, c.G * 0.3, c.B * 0.3, c.A}
	}
	if x.Texture != nil {
		material.Texture = x.Texture.Filename
	}
	return material, nil
}

func convertRobotJoint(x *xmlRobotJoint) (*Joint, error) {
	joint := &Joint{Name: x.Name, Axis: math.Vec3{X: 1}}

	kind, ok := JointKindFromString(x.Type)
	if !ok {
		return nil, fmt.Errorf("%w: joint %q: unknown type %q", ErrMalformedDocument, x.Name, x.Type)
	}
	joint.Kind = kind

	if x.Parent == nil || x.Parent.Link == "" {
		return nil, fmt.Errorf("%w: joint %q has no parent link", ErrMalformedDocument, x.Name)
	}
	if x.Child == nil || x.Child.Link == "" {
		return nil, fmt.Errorf("%w: joint %q has no child link", ErrMalformedDocument, x.Name)
	}
	joint.Parent = x.Parent.Link
	joint.Child = x.Child.Link

	pose, err := convertOrigin(x.Origin)
	if err != nil {
		return nil, fmt.Errorf("joint %q: %w", x.Name, err)
	}
	joint.Origin = pose

	if x.Axis != nil {
		axis, err := parseVec3Text(x.Axis.Xyz, math.Vec3{X: 1})
		if err != nil {
			return nil, fmt.Errorf("%w: joint %q axis: %v", ErrMalformedDocument, x.Name, err)
		}
		joint.Axis = axis.Normalize()
	}

	if x.Limit != nil {
		limits := &JointLimits{}
		fields := []struct {
			text string
			dst  *float32
		}{
			{x.Limit.Lower, &limits.Lower},
			{x.Limit.Upper, &limits.Upper},
			{x.Limit.Effort, &limits.Effort},
			{x.Limit.Velocity, &limits.Velocity},
		}
		for _, f := range fields {
			v, err := parseScalarText(f.text, 0)
			if err != nil {
				return nil, fmt.Errorf("%w: joint %q limit: %v", ErrMalformedDocument, x.Name, err)
			}
			*f.dst = v
		}
		joint.Limits = limits
	}
	return joint, nil
}
