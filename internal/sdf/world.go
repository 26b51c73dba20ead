package sdf

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/robolab/roboscene/pkg/math"
)

// IncludeOpener fetches the raw bytes of an included model document by
// its reference URI. Passing nil disables include expansion.
type IncludeOpener func(uri string) ([]byte, error)

// Wire structs for the world dialect. Scalar elements stay strings so
// conversion can apply the degrade-vs-fail policy per field.
type xmlSDF struct {
	XMLName xml.Name  `xml:"sdf"`
	Version string    `xml:"version,attr"`
	World   *xmlWorld `xml:"world"`
	Model   *xmlModel `xml:"model"`
}

type xmlWorld struct {
	Name     string       `xml:"name,attr"`
	Physics  *xmlPhysics  `xml:"physics"`
	Scene    *xmlScene    `xml:"scene"`
	Lights   []xmlLight   `xml:"light"`
	Models   []xmlModel   `xml:"model"`
	Includes []xmlInclude `xml:"include"`
}

type xmlModel struct {
	Name   string     `xml:"name,attr"`
	Static string     `xml:"static"`
	Pose   string     `xml:"pose"`
	Links  []xmlLink  `xml:"link"`
	Joints []xmlJoint `xml:"joint"`
}

type xmlLink struct {
	Name       string         `xml:"name,attr"`
	Pose       string         `xml:"pose"`
	Inertial   *xmlInertial   `xml:"inertial"`
	Visuals    []xmlVisual    `xml:"visual"`
	Collisions []xmlCollision `xml:"collision"`
}

type xmlInertial struct {
	Mass    string      `xml:"mass"`
	Pose    string      `xml:"pose"`
	Inertia *xmlInertia `xml:"inertia"`
}

type xmlInertia struct {
	Ixx string `xml:"ixx"`
	Ixy string `xml:"ixy"`
	Ixz string `xml:"ixz"`
	Iyy string `xml:"iyy"`
	Iyz string `xml:"iyz"`
	Izz string `xml:"izz"`
}

type xmlVisual struct {
	Name     string       `xml:"name,attr"`
	Pose     string       `xml:"pose"`
	Geometry *xmlGeometry `xml:"geometry"`
	Material *xmlMaterial `xml:"material"`
}

type xmlCollision struct {
	Name     string       `xml:"name,attr"`
	Pose     string       `xml:"pose"`
	Geometry *xmlGeometry `xml:"geometry"`
}

type xmlGeometry struct {
	Box *struct {
		Size string `xml:"size"`
	} `xml:"box"`
	Sphere *struct {
		Radius string `xml:"radius"`
	} `xml:"sphere"`
	Cylinder *struct {
		Radius string `xml:"radius"`
		Length string `xml:"length"`
	} `xml:"cylinder"`
	Plane *struct {
		Normal string `xml:"normal"`
		Size   string `xml:"size"`
	} `xml:"plane"`
	Mesh *struct {
		URI   string `xml:"uri"`
		Scale string `xml:"scale"`
	} `xml:"mesh"`
	Heightmap *struct {
		URI  string `xml:"uri"`
		Size string `xml:"size"`
		Pos  string `xml:"pos"`
	} `xml:"heightmap"`
}

type xmlMaterial struct {
	Ambient  string `xml:"ambient"`
	Diffuse  string `xml:"diffuse"`
	Specular string `xml:"specular"`
	Emissive string `xml:"emissive"`
}

type xmlJoint struct {
	Name   string   `xml:"name,attr"`
	Type   string   `xml:"type,attr"`
	Parent string   `xml:"parent"`
	Child  string   `xml:"child"`
	Pose   string   `xml:"pose"`
	Axis   *xmlAxis `xml:"axis"`
}

type xmlAxis struct {
	Xyz   string    `xml:"xyz"`
	Limit *xmlLimit `xml:"limit"`
}

type xmlLimit struct {
	Lower    string `xml:"lower"`
	Upper    string `xml:"upper"`
	Effort   string `xml:"effort"`
	Velocity string `xml:"velocity"`
}

type xmlLight struct {
	Name     string `xml:"name,attr"`
	Type     string `xml:"type,attr"`
	Pose     string `xml:"pose"`
	Diffuse  string `xml:"diffuse"`
	Specular string `xml:"specular"`
}

type xmlPhysics struct {
	Name               string `xml:"name,attr"`
	MaxStepSize        string `xml:"max_step_size"`
	RealTimeFactor     string `xml:"real_time_factor"`
	RealTimeUpdateRate string `xml:"real_time_update_rate"`
	Gravity            string `xml:"gravity"`
}

type xmlScene struct {
	Ambient    string `xml:"ambient"`
	Background string `xml:"background"`
}

type xmlInclude struct {
	URI    string `xml:"uri"`
	Name   string `xml:"name"`
	Pose   string `xml:"pose"`
	Static string `xml:"static"`
}

// ParseWorldFile reads and parses a world document from disk.
func ParseWorldFile(path string, openInclude IncludeOpener) (*World, []Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading world file: %w", err)
	}
	return ParseWorld(data, openInclude)
}

// ParseWorld parses a world document. A model that fails structural
// validation is dropped with a diagnostic; its siblings survive. Only
// an unreadable document fails outright.
func ParseWorld(data []byte, openInclude IncludeOpener) (*World, []Diagnostic, error) {
	var doc xmlSDF
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.World == nil {
		return nil, nil, fmt.Errorf("%w: no <world> element", ErrMalformedDocument)
	}

	world := &World{Name: doc.World.Name}
	var diags []Diagnostic

	if doc.World.Physics != nil {
		physics, err := convertPhysics(doc.World.Physics)
		if err != nil {
			diags = append(diags, Diagnostic{Context: "world physics", Err: err})
		} else {
			world.Physics = physics
		}
	}
	if doc.World.Scene != nil {
		scene, err := convertScene(doc.World.Scene)
		if err != nil {
			diags = append(diags, Diagnostic{Context: "world scene", Err: err})
		} else {
			world.Scene = scene
		}
	}

	for i := range doc.World.Lights {
		light, err := convertLight(&doc.World.Lights[i])
		if err != nil {
			diags = append(diags, Diagnostic{Context: "light " + doc.World.Lights[i].Name, Err: err})
			continue
		}
		world.Lights = append(world.Lights, light)
	}

	for i := range doc.World.Models {
		model, modelDiags, err := convertModel(&doc.World.Models[i])
		diags = append(diags, modelDiags...)
		if err != nil {
			diags = append(diags, Diagnostic{Context: "model " + doc.World.Models[i].Name, Err: err})
			continue
		}
		world.Models = append(world.Models, *model)
	}

	for i := range doc.World.Includes {
		model, incDiags, err := expandInclude(&doc.World.Includes[i], openInclude)
		diags = append(diags, incDiags...)
		if err != nil {
			diags = append(diags, Diagnostic{Context: "include " + doc.World.Includes[i].URI, Err: err})
			continue
		}
		world.Models = append(world.Models, *model)
	}

	return world, diags, nil
}

// expandInclude loads and parses an included model document (one level
// deep; nested includes inside the included file are not expanded) and
// applies the include element's name/pose/static overrides.
func expandInclude(inc *xmlInclude, open IncludeOpener) (*Model, []Diagnostic, error) {
	if inc.URI == "" {
		return nil, nil, fmt.Errorf("%w: include has no uri", ErrMalformedDocument)
	}
	if open == nil {
		return nil, nil, fmt.Errorf("%w: include %q: no include opener configured", ErrMalformedDocument, inc.URI)
	}

	data, err := open(inc.URI)
	if err != nil {
		return nil, nil, fmt.Errorf("include %q: %w", inc.URI, err)
	}

	var doc xmlSDF
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: include %q: %v", ErrMalformedDocument, inc.URI, err)
	}
	if doc.Model == nil {
		return nil, nil, fmt.Errorf("%w: include %q: no <model> element", ErrMalformedDocument, inc.URI)
	}

	model, diags, err := convertModel(doc.Model)
	if err != nil {
		return nil, diags, err
	}

	if inc.Name != "" {
		model.Name = inc.Name
	}
	if inc.Pose != "" {
		pose, err := parsePoseText(inc.Pose)
		if err != nil {
			return nil, diags, err
		}
		model.Pose = pose
	}
	if inc.Static != "" {
		model.Static = parseBoolText(inc.Static, model.Static)
	}
	return model, diags, nil
}

// convertModel applies the degrade-vs-fail policy: malformed geometry
// elements degrade to GeometryNone with a diagnostic, while malformed
// poses, missing names and broken joint graphs fail the whole model.
func convertModel(x *xmlModel) (*Model, []Diagnostic, error) {
	model := &Model{
		Name:   x.Name,
		Static: parseBoolText(x.Static, false),
	}
	var diags []Diagnostic

	pose, err := parsePoseText(x.Pose)
	if err != nil {
		return nil, diags, err
	}
	model.Pose = pose

	for i := range x.Links {
		link, linkDiags, err := convertLink(&x.Links[i], x.Name)
		diags = append(diags, linkDiags...)
		if err != nil {
			return nil, diags, err
		}
		model.Links = append(model.Links, *link)
	}

	for i := range x.Joints {
		joint, err := convertJoint(&x.Joints[i])
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

func convertLink(x *xmlLink, modelName string) (*Link, []Diagnostic, error) {
	link := &Link{Name: x.Name}
	var diags []Diagnostic

	pose, err := parsePoseText(x.Pose)
	if err != nil {
		return nil, diags, fmt.Errorf("link %q: %w", x.Name, err)
	}
	link.Pose = pose

	if x.Inertial != nil {
		inertial, err := convertInertial(x.Inertial)
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

		visual.Pose, err = parsePoseText(v.Pose)
		if err != nil {
			return nil, diags, fmt.Errorf("link %q visual: %w", x.Name, err)
		}

		geom, err := convertGeometry(v.Geometry)
		if err != nil {
			diags = append(diags, Diagnostic{
				Context: fmt.Sprintf("model %q link %q visual %q", modelName, x.Name, visual.Name),
				Err:     err,
			})
			geom = Geometry{Kind: GeometryNone}
		}
		visual.Geometry = geom

		if v.Material != nil {
			material, err := convertMaterial(v.Material)
			if err != nil {
				diags = append(diags, Diagnostic{
					Context: fmt.Sprintf("model %q link %q visual %q material", modelName, x.Name, visual.Name),
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

		collision.Pose, err = parsePoseText(c.Pose)
		if err != nil {
			return nil, diags, fmt.Errorf("link %q collision: %w", x.Name, err)
		}

		geom, err := convertGeometry(c.Geometry)
		if err != nil {
			diags = append(diags, Diagnostic{
				Context: fmt.Sprintf("model %q link %q collision %q", modelName, x.Name, collision.Name),
				Err:     err,
			})
			geom = Geometry{Kind: GeometryNone}
		}
		collision.Geometry = geom
		link.Collisions = append(link.Collisions, collision)
	}

	return link, diags, nil
}

func convertInertial(x *xmlInertial) (*LinkInertial, error) {
	inertial := &LinkInertial{}

	mass, err := parseScalarText(x.Mass, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: inertial mass: %v", ErrMalformedDocument, err)
	}
	inertial.Mass = mass

	inertial.Pose, err = parsePoseText(x.Pose)
	if err != nil {
		return nil, err
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

func convertGeometry(x *xmlGeometry) (Geometry, error) {
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

	case x.Plane != nil:
		normal, err := parseVec3Text(x.Plane.Normal, math.Vec3{Z: 1})
		if err != nil {
			return Geometry{}, fmt.Errorf("plane normal %q invalid", x.Plane.Normal)
		}
		size, err := parseVec2Text(x.Plane.Size, math.Vec2{X: 1, Y: 1})
		if err != nil {
			return Geometry{}, fmt.Errorf("plane size %q invalid", x.Plane.Size)
		}
		return Geometry{Kind: GeometryPlane, Normal: normal.Normalize(), PlaneSize: size}, nil

	case x.Mesh != nil:
		if x.Mesh.URI == "" {
			return Geometry{}, fmt.Errorf("mesh has no uri")
		}
		scale, err := parseVec3Text(x.Mesh.Scale, math.One)
		if err != nil {
			return Geometry{}, fmt.Errorf("mesh scale %q invalid", x.Mesh.Scale)
		}
		return Geometry{Kind: GeometryMesh, URI: x.Mesh.URI, Scale: scale}, nil

	case x.Heightmap != nil:
		if x.Heightmap.URI == "" {
			return Geometry{}, fmt.Errorf("heightmap has no uri")
		}
		size, err := parseVec3Text(x.Heightmap.Size, math.Vec3{X: 1, Y: 1, Z: 1})
		if err != nil {
			return Geometry{}, fmt.Errorf("heightmap size %q invalid", x.Heightmap.Size)
		}
		pos, err := parseVec3Text(x.Heightmap.Pos, math.Vec3{})
		if err != nil {
			return Geometry{}, fmt.Errorf("heightmap pos %q invalid", x.Heightmap.Pos)
		}
		return Geometry{Kind: GeometryHeightmap, URI: x.Heightmap.URI, Size: size, Origin: pos}, nil

	default:
		return Geometry{}, fmt.Errorf("geometry has no recognized shape element")
	}
}

func convertMaterial(x *xmlMaterial) (Material, error) {
	material := DefaultMaterial()

	var err error
	if material.Ambient, err = parseColorText(x.Ambient, material.Ambient); err != nil {
		return Material{}, fmt.Errorf("ambient: %v", err)
	}
	if material.Diffuse, err = parseColorText(x.Diffuse, material.Diffuse); err != nil {
		return Material{}, fmt.Errorf("diffuse: %v", err)
	}
	if material.Specular, err = parseColorText(x.Specular, material.Specular); err != nil {
		return Material{}, fmt.Errorf("specular: %v", err)
	}
	if material.Emissive, err = parseColorText(x.Emissive, material.Emissive); err != nil {
		return Material{}, fmt.Errorf("emissive: %v", err)
	}
	return material, nil
}

func convertJoint(x *xmlJoint) (*Joint, error) {
	joint := &Joint{
		Name:   x.Name,
		Parent: x.Parent,
		Child:  x.Child,
		Axis:   math.Vec3{Z: 1},
	}

	kind, ok := JointKindFromString(x.Type)
	if !ok {
		return nil, fmt.Errorf("%w: joint %q: unknown type %q", ErrMalformedDocument, x.Name, x.Type)
	}
	joint.Kind = kind

	pose, err := parsePoseText(x.Pose)
	if err != nil {
		return nil, fmt.Errorf("joint %q: %w", x.Name, err)
	}
	joint.Origin = pose

	if x.Axis != nil {
		axis, err := parseVec3Text(x.Axis.Xyz, math.Vec3{Z: 1})
		if err != nil {
			return nil, fmt.Errorf("%w: joint %q axis: %v", ErrMalformedDocument, x.Name, err)
		}
		joint.Axis = axis.Normalize()

		if x.Axis.Limit != nil {
			limits, err := convertLimits(x.Axis.Limit)
			if err != nil {
				return nil, fmt.Errorf("%w: joint %q limit: %v", ErrMalformedDocument, x.Name, err)
			}
			joint.Limits = limits
		}
	}
	return joint, nil
}

func convertLimits(x *xmlLimit) (*JointLimits, error) {
	limits := &JointLimits{}
	fields := []struct {
		text string
		dst  *float32
	}{
		{x.Lower, &limits.Lower},
		{x.Upper, &limits.Upper},
		{x.Effort, &limits.Effort},
		{x.Velocity, &limits.Velocity},
	}
	for _, f := range fields {
		v, err := parseScalarText(f.text, 0)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return limits, nil
}

func convertLight(x *xmlLight) (Light, error) {
	light := Light{
		Name:    x.Name,
		Diffuse: Color{1, 1, 1, 1},
	}

	switch x.Type {
	case "point", "":
		light.Kind = LightPoint
	case "directional":
		light.Kind = LightDirectional
	case "spot":
		light.Kind = LightSpot
	default:
		return Light{}, fmt.Errorf("unknown light type %q", x.Type)
	}

	pose, err := parsePoseText(x.Pose)
	if err != nil {
		return Light{}, err
	}
	light.Pose = pose

	if light.Diffuse, err = parseColorText(x.Diffuse, light.Diffuse); err != nil {
		return Light{}, fmt.Errorf("diffuse: %v", err)
	}
	if light.Specular, err = parseColorText(x.Specular, Color{A: 1}); err != nil {
		return Light{}, fmt.Errorf("specular: %v", err)
	}
	return light, nil
}

func convertPhysics(x *xmlPhysics) (*Physics, error) {
	physics := &Physics{
		Name:               x.Name,
		MaxStepSize:        0.001,
		RealTimeFactor:     1,
		RealTimeUpdateRate: 1000,
		Gravity:            math.Vec3{Z: -9.81},
	}

	var err error
	if physics.MaxStepSize, err = parseScalarText(x.MaxStepSize, physics.MaxStepSize); err != nil {
		return nil, fmt.Errorf("max_step_size: %v", err)
	}
	if physics.RealTimeFactor, err = parseScalarText(x.RealTimeFactor, physics.RealTimeFactor); err != nil {
		return nil, fmt.Errorf("real_time_factor: %v", err)
	}
	if physics.RealTimeUpdateRate, err = parseScalarText(x.RealTimeUpdateRate, physics.RealTimeUpdateRate); err != nil {
		return nil, fmt.Errorf("real_time_update_rate: %v", err)
	}
	if physics.Gravity, err = parseVec3Text(x.Gravity, physics.Gravity); err != nil {
		return nil, fmt.Errorf("gravity: %v", err)
	}
	return physics, nil
}

func convertScene(x *xmlScene) (*SceneSettings, error) {
	scene := &SceneSettings{
		Ambient:    Color{0.4, 0.4, 0.4, 1},
		Background: Color{0.7, 0.7, 0.7, 1},
	}

	var err error
	if scene.Ambient, err = parseColorText(x.Ambient, scene.Ambient); err != nil {
		return nil, fmt.Errorf("ambient: %v", err)
	}
	if scene.Background, err = parseColorText(x.Background, scene.Background); err != nil {
		return nil, fmt.Errorf("background: %v", err)
	}
	return scene, nil
}
