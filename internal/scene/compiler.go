package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/robolab/roboscene/internal/resolver"
	"github.com/robolab/roboscene/internal/sdf"
	"github.com/robolab/roboscene/pkg/formats"
	"github.com/robolab/roboscene/pkg/math"
)

// Options configures a Compiler.
type Options struct {
	// Resolver maps mesh references to paths. Required for documents
	// that reference meshes; primitives-only documents work without it.
	Resolver *resolver.Resolver

	// ReadFile loads resolved mesh bytes. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)

	// FallbackExtents are the cuboid extents substituted for a failed
	// visual mesh. Zero value defaults to a 0.1m cube.
	FallbackExtents math.Vec3

	// DecodeWorkers bounds the prefetch pool; <= 0 means 4.
	DecodeWorkers int

	// JointValues maps joint names to their current configuration
	// value (angle for revolute/continuous, displacement for
	// prismatic). Missing joints read as zero.
	JointValues map[string]float32

	Logger *zap.SugaredLogger
}

// Compiler turns parsed documents into instantiation records.
type Compiler struct {
	opts Options
	log  *zap.SugaredLogger
}

// NewCompiler returns a Compiler with defaults filled in.
func NewCompiler(opts Options) *Compiler {
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	if opts.FallbackExtents == (math.Vec3{}) {
		opts.FallbackExtents = math.Vec3{X: 0.1, Y: 0.1, Z: 0.1}
	}
	if opts.DecodeWorkers <= 0 {
		opts.DecodeWorkers = 4
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Compiler{opts: opts, log: log}
}

// CompileWorld compiles every model in a world. A model whose joint
// graph is structurally broken is skipped with a diagnostic and emits
// zero records; its siblings still compile. Lights, physics and scene
// settings pass through for the collaborators.
func (c *Compiler) CompileWorld(world *sdf.World) *Result {
	result := &Result{
		Lights:  world.Lights,
		Physics: world.Physics,
		Scene:   world.Scene,
	}

	meshes := c.prefetchWorld(world)

	for i := range world.Models {
		model := &world.Models[i]
		records, diags, err := c.compileModel(model, meshes)
		result.Diagnostics = append(result.Diagnostics, diags...)
		if err != nil {
			c.log.Warnw("model skipped", "model", model.Name, "error", err)
			result.Diagnostics = append(result.Diagnostics, Diagnostic{Model: model.Name, Err: err})
			continue
		}
		result.Records = append(result.Records, records...)
	}
	return result
}

// CompileModel compiles a single model document. Structural errors are
// returned; geometry degradations are absorbed into the result's
// diagnostics.
func (c *Compiler) CompileModel(model *sdf.Model) (*Result, error) {
	meshes := c.prefetch(collectMeshRefs(model))

	records, diags, err := c.compileModel(model, meshes)
	if err != nil {
		return nil, err
	}
	return &Result{Records: records, Diagnostics: diags}, nil
}

// compileModel walks the joint tree depth-first, parent before child,
// computing each link's absolute pose and emitting records for its
// geometry. The returned error is structural and means zero records.
func (c *Compiler) compileModel(model *sdf.Model, meshes meshSet) ([]Record, []Diagnostic, error) {
	order, err := model.TraversalOrder()
	if err != nil {
		return nil, nil, err
	}

	var records []Record
	var diags []Diagnostic

	absolute := make([]math.Pose, len(model.Links))
	for _, step := range order {
		link := &model.Links[step.Link]

		parent := model.Pose
		local := link.Pose
		if step.Joint >= 0 {
			joint := &model.Joints[step.Joint]
			parent = absolute[model.LinkIndex(joint.Parent)]
			local = math.Compose(math.Compose(joint.Origin, c.jointMotion(joint)), link.Pose)
		}
		absolute[step.Link] = math.Compose(parent, local)

		linkRecords, linkDiags := c.compileLink(model, link, absolute[step.Link], meshes)
		records = append(records, linkRecords...)
		diags = append(diags, linkDiags...)
	}
	return records, diags, nil
}

// jointMotion builds the pose contributed by a joint's current value.
func (c *Compiler) jointMotion(joint *sdf.Joint) math.Pose {
	value := c.opts.JointValues[joint.Name]
	if value == 0 {
		return math.PoseIdentity()
	}

	switch joint.Kind {
	case sdf.JointRevolute, sdf.JointContinuous:
		return math.Pose{
			R: math.QuatFromAxisAngle(joint.Axis, value),
		}
	case sdf.JointPrismatic:
		return math.Pose{
			T: joint.Axis.Scale(value),
			R: math.QuatIdentity(),
		}
	default:
		return math.PoseIdentity()
	}
}

// compileLink emits the visual and collision records for one link. The
// two loops are deliberately separate pipelines: fallback substitution
// exists only on the visual side, omission only on the collision side.
func (c *Compiler) compileLink(model *sdf.Model, link *sdf.Link, linkPose math.Pose, meshes meshSet) ([]Record, []Diagnostic) {
	var records []Record
	var diags []Diagnostic

	static := model.Static || link.Inertial == nil || link.Inertial.Mass <= 0

	for i := range link.Visuals {
		visual := &link.Visuals[i]
		if visual.Geometry.Kind == sdf.GeometryNone {
			continue
		}

		record := Record{
			Kind:     RecordVisual,
			Model:    model.Name,
			Link:     link.Name,
			Name:     visual.Name,
			Pose:     math.Compose(linkPose, visual.Pose),
			Geometry: visual.Geometry,
			Material: visual.Material,
		}

		if needsMesh(visual.Geometry.Kind) {
			mesh, err := meshes.get(visual.Geometry)
			if err != nil {
				c.log.Warnw("visual mesh degraded to fallback",
					"model", model.Name, "link", link.Name, "ref", visual.Geometry.URI, "error", err)
				diags = append(diags, Diagnostic{
					Model: model.Name, Link: link.Name, Ref: visual.Geometry.URI,
					Err: fmt.Errorf("visual degraded to fallback: %w", err),
				})
				record.Geometry = sdf.Geometry{Kind: sdf.GeometryBox, Size: c.opts.FallbackExtents}
				record.Fallback = true
			} else {
				record.Mesh = mesh
			}
		}
		records = append(records, record)
	}

	for i := range link.Collisions {
		collision := &link.Collisions[i]
		if collision.Geometry.Kind == sdf.GeometryNone {
			continue
		}

		record := Record{
			Kind:     RecordCollision,
			Model:    model.Name,
			Link:     link.Name,
			Name:     collision.Name,
			Pose:     math.Compose(linkPose, collision.Pose),
			Geometry: collision.Geometry,
			Inertial: link.Inertial,
			Static:   static,
		}

		if needsMesh(collision.Geometry.Kind) {
			mesh, err := meshes.get(collision.Geometry)
			if err != nil {
				// never substitute a collision shape: a wrong fallback
				// is an invisible wall
				c.log.Warnw("collision mesh omitted",
					"model", model.Name, "link", link.Name, "ref", collision.Geometry.URI, "error", err)
				diags = append(diags, Diagnostic{
					Model: model.Name, Link: link.Name, Ref: collision.Geometry.URI,
					Err: fmt.Errorf("collision omitted: %w", err),
				})
				continue
			}
			record.Mesh = mesh
		}
		records = append(records, record)
	}

	return records, diags
}

func needsMesh(kind sdf.GeometryKind) bool {
	return kind == sdf.GeometryMesh || kind == sdf.GeometryHeightmap
}

// loadMesh resolves, reads, decodes and scales one mesh reference. Used
// by the prefetch workers.
func (c *Compiler) loadMesh(geom sdf.Geometry) (*formats.Mesh, error) {
	if c.opts.Resolver == nil {
		return nil, fmt.Errorf("%w: no resolver configured", resolver.ErrUnresolved)
	}

	path, err := c.opts.Resolver.Resolve(geom.URI)
	if err != nil {
		return nil, err
	}

	data, err := c.opts.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var mesh *formats.Mesh
	if geom.Kind == sdf.GeometryHeightmap {
		mesh, err = BuildHeightmapMesh(data, geom.Size, geom.Origin)
	} else {
		mesh, err = formats.DecodeMesh(data, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}
