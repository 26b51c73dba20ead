// Package scene compiles parsed description documents into
// instantiation records: the per-geometry units handed to the external
// rendering and physics collaborators. Visual and collision records for
// the same link are built by two independent pipelines that share only
// the link pose.
package scene

import (
	"fmt"

	"github.com/robolab/roboscene/internal/sdf"
	"github.com/robolab/roboscene/pkg/formats"
	"github.com/robolab/roboscene/pkg/math"
)

// RecordKind tags an instantiation record as renderable or collidable.
type RecordKind int

const (
	RecordVisual RecordKind = iota
	RecordCollision
)

// String returns a human-readable kind name.
func (k RecordKind) String() string {
	switch k {
	case RecordVisual:
		return "visual"
	case RecordCollision:
		return "collision"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Record is one compiled geometry instance: resolved shape, absolute
// pose, and the owning model/link for back-reference. A decoded Mesh is
// attached for mesh and heightmap geometry; primitives carry only
// their shape parameters.
type Record struct {
	Kind RecordKind

	Model string
	Link  string
	Name  string // visual/collision element name

	Pose     math.Pose // absolute, world frame
	Geometry sdf.Geometry
	Mesh     *formats.Mesh

	// visual records only
	Material sdf.Material
	// true when an unresolvable visual mesh was replaced by the
	// configured fallback cuboid
	Fallback bool

	// collision records only
	Inertial *sdf.LinkInertial
	Static   bool
}

// Diagnostic records a degradation the compiler absorbed: a fallback
// substitution, an omitted collision, or a model skipped for structural
// reasons.
type Diagnostic struct {
	Model string
	Link  string
	Ref   string
	Err   error
}

func (d Diagnostic) String() string {
	if d.Ref != "" {
		return fmt.Sprintf("model %q link %q ref %q: %v", d.Model, d.Link, d.Ref, d.Err)
	}
	return fmt.Sprintf("model %q link %q: %v", d.Model, d.Link, d.Err)
}

// Result is the output of one compile: the record set plus the world
// settings the collaborators need and the diagnostics the caller should
// surface.
type Result struct {
	Records     []Record
	Diagnostics []Diagnostic

	Lights  []sdf.Light
	Physics *sdf.Physics
	Scene   *sdf.SceneSettings
}
