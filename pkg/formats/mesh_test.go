package formats

import (
	"errors"
	"testing"

	"github.com/robolab/roboscene/pkg/math"
)

func TestMeshValidate(t *testing.T) {
	mesh := &Mesh{
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}},
		Indices:   []uint32{0, 1, 2},
	}
	if err := mesh.Validate(); err != nil {
		t.Errorf("valid mesh rejected: %v", err)
	}

	mesh.Indices = []uint32{0, 1, 5}
	if err := mesh.Validate(); !errors.Is(err, ErrInvalidMeshIndex) {
		t.Errorf("out-of-range index: got %v, want ErrInvalidMeshIndex", err)
	}

	mesh.Indices = []uint32{0, 1}
	if err := mesh.Validate(); !errors.Is(err, ErrInvalidMeshIndex) {
		t.Errorf("partial triangle: got %v, want ErrInvalidMeshIndex", err)
	}
}

func TestMeshValidateEmpty(t *testing.T) {
	mesh := &Mesh{}
	if err := mesh.Validate(); err != nil {
		t.Errorf("empty mesh rejected: %v", err)
	}
	if mesh.TriangleCount() != 0 {
		t.Errorf("empty mesh has %d triangles", mesh.TriangleCount())
	}
}

func TestMeshApplyScale(t *testing.T) {
	mesh := &Mesh{
		Positions: []math.Vec3{{X: 1, Y: 2, Z: 3}},
	}
	mesh.ApplyScale(math.Vec3{X: 2, Y: 0.5, Z: 1})
	if !vecNear(mesh.Positions[0], math.Vec3{X: 2, Y: 1, Z: 3}, 1e-5) {
		t.Errorf("scaled vertex = %v, want (2,1,3)", mesh.Positions[0])
	}
}

func TestMeshSynthesizeNormals(t *testing.T) {
	mesh := &Mesh{
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}},
		Indices:   []uint32{0, 1, 2},
	}
	mesh.SynthesizeNormals()
	if len(mesh.Normals) != 3 {
		t.Fatalf("got %d normals, want 3", len(mesh.Normals))
	}
	if !vecNear(mesh.Normals[0], math.Vec3{Z: 1}, 1e-5) {
		t.Errorf("normal = %v, want (0,0,1)", mesh.Normals[0])
	}
}

func TestDecodeMeshSniffsSTL(t *testing.T) {
	data := buildBinarySTL([][4]math.Vec3{
		{{Z: 1}, {}, {X: 1}, {Y: 1}},
	})

	mesh, err := DecodeMesh(data, ".stl")
	if err != nil {
		t.Fatalf("DecodeMesh: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("got %d triangles, want 1", mesh.TriangleCount())
	}

	// extension hint should not be required for binary STL
	if _, err := DecodeMesh(data, ""); err != nil {
		t.Errorf("DecodeMesh without hint: %v", err)
	}
}

func TestDecodeMeshSniffsGLB(t *testing.T) {
	// .stl hint lies; GLB magic wins
	mesh, err := DecodeMesh(triangleGLB(0), ".stl")
	if err != nil {
		t.Fatalf("DecodeMesh: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("got %d triangles, want 1", mesh.TriangleCount())
	}
}

func TestDecodeMeshUnsupported(t *testing.T) {
	_, err := DecodeMesh([]byte("short"), ".dae")
	if !errors.Is(err, ErrUnsupportedMeshFormat) {
		t.Fatalf("got %v, want ErrUnsupportedMeshFormat", err)
	}
}
