package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strconv"
	"testing"

	"github.com/robolab/roboscene/pkg/math"
)

// buildGLB assembles a GLB container from a JSON document and an
// embedded binary chunk, padding both chunks to 4-byte alignment.
func buildGLB(jsonDoc string, bin []byte) []byte {
	jsonChunk := []byte(jsonDoc)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	binChunk := append([]byte(nil), bin...)
	for len(binChunk)%4 != 0 {
		binChunk = append(binChunk, 0)
	}

	total := 12 + 8 + len(jsonChunk) + 8 + len(binChunk)

	buf := &bytes.Buffer{}
	buf.WriteString("glTF")
	binary.Write(buf, binary.LittleEndian, uint32(2))
	binary.Write(buf, binary.LittleEndian, uint32(total))
	binary.Write(buf, binary.LittleEndian, uint32(len(jsonChunk)))
	buf.WriteString("JSON")
	buf.Write(jsonChunk)
	binary.Write(buf, binary.LittleEndian, uint32(len(binChunk)))
	buf.WriteString("BIN\x00")
	buf.Write(binChunk)
	return buf.Bytes()
}

// triangleGLB builds a single-triangle GLB: three float32 vec3
// positions followed by three uint16 indices, node translated by tx.
func triangleGLB(tx float32) []byte {
	bin := &bytes.Buffer{}
	for _, v := range []math.Vec3{{}, {X: 1}, {Y: 1}} {
		binary.Write(bin, binary.LittleEndian, v.X)
		binary.Write(bin, binary.LittleEndian, v.Y)
		binary.Write(bin, binary.LittleEndian, v.Z)
	}
	for _, idx := range []uint16{0, 1, 2} {
		binary.Write(bin, binary.LittleEndian, idx)
	}
	binary.Write(bin, binary.LittleEndian, uint16(0)) // pad to 44

	doc := `{
		"asset":{"version":"2.0"},
		"scene":0,
		"scenes":[{"nodes":[0]}],
		"nodes":[{"mesh":0,"translation":[` + strconv.FormatFloat(float64(tx), 'g', -1, 32) + `,0,0]}],
		"meshes":[{"primitives":[{"attributes":{"POSITION":0},"indices":1,"mode":4}]}],
		"accessors":[
			{"bufferView":0,"componentType":5126,"count":3,"type":"VEC3","min":[0,0,0],"max":[1,1,0]},
			{"bufferView":1,"componentType":5123,"count":3,"type":"SCALAR"}
		],
		"bufferViews":[
			{"buffer":0,"byteOffset":0,"byteLength":36},
			{"buffer":0,"byteOffset":36,"byteLength":6}
		],
		"buffers":[{"byteLength":44}]
	}`
	return buildGLB(doc, bin.Bytes())
}

func TestParseGLBTriangle(t *testing.T) {
	mesh, err := ParseGLB(triangleGLB(0))
	if err != nil {
		t.Fatalf("ParseGLB: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Fatalf("got %d triangles, want 1", mesh.TriangleCount())
	}
	if len(mesh.Positions) != 3 {
		t.Fatalf("got %d positions, want 3", len(mesh.Positions))
	}
	if !vecNear(mesh.Positions[1], math.Vec3{X: 1}, 1e-5) {
		t.Errorf("vertex 1 = %v, want (1,0,0)", mesh.Positions[1])
	}
	if len(mesh.Normals) != len(mesh.Positions) {
		t.Errorf("got %d normals for %d positions", len(mesh.Normals), len(mesh.Positions))
	}
	if err := mesh.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseGLBNodeTransform(t *testing.T) {
	mesh, err := ParseGLB(triangleGLB(5))
	if err != nil {
		t.Fatalf("ParseGLB: %v", err)
	}
	// node translation bakes into the vertices
	if !vecNear(mesh.Positions[0], math.Vec3{X: 5}, 1e-5) {
		t.Errorf("vertex 0 = %v, want (5,0,0)", mesh.Positions[0])
	}
	if !vecNear(mesh.Positions[1], math.Vec3{X: 6}, 1e-5) {
		t.Errorf("vertex 1 = %v, want (6,0,0)", mesh.Positions[1])
	}
}

func TestParseGLBGarbage(t *testing.T) {
	_, err := ParseGLB([]byte("glTFnot really a gltf file"))
	if !errors.Is(err, ErrMalformedGLTF) {
		t.Fatalf("got %v, want ErrMalformedGLTF", err)
	}
}
