// Package formats provides decoders for mesh file formats referenced by
// robot and world description documents.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/robolab/roboscene/pkg/math"
)

// Decoder errors shared across formats.
var (
	ErrUnsupportedMeshFormat = errors.New("unsupported mesh format")
	ErrInvalidMeshIndex      = errors.New("mesh index references missing vertex")
)

// Mesh is the canonical triangle mesh produced by every decoder:
// vertex positions, per-vertex normals and triangle index triples.
// A mesh with zero triangles is valid and renders nothing.
type Mesh struct {
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3
	Indices   []uint32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks that every index triple references a valid vertex and
// that the index buffer holds whole triangles.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices do not form whole triangles", ErrInvalidMeshIndex, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: index %d at position %d, have %d vertices", ErrInvalidMeshIndex, idx, i, len(m.Positions))
		}
	}
	return nil
}

// Clone returns a deep copy. Decoded meshes are handed to records as
// exclusively-owned values, so callers that scale or otherwise mutate
// a cached mesh must clone it first.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Name:      m.Name,
		Positions: append([]math.Vec3(nil), m.Positions...),
		Indices:   append([]uint32(nil), m.Indices...),
	}
	if m.Normals != nil {
		out.Normals = append([]math.Vec3(nil), m.Normals...)
	}
	return out
}

// ApplyScale scales all vertex positions component-wise. Normals are
// unaffected; non-uniform scale shearing of normals is accepted as an
// approximation at this layer.
func (m *Mesh) ApplyScale(scale math.Vec3) {
	if scale == math.One {
		return
	}
	for i := range m.Positions {
		m.Positions[i] = m.Positions[i].MulElem(scale)
	}
}

// SynthesizeNormals fills in flat normals from the cross product of each
// triangle's first two edges wherever the decoder produced none.
func (m *Mesh) SynthesizeNormals() {
	if len(m.Normals) == len(m.Positions) {
		return
	}
	m.Normals = make([]math.Vec3, len(m.Positions))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := m.Positions[m.Indices[i]]
		b := m.Positions[m.Indices[i+1]]
		c := m.Positions[m.Indices[i+2]]
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()
		m.Normals[m.Indices[i]] = n
		m.Normals[m.Indices[i+1]] = n
		m.Normals[m.Indices[i+2]] = n
	}
}

// DecodeMesh decodes raw mesh bytes into a canonical Mesh. The actual
// format is sniffed from the content; hint (usually the file extension,
// e.g. ".stl" or ".glb") is advisory and only consulted when sniffing
// is inconclusive.
func DecodeMesh(data []byte, hint string) (*Mesh, error) {
	switch {
	case bytes.HasPrefix(data, []byte("glTF")):
		return ParseGLB(data)
	case looksLikeSTL(data, hint):
		return ParseSTL(data)
	case strings.EqualFold(hint, ".gltf") || bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("{")):
		return ParseGLB(data)
	default:
		return nil, fmt.Errorf("%w: hint %q", ErrUnsupportedMeshFormat, hint)
	}
}

func looksLikeSTL(data []byte, hint string) bool {
	if strings.EqualFold(hint, ".stl") {
		return true
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("solid")) {
		return true
	}
	// binary STL has no magic; accept anything long enough to carry the
	// 80-byte header plus triangle count
	return len(data) >= 84
}
