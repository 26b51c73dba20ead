// glTF/GLB decoder built on qmuntal/gltf. Robot links are commonly
// shipped as .glb scenes; the node hierarchy is flattened into one
// canonical triangle mesh with baked transforms.
package formats

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/robolab/roboscene/pkg/math"
)

// glTF format errors.
var (
	ErrMalformedGLTF      = errors.New("malformed glTF data")
	ErrExternalGLTFBuffer = errors.New("glTF external buffers not supported")
)

// ParseGLB parses a GLB or embedded-buffer glTF document from a byte
// slice and flattens all triangle primitives into a single mesh.
func ParseGLB(data []byte) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGLTF, err)
	}

	mesh := &Mesh{}

	if len(doc.Scenes) > 0 {
		sceneIdx := 0
		if doc.Scene != nil {
			sceneIdx = int(*doc.Scene)
		}
		for _, nodeIdx := range doc.Scenes[sceneIdx].Nodes {
			if err := flattenNode(doc, int(nodeIdx), math.Identity(), mesh); err != nil {
				return nil, err
			}
		}
	} else {
		// no scene list: walk every node that is not some other
		// node's child
		isChild := make(map[int]bool)
		for _, n := range doc.Nodes {
			for _, child := range n.Children {
				isChild[int(child)] = true
			}
		}
		for i := range doc.Nodes {
			if isChild[i] {
				continue
			}
			if err := flattenNode(doc, i, math.Identity(), mesh); err != nil {
				return nil, err
			}
		}
	}

	mesh.SynthesizeNormals()
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGLTF, err)
	}
	return mesh, nil
}

// flattenNode accumulates node transforms depth-first and appends every
// triangle primitive it finds.
func flattenNode(doc *gltf.Document, nodeIdx int, parent math.Mat4, mesh *Mesh) error {
	node := doc.Nodes[nodeIdx]

	local := math.Identity()
	if node.Matrix != [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1} {
		for i, v := range node.Matrix {
			local[i] = float32(v)
		}
	} else {
		t := math.Vec3{
			X: float32(node.Translation[0]),
			Y: float32(node.Translation[1]),
			Z: float32(node.Translation[2]),
		}
		r := math.Quat{
			X: float32(node.Rotation[0]),
			Y: float32(node.Rotation[1]),
			Z: float32(node.Rotation[2]),
			W: float32(node.Rotation[3]),
		}
		local = math.Translate(t).Mul(math.FromQuat(r.Normalize()))
		if node.Scale != [3]float64{0, 0, 0} && node.Scale != [3]float64{1, 1, 1} {
			s := math.Identity()
			s[0] = float32(node.Scale[0])
			s[5] = float32(node.Scale[1])
			s[10] = float32(node.Scale[2])
			local = local.Mul(s)
		}
	}

	world := parent.Mul(local)

	if node.Mesh != nil {
		for _, prim := range doc.Meshes[int(*node.Mesh)].Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				continue
			}
			if err := appendPrimitive(doc, prim, world, mesh); err != nil {
				return err
			}
		}
	}

	for _, childIdx := range node.Children {
		if err := flattenNode(doc, int(childIdx), world, mesh); err != nil {
			return err
		}
	}
	return nil
}

func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, transform math.Mat4, mesh *Mesh) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}

	positions, err := readVec3Accessor(doc, int(posIdx))
	if err != nil {
		return fmt.Errorf("%w: positions: %v", ErrMalformedGLTF, err)
	}

	var normals []math.Vec3
	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err = readVec3Accessor(doc, int(normIdx))
		if err != nil {
			return fmt.Errorf("%w: normals: %v", ErrMalformedGLTF, err)
		}
	}

	base := uint32(len(mesh.Positions))
	for i := range positions {
		mesh.Positions = append(mesh.Positions, transform.TransformPoint(positions[i]))
		if i < len(normals) {
			// rotation-only part of the transform for directions
			n := normals[i]
			rotated := math.Vec3{
				X: transform[0]*n.X + transform[4]*n.Y + transform[8]*n.Z,
				Y: transform[1]*n.X + transform[5]*n.Y + transform[9]*n.Z,
				Z: transform[2]*n.X + transform[6]*n.Y + transform[10]*n.Z,
			}
			mesh.Normals = append(mesh.Normals, rotated.Normalize())
		}
	}

	if prim.Indices != nil {
		indices, err := readIndexAccessor(doc, int(*prim.Indices))
		if err != nil {
			return fmt.Errorf("%w: indices: %v", ErrMalformedGLTF, err)
		}
		for _, idx := range indices {
			mesh.Indices = append(mesh.Indices, base+idx)
		}
	} else {
		for i := 0; i+2 < len(positions); i += 3 {
			mesh.Indices = append(mesh.Indices, base+uint32(i), base+uint32(i+1), base+uint32(i+2))
		}
	}
	return nil
}

func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", accessor.Type, accessor.ComponentType)
	}

	bufData, start, stride, err := accessorLayout(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	count := int(accessor.Count)
	if need := start + (count-1)*stride + 12; count > 0 && need > len(bufData) {
		return nil, fmt.Errorf("accessor overruns buffer: need %d bytes, have %d", need, len(bufData))
	}

	result := make([]math.Vec3, count)
	for i := range result {
		result[i] = readVec3LE(bufData[start+i*stride:])
	}
	return result, nil
}

func readIndexAccessor(doc *gltf.Document, accessorIdx int) ([]uint32, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var compSize int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		compSize = 1
	case gltf.ComponentUshort:
		compSize = 2
	case gltf.ComponentUint:
		compSize = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %v", accessor.ComponentType)
	}

	bufData, start, stride, err := accessorLayout(doc, accessor, compSize)
	if err != nil {
		return nil, err
	}

	count := int(accessor.Count)
	if need := start + (count-1)*stride + compSize; count > 0 && need > len(bufData) {
		return nil, fmt.Errorf("accessor overruns buffer: need %d bytes, have %d", need, len(bufData))
	}

	result := make([]uint32, count)
	for i := range result {
		offset := start + i*stride
		switch compSize {
		case 1:
			result[i] = uint32(bufData[offset])
		case 2:
			result[i] = uint32(bufData[offset]) | uint32(bufData[offset+1])<<8
		case 4:
			result[i] = uint32(bufData[offset]) |
				uint32(bufData[offset+1])<<8 |
				uint32(bufData[offset+2])<<16 |
				uint32(bufData[offset+3])<<24
		}
	}
	return result, nil
}

// accessorLayout resolves an accessor to its backing bytes, start
// offset and element stride. Only embedded (GLB) buffers are handled.
func accessorLayout(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor has no buffer view")
	}

	view := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[view.Buffer]
	if buffer.URI != "" {
		return nil, 0, 0, ErrExternalGLTFBuffer
	}
	if buffer.Data == nil {
		return nil, 0, 0, fmt.Errorf("buffer has no data")
	}

	stride := int(view.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	return buffer.Data, int(view.ByteOffset) + int(accessor.ByteOffset), stride, nil
}
