// STL (stereolithography) triangle-soup parser, binary and ASCII.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"
	"os"
	"strconv"
	"strings"

	"github.com/robolab/roboscene/pkg/math"
)

// STL format errors.
var (
	ErrTruncatedSTL = errors.New("truncated STL data")
	ErrMalformedSTL = errors.New("malformed STL data")
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // normal + 3 vertices (12 floats) + attribute count
)

// ParseSTL parses STL data from a byte slice. Binary and ASCII
// encodings are distinguished by content, not extension: ASCII files
// start with "solid", but so can binary headers, so the declared
// triangle count is checked against the file size to disambiguate.
// A zero-triangle file is a valid empty mesh.
func ParseSTL(data []byte) (*Mesh, error) {
	if isBinarySTL(data) {
		return parseBinarySTL(data)
	}
	return parseASCIISTL(data)
}

// ParseSTLFile parses an STL file from disk.
func ParseSTLFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return ParseSTL(data)
}

// isBinarySTL reports whether the data is binary STL.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("solid")) {
		// "solid" may appear inside a binary header; trust the size check
		triCount := binary.LittleEndian.Uint32(data[stlHeaderSize : stlHeaderSize+4])
		return uint64(len(data)) == stlHeaderSize+4+uint64(triCount)*stlTriangleSize
	}
	return true
}

func parseBinarySTL(data []byte) (*Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedSTL, len(data))
	}

	triCount := binary.LittleEndian.Uint32(data[stlHeaderSize : stlHeaderSize+4])
	expected := uint64(stlHeaderSize) + 4 + uint64(triCount)*stlTriangleSize
	if uint64(len(data)) < expected {
		return nil, fmt.Errorf("%w: header declares %d triangles (%d bytes), got %d",
			ErrTruncatedSTL, triCount, expected, len(data))
	}

	mesh := &Mesh{
		Positions: make([]math.Vec3, 0, triCount*3),
		Normals:   make([]math.Vec3, 0, triCount*3),
		Indices:   make([]uint32, 0, triCount*3),
	}

	offset := stlHeaderSize + 4
	for i := uint32(0); i < triCount; i++ {
		normal := readVec3LE(data[offset:])
		offset += 12

		base := uint32(len(mesh.Positions))
		for v := 0; v < 3; v++ {
			mesh.Positions = append(mesh.Positions, readVec3LE(data[offset:]))
			offset += 12
		}

		if normal == (math.Vec3{}) {
			// source omitted the normal; flat normal from the edges
			a := mesh.Positions[base]
			b := mesh.Positions[base+1]
			c := mesh.Positions[base+2]
			normal = b.Sub(a).Cross(c.Sub(a)).Normalize()
		}
		mesh.Normals = append(mesh.Normals, normal, normal, normal)
		mesh.Indices = append(mesh.Indices, base, base+1, base+2)

		// attribute byte count, unused
		offset += 2
	}

	return mesh, nil
}

func readVec3LE(data []byte) math.Vec3 {
	return math.Vec3{
		X: gomath.Float32frombits(binary.LittleEndian.Uint32(data[0:])),
		Y: gomath.Float32frombits(binary.LittleEndian.Uint32(data[4:])),
		Z: gomath.Float32frombits(binary.LittleEndian.Uint32(data[8:])),
	}
}

func parseASCIISTL(data []byte) (*Mesh, error) {
	mesh := &Mesh{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		lineNum       int
		currentNormal math.Vec3
		faceVerts     []math.Vec3
		inFacet       bool
		inLoop        bool
		sawSolid      bool
	)

	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			sawSolid = true
			if len(fields) > 1 {
				mesh.Name = fields[1]
			}

		case "facet":
			if len(fields) >= 5 && strings.ToLower(fields[1]) == "normal" {
				n, err := parseFloats3(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: facet normal: %v", ErrMalformedSTL, lineNum, err)
				}
				currentNormal = n.Normalize()
			}
			inFacet = true
			faceVerts = faceVerts[:0]

		case "outer":
			inLoop = len(fields) >= 2 && strings.ToLower(fields[1]) == "loop"

		case "vertex":
			if !inFacet || !inLoop {
				return nil, fmt.Errorf("%w: line %d: vertex outside facet/loop", ErrMalformedSTL, lineNum)
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: vertex needs x y z", ErrMalformedSTL, lineNum)
			}
			v, err := parseFloats3(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: vertex: %v", ErrMalformedSTL, lineNum, err)
			}
			faceVerts = append(faceVerts, v)

		case "endloop":
			inLoop = false

		case "endfacet":
			if len(faceVerts) >= 3 {
				base := uint32(len(mesh.Positions))
				normal := currentNormal
				if normal == (math.Vec3{}) {
					normal = faceVerts[1].Sub(faceVerts[0]).Cross(faceVerts[2].Sub(faceVerts[0])).Normalize()
				}
				mesh.Positions = append(mesh.Positions, faceVerts[0], faceVerts[1], faceVerts[2])
				mesh.Normals = append(mesh.Normals, normal, normal, normal)
				mesh.Indices = append(mesh.Indices, base, base+1, base+2)
			}
			inFacet = false
			faceVerts = faceVerts[:0]

		case "endsolid":
			// done

		default:
			// unknown keywords are ignored
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSTL, err)
	}
	if !sawSolid {
		return nil, fmt.Errorf("%w: missing 'solid' keyword", ErrMalformedSTL)
	}

	return mesh, nil
}

func parseFloats3(fields []string) (math.Vec3, error) {
	var out [3]float32
	for i, f := range fields[:3] {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return math.Vec3{}, err
		}
		out[i] = float32(v)
	}
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}
