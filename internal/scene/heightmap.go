package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png" // heightmap rasters are grayscale PNGs

	"github.com/robolab/roboscene/pkg/formats"
	"github.com/robolab/roboscene/pkg/math"
)

// maxHeightmapSamples caps the vertex grid per side so a large raster
// does not explode into millions of triangles.
const maxHeightmapSamples = 129

// BuildHeightmapMesh rasterizes a grayscale heightmap image into a
// triangle grid. size spans the terrain in world units (x, y extent and
// z relief); origin offsets the grid center.
func BuildHeightmapMesh(data []byte, size, origin math.Vec3) (*formats.Mesh, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding heightmap image: %w", err)
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW < 2 || srcH < 2 {
		return nil, fmt.Errorf("heightmap image %dx%d too small", srcW, srcH)
	}

	gridW, gridH := srcW, srcH
	if gridW > maxHeightmapSamples {
		gridW = maxHeightmapSamples
	}
	if gridH > maxHeightmapSamples {
		gridH = maxHeightmapSamples
	}

	mesh := &formats.Mesh{
		Positions: make([]math.Vec3, 0, gridW*gridH),
		Indices:   make([]uint32, 0, (gridW-1)*(gridH-1)*6),
	}

	for gy := 0; gy < gridH; gy++ {
		for gx := 0; gx < gridW; gx++ {
			// nearest-sample back into the source raster
			sx := bounds.Min.X + gx*(srcW-1)/(gridW-1)
			sy := bounds.Min.Y + gy*(srcH-1)/(gridH-1)

			r, g, b, _ := img.At(sx, sy).RGBA()
			height := float32(r+g+b) / (3 * 65535)

			mesh.Positions = append(mesh.Positions, math.Vec3{
				X: origin.X + (float32(gx)/float32(gridW-1)-0.5)*size.X,
				Y: origin.Y + (0.5-float32(gy)/float32(gridH-1))*size.Y,
				Z: origin.Z + height*size.Z,
			})
		}
	}

	for gy := 0; gy < gridH-1; gy++ {
		for gx := 0; gx < gridW-1; gx++ {
			i := uint32(gy*gridW + gx)
			right := i + 1
			down := i + uint32(gridW)
			diag := down + 1
			mesh.Indices = append(mesh.Indices,
				i, down, right,
				right, down, diag,
			)
		}
	}

	mesh.SynthesizeNormals()
	return mesh, nil
}
