package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/robolab/roboscene/pkg/math"
)

// grayPNG encodes a w x h grayscale raster where pixel (x,y) has the
// intensity returned by level.
func grayPNG(t *testing.T, w, h int, level func(x, y int) uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: level(x, y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBuildHeightmapMesh(t *testing.T) {
	// left half flat, right half raised
	data := grayPNG(t, 4, 4, func(x, y int) uint8 {
		if x >= 2 {
			return 255
		}
		return 0
	})

	mesh, err := BuildHeightmapMesh(data, math.Vec3{X: 10, Y: 10, Z: 2}, math.Vec3{})
	if err != nil {
		t.Fatalf("BuildHeightmapMesh: %v", err)
	}
	if len(mesh.Positions) != 16 {
		t.Fatalf("got %d vertices, want 16", len(mesh.Positions))
	}
	if mesh.TriangleCount() != 18 {
		t.Errorf("got %d triangles, want 18", mesh.TriangleCount())
	}
	if err := mesh.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var minZ, maxZ float32 = mesh.Positions[0].Z, mesh.Positions[0].Z
	for _, p := range mesh.Positions {
		if p.Z < minZ {
			minZ = p.Z
		}
		if p.Z > maxZ {
			maxZ = p.Z
		}
		if p.X < -5.01 || p.X > 5.01 || p.Y < -5.01 || p.Y > 5.01 {
			t.Fatalf("vertex outside footprint: %v", p)
		}
	}
	if absf(minZ) > 1e-4 {
		t.Errorf("min height = %v, want 0", minZ)
	}
	if absf(maxZ-2) > 1e-2 {
		t.Errorf("max height = %v, want 2", maxZ)
	}
}

func TestBuildHeightmapMeshOrigin(t *testing.T) {
	data := grayPNG(t, 2, 2, func(x, y int) uint8 { return 0 })

	mesh, err := BuildHeightmapMesh(data, math.Vec3{X: 2, Y: 2, Z: 1}, math.Vec3{X: 100, Z: 5})
	if err != nil {
		t.Fatalf("BuildHeightmapMesh: %v", err)
	}
	for _, p := range mesh.Positions {
		if p.X < 99 || p.X > 101 {
			t.Errorf("vertex X = %v, want near 100", p.X)
		}
		if absf(p.Z-5) > 1e-4 {
			t.Errorf("vertex Z = %v, want 5", p.Z)
		}
	}
}

func TestBuildHeightmapMeshBadInput(t *testing.T) {
	if _, err := BuildHeightmapMesh([]byte("not a png"), math.One, math.Vec3{}); err == nil {
		t.Error("garbage input accepted")
	}

	tiny := grayPNG(t, 1, 1, func(x, y int) uint8 { return 0 })
	if _, err := BuildHeightmapMesh(tiny, math.One, math.Vec3{}); err == nil {
		t.Error("1x1 raster accepted")
	}
}
