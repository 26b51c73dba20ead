// scenetool is a CLI utility for inspecting robot and world description
// documents and the meshes they reference.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robolab/roboscene/internal/camera"
	"github.com/robolab/roboscene/internal/config"
	"github.com/robolab/roboscene/internal/logger"
	"github.com/robolab/roboscene/internal/resolver"
	"github.com/robolab/roboscene/internal/scene"
	"github.com/robolab/roboscene/internal/sdf"
	"github.com/robolab/roboscene/pkg/formats"
	"github.com/robolab/roboscene/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "compile":
		cmdCompile(args)
	case "mesh":
		cmdMesh(args)
	case "fov":
		cmdFOV(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - robot/world description inspector

Usage:
  scenetool <command> [options]

Commands:
  info <file>              Summarize a description document
  compile <file>           Compile a document and list the records
  mesh <file.stl|.glb>     Decode a mesh file and print statistics
  fov <fy> <height>        Vertical field of view for intrinsics

Examples:
  scenetool info world.sdf
  scenetool compile robot.urdf
  scenetool mesh meshes/base.stl
  scenetool fov 525 480`)
}

// loadDocument parses either dialect, sniffing by root element.
func loadDocument(path string) (*sdf.World, []sdf.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	if strings.Contains(string(data), "<robot") {
		model, diags, err := sdf.ParseRobot(data)
		if err != nil {
			return nil, diags, err
		}
		return &sdf.World{Name: model.Name, Models: []sdf.Model{*model}}, diags, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	r := newResolver(cfg)
	opener := func(uri string) ([]byte, error) {
		resolved, err := r.Resolve(uri)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(resolved)
	}
	return sdf.ParseWorld(data, opener)
}

func newResolver(cfg *config.Config) *resolver.Resolver {
	r := resolver.New(cfg.Assets.SearchRoot)
	for scheme, root := range cfg.Assets.SchemeRoots {
		r.SchemeRoots[scheme] = root
	}
	return r
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool info <file>")
		os.Exit(1)
	}

	world, diags, err := loadDocument(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Document: %s\n", args[0])
	fmt.Printf("World:    %s\n", world.Name)
	fmt.Printf("Models:   %d\n", len(world.Models))
	fmt.Printf("Lights:   %d\n", len(world.Lights))
	if world.Physics != nil {
		fmt.Printf("Gravity:  (%g, %g, %g)\n",
			world.Physics.Gravity.X, world.Physics.Gravity.Y, world.Physics.Gravity.Z)
	}
	fmt.Println()

	for i := range world.Models {
		m := &world.Models[i]
		visuals, collisions := 0, 0
		for j := range m.Links {
			visuals += len(m.Links[j].Visuals)
			collisions += len(m.Links[j].Collisions)
		}
		fmt.Printf("  %-20s links=%-3d joints=%-3d visuals=%-3d collisions=%-3d static=%v\n",
			m.Name, len(m.Links), len(m.Joints), visuals, collisions, m.Static)
	}

	for _, d := range diags {
		fmt.Printf("  warning: %s\n", d)
	}
}

func cmdCompile(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool compile <file>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	world, parseDiags, err := loadDocument(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	compiler := scene.NewCompiler(scene.Options{
		Resolver: newResolver(cfg),
		FallbackExtents: math.Vec3{
			X: cfg.Compile.FallbackExtents[0],
			Y: cfg.Compile.FallbackExtents[1],
			Z: cfg.Compile.FallbackExtents[2],
		},
		DecodeWorkers: cfg.Compile.DecodeWorkers,
		Logger:        logger.Sugar,
	})
	result := compiler.CompileWorld(world)

	fmt.Printf("Records: %d\n", len(result.Records))
	for _, r := range result.Records {
		tri := ""
		if r.Mesh != nil {
			tri = fmt.Sprintf(" triangles=%d", r.Mesh.TriangleCount())
		}
		fallback := ""
		if r.Fallback {
			fallback = " FALLBACK"
		}
		fmt.Printf("  %-9s %s/%s/%s %s pos=(%.3f, %.3f, %.3f)%s%s\n",
			r.Kind, r.Model, r.Link, r.Name, r.Geometry.Kind,
			r.Pose.T.X, r.Pose.T.Y, r.Pose.T.Z, tri, fallback)
	}

	for _, d := range parseDiags {
		fmt.Printf("  parse warning: %s\n", d)
	}
	for _, d := range result.Diagnostics {
		fmt.Printf("  compile warning: %s\n", d)
	}
}

func cmdMesh(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool mesh <file>")
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mesh, err := formats.DecodeMesh(data, filepath.Ext(args[0]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mesh:      %s\n", args[0])
	if mesh.Name != "" {
		fmt.Printf("Name:      %s\n", mesh.Name)
	}
	fmt.Printf("Vertices:  %d\n", len(mesh.Positions))
	fmt.Printf("Triangles: %d\n", mesh.TriangleCount())
}

func cmdFOV(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool fov <fy> <height>")
		os.Exit(1)
	}

	fy, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad fy: %v\n", err)
		os.Exit(1)
	}
	height, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad height: %v\n", err)
		os.Exit(1)
	}

	in := camera.Default()
	in.Fy = float32(fy)
	in.Fx = float32(fy)
	in.Height = height
	in.Cy = float32(height) / 2

	fov, err := in.VerticalFOV()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Vertical FOV: %.4f rad (%.2f deg)\n", fov, float64(fov)*180/3.14159265358979)
	if in.OffCenter() {
		fmt.Println("Note: principal point is off-center; symmetric projection is approximate")
	}
}
