package scene

import (
	"fmt"
	"sync"

	"github.com/robolab/roboscene/internal/sdf"
	"github.com/robolab/roboscene/pkg/formats"
)

// meshEntry is one prefetched decode result, success or failure.
type meshEntry struct {
	mesh *formats.Mesh
	err  error
}

// meshSet maps prefetch keys to decoded meshes. Entries hold the raw
// decode; get hands out scaled clones so records own their geometry
// exclusively.
type meshSet map[string]meshEntry

// meshKey identifies one decode unit. Heightmaps bake their size and
// origin into the mesh, so those parameters join the key.
func meshKey(geom sdf.Geometry) string {
	if geom.Kind == sdf.GeometryHeightmap {
		return fmt.Sprintf("heightmap:%s:%v:%v", geom.URI, geom.Size, geom.Origin)
	}
	return "mesh:" + geom.URI
}

// get returns an exclusively-owned mesh for the geometry, with mesh
// scale applied.
func (s meshSet) get(geom sdf.Geometry) (*formats.Mesh, error) {
	entry, ok := s[meshKey(geom)]
	if !ok {
		return nil, fmt.Errorf("mesh %q was not prefetched", geom.URI)
	}
	if entry.err != nil {
		return nil, entry.err
	}

	mesh := entry.mesh.Clone()
	if geom.Kind == sdf.GeometryMesh {
		mesh.ApplyScale(geom.Scale)
	}
	return mesh, nil
}

// collectMeshRefs gathers the distinct mesh-backed geometries of one
// model in document order.
func collectMeshRefs(model *sdf.Model) []sdf.Geometry {
	var geoms []sdf.Geometry
	seen := map[string]bool{}
	add := func(geom sdf.Geometry) {
		if !needsMesh(geom.Kind) {
			return
		}
		key := meshKey(geom)
		if !seen[key] {
			seen[key] = true
			geoms = append(geoms, geom)
		}
	}

	for i := range model.Links {
		link := &model.Links[i]
		for j := range link.Visuals {
			add(link.Visuals[j].Geometry)
		}
		for j := range link.Collisions {
			add(link.Collisions[j].Geometry)
		}
	}
	return geoms
}

// prefetchWorld prefetches across all models of a world at once so the
// pool sees the full decode workload.
func (c *Compiler) prefetchWorld(world *sdf.World) meshSet {
	var geoms []sdf.Geometry
	seen := map[string]bool{}
	for i := range world.Models {
		for _, geom := range collectMeshRefs(&world.Models[i]) {
			key := meshKey(geom)
			if !seen[key] {
				seen[key] = true
				geoms = append(geoms, geom)
			}
		}
	}
	return c.prefetch(geoms)
}

// prefetch resolves and decodes the given geometries on a bounded
// worker pool. Decoding independent meshes has no ordering dependency;
// all results are collected here, before the pose-dependent traversal
// starts.
func (c *Compiler) prefetch(geoms []sdf.Geometry) meshSet {
	set := make(meshSet, len(geoms))
	if len(geoms) == 0 {
		return set
	}

	workers := c.opts.DecodeWorkers
	if workers > len(geoms) {
		workers = len(geoms)
	}

	type job struct {
		key  string
		geom sdf.Geometry
	}
	type done struct {
		key   string
		entry meshEntry
	}

	jobs := make(chan job)
	results := make(chan done)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				mesh, err := c.loadMesh(j.geom)
				results <- done{key: j.key, entry: meshEntry{mesh: mesh, err: err}}
			}
		}()
	}

	go func() {
		for _, geom := range geoms {
			jobs <- job{key: meshKey(geom), geom: geom}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for r := range results {
		set[r.key] = r.entry
	}
	return set
}
