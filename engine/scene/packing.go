package scene

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// PackedMesh is the GPU-ready byte form of one StaticMesh.
type PackedMesh struct {
	Name string
	// Vertices holds VertexCount VertexPod records, or one zero record for an empty mesh so the
	// buffer can still be bound.
	Vertices []byte
	// Indices holds IndexCount little-endian uint32 values, or a single zero for an empty mesh.
	Indices  []byte
	Material []byte

	VertexCount int
	IndexCount  int
	Bounds      Bounds
}

// TriangleCount returns IndexCount / 3.
func (p *PackedMesh) TriangleCount() int {
	return p.IndexCount / 3
}

// PackMesh converts a mesh and its material into GPU byte layouts. Indices that do not name a
// vertex and trailing partial triangles are errors.
//
// Parameters:
//   - mesh: the mesh to pack
//   - material: the material to pack with it
//
// Returns:
//   - PackedMesh: the packed mesh
//   - error: an error if the mesh is malformed
func PackMesh(mesh StaticMesh, material Material) (PackedMesh, error) {
	if len(mesh.Indices)%3 != 0 {
		return PackedMesh{}, fmt.Errorf("mesh %q: index count %d is not a multiple of 3", mesh.Name, len(mesh.Indices))
	}
	if len(mesh.Normals) != 0 && len(mesh.Normals) != len(mesh.Positions) {
		return PackedMesh{}, fmt.Errorf("mesh %q: %d normals for %d positions", mesh.Name, len(mesh.Normals), len(mesh.Positions))
	}
	if len(mesh.TexCoords) != 0 && len(mesh.TexCoords) != len(mesh.Positions) {
		return PackedMesh{}, fmt.Errorf("mesh %q: %d texture coordinates for %d positions", mesh.Name, len(mesh.TexCoords), len(mesh.Positions))
	}

	var pod VertexPod
	stride := pod.Size()
	out := PackedMesh{
		Name:        mesh.Name,
		VertexCount: len(mesh.Positions),
		IndexCount:  len(mesh.Indices),
		Bounds:      EmptyBounds(),
		Vertices:    make([]byte, max(len(mesh.Positions), 1)*stride),
		Indices:     make([]byte, max(len(mesh.Indices), 1)*4),
	}

	for i, p := range mesh.Positions {
		pod = VertexPod{Position: p}
		if len(mesh.Normals) > 0 {
			pod.Normal = mesh.Normals[i]
		}
		if len(mesh.TexCoords) > 0 {
			pod.TexCoord = mesh.TexCoords[i]
		}
		pod.MarshalTo(out.Vertices[i*stride:])
		out.Bounds = out.Bounds.Extend(p)
	}

	for i, idx := range mesh.Indices {
		if int(idx) >= len(mesh.Positions) {
			return PackedMesh{}, fmt.Errorf("mesh %q: index %d at position %d out of range for %d vertices", mesh.Name, idx, i, len(mesh.Positions))
		}
		binary.LittleEndian.PutUint32(out.Indices[i*4:], idx)
	}

	mp := NewMaterialPod(material)
	out.Material = mp.Marshal()
	return out, nil
}

// PackMeshes packs every mesh on a worker pool. Each result lands in the slot of its mesh, so
// the output order matches the input order. Meshes whose MaterialID is NoMaterial or out of
// range get DefaultMaterial.
//
// Parameters:
//   - meshes: the meshes to pack
//   - materials: the materials MaterialID indexes into
//   - workers: the number of pool workers, at least 1
//
// Returns:
//   - []PackedMesh: the packed meshes in input order
//   - error: the error of the first failing mesh in input order
func PackMeshes(meshes []StaticMesh, materials []Material, workers int) ([]PackedMesh, error) {
	packed := make([]PackedMesh, len(meshes))
	errs := make([]error, len(meshes))
	if len(meshes) == 0 {
		return packed, nil
	}

	pool := worker.NewDynamicWorkerPool(max(workers, 1), 256, 1*time.Second)
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := range meshes {
		wg.Add(1)
		id := i
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				packed[id], errs[id] = PackMesh(meshes[id], materialFor(meshes[id], materials))
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return packed, nil
}

func materialFor(mesh StaticMesh, materials []Material) Material {
	if mesh.MaterialID < 0 || mesh.MaterialID >= len(materials) {
		return DefaultMaterial()
	}
	return materials[mesh.MaterialID]
}
