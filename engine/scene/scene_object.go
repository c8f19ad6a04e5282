package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// SceneObject is one mesh uploaded to the GPU. It is created once and never modified.
type SceneObject struct {
	Name string

	// VertexBuffer holds VertexPod records. It is readable both as a vertex and a storage buffer.
	VertexBuffer *wgpu.Buffer
	// IndexBuffer holds uint32 triangle indices. It is readable both as an index and a storage buffer.
	IndexBuffer *wgpu.Buffer
	// MaterialBuffer holds one MaterialPod.
	MaterialBuffer *wgpu.Buffer

	VertexCount int
	IndexCount  int
	Bounds      Bounds

	// Packed is the CPU copy the buffers were created from.
	Packed PackedMesh
}

// TriangleCount returns IndexCount / 3.
func (o *SceneObject) TriangleCount() int {
	return o.IndexCount / 3
}

// Release frees the GPU buffers.
func (o *SceneObject) Release() {
	for _, buf := range []*wgpu.Buffer{o.VertexBuffer, o.IndexBuffer, o.MaterialBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	o.VertexBuffer = nil
	o.IndexBuffer = nil
	o.MaterialBuffer = nil
}

// NewSceneObject uploads a packed mesh.
//
// Parameters:
//   - dc: the device context to create the buffers on
//   - packed: the packed mesh
//
// Returns:
//   - SceneObject: the uploaded object
//   - error: an error if a buffer cannot be created
func NewSceneObject(dc renderer.DeviceContext, packed PackedMesh) (SceneObject, error) {
	obj := SceneObject{
		Name:        packed.Name,
		VertexCount: packed.VertexCount,
		IndexCount:  packed.IndexCount,
		Bounds:      packed.Bounds,
		Packed:      packed,
	}

	var err error
	obj.VertexBuffer, err = dc.CreateBufferInit(packed.Name+" vertices", wgpu.BufferUsageVertex|wgpu.BufferUsageStorage, packed.Vertices)
	if err != nil {
		return SceneObject{}, err
	}
	obj.IndexBuffer, err = dc.CreateBufferInit(packed.Name+" indices", wgpu.BufferUsageIndex|wgpu.BufferUsageStorage, packed.Indices)
	if err != nil {
		obj.Release()
		return SceneObject{}, err
	}
	obj.MaterialBuffer, err = dc.CreateBufferInit(packed.Name+" material", wgpu.BufferUsageUniform, packed.Material)
	if err != nil {
		obj.Release()
		return SceneObject{}, err
	}
	return obj, nil
}

// LoadSceneObjects loads an OBJ file, packs its meshes in parallel and uploads them in mesh order.
//
// Parameters:
//   - dc: the device context to create the buffers on
//   - path: the OBJ file path
//   - options: functional options to configure loading
//
// Returns:
//   - []SceneObject: one object per mesh
//   - error: an error if loading, packing or uploading fails
func LoadSceneObjects(dc renderer.DeviceContext, path string, options ...LoaderOption) ([]SceneObject, error) {
	cfg := loaderConfig{workers: 4}
	for _, opt := range options {
		opt(&cfg)
	}

	meshes, materials, err := LoadStaticMeshes(path)
	if err != nil {
		return nil, err
	}

	packed, err := PackMeshes(meshes, materials, cfg.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", path, err)
	}

	objects := make([]SceneObject, 0, len(packed))
	for _, p := range packed {
		obj, err := NewSceneObject(dc, p)
		if err != nil {
			for i := range objects {
				objects[i].Release()
			}
			return nil, err
		}
		objects = append(objects, obj)
	}

	triangles := 0
	for i := range objects {
		triangles += objects[i].TriangleCount()
	}
	common.Logger().Info("scene loaded", "path", path, "objects", len(objects), "materials", len(materials), "triangles", triangles)
	return objects, nil
}

// SceneBounds returns the union of the bounds of every object, or EmptyBounds for none.
func SceneBounds(objects []SceneObject) Bounds {
	b := EmptyBounds()
	for i := range objects {
		if objects[i].VertexCount == 0 {
			continue
		}
		b = b.Union(objects[i].Bounds)
	}
	return b
}
