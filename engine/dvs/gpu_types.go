package dvs

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// AxisAuto in MeshParams.AxisHint lets the projection stage pick each triangle's dominant axis.
const AxisAuto uint32 = 0xFFFFFFFF

// ProjectedVertexSource is the WGSL definition of the ProjectedVertex struct (48 bytes).
//
//go:embed assets/projected_vertex.wgsl
var ProjectedVertexSource string

// MeshParamsSource is the WGSL definition of the MeshParams struct (32 bytes).
//
//go:embed assets/mesh_params.wgsl
var MeshParamsSource string

// VoxelViewUniformSource is the WGSL definition of the VoxelViewUniform struct (256 bytes).
//
//go:embed assets/voxel_view.wgsl
var VoxelViewUniformSource string

// GridUniformSource is the WGSL definition of the GridUniform struct (64 bytes).
//
//go:embed assets/grid.wgsl
var GridUniformSource string

// DebugViewUniformSource is the WGSL definition of the DebugViewUniform struct (80 bytes).
//
//go:embed assets/debug_view.wgsl
var DebugViewUniformSource string

// ProjectedVertex is one vertex written by the axis projection stage and read back as vertex
// input by the voxelization stage. Size: 48 bytes.
type ProjectedVertex struct {
	Position mgl32.Vec4 // offset  0: clip position in the dominant axis view
	World    mgl32.Vec4 // offset 16: xyz world position, w axis index
	Normal   mgl32.Vec4 // offset 32
}

// Size returns the size of the ProjectedVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (p *ProjectedVertex) Size() int {
	return int(unsafe.Sizeof(*p))
}

// MeshParams is the per-mesh parameter block of the axis projection stage. Size: 32 bytes.
type MeshParams struct {
	TriangleCount uint32    // offset  0
	VertexCount   uint32    // offset  4
	MeshIndex     uint32    // offset  8
	AxisHint      uint32    // offset 12: AxisAuto, or 0, 1, 2 to force x, y, z
	_             [4]uint32 // offset 16: padding to 32 bytes
}

// Size returns the size of the MeshParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (m *MeshParams) Size() int {
	return int(unsafe.Sizeof(*m))
}

// Marshal serializes the MeshParams struct for GPU upload. Padding bytes are zero.
//
// Returns:
//   - []byte: the serialized byte buffer
func (m *MeshParams) Marshal() []byte {
	buf := make([]byte, m.Size())
	binary.LittleEndian.PutUint32(buf[0:], m.TriangleCount)
	binary.LittleEndian.PutUint32(buf[4:], m.VertexCount)
	binary.LittleEndian.PutUint32(buf[8:], m.MeshIndex)
	binary.LittleEndian.PutUint32(buf[12:], m.AxisHint)
	return buf
}

// VoxelViewUniform holds the camera view-projection and the three axis-aligned orthographic
// projections used for voxelization. Size: 256 bytes.
type VoxelViewUniform struct {
	ViewProj     mgl32.Mat4    // offset   0
	AxisViewProj [3]mgl32.Mat4 // offset  64: x, y, z
}

// Size returns the size of the VoxelViewUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (256)
func (v *VoxelViewUniform) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the VoxelViewUniform struct for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (v *VoxelViewUniform) Marshal() []byte {
	buf := make([]byte, v.Size())
	putFloats(buf[0:], v.ViewProj[:]...)
	for i, m := range v.AxisViewProj {
		putFloats(buf[64+i*64:], m[:]...)
	}
	return buf
}

// GridUniform describes the voxel grid on the GPU. Size: 64 bytes.
type GridUniform struct {
	Min        mgl32.Vec4 // offset  0: xyz min corner, w voxel size
	Extent     mgl32.Vec4 // offset 16: xyz cube extent
	Resolution [4]uint32  // offset 32: x voxels per side
	_          [4]uint32  // offset 48: padding to 64 bytes
}

// Size returns the size of the GridUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GridUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GridUniform struct for GPU upload. Padding bytes are zero.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GridUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf[0:], g.Min[:]...)
	putFloats(buf[16:], g.Extent[:]...)
	for i, r := range g.Resolution {
		binary.LittleEndian.PutUint32(buf[32+i*4:], r)
	}
	return buf
}

// DebugViewUniform carries what the debug ray marcher needs from the camera. Size: 80 bytes.
type DebugViewUniform struct {
	InvViewProj mgl32.Mat4 // offset  0
	Eye         mgl32.Vec4 // offset 64: xyz camera position
}

// Size returns the size of the DebugViewUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (d *DebugViewUniform) Size() int {
	return int(unsafe.Sizeof(*d))
}

// Marshal serializes the DebugViewUniform struct for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (d *DebugViewUniform) Marshal() []byte {
	buf := make([]byte, d.Size())
	putFloats(buf[0:], d.InvViewProj[:]...)
	putFloats(buf[64:], d.Eye[:]...)
	return buf
}

func putFloats(buf []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
