package pointcloud

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// pointStride is the byte size of one packed point: three little-endian float32 values.
const pointStride = 12

// PointCloud is the set of world-space points read from an E57 file.
type PointCloud struct {
	Points []mgl32.Vec3
	Bounds scene.Bounds
}

// NewPointCloud reads an E57 file. A read failure is logged and yields an empty cloud, so a
// renderer can still start.
//
// Parameters:
//   - path: the E57 file
//   - workers: the number of decode workers
//
// Returns:
//   - *PointCloud: the loaded cloud, possibly empty
func NewPointCloud(path string, workers int) *PointCloud {
	points, err := ReadE57(path, workers)
	if err != nil {
		common.Logger().Error("failed to load E57 file", "path", path, "error", err)
		points = nil
	}
	pc := FromPoints(points)
	common.Logger().Info("point cloud loaded", "path", path, "points", len(pc.Points))
	return pc
}

// FromPoints wraps a point slice and computes its bounds.
//
// Parameters:
//   - points: the world-space points
//
// Returns:
//   - *PointCloud: the cloud
func FromPoints(points []mgl32.Vec3) *PointCloud {
	b := scene.EmptyBounds()
	for _, p := range points {
		b = b.Extend(p)
	}
	return &PointCloud{Points: points, Bounds: b}
}

// Len returns the number of points.
func (pc *PointCloud) Len() int {
	return len(pc.Points)
}

// Pack returns the vertex buffer contents. An empty cloud packs one zero point so the buffer
// can still be created.
func (pc *PointCloud) Pack() []byte {
	buf := make([]byte, max(len(pc.Points), 1)*pointStride)
	for i, p := range pc.Points {
		for c := range 3 {
			binary.LittleEndian.PutUint32(buf[i*pointStride+c*4:], math.Float32bits(p[c]))
		}
	}
	return buf
}

// PointVertexLayout is the vertex buffer layout of packed points.
func PointVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: pointStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}
}
