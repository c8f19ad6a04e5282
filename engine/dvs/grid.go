// Package dvs implements deferred voxel shading: meshes are voxelized into 3D textures every
// frame and the result is visualized by ray marching.
package dvs

import (
	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Grid is the cubic voxel volume. It is fixed when a VoxelizationPass is built.
type Grid struct {
	// Min is the world-space corner with the smallest coordinates.
	Min mgl32.Vec3
	// Extent is the edge length of the cube.
	Extent float32
	// Resolution is the number of voxels along each edge.
	Resolution uint32
}

// FitGrid returns the smallest cube centered on the bounds that contains them, grown on each
// side by padding times the largest extent. Empty bounds give a unit cube at the origin, and
// flat bounds get an extent of at least one voxel.
//
// Parameters:
//   - bounds: the scene bounds
//   - resolution: voxels per edge
//   - padding: the fraction of the largest extent added on each side
//
// Returns:
//   - Grid: the fitted grid
func FitGrid(bounds scene.Bounds, resolution uint32, padding float32) Grid {
	resolution = max(resolution, 1)
	if bounds.IsEmpty() {
		return Grid{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Extent: 1, Resolution: resolution}
	}

	size := bounds.Size()
	extent := max(size.X(), size.Y(), size.Z())
	if extent <= 0 {
		extent = 1
	}
	extent *= 1 + 2*max(padding, 0)

	half := extent / 2
	return Grid{
		Min:        bounds.Center().Sub(mgl32.Vec3{half, half, half}),
		Extent:     extent,
		Resolution: resolution,
	}
}

// VoxelSize returns the edge length of one voxel.
func (g Grid) VoxelSize() float32 {
	return g.Extent / float32(g.Resolution)
}

// Center returns the center of the cube.
func (g Grid) Center() mgl32.Vec3 {
	half := g.Extent / 2
	return g.Min.Add(mgl32.Vec3{half, half, half})
}

// Uniform packs the grid for the GPU.
//
// Returns:
//   - GridUniform: the packed grid
func (g Grid) Uniform() GridUniform {
	return GridUniform{
		Min:        g.Min.Vec4(g.VoxelSize()),
		Extent:     mgl32.Vec4{g.Extent, g.Extent, g.Extent, 0},
		Resolution: [4]uint32{g.Resolution, g.Resolution, g.Resolution, 0},
	}
}

// VoxelCoord returns the voxel containing a world position and whether it lies inside the grid.
//
// Parameters:
//   - p: the world position
//
// Returns:
//   - [3]int: the voxel coordinate
//   - bool: true if the coordinate is inside [0, Resolution)
func (g Grid) VoxelCoord(p mgl32.Vec3) ([3]int, bool) {
	var c [3]int
	inside := true
	size := g.VoxelSize()
	for i := range 3 {
		c[i] = int(math32.Floor((p[i] - g.Min[i]) / size))
		inside = inside && c[i] >= 0 && c[i] < int(g.Resolution)
	}
	return c, inside
}

// AxisViewProjections returns one orthographic view-projection per world axis (x, y, z). Each
// looks at the grid along its axis and maps the cube onto clip space exactly: the two other
// axes span [-1, 1] and depth spans [0, 1].
//
// Returns:
//   - [3]mgl32.Mat4: the x, y and z view-projections
func (g Grid) AxisViewProjections() [3]mgl32.Mat4 {
	center := g.Center()
	half := g.Extent / 2
	axes := [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	ups := [3]mgl32.Vec3{{0, 1, 0}, {0, 0, -1}, {0, 1, 0}}

	var proj mgl32.Mat4
	common.OrthographicZO(proj[:], -half, half, -half, half, half, 3*half)

	var out [3]mgl32.Mat4
	for i := range axes {
		eye := center.Add(axes[i].Mul(2 * half))
		view := mgl32.LookAtV(eye, center, ups[i])
		out[i] = proj.Mul4(view)
	}
	return out
}

// DominantAxis returns the axis the projection stage rasterizes a triangle along: the largest
// absolute component of its face normal, with ties resolved x, then y, then z. A hint of 0, 1
// or 2 forces that axis.
//
// Parameters:
//   - a, b, c: the triangle corners
//   - hint: AxisAuto or a forced axis
//
// Returns:
//   - uint32: 0 for x, 1 for y, 2 for z
func DominantAxis(a, b, c mgl32.Vec3, hint uint32) uint32 {
	if hint != AxisAuto {
		return hint
	}
	n := b.Sub(a).Cross(c.Sub(a))
	x, y, z := math32.Abs(n.X()), math32.Abs(n.Y()), math32.Abs(n.Z())
	switch {
	case x >= y && x >= z:
		return 0
	case y >= z:
		return 1
	default:
		return 2
	}
}

// WorkgroupCount returns how many workgroups of the given size cover n invocations, and at
// least one.
//
// Parameters:
//   - n: the number of invocations
//   - size: the workgroup size
//
// Returns:
//   - uint32: max(1, ceil(n / size))
func WorkgroupCount(n, size uint32) uint32 {
	if size == 0 {
		size = 1
	}
	return max(1, (n+size-1)/size)
}
