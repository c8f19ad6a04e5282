package dvs

import "github.com/Carmen-Shannon/oxy-voxel/engine/camera"

// DeferredVoxelShadingOption is a functional option used to configure a DeferredVoxelShading.
type DeferredVoxelShadingOption func(*DeferredVoxelShading)

// WithGridResolution sets the number of voxels along each edge of the grid.
//
// Parameters:
//   - resolution: voxels per edge (default 128)
//
// Returns:
//   - DeferredVoxelShadingOption: option function to apply
func WithGridResolution(resolution uint32) DeferredVoxelShadingOption {
	return func(ds *DeferredVoxelShading) {
		ds.resolution = resolution
	}
}

// WithGridPadding sets the fraction of the scene extent added around the scene on each side.
//
// Parameters:
//   - padding: the padding fraction (default 0.05)
//
// Returns:
//   - DeferredVoxelShadingOption: option function to apply
func WithGridPadding(padding float32) DeferredVoxelShadingOption {
	return func(ds *DeferredVoxelShading) {
		ds.padding = padding
	}
}

// WithProjectionAxis forces the projection axis of every triangle.
//
// Parameters:
//   - axis: AxisAuto, or 0, 1, 2 for x, y, z
//
// Returns:
//   - DeferredVoxelShadingOption: option function to apply
func WithProjectionAxis(axis uint32) DeferredVoxelShadingOption {
	return func(ds *DeferredVoxelShading) {
		ds.axisHint = axis
	}
}

// WithLoadWorkers sets how many workers pack scene meshes at load time.
//
// Parameters:
//   - workers: the worker count (default 4)
//
// Returns:
//   - DeferredVoxelShadingOption: option function to apply
func WithLoadWorkers(workers int) DeferredVoxelShadingOption {
	return func(ds *DeferredVoxelShading) {
		ds.workers = workers
	}
}

// WithLens sets the camera field of view and clip planes applied at Init.
//
// Parameters:
//   - fovDeg: the vertical field of view in degrees
//   - near: the near plane distance
//   - far: the far plane distance
//
// Returns:
//   - DeferredVoxelShadingOption: option function to apply
func WithLens(fovDeg, near, far float32) DeferredVoxelShadingOption {
	return func(ds *DeferredVoxelShading) {
		ds.fovDeg = fovDeg
		ds.near = near
		ds.far = far
	}
}

// WithCameraController replaces the default first-person controller.
//
// Parameters:
//   - cc: the controller
//
// Returns:
//   - DeferredVoxelShadingOption: option function to apply
func WithCameraController(cc camera.CameraController) DeferredVoxelShadingOption {
	return func(ds *DeferredVoxelShading) {
		ds.controller = cc
	}
}
