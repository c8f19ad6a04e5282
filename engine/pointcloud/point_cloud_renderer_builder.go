package pointcloud

import "github.com/Carmen-Shannon/oxy-voxel/engine/camera"

// PointCloudRendererOption is a functional option used to configure a PointCloudRenderer.
type PointCloudRendererOption func(*PointCloudRenderer)

// WithDecodeWorkers sets how many scans are decoded in parallel.
//
// Parameters:
//   - n: the number of workers (default 4, minimum 1)
//
// Returns:
//   - PointCloudRendererOption: option function to apply
func WithDecodeWorkers(n int) PointCloudRendererOption {
	return func(r *PointCloudRenderer) {
		r.workers = max(n, 1)
	}
}

// WithLens sets the field of view and clip planes.
//
// Parameters:
//   - fovDeg: the vertical field of view in degrees
//   - near, far: the clip planes
//
// Returns:
//   - PointCloudRendererOption: option function to apply
func WithLens(fovDeg, near, far float32) PointCloudRendererOption {
	return func(r *PointCloudRenderer) {
		r.fovDeg = fovDeg
		r.near = near
		r.far = far
	}
}

// WithCameraController replaces the default camera controller.
//
// Parameters:
//   - c: the controller
//
// Returns:
//   - PointCloudRendererOption: option function to apply
func WithCameraController(c camera.CameraController) PointCloudRendererOption {
	return func(r *PointCloudRenderer) {
		r.controller = c
	}
}
