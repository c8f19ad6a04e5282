package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption is a functional option applied by NewCamera.
type CameraBuilderOption func(*Camera)

// WithEye sets the camera position.
//
// Parameters:
//   - x, y, z: world-space position
//
// Returns:
//   - CameraBuilderOption: a function that sets the eye
func WithEye(x, y, z float32) CameraBuilderOption {
	return func(c *Camera) {
		c.Eye = mgl32.Vec3{x, y, z}
	}
}

// WithDir sets the view direction.
//
// Parameters:
//   - x, y, z: view direction components
//
// Returns:
//   - CameraBuilderOption: a function that sets the view direction
func WithDir(x, y, z float32) CameraBuilderOption {
	return func(c *Camera) {
		c.Dir = mgl32.Vec3{x, y, z}
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *Camera) {
		c.Up = mgl32.Vec3{x, y, z}
	}
}

// WithAspect sets the aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio
//
// Returns:
//   - CameraBuilderOption: a function that sets the aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *Camera) {
		c.Aspect = aspect
	}
}

// WithFov sets the vertical field of view in degrees.
//
// Parameters:
//   - deg: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the field of view
func WithFov(deg float32) CameraBuilderOption {
	return func(c *Camera) {
		c.FovDeg = deg
	}
}

// WithPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets both planes
func WithPlanes(near, far float32) CameraBuilderOption {
	return func(c *Camera) {
		c.Near = near
		c.Far = far
	}
}
