// Package camera holds the perspective camera value type and the first-person controller that drives it.
package camera

import (
	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a right-handed perspective camera. It is a plain value: the render device owns the
// only instance and hands out matrices built from it, never the Camera itself.
type Camera struct {
	// Eye is the world-space camera position.
	Eye mgl32.Vec3
	// Dir is the view direction. It does not need to be normalized.
	Dir mgl32.Vec3
	// Up is the world up vector used to orient the view.
	Up mgl32.Vec3

	// Aspect is the viewport width divided by its height.
	Aspect float32
	// FovDeg is the vertical field of view in degrees.
	FovDeg float32
	Near   float32
	Far    float32
}

// DefaultCamera returns a camera at (0, 1, 2) looking down -Z with a 60 degree field of view.
//
// Returns:
//   - Camera: the default camera
func DefaultCamera() Camera {
	return Camera{
		Eye:    mgl32.Vec3{0, 1, 2},
		Dir:    mgl32.Vec3{0, 0, -1},
		Up:     mgl32.Vec3{0, 1, 0},
		Aspect: 1,
		FovDeg: 60,
		Near:   0.1,
		Far:    100,
	}
}

// NewCamera returns DefaultCamera with the given options applied.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the configured camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := DefaultCamera()
	for _, opt := range options {
		opt(&c)
	}
	return c
}

// BuildViewMatrix returns the look-at matrix from Eye toward Eye+Dir.
func (c Camera) BuildViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Eye.Add(c.Dir), c.Up)
}

// BuildProjMatrix returns the perspective projection with depth in [0, 1].
func (c Camera) BuildProjMatrix() mgl32.Mat4 {
	var m mgl32.Mat4
	common.Perspective(m[:], common.DegToRad(c.FovDeg), c.Aspect, c.Near, c.Far)
	return m
}

// BuildViewProjMatrix returns proj * view.
func (c Camera) BuildViewProjMatrix() mgl32.Mat4 {
	return c.BuildProjMatrix().Mul4(c.BuildViewMatrix())
}

// Uniform packs the camera into its GPU representation.
//
// Returns:
//   - GPUCameraUniform: the view-projection matrix and eye position
func (c Camera) Uniform() GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:       c.BuildViewProjMatrix(),
		CameraPosition: c.Eye,
	}
}
