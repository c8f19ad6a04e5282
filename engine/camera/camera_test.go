package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCamera(t *testing.T) {
	c := DefaultCamera()
	assert.Equal(t, mgl32.Vec3{0, 1, 2}, c.Eye)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, c.Dir)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, c.Up)
	assert.Equal(t, float32(1), c.Aspect)
	assert.Equal(t, float32(60), c.FovDeg)
	assert.Equal(t, float32(0.1), c.Near)
	assert.Equal(t, float32(100), c.Far)
}

func TestNewCameraOptions(t *testing.T) {
	c := NewCamera(WithEye(0, 0, -3), WithDir(0, 0, 1), WithAspect(2), WithFov(45), WithPlanes(1, 10))
	assert.Equal(t, mgl32.Vec3{0, 0, -3}, c.Eye)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, c.Dir)
	assert.Equal(t, float32(2), c.Aspect)
	assert.Equal(t, float32(45), c.FovDeg)
	assert.Equal(t, float32(1), c.Near)
	assert.Equal(t, float32(10), c.Far)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, c.Up)
}

func TestViewProjIsDeterministic(t *testing.T) {
	c := NewCamera(WithEye(1, 2, 3), WithDir(0.3, -0.2, -1), WithAspect(16.0/9.0))
	first := c.BuildViewProjMatrix()
	for range 10 {
		assert.Equal(t, first, c.BuildViewProjMatrix())
	}
	assert.Equal(t, c.BuildProjMatrix().Mul4(c.BuildViewMatrix()), first)
}

func TestViewProjDepthRange(t *testing.T) {
	c := DefaultCamera()
	vp := c.BuildViewProjMatrix()

	project := func(p mgl32.Vec3) mgl32.Vec3 {
		clip := vp.Mul4x1(p.Vec4(1))
		return clip.Vec3().Mul(1 / clip.W())
	}

	near := project(c.Eye.Add(c.Dir.Mul(c.Near)))
	far := project(c.Eye.Add(c.Dir.Mul(c.Far)))
	assert.InDelta(t, 0, near.Z(), 1e-4)
	assert.InDelta(t, 1, far.Z(), 1e-4)
	assert.InDelta(t, 0, near.X(), 1e-5)
	assert.InDelta(t, 0, near.Y(), 1e-5)
}

func TestUniformMarshal(t *testing.T) {
	c := NewCamera(WithEye(4, 5, 6))
	u := c.Uniform()
	require.Equal(t, 80, u.Size())

	buf := u.Marshal()
	require.Len(t, buf, 80)
	vp := c.BuildViewProjMatrix()
	assert.Equal(t, common.SliceToBytes(vp[:]), buf[:64])
	eye := []float32{4, 5, 6, 0}
	assert.Equal(t, common.SliceToBytes(eye), buf[64:])
}

func TestControllerMovement(t *testing.T) {
	cc := NewCameraController(WithSpeed(0.5))
	cam := DefaultCamera()

	require.True(t, cc.ProcessEvent(window.KeyDown(common.KeyW)))
	cc.UpdateCamera(&cam)
	assert.True(t, cam.Eye.ApproxEqual(mgl32.Vec3{0, 1, 1.5}), "W moves along dir: %v", cam.Eye)

	require.True(t, cc.ProcessEvent(window.KeyUp(common.KeyW)))
	cc.UpdateCamera(&cam)
	assert.True(t, cam.Eye.ApproxEqual(mgl32.Vec3{0, 1, 1.5}), "release stops: %v", cam.Eye)

	require.True(t, cc.ProcessEvent(window.KeyDown(common.KeyS)))
	cc.UpdateCamera(&cam)
	assert.True(t, cam.Eye.ApproxEqual(mgl32.Vec3{0, 1, 2}), "S moves back: %v", cam.Eye)
	cc.ProcessEvent(window.KeyUp(common.KeyS))

	require.True(t, cc.ProcessEvent(window.KeyDown(common.KeyA)))
	cc.UpdateCamera(&cam)
	assert.True(t, cam.Eye.ApproxEqual(mgl32.Vec3{-0.5, 1, 2}), "A strafes left: %v", cam.Eye)
	cc.ProcessEvent(window.KeyUp(common.KeyA))

	require.True(t, cc.ProcessEvent(window.KeyDown(common.KeyD)))
	cc.UpdateCamera(&cam)
	assert.True(t, cam.Eye.ApproxEqual(mgl32.Vec3{0, 1, 2}), "D strafes right: %v", cam.Eye)

	assert.False(t, cc.ProcessEvent(window.KeyDown(common.KeySpace)))
}

func TestControllerRotation(t *testing.T) {
	cc := NewCameraController()
	cam := DefaultCamera()

	// cursor motion without the right button does nothing
	assert.False(t, cc.ProcessEvent(window.MouseMove(100, 100)))
	assert.False(t, cc.ProcessEvent(window.MouseMove(90, 100)))
	cc.UpdateCamera(&cam)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, cam.Dir)

	assert.False(t, cc.ProcessEvent(window.MouseButtonDown(common.MouseButtonLeft, 90, 100)))
	require.True(t, cc.ProcessEvent(window.MouseButtonDown(common.MouseButtonRight, 100, 100)))
	assert.True(t, cc.Rotating())

	require.True(t, cc.ProcessEvent(window.MouseMove(90, 100)))
	cc.UpdateCamera(&cam)

	yaw := float32(10 * 8e-3)
	assert.InDelta(t, -math32.Sin(yaw), cam.Dir.X(), 1e-5)
	assert.InDelta(t, 0, cam.Dir.Y(), 1e-5)
	assert.InDelta(t, -math32.Cos(yaw), cam.Dir.Z(), 1e-5)

	// pending rotation is consumed
	before := cam.Dir
	cc.UpdateCamera(&cam)
	assert.Equal(t, before, cam.Dir)

	require.True(t, cc.ProcessEvent(window.MouseButtonUp(common.MouseButtonRight, 90, 100)))
	assert.False(t, cc.Rotating())
}

func TestControllerPitch(t *testing.T) {
	cc := NewCameraController()
	cam := DefaultCamera()

	cc.ProcessEvent(window.MouseButtonDown(common.MouseButtonRight, 0, 0))
	cc.ProcessEvent(window.MouseMove(0, -10)) // cursor up: look up
	cc.UpdateCamera(&cam)

	assert.Greater(t, cam.Dir.Y(), float32(0))
	assert.InDelta(t, 1, cam.Dir.Len(), 1e-5)
}
