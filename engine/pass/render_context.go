package pass

import "github.com/go-gl/mathgl/mgl32"

// RenderContext carries one frame's read-only data to the passes. The camera values are copies
// taken by the render device before UpdateRender, so passes never see the camera itself.
type RenderContext struct {
	FrameIndex  uint64
	DeltaTime   float32
	ViewProj    mgl32.Mat4
	InvViewProj mgl32.Mat4
	Eye         mgl32.Vec3
}

// Snapshot starts a new frame: it advances FrameIndex and copies the camera values.
//
// Parameters:
//   - dt: the frame delta time in seconds
//   - viewProj: the camera view-projection matrix
//   - eye: the camera position
func (rc *RenderContext) Snapshot(dt float32, viewProj mgl32.Mat4, eye mgl32.Vec3) {
	rc.FrameIndex++
	rc.DeltaTime = dt
	rc.ViewProj = viewProj
	rc.InvViewProj = viewProj.Inv()
	rc.Eye = eye
}
