// Package pass defines the contract between a render device and the passes it drives each frame.
package pass

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// RenderPass is one stage of a frame. A render device calls every pass in order, one at a time,
// on the thread that owns the window. All UpdateRender calls of a frame finish before the first
// Render call of that frame.
type RenderPass interface {
	// OnResized is called after the surface was reconfigured.
	//
	// Parameters:
	//   - config: the new surface configuration
	//   - dc: the device context
	OnResized(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext)

	// ProcessEvent receives every input event the render device receives.
	//
	// Parameters:
	//   - ev: the input event
	ProcessEvent(ev window.Event)

	// UpdateRender uploads per-frame data. Textures meant for later passes are published here.
	//
	// Parameters:
	//   - dc: the device context
	//   - rc: the frame's read-only context
	//   - bb: the render device's Black Board
	UpdateRender(dc renderer.DeviceContext, rc *RenderContext, bb *BlackBoard)

	// Render records commands into the frame encoder. It must not finish or submit the encoder.
	//
	// Parameters:
	//   - backBuffer: the surface view for this frame
	//   - encoder: the shared frame encoder
	//   - dc: the device context
	//   - rc: the frame's read-only context
	//   - bb: the render device's Black Board
	Render(backBuffer *wgpu.TextureView, encoder *wgpu.CommandEncoder, dc renderer.DeviceContext, rc *RenderContext, bb *BlackBoard)
}
