package engine

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// RenderDevice is a complete renderer the engine drives: it declares what it needs from the
// GPU, builds its passes in Init and renders one frame per loop iteration. Every method is
// called on the window thread.
type RenderDevice interface {
	// Name identifies the render device in logs.
	//
	// Returns:
	//   - string: the name
	Name() string

	// RequiredFeatures lists the features the adapter must support.
	//
	// Returns:
	//   - []wgpu.FeatureName: the required features
	RequiredFeatures() []wgpu.FeatureName

	// RequiredLimits lists the limits the adapter must support. Zero fields are not checked.
	//
	// Returns:
	//   - wgpu.Limits: the required limits
	RequiredLimits() wgpu.Limits

	// Init loads assets and builds every pass. It is called once, after the surface is configured.
	//
	// Parameters:
	//   - config: the surface configuration
	//   - dc: the device context
	//
	// Returns:
	//   - error: an error if loading or pass construction fails
	Init(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext) error

	// Resize is called after the surface was reconfigured for a new size.
	//
	// Parameters:
	//   - config: the new surface configuration
	//   - dc: the device context
	Resize(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext)

	// ProcessEvent receives every input event.
	//
	// Parameters:
	//   - ev: the input event
	ProcessEvent(ev window.Event)

	// UpdateRender uploads the frame's data.
	//
	// Parameters:
	//   - dc: the device context
	//   - dt: seconds since the previous frame
	UpdateRender(dc renderer.DeviceContext, dt float32)

	// Render records and submits the frame into the back buffer.
	//
	// Parameters:
	//   - backBuffer: the surface view for this frame
	//   - dc: the device context
	Render(backBuffer *wgpu.TextureView, dc renderer.DeviceContext)

	// Release frees every GPU object the render device created.
	Release()
}
