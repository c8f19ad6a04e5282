// Package engine runs a RenderDevice inside a window: it owns the device context, the surface
// and the single-threaded frame loop.
package engine

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/profiler"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
)

// engine implements the Engine interface.
type engine struct {
	device RenderDevice

	window        window.Window
	windowOptions []window.WindowBuilderOption

	dc            renderer.DeviceContext
	deviceOptions []renderer.DeviceContextBuilderOption
	surface       renderer.SurfaceWrapper
	presentMode   renderer.PresentMode

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrame        time.Time
	now              func() time.Time
	sleep            func(time.Duration)
}

// Engine opens the window, creates the GPU device for a RenderDevice and runs the frame loop.
// Each frame runs on the window thread: UpdateRender, acquire, Render, present.
type Engine interface {
	// Window returns the window, or nil before Run created it.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables the once-per-second frame time log line.
	EnableProfiler()

	// DisableProfiler disables the frame time log line.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run creates the window if none was given, then the device context and surface, initializes
	// the render device and runs the frame loop until the window closes. GPU setup failures panic.
	//
	// Returns:
	//   - error: the render device's Init error
	Run() error
}

// NewEngine creates an Engine for a render device.
//
// Parameters:
//   - device: the render device to drive
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(device RenderDevice, options ...EngineBuilderOption) Engine {
	e := &engine{
		device:      device,
		presentMode: renderer.PresentModeVSync,
		profiler:    profiler.NewProfiler(),
		now:         time.Now,
		sleep:       time.Sleep,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Run() error {
	if e.window == nil {
		e.window = window.NewWindow(e.windowOptions...)
	}

	req := renderer.Requirements{
		Features: e.device.RequiredFeatures(),
		Limits:   e.device.RequiredLimits(),
	}
	e.dc = renderer.NewDeviceContext(e.window.SurfaceDescriptor(), req, e.deviceOptions...)
	defer e.dc.Release()

	e.surface = renderer.NewSurfaceWrapper(e.dc, renderer.WithPresentMode(e.presentMode))
	config := e.surface.Configure(e.window.Width(), e.window.Height())

	if err := e.device.Init(config, e.dc); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", e.device.Name(), err)
	}
	defer e.device.Release()
	common.Logger().Info("render device ready", "device", e.device.Name(), "width", config.Width, "height", config.Height)

	e.window.SetResizeCallback(e.resize)
	e.window.SetEventCallback(e.device.ProcessEvent)
	e.window.SetUpdateCallback(e.frame)

	e.lastFrame = e.now()
	e.window.ProcessMessages()
	common.Logger().Info("window closed", "device", e.device.Name())
	return nil
}

// resize reconfigures the surface and notifies the render device.
func (e *engine) resize(width, height int) {
	config := e.surface.Resize(width, height)
	e.device.Resize(config, e.dc)
}

// frame runs one iteration of the loop. All uploads finish before the back buffer is acquired.
func (e *engine) frame() {
	start := e.now()
	dt := float32(start.Sub(e.lastFrame).Seconds())
	e.lastFrame = start

	e.device.UpdateRender(e.dc, dt)
	backBuffer := e.surface.Acquire()
	e.device.Render(backBuffer, e.dc)
	e.surface.Present()

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
			e.sleep(remaining)
		}
	}
}
