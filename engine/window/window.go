package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window defines the interface for a platform window that owns the event loop and
// exposes a WebGPU surface descriptor.
type Window interface {
	// SetUpdateCallback registers the function invoked once per loop iteration after events are polled.
	// The whole frame runs inside this callback on the window's thread.
	//
	// Parameters:
	//   - callback: the per-iteration function
	SetUpdateCallback(callback func())

	// SetResizeCallback registers the function invoked when the framebuffer size changes.
	//
	// Parameters:
	//   - callback: receives the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetEventCallback registers the function that receives every input event.
	//
	// Parameters:
	//   - callback: receives each input Event in arrival order
	SetEventCallback(callback func(ev Event))

	// SurfaceDescriptor returns the platform surface descriptor used to create a wgpu.Surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: true while the window is open
	IsRunning() bool

	// Close destroys the window.
	//
	// Returns:
	//   - error: an error if the window was never initialized
	Close() error

	// ProcessMessages runs the event loop until the window closes.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: the framebuffer width
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: the framebuffer height
	Height() int
}

type engineWindow struct {
	title string

	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int

	width  int
	height int

	// internalWindow holds the platform handle (*glfwWindow).
	internalWindow any

	onUpdate func()
	onResize func(width, height int)
	onEvent  func(ev Event)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a platform window. It panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "oxy-voxel",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetEventCallback(callback func(ev Event)) {
	w.onEvent = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// emit forwards an event to the registered callback, if any.
func (w *engineWindow) emit(ev Event) {
	if w.onEvent != nil {
		w.onEvent(ev)
	}
}
