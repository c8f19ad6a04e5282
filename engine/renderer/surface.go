package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

func (m PresentMode) toWGPU() wgpu.PresentMode {
	if m == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// SurfaceWrapper configures the window surface and hands out one frame at a time.
type SurfaceWrapper interface {
	// Configure picks the first supported surface format and configures the surface.
	// Sizes below 1x1 are clamped.
	//
	// Parameters:
	//   - width: the framebuffer width in pixels
	//   - height: the framebuffer height in pixels
	//
	// Returns:
	//   - *wgpu.SurfaceConfiguration: the applied configuration
	Configure(width, height int) *wgpu.SurfaceConfiguration

	// Resize reconfigures the surface with a new size, keeping the format.
	//
	// Parameters:
	//   - width: the framebuffer width in pixels
	//   - height: the framebuffer height in pixels
	//
	// Returns:
	//   - *wgpu.SurfaceConfiguration: the applied configuration
	Resize(width, height int) *wgpu.SurfaceConfiguration

	// Config returns the current configuration, or nil before Configure.
	//
	// Returns:
	//   - *wgpu.SurfaceConfiguration: the current configuration
	Config() *wgpu.SurfaceConfiguration

	// Acquire gets the next surface texture and a view of it. A failed acquire reconfigures the
	// surface and retries once; a second failure panics.
	//
	// Returns:
	//   - *wgpu.TextureView: the back buffer view for this frame
	Acquire() *wgpu.TextureView

	// Present presents the acquired frame and releases it. It does nothing when no frame is held.
	Present()
}

type surfaceWrapper struct {
	mu *sync.Mutex

	dc          DeviceContext
	config      *wgpu.SurfaceConfiguration
	presentMode PresentMode

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ SurfaceWrapper = &surfaceWrapper{}

// NewSurfaceWrapper wraps the surface of a device context. Call Configure before Acquire.
//
// Parameters:
//   - dc: the device context owning the surface
//   - options: functional options to configure presentation
//
// Returns:
//   - SurfaceWrapper: the new wrapper
func NewSurfaceWrapper(dc DeviceContext, options ...SurfaceWrapperBuilderOption) SurfaceWrapper {
	s := &surfaceWrapper{
		mu:          &sync.Mutex{},
		dc:          dc,
		presentMode: PresentModeVSync,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// clampSize keeps surface dimensions at 1x1 or larger.
func clampSize(width, height int) (uint32, uint32) {
	return uint32(max(width, 1)), uint32(max(height, 1))
}

func (s *surfaceWrapper) Configure(width, height int) *wgpu.SurfaceConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()

	capabilities := s.dc.Surface().GetCapabilities(s.dc.Adapter())
	w, h := clampSize(width, height)
	s.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      capabilities.Formats[0],
		Width:       w,
		Height:      h,
		PresentMode: s.presentMode.toWGPU(),
		AlphaMode:   capabilities.AlphaModes[0],
		ViewFormats: []wgpu.TextureFormat{capabilities.Formats[0]},
	}
	s.dc.Surface().Configure(s.dc.Adapter(), s.dc.Device(), s.config)
	common.Logger().Debug("surface configured", "width", w, "height", h, "format", fmt.Sprint(s.config.Format))
	return s.config
}

func (s *surfaceWrapper) Resize(width, height int) *wgpu.SurfaceConfiguration {
	s.mu.Lock()
	if s.config == nil {
		s.mu.Unlock()
		return s.Configure(width, height)
	}
	defer s.mu.Unlock()

	s.config.Width, s.config.Height = clampSize(width, height)
	s.dc.Surface().Configure(s.dc.Adapter(), s.dc.Device(), s.config)
	return s.config
}

func (s *surfaceWrapper) Config() *wgpu.SurfaceConfiguration {
	return s.config
}

func (s *surfaceWrapper) Acquire() *wgpu.TextureView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frameTexture != nil {
		panic("surface frame acquired twice without Present")
	}

	tex := acquireWithRetry(s.dc.Surface().GetCurrentTexture, func() {
		s.dc.Surface().Configure(s.dc.Adapter(), s.dc.Device(), s.config)
	})
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		panic(fmt.Sprintf("failed to create surface view: %v", err))
	}
	s.frameTexture = tex
	s.frameView = view
	return view
}

// acquireWithRetry calls get, and on failure calls reconfigure and tries once more.
// A second failure panics with both errors.
func acquireWithRetry(get func() (*wgpu.Texture, error), reconfigure func()) *wgpu.Texture {
	tex, err := get()
	if err == nil {
		return tex
	}
	common.Logger().Warn("surface acquire failed, reconfiguring", "error", err)
	reconfigure()

	tex, retryErr := get()
	if retryErr != nil {
		panic(fmt.Sprintf("failed to acquire surface texture: %v (after reconfigure: %v)", err, retryErr))
	}
	return tex
}

func (s *surfaceWrapper) Present() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frameTexture == nil {
		return
	}
	s.dc.Surface().Present()

	if s.frameView != nil {
		s.frameView.Release()
		s.frameView = nil
	}
	s.frameTexture.Release()
	s.frameTexture = nil
}
