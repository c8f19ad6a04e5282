package renderer

// SurfaceWrapperBuilderOption is a functional option applied to a surface wrapper during construction via NewSurfaceWrapper.
type SurfaceWrapperBuilderOption func(*surfaceWrapper)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - SurfaceWrapperBuilderOption: a function that applies the present mode option to a surface wrapper
func WithPresentMode(mode PresentMode) SurfaceWrapperBuilderOption {
	return func(s *surfaceWrapper) {
		s.presentMode = mode
	}
}
