package shader

// ShaderBuilderOption is a functional option applied by NewShader.
type ShaderBuilderOption func(s *shader)

// WithInclude registers a WGSL snippet that the source can pull in with "//!include name".
//
// Parameters:
//   - name: the include name
//   - source: the WGSL text to inject
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithInclude(name, source string) ShaderBuilderOption {
	return func(s *shader) {
		s.pp.Register(name, source)
	}
}
