package renderer

import "github.com/cogentcore/webgpu/wgpu"

// DeviceContextBuilderOption is a functional option applied to a device context during construction via NewDeviceContext.
type DeviceContextBuilderOption func(*deviceContext)

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - DeviceContextBuilderOption: a function that applies the force fallback option
func WithForceFallbackAdapter(force bool) DeviceContextBuilderOption {
	return func(dc *deviceContext) {
		dc.forceFallbackAdapter = force
	}
}

// WithPowerPreference selects between integrated and discrete adapters when both are present.
//
// Parameters:
//   - pref: the power preference
//
// Returns:
//   - DeviceContextBuilderOption: a function that applies the power preference
func WithPowerPreference(pref wgpu.PowerPreference) DeviceContextBuilderOption {
	return func(dc *deviceContext) {
		dc.powerPreference = pref
	}
}

// WithDeviceLabel sets the debug label of the logical device.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - DeviceContextBuilderOption: a function that applies the label
func WithDeviceLabel(label string) DeviceContextBuilderOption {
	return func(dc *deviceContext) {
		dc.label = label
	}
}
