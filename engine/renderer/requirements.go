package renderer

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Requirements lists what a render device needs from the adapter. Zero limit fields mean
// "no requirement" and are left at the WebGPU defaults when the device is requested.
type Requirements struct {
	Features []wgpu.FeatureName
	Limits   wgpu.Limits
}

type limitKind int

const (
	// limitMax is satisfied when the adapter supports at least the required value.
	limitMax limitKind = iota
	// limitAlign is satisfied when the adapter supports at most the required value.
	limitAlign
)

type limitField struct {
	name string
	kind limitKind
	get  func(l *wgpu.Limits) uint64
	set  func(l *wgpu.Limits, v uint64)
}

// checkedLimits are the limits compared by CheckLimits and raised by RaiseLimits.
var checkedLimits = []limitField{
	{"MaxTextureDimension2D", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxTextureDimension2D) },
		func(l *wgpu.Limits, v uint64) { l.MaxTextureDimension2D = uint32(v) }},
	{"MaxTextureDimension3D", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxTextureDimension3D) },
		func(l *wgpu.Limits, v uint64) { l.MaxTextureDimension3D = uint32(v) }},
	{"MaxBindGroups", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxBindGroups) },
		func(l *wgpu.Limits, v uint64) { l.MaxBindGroups = uint32(v) }},
	{"MaxStorageBuffersPerShaderStage", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxStorageBuffersPerShaderStage) },
		func(l *wgpu.Limits, v uint64) { l.MaxStorageBuffersPerShaderStage = uint32(v) }},
	{"MaxStorageTexturesPerShaderStage", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxStorageTexturesPerShaderStage) },
		func(l *wgpu.Limits, v uint64) { l.MaxStorageTexturesPerShaderStage = uint32(v) }},
	{"MaxUniformBuffersPerShaderStage", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxUniformBuffersPerShaderStage) },
		func(l *wgpu.Limits, v uint64) { l.MaxUniformBuffersPerShaderStage = uint32(v) }},
	{"MaxComputeInvocationsPerWorkgroup", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxComputeInvocationsPerWorkgroup) },
		func(l *wgpu.Limits, v uint64) { l.MaxComputeInvocationsPerWorkgroup = uint32(v) }},
	{"MaxComputeWorkgroupSizeX", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxComputeWorkgroupSizeX) },
		func(l *wgpu.Limits, v uint64) { l.MaxComputeWorkgroupSizeX = uint32(v) }},
	{"MaxComputeWorkgroupsPerDimension", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxComputeWorkgroupsPerDimension) },
		func(l *wgpu.Limits, v uint64) { l.MaxComputeWorkgroupsPerDimension = uint32(v) }},
	{"MaxStorageBufferBindingSize", limitMax,
		func(l *wgpu.Limits) uint64 { return uint64(l.MaxStorageBufferBindingSize) },
		func(l *wgpu.Limits, v uint64) { l.MaxStorageBufferBindingSize = v }},
	{"MinUniformBufferOffsetAlignment", limitAlign,
		func(l *wgpu.Limits) uint64 { return uint64(l.MinUniformBufferOffsetAlignment) },
		func(l *wgpu.Limits, v uint64) { l.MinUniformBufferOffsetAlignment = uint32(v) }},
	{"MinStorageBufferOffsetAlignment", limitAlign,
		func(l *wgpu.Limits) uint64 { return uint64(l.MinStorageBufferOffsetAlignment) },
		func(l *wgpu.Limits, v uint64) { l.MinStorageBufferOffsetAlignment = uint32(v) }},
}

// CheckLimits compares the adapter's supported limits with a requirement. Maximum-style limits
// must be at least the required value; alignment limits must be at most the required value.
// Zero required fields are skipped.
//
// Parameters:
//   - supported: the limits reported by the adapter
//   - required: the limits the render device needs
//
// Returns:
//   - error: an error listing every unmet limit, or nil
func CheckLimits(supported, required wgpu.Limits) error {
	var unmet []string
	for _, f := range checkedLimits {
		want := f.get(&required)
		if want == 0 {
			continue
		}
		have := f.get(&supported)
		switch f.kind {
		case limitMax:
			if have < want {
				unmet = append(unmet, fmt.Sprintf("%s: need >= %d, adapter supports %d", f.name, want, have))
			}
		case limitAlign:
			if have > want {
				unmet = append(unmet, fmt.Sprintf("%s: need <= %d, adapter requires %d", f.name, want, have))
			}
		}
	}
	if len(unmet) > 0 {
		return fmt.Errorf("unsupported limits: %s", strings.Join(unmet, "; "))
	}
	return nil
}

// CheckFeatures reports every required feature the adapter lacks.
//
// Parameters:
//   - has: reports whether the adapter supports a feature
//   - required: the features the render device needs
//
// Returns:
//   - error: an error listing every missing feature, or nil
func CheckFeatures(has func(wgpu.FeatureName) bool, required []wgpu.FeatureName) error {
	var missing []string
	for _, f := range required {
		if !has(f) {
			missing = append(missing, fmt.Sprintf("%v", f))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("unsupported features: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RaiseLimits returns base with every non-zero required limit applied: maximum-style limits are
// raised and alignment limits lowered, never the other way round.
//
// Parameters:
//   - base: the starting limits, usually wgpu.DefaultLimits()
//   - required: the limits the render device needs
//
// Returns:
//   - wgpu.Limits: the limits to request the device with
func RaiseLimits(base, required wgpu.Limits) wgpu.Limits {
	out := base
	for _, f := range checkedLimits {
		want := f.get(&required)
		if want == 0 {
			continue
		}
		have := f.get(&out)
		switch f.kind {
		case limitMax:
			if want > have {
				f.set(&out, want)
			}
		case limitAlign:
			if want < have {
				f.set(&out, want)
			}
		}
	}
	return out
}
