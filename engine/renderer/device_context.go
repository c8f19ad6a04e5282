package renderer

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// DeviceContext owns the WebGPU instance, surface, adapter, device and queue, and creates the
// GPU objects render passes need.
type DeviceContext interface {
	// Instance returns the WebGPU instance.
	//
	// Returns:
	//   - *wgpu.Instance: the instance
	Instance() *wgpu.Instance

	// Adapter returns the adapter the device was requested from.
	//
	// Returns:
	//   - *wgpu.Adapter: the adapter
	Adapter() *wgpu.Adapter

	// Device returns the logical device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue returns the device queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue

	// Surface returns the window surface.
	//
	// Returns:
	//   - *wgpu.Surface: the surface
	Surface() *wgpu.Surface

	// Limits returns the limits the device was created with.
	//
	// Returns:
	//   - wgpu.Limits: the granted limits
	Limits() wgpu.Limits

	// CreateBufferInit creates a buffer holding data. The size is rounded up to a multiple of four
	// bytes and to at least four bytes, as buffer copies require.
	//
	// Parameters:
	//   - label: the debug label
	//   - usage: the buffer usage; CopyDst is always added
	//   - data: the initial contents
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: an error if creation or upload fails
	CreateBufferInit(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error)

	// RegisterComputePipeline validates a compute pipeline, then creates its shader module, bind
	// group layouts, pipeline layout and pipeline.
	//
	// Parameters:
	//   - p: the pipeline to create
	//
	// Returns:
	//   - error: a validation or creation error
	RegisterComputePipeline(p pipeline.Pipeline) error

	// RegisterRenderPipeline validates a render pipeline, then creates its shader module, bind
	// group layouts, pipeline layout and pipeline.
	//
	// Parameters:
	//   - p: the pipeline to create
	//
	// Returns:
	//   - error: a validation or creation error
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitBindGroup creates the provider's bind group. Texture bindings take the views already
	// set on the provider. Buffer bindings take a buffer already set on the provider, or get a
	// new one sized to the binding's MinBindingSize unless sizeOverrides says otherwise.
	//
	// Parameters:
	//   - provider: the provider to initialize; its layout must be set
	//   - descriptor: the layout descriptor the provider's layout was created from
	//   - sizeOverrides: buffer sizes keyed by binding, for runtime-sized arrays
	//
	// Returns:
	//   - error: an error naming the binding that could not be bound
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, sizeOverrides map[int]uint64) error

	// WriteBuffers queues every write. Writes to bindings without a buffer are skipped.
	//
	// Parameters:
	//   - writes: the buffer writes to perform
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// Release frees the device and every object created with NewDeviceContext.
	Release()
}

type deviceContext struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	limits   wgpu.Limits

	label                string
	forceFallbackAdapter bool
	powerPreference      wgpu.PowerPreference
}

var _ DeviceContext = &deviceContext{}

// NewDeviceContext creates the instance and surface, picks an adapter compatible with the
// surface, checks it against req, and requests the device. Unmet requirements and GPU
// initialization failures are fatal and panic with a message listing every problem.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - req: the features and limits the render device needs
//   - options: functional options to configure adapter selection
//
// Returns:
//   - DeviceContext: the initialized device context
func NewDeviceContext(surfaceDescriptor *wgpu.SurfaceDescriptor, req Requirements, options ...DeviceContextBuilderOption) DeviceContext {
	runtime.LockOSThread()
	dc := &deviceContext{
		mu:              &sync.Mutex{},
		label:           "Main Device",
		powerPreference: wgpu.PowerPreferenceHighPerformance,
	}
	for _, opt := range options {
		opt(dc)
	}

	dc.instance = wgpu.CreateInstance(nil)
	dc.surface = dc.instance.CreateSurface(surfaceDescriptor)

	a, err := dc.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: dc.forceFallbackAdapter,
		PowerPreference:      dc.powerPreference,
		CompatibleSurface:    dc.surface,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to request adapter: %v", err))
	}
	dc.adapter = a

	var unmet []string
	if err := CheckFeatures(a.HasFeature, req.Features); err != nil {
		unmet = append(unmet, err.Error())
	}
	supported := a.GetLimits()
	if err := CheckLimits(supported.Limits, req.Limits); err != nil {
		unmet = append(unmet, err.Error())
	}
	if len(unmet) > 0 {
		panic(fmt.Sprintf("adapter does not meet requirements: %s", strings.Join(unmet, "; ")))
	}

	dc.limits = RaiseLimits(wgpu.DefaultLimits(), req.Limits)
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            dc.label,
		RequiredFeatures: req.Features,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: dc.limits,
		},
		DeviceLostCallback: deviceLostHandler(dc.label),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to request device: %v", err))
	}
	dc.device = d
	dc.queue = d.GetQueue()

	common.Logger().Info("device ready", "label", dc.label, "fallback", dc.forceFallbackAdapter)
	return dc
}

// deviceLostHandler returns the callback run when the device labelled label is lost. Loss is
// logged; any reason other than an explicit release is fatal.
func deviceLostHandler(label string) wgpu.DeviceLostCallback {
	return func(reason wgpu.DeviceLostReason, message string) {
		if reason == wgpu.DeviceLostReasonDestroyed {
			common.Logger().Info("device released", "label", label, "message", message)
			return
		}
		common.Logger().Error("device lost", "label", label, "reason", reason.String(), "message", message)
		panic(fmt.Sprintf("device %q lost (%s): %s", label, reason, message))
	}
}

func (dc *deviceContext) Instance() *wgpu.Instance {
	return dc.instance
}

func (dc *deviceContext) Adapter() *wgpu.Adapter {
	return dc.adapter
}

func (dc *deviceContext) Device() *wgpu.Device {
	return dc.device
}

func (dc *deviceContext) Queue() *wgpu.Queue {
	return dc.queue
}

func (dc *deviceContext) Surface() *wgpu.Surface {
	return dc.surface
}

func (dc *deviceContext) Limits() wgpu.Limits {
	return dc.limits
}

func (dc *deviceContext) Release() {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.queue != nil {
		dc.queue.Release()
		dc.queue = nil
	}
	if dc.device != nil {
		dc.device.Release()
		dc.device = nil
	}
	if dc.adapter != nil {
		dc.adapter.Release()
		dc.adapter = nil
	}
	if dc.surface != nil {
		dc.surface.Release()
		dc.surface = nil
	}
	if dc.instance != nil {
		dc.instance.Release()
		dc.instance = nil
	}
}
