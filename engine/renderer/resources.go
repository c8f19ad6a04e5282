package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoLayout is returned by InitBindGroup when the provider has no bind group layout.
var ErrNoLayout = errors.New("bind group provider has no layout")

// PaddedBufferSize rounds n up to a multiple of four, with a minimum of four.
//
// Parameters:
//   - n: the payload size in bytes
//
// Returns:
//   - uint64: the buffer size to allocate
func PaddedBufferSize(n int) uint64 {
	if n < 4 {
		return 4
	}
	return uint64((n + 3) &^ 3)
}

func (dc *deviceContext) CreateBufferInit(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	size := PaddedBufferSize(len(data))
	contents := data
	if uint64(len(data)) != size {
		contents = make([]byte, size)
		copy(contents, data)
	}

	buf, err := dc.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}
	return buf, nil
}

// createLayouts creates one GPU layout per host descriptor, in group order.
func (dc *deviceContext) createLayouts(p pipeline.Pipeline) ([]*wgpu.BindGroupLayout, error) {
	descs := p.BindGroupLayouts()
	layouts := make([]*wgpu.BindGroupLayout, len(descs))
	for g := range descs {
		desc := descs[g]
		if desc.Label == "" {
			desc.Label = fmt.Sprintf("%s group %d", p.PipelineKey(), g)
		}
		layout, err := dc.device.CreateBindGroupLayout(&desc)
		if err != nil {
			for _, l := range layouts[:g] {
				l.Release()
			}
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		layouts[g] = layout
	}
	return layouts, nil
}

func (dc *deviceContext) RegisterComputePipeline(p pipeline.Pipeline) error {
	if p.Type() != pipeline.PipelineTypeCompute {
		return fmt.Errorf("pipeline %s is not a compute pipeline", p.PipelineKey())
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s := p.Shader()
	module, err := dc.device.CreateShaderModule(s.Module())
	if err != nil {
		return fmt.Errorf("failed to create shader module %s: %w", s.Key(), err)
	}
	defer module.Release()

	layouts, err := dc.createLayouts(p)
	if err != nil {
		return err
	}
	p.SetBindGroupLayouts(layouts)

	layout, err := dc.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout %s: %w", p.PipelineKey(), err)
	}
	defer layout.Release()

	created, err := dc.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: s.EntryPoint(shader.ShaderTypeCompute),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create compute pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetComputePipeline(created)
	return nil
}

func (dc *deviceContext) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if p.Type() != pipeline.PipelineTypeRender {
		return fmt.Errorf("pipeline %s is not a render pipeline", p.PipelineKey())
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s := p.Shader()
	module, err := dc.device.CreateShaderModule(s.Module())
	if err != nil {
		return fmt.Errorf("failed to create shader module %s: %w", s.Key(), err)
	}
	defer module.Release()

	layouts, err := dc.createLayouts(p)
	if err != nil {
		return err
	}
	p.SetBindGroupLayouts(layouts)

	layout, err := dc.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout %s: %w", p.PipelineKey(), err)
	}
	defer layout.Release()

	target := wgpu.ColorTargetState{
		Format:    p.ColorFormat(),
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	var depthStencil *wgpu.DepthStencilState
	if p.DepthFormat() != wgpu.TextureFormatUndefined {
		depthStencil = &wgpu.DepthStencilState{
			Format:            p.DepthFormat(),
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      p.DepthCompare(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := dc.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: s.EntryPoint(shader.ShaderTypeVertex),
			Buffers:    p.VertexBuffers(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: s.EntryPoint(shader.ShaderTypeFragment),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return fmt.Errorf("failed to create render pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetRenderPipeline(created)
	return nil
}

func (dc *deviceContext) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, sizeOverrides map[int]uint64) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	layout := provider.BindGroupLayout()
	if layout == nil {
		return fmt.Errorf("%s: %w", provider.Label(), ErrNoLayout)
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined ||
			entry.StorageTexture.Access != wgpu.StorageTextureAccessUndefined
		if isTexture {
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("%s: texture binding %d has no texture view", provider.Label(), binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: tv,
			}
			continue
		}

		buf := provider.Buffer(binding)
		if buf == nil {
			usage := wgpu.BufferUsageCopyDst
			switch entry.Buffer.Type {
			case wgpu.BufferBindingTypeUniform:
				usage |= wgpu.BufferUsageUniform
			case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
				usage |= wgpu.BufferUsageStorage
			}
			size := entry.Buffer.MinBindingSize
			if override, ok := sizeOverrides[binding]; ok {
				size = override
			}
			var err error
			buf, err = dc.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
				Size:  PaddedBufferSize(int(size)),
				Usage: usage,
			})
			if err != nil {
				return fmt.Errorf("%s: failed to create buffer for binding %d: %w", provider.Label(), binding, err)
			}
			provider.SetOwnedBuffer(binding, buf)
		}
		entries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := dc.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("%s: failed to create bind group: %w", provider.Label(), err)
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (dc *deviceContext) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		dc.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}
